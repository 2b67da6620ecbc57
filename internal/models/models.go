package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusNotStarted ProjectStatus = "Not Started"
	ProjectStatusInProgress ProjectStatus = "In Progress"
	ProjectStatusCompleted  ProjectStatus = "Completed"
	ProjectStatusOnHold     ProjectStatus = "On Hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusNotStarted, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusOnHold:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusNotStarted      TaskStatus = "Not Started"
	TaskStatusInProgress      TaskStatus = "In Progress"
	TaskStatusForReview       TaskStatus = "For Review"
	TaskStatusPendingApproval TaskStatus = "Pending Approval"
	TaskStatusCompleted       TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusForReview, TaskStatusPendingApproval, TaskStatusCompleted:
		return true
	}
	return false
}

// AwaitingApproval reports whether a task in this status carries a proof
// that an approver can accept or reject.
func (s TaskStatus) AwaitingApproval() bool {
	return s == TaskStatusForReview || s == TaskStatusPendingApproval
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Project struct {
	ID               uint          `json:"id" gorm:"primaryKey"`
	Name             string        `json:"name" gorm:"not null"`
	Description      string        `json:"description"`
	Status           ProjectStatus `json:"status" gorm:"default:'Not Started'"`
	ClientID         uint          `json:"client_id" gorm:"not null;index"`
	ProjectManagerID *uint         `json:"project_manager_id" gorm:"index"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          *time.Time    `json:"end_date"`
	IsArchived       bool          `json:"is_archived" gorm:"default:false;index"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Client           *User         `json:"-" gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
	ProjectManager   *User         `json:"-" gorm:"foreignKey:ProjectManagerID;constraint:OnDelete:RESTRICT"`
}

type ProjectTeam struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uint      `json:"project_id" gorm:"not null;uniqueIndex:idx_project_team_member"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_project_team_member"`
	Role      string    `json:"role" gorm:"default:'Team Member'"`
	JoinedAt  time.Time `json:"joined_at"`
	Project   *Project  `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

const TeamRoleMember = "Team Member"

type Task struct {
	ID                uint         `json:"id" gorm:"primaryKey"`
	ProjectID         uint         `json:"project_id" gorm:"not null;index"`
	Title             string       `json:"title" gorm:"not null"`
	Description       string       `json:"description"`
	Status            TaskStatus   `json:"status" gorm:"default:'Not Started'"`
	Priority          TaskPriority `json:"priority" gorm:"default:'Medium'"`
	StartDate         time.Time    `json:"start_date"`
	DueDate           time.Time    `json:"due_date"`
	ProofFilePath     *string      `json:"proof_file_path,omitempty"`
	IsConfirmed       bool         `json:"is_confirmed" gorm:"default:false"`
	Remarks           string       `json:"remarks"`
	DisapprovalRemark *string      `json:"disapproval_remark,omitempty"`
	DisapprovedAt     *time.Time   `json:"disapproved_at,omitempty"`
	SubmittedByID     *uint        `json:"submitted_by_id,omitempty"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
	CreatedBy         uint         `json:"created_by"`
	IsArchived        bool         `json:"is_archived" gorm:"default:false;index"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Project           *Project     `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

type TaskAssignment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TaskID     uint      `json:"task_id" gorm:"not null;index"`
	EmployeeID uint      `json:"employee_id" gorm:"not null;index"`
	AssignedAt time.Time `json:"assigned_at"`
	Task       *Task     `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Employee   *User     `json:"-" gorm:"foreignKey:EmployeeID;constraint:OnDelete:RESTRICT"`
}

type TaskComment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"task_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	Task      *Task     `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

type Activity struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TaskID      uint      `json:"task_id" gorm:"not null;index"`
	UserID      *uint     `json:"user_id"`
	Action      string    `json:"action" gorm:"not null"`
	FieldName   string    `json:"field_name,omitempty"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Task        *Task     `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}
