package models

import (
	"time"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

type Ticket struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Title        string       `json:"title" gorm:"not null"`
	Description  string       `json:"description"`
	Priority     TaskPriority `json:"priority" gorm:"default:'Medium'"`
	Status       TicketStatus `json:"status" gorm:"default:'Open'"`
	ProjectID    *uint        `json:"project_id" gorm:"index"`
	CreatedByID  uint         `json:"created_by_id" gorm:"not null;index"`
	AssignedToID *uint        `json:"assigned_to_id" gorm:"index"`
	ResolvedAt   *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Project      *Project     `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL"`
	CreatedBy    *User        `json:"-" gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT"`
	AssignedTo   *User        `json:"-" gorm:"foreignKey:AssignedToID;constraint:OnDelete:RESTRICT"`
}

type TicketComment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TicketID  uint      `json:"ticket_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	Ticket    *Ticket   `json:"-" gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
}

type TicketAttachment struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TicketID     uint      `json:"ticket_id" gorm:"not null;index"`
	FileName     string    `json:"file_name" gorm:"not null"`
	FilePath     string    `json:"file_path" gorm:"not null"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	UploadedByID uint      `json:"uploaded_by_id" gorm:"not null"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Ticket       *Ticket   `json:"-" gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
}
