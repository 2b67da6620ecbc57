package models

import (
	"time"
)

type NotificationType string

const (
	NotificationProjectStatus NotificationType = "project_status"
	NotificationTaskStatus    NotificationType = "task_status"
	NotificationTicketCreated NotificationType = "ticket_created"
	NotificationTicketComment NotificationType = "ticket_comment"
	NotificationTicketStatus  NotificationType = "ticket_status"
	NotificationTicketAssign  NotificationType = "ticket_assigned"
)

// Notification rows are written only by the notifier; afterwards only the
// read flag changes.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"not null"`
	Title     string           `json:"title" gorm:"not null"`
	Message   string           `json:"message"`
	Link      string           `json:"link"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	User      *User            `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

type Message struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	SenderID   uint       `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint       `json:"receiver_id" gorm:"not null;index"`
	ProjectID  *uint      `json:"project_id,omitempty" gorm:"index"`
	Content    string     `json:"content" gorm:"not null"`
	IsRead     bool       `json:"is_read" gorm:"default:false"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Sender     *User      `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:RESTRICT"`
	Receiver   *User      `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:RESTRICT"`
	Project    *Project   `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL"`
}
