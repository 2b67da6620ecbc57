package models

import (
	"time"
)

type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Email      string    `json:"email" gorm:"unique;not null"`
	Username   string    `json:"username" gorm:"unique;not null"`
	Password   string    `json:"-" gorm:"not null"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role" gorm:"not null"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	IsArchived bool      `json:"is_archived" gorm:"default:false;index"`
	LastLogin  time.Time `json:"last_login"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Role is the single authoritative role tag of a user. There is no
// secondary role-membership store.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleClient         Role = "Client"
	RoleProjectManager Role = "Project Manager"
	RoleEmployee       Role = "Employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleProjectManager, RoleEmployee:
		return true
	}
	return false
}
