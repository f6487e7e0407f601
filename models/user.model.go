package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent  = "STUDENT"
	RoleLecturer = "LECTURER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	gorm.Model
	Name                string `gorm:"default:''"`
	Email               string `gorm:"unique;not null"`
	Password            string `gorm:"not null"`
	Role                string `gorm:"default:'STUDENT'"` // STUDENT, LECTURER, ADMIN
	DNI                 string `gorm:"index"`             // national id printed on certificates
	LastLogin           time.Time
	FailedLoginAttempts int        `gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"last_failed_login"`
	IsBlocked           bool       `gorm:"default:false"`
	IsDeleted           bool       `gorm:"default:false"`
}

// IsPrivileged reports whether the user bypasses content gating.
func (u *User) IsPrivileged() bool {
	return u.Role == RoleAdmin || u.Role == RoleLecturer
}
