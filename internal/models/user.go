package models

import "time"

// User is an account. Username and email are each unique among rows where
// IsDeleted is false; deleted rows are kept but hidden from every lookup.
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string     `json:"username" gorm:"type:varchar(100);not null;index:idx_users_username_active,unique,where:is_deleted = false"`
	Email        string     `json:"email" gorm:"type:varchar(255);not null;index:idx_users_email_active,unique,where:is_deleted = false"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"` // never serialized
	CreatedAt    time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time  `json:"updated_at"`
	IsDeleted    bool       `json:"-" gorm:"not null;default:false;index"`
	DeletedAt    *time.Time `json:"-"`
}
