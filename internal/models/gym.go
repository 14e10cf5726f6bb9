package models

import (
	"time"

	"gorm.io/gorm"
)

// Gym is a tenant location. Unlike users, gyms use GORM's native soft delete
// and can be restored.
type Gym struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=3,max=100"`
	Address   string         `json:"address" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	Phone     string         `json:"phone" gorm:"type:varchar(30)" validate:"omitempty,max=30"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
