package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel represents the database model for Account
type AccountModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(50);not null"`
	IsVerified   bool      `gorm:"default:false;not null"`

	VerificationCode       *string    `gorm:"type:varchar(6)"`
	VerificationCodeExpiry *time.Time `gorm:"type:timestamp"`

	ResetCode       *string    `gorm:"type:varchar(6)"`
	ResetCodeExpiry *time.Time `gorm:"type:timestamp"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (AccountModel) TableName() string {
	return "accounts"
}
