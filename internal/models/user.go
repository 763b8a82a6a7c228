package models

import (
	"github.com/google/uuid"
)

// ConsumedTempToken replaces a verification token once it has been used.
const ConsumedTempToken = "0"

// User represents a registered account.
type User struct {
	BaseModel
	FirstName    string `gorm:"size:50" json:"first_name"`
	LastName     string `gorm:"size:50" json:"last_name"`
	Email        string `gorm:"size:200;index" json:"email"`
	PasswordHash string `gorm:"column:password;size:255" json:"-"`
	Number       string `gorm:"size:13;index" json:"number"`
	TempToken    string `gorm:"size:36" json:"-"`
	Verified     bool   `gorm:"not null;default:false" json:"verified"`
	IsDeleted    bool   `gorm:"not null;default:false" json:"-"`
}

// OTPChallenge keeps track of one-time passcodes sent to users.
type OTPChallenge struct {
	BaseModel
	Number   string    `gorm:"size:13;index" json:"number"`
	Code     string    `gorm:"column:otp;size:6" json:"-"`
	Redeemed bool      `gorm:"column:is_redeemed;not null;default:false" json:"is_redeemed"`
	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
}

// TableName keeps the historical table name for challenges.
func (OTPChallenge) TableName() string {
	return "number_otps"
}
