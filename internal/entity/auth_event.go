package entity

import (
	"time"

	"gorm.io/datatypes"
)

type AuthAction string

const (
	ActionRegistered         AuthAction = "registered"
	ActionRegisterRolledBack AuthAction = "register_rolled_back"
	ActionEmailVerified      AuthAction = "email_verified"
	ActionVerifyFailed       AuthAction = "verify_failed"
	ActionCodeResent         AuthAction = "code_resent"
	ActionResendFailed       AuthAction = "resend_failed"
	ActionLoginSuccess       AuthAction = "login_success"
	ActionLoginFailed        AuthAction = "login_failed"
)

// AuthEvent is an append-only audit row for identity operations.
type AuthEvent struct {
	ID uint `gorm:"primaryKey"`

	UserID *uint      `gorm:"index"`
	Email  string     `gorm:"type:varchar(255);index"`
	Action AuthAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
