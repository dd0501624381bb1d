package entity

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInconsistentVerification = errors.New("verification code hash and expiry must be set together")
	ErrConfirmedWithCode        = errors.New("confirmed email cannot hold a verification code")
	ErrAlreadyConfirmed         = errors.New("email already confirmed")
)

// EmailState is the position of a user in the one-way Unverified -> Verified lifecycle.
type EmailState int

const (
	EmailUnverified EmailState = iota
	EmailVerified
)

func (s EmailState) String() string {
	if s == EmailVerified {
		return "verified"
	}
	return "unverified"
}

// PendingCode is the outstanding passcode of an unverified user.
type PendingCode struct {
	Hash      string
	ExpiresAt time.Time
}

type User struct {
	Base
	Username     string `gorm:"type:varchar(50);not null"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email_active,where:is_deleted = false"`
	PasswordHash string `gorm:"column:password;type:text;not null"`

	IsEmailConfirmed          bool    `gorm:"not null;default:false"`
	VerificationCodeHash      *string `gorm:"type:varchar(64)"`
	VerificationCodeExpiresAt *time.Time
	LastVerificationSentAt    *time.Time

	// Version is bumped on every versioned update so concurrent writers can detect each other.
	Version int `gorm:"not null;default:0"`

	UserRoles     []UserRole
	Todos         []Todo
	Notifications []Notification
}

func (u *User) EmailState() EmailState {
	if u.IsEmailConfirmed {
		return EmailVerified
	}
	return EmailUnverified
}

// PendingCode reports the outstanding passcode. It is never present once the email is verified.
func (u *User) PendingCode() (PendingCode, bool) {
	if u.IsEmailConfirmed || u.VerificationCodeHash == nil || u.VerificationCodeExpiresAt == nil {
		return PendingCode{}, false
	}
	return PendingCode{Hash: *u.VerificationCodeHash, ExpiresAt: *u.VerificationCodeExpiresAt}, true
}

// IssueVerificationCode replaces any pending code and stamps the send time.
func (u *User) IssueVerificationCode(hash string, expiresAt, sentAt time.Time) error {
	if u.IsEmailConfirmed {
		return ErrAlreadyConfirmed
	}
	u.VerificationCodeHash = &hash
	u.VerificationCodeExpiresAt = &expiresAt
	u.LastVerificationSentAt = &sentAt
	return nil
}

// ConfirmEmail moves the user to the terminal verified state and drops the pending code.
func (u *User) ConfirmEmail() {
	u.IsEmailConfirmed = true
	u.VerificationCodeHash = nil
	u.VerificationCodeExpiresAt = nil
}

func (u *User) CheckVerificationInvariants() error {
	if (u.VerificationCodeHash == nil) != (u.VerificationCodeExpiresAt == nil) {
		return ErrInconsistentVerification
	}
	if u.IsEmailConfirmed && u.VerificationCodeHash != nil {
		return ErrConfirmedWithCode
	}
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.CheckVerificationInvariants()
}

// RoleNames returns the names of the roles loaded through UserRoles.Role.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.UserRoles))
	for _, ur := range u.UserRoles {
		if ur.Role.Name == "" || ur.Role.IsDeleted {
			continue
		}
		names = append(names, ur.Role.Name)
	}
	return names
}
