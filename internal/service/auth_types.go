package service

import (
	"context"
	"time"

	"todoapi/internal/entity"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	CodeDigits     int
	CodeTTL        time.Duration
	ResendCooldown time.Duration
}

type EmailSender interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
}

type PasswordVerification int

const (
	PasswordFailed PasswordVerification = iota
	PasswordSuccess
	PasswordSuccessRehashNeeded
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) PasswordVerification
}

type TokenIssuer interface {
	Issue(user entity.User, roles []string) (string, time.Time, error)
	Expiry() time.Time
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) cost() int {
	if h.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify signals a rehash when the stored hash was made with a lower cost than configured.
func (h BcryptPasswordHasher) Verify(hash string, password string) PasswordVerification {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return PasswordFailed
	}
	if stored, err := bcrypt.Cost([]byte(hash)); err == nil && stored < h.cost() {
		return PasswordSuccessRehashNeeded
	}
	return PasswordSuccess
}
