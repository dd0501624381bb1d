package service

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"todoapi/internal/utils"
)

const (
	defaultCodeDigits     = 6
	defaultCodeTTL        = 15 * time.Minute
	defaultResendCooldown = 60 * time.Second
)

// VerificationCodeManager issues and checks the numeric passcodes mailed to new users.
type VerificationCodeManager struct {
	config AuthConfig
}

func NewVerificationCodeManager(config AuthConfig) VerificationCodeManager {
	return VerificationCodeManager{config: config}
}

func (m VerificationCodeManager) digits() int {
	if m.config.CodeDigits > 0 && m.config.CodeDigits <= 18 {
		return m.config.CodeDigits
	}
	return defaultCodeDigits
}

func (m VerificationCodeManager) TTL() time.Duration {
	if m.config.CodeTTL > 0 {
		return m.config.CodeTTL
	}
	return defaultCodeTTL
}

func (m VerificationCodeManager) Cooldown() time.Duration {
	if m.config.ResendCooldown > 0 {
		return m.config.ResendCooldown
	}
	return defaultResendCooldown
}

// GenerateCode draws uniformly from [0, 10^digits) and zero-pads the result.
func (m VerificationCodeManager) GenerateCode() (string, error) {
	digits := m.digits()
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

func (m VerificationCodeManager) Hash(code string) string {
	return utils.HashCode(code)
}

func (m VerificationCodeManager) Verify(code string, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(m.Hash(code)), []byte(storedHash)) == 1
}

func (m VerificationCodeManager) ExpiresAt(now time.Time) time.Time {
	return now.Add(m.TTL())
}

// CooldownRemaining is zero once a new code may be sent.
func (m VerificationCodeManager) CooldownRemaining(lastSent *time.Time, now time.Time) time.Duration {
	if lastSent == nil {
		return 0
	}
	elapsed := now.Sub(*lastSent)
	if elapsed >= m.Cooldown() {
		return 0
	}
	return m.Cooldown() - elapsed
}
