package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrEmailDeliveryFailed = errors.New("verification email could not be delivered")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrRateLimited         = errors.New("verification email requested too soon")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrNotFound            = errors.New("not found")
)

// RateLimitedError carries how long the caller has to wait before asking again.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
