package service

import "time"

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterResult struct {
	ID   uint
	Name string
}

type VerifyEmailResult struct {
	Success          bool
	AlreadyConfirmed bool
	Message          string
}

type ResendResult struct {
	Sent             bool
	AlreadyConfirmed bool
	Message          string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token        string
	ExpiresAtUTC time.Time
	UserID       uint
	Username     string
}

const (
	msgEmailConfirmed   = "Email confirmed successfully."
	msgAlreadyConfirmed = "Email is already confirmed."
	msgCodeSent         = "A new verification code has been sent."
	msgCodeNotSent      = "Verification email could not be sent. Please try again later."
)
