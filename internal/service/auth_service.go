package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"todoapi/internal/entity"
	"todoapi/internal/repository"
	"todoapi/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const dummyPassword = "not-a-real-password"

type AuthService struct {
	users  repository.UserRepository
	events repository.AuthEventRepository

	emailSender  EmailSender
	passwordHash PasswordHasher
	codes        VerificationCodeManager
	tokens       TokenIssuer
	clock        Clock
	log          logrus.FieldLogger

	dummyMu   sync.Mutex
	dummyHash string
}

func NewAuthService(
	users repository.UserRepository,
	events repository.AuthEventRepository,
	emailSender EmailSender,
	passwordHash PasswordHasher,
	tokens TokenIssuer,
	clock Clock,
	config AuthConfig,
	log logrus.FieldLogger,
) *AuthService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthService{
		users:        users,
		events:       events,
		emailSender:  emailSender,
		passwordHash: passwordHash,
		codes:        NewVerificationCodeManager(config),
		tokens:       tokens,
		clock:        clock,
		log:          log.WithField("component", "auth"),
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	name := strings.TrimSpace(input.Name)
	email := utils.NormalizeEmail(input.Email)
	if name == "" || email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}
	if len(input.Password) > MaxPasswordBytes {
		return nil, ErrInvalidInput
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrInvalidInput
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := s.codes.GenerateCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Username:     name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := user.IssueVerificationCode(s.codes.Hash(code), s.codes.ExpiresAt(now), now); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendCode(ctx, user, code); err != nil {
		// The row must not outlive a failed send, even if the request was cancelled meanwhile.
		cleanupCtx := context.WithoutCancel(ctx)
		entry := s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": email}).WithError(err)
		if delErr := s.users.HardDelete(cleanupCtx, user.ID); delErr != nil {
			entry.WithField("delete_error", delErr.Error()).Error("registration rollback failed")
			return nil, errors.Join(ErrEmailDeliveryFailed, delErr)
		}
		entry.Warn("verification email failed, registration rolled back")
		s.logEvent(cleanupCtx, nil, email, entity.ActionRegisterRolledBack, map[string]any{"error": err.Error()})
		return nil, ErrEmailDeliveryFailed
	}

	s.logEvent(ctx, &user.ID, email, entity.ActionRegistered, nil)
	return &RegisterResult{ID: user.ID, Name: user.Username}, nil
}

// VerifyEmail confirms the address when the code matches. An unknown email fails exactly like a wrong code.
func (s *AuthService) VerifyEmail(ctx context.Context, email string, code string) (*VerifyEmailResult, error) {
	email = utils.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.logEvent(ctx, nil, email, entity.ActionVerifyFailed, map[string]any{"reason": "unknown_email"})
		return nil, ErrInvalidCode
	}
	if user.EmailState() == entity.EmailVerified {
		return &VerifyEmailResult{Success: true, AlreadyConfirmed: true, Message: msgAlreadyConfirmed}, nil
	}

	pending, ok := user.PendingCode()
	if !ok || s.now().After(pending.ExpiresAt) {
		s.logEvent(ctx, &user.ID, email, entity.ActionVerifyFailed, map[string]any{"reason": "expired"})
		return nil, ErrCodeExpired
	}
	if !s.codes.Verify(code, pending.Hash) {
		s.logEvent(ctx, &user.ID, email, entity.ActionVerifyFailed, map[string]any{"reason": "mismatch"})
		return nil, ErrInvalidCode
	}

	user.ConfirmEmail()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrStaleUser) {
			// A concurrent resend replaced the code this one was checked against.
			s.logEvent(ctx, &user.ID, email, entity.ActionVerifyFailed, map[string]any{"reason": "superseded"})
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("confirm email: %w", err)
	}

	s.logEvent(ctx, &user.ID, email, entity.ActionEmailVerified, nil)
	return &VerifyEmailResult{Success: true, Message: msgEmailConfirmed}, nil
}

// ResendVerification issues a fresh code. Unknown emails get the same reply as a successful send.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (*ResendResult, error) {
	email = utils.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return &ResendResult{Sent: true, Message: msgCodeSent}, nil
	}
	if user.EmailState() == entity.EmailVerified {
		return &ResendResult{AlreadyConfirmed: true, Message: msgAlreadyConfirmed}, nil
	}

	now := s.now()
	if wait := s.codes.CooldownRemaining(user.LastVerificationSentAt, now); wait > 0 {
		return nil, &RateLimitedError{RetryAfter: wait}
	}

	code, err := s.codes.GenerateCode()
	if err != nil {
		return nil, err
	}
	if err := user.IssueVerificationCode(s.codes.Hash(code), s.codes.ExpiresAt(now), now); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrStaleUser) {
			return nil, &RateLimitedError{RetryAfter: s.codes.Cooldown()}
		}
		return nil, fmt.Errorf("store verification code: %w", err)
	}

	// The new code stays stored when delivery fails; the user can ask again after the cooldown.
	if err := s.sendCode(ctx, user, code); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": email}).WithError(err).Error("resend verification email failed")
		s.logEvent(ctx, &user.ID, email, entity.ActionResendFailed, map[string]any{"error": err.Error()})
		return &ResendResult{Message: msgCodeNotSent}, nil
	}

	s.logEvent(ctx, &user.ID, email, entity.ActionCodeResent, nil)
	return &ResendResult{Sent: true, Message: msgCodeSent}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		_ = s.passwordHash.Verify(s.dummyPasswordHash(), input.Password)
		s.logEvent(ctx, nil, email, entity.ActionLoginFailed, map[string]any{"reason": "unknown_email"})
		return nil, ErrInvalidCredentials
	}

	verification := s.passwordHash.Verify(user.PasswordHash, input.Password)
	if verification == PasswordFailed {
		s.logEvent(ctx, &user.ID, email, entity.ActionLoginFailed, map[string]any{"reason": "bad_password"})
		return nil, ErrInvalidCredentials
	}
	if user.EmailState() != entity.EmailVerified {
		s.logEvent(ctx, &user.ID, email, entity.ActionLoginFailed, map[string]any{"reason": "email_not_confirmed"})
		return nil, ErrEmailNotConfirmed
	}
	if verification == PasswordSuccessRehashNeeded {
		s.rehashPassword(ctx, user, input.Password)
	}

	token, expiresAt, err := s.tokens.Issue(*user, user.RoleNames())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logEvent(ctx, &user.ID, email, entity.ActionLoginSuccess, nil)
	return &LoginResult{
		Token:        token,
		ExpiresAtUTC: expiresAt.UTC(),
		UserID:       user.ID,
		Username:     user.Username,
	}, nil
}

func (s *AuthService) rehashPassword(ctx context.Context, user *entity.User, password string) {
	hash, err := s.passwordHash.Hash(password)
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("password rehash failed")
		return
	}
	previous := user.PasswordHash
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		user.PasswordHash = previous
		s.log.WithError(err).WithField("user_id", user.ID).Warn("storing rehashed password failed")
	}
}

func (s *AuthService) sendCode(ctx context.Context, user *entity.User, code string) error {
	if s.emailSender == nil {
		return errEmailSenderNotConfigured
	}
	subject, body := verificationEmail(user.Username, code, s.codes.TTL())
	return s.emailSender.Send(ctx, user.Email, subject, body)
}

func verificationEmail(name string, code string, ttl time.Duration) (string, string) {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your verification code is:</p><h2>%s</h2><p>It expires in %d minutes.</p>",
		html.EscapeString(name), code, int(ttl.Minutes()),
	)
	return "Verify your email", body
}

// dummyPasswordHash gives unknown-email logins a real hash to compare against.
// A failed attempt is retried on the next call instead of being cached.
func (s *AuthService) dummyPasswordHash() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash != "" {
		return s.dummyHash
	}
	hash, err := s.passwordHash.Hash(dummyPassword)
	if err != nil {
		s.log.WithError(err).Error("dummy password hash failed")
		return ""
	}
	s.dummyHash = hash
	return s.dummyHash
}

func (s *AuthService) logEvent(ctx context.Context, userID *uint, email string, action entity.AuthAction, metadata map[string]any) {
	if s.events == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.log.WithError(err).Warn("encode auth event metadata")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	event := &entity.AuthEvent{
		UserID:   userID,
		Email:    email,
		Action:   action,
		Metadata: payload,
	}
	if err := s.events.Log(ctx, event); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("auth event not recorded")
	}
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}
