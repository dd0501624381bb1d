package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"todoapi/internal/entity"
	"todoapi/internal/repository"
	"todoapi/internal/testutil"
	"todoapi/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeEmailSender struct {
	mu     sync.Mutex
	sent   []sentEmail
	err    error
	sendFn func(ctx context.Context) error
}

func (f *fakeEmailSender) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendFn != nil {
		if err := f.sendFn(ctx); err != nil {
			return err
		}
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

var codePattern = regexp.MustCompile(`<h2>([0-9]+)</h2>`)

func (f *fakeEmailSender) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no email sent")
	m := codePattern.FindStringSubmatch(f.sent[len(f.sent)-1].body)
	require.Len(t, m, 2)
	return m[1]
}

func (f *fakeEmailSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type authFixture struct {
	db      *gorm.DB
	users   repository.UserRepository
	events  repository.AuthEventRepository
	clock   *fakeClock
	mailer  *fakeEmailSender
	jwt     *utils.JWTManager
	service *AuthService
	logs    *test.Hook
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db := testutil.NewDB(t)
	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	f := &authFixture{
		db:     db,
		users:  repository.NewUserRepository(db),
		events: repository.NewAuthEventRepository(db),
		clock:  clock,
		mailer: &fakeEmailSender{},
		jwt: &utils.JWTManager{
			Secret:         []byte("unit-test-signing-key-0123456789"),
			Issuer:         "ToDoApp",
			Audience:       "ToDoAppClients",
			AccessTokenTTL: 60 * time.Minute,
			Now:            clock.Now,
		},
	}
	logger, hook := test.NewNullLogger()
	f.logs = hook
	f.service = f.build(f.users, logger)
	return f
}

func (f *authFixture) build(users repository.UserRepository, logger logrus.FieldLogger) *AuthService {
	return NewAuthService(
		users,
		f.events,
		f.mailer,
		BcryptPasswordHasher{Cost: bcrypt.MinCost},
		JWTTokenIssuer{Manager: f.jwt, Clock: f.clock},
		f.clock,
		AuthConfig{},
		logger,
	)
}

func (f *authFixture) register(t *testing.T, name, email, password string) *RegisterResult {
	t.Helper()
	res, err := f.service.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func (f *authFixture) storedUser(t *testing.T, email string) *entity.User {
	t.Helper()
	u, err := f.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func (f *authFixture) userCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entity.User{}).Count(&n).Error)
	return n
}

func TestAuthService_RegisterStoresUnverifiedUser(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	res := f.register(t, "alice", " A@X.com ", "P@ssw0rd!")
	assert.NotZero(t, res.ID)
	assert.Equal(t, "alice", res.Name)

	u := f.storedUser(t, "a@x.com")
	assert.False(t, u.IsEmailConfirmed)
	require.NotNil(t, u.VerificationCodeHash)
	require.NotNil(t, u.VerificationCodeExpiresAt)
	require.NotNil(t, u.LastVerificationSentAt)
	assert.WithinDuration(t, f.clock.Now().Add(15*time.Minute), *u.VerificationCodeExpiresAt, time.Second)
	assert.WithinDuration(t, f.clock.Now(), *u.LastVerificationSentAt, time.Second)
	assert.NotEqual(t, "P@ssw0rd!", u.PasswordHash)

	require.Equal(t, 1, f.mailer.count())
	assert.Equal(t, "a@x.com", f.mailer.sent[0].to)
	code := f.mailer.lastCode(t)
	assert.Len(t, code, 6)
	assert.Equal(t, utils.HashCode(code), *u.VerificationCodeHash)

	events, err := f.events.ListByEmail(context.Background(), "a@x.com", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entity.ActionRegistered, events[0].Action)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	_, err := f.service.Register(context.Background(), RegisterInput{Name: "other", Email: "A@x.com", Password: "secret"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, int64(1), f.userCount(t))
}

func TestAuthService_RegisterRejectsBlankInput(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	for _, in := range []RegisterInput{
		{Name: "", Email: "a@x.com", Password: "p"},
		{Name: "a", Email: "  ", Password: "p"},
		{Name: "a", Email: "a@x.com", Password: "   "},
	} {
		_, err := f.service.Register(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Zero(t, f.userCount(t))
}

type flakyHasher struct {
	BcryptPasswordHasher
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (h *flakyHasher) Hash(password string) (string, error) {
	h.mu.Lock()
	h.calls++
	failing := h.calls <= h.failures
	h.mu.Unlock()
	if failing {
		return "", h.err
	}
	return h.BcryptPasswordHasher.Hash(password)
}

func (h *flakyHasher) hashCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (f *authFixture) withHasher(hasher PasswordHasher) *AuthService {
	logger, _ := test.NewNullLogger()
	return NewAuthService(
		f.users,
		f.events,
		f.mailer,
		hasher,
		JWTTokenIssuer{Manager: f.jwt, Clock: f.clock},
		f.clock,
		AuthConfig{},
		logger,
	)
}

func TestAuthService_RegisterPasswordLength(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	for _, password := range []string{strings.Repeat("a", 73), strings.Repeat("€", 25)} {
		_, err := f.service.Register(ctx, RegisterInput{Name: "bob", Email: "b@x.com", Password: password})
		assert.ErrorIs(t, err, ErrInvalidInput, "%d bytes", len(password))
	}
	assert.Zero(t, f.userCount(t))
	assert.Zero(t, f.mailer.count())

	f.register(t, "bob", "b@x.com", strings.Repeat("a", MaxPasswordBytes))
	assert.Equal(t, int64(1), f.userCount(t))
}

func TestAuthService_RegisterHasherRejectsPassword(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	svc := f.withHasher(&flakyHasher{failures: 1, err: bcrypt.ErrPasswordTooLong})

	_, err := svc.Register(context.Background(), RegisterInput{Name: "bob", Email: "b@x.com", Password: "P@ssw0rd!"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, f.userCount(t))
}

func TestAuthService_RegisterRollsBackWhenDeliveryFails(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.mailer.err = errors.New("smtp down")

	_, err := f.service.Register(context.Background(), RegisterInput{Name: "alice", Email: "a@x.com", Password: "P@ssw0rd!"})
	assert.ErrorIs(t, err, ErrEmailDeliveryFailed)
	assert.Zero(t, f.userCount(t))

	entry := f.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)

	events, err := f.events.ListByEmail(context.Background(), "a@x.com", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entity.ActionRegisterRolledBack, events[0].Action)

	f.mailer.err = nil
	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	assert.Equal(t, int64(1), f.userCount(t))
}

func TestAuthService_RegisterRollbackSurvivesCancelledRequest(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.mailer.sendFn = func(context.Context) error {
		cancel()
		return context.Canceled
	}

	_, err := f.service.Register(ctx, RegisterInput{Name: "alice", Email: "a@x.com", Password: "P@ssw0rd!"})
	assert.ErrorIs(t, err, ErrEmailDeliveryFailed)
	assert.Zero(t, f.userCount(t))
}

type failingDeleteUsers struct {
	repository.UserRepository
}

func (failingDeleteUsers) HardDelete(context.Context, uint) error {
	return errors.New("db gone")
}

func TestAuthService_RegisterRollbackFailureIsReported(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.mailer.err = errors.New("smtp down")
	logger, hook := test.NewNullLogger()
	svc := f.build(failingDeleteUsers{f.users}, logger)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "alice", Email: "a@x.com", Password: "P@ssw0rd!"})
	assert.ErrorIs(t, err, ErrEmailDeliveryFailed)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestAuthService_VerifyEmail(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	code := f.mailer.lastCode(t)

	res, err := f.service.VerifyEmail(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyConfirmed)

	u := f.storedUser(t, "a@x.com")
	assert.True(t, u.IsEmailConfirmed)
	assert.Nil(t, u.VerificationCodeHash)
	assert.Nil(t, u.VerificationCodeExpiresAt)

	again, err := f.service.VerifyEmail(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.True(t, again.AlreadyConfirmed)
}

func TestAuthService_VerifyEmailWrongCodeLeavesUserUntouched(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	before := f.storedUser(t, "a@x.com")
	wrong := "000000"
	if f.mailer.lastCode(t) == wrong {
		wrong = "000001"
	}

	_, err := f.service.VerifyEmail(context.Background(), "a@x.com", wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)

	after := f.storedUser(t, "a@x.com")
	assert.False(t, after.IsEmailConfirmed)
	assert.Equal(t, *before.VerificationCodeHash, *after.VerificationCodeHash)
	assert.True(t, before.VerificationCodeExpiresAt.Equal(*after.VerificationCodeExpiresAt))
	assert.Equal(t, before.Version, after.Version)
}

func TestAuthService_VerifyEmailExpired(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	code := f.mailer.lastCode(t)
	f.clock.Advance(15*time.Minute + time.Second)

	_, err := f.service.VerifyEmail(context.Background(), "a@x.com", code)
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.False(t, f.storedUser(t, "a@x.com").IsEmailConfirmed)
}

func TestAuthService_VerifyEmailUnknownLooksLikeWrongCode(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.service.VerifyEmail(context.Background(), "ghost@x.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestAuthService_ResendCooldown(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	first := f.mailer.lastCode(t)

	f.clock.Advance(30 * time.Second)
	_, err := f.service.ResendVerification(ctx, "a@x.com")
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 30*time.Second, limited.RetryAfter)
	assert.Equal(t, 1, f.mailer.count())

	f.clock.Advance(30 * time.Second)
	res, err := f.service.ResendVerification(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, 2, f.mailer.count())
	second := f.mailer.lastCode(t)

	u := f.storedUser(t, "a@x.com")
	assert.WithinDuration(t, f.clock.Now(), *u.LastVerificationSentAt, time.Second)
	assert.WithinDuration(t, f.clock.Now().Add(15*time.Minute), *u.VerificationCodeExpiresAt, time.Second)

	if first != second {
		_, err = f.service.VerifyEmail(ctx, "a@x.com", first)
		assert.ErrorIs(t, err, ErrInvalidCode)
	}
	verified, err := f.service.VerifyEmail(ctx, "a@x.com", second)
	require.NoError(t, err)
	assert.True(t, verified.Success)
}

func TestAuthService_ResendOutcomes(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	ghost, err := f.service.ResendVerification(ctx, "ghost@x.com")
	require.NoError(t, err)
	assert.True(t, ghost.Sent)
	assert.Zero(t, f.mailer.count())

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	_, err = f.service.VerifyEmail(ctx, "a@x.com", f.mailer.lastCode(t))
	require.NoError(t, err)

	done, err := f.service.ResendVerification(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, done.Sent)
	assert.True(t, done.AlreadyConfirmed)
}

func TestAuthService_ResendDeliveryFailureKeepsNewCode(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	before := f.storedUser(t, "a@x.com")

	f.clock.Advance(time.Minute)
	f.mailer.err = errors.New("smtp down")
	res, err := f.service.ResendVerification(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, res.Sent)
	assert.Equal(t, msgCodeNotSent, res.Message)

	after := f.storedUser(t, "a@x.com")
	assert.Equal(t, before.Version+1, after.Version)
	assert.True(t, after.LastVerificationSentAt.After(*before.LastVerificationSentAt))
	assert.Equal(t, int64(1), f.userCount(t))
}

// racingUsers lets another writer commit between the read and the versioned write.
type racingUsers struct {
	repository.UserRepository
	db *gorm.DB
}

func (r racingUsers) Update(ctx context.Context, user *entity.User) error {
	if err := r.db.Model(&entity.User{}).Where("id = ?", user.ID).
		UpdateColumn("version", gorm.Expr("version + 1")).Error; err != nil {
		return err
	}
	return r.UserRepository.Update(ctx, user)
}

func TestAuthService_ResendLosingRaceIsRateLimited(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	f.clock.Advance(2 * time.Minute)

	logger, _ := test.NewNullLogger()
	svc := f.build(racingUsers{UserRepository: f.users, db: f.db}, logger)

	_, err := svc.ResendVerification(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, f.mailer.count())
}

func TestAuthService_VerifyLosingRaceIsInvalidCode(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.register(t, "alice", "a@x.com", "P@ssw0rd!")

	logger, _ := test.NewNullLogger()
	svc := f.build(racingUsers{UserRepository: f.users, db: f.db}, logger)

	_, err := svc.VerifyEmail(context.Background(), "a@x.com", f.mailer.lastCode(t))
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.False(t, f.storedUser(t, "a@x.com").IsEmailConfirmed)
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	_, err := f.service.VerifyEmail(ctx, "a@x.com", f.mailer.lastCode(t))
	require.NoError(t, err)

	_, unknown := f.service.Login(ctx, LoginInput{Email: "ghost@x.com", Password: "P@ssw0rd!"})
	_, wrong := f.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "nope"})
	require.ErrorIs(t, unknown, ErrInvalidCredentials)
	require.ErrorIs(t, wrong, ErrInvalidCredentials)
	assert.Equal(t, unknown.Error(), wrong.Error())
}

func TestAuthService_UnknownLoginRetriesDummyHash(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	hasher := &flakyHasher{BcryptPasswordHasher: BcryptPasswordHasher{Cost: bcrypt.MinCost}, failures: 1, err: errors.New("entropy exhausted")}
	svc := f.withHasher(hasher)
	ctx := context.Background()

	for i, wantCalls := range []int{1, 2, 2} {
		_, err := svc.Login(ctx, LoginInput{Email: "ghost@x.com", Password: "P@ssw0rd!"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, wantCalls, hasher.hashCalls(), "login %d", i+1)
	}
	assert.NotEmpty(t, svc.dummyPasswordHash())
}

func TestAuthService_LoginRequiresConfirmedEmail(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	_, err := f.service.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "P@ssw0rd!"})
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)
}

func TestAuthService_EndToEnd(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	reg := f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	var admin entity.Role
	require.NoError(t, f.db.Create(&entity.Role{Name: entity.RoleAdmin}).Error)
	require.NoError(t, f.db.Where("name = ?", entity.RoleAdmin).First(&admin).Error)
	require.NoError(t, f.db.Create(&entity.UserRole{UserID: reg.ID, RoleID: admin.ID}).Error)

	verified, err := f.service.VerifyEmail(ctx, "a@x.com", f.mailer.lastCode(t))
	require.NoError(t, err)
	assert.True(t, verified.Success)

	res, err := f.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "P@ssw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, reg.ID, res.UserID)
	assert.Equal(t, "alice", res.Username)
	assert.WithinDuration(t, f.clock.Now().Add(60*time.Minute), res.ExpiresAtUTC, time.Second)
	assert.Equal(t, time.UTC, res.ExpiresAtUTC.Location())

	claims, err := f.jwt.ParseAccessToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, claims.UserID)
	assert.Equal(t, []string{entity.RoleAdmin}, claims.Roles)
	assert.Equal(t, res.ExpiresAtUTC.Unix(), claims.ExpiresAt.Unix())

	issuer := JWTTokenIssuer{Manager: f.jwt, Clock: f.clock}
	assert.WithinDuration(t, issuer.Expiry(), claims.ExpiresAt.Time, time.Second)

	events, err := f.events.ListByEmail(ctx, "a@x.com", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entity.ActionLoginSuccess, events[0].Action)
}

func TestAuthService_LoginUpgradesWeakHash(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	f.register(t, "alice", "a@x.com", "P@ssw0rd!")
	_, err := f.service.VerifyEmail(ctx, "a@x.com", f.mailer.lastCode(t))
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	stronger := NewAuthService(f.users, f.events, f.mailer, BcryptPasswordHasher{Cost: bcrypt.MinCost + 1},
		JWTTokenIssuer{Manager: f.jwt, Clock: f.clock}, f.clock, AuthConfig{}, logger)

	_, err = stronger.Login(ctx, LoginInput{Email: "a@x.com", Password: "P@ssw0rd!"})
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(f.storedUser(t, "a@x.com").PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}
