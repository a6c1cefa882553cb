package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/campuskit/internal/auth"
	"github.com/campuskit/campuskit/internal/credential"
	"github.com/campuskit/campuskit/internal/rbac"
	"github.com/campuskit/campuskit/internal/shared"
	_ "github.com/campuskit/campuskit/testing"
)

type mockRepo struct {
	byEmail map[string]*auth.User
	byID    map[int64]*auth.User
}

func newMockRepo(users ...*auth.User) *mockRepo {
	repo := &mockRepo{
		byEmail: make(map[string]*auth.User),
		byID:    make(map[int64]*auth.User),
	}
	for _, u := range users {
		repo.byEmail[u.Email] = u
		repo.byID[u.ID] = u
	}
	return repo
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

type captureSender struct {
	emails []string
	codes  []string
	err    error
}

func (s *captureSender) SendOTP(ctx context.Context, email, code string) error {
	if s.err != nil {
		return s.err
	}
	s.emails = append(s.emails, email)
	s.codes = append(s.codes, code)
	return nil
}

type serviceFixture struct {
	service   *auth.Service
	tokens    *auth.TokenManager
	blacklist *credential.TokenBlacklist
	sender    *captureSender
	mr        *miniredis.Miniredis
}

func newServiceFixture(t *testing.T, repo auth.Repository) *serviceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	blacklist := credential.NewTokenBlacklist(client)
	sender := &captureSender{}
	service := auth.NewService(
		repo,
		tokens,
		blacklist,
		credential.NewOTPStore(client),
		credential.NewRateLimiter(client),
		credential.NewSessionStore(client),
		sender,
		auth.ServiceConfig{},
		nil,
	)
	return &serviceFixture{service: service, tokens: tokens, blacklist: blacklist, sender: sender, mr: mr}
}

func testUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           1,
		Email:        "staff@college.test",
		Name:         "Test Staff",
		PasswordHash: string(hash),
		Role:         rbac.RoleStaff,
		DepartmentID: "dept-42",
		CollegeID:    "college-1",
		IsActive:     true,
	}
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "correct-password")
	fx := newServiceFixture(t, newMockRepo(user))

	result, err := fx.service.Login(context.Background(), user.Email, "correct-password", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, user.ID, result.User.ID)

	userID, _, err := fx.tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "correct-password")
	fx := newServiceFixture(t, newMockRepo(user))

	_, err := fx.service.Login(context.Background(), user.Email, "wrong-password", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestLoginUnknownEmail(t *testing.T) {
	fx := newServiceFixture(t, newMockRepo())

	_, err := fx.service.Login(context.Background(), "nobody@college.test", "whatever-pass", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "correct-password")
	user.IsActive = false
	fx := newServiceFixture(t, newMockRepo(user))

	_, err := fx.service.Login(context.Background(), user.Email, "correct-password", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestLoginRateLimited(t *testing.T) {
	user := testUser(t, "correct-password")
	fx := newServiceFixture(t, newMockRepo(user))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := fx.service.Login(ctx, user.Email, "wrong-password", "10.0.0.1")
		assert.ErrorIs(t, err, shared.ErrInvalidCredential)
	}
	_, err := fx.service.Login(ctx, user.Email, "correct-password", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrRateLimited)

	// A different client IP counts in its own window.
	result, err := fx.service.Login(ctx, user.Email, "correct-password", "10.0.0.2")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLogoutRevokesToken(t *testing.T) {
	user := testUser(t, "correct-password")
	fx := newServiceFixture(t, newMockRepo(user))
	ctx := context.Background()

	result, err := fx.service.Login(ctx, user.Email, "correct-password", "10.0.0.1")
	require.NoError(t, err)

	_, expiresAt, err := fx.tokens.Verify(result.Token)
	require.NoError(t, err)

	err = fx.service.Logout(ctx, shared.TokenInfo{Raw: result.Token, ExpiresAt: expiresAt}, result.SessionID)
	require.NoError(t, err)

	revoked, err := fx.blacklist.Contains(ctx, result.Token)
	require.NoError(t, err)
	assert.True(t, revoked)

	// Revoking twice must not error.
	err = fx.service.Logout(ctx, shared.TokenInfo{Raw: result.Token, ExpiresAt: expiresAt}, "")
	require.NoError(t, err)
}

func TestOTPRequestAndVerify(t *testing.T) {
	user := testUser(t, "correct-password")
	fx := newServiceFixture(t, newMockRepo(user))
	ctx := context.Background()

	require.NoError(t, fx.service.RequestOTP(ctx, user.Email))
	require.Len(t, fx.sender.codes, 1)
	assert.Equal(t, user.Email, fx.sender.emails[0])

	result, err := fx.service.VerifyOTP(ctx, user.Email, fx.sender.codes[0])
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	// Codes are single use.
	_, err = fx.service.VerifyOTP(ctx, user.Email, fx.sender.codes[0])
	assert.ErrorIs(t, err, credential.ErrOTPUsed)
}

func TestOTPSupersessionThroughService(t *testing.T) {
	user := testUser(t, "correct-password")
	fx := newServiceFixture(t, newMockRepo(user))
	ctx := context.Background()

	require.NoError(t, fx.service.RequestOTP(ctx, user.Email))
	require.NoError(t, fx.service.RequestOTP(ctx, user.Email))
	require.Len(t, fx.sender.codes, 2)

	if fx.sender.codes[0] != fx.sender.codes[1] {
		_, err := fx.service.VerifyOTP(ctx, user.Email, fx.sender.codes[0])
		assert.ErrorIs(t, err, credential.ErrOTPMismatch)
	}
	_, err := fx.service.VerifyOTP(ctx, user.Email, fx.sender.codes[1])
	require.NoError(t, err)
}

func TestOTPRequestRateLimited(t *testing.T) {
	user := testUser(t, "correct-password")
	fx := newServiceFixture(t, newMockRepo(user))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, fx.service.RequestOTP(ctx, user.Email))
	}
	err := fx.service.RequestOTP(ctx, user.Email)
	assert.ErrorIs(t, err, shared.ErrRateLimited)

	// The window eventually reopens.
	fx.mr.FastForward(11 * time.Minute)
	require.NoError(t, fx.service.RequestOTP(ctx, user.Email))
}

func TestOTPDeliveryFailure(t *testing.T) {
	user := testUser(t, "correct-password")
	repo := newMockRepo(user)
	fx := newServiceFixture(t, repo)
	fx.sender.err = assert.AnError

	err := fx.service.RequestOTP(context.Background(), user.Email)
	assert.ErrorIs(t, err, shared.ErrDeliveryFailure)
}

func TestOTPRequestUnknownEmail(t *testing.T) {
	fx := newServiceFixture(t, newMockRepo())
	err := fx.service.RequestOTP(context.Background(), "nobody@college.test")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, fx.sender.codes)
}
