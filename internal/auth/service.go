package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/campuskit/internal/credential"
	"github.com/campuskit/campuskit/internal/shared"
)

// OTPSender delivers one-time codes out of band. Delivery is fire-and-forget
// from the service's perspective; failures surface as a delivery error and
// are never retried here.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// ServiceConfig carries the credential thresholds and lifetimes.
type ServiceConfig struct {
	LoginRateLimit  int64
	LoginRateWindow time.Duration
	OTPRateLimit    int64
	OTPRateWindow   time.Duration
	OTPTTL          time.Duration
	SessionTTL      time.Duration
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.LoginRateLimit <= 0 {
		c.LoginRateLimit = 5
	}
	if c.LoginRateWindow <= 0 {
		c.LoginRateWindow = 15 * time.Minute
	}
	if c.OTPRateLimit <= 0 {
		c.OTPRateLimit = 3
	}
	if c.OTPRateWindow <= 0 {
		c.OTPRateWindow = 10 * time.Minute
	}
	if c.OTPTTL <= 0 {
		c.OTPTTL = 5 * time.Minute
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 720 * time.Hour
	}
	return c
}

// Service wraps the credential lifecycle business rules: login, logout, OTP
// request and verification.
type Service struct {
	repo      Repository
	tokens    *TokenManager
	blacklist *credential.TokenBlacklist
	otps      *credential.OTPStore
	limiter   *credential.RateLimiter
	sessions  *credential.SessionStore
	sender    OTPSender
	cfg       ServiceConfig
	logger    *slog.Logger
}

// NewService constructs a new Service.
func NewService(
	repo Repository,
	tokens *TokenManager,
	blacklist *credential.TokenBlacklist,
	otps *credential.OTPStore,
	limiter *credential.RateLimiter,
	sessions *credential.SessionStore,
	sender OTPSender,
	cfg ServiceConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		blacklist: blacklist,
		otps:      otps,
		limiter:   limiter,
		sessions:  sessions,
		sender:    sender,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// LoginResult is the outcome of a successful authentication.
type LoginResult struct {
	Token     string
	SessionID string
	User      *User
}

// Login validates email/password credentials and issues an access token plus
// a server-side session. Attempts are rate limited per email and client IP.
func (s *Service) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	key := "login:" + clientIP + ":" + strings.ToLower(email)
	count, err := s.limiter.Increment(ctx, key, s.cfg.LoginRateWindow)
	if err != nil {
		return nil, err
	}
	if count > s.cfg.LoginRateLimit {
		return nil, shared.ErrRateLimited
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredential
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredential
	}

	return s.establish(ctx, user)
}

// Logout revokes the presenting token for its remaining validity and drops
// the server-side session if one exists. Both operations are idempotent.
func (s *Service) Logout(ctx context.Context, token shared.TokenInfo, sessionID string) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 || ttl > credential.DefaultBlacklistTTL {
		ttl = credential.DefaultBlacklistTTL
	}
	if err := s.blacklist.Add(ctx, token.Raw, ttl); err != nil {
		return err
	}
	if sessionID != "" {
		return s.sessions.Delete(ctx, sessionID)
	}
	return nil
}

// RequestOTP issues a fresh one-time code for the account and hands it to
// the sender. Requests are rate limited per email; a new code supersedes any
// outstanding one.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	key := "otp:" + strings.ToLower(email)
	count, err := s.limiter.Increment(ctx, key, s.cfg.OTPRateWindow)
	if err != nil {
		return err
	}
	if count > s.cfg.OTPRateLimit {
		return shared.ErrRateLimited
	}

	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		return err
	}

	code, err := credential.GenerateCode()
	if err != nil {
		return err
	}
	if err := s.otps.Issue(ctx, email, code, s.cfg.OTPTTL); err != nil {
		return err
	}
	if err := s.sender.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDeliveryFailure, err)
	}
	return nil
}

// VerifyOTP checks a supplied code and, on success, authenticates the
// account the code was issued for. Codes are single use.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	if err := s.otps.Verify(ctx, email, code, time.Now().UTC()); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredential
	}
	return s.establish(ctx, user)
}

func (s *Service) establish(ctx context.Context, user *User) (*LoginResult, error) {
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, err
	}
	sessionID, err := s.sessions.Create(ctx, user.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("authenticated", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	}
	return &LoginResult{Token: token, SessionID: sessionID, User: user}, nil
}
