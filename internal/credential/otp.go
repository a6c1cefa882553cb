package credential

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuskit/campuskit/internal/shared"
)

const otpPrefix = "otp:"

// OTP verification failures. Each wraps shared.ErrInvalidCredential so the
// transport layer can map them without knowing the specific cause.
var (
	ErrOTPNotFound = fmt.Errorf("%w: otp not found", shared.ErrInvalidCredential)
	ErrOTPExpired  = fmt.Errorf("%w: otp expired", shared.ErrInvalidCredential)
	ErrOTPUsed     = fmt.Errorf("%w: otp already used", shared.ErrInvalidCredential)
	ErrOTPMismatch = fmt.Errorf("%w: otp mismatch", shared.ErrInvalidCredential)
)

type otpEntry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

// claimEntry swaps in the used marker only if the entry is unchanged since it
// was read, so two concurrent verifications cannot both consume one code.
var claimEntry = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "KEEPTTL")
	return 1
end
return 0
`)

// OTPStore issues and verifies single-use codes keyed by email. Issuing a
// fresh code for an email overwrites the previous entry: supersession, not
// coexistence.
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore constructs an OTPStore on the given Redis client.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

// GenerateCode produces a random six-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue stores a fresh unused code for the email, superseding any prior one.
func (s *OTPStore) Issue(ctx context.Context, email, code string, ttl time.Duration) error {
	entry := otpEntry{
		Code:      code,
		ExpiresAt: time.Now().Add(ttl).UTC(),
		Used:      false,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(email), data, ttl).Err()
}

// Verify checks the supplied code against the stored entry at the given
// instant. A successful verification marks the entry used; a second attempt
// with the same code fails with ErrOTPUsed.
func (s *OTPStore) Verify(ctx context.Context, email, suppliedCode string, now time.Time) error {
	key := s.key(email)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrOTPNotFound
		}
		return err
	}

	var entry otpEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	if now.After(entry.ExpiresAt) {
		return ErrOTPExpired
	}
	if entry.Used {
		return ErrOTPUsed
	}
	if entry.Code != suppliedCode {
		return ErrOTPMismatch
	}

	entry.Used = true
	updated, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	// KEEPTTL preserves the remaining expiry so a used marker never outlives
	// the code it guards.
	claimed, err := claimEntry.Run(ctx, s.client, []string{key}, string(data), string(updated)).Int64()
	if err != nil {
		return err
	}
	if claimed == 0 {
		// Lost the claim: a concurrent verification consumed the code, or a
		// fresh issue superseded it.
		return ErrOTPUsed
	}
	return nil
}

func (s *OTPStore) key(email string) string {
	return otpPrefix + strings.ToLower(strings.TrimSpace(email))
}
