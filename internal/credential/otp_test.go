package credential_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campuskit/campuskit/internal/credential"
	"github.com/campuskit/campuskit/internal/shared"
)

func TestOTPRoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	store := credential.NewOTPStore(client)
	ctx := context.Background()

	t0 := time.Now().UTC()
	if err := store.Issue(ctx, "a@x.com", "123456", 300*time.Second); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := store.Verify(ctx, "a@x.com", "123456", t0.Add(100*time.Second)); err != nil {
		t.Fatalf("first verify should succeed: %v", err)
	}

	err := store.Verify(ctx, "a@x.com", "123456", t0.Add(150*time.Second))
	if !errors.Is(err, credential.ErrOTPUsed) {
		t.Fatalf("second verify should fail with ErrOTPUsed, got %v", err)
	}
	if !errors.Is(err, shared.ErrInvalidCredential) {
		t.Fatalf("otp errors must wrap shared.ErrInvalidCredential")
	}
}

func TestOTPMismatchAndAbsence(t *testing.T) {
	_, client := newTestClient(t)
	store := credential.NewOTPStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Verify(ctx, "nobody@x.com", "000000", now); !errors.Is(err, credential.ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound, got %v", err)
	}

	if err := store.Issue(ctx, "a@x.com", "123456", 300*time.Second); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Verify(ctx, "a@x.com", "654321", now); !errors.Is(err, credential.ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}

	// A mismatch must not consume the code.
	if err := store.Verify(ctx, "a@x.com", "123456", now); err != nil {
		t.Fatalf("correct code after mismatch should still verify: %v", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	_, client := newTestClient(t)
	store := credential.NewOTPStore(client)
	ctx := context.Background()

	t0 := time.Now().UTC()
	if err := store.Issue(ctx, "a@x.com", "123456", 300*time.Second); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Verify(ctx, "a@x.com", "123456", t0.Add(301*time.Second)); !errors.Is(err, credential.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
}

func TestOTPSupersession(t *testing.T) {
	_, client := newTestClient(t)
	store := credential.NewOTPStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Issue(ctx, "a@x.com", "111111", 300*time.Second); err != nil {
		t.Fatalf("issue first: %v", err)
	}
	if err := store.Issue(ctx, "a@x.com", "222222", 300*time.Second); err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if err := store.Verify(ctx, "a@x.com", "111111", now); !errors.Is(err, credential.ErrOTPMismatch) {
		t.Fatalf("superseded code must no longer verify, got %v", err)
	}
	if err := store.Verify(ctx, "a@x.com", "222222", now); err != nil {
		t.Fatalf("latest code should verify: %v", err)
	}
}

func TestOTPConcurrentVerifyConsumesOnce(t *testing.T) {
	_, client := newTestClient(t)
	store := credential.NewOTPStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Issue(ctx, "a@x.com", "123456", 300*time.Second); err != nil {
		t.Fatalf("issue: %v", err)
	}

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- store.Verify(ctx, "a@x.com", "123456", now)
		}()
	}

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, credential.ErrOTPUsed):
			rejected++
		default:
			t.Fatalf("unexpected verify error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected exactly one successful claim, got %d ok / %d used", succeeded, rejected)
	}
}

func TestOTPEmailKeyNormalisation(t *testing.T) {
	_, client := newTestClient(t)
	store := credential.NewOTPStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.Issue(ctx, "A@X.com ", "123456", 300*time.Second); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Verify(ctx, "a@x.com", "123456", now); err != nil {
		t.Fatalf("verify with normalised email should succeed: %v", err)
	}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := credential.GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected six digits, got %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}
