package credential_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/campuskit/campuskit/internal/credential"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestBlacklistRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	blacklist := credential.NewTokenBlacklist(client)
	ctx := context.Background()

	const token = "header.payload.signature"

	found, err := blacklist.Contains(ctx, token)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if found {
		t.Fatalf("token should not be blacklisted yet")
	}

	if err := blacklist.Add(ctx, token, 24*time.Hour); err != nil {
		t.Fatalf("add: %v", err)
	}
	found, err = blacklist.Contains(ctx, token)
	if err != nil {
		t.Fatalf("contains after add: %v", err)
	}
	if !found {
		t.Fatalf("token should be blacklisted immediately after add")
	}

	mr.FastForward(25 * time.Hour)
	found, err = blacklist.Contains(ctx, token)
	if err != nil {
		t.Fatalf("contains after expiry: %v", err)
	}
	if found {
		t.Fatalf("marker should expire with its ttl")
	}
}

func TestBlacklistReAddResetsTTL(t *testing.T) {
	mr, client := newTestClient(t)
	blacklist := credential.NewTokenBlacklist(client)
	ctx := context.Background()

	const token = "tok"
	if err := blacklist.Add(ctx, token, 100*time.Second); err != nil {
		t.Fatalf("add: %v", err)
	}
	mr.FastForward(60 * time.Second)
	if err := blacklist.Add(ctx, token, 100*time.Second); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	// The marker must survive past the original window.
	mr.FastForward(60 * time.Second)
	found, err := blacklist.Contains(ctx, token)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !found {
		t.Fatalf("re-adding must reset the ttl, not keep the old one")
	}
}
