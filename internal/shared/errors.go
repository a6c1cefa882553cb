package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates a missing, invalid, expired or revoked token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates an authorization deny.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredential indicates an OTP or password verification failure.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrRateLimited indicates too many attempts within the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrDeliveryFailure indicates the outbound mail transport failed.
	ErrDeliveryFailure = errors.New("delivery failure")
)
