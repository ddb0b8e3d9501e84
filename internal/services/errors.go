package services

import "errors"

// Failure classes surfaced to the HTTP layer. Duplicate sale events and
// missing/already-reversed reversals are result statuses, not errors.
var (
	ErrAffiliateNotFound  = errors.New("affiliate not found")
	ErrLinkNotFound       = errors.New("link not found")
	ErrPayoutNotFound     = errors.New("payout not found")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrSlugTaken          = errors.New("slug already in use")
	ErrMissingFields      = errors.New("missing required fields")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidSlug        = errors.New("invalid slug")
	ErrInvalidURL         = errors.New("invalid destination url")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidTransition   = errors.New("invalid status transition")
)
