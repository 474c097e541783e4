package domain

import "github.com/cockroachdb/errors"

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidSession      = errors.New("invalid or expired session")
	ErrDuplicateToken      = errors.New("session token already exists")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrNoOffers            = errors.New("no offers available")
	ErrInvalidAmount       = errors.New("invalid offer amount")
	ErrInvalidSearchParams = errors.New("invalid search parameters")
	ErrInvalidOrder        = errors.New("invalid order request")
	ErrCheckoutInProgress  = errors.New("checkout already in progress")
	ErrOrderNotFound       = errors.New("order not found")
)
