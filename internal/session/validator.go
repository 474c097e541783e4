// Package session holds the stateless rules that decide whether a booking
// session may still be redeemed.
package session

import (
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
)

const (
	ReasonExpired       = "expired"
	ReasonAlreadyUsed   = "already used"
	ReasonOfferNotFound = "offer not found in session"
)

type Result struct {
	Valid  bool
	Reason string
}

// Validate applies, in order: expiry, single use, offer membership. An empty
// offerID skips the membership rule.
func Validate(s *domain.Session, now time.Time, offerID string) Result {
	if !now.Before(s.ExpiresAt) {
		return Result{Reason: ReasonExpired}
	}
	if s.Used {
		return Result{Reason: ReasonAlreadyUsed}
	}
	if offerID != "" {
		if _, ok := s.Offer(offerID); !ok {
			return Result{Reason: ReasonOfferNotFound}
		}
	}
	return Result{Valid: true}
}
