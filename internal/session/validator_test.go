package session

import (
	"testing"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	base := domain.Session{
		ExpiresAt: now.Add(10 * time.Minute),
		Offers: []domain.PricedOffer{
			{ID: "off_1"},
			{ID: "off_2"},
		},
	}

	testCases := []struct {
		name    string
		mutate  func(s *domain.Session)
		now     time.Time
		offerID string
		want    Result
	}{
		{
			name: "valid without offer",
			now:  now,
			want: Result{Valid: true},
		},
		{
			name:    "valid with known offer",
			now:     now,
			offerID: "off_2",
			want:    Result{Valid: true},
		},
		{
			name: "expired exactly at expires_at",
			now:  now.Add(10 * time.Minute),
			want: Result{Reason: ReasonExpired},
		},
		{
			name: "expired after expires_at",
			now:  now.Add(time.Hour),
			want: Result{Reason: ReasonExpired},
		},
		{
			name:   "already used",
			mutate: func(s *domain.Session) { s.Used = true },
			now:    now,
			want:   Result{Reason: ReasonAlreadyUsed},
		},
		{
			name:    "expiry wins over used",
			mutate:  func(s *domain.Session) { s.Used = true },
			now:     now.Add(time.Hour),
			offerID: "off_999",
			want:    Result{Reason: ReasonExpired},
		},
		{
			name:    "used wins over offer",
			mutate:  func(s *domain.Session) { s.Used = true },
			now:     now,
			offerID: "off_999",
			want:    Result{Reason: ReasonAlreadyUsed},
		},
		{
			name:    "unknown offer",
			now:     now,
			offerID: "off_999",
			want:    Result{Reason: ReasonOfferNotFound},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := base
			if tc.mutate != nil {
				tc.mutate(&s)
			}
			before := s

			got := Validate(&s, tc.now, tc.offerID)

			assert.Equal(t, tc.want, got)
			assert.Equal(t, before, s, "validator must not mutate the session")
		})
	}
}
