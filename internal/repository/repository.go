package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
)

// SessionRepository is the only component that touches session storage.
// Lookups that find nothing return domain.ErrSessionNotFound; driver and
// network failures are marked with domain.ErrStorageUnavailable.
type SessionRepository interface {
	// EnsureIndexes is idempotent.
	EnsureIndexes(ctx context.Context) error
	// Create fails with domain.ErrDuplicateToken when the token is taken.
	Create(ctx context.Context, session *domain.Session) error
	FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error)
	// ConsumeIfValid flips used to true in a single conditional write and
	// reports whether this call did it.
	ConsumeIfValid(ctx context.Context, token string, now time.Time) (bool, error)
	FindByToken(ctx context.Context, token string) (*domain.Session, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	Stats(ctx context.Context, now time.Time) (domain.SessionStats, error)
}

// SecurityEventRepository is an append-only audit store.
type SecurityEventRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, event domain.SecurityEvent) error
	// PurgeBefore removes events older than cutoff for stores without
	// native expiry.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderRepository is the ledger of confirmed supplier orders.
type OrderRepository interface {
	EnsureIndexes(ctx context.Context) error
	Save(ctx context.Context, booking *domain.Booking) error
	// FindByOrderID returns domain.ErrOrderNotFound for unknown orders.
	FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error)
}

func storageErr(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), domain.ErrStorageUnavailable)
}
