// Package audit records session security events. Recording is best effort:
// Log reports failures to its caller and to the process log, but callers are
// expected to carry on regardless.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/flightshop/internal/clock"
	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/Domenick1991/flightshop/internal/repository"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultTimeout = 2 * time.Second

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SecurityLogger struct {
	store     repository.SecurityEventRepository
	log       logrus.FieldLogger
	clock     clock.Clock
	timeout   time.Duration
	retention time.Duration
	publisher Publisher
	topic     string

	mu       sync.Mutex
	indexed  bool
	indexing bool
}

type Option func(*SecurityLogger)

func WithClock(c clock.Clock) Option {
	return func(l *SecurityLogger) { l.clock = c }
}

func WithTimeout(d time.Duration) Option {
	return func(l *SecurityLogger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithRetention(d time.Duration) Option {
	return func(l *SecurityLogger) {
		if d > 0 {
			l.retention = d
		}
	}
}

// WithPublisher mirrors every recorded event to a message topic.
func WithPublisher(p Publisher, topic string) Option {
	return func(l *SecurityLogger) {
		if p != nil && topic != "" {
			l.publisher = p
			l.topic = topic
		}
	}
}

func NewSecurityLogger(store repository.SecurityEventRepository, log logrus.FieldLogger, opts ...Option) *SecurityLogger {
	l := &SecurityLogger{
		store:     store,
		log:       log,
		clock:     clock.NewRealClock(),
		timeout:   DefaultTimeout,
		retention: domain.SecurityEventRetention,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log appends one event. The write is detached from ctx cancellation so an
// aborted request still leaves its audit trail, and is bounded by the
// logger's own timeout.
func (l *SecurityLogger) Log(ctx context.Context, eventType domain.SecurityEventType, data map[string]any) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	l.ensureIndexes(ctx)

	event := domain.SecurityEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Severity:  domain.SeverityOf(eventType),
		Timestamp: l.clock.Now(),
	}

	if err := l.store.Insert(ctx, event); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"event_type": eventType,
			"severity":   event.Severity,
		}).Error("failed to record security event")
		return errors.Wrap(err, "record security event")
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, l.topic, string(eventType), event); err != nil {
			l.log.WithError(err).WithField("event_type", eventType).Warn("failed to publish security event")
		}
	}
	return nil
}

// PurgeExpired drops events older than the retention window. Stores with a
// native TTL normally have nothing left to remove.
func (l *SecurityLogger) PurgeExpired(ctx context.Context) (int64, error) {
	return l.store.PurgeBefore(ctx, l.clock.Now().Add(-l.retention))
}

// ensureIndexes runs at most one index build at a time. Callers that arrive
// while one is in flight go straight to the insert instead of queueing.
func (l *SecurityLogger) ensureIndexes(ctx context.Context) {
	l.mu.Lock()
	if l.indexed || l.indexing {
		l.mu.Unlock()
		return
	}
	l.indexing = true
	l.mu.Unlock()

	err := l.store.EnsureIndexes(ctx)

	l.mu.Lock()
	l.indexing = false
	l.indexed = err == nil
	l.mu.Unlock()

	if err != nil {
		l.log.WithError(err).Warn("failed to ensure security event indexes")
	}
}
