package session

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightshop/internal/clock"
	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/Domenick1991/flightshop/internal/repository"
	rules "github.com/Domenick1991/flightshop/internal/session"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultStoreTimeout = 3 * time.Second
	auditTokenPrefix    = 8
)

type SessionUseCase interface {
	CreateSession(ctx context.Context, params domain.SearchParams, offers []domain.PricedOffer, client *domain.ClientInfo) (*domain.Session, error)
	ValidateSessionWithSecurity(ctx context.Context, token, clientIP, userAgent string) *domain.Session
	ValidateSessionForOffer(ctx context.Context, token, offerID, clientIP, userAgent string) *domain.Session
	UseSession(ctx context.Context, token string) bool
	GetSessionStats(ctx context.Context) domain.SessionStats
	PurgeExpired(ctx context.Context) (int64, error)
	GetSession(ctx context.Context, token string) (*domain.Session, error)
}

type TokenGenerator interface {
	Generate(sessionID string, params domain.SearchParams) (string, error)
}

type OfferPricer interface {
	Apply(offers []domain.PricedOffer) ([]domain.PricedOffer, error)
}

type EventLogger interface {
	Log(ctx context.Context, eventType domain.SecurityEventType, data map[string]any) error
}

type Manager struct {
	repo         repository.SessionRepository
	tokens       TokenGenerator
	pricer       OfferPricer
	events       EventLogger
	clock        clock.Clock
	ttl          time.Duration
	storeTimeout time.Duration
	log          logrus.FieldLogger
}

type ManagerOption func(*Manager)

func WithClock(c clock.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithStoreTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.storeTimeout = d
		}
	}
}

func WithLogger(log logrus.FieldLogger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

func NewManager(
	repo repository.SessionRepository,
	tokens TokenGenerator,
	pricer OfferPricer,
	events EventLogger,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		repo:         repo,
		tokens:       tokens,
		pricer:       pricer,
		events:       events,
		clock:        clock.NewRealClock(),
		ttl:          domain.SessionTTL,
		storeTimeout: DefaultStoreTimeout,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init prepares session storage. Safe to call on every start.
func (m *Manager) Init(ctx context.Context) error {
	ctx, cancel := m.storeCtx(ctx)
	defer cancel()
	return errors.Wrap(m.repo.EnsureIndexes(ctx), "ensure session indexes")
}

func (m *Manager) CreateSession(ctx context.Context, params domain.SearchParams, offers []domain.PricedOffer, client *domain.ClientInfo) (*domain.Session, error) {
	if len(offers) == 0 {
		return nil, domain.ErrNoOffers
	}

	priced, err := m.pricer.Apply(offers)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	token, err := m.tokens.Generate(id, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create secure session")
	}

	now := m.clock.Now()
	s := &domain.Session{
		ID:           id,
		Token:        token,
		SearchParams: params,
		Offers:       priced,
		ExpiresAt:    now.Add(m.ttl),
		CreatedAt:    now,
	}
	if client != nil {
		s.ClientIP = client.IP
		s.UserAgent = client.UserAgent
	}

	sctx, cancel := m.storeCtx(ctx)
	defer cancel()
	if err := m.repo.Create(sctx, s); err != nil {
		m.log.WithError(err).WithField("session_id", id).Error("failed to create secure session")
		return nil, errors.Wrap(err, "failed to create secure session")
	}

	m.audit(ctx, domain.EventSessionCreated, map[string]any{
		"session_id":   s.ID,
		"client_ip":    s.ClientIP,
		"offers_count": len(s.Offers),
		"expires_at":   s.ExpiresAt,
	})
	return s, nil
}

// ValidateSessionWithSecurity returns the active session for token or nil.
// IP and User-Agent drift is recorded but never rejects the session.
func (m *Manager) ValidateSessionWithSecurity(ctx context.Context, token, clientIP, userAgent string) (found *domain.Session) {
	defer func() {
		if r := recover(); r != nil {
			m.log.WithField("panic", r).Error("session validation panicked")
			m.audit(ctx, domain.EventSessionValidationError, map[string]any{
				"token":     truncateToken(token),
				"client_ip": clientIP,
				"error":     fmt.Sprint(r),
			})
			found = nil
		}
	}()

	now := m.clock.Now()
	sctx, cancel := m.storeCtx(ctx)
	defer cancel()

	s, err := m.repo.FindActiveByToken(sctx, token, now)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		m.invalidAttempt(ctx, token, clientIP, userAgent, "not found")
		return nil
	case err != nil:
		m.log.WithError(err).Warn("session lookup failed")
		m.audit(ctx, domain.EventSessionValidationError, map[string]any{
			"token":     truncateToken(token),
			"client_ip": clientIP,
			"error":     err.Error(),
		})
		return nil
	}

	if res := rules.Validate(s, now, ""); !res.Valid {
		m.invalidAttempt(ctx, token, clientIP, userAgent, res.Reason)
		return nil
	}

	if s.ClientIP != "" && clientIP != "" && s.ClientIP != clientIP {
		m.audit(ctx, domain.EventIPMismatch, map[string]any{
			"session_id": s.ID,
			"stored_ip":  s.ClientIP,
			"current_ip": clientIP,
		})
	}
	if s.UserAgent != "" && userAgent != "" && s.UserAgent != userAgent {
		m.audit(ctx, domain.EventUserAgentChange, map[string]any{
			"session_id":     s.ID,
			"stored_agent":   s.UserAgent,
			"current_agent":  userAgent,
			"current_client": clientIP,
		})
	}

	m.audit(ctx, domain.EventSessionValidated, map[string]any{
		"session_id": s.ID,
		"client_ip":  clientIP,
	})
	return s
}

// ValidateSessionForOffer additionally requires offerID to belong to the session.
func (m *Manager) ValidateSessionForOffer(ctx context.Context, token, offerID, clientIP, userAgent string) *domain.Session {
	s := m.ValidateSessionWithSecurity(ctx, token, clientIP, userAgent)
	if s == nil {
		return nil
	}
	if res := rules.Validate(s, m.clock.Now(), offerID); !res.Valid {
		m.audit(ctx, domain.EventSessionValidationFailed, map[string]any{
			"session_id": s.ID,
			"offer_id":   offerID,
			"client_ip":  clientIP,
			"reason":     res.Reason,
		})
		return nil
	}
	return s
}

func (m *Manager) UseSession(ctx context.Context, token string) bool {
	sctx, cancel := m.storeCtx(ctx)
	defer cancel()

	ok, err := m.repo.ConsumeIfValid(sctx, token, m.clock.Now())
	if err != nil {
		m.log.WithError(err).Warn("session consume failed")
		ok = false
	}

	data := map[string]any{"token": truncateToken(token)}
	if ok {
		m.audit(ctx, domain.EventSessionUsed, data)
	} else {
		if err != nil {
			data["error"] = err.Error()
		}
		m.audit(ctx, domain.EventSessionUseFailed, data)
	}
	return ok
}

// GetSessionStats never fails; storage errors yield zero counts.
func (m *Manager) GetSessionStats(ctx context.Context) domain.SessionStats {
	sctx, cancel := m.storeCtx(ctx)
	defer cancel()

	stats, err := m.repo.Stats(sctx, m.clock.Now())
	if err != nil {
		m.log.WithError(err).Warn("session stats unavailable")
		return domain.SessionStats{}
	}
	return stats
}

func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	sctx, cancel := m.storeCtx(ctx)
	defer cancel()

	n, err := m.repo.PurgeExpired(sctx, m.clock.Now())
	if err != nil {
		return 0, errors.Wrap(err, "purge expired sessions")
	}
	if n > 0 {
		m.log.WithField("removed", n).Info("purged expired sessions")
	}
	return n, nil
}

// GetSession looks a session up regardless of state. Not for access decisions.
func (m *Manager) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	sctx, cancel := m.storeCtx(ctx)
	defer cancel()
	return m.repo.FindByToken(sctx, token)
}

func (m *Manager) invalidAttempt(ctx context.Context, token, clientIP, userAgent, reason string) {
	m.audit(ctx, domain.EventInvalidSessionAttempt, map[string]any{
		"token":      truncateToken(token),
		"client_ip":  clientIP,
		"user_agent": userAgent,
		"reason":     reason,
	})
}

// audit failures are reported by the event logger itself.
func (m *Manager) audit(ctx context.Context, eventType domain.SecurityEventType, data map[string]any) {
	if m.events == nil {
		return
	}
	_ = m.events.Log(ctx, eventType, data)
}

func (m *Manager) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.storeTimeout)
}

func truncateToken(token string) string {
	if len(token) <= auditTokenPrefix {
		return token
	}
	return token[:auditTokenPrefix]
}

var _ SessionUseCase = (*Manager)(nil)
