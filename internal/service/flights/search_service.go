package flights

import (
	"context"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const DefaultMaxOffers = 20

type SearchUseCase interface {
	Search(ctx context.Context, params domain.SearchParams, client *domain.ClientInfo) (*SearchResult, error)
}

type OfferSupplier interface {
	SearchOffers(ctx context.Context, params domain.SearchParams) ([]domain.PricedOffer, error)
}

// OfferCache stores raw supplier offers, before markup.
type OfferCache interface {
	GetOffers(ctx context.Context, params domain.SearchParams) ([]domain.PricedOffer, error)
	SetOffers(ctx context.Context, params domain.SearchParams, offers []domain.PricedOffer) error
}

type SessionCreator interface {
	CreateSession(ctx context.Context, params domain.SearchParams, offers []domain.PricedOffer, client *domain.ClientInfo) (*domain.Session, error)
}

// SearchResult is what the client gets back: the marked-up offers and the
// token that must accompany checkout.
type SearchResult struct {
	SessionToken string               `json:"session_token"`
	SessionID    string               `json:"session_id"`
	ExpiresAt    time.Time            `json:"expires_at"`
	Offers       []domain.PricedOffer `json:"offers"`
}

type SearchService struct {
	supplier  OfferSupplier
	cache     OfferCache
	sessions  SessionCreator
	maxOffers int
	log       logrus.FieldLogger
}

type SearchServiceOption func(*SearchService)

func WithMaxOffers(n int) SearchServiceOption {
	return func(s *SearchService) {
		if n > 0 {
			s.maxOffers = n
		}
	}
}

func WithLogger(log logrus.FieldLogger) SearchServiceOption {
	return func(s *SearchService) { s.log = log }
}

// NewSearchService accepts a nil cache.
func NewSearchService(supplier OfferSupplier, cache OfferCache, sessions SessionCreator, opts ...SearchServiceOption) *SearchService {
	s := &SearchService{
		supplier:  supplier,
		cache:     cache,
		sessions:  sessions,
		maxOffers: DefaultMaxOffers,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SearchService) Search(ctx context.Context, params domain.SearchParams, client *domain.ClientInfo) (*SearchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	offers, err := s.offers(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, domain.ErrNoOffers
	}
	if len(offers) > s.maxOffers {
		offers = offers[:s.maxOffers]
	}

	session, err := s.sessions.CreateSession(ctx, params, offers, client)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		SessionToken: session.Token,
		SessionID:    session.ID,
		ExpiresAt:    session.ExpiresAt,
		Offers:       session.Offers,
	}, nil
}

func (s *SearchService) offers(ctx context.Context, params domain.SearchParams) ([]domain.PricedOffer, error) {
	if s.cache != nil {
		cached, err := s.cache.GetOffers(ctx, params)
		if err != nil {
			s.log.WithError(err).Warn("offer cache read failed")
		} else if len(cached) > 0 {
			return cached, nil
		}
	}

	offers, err := s.supplier.SearchOffers(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "supplier search")
	}

	if s.cache != nil && len(offers) > 0 {
		if err := s.cache.SetOffers(ctx, params, offers); err != nil {
			s.log.WithError(err).Warn("offer cache write failed")
		}
	}
	return offers, nil
}

var _ SearchUseCase = (*SearchService)(nil)
