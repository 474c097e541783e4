package booking

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/Domenick1991/flightshop/internal/clock"
	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/Domenick1991/flightshop/internal/kafka"
	"github.com/Domenick1991/flightshop/internal/supplier"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

const defaultLockTTL = 2 * time.Minute

type BookingUseCase interface {
	CreateOrder(ctx context.Context, input CreateOrderInput, client domain.ClientInfo) (*domain.Booking, error)
}

type SessionGate interface {
	ValidateSessionForOffer(ctx context.Context, token, offerID, clientIP, userAgent string) *domain.Session
	UseSession(ctx context.Context, token string) bool
}

type OrderSupplier interface {
	CreateOrder(ctx context.Context, in supplier.OrderRequest) (*supplier.Order, error)
}

type CheckoutLocker interface {
	AcquireCheckoutLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, sessionID string) error
}

type OrderStore interface {
	Save(ctx context.Context, booking *domain.Booking) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateOrderInput struct {
	SessionToken string             `json:"sessionToken"`
	OfferID      string             `json:"offer_id"`
	Email        string             `json:"email"`
	Passengers   []domain.Passenger `json:"passengers"`
}

type BookingService struct {
	sessions           SessionGate
	supplier           OrderSupplier
	producer           Producer
	notificationsTopic string
	locker             CheckoutLocker
	orders             OrderStore
	lockTTL            time.Duration
	clock              clock.Clock
	log                logrus.FieldLogger
}

type BookingServiceOption func(*BookingService)

func WithCheckoutLocker(l CheckoutLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithOrderStore records every confirmed order in the ledger.
func WithOrderStore(o OrderStore) BookingServiceOption {
	return func(s *BookingService) { s.orders = o }
}

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) { s.clock = c }
}

func WithLogger(log logrus.FieldLogger) BookingServiceOption {
	return func(s *BookingService) { s.log = log }
}

func NewBookingService(
	sessions SessionGate,
	orders OrderSupplier,
	producer Producer,
	notificationsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		sessions:           sessions,
		supplier:           orders,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		lockTTL:            defaultLockTTL,
		clock:              clock.NewRealClock(),
		log:                logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) CreateOrder(ctx context.Context, input CreateOrderInput, client domain.ClientInfo) (*domain.Booking, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	session := s.sessions.ValidateSessionForOffer(ctx, input.SessionToken, input.OfferID, client.IP, client.UserAgent)
	if session == nil {
		return nil, domain.ErrInvalidSession
	}
	if len(input.Passengers) != session.SearchParams.Passengers {
		return nil, errors.Mark(
			errors.Newf("expected %d passengers, got %d", session.SearchParams.Passengers, len(input.Passengers)),
			domain.ErrInvalidOrder)
	}
	offer, _ := session.Offer(input.OfferID)

	if s.locker != nil {
		ok, err := s.locker.AcquireCheckoutLock(ctx, session.ID, s.lockTTL)
		switch {
		case err != nil:
			s.log.WithError(err).Warn("checkout lock unavailable, continuing without it")
		case !ok:
			return nil, domain.ErrCheckoutInProgress
		default:
			defer func() {
				if err := s.locker.ReleaseCheckoutLock(context.WithoutCancel(ctx), session.ID); err != nil {
					s.log.WithError(err).Warn("failed to release checkout lock")
				}
			}()
		}
	}

	order, err := s.supplier.CreateOrder(ctx, supplier.OrderRequest{
		OfferID:    offer.ID,
		Amount:     offer.OriginalAmount,
		Currency:   offer.OriginalCurrency,
		Passengers: input.Passengers,
	})
	if err != nil {
		return nil, err
	}

	if !s.sessions.UseSession(ctx, input.SessionToken) {
		s.log.WithFields(logrus.Fields{
			"session_id": session.ID,
			"order_id":   order.ID,
		}).Error("supplier order placed but session could not be consumed")
		return nil, domain.ErrInvalidSession
	}

	booking := &domain.Booking{
		OrderID:            order.ID,
		BookingReference:   order.BookingReference,
		SessionID:          session.ID,
		OfferID:            offer.ID,
		Status:             domain.BookingStatusConfirmed,
		Email:              input.Email,
		Passengers:         input.Passengers,
		TotalAmount:        offer.TotalAmount,
		TotalCurrency:      offer.TotalCurrency,
		OriginalAmount:     offer.OriginalAmount,
		Commission:         offer.Commission,
		CommissionCurrency: offer.CommissionCurrency,
		CreatedAt:          s.clock.Now(),
	}

	if s.orders != nil {
		if err := s.orders.Save(context.WithoutCancel(ctx), booking); err != nil {
			s.log.WithError(err).WithField("order_id", booking.OrderID).Error("failed to record order in ledger")
		}
	}

	if err := s.publish(ctx, booking, session.SearchParams); err != nil {
		s.log.WithError(err).WithField("order_id", booking.OrderID).Warn("failed to publish booking_confirmed event")
	}
	return booking, nil
}

func (s *BookingService) publish(ctx context.Context, b *domain.Booking, params domain.SearchParams) error {
	if s.producer == nil || s.notificationsTopic == "" {
		return nil
	}
	names := make([]string, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		names = append(names, strings.TrimSpace(p.GivenName+" "+p.FamilyName))
	}
	event := kafka.BookingEvent{
		Type:             kafka.EventBookingConfirmed,
		OrderID:          b.OrderID,
		BookingReference: b.BookingReference,
		SessionID:        b.SessionID,
		OfferID:          b.OfferID,
		Email:            b.Email,
		PassengerNames:   names,
		Origin:           params.Origin,
		Destination:      params.Destination,
		DepartureDate:    params.DepartureDate,
		ReturnDate:       params.ReturnDate,
		TotalAmount:      b.TotalAmount,
		TotalCurrency:    b.TotalCurrency,
		CreatedAt:        b.CreatedAt,
	}
	return s.producer.Publish(ctx, s.notificationsTopic, b.OrderID, event)
}

func validateInput(in CreateOrderInput) error {
	switch {
	case strings.TrimSpace(in.SessionToken) == "":
		return errors.Mark(errors.New("sessionToken is required"), domain.ErrInvalidOrder)
	case strings.TrimSpace(in.OfferID) == "":
		return errors.Mark(errors.New("offer_id is required"), domain.ErrInvalidOrder)
	case len(in.Passengers) == 0:
		return errors.Mark(errors.New("at least one passenger is required"), domain.ErrInvalidOrder)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return errors.Mark(errors.Wrap(err, "email"), domain.ErrInvalidOrder)
	}
	for i, p := range in.Passengers {
		if strings.TrimSpace(p.GivenName) == "" || strings.TrimSpace(p.FamilyName) == "" {
			return errors.Mark(errors.Newf("passenger %d: name is required", i+1), domain.ErrInvalidOrder)
		}
		if _, err := time.Parse(time.DateOnly, p.BornOn); err != nil {
			return errors.Mark(errors.Newf("passenger %d: born_on must be YYYY-MM-DD", i+1), domain.ErrInvalidOrder)
		}
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
