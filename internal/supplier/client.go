// Package supplier talks to the upstream flight supplier's REST API
// (Duffel-compatible wire format).
package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightshop/config"
	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
)

// ErrUpstream marks every failure that originates at or on the way to the supplier.
var ErrUpstream = errors.New("flight supplier unavailable")

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

type Client struct {
	http    *http.Client
	baseURL string
	token   string
	version string
}

// Order is the supplier's confirmation of a placed order.
type Order struct {
	ID               string `json:"id"`
	BookingReference string `json:"booking_reference"`
	TotalAmount      string `json:"total_amount"`
	TotalCurrency    string `json:"total_currency"`
}

// OrderRequest buys one offer at the supplier's price. Amount and Currency
// must be the pre-markup values.
type OrderRequest struct {
	OfferID    string
	Amount     string
	Currency   string
	Passengers []domain.Passenger
}

func NewClient(cfg config.SupplierConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		version: cfg.Version,
	}
}

// NewClientWithHTTP is used by tests and callers that need a custom transport.
func NewClientWithHTTP(cfg config.SupplierConfig, hc *http.Client) *Client {
	c := NewClient(cfg)
	if hc != nil {
		c.http = hc
	}
	return c
}

type slice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type passengerType struct {
	Type string `json:"type"`
}

type offerRequest struct {
	Slices     []slice         `json:"slices"`
	Passengers []passengerType `json:"passengers"`
	CabinClass string          `json:"cabin_class"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type offerRequestResult struct {
	Offers []domain.PricedOffer `json:"offers"`
}

// SearchOffers returns the supplier's offers in its own order and pricing.
func (c *Client) SearchOffers(ctx context.Context, params domain.SearchParams) ([]domain.PricedOffer, error) {
	req := offerRequest{
		Slices: []slice{{
			Origin:        params.Origin,
			Destination:   params.Destination,
			DepartureDate: params.DepartureDate,
		}},
		CabinClass: string(params.CabinClass),
	}
	if params.TripType == domain.TripRoundTrip && params.ReturnDate != "" {
		req.Slices = append(req.Slices, slice{
			Origin:        params.Destination,
			Destination:   params.Origin,
			DepartureDate: params.ReturnDate,
		})
	}
	for i := 0; i < params.Passengers; i++ {
		req.Passengers = append(req.Passengers, passengerType{Type: "adult"})
	}

	var out envelope[offerRequestResult]
	if err := c.do(ctx, "/air/offer_requests?return_offers=true", envelope[offerRequest]{Data: req}, &out); err != nil {
		return nil, errors.Wrap(err, "search offers")
	}
	return out.Data.Offers, nil
}

type orderPassenger struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	BornOn     string `json:"born_on"`
	Email      string `json:"email"`
	Phone      string `json:"phone_number,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Title      string `json:"title,omitempty"`
}

type payment struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type orderBody struct {
	Type           string           `json:"type"`
	SelectedOffers []string         `json:"selected_offers"`
	Passengers     []orderPassenger `json:"passengers"`
	Payments       []payment        `json:"payments"`
}

func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (*Order, error) {
	body := orderBody{
		Type:           "instant",
		SelectedOffers: []string{in.OfferID},
		Payments:       []payment{{Type: "balance", Amount: in.Amount, Currency: in.Currency}},
	}
	for _, p := range in.Passengers {
		body.Passengers = append(body.Passengers, orderPassenger{
			GivenName:  p.GivenName,
			FamilyName: p.FamilyName,
			BornOn:     p.BornOn,
			Email:      p.Email,
			Phone:      p.Phone,
			Gender:     p.Gender,
			Title:      p.Title,
		})
	}

	var out envelope[Order]
	if err := c.do(ctx, "/air/orders", envelope[orderBody]{Data: body}, &out); err != nil {
		return nil, errors.Wrapf(err, "create order for offer %s", in.OfferID)
	}
	return &out.Data, nil
}

type apiErrors struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) do(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.version != "" {
		req.Header.Set("Duffel-Version", c.version)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "send request"), ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		var apiErr apiErrors
		if json.Unmarshal(raw, &apiErr) == nil && len(apiErr.Errors) > 0 {
			msg = apiErr.Errors[0].Message
		}
		return errors.Mark(errors.Newf("supplier responded %d: %s", resp.StatusCode, msg), ErrUpstream)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Mark(errors.Wrap(err, "decode response"), ErrUpstream)
	}
	return nil
}
