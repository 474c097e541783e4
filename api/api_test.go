package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/Domenick1991/flightshop/internal/service/booking"
	"github.com/Domenick1991/flightshop/internal/service/flights"
	"github.com/Domenick1991/flightshop/internal/supplier"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearchUseCase struct {
	mock.Mock
}

func (m *MockSearchUseCase) Search(ctx context.Context, params domain.SearchParams, client *domain.ClientInfo) (*flights.SearchResult, error) {
	args := m.Called(ctx, params, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flights.SearchResult), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateOrder(ctx context.Context, input booking.CreateOrderInput, client domain.ClientInfo) (*domain.Booking, error) {
	args := m.Called(ctx, input, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockOrderLedger struct {
	mock.Mock
}

func (m *MockOrderLedger) FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) ValidateSessionWithSecurity(ctx context.Context, token, clientIP, userAgent string) *domain.Session {
	args := m.Called(ctx, token, clientIP, userAgent)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.Session)
}

func (m *MockSessionService) ValidateSessionForOffer(ctx context.Context, token, offerID, clientIP, userAgent string) *domain.Session {
	args := m.Called(ctx, token, offerID, clientIP, userAgent)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.Session)
}

func (m *MockSessionService) GetSessionStats(ctx context.Context) domain.SessionStats {
	return m.Called(ctx).Get(0).(domain.SessionStats)
}

func (m *MockSessionService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	search   *MockSearchUseCase
	orders   *MockBookingUseCase
	ledger   *MockOrderLedger
	sessions *MockSessionService
	router   *gin.Engine
}

func newFixture(adminToken string) *fixture {
	f := &fixture{
		search:   &MockSearchUseCase{},
		orders:   &MockBookingUseCase{},
		ledger:   &MockOrderLedger{},
		sessions: &MockSessionService{},
	}
	f.router = NewRouter(Handlers{
		Search:     NewSearchHandler(f.search),
		Orders:     NewOrderHandler(f.orders, f.ledger),
		Sessions:   NewSessionHandler(f.sessions),
		AdminToken: adminToken,
	}, quiet())
	return f
}

func (f *fixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func searchBody() domain.SearchParams {
	return domain.SearchParams{
		Origin: "JFK", Destination: "LHR", DepartureDate: "2025-06-01",
		Passengers: 1, CabinClass: domain.CabinEconomy, TripType: domain.TripOneWay,
	}
}

func TestSearchHandler_search(t *testing.T) {
	f := newFixture("")
	expires := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)
	f.search.On("Search", mock.Anything, searchBody(), mock.MatchedBy(func(c *domain.ClientInfo) bool {
		return c != nil && c.UserAgent == "test-agent" && c.IP != ""
	})).Return(&flights.SearchResult{
		SessionToken: "0123456789abcdef0123456789abcdef",
		SessionID:    "sess-1",
		ExpiresAt:    expires,
		Offers:       []domain.PricedOffer{{ID: "off_1", TotalAmount: "115.00", TotalCurrency: "EUR", OriginalAmount: "100.00"}},
	}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/search", searchBody(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "0123456789abcdef0123456789abcdef", resp["session_token"])
	offers := resp["offers"].([]any)
	require.Len(t, offers, 1)
	assert.Equal(t, "115.00", offers[0].(map[string]any)["total_amount"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	f.search.AssertExpectations(t)
}

func TestSearchHandler_errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid params", errors.Mark(errors.New("passengers must be between 1 and 9"), domain.ErrInvalidSearchParams), http.StatusBadRequest},
		{"no offers", domain.ErrNoOffers, http.StatusNotFound},
		{"supplier down", errors.Wrap(supplier.ErrUpstream, "search offers"), http.StatusBadGateway},
		{"session store down", errors.Wrap(domain.ErrStorageUnavailable, "failed to create secure session"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			f.search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := f.do(http.MethodPost, "/api/v1/search", searchBody(), nil)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSearchHandler_malformedBody(t *testing.T) {
	f := newFixture("")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderHandler_create(t *testing.T) {
	f := newFixture("")
	input := booking.CreateOrderInput{
		SessionToken: "tok",
		OfferID:      "off_1",
		Email:        "amelia@example.com",
		Passengers:   []domain.Passenger{{GivenName: "Amelia", FamilyName: "Earhart", BornOn: "1987-07-24"}},
	}
	f.orders.On("CreateOrder", mock.Anything, input, mock.AnythingOfType("domain.ClientInfo")).
		Return(&domain.Booking{OrderID: "ord_1", BookingReference: "RZPNX8", Status: domain.BookingStatusConfirmed}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/orders", input, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RZPNX8", resp.BookingReference)
	f.orders.AssertExpectations(t)
}

func TestOrderHandler_create_errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"invalid session", domain.ErrInvalidSession, http.StatusUnauthorized, "invalid or expired session"},
		{"bad input", errors.Mark(errors.New("offer_id is required"), domain.ErrInvalidOrder), http.StatusBadRequest, "offer_id is required"},
		{"checkout in progress", domain.ErrCheckoutInProgress, http.StatusConflict, "checkout already in progress"},
		{"supplier", errors.Wrap(supplier.ErrUpstream, "create order"), http.StatusBadGateway, "flight supplier unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			f.orders.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := f.do(http.MethodPost, "/api/v1/orders", booking.CreateOrderInput{SessionToken: "tok"}, nil)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, errorBody(t, w), tt.msg)
		})
	}
}

func TestSessionHandler_validate(t *testing.T) {
	f := newFixture("")
	expires := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)
	f.sessions.On("ValidateSessionWithSecurity", mock.Anything, "tok", mock.Anything, "test-agent").
		Return(&domain.Session{ID: "sess-1", ExpiresAt: expires}).Once()

	w := f.do(http.MethodPost, "/api/v1/sessions/validate", gin.H{"sessionToken": "tok"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp validateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, expires, resp.ExpiresAt)
}

func TestSessionHandler_validate_offerMismatch(t *testing.T) {
	f := newFixture("")
	f.sessions.On("ValidateSessionForOffer", mock.Anything, "tok", "off_999", mock.Anything, mock.Anything).
		Return(nil).Once()

	w := f.do(http.MethodPost, "/api/v1/sessions/validate", gin.H{"sessionToken": "tok", "offer_id": "off_999"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid or expired session", errorBody(t, w))
}

func TestSessionHandler_validate_missingToken(t *testing.T) {
	f := newFixture("")

	w := f.do(http.MethodPost, "/api/v1/sessions/validate", gin.H{}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_stats(t *testing.T) {
	f := newFixture("admin-secret")
	f.sessions.On("GetSessionStats", mock.Anything).
		Return(domain.SessionStats{Total: 3, Active: 1, Used: 1, Expired: 2}).Once()

	unauthorized := f.do(http.MethodGet, "/admin/sessions/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, unauthorized.Code)

	w := f.do(http.MethodGet, "/admin/sessions/stats", nil, map[string]string{"X-Admin-Token": "admin-secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	var stats domain.SessionStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, domain.SessionStats{Total: 3, Active: 1, Used: 1, Expired: 2}, stats)
	f.sessions.AssertNumberOfCalls(t, "GetSessionStats", 1)
}

func TestAdmin_purge(t *testing.T) {
	f := newFixture("")
	f.sessions.On("PurgeExpired", mock.Anything).Return(int64(7), nil).Once()

	w := f.do(http.MethodPost, "/admin/sessions/purge", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":7}`, w.Body.String())
}

func TestAdmin_purgeFailure(t *testing.T) {
	f := newFixture("")
	f.sessions.On("PurgeExpired", mock.Anything).Return(int64(0), domain.ErrStorageUnavailable).Once()

	w := f.do(http.MethodPost, "/admin/sessions/purge", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdmin_orderLookup(t *testing.T) {
	f := newFixture("admin-secret")
	f.ledger.On("FindByOrderID", mock.Anything, "ord_1").
		Return(&domain.Booking{OrderID: "ord_1", OriginalAmount: "100.00", Commission: "15.00"}, nil).Once()
	f.ledger.On("FindByOrderID", mock.Anything, "ord_missing").Return(nil, domain.ErrOrderNotFound).Once()
	auth := map[string]string{"X-Admin-Token": "admin-secret"}

	w := f.do(http.MethodGet, "/admin/orders/ord_1", nil, auth)
	assert.Equal(t, http.StatusOK, w.Code)
	var b domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, "15.00", b.Commission)

	missing := f.do(http.MethodGet, "/admin/orders/ord_missing", nil, auth)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "order not found", errorBody(t, missing))

	unauthorized := f.do(http.MethodGet, "/admin/orders/ord_1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, unauthorized.Code)
}

func TestAdmin_orderLookupWithoutLedger(t *testing.T) {
	router := NewRouter(Handlers{
		Search:   NewSearchHandler(&MockSearchUseCase{}),
		Orders:   NewOrderHandler(&MockBookingUseCase{}, nil),
		Sessions: NewSessionHandler(&MockSessionService{}),
	}, quiet())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/orders/ord_1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(quiet()))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSearchHandler_direct(t *testing.T) {
	mockService := &MockSearchUseCase{}
	handler := NewSearchHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	raw, _ := json.Marshal(searchBody())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Search", c.Request.Context(), searchBody(), mock.Anything).Return(nil, domain.ErrNoOffers).Once()

	handler.search(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}
