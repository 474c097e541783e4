package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/Domenick1991/flightshop/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// OrderLedger looks up confirmed orders recorded at checkout.
type OrderLedger interface {
	FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error)
}

type OrderHandler struct {
	service booking.BookingUseCase
	ledger  OrderLedger
}

// NewOrderHandler accepts a nil ledger, in which case the admin lookup
// route is not mounted.
func NewOrderHandler(service booking.BookingUseCase, ledger OrderLedger) *OrderHandler {
	return &OrderHandler{service: service, ledger: ledger}
}

func (h *OrderHandler) Register(router *gin.RouterGroup) {
	router.POST("/orders", h.create)
}

func (h *OrderHandler) RegisterAdmin(router *gin.RouterGroup) {
	if h.ledger != nil {
		router.GET("/orders/:order_id", h.get)
	}
}

// create godoc
// @Summary  Place an order for an offer held by a booking session
// @Accept   json
// @Produce  json
// @Param    request body booking.CreateOrderInput true "order"
// @Success  201 {object} domain.Booking
// @Failure  400,401,409,502 {object} map[string]string
// @Router   /api/v1/orders [post]
func (h *OrderHandler) create(c *gin.Context) {
	var req booking.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.CreateOrder(c.Request.Context(), req, domain.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// get godoc
// @Summary  Look up a confirmed order in the ledger
// @Produce  json
// @Param    order_id path string true "supplier order id"
// @Param    X-Admin-Token header string false "admin token"
// @Success  200 {object} domain.Booking
// @Failure  401,404 {object} map[string]string
// @Router   /admin/orders/{order_id} [get]
func (h *OrderHandler) get(c *gin.Context) {
	b, err := h.ledger.FindByOrderID(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
