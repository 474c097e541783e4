package kafka

import "time"

const (
	EventBookingConfirmed = "booking_confirmed"
)

// BookingEvent is published on the notifications topic once the supplier has
// accepted an order. The worker turns it into a ticket email.
type BookingEvent struct {
	Type             string    `json:"type"`
	OrderID          string    `json:"order_id"`
	BookingReference string    `json:"booking_reference"`
	SessionID        string    `json:"session_id"`
	OfferID          string    `json:"offer_id"`
	Email            string    `json:"email"`
	PassengerNames   []string  `json:"passenger_names"`
	Origin           string    `json:"origin"`
	Destination      string    `json:"destination"`
	DepartureDate    string    `json:"departure_date"`
	ReturnDate       string    `json:"return_date,omitempty"`
	TotalAmount      string    `json:"total_amount"`
	TotalCurrency    string    `json:"total_currency"`
	CreatedAt        time.Time `json:"created_at"`
}
