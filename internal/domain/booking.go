package domain

import "time"

type BookingStatus string

const BookingStatusConfirmed BookingStatus = "CONFIRMED"

type Passenger struct {
	GivenName  string `json:"given_name" bson:"given_name"`
	FamilyName string `json:"family_name" bson:"family_name"`
	BornOn     string `json:"born_on" bson:"born_on"`
	Email      string `json:"email,omitempty" bson:"email,omitempty"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
	Gender     string `json:"gender,omitempty" bson:"gender,omitempty"`
	Title      string `json:"title,omitempty" bson:"title,omitempty"`
}

// Booking is the storefront view of an order placed with the supplier.
// It is also the order ledger record used to reconcile markup.
type Booking struct {
	OrderID            string        `json:"order_id" bson:"order_id"`
	BookingReference   string        `json:"booking_reference" bson:"booking_reference"`
	SessionID          string        `json:"session_id" bson:"session_id"`
	OfferID            string        `json:"offer_id" bson:"offer_id"`
	Status             BookingStatus `json:"status" bson:"status"`
	Email              string        `json:"email" bson:"email"`
	Passengers         []Passenger   `json:"passengers" bson:"passengers"`
	TotalAmount        string        `json:"total_amount" bson:"total_amount"`
	TotalCurrency      string        `json:"total_currency" bson:"total_currency"`
	OriginalAmount     string        `json:"original_amount" bson:"original_amount"`
	Commission         string        `json:"commission" bson:"commission"`
	CommissionCurrency string        `json:"commission_currency" bson:"commission_currency"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at"`
}
