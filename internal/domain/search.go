package domain

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
)

const (
	MinPassengers = 1
	MaxPassengers = 9
)

// SearchParams is the search snapshot attached to a session. It is never
// modified after the session is created.
type SearchParams struct {
	Origin        string     `json:"origin" bson:"origin"`
	Destination   string     `json:"destination" bson:"destination"`
	DepartureDate string     `json:"departure_date" bson:"departure_date"`
	ReturnDate    string     `json:"return_date,omitempty" bson:"return_date,omitempty"`
	Passengers    int        `json:"passengers" bson:"passengers"`
	CabinClass    CabinClass `json:"cabin_class" bson:"cabin_class"`
	TripType      TripType   `json:"trip_type" bson:"trip_type"`
}

func (p SearchParams) Validate() error {
	if strings.TrimSpace(p.Origin) == "" {
		return errors.Mark(errors.New("origin is required"), ErrInvalidSearchParams)
	}
	if strings.TrimSpace(p.Destination) == "" {
		return errors.Mark(errors.New("destination is required"), ErrInvalidSearchParams)
	}
	if strings.TrimSpace(p.DepartureDate) == "" {
		return errors.Mark(errors.New("departure date is required"), ErrInvalidSearchParams)
	}
	if p.Passengers < MinPassengers || p.Passengers > MaxPassengers {
		return errors.Mark(errors.Newf("passengers must be between %d and %d", MinPassengers, MaxPassengers), ErrInvalidSearchParams)
	}
	switch p.CabinClass {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
	default:
		return errors.Mark(errors.Newf("unknown cabin class %q", p.CabinClass), ErrInvalidSearchParams)
	}
	switch p.TripType {
	case TripOneWay:
	case TripRoundTrip:
		if strings.TrimSpace(p.ReturnDate) == "" {
			return errors.Mark(errors.New("return date is required for round-trip"), ErrInvalidSearchParams)
		}
	default:
		return errors.Mark(errors.Newf("unknown trip type %q", p.TripType), ErrInvalidSearchParams)
	}
	return nil
}
