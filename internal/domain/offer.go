package domain

import (
	"encoding/json"
	"fmt"
)

// PricedOffer is a supplier offer. Only the price fields are typed; the rest of
// the supplier payload (slices, segments, owner, conditions...) rides along in
// Extra untouched. Extra is flattened into the top-level object in both JSON
// and BSON, so its keys must not collide with the typed fields.
type PricedOffer struct {
	ID                 string         `bson:"id"`
	TotalAmount        string         `bson:"total_amount"`
	TotalCurrency      string         `bson:"total_currency"`
	OriginalAmount     string         `bson:"original_amount,omitempty"`
	OriginalCurrency   string         `bson:"original_currency,omitempty"`
	Commission         string         `bson:"commission,omitempty"`
	CommissionCurrency string         `bson:"commission_currency,omitempty"`
	Extra              map[string]any `bson:",inline"`
}

var offerFields = []string{
	"id",
	"total_amount",
	"total_currency",
	"original_amount",
	"original_currency",
	"commission",
	"commission_currency",
}

func (o PricedOffer) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(o.Extra)+len(offerFields))
	for k, v := range o.Extra {
		out[k] = v
	}
	out["id"] = o.ID
	out["total_amount"] = o.TotalAmount
	out["total_currency"] = o.TotalCurrency
	setIfNotEmpty(out, "original_amount", o.OriginalAmount)
	setIfNotEmpty(out, "original_currency", o.OriginalCurrency)
	setIfNotEmpty(out, "commission", o.Commission)
	setIfNotEmpty(out, "commission_currency", o.CommissionCurrency)
	return json.Marshal(out)
}

func (o *PricedOffer) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	targets := map[string]*string{
		"id":                  &o.ID,
		"total_amount":        &o.TotalAmount,
		"total_currency":      &o.TotalCurrency,
		"original_amount":     &o.OriginalAmount,
		"original_currency":   &o.OriginalCurrency,
		"commission":          &o.Commission,
		"commission_currency": &o.CommissionCurrency,
	}
	for key, dst := range targets {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("offer field %s must be a string", key)
		}
		*dst = s
		delete(raw, key)
	}

	o.Extra = nil
	if len(raw) > 0 {
		o.Extra = raw
	}
	return nil
}

// Clone returns a copy that does not share the Extra map with o.
func (o PricedOffer) Clone() PricedOffer {
	c := o
	if o.Extra != nil {
		c.Extra = make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
