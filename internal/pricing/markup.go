package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
)

// DefaultFee is the flat service fee added to every offer, in the offer's own currency.
const DefaultFee = "15.00"

// Markup adds a fixed absolute fee to supplier offers.
type Markup struct {
	feeCents int64
}

func NewMarkup(fee string) (*Markup, error) {
	if fee == "" {
		fee = DefaultFee
	}
	cents, err := ParseCents(fee)
	if err != nil {
		return nil, errors.Wrapf(err, "parse markup fee %q", fee)
	}
	return &Markup{feeCents: cents}, nil
}

// Fee returns the configured fee as a 2-decimal string.
func (m *Markup) Fee() string {
	return FormatCents(m.feeCents)
}

// Apply returns marked-up copies of offers in the same order. A single
// unparseable amount rejects the whole batch.
func (m *Markup) Apply(offers []domain.PricedOffer) ([]domain.PricedOffer, error) {
	out := make([]domain.PricedOffer, 0, len(offers))
	for _, offer := range offers {
		original, err := ParseCents(offer.TotalAmount)
		if err != nil {
			return nil, errors.Wrapf(err, "offer %s", offer.ID)
		}
		if original > math.MaxInt64-m.feeCents {
			return nil, errors.Mark(errors.Newf("offer %s: amount %q too large", offer.ID, offer.TotalAmount), domain.ErrInvalidAmount)
		}

		marked := offer.Clone()
		marked.OriginalAmount = FormatCents(original)
		marked.OriginalCurrency = offer.TotalCurrency
		marked.TotalAmount = FormatCents(original + m.feeCents)
		marked.Commission = FormatCents(m.feeCents)
		marked.CommissionCurrency = offer.TotalCurrency
		out = append(out, marked)
	}
	return out, nil
}

// ParseCents parses a non-negative decimal amount with at most two fraction
// digits into minor units.
func ParseCents(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, errors.Mark(errors.New("empty amount"), domain.ErrInvalidAmount)
	}

	whole, frac, hasFrac := strings.Cut(amount, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, errors.Mark(errors.Newf("malformed amount %q", amount), domain.ErrInvalidAmount)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, errors.Mark(errors.Newf("malformed amount %q", amount), domain.ErrInvalidAmount)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "amount %q", amount), domain.ErrInvalidAmount)
	}
	if units > (math.MaxInt64-99)/100 {
		return 0, errors.Mark(errors.Newf("amount %q out of range", amount), domain.ErrInvalidAmount)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	return units*100 + cents, nil
}

func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + leftPad2(cents%100)
}

func leftPad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
