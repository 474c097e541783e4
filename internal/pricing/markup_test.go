package pricing

import (
	"math"
	"strconv"
	"testing"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkup_Apply(t *testing.T) {
	m, err := NewMarkup("")
	require.NoError(t, err)

	offers := []domain.PricedOffer{
		{ID: "off_1", TotalAmount: "100.00", TotalCurrency: "EUR", Extra: map[string]any{"owner": "BA"}},
		{ID: "off_2", TotalAmount: "0.99", TotalCurrency: "GBP"},
		{ID: "off_3", TotalAmount: "1234", TotalCurrency: "USD"},
	}

	got, err := m.Apply(offers)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "off_1", got[0].ID)
	assert.Equal(t, "115.00", got[0].TotalAmount)
	assert.Equal(t, "EUR", got[0].TotalCurrency)
	assert.Equal(t, "100.00", got[0].OriginalAmount)
	assert.Equal(t, "EUR", got[0].OriginalCurrency)
	assert.Equal(t, "15.00", got[0].Commission)
	assert.Equal(t, "EUR", got[0].CommissionCurrency)
	assert.Equal(t, "BA", got[0].Extra["owner"])

	assert.Equal(t, "off_2", got[1].ID)
	assert.Equal(t, "15.99", got[1].TotalAmount)
	assert.Equal(t, "GBP", got[1].CommissionCurrency)

	assert.Equal(t, "1249.00", got[2].TotalAmount)
	assert.Equal(t, "1234.00", got[2].OriginalAmount)

	// input untouched
	assert.Equal(t, "100.00", offers[0].TotalAmount)
	assert.Empty(t, offers[0].Commission)
}

func TestMarkup_TotalEqualsOriginalPlusCommission(t *testing.T) {
	m, err := NewMarkup("15.00")
	require.NoError(t, err)

	for _, amount := range []string{"0", "0.01", "9.9", "99.99", "100.00", "15000.50"} {
		got, err := m.Apply([]domain.PricedOffer{{ID: "o", TotalAmount: amount, TotalCurrency: "EUR"}})
		require.NoError(t, err, amount)

		total, err := ParseCents(got[0].TotalAmount)
		require.NoError(t, err)
		original, err := ParseCents(got[0].OriginalAmount)
		require.NoError(t, err)
		commission, err := ParseCents(got[0].Commission)
		require.NoError(t, err)

		assert.Equal(t, original+commission, total, amount)
		assert.Equal(t, int64(1500), commission)
	}
}

func TestMarkup_Apply_RejectsBadAmount(t *testing.T) {
	m, err := NewMarkup("15.00")
	require.NoError(t, err)

	for _, amount := range []string{"", "abc", "NaN", "-5.00", "1.234", "1.", ".50", "1e3",
		"100000000000000000", "92233720368547758.07", "92233720368547757.99"} {
		_, err := m.Apply([]domain.PricedOffer{
			{ID: "ok", TotalAmount: "10.00", TotalCurrency: "EUR"},
			{ID: "bad", TotalAmount: amount, TotalCurrency: "EUR"},
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidAmount), "amount %q", amount)
	}
}

func TestParseCents_Range(t *testing.T) {
	limit := int64((math.MaxInt64 - 99) / 100)

	cents, err := ParseCents(strconv.FormatInt(limit, 10) + ".99")
	require.NoError(t, err)
	assert.Equal(t, limit*100+99, cents)

	_, err = ParseCents("100000000000000000")
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

func TestNewMarkup_InvalidFee(t *testing.T) {
	_, err := NewMarkup("fifteen")
	assert.Error(t, err)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "115.00", FormatCents(11500))
	assert.Equal(t, "-1.50", FormatCents(-150))
}
