//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightshop/config"
	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return config.RedisConfig{Addr: endpoint}
}

func TestRedisCache_OffersRoundTrip(t *testing.T) {
	c := NewRedisCache(startRedis(t), time.Minute)
	ctx := context.Background()

	miss, err := c.GetOffers(ctx, params())
	require.NoError(t, err)
	assert.Nil(t, miss)

	offers := []domain.PricedOffer{{
		ID: "off_1", TotalAmount: "100.00", TotalCurrency: "EUR",
		Extra: map[string]any{"owner": map[string]any{"iata_code": "BA"}},
	}}
	require.NoError(t, c.SetOffers(ctx, params(), offers))

	hit, err := c.GetOffers(ctx, params())
	require.NoError(t, err)
	require.Len(t, hit, 1)
	assert.Equal(t, "off_1", hit[0].ID)
	assert.Equal(t, "100.00", hit[0].TotalAmount)
	assert.Equal(t, "BA", hit[0].Extra["owner"].(map[string]any)["iata_code"])
}

func TestRedisCache_CheckoutLock(t *testing.T) {
	c := NewRedisCache(startRedis(t), time.Minute)
	ctx := context.Background()

	ok, err := c.AcquireCheckoutLock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireCheckoutLock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseCheckoutLock(ctx, "sess-1"))
	ok, err = c.AcquireCheckoutLock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
