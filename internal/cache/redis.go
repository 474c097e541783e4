package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Domenick1991/flightshop/config"
	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds supplier search results and short checkout locks.
// Session state is never cached here.
type RedisCache struct {
	client    redis.Cmdable
	offersTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, offersTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		offersTTL,
	)
}

func NewRedisCacheWithClient(client redis.Cmdable, offersTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, offersTTL: offersTTL}
}

// GetOffers returns nil, nil on a miss.
func (c *RedisCache) GetOffers(ctx context.Context, params domain.SearchParams) ([]domain.PricedOffer, error) {
	key, err := offersKey(params)
	if err != nil {
		return nil, err
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "redis get offers")
	}

	var offers []domain.PricedOffer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, errors.Wrap(err, "decode cached offers")
	}
	return offers, nil
}

func (c *RedisCache) SetOffers(ctx context.Context, params domain.SearchParams, offers []domain.PricedOffer) error {
	if c.offersTTL <= 0 {
		return nil
	}
	key, err := offersKey(params)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(offers)
	if err != nil {
		return errors.Wrap(err, "encode offers")
	}
	return errors.Wrap(c.client.Set(ctx, key, payload, c.offersTTL).Err(), "redis set offers")
}

// AcquireCheckoutLock keeps two checkouts of the same session from both
// reaching the supplier.
func (c *RedisCache) AcquireCheckoutLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, checkoutLockKey(sessionID), "locked", ttl).Result()
	return ok, errors.Wrap(err, "redis acquire checkout lock")
}

func (c *RedisCache) ReleaseCheckoutLock(ctx context.Context, sessionID string) error {
	return errors.Wrap(c.client.Del(ctx, checkoutLockKey(sessionID)).Err(), "redis release checkout lock")
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func offersKey(params domain.SearchParams) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", errors.Wrap(err, "encode search params")
	}
	sum := sha256.Sum256(raw)
	return "cache:offers:" + hex.EncodeToString(sum[:]), nil
}

func checkoutLockKey(sessionID string) string {
	return "lock:checkout:" + sessionID
}
