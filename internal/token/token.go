package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"strconv"

	"github.com/Domenick1991/flightshop/internal/clock"
	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
)

// Length is the number of hex characters in a session token (128 bits).
const Length = 32

// DefaultSecret is used when no secret is configured. Tokens minted with it are
// only as strong as the random component; production config refuses it.
const DefaultSecret = "flightshop-default-session-secret"

type Generator struct {
	secret        []byte
	defaultSecret bool
	clock         clock.Clock
	random        io.Reader
}

type Option func(*Generator)

func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithRandom replaces the entropy source (crypto/rand by default).
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

func NewGenerator(secret string, opts ...Option) *Generator {
	g := &Generator{
		secret: []byte(secret),
		clock:  clock.NewRealClock(),
		random: rand.Reader,
	}
	if secret == "" {
		g.secret = []byte(DefaultSecret)
		g.defaultSecret = true
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// UsesDefaultSecret reports whether the generator fell back to DefaultSecret.
func (g *Generator) UsesDefaultSecret() bool {
	return g.defaultSecret
}

// Generate mints a token for a new session. The result is an HMAC-SHA256 over
// the session id, the search params, a nanosecond timestamp and 16 random
// bytes, hex encoded and truncated to Length.
func (g *Generator) Generate(sessionID string, params domain.SearchParams) (string, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", errors.Wrap(err, "encode search params")
	}

	nonce := make([]byte, 16)
	if _, err := io.ReadFull(g.random, nonce); err != nil {
		return "", errors.Wrap(err, "read random nonce")
	}

	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(sessionID))
	mac.Write(payload)
	mac.Write([]byte(strconv.FormatInt(g.clock.Now().UnixNano(), 10)))
	mac.Write(nonce)

	return hex.EncodeToString(mac.Sum(nil))[:Length], nil
}
