package domain

import "time"

// SessionTTL is how long a booking session stays redeemable after creation.
const SessionTTL = 30 * time.Minute

// Session binds a priced search result to a single-use token.
type Session struct {
	ID           string        `json:"id" bson:"id"`
	Token        string        `json:"token" bson:"token"`
	SearchParams SearchParams  `json:"search_params" bson:"search_params"`
	Offers       []PricedOffer `json:"offers" bson:"offers"`
	ExpiresAt    time.Time     `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	Used         bool          `json:"used" bson:"used"`
	UsedAt       *time.Time    `json:"used_at,omitempty" bson:"used_at,omitempty"`
	ClientIP     string        `json:"client_ip,omitempty" bson:"client_ip,omitempty"`
	UserAgent    string        `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
}

// IsActive reports whether the session can still be redeemed at now.
func (s *Session) IsActive(now time.Time) bool {
	return now.Before(s.ExpiresAt) && !s.Used
}

// Offer returns the offer with the given id, if the session holds it.
func (s *Session) Offer(id string) (PricedOffer, bool) {
	for _, o := range s.Offers {
		if o.ID == id {
			return o, true
		}
	}
	return PricedOffer{}, false
}

// ClientInfo is the network identity of the caller that created or presents a session.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// SessionStats are independent counters; a used session that has also expired
// is counted in both Used and Expired.
type SessionStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Used    int64 `json:"used"`
	Expired int64 `json:"expired"`
}
