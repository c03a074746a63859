package domain

import "context"

const (
	CartTokenHeader   = "Cart-Token"
	NonceHeader       = "Nonce"
	LegacyNonceHeader = "X-WC-Store-API-Nonce"
)

// Session is the per-request view of the storefront session: the cart token
// the upstream issued and the anti-forgery nonce required for cart mutations.
type Session struct {
	CartToken string
	Nonce     string
}

// Merge returns s updated with any non-empty values from next.
func (s Session) Merge(next Session) Session {
	if next.CartToken != "" {
		s.CartToken = next.CartToken
	}
	if next.Nonce != "" {
		s.Nonce = next.Nonce
	}
	return s
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached to ctx, or an empty one.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}

type NonceStore interface {
	Get(cartToken string) (string, bool)
	Set(cartToken, nonce string)
}
