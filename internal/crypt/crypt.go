package crypt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Every payload crossing the boundary between this service and the document
// server (editor configs, callback URLs, download URLs) is wrapped in a JWT
// signed with the shared secret. Nothing carrying such a payload is trusted
// unsigned.

var (
	// ErrInvalidToken is returned for any signature, structure or claim
	// failure while decoding a token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoSecret is returned when the codec was constructed without a
	// shared secret. Signing and verification are impossible in that state.
	ErrNoSecret = errors.New("document server secret is not configured")
)

// Codec signs and verifies compact payloads with the site-wide shared secret.
// The secret is injected at construction; rotating it invalidates every
// previously issued token.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec bound to the given shared secret. An empty secret
// is allowed at construction (the service may start unconfigured) but every
// encode/decode call will fail until a secret is set.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Configured reports whether a shared secret is present.
func (c *Codec) Configured() bool {
	return len(c.secret) > 0
}

// EncodeAndSign serializes the payload and signs it with HS256, returning a
// compact string safe for URL embedding.
func (c *Codec) EncodeAndSign(payload map[string]interface{}) (string, error) {
	if !c.Configured() {
		return "", ErrNoSecret
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(payload))
	s, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return s, nil
}

// Decode verifies the token signature and returns the embedded payload.
// Signature mismatch, malformed structure, an unexpected signing method and
// an expired `exp` claim (when one is present) all map to ErrInvalidToken.
func (c *Codec) Decode(token string) (map[string]interface{}, error) {
	if !c.Configured() {
		return nil, ErrNoSecret
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return map[string]interface{}(claims), nil
}
