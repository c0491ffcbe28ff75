// Package proposal turns validated write intents into opaque tokens and
// back. A token is the only representation a proposal ever has; nothing
// is persisted between propose and commit.
package proposal

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// ErrMessage is the single message returned for every verification
// failure. Malformed input, wrong segment counts, wrong algorithm, bad
// signatures and expired tokens are indistinguishable to the caller.
const ErrMessage = "Vorschlags-Token ungültig"

// Payload is the canonical content of a proposal token.
type Payload struct {
	Intent  domain.Intent           `json:"intent"`
	Fields  domain.CommandFields    `json:"fields"`
	Context domain.ExecutionContext `json:"ctx"`
	Summary string                  `json:"summary"`
	jwt.RegisteredClaims
}

// Codec signs a payload into an opaque token and reverses that
// transformation with tamper detection.
type Codec interface {
	Issue(payload *Payload) (string, error)
	Verify(token string) (*Payload, error)
}

// New selects the codec strategy from configuration: a configured
// secret yields the HMAC-signed codec, an empty one the unsigned
// fallback for trusted internal deployments.
func New(secret string, ttl time.Duration, logger *slog.Logger) Codec {
	if secret == "" {
		if logger != nil {
			logger.Warn("no proposal secret configured, tokens are unsigned and inspectable")
		}
		return &UnsignedCodec{ttl: ttl}
	}
	return &SignedCodec{secret: []byte(secret), ttl: ttl}
}

// SignedCodec issues HMAC-SHA-256 signed tokens.
type SignedCodec struct {
	secret []byte
	ttl    time.Duration
}

// Issue stamps and signs the payload
func (c *SignedCodec) Issue(payload *Payload) (string, error) {
	stamp(payload, c.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", domain.NewStoreError("failed to sign proposal token", err)
	}
	return signed, nil
}

// Verify recomputes the MAC and rejects any mismatch with the generic
// token error, never revealing why verification failed
func (c *SignedCodec) Verify(tokenString string) (*Payload, error) {
	payload := &Payload{}
	token, err := jwt.ParseWithClaims(tokenString, payload, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, domain.NewTokenError(ErrMessage)
	}
	return payload, nil
}

// UnsignedCodec issues inspectable, unauthenticated tokens. Explicit
// weaker mode for deployments without a shared secret.
type UnsignedCodec struct {
	ttl time.Duration
}

// Issue stamps and encodes the payload without a signature
func (c *UnsignedCodec) Issue(payload *Payload) (string, error) {
	stamp(payload, c.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, payload)
	encoded, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		return "", domain.NewStoreError("failed to encode proposal token", err)
	}
	return encoded, nil
}

// Verify decodes the payload, still rejecting malformed or expired
// tokens uniformly
func (c *UnsignedCodec) Verify(tokenString string) (*Payload, error) {
	payload := &Payload{}
	token, err := jwt.ParseWithClaims(tokenString, payload, func(t *jwt.Token) (interface{}, error) {
		return jwt.UnsafeAllowNoneSignatureType, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodNone.Alg()}))
	if err != nil || !token.Valid {
		return nil, domain.NewTokenError(ErrMessage)
	}
	return payload, nil
}

// stamp sets the time claims. Any non-zero TTL produces an expiry, so a
// negative TTL yields a token that is already expired rather than one
// that never expires.
func stamp(payload *Payload, ttl time.Duration) {
	now := time.Now()
	payload.IssuedAt = jwt.NewNumericDate(now)
	if ttl != 0 {
		payload.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
}

// TokenHash returns the stable consumed-marker key for a token.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
