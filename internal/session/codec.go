package session

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Decode failure classes.
var (
	ErrTokenMalformed = errors.New("session token malformed")
	ErrTokenSignature = errors.New("session token signature invalid")
	ErrTokenExpired   = errors.New("session token expired")
)

// Codec signs and verifies session tokens. Side-effect free; the secret is
// injected so tests can use distinct secrets per case.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a codec with the given signing secret and outer token TTL.
// The outer TTL is independent of the inner access-token expiry: it bounds
// how long silent refresh remains possible.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type tokenClaims struct {
	Session Claims `json:"session"`
	jwt.RegisteredClaims
}

// Encode signs the claims into an opaque token string.
func (cd *Codec) Encode(c *Claims) (string, error) {
	now := cd.now()
	payload := &tokenClaims{
		Session: *c,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cd.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString(cd.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode verifies the token and returns its claims. Failures are classified
// as malformed, bad signature, or expired.
func (cd *Codec) Decode(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return cd.secret, nil
	}, jwt.WithTimeFunc(cd.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	payload, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	claims := payload.Session
	if err := validate(&claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// validate enforces the structural invariants a well-formed token carries.
func validate(c *Claims) error {
	if !c.Role.Valid() {
		return fmt.Errorf("%w: unknown role code %d", ErrTokenMalformed, c.Role)
	}
	if c.Impersonating != (c.Original != nil) {
		return fmt.Errorf("%w: impersonation flag and nested session disagree", ErrTokenMalformed)
	}
	if c.Original != nil && !c.Original.Role.Valid() {
		return fmt.Errorf("%w: unknown nested role code %d", ErrTokenMalformed, c.Original.Role)
	}
	return nil
}
