package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const TypeAccess = "access"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents JWT token claims
type Claims struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HMAC access tokens bound to a session.
type Issuer struct {
	key   []byte
	ttl   time.Duration
	clock clockwork.Clock
}

func NewIssuer(key string, ttl time.Duration, clock clockwork.Clock) *Issuer {
	return &Issuer{key: []byte(key), ttl: ttl, clock: clock}
}

// Issue returns a signed access token and its expiry.
func (i *Issuer) Issue(userID, sessionID, role string) (string, time.Time, error) {
	now := i.clock.Now().UTC()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse checks signature, expiry and token type.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.key, nil
	}, jwt.WithTimeFunc(i.clock.Now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != TypeAccess || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
