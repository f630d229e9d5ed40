package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of an issued session token.
const SessionTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration    // zero means SessionTTL
	Now    func() time.Time // zero means time.Now
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JWTer) ttl() time.Duration {
	if j.TTL > 0 {
		return j.TTL
	}
	return SessionTTL
}

// Issue signs a token whose subject is uid.
func (j *JWTer) Issue(uid string) (string, error) {
	if uid == "" {
		return "", errors.New("issue token: empty subject")
	}
	now := j.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    j.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Parse validates signature, algorithm, issuer and expiry, and returns the
// detailed error. Callers outside logging should use Verify.
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid && c.Subject != "" {
		return c, nil
	}
	return nil, ErrInvalidToken
}

// Verify returns the subject of a valid token. Malformed, tampered and
// expired tokens are all reported the same way.
func (j *JWTer) Verify(tokenStr string) (string, bool) {
	if tokenStr == "" {
		return "", false
	}
	c, err := j.Parse(tokenStr)
	if err != nil {
		return "", false
	}
	return c.Subject, true
}
