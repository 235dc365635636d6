package review

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenAuthority mints and verifies the session token handed to the review
// UI. The signing key is random per session, so tokens cannot outlive the
// process they were minted by.
type tokenAuthority struct {
	sessionID string
	key       []byte
	clock     func() time.Time
}

const tokenLifetime = 24 * time.Hour

func newTokenAuthority(sessionID string, clock func() time.Time) (tokenAuthority, error) {
	var key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return tokenAuthority{}, fmt.Errorf("generating session key: %w", err)
	}
	return tokenAuthority{sessionID: sessionID, key: key, clock: clock}, nil
}

func (a tokenAuthority) mint() (string, error) {
	var now = a.clock()
	var token = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   a.sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	})
	var signed, err = token.SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

func (a tokenAuthority) verify(token string) error {
	var claims jwt.RegisteredClaims
	var parsed, err = jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) { return a.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock),
	)
	if err != nil {
		return fmt.Errorf("verifying session token: %w", err)
	} else if !parsed.Valid || claims.Subject != a.sessionID {
		return fmt.Errorf("session token does not match this session")
	}
	return nil
}
