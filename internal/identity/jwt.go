package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier accepts HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret        []byte
	usernameClaim string
	parser        *jwt.Parser
}

func NewHMACVerifier(secret, usernameClaim string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &HMACVerifier{
		secret:        []byte(secret),
		usernameClaim: usernameClaim,
		parser:        jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

func (v *HMACVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, unauthorized(errors.New("empty token"))
	}

	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, unauthorized(err)
	}
	if !token.Valid {
		return Identity{}, unauthorized(errors.New("invalid token"))
	}

	username, err := usernameFromClaims(claims, v.usernameClaim)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{Username: username}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}
