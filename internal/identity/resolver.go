package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "go-gin-event-tickets/pkg/app_errors"
)

// Identity is what a verified credential tells us about the caller.
type Identity struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Verifier checks a raw credential and extracts the caller identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// Resolver extracts the authenticated username from an opaque credential.
// Malformed or unauthenticated credentials fail with apperrors.ErrUnauthorized.
type Resolver interface {
	ResolveUsername(ctx context.Context, credential string) (string, error)
}

type verifierResolver struct {
	verifier Verifier
}

func NewResolver(v Verifier) Resolver {
	return &verifierResolver{verifier: v}
}

func (r *verifierResolver) ResolveUsername(ctx context.Context, credential string) (string, error) {
	id, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		return "", err
	}
	return id.Username, nil
}

// ExtractBearer pulls the token out of an "Authorization: Bearer {token}" header value.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: authorization header is missing", apperrors.ErrUnauthorized)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: authorization header format must be 'Bearer {token}'", apperrors.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}

// usernameFromClaims reads claim, falling back to the subject.
func usernameFromClaims(claims map[string]any, claim string) (string, error) {
	if claim != "" {
		if v, ok := claims[claim].(string); ok && v != "" {
			return v, nil
		}
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("%w: username claim not found in token", apperrors.ErrUnauthorized)
}

func unauthorized(err error) error {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
}
