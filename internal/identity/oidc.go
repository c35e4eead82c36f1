package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier checks tokens against an OpenID Connect issuer's published keys.
type OIDCVerifier struct {
	verifier      *oidc.IDTokenVerifier
	usernameClaim string
}

func NewOIDCVerifier(ctx context.Context, issuer, clientID, usernameClaim string) (*OIDCVerifier, error) {
	if issuer == "" {
		return nil, errors.New("oidc issuer is required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{
			ClientID:          clientID,
			SkipClientIDCheck: clientID == "",
		}),
		usernameClaim: usernameClaim,
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	token, err := v.verifier.Verify(ctx, credential)
	if err != nil {
		return Identity{}, unauthorized(err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return Identity{}, unauthorized(err)
	}

	username, err := usernameFromClaims(claims, v.usernameClaim)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Username: username, ExpiresAt: token.Expiry}, nil
}
