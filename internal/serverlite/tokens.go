package serverlite

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/constants"
)

// issueConsentToken signs a token whose audience is the redirect URI the app asked for.
func (s *Server) issueConsentToken(ctx context.Context, app App, redirectURI string) (string, error) {
	return s.jwt.CreateSignedJWT(ctx, service.CreateJWTConfig{
		Signer:           s.signer,
		SignerIdentity:   s.identity,
		ExpiresInMinutes: s.lifetime,
		Audience:         []string{redirectURI},
		Payload: map[string]interface{}{
			"app": map[string]interface{}{
				"id":      app.ID,
				"version": app.Version,
			},
			"authentication": map[string]interface{}{
				"type": "dev",
			},
			"jti": uuid.NewString(),
		},
	})
}

// redirectWithJWT appends the token to redirectURI's query.
func redirectWithJWT(redirectURI, token string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	q := u.Query()
	q.Set(constants.JWTQueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
