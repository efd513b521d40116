// Package vincent_verifier lets services that receive Vincent JWTs authenticate requests
// without running the Vincent service itself.
package vincent_verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/infrastructure/cache"
	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/utils"
)

// AuthResult is what an authenticated request carries.
type AuthResult = models.AuthResult

// TokenVerifier verifies a token for an audience.
type TokenVerifier interface {
	VerifyJWT(ctx context.Context, token string, audience string) (*models.VincentJWT, error)
}

// Options configures NewVerifier.
type Options struct {
	// ClockSkew is tolerated on exp, nbf and iat.
	ClockSkew time.Duration
	// CacheTTL memoises successful verifications; zero disables the cache.
	CacheTTL time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// Verifier verifies Vincent JWTs against the PKP public key they carry.
type Verifier struct {
	manager *crypto.JWTManager
	cache   *cache.VerificationCache
}

// NewVerifier creates a Verifier.
func NewVerifier(opts Options) (*Verifier, error) {
	manager, err := crypto.NewJWTManager(crypto.JWTConfig{ClockSkew: opts.ClockSkew, Now: opts.Now}, nil)
	if err != nil {
		return nil, err
	}
	v := &Verifier{manager: manager}
	if opts.CacheTTL > 0 {
		v.cache = cache.NewVerificationCache(opts.CacheTTL, opts.Now)
	}
	return v, nil
}

// VerifyJWT implements TokenVerifier. Only successful verifications are cached.
func (v *Verifier) VerifyJWT(ctx context.Context, token string, audience string) (*models.VincentJWT, error) {
	if v.cache != nil {
		if decoded, ok := v.cache.Get(audience, token); ok {
			return decoded, nil
		}
	}
	decoded, err := v.manager.VerifyJWT(ctx, token, audience)
	if err != nil {
		return nil, err
	}
	if v.cache != nil {
		v.cache.Set(audience, token, decoded)
	}
	return decoded, nil
}

// Decode returns header and payload without verifying anything.
func (v *Verifier) Decode(token string) (*models.VincentJWT, error) {
	return v.manager.DecodeJWT(token)
}

// Middleware rejects requests without a valid "Authorization: Bearer <jwt>" for audience
// with 401 {"error": "..."} and attaches the AuthResult to the request context otherwise.
func Middleware(verifier TokenVerifier, audience string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w)
				return
			}
			decoded, err := verifier.VerifyJWT(r.Context(), token, audience)
			if err != nil {
				writeUnauthorized(w)
				return
			}
			res := &AuthResult{DecodedJWT: decoded, PKPAddress: decoded.PKPAddress(), RawJWT: token}
			next.ServeHTTP(w, r.WithContext(models.ContextWithAuth(r.Context(), res)))
		})
	}
}

// FromContext returns the AuthResult attached by Middleware.
func FromContext(ctx context.Context) (*AuthResult, bool) {
	return models.AuthFromContext(ctx)
}

// ExtractJWTFromURL returns the token in the jwt query parameter of a redirect URL.
func ExtractJWTFromURL(rawURL string) (string, bool) { return utils.ExtractJWTFromURL(rawURL) }

// StripJWTFromURL removes the jwt query parameter from rawURL.
func StripJWTFromURL(rawURL string) (string, error) { return utils.StripJWTFromURL(rawURL) }

// ConsentURL builds the consent page URL for appID.
func ConsentURL(base, appID, redirectURI string) (string, error) {
	return utils.ConsentURL(base, appID, redirectURI)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], constants.BearerScheme) {
		return "", false
	}
	return parts[1], true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errors.UnauthenticatedResponse())
}
