package serverlite_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/internal/serverlite"
	vincent_verifier "github.com/turtacn/vincent/sdk/go/vincent_verifier"
)

const redirectURI = "https://app.example/callback?state=xyz"

func newConsentServer(t *testing.T) (*httptest.Server, *crypto.PrivateKeySigner) {
	t.Helper()
	signer, err := crypto.GeneratePrivateKeySigner()
	require.NoError(t, err)
	srv, err := serverlite.NewServer("", signer, signer.Identity(), nil)
	require.NoError(t, err)
	srv.RegisterApp(serverlite.App{ID: "7", Version: 2, RedirectURIs: []string{redirectURI}})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, signer
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func TestConsentFlow(t *testing.T) {
	ts, signer := newConsentServer(t)

	consentURL, err := vincent_verifier.ConsentURL(ts.URL, "7", redirectURI)
	require.NoError(t, err)

	resp, err := noRedirectClient().Get(consentURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location := resp.Header.Get("Location")
	token, ok := vincent_verifier.ExtractJWTFromURL(location)
	require.True(t, ok)

	stripped, err := vincent_verifier.StripJWTFromURL(location)
	require.NoError(t, err)
	assert.Equal(t, redirectURI, stripped)

	verifier, err := vincent_verifier.NewVerifier(vincent_verifier.Options{})
	require.NoError(t, err)
	decoded, err := verifier.VerifyJWT(context.Background(), token, redirectURI)
	require.NoError(t, err)
	assert.Equal(t, signer.Identity().Address, decoded.PKPAddress())

	app, ok := decoded.Payload["app"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "7", app["id"])

	_, err = verifier.VerifyJWT(context.Background(), token, "https://evil.example")
	assert.Error(t, err)
}

func TestConsentRejections(t *testing.T) {
	ts, _ := newConsentServer(t)

	tests := []struct {
		name   string
		appID  string
		uri    string
		status int
	}{
		{"unknown app", "8", redirectURI, http.StatusNotFound},
		{"unregistered redirect", "7", "https://evil.example/cb", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consentURL, err := vincent_verifier.ConsentURL(ts.URL, tt.appID, tt.uri)
			require.NoError(t, err)
			resp, err := noRedirectClient().Get(consentURL)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
