package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/turtacn/vincent/pkg/constants"
)

// ExtractJWTFromURL returns the token carried in the jwt query parameter of rawURL.
func ExtractJWTFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	token := u.Query().Get(constants.JWTQueryParam)
	return token, token != ""
}

// StripJWTFromURL removes the jwt query parameter and keeps everything else, so the
// token does not linger in history or referrers.
func StripJWTFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	q := u.Query()
	if !q.Has(constants.JWTQueryParam) {
		return rawURL, nil
	}
	q.Del(constants.JWTQueryParam)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ConsentURL builds {base}/appId/{appID}/consent?redirectUri={redirectURI}.
func ConsentURL(base, appID, redirectURI string) (string, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return "", fmt.Errorf("app id is required")
	}
	if _, err := url.ParseRequestURI(redirectURI); err != nil {
		return "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid consent base url: %w", err)
	}
	u.RawPath = u.EscapedPath() + fmt.Sprintf(constants.ConsentPathTemplate, url.PathEscape(appID))
	u.Path += fmt.Sprintf(constants.ConsentPathTemplate, appID)
	u.RawQuery = url.Values{constants.RedirectURIQueryParam: {redirectURI}}.Encode()
	return u.String(), nil
}
