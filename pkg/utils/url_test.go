package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJWTFromURL(t *testing.T) {
	token, found := ExtractJWTFromURL("https://app.example/cb?jwt=aaa.bbb.ccc&x=1")
	assert.True(t, found)
	assert.Equal(t, "aaa.bbb.ccc", token)

	_, found = ExtractJWTFromURL("https://app.example/cb?x=1")
	assert.False(t, found)

	_, found = ExtractJWTFromURL("://bad")
	assert.False(t, found)
}

func TestStripJWTFromURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"only jwt", "https://app.example/cb?jwt=a.b.c", "https://app.example/cb"},
		{"keeps other params", "https://app.example/cb?jwt=a.b.c&tab=2", "https://app.example/cb?tab=2"},
		{"keeps fragment", "https://app.example/cb?jwt=a.b.c#top", "https://app.example/cb#top"},
		{"untouched", "https://app.example/cb?tab=2", "https://app.example/cb?tab=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripJWTFromURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsentURL(t *testing.T) {
	got, err := ConsentURL("https://dashboard.example/", "42", "https://app.example/cb?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://dashboard.example/appId/42/consent?redirectUri=https%3A%2F%2Fapp.example%2Fcb%3Fx%3D1", got)

	got, err = ConsentURL("", "42", "https://app.example/cb")
	require.NoError(t, err)
	assert.Equal(t, "/appId/42/consent?redirectUri=https%3A%2F%2Fapp.example%2Fcb", got)

	got, err = ConsentURL("https://dashboard.example", "a/b c", "https://app.example/cb")
	require.NoError(t, err)
	assert.Equal(t, "https://dashboard.example/appId/a%2Fb%20c/consent?redirectUri=https%3A%2F%2Fapp.example%2Fcb", got)

	got, err = ConsentURL("https://dashboard.example", "../admin", "https://app.example/cb")
	require.NoError(t, err)
	assert.Equal(t, "https://dashboard.example/appId/..%2Fadmin/consent?redirectUri=https%3A%2F%2Fapp.example%2Fcb", got)

	_, err = ConsentURL("https://dashboard.example", "", "https://app.example/cb")
	assert.Error(t, err)
	_, err = ConsentURL("https://dashboard.example", "42", "not a url")
	assert.Error(t, err)
}
