package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()
	loaded = false
	cfg = AppConfig{}
	t.Cleanup(func() {
		loaded = false
		cfg = AppConfig{}
	})
}

func TestRedirectBaseFollowsAppPort(t *testing.T) {
	resetConfig(t)
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("APP_PORT", "9191")
	t.Setenv("OAUTH_REDIRECT_BASE", "")

	got := Load()
	require.Equal(t, "http://127.0.0.1:9191", got.OAuthRedirectBase)
}

func TestRedirectBaseExplicitOverride(t *testing.T) {
	resetConfig(t)
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("APP_PORT", "")
	t.Setenv("OAUTH_REDIRECT_BASE", "https://soc.internal:8443")

	got := Load()
	require.Equal(t, "https://soc.internal:8443", got.OAuthRedirectBase)
}
