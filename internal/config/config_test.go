package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "catalog")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "catalog")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "5000", cfg.Port)
	require.Equal(t, "3306", cfg.DBPort)
	require.Equal(t, 15*time.Minute, cfg.SessionTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RememberTTL)
	require.Equal(t, 15*time.Minute, cfg.ResetTTL)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, "token", cfg.SessionCookie)
	require.Equal(t, "http://localhost:5000", cfg.PublicBaseURL)
	require.False(t, cfg.IsProduction())
	require.False(t, cfg.SMTP.Enabled())
	require.False(t, cfg.OIDC.Enabled())
}

func TestLoad_ReportsAllMissing(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
		require.Contains(t, err.Error(), k)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("REMEMBER_TTL", "30d")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("CLIENT_URL", "https://watch.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, 30*24*time.Hour, cfg.RememberTTL)
	require.Equal(t, time.Hour, cfg.SessionTTL)
	require.Equal(t, "https://watch.example.com", cfg.ClientURL)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestParseTTL(t *testing.T) {
	cases := map[string]time.Duration{
		"7d":  7 * 24 * time.Hour,
		"0d":  0,
		"90m": 90 * time.Minute,
	}
	for in, want := range cases {
		got, ok := parseTTL(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	for _, bad := range []string{"d", "-1d", "soon"} {
		_, ok := parseTTL(bad)
		require.False(t, ok, bad)
	}
}

func TestRateLimitConfig_Normalized(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: -2, RefillInterval: 0, TTL: 0}.normalized()
	require.Equal(t, 1, c.Capacity)
	require.Equal(t, 1, c.RefillTokens)
	require.Equal(t, time.Second, c.RefillInterval)
	require.Equal(t, 5*time.Second, c.TTL)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	c := LoadCacheConfig()
	require.True(t, c.Methods["GET"])
	require.True(t, c.Methods["HEAD"])
	require.False(t, c.Methods["POST"])
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	client, err = NewRedisClient(context.Background(), RedisConfig{Disabled: true})
	require.NoError(t, err)
	require.Nil(t, client)

	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.Error(t, err)
}
