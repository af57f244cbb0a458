package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("APP_URL", "https://shop.example.com/")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 15*time.Second, cfg.ReconcileTimeout)
	assert.Equal(t, "https://shop.example.com/store/orders?success=true", cfg.SuccessURL())
	assert.Equal(t, "https://shop.example.com/store/cart?canceled=true", cfg.CancelURL())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("RECONCILE_TIMEOUT", "500ms")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconcileTimeout)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{name: "jwt secret", unset: "JWT_SECRET", want: "JWT_SECRET is required"},
		{name: "stripe key", unset: "STRIPE_SECRET_KEY", want: "STRIPE_SECRET_KEY is required"},
		{name: "webhook secret", unset: "STRIPE_WEBHOOK_SECRET", want: "STRIPE_WEBHOOK_SECRET is required"},
		{name: "app url", unset: "APP_URL", want: "APP_URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "postgres port", key: "POSTGRES_PORT", val: "abc", want: "POSTGRES_PORT must be number"},
		{name: "provider timeout", key: "PROVIDER_TIMEOUT", val: "soon", want: "PROVIDER_TIMEOUT must be a duration"},
		{name: "negative timeout", key: "RECONCILE_TIMEOUT", val: "-1s", want: "RECONCILE_TIMEOUT must be positive"},
		{name: "currency", key: "CURRENCY", val: "dollars", want: "CURRENCY must be a 3-letter code"},
		{name: "log level", key: "LOG_LEVEL", val: "trace", want: "invalid log level"},
		{name: "log format", key: "LOG_FORMAT", val: "xml", want: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
