package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GATEWAY_KEY_ID", "rzp_test_key")
	t.Setenv("GATEWAY_KEY_SECRET", "super-secret-value")
}

func TestLoadEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadEnv()
	require.NoError(t, err)

	require.Equal(t, "checkout-service", cfg.App.Name)
	require.Equal(t, "local", cfg.Env)
	require.Equal(t, "8080", cfg.HTTP.Port)
	require.Equal(t, 20*time.Second, cfg.HTTP.RequestTimeout)
	require.Equal(t, "https://api.razorpay.com", cfg.Gateway.BaseURL)
	require.Equal(t, "INR", cfg.Gateway.Currency)
	require.Equal(t, time.Hour, cfg.Pending.TTL)
	require.Equal(t, 24*time.Hour, cfg.Webhook.DedupTTL)
	require.Equal(t, int64(1<<20), cfg.Webhook.MaxBodyBytes)
	require.False(t, cfg.Kafka.Enabled)
	require.Equal(t, "checkout.payments", cfg.Kafka.EventsTopic)
}

func TestLoadEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PENDING_TTL", "30m")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := LoadEnv()
	require.NoError(t, err)

	require.Equal(t, 30*time.Minute, cfg.Pending.TTL)
	require.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Notify.WebhookURL)
	require.True(t, cfg.Kafka.Enabled)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadEnv_ValidationErrors(t *testing.T) {
	testCases := []struct {
		desc    string
		env     map[string]string
		wantErr string
	}{
		{
			desc:    "MissingKeyID",
			env:     map[string]string{"GATEWAY_KEY_ID": ""},
			wantErr: "Config.Gateway.KeyID",
		},
		{
			desc:    "BadCurrency",
			env:     map[string]string{"GATEWAY_CURRENCY": "RUPEES"},
			wantErr: "Config.Gateway.Currency",
		},
		{
			desc:    "KafkaWithoutBrokers",
			env:     map[string]string{"KAFKA_ENABLED": "true"},
			wantErr: "Config.Kafka.Brokers",
		},
		{
			desc:    "UnknownEnv",
			env:     map[string]string{"ENV": "qa"},
			wantErr: "Config.Env",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadEnv()
			require.Error(t, err)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestValidate_RedactsSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATEWAY_BASE_URL", "not a url")

	cfg, err := LoadEnv()
	require.Error(t, err)
	require.Nil(t, cfg)
	require.NotContains(t, err.Error(), "super-secret-value")

	t.Setenv("GATEWAY_BASE_URL", "https://api.razorpay.com")
	t.Setenv("GATEWAY_KEY_SECRET", "")

	_, err = LoadEnv()
	require.Error(t, err)
	require.ErrorContains(t, err, "Config.Gateway.KeySecret=<redacted>")
}

func TestLoadPath(t *testing.T) {
	setRequiredEnv(t)

	_, err := LoadPath("")
	require.ErrorIs(t, err, errConfigPathEmpty)

	_, err = LoadPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "does not exist")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: dev
http:
  port: "9000"
gateway:
  key_id: rzp_test_from_file
  key_secret: file-secret
pending:
  ttl: 45m
`), 0o600))

	cfg, err := LoadPath(path)
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "9000", cfg.HTTP.Port)
	require.Equal(t, 45*time.Minute, cfg.Pending.TTL)
}
