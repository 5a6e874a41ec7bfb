package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_Defaults(t *testing.T) {
	t.Setenv("PRODUCTION_ORIGIN", "https://portfolio.example.com")

	cfg, err := readConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "/contact", cfg.ContactPath)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, time.Hour, cfg.RateWindow)
	assert.Equal(t, 100, cfg.NameMax)
	assert.Equal(t, 254, cfg.EmailMax)
	assert.Equal(t, 5000, cfg.MessageMax)
	assert.Equal(t, "CF-Connecting-IP", cfg.ClientIPHeader)
	assert.True(t, cfg.TrustXFF)
	assert.Equal(t, backendRedis, cfg.KVBackend)
	assert.Equal(t, backendRedis, cfg.SubmissionBackend, "segue KV_BACKEND")
	assert.Equal(t, 10*time.Second, cfg.TurnstileTimeout)
	assert.Equal(t, ":9090", cfg.MetricsAddr)

	d := cfg.domainConfig()
	assert.Equal(t, "pages.dev", d.PreviewDomain)
	assert.Equal(t, 5000, d.Limits.MessageMax)
}

func TestReadConfig_RequiresProductionOrigin(t *testing.T) {
	t.Setenv("PRODUCTION_ORIGIN", "")

	_, err := readConfig()
	assert.ErrorContains(t, err, "PRODUCTION_ORIGIN")
}

func TestReadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PRODUCTION_ORIGIN", "https://portfolio.example.com")
	t.Setenv("KV_BACKEND", "Memory")
	t.Setenv("SUBMISSION_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/contact")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_WINDOW", "30m")
	t.Setenv("TRUST_XFF", "false")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("TURNSTILE_BYPASS", "TRUE")

	cfg, err := readConfig()
	require.NoError(t, err)

	assert.Equal(t, backendMemory, cfg.KVBackend)
	assert.Equal(t, backendPostgres, cfg.SubmissionBackend)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, 30*time.Minute, cfg.RateWindow)
	assert.False(t, cfg.TrustXFF)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, "TRUE", cfg.TurnstileBypass, "valor cru; só \"true\" liga o bypass")
}

func TestReadConfig_MalformedValuesKeepDefault(t *testing.T) {
	t.Setenv("PRODUCTION_ORIGIN", "https://portfolio.example.com")
	t.Setenv("RATE_LIMIT", "five")
	t.Setenv("RATE_WINDOW", "soon")

	cfg, err := readConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, time.Hour, cfg.RateWindow)
}

func TestReadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
production_origin: https://yaml.example.com
kv_backend: memory
rate_limit: 3
rate_window: 2h
turnstile_timeout: 5s
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PRODUCTION_ORIGIN", "")
	t.Setenv("RATE_LIMIT", "7")

	cfg, err := readConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://yaml.example.com", cfg.ProductionOrigin)
	assert.Equal(t, backendMemory, cfg.KVBackend)
	assert.Equal(t, backendMemory, cfg.SubmissionBackend)
	assert.Equal(t, 7, cfg.RateLimit, "env vence o YAML")
	assert.Equal(t, 2*time.Hour, cfg.RateWindow)
	assert.Equal(t, 5*time.Second, cfg.TurnstileTimeout)
}

func TestReadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limit: [oops"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := readConfig()
	assert.Error(t, err)
}

func TestReadConfig_BackendRequirements(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown backend", map[string]string{"KV_BACKEND": "dynamo"}, "unknown backend"},
		{"postgres without url", map[string]string{"KV_BACKEND": "postgres"}, "DATABASE_URL"},
		{"s3 without bucket", map[string]string{"KV_BACKEND": "s3"}, "S3_BUCKET"},
		{"negative concurrency", map[string]string{"CONCURRENCY_MAX": "-1"}, "CONCURRENCY_MAX"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PRODUCTION_ORIGIN", "https://portfolio.example.com")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := readConfig()
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestProductionDomainHint(t *testing.T) {
	cfg := defaultConfig()
	cfg.ProductionOrigin = "https://www.example.com"
	assert.Contains(t, cfg.productionDomainHint(), "https://*.www.example.com")

	cfg.ProductionDomain = "example.com"
	assert.Empty(t, cfg.productionDomainHint())

	cfg = defaultConfig()
	cfg.ProductionOrigin = "https://example.com"
	assert.Empty(t, cfg.productionDomainHint(), "apex: subdomínios já estão cobertos")
}
