package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"contact-gateway/contact"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"

	"gopkg.in/yaml.v3"
)

// config é carregada em três camadas: padrões -> CONFIG_FILE (YAML) -> env.
// As tags yaml usam os mesmos nomes das variáveis, em minúsculas.
type config struct {
	ListenAddr  string `yaml:"listen_addr"`
	ContactPath string `yaml:"contact_path"`

	ProductionOrigin string `yaml:"production_origin"`
	ProductionDomain string `yaml:"production_domain"`
	PreviewDomain    string `yaml:"preview_domain"`

	TurnstileSecret    string        `yaml:"turnstile_secret_key"`
	TurnstileBypass    string        `yaml:"turnstile_bypass"`
	TurnstileVerifyURL string        `yaml:"turnstile_verify_url"`
	TurnstileTimeout   time.Duration `yaml:"turnstile_timeout"`
	TurnstileRPS       float64       `yaml:"turnstile_rps"`
	TurnstileBurst     int           `yaml:"turnstile_burst"`

	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`

	NameMax    int `yaml:"name_max"`
	EmailMax   int `yaml:"email_max"`
	MessageMax int `yaml:"message_max"`

	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
	ClientIPHeader string `yaml:"client_ip_header"`
	TrustXFF       bool   `yaml:"trust_xff"`

	KVBackend         string `yaml:"kv_backend"`
	SubmissionBackend string `yaml:"submission_backend"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`

	DatabaseURL string `yaml:"database_url"`
	PGTable     string `yaml:"pg_table"`

	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3Prefix    string `yaml:"s3_prefix"`

	ConcurrencyMax     int           `yaml:"concurrency_max"`
	ConcurrencyTimeout time.Duration `yaml:"concurrency_timeout"`

	StatsEnabled   bool          `yaml:"stats_enabled"`
	StatsPrefix    string        `yaml:"stats_prefix"`
	StatsTTL       time.Duration `yaml:"stats_ttl"`
	StatsBucket    string        `yaml:"stats_bucket"`
	StatsTrackKeys bool          `yaml:"stats_track_keys"`

	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

const (
	backendMemory   = "memory"
	backendRedis    = "redis"
	backendPostgres = "postgres"
	backendS3       = "s3"
)

func defaultConfig() config {
	d := domain.DefaultConfig()
	return config{
		ListenAddr:         ":8080",
		ContactPath:        "/contact",
		PreviewDomain:      d.PreviewDomain,
		TurnstileVerifyURL: infra.DefaultTurnstileURL,
		TurnstileTimeout:   10 * time.Second,
		TurnstileBurst:     10,
		RateLimit:          d.RateLimit,
		RateWindow:         d.RateWindow,
		NameMax:            d.Limits.NameMax,
		EmailMax:           d.Limits.EmailMax,
		MessageMax:         d.Limits.MessageMax,
		MaxBodyBytes:       contact.DefaultMaxBodyBytes,
		ClientIPHeader:     contact.DefaultClientIPHeader,
		TrustXFF:           true,
		KVBackend:          backendRedis,
		RedisAddr:          "localhost:6379",
		PGTable:            "contact_kv",
		ConcurrencyMax:     100,
		StatsPrefix:        "contact:stats",
		StatsTTL:           24 * time.Hour,
		StatsBucket:        "minute",
		MetricsAddr:        ":9090",
		LogLevel:           "info",
	}
}

func readConfig() (config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *config) {
	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.ContactPath = getenvDefault("CONTACT_PATH", cfg.ContactPath)

	cfg.ProductionOrigin = getenvDefault("PRODUCTION_ORIGIN", cfg.ProductionOrigin)
	cfg.ProductionDomain = getenvDefault("PRODUCTION_DOMAIN", cfg.ProductionDomain)
	cfg.PreviewDomain = getenvDefault("PREVIEW_DOMAIN", cfg.PreviewDomain)

	cfg.TurnstileSecret = getenvDefault("TURNSTILE_SECRET_KEY", cfg.TurnstileSecret)
	// só o valor exato "true" liga o bypass; não normalizamos aqui.
	cfg.TurnstileBypass = getenvDefault("TURNSTILE_BYPASS", cfg.TurnstileBypass)
	cfg.TurnstileVerifyURL = getenvDefault("TURNSTILE_VERIFY_URL", cfg.TurnstileVerifyURL)
	cfg.TurnstileTimeout = getenvDurationDefault("TURNSTILE_TIMEOUT", cfg.TurnstileTimeout)
	cfg.TurnstileRPS = getenvFloatDefault("TURNSTILE_RPS", cfg.TurnstileRPS)
	cfg.TurnstileBurst = getenvIntDefault("TURNSTILE_BURST", cfg.TurnstileBurst)

	cfg.RateLimit = getenvIntDefault("RATE_LIMIT", cfg.RateLimit)
	cfg.RateWindow = getenvDurationDefault("RATE_WINDOW", cfg.RateWindow)

	cfg.NameMax = getenvIntDefault("NAME_MAX", cfg.NameMax)
	cfg.EmailMax = getenvIntDefault("EMAIL_MAX", cfg.EmailMax)
	cfg.MessageMax = getenvIntDefault("MESSAGE_MAX", cfg.MessageMax)

	cfg.MaxBodyBytes = int64(getenvIntDefault("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.ClientIPHeader = getenvDefault("CLIENT_IP_HEADER", cfg.ClientIPHeader)
	cfg.TrustXFF = getenvBoolDefault("TRUST_XFF", cfg.TrustXFF)

	cfg.KVBackend = strings.ToLower(getenvDefault("KV_BACKEND", cfg.KVBackend))
	cfg.SubmissionBackend = strings.ToLower(getenvDefault("SUBMISSION_BACKEND", cfg.SubmissionBackend))
	if cfg.SubmissionBackend == "" {
		cfg.SubmissionBackend = cfg.KVBackend
	}

	cfg.RedisAddr = getenvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenvDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvIntDefault("REDIS_DB", cfg.RedisDB)
	cfg.RedisPrefix = getenvDefault("REDIS_PREFIX", cfg.RedisPrefix)

	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.PGTable = getenvDefault("PG_TABLE", cfg.PGTable)

	cfg.S3Bucket = getenvDefault("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getenvDefault("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getenvDefault("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getenvDefault("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getenvDefault("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3Prefix = getenvDefault("S3_PREFIX", cfg.S3Prefix)

	cfg.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", cfg.ConcurrencyMax)
	cfg.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", cfg.ConcurrencyTimeout)

	cfg.StatsEnabled = getenvBoolDefault("STATS_ENABLED", cfg.StatsEnabled)
	cfg.StatsPrefix = getenvDefault("STATS_PREFIX", cfg.StatsPrefix)
	cfg.StatsTTL = getenvDurationDefault("STATS_TTL", cfg.StatsTTL)
	cfg.StatsBucket = getenvDefault("STATS_BUCKET", cfg.StatsBucket)
	cfg.StatsTrackKeys = getenvBoolDefault("STATS_TRACK_KEYS", cfg.StatsTrackKeys)

	// METRICS_ADDR="" desliga: por isso LookupEnv e não getenvDefault
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
}

func (c config) validate() error {
	if strings.TrimSpace(c.ProductionOrigin) == "" {
		return errors.New("PRODUCTION_ORIGIN is required")
	}
	if u, err := url.Parse(c.ProductionOrigin); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PRODUCTION_ORIGIN must be an absolute origin, got %q", c.ProductionOrigin)
	}
	if c.RateLimit <= 0 {
		return errors.New("RATE_LIMIT must be > 0")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	if c.NameMax <= 0 || c.EmailMax <= 0 || c.MessageMax <= 0 {
		return errors.New("NAME_MAX, EMAIL_MAX and MESSAGE_MAX must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.TurnstileTimeout <= 0 {
		return errors.New("TURNSTILE_TIMEOUT must be > 0")
	}

	for _, b := range []string{c.KVBackend, c.SubmissionBackend} {
		switch b {
		case backendMemory, backendRedis, backendPostgres, backendS3:
		default:
			return fmt.Errorf("unknown backend %q (want memory, redis, postgres or s3)", b)
		}
	}
	if c.uses(backendRedis) && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required for the redis backend")
	}
	if c.uses(backendPostgres) && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required for the postgres backend")
	}
	if c.uses(backendS3) && (c.S3Bucket == "" || c.S3Region == "") {
		return errors.New("S3_BUCKET and S3_REGION are required for the s3 backend")
	}
	if c.StatsEnabled && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required when STATS_ENABLED=true")
	}
	return nil
}

// productionDomainHint avisa quando PRODUCTION_DOMAIN não foi definido e o host da
// origem tem subdomínio: só https://*.<host inteiro> será liberado, não os irmãos
// (www.example.com não libera blog.example.com).
func (c config) productionDomainHint() string {
	if strings.TrimSpace(c.ProductionDomain) != "" {
		return ""
	}
	u, err := url.Parse(c.ProductionOrigin)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if strings.Count(host, ".") < 2 {
		return ""
	}
	return fmt.Sprintf("PRODUCTION_DOMAIN is not set; only %s and https://*.%s are allowed. Set PRODUCTION_DOMAIN to the registrable domain to allow sibling subdomains", c.ProductionOrigin, host)
}

func (c config) uses(backend string) bool {
	return c.KVBackend == backend || c.SubmissionBackend == backend
}

func (c config) domainConfig() domain.Config {
	return domain.Config{
		RateLimit:  c.RateLimit,
		RateWindow: c.RateWindow,
		Limits: domain.FieldLimits{
			NameMax:    c.NameMax,
			EmailMax:   c.EmailMax,
			MessageMax: c.MessageMax,
		},
		ProductionOrigin: c.ProductionOrigin,
		ProductionDomain: c.ProductionDomain,
		PreviewDomain:    c.PreviewDomain,
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
