// Package config builds the immutable runtime configuration once at cold start.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed clinic.yaml
var defaultProfile []byte

const (
	defaultChatModel       = "deepseek-chat"
	defaultUpstreamTimeout = 20 * time.Second
	defaultDevBindAddr     = ":8080"
)

// Parameter names under PARAM_PREFIX used when the secret env var is empty.
const (
	paramResendKey     = "resend-api-key"
	paramCaptchaSecret = "hcaptcha-secret"
	paramDeepSeekKey   = "deepseek-api-key"
)

// SecretGetter resolves Parameter Store names to values. Missing names are
// simply absent from the result.
type SecretGetter interface {
	GetParameters(ctx context.Context, names []string) (map[string]string, error)
}

// Profile is the clinic description used by e-mails, validation and the chat prompt.
type Profile struct {
	Name          string   `yaml:"name"`
	Sender        string   `yaml:"sender"`
	OwnerEmail    string   `yaml:"owner_email"`
	OwnerWhatsApp string   `yaml:"owner_whatsapp"`
	Phone         string   `yaml:"phone"`
	Hours         []string `yaml:"hours"`
	Services      []string `yaml:"services"`
	Facts         []string `yaml:"facts"`
}

type Config struct {
	ResendAPIKey   string
	CaptchaSecret  string
	DeepSeekAPIKey string

	OwnerEmail    string
	OwnerWhatsApp string
	EmailFrom     string

	ChatModel        string
	ChatBaseURL      string
	CaptchaVerifyURL string
	ResendBaseURL    string
	UpstreamTimeout  time.Duration
	RateLimitTable   string
	ParamPrefix      string
	LogLevel         string
	LogFormat        string
	DevBindAddr      string
	Profile          Profile
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

// Load reads configuration from the process environment. secrets may be nil
// when no Parameter Store client is available.
func Load(ctx context.Context, secrets SecretGetter) (Config, error) {
	return load(ctx, os.LookupEnv, os.ReadFile, secrets)
}

func load(ctx context.Context, lookup LookupFunc, readFile func(string) ([]byte, error), secrets SecretGetter) (Config, error) {
	env := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	raw := defaultProfile
	if path := env("CLINIC_PROFILE_PATH"); path != "" {
		b, err := readFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read clinic profile: %w", err)
		}
		raw = b
	}
	profile, err := ParseProfile(raw)
	if err != nil {
		return Config{}, err
	}

	timeout := defaultUpstreamTimeout
	if v := env("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: UPSTREAM_TIMEOUT must be a positive duration, got %q", v)
		}
		timeout = d
	}

	cfg := Config{
		ResendAPIKey:     env("RESEND_API_KEY"),
		CaptchaSecret:    env("HCAPTCHA_SECRET_KEY"),
		DeepSeekAPIKey:   env("DEEPSEEK_API_KEY"),
		OwnerEmail:       firstNonEmpty(env("OWNER_EMAIL"), profile.OwnerEmail),
		OwnerWhatsApp:    firstNonEmpty(env("OWNER_WHATSAPP"), profile.OwnerWhatsApp),
		EmailFrom:        firstNonEmpty(env("EMAIL_FROM"), profile.Sender),
		ChatModel:        firstNonEmpty(env("CHAT_MODEL"), defaultChatModel),
		ChatBaseURL:      env("CHAT_BASE_URL"),
		CaptchaVerifyURL: env("HCAPTCHA_VERIFY_URL"),
		ResendBaseURL:    env("RESEND_BASE_URL"),
		UpstreamTimeout:  timeout,
		RateLimitTable:   env("RATE_LIMIT_TABLE"),
		ParamPrefix:      strings.TrimRight(env("PARAM_PREFIX"), "/"),
		LogLevel:         env("LOG_LEVEL"),
		LogFormat:        env("LOG_FORMAT"),
		DevBindAddr:      firstNonEmpty(env("DEV_BIND_ADDR"), defaultDevBindAddr),
		Profile:          profile,
	}

	if cfg.ParamPrefix != "" && secrets != nil {
		cfg.fillSecrets(ctx, secrets)
	}
	return cfg, nil
}

// fillSecrets resolves empty secrets from Parameter Store. A lookup failure
// leaves them empty; the functions then report themselves unavailable.
func (c *Config) fillSecrets(ctx context.Context, secrets SecretGetter) {
	targets := map[string]*string{
		c.ParamPrefix + "/" + paramResendKey:     &c.ResendAPIKey,
		c.ParamPrefix + "/" + paramCaptchaSecret: &c.CaptchaSecret,
		c.ParamPrefix + "/" + paramDeepSeekKey:   &c.DeepSeekAPIKey,
	}
	var names []string
	for _, name := range []string{
		c.ParamPrefix + "/" + paramResendKey,
		c.ParamPrefix + "/" + paramCaptchaSecret,
		c.ParamPrefix + "/" + paramDeepSeekKey,
	} {
		if *targets[name] == "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}

	values, err := secrets.GetParameters(ctx, names)
	if err != nil {
		slog.WarnContext(ctx, "secret lookup failed", "prefix", c.ParamPrefix, "err", err)
		return
	}
	for _, name := range names {
		if v := strings.TrimSpace(values[name]); v != "" {
			*targets[name] = v
		} else {
			slog.WarnContext(ctx, "secret not found in parameter store", "name", name)
		}
	}
}

// ParseProfile decodes a clinic profile document.
func ParseProfile(raw []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("config: parse clinic profile: %w", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return Profile{}, fmt.Errorf("config: clinic profile: name is required")
	}
	return p, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
