// Package app wires configuration, gateway clients, rate limiters and use
// cases. Every binary under cmd/ starts here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"dentalcare-functions/internal/config"
	"dentalcare-functions/internal/integrations/deepseek"
	"dentalcare-functions/internal/integrations/hcaptcha"
	"dentalcare-functions/internal/integrations/paramstore"
	"dentalcare-functions/internal/integrations/resend"
	"dentalcare-functions/internal/logging"
	"dentalcare-functions/internal/observability"
	"dentalcare-functions/internal/ratelimit"
	"dentalcare-functions/internal/repository"
	"dentalcare-functions/internal/usecase"
)

type App struct {
	Config      config.Config
	Metrics     *observability.Metrics
	Appointment *usecase.AppointmentService
	Contact     *usecase.ContactService
	Chat        *usecase.ChatService
}

// Bootstrap loads configuration from the environment, installs the default
// logger and builds every use case. AWS clients are only created when
// PARAM_PREFIX or RATE_LIMIT_TABLE asks for them.
func Bootstrap(ctx context.Context, metrics *observability.Metrics) (*App, error) {
	var (
		awsCfg  aws.Config
		secrets config.SecretGetter
		haveAWS bool
	)
	if os.Getenv("PARAM_PREFIX") != "" || os.Getenv("RATE_LIMIT_TABLE") != "" {
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg, haveAWS = c, true

		store, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		secrets = store
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout))

	var counter ratelimit.Counter
	if cfg.RateLimitTable != "" && haveAWS {
		repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.RateLimitTable)
		if err != nil {
			return nil, fmt.Errorf("app: create rate limit store: %w", err)
		}
		counter = repo
	}
	return Build(cfg, counter, metrics)
}

// Build assembles the use cases from an already loaded configuration. A nil
// counter selects in-process rate limiting.
func Build(cfg config.Config, counter ratelimit.Counter, metrics *observability.Metrics) (*App, error) {
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	newLimiter := func(p ratelimit.Policy) (ratelimit.Limiter, error) {
		if counter != nil {
			return ratelimit.NewShared(p, counter)
		}
		return ratelimit.NewFixedWindow(p)
	}
	limiters := map[string]ratelimit.Limiter{}
	for _, p := range []ratelimit.Policy{ratelimit.AppointmentByIP, ratelimit.AppointmentByEmail, ratelimit.ContactByIP, ratelimit.ChatByIP} {
		l, err := newLimiter(p)
		if err != nil {
			return nil, fmt.Errorf("app: rate limiter %s: %w", p.Name, err)
		}
		limiters[p.Name] = l
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	mailer := resend.NewClient(cfg.ResendAPIKey, resend.WithBaseURL(cfg.ResendBaseURL), resend.WithHTTPClient(httpClient))
	captcha := hcaptcha.NewClient(cfg.CaptchaSecret, hcaptcha.WithVerifyURL(cfg.CaptchaVerifyURL), hcaptcha.WithHTTPClient(httpClient))
	chat := deepseek.NewClient(cfg.DeepSeekAPIKey,
		deepseek.WithBaseURL(cfg.ChatBaseURL),
		deepseek.WithModel(cfg.ChatModel),
		deepseek.WithHTTPClient(deepseek.NewStreamingHTTPClient(cfg.UpstreamTimeout)),
	)

	clinic := ClinicFromConfig(cfg)
	rec := usecase.WithRecorder(metrics)

	appointment, err := usecase.NewAppointmentService(
		limiters[ratelimit.AppointmentByIP.Name],
		limiters[ratelimit.AppointmentByEmail.Name],
		captcha, mailer, clinic, rec,
	)
	if err != nil {
		return nil, err
	}
	contact, err := usecase.NewContactService(limiters[ratelimit.ContactByIP.Name], mailer, clinic, rec)
	if err != nil {
		return nil, err
	}
	chatSvc, err := usecase.NewChatService(limiters[ratelimit.ChatByIP.Name], chat, clinic, rec)
	if err != nil {
		return nil, err
	}

	slog.Info("functions configured",
		"email_configured", mailer.Configured(),
		"captcha_enabled", captcha.Enabled(),
		"chat_configured", chat.Configured(),
		"shared_rate_limits", counter != nil,
	)
	return &App{
		Config:      cfg,
		Metrics:     metrics,
		Appointment: appointment,
		Contact:     contact,
		Chat:        chatSvc,
	}, nil
}

// ClinicFromConfig merges the profile with the owner overrides from the environment.
func ClinicFromConfig(cfg config.Config) usecase.Clinic {
	p := cfg.Profile
	return usecase.Clinic{
		Name:          p.Name,
		From:          cfg.EmailFrom,
		OwnerEmail:    strings.TrimSpace(cfg.OwnerEmail),
		OwnerWhatsApp: strings.TrimSpace(cfg.OwnerWhatsApp),
		Phone:         p.Phone,
		Hours:         p.Hours,
		Services:      p.Services,
		Facts:         p.Facts,
	}
}
