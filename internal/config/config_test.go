package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	values map[string]string
	err    error
	asked  []string
}

func (f *fakeSecrets) GetParameters(_ context.Context, names []string) (map[string]string, error) {
	f.asked = append(f.asked, names...)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, n := range names {
		if v, ok := f.values[n]; ok {
			out[n] = v
		}
	}
	return out, nil
}

func envOf(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func noFile(string) ([]byte, error) { return nil, errors.New("unexpected read") }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envOf(nil), noFile, nil)
	require.NoError(t, err)

	require.Equal(t, "DentalCare", cfg.Profile.Name)
	require.Equal(t, "razahaseeb410@gmail.com", cfg.OwnerEmail)
	require.Equal(t, "923241572018", cfg.OwnerWhatsApp)
	require.Equal(t, "DentalCare <onboarding@resend.dev>", cfg.EmailFrom)
	require.Equal(t, "deepseek-chat", cfg.ChatModel)
	require.Equal(t, 20*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, ":8080", cfg.DevBindAddr)
	require.Contains(t, cfg.Profile.Services, "Teeth Cleaning")
	require.Len(t, cfg.Profile.Services, 12)
	require.Empty(t, cfg.ResendAPIKey)
	require.Empty(t, cfg.CaptchaSecret)
	require.Empty(t, cfg.DeepSeekAPIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := load(context.Background(), envOf(map[string]string{
		"RESEND_API_KEY":      " re_key ",
		"HCAPTCHA_SECRET_KEY": "hc",
		"DEEPSEEK_API_KEY":    "sk",
		"OWNER_EMAIL":         "owner@clinic.test",
		"OWNER_WHATSAPP":      "15550001111",
		"CHAT_MODEL":          "deepseek-reasoner",
		"UPSTREAM_TIMEOUT":    "5s",
		"PARAM_PREFIX":        "/dentalcare/",
		"RATE_LIMIT_TABLE":    "rate-limits",
	}), noFile, nil)
	require.NoError(t, err)

	require.Equal(t, "re_key", cfg.ResendAPIKey)
	require.Equal(t, "hc", cfg.CaptchaSecret)
	require.Equal(t, "sk", cfg.DeepSeekAPIKey)
	require.Equal(t, "owner@clinic.test", cfg.OwnerEmail)
	require.Equal(t, "15550001111", cfg.OwnerWhatsApp)
	require.Equal(t, "deepseek-reasoner", cfg.ChatModel)
	require.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, "/dentalcare", cfg.ParamPrefix)
	require.Equal(t, "rate-limits", cfg.RateLimitTable)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	_, err := load(context.Background(), envOf(map[string]string{"UPSTREAM_TIMEOUT": "soon"}), noFile, nil)
	require.ErrorContains(t, err, "UPSTREAM_TIMEOUT")

	_, err = load(context.Background(), envOf(map[string]string{"UPSTREAM_TIMEOUT": "-1s"}), noFile, nil)
	require.Error(t, err)
}

func TestLoad_ProfileFile(t *testing.T) {
	read := func(path string) ([]byte, error) {
		require.Equal(t, "/etc/clinic.yaml", path)
		return []byte("name: Smile Hub\nowner_email: desk@smile.test\nservices: [Braces]\n"), nil
	}
	cfg, err := load(context.Background(), envOf(map[string]string{"CLINIC_PROFILE_PATH": "/etc/clinic.yaml"}), read, nil)
	require.NoError(t, err)
	require.Equal(t, "Smile Hub", cfg.Profile.Name)
	require.Equal(t, "desk@smile.test", cfg.OwnerEmail)
	require.Equal(t, []string{"Braces"}, cfg.Profile.Services)
}

func TestLoad_ProfileFileErrors(t *testing.T) {
	_, err := load(context.Background(), envOf(map[string]string{"CLINIC_PROFILE_PATH": "/missing"}), noFile, nil)
	require.ErrorContains(t, err, "read clinic profile")

	bad := func(string) ([]byte, error) { return []byte("services: ["), nil }
	_, err = load(context.Background(), envOf(map[string]string{"CLINIC_PROFILE_PATH": "/bad"}), bad, nil)
	require.ErrorContains(t, err, "parse clinic profile")

	nameless := func(string) ([]byte, error) { return []byte("phone: '123'\n"), nil }
	_, err = load(context.Background(), envOf(map[string]string{"CLINIC_PROFILE_PATH": "/nameless"}), nameless, nil)
	require.ErrorContains(t, err, "name is required")
}

func TestLoad_SecretsFromParameterStore(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{
		"/dc/resend-api-key":   "re_ssm",
		"/dc/deepseek-api-key": "sk_ssm",
		"/dc/hcaptcha-secret":  "hc_ssm",
	}}
	cfg, err := load(context.Background(), envOf(map[string]string{
		"PARAM_PREFIX":     "/dc",
		"DEEPSEEK_API_KEY": "sk_env",
	}), noFile, secrets)
	require.NoError(t, err)

	require.Equal(t, "re_ssm", cfg.ResendAPIKey)
	require.Equal(t, "hc_ssm", cfg.CaptchaSecret)
	require.Equal(t, "sk_env", cfg.DeepSeekAPIKey)
	require.ElementsMatch(t, []string{"/dc/resend-api-key", "/dc/hcaptcha-secret"}, secrets.asked)
}

func TestLoad_SecretLookupFailureLeavesEmpty(t *testing.T) {
	secrets := &fakeSecrets{err: errors.New("access denied")}
	cfg, err := load(context.Background(), envOf(map[string]string{"PARAM_PREFIX": "/dc"}), noFile, secrets)
	require.NoError(t, err)
	require.Empty(t, cfg.ResendAPIKey)
	require.Empty(t, cfg.DeepSeekAPIKey)
}

func TestLoad_NoPrefixSkipsParameterStore(t *testing.T) {
	secrets := &fakeSecrets{}
	_, err := load(context.Background(), envOf(nil), noFile, secrets)
	require.NoError(t, err)
	require.Empty(t, secrets.asked)
}
