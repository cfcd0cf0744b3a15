package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"dentalcare-functions/internal/config"
	"dentalcare-functions/internal/observability"
	"dentalcare-functions/internal/usecase"
)

type countingCounter struct {
	keys []string
}

func (c *countingCounter) Increment(_ context.Context, key string, _ int, _ time.Duration, _ time.Time) (bool, error) {
	c.keys = append(c.keys, key)
	return true, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	profile, err := config.ParseProfile([]byte("name: DentalCare\nphone: '0300'\nservices: [Teeth Cleaning]\n"))
	require.NoError(t, err)
	return config.Config{
		OwnerEmail:      "owner@clinic.test",
		OwnerWhatsApp:   "92300",
		EmailFrom:       "DentalCare <bookings@clinic.test>",
		ChatModel:       "deepseek-chat",
		UpstreamTimeout: time.Second,
		Profile:         profile,
	}
}

func TestBuild_Unconfigured(t *testing.T) {
	a, err := Build(testConfig(t), nil, observability.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)

	// No provider keys: contact reports unavailability.
	err = a.Contact.Send(context.Background(), usecase.Request{
		Body:     []byte(`{"name":"A","email":"a@b.co","subject":"s","message":"m"}`),
		ClientIP: "1.1.1.1",
	})
	var ue *usecase.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, usecase.ErrorConfigurationMissing, ue.Code)

	_, err = a.Chat.Open(context.Background(), usecase.Request{Body: []byte(`{"messages":[{"role":"user","content":"hi"}]}`), ClientIP: "1.1.1.1"})
	require.ErrorAs(t, err, &ue)
	require.Equal(t, usecase.ErrorConfigurationMissing, ue.Code)
}

func TestBuild_SharedCounter(t *testing.T) {
	counter := &countingCounter{}
	a, err := Build(testConfig(t), counter, nil)
	require.NoError(t, err)

	_ = a.Contact.Send(context.Background(), usecase.Request{Body: []byte(`{}`), ClientIP: "1.1.1.1"})
	require.Equal(t, []string{"contact_ip#1.1.1.1"}, counter.keys)
}

func TestBuild_RequiresOwnerEmail(t *testing.T) {
	cfg := testConfig(t)
	cfg.OwnerEmail = " "
	_, err := Build(cfg, nil, nil)
	require.Error(t, err)
}

func TestClinicFromConfig(t *testing.T) {
	c := ClinicFromConfig(testConfig(t))
	require.Equal(t, "DentalCare", c.Name)
	require.Equal(t, "DentalCare <bookings@clinic.test>", c.From)
	require.Equal(t, "owner@clinic.test", c.OwnerEmail)
	require.Equal(t, []string{"Teeth Cleaning"}, c.Services)
}
