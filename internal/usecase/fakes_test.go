package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"dentalcare-functions/internal/domain"
	"dentalcare-functions/internal/ratelimit"
)

type spyMailer struct {
	mu         sync.Mutex
	configured bool
	failTo     map[string]error
	sent       []domain.OutboundEmail
	calls      int
}

func newSpyMailer() *spyMailer { return &spyMailer{configured: true, failTo: map[string]error{}} }

func (m *spyMailer) Configured() bool { return m.configured }

func (m *spyMailer) Send(_ context.Context, email domain.OutboundEmail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.failTo[email.To[0]]; ok {
		return "", err
	}
	m.sent = append(m.sent, email)
	return "email-id", nil
}

func (m *spyMailer) sentTo(addr string) (domain.OutboundEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.sent {
		if e.To[0] == addr {
			return e, true
		}
	}
	return domain.OutboundEmail{}, false
}

type fakeCaptcha struct {
	enabled bool
	err     error
	calls   int
	token   string
	ip      string
}

func (c *fakeCaptcha) Enabled() bool { return c.enabled }

func (c *fakeCaptcha) Verify(_ context.Context, token, remoteIP string) error {
	c.calls++
	c.token = token
	c.ip = remoteIP
	return c.err
}

type fakeStreamer struct {
	configured bool
	body       string
	err        error
	calls      int
	messages   []domain.ChatMessage
}

func (s *fakeStreamer) Configured() bool { return s.configured }

func (s *fakeStreamer) ChatStream(_ context.Context, messages []domain.ChatMessage) (io.ReadCloser, error) {
	s.calls++
	s.messages = messages
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

// fakeLimiter admits the first n calls per key.
type fakeLimiter struct {
	limit int
	err   error
	seen  map[string]int
	keys  []string
}

func newFakeLimiter(limit int) *fakeLimiter { return &fakeLimiter{limit: limit, seen: map[string]int{}} }

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	if l.seen[key] >= l.limit {
		return false, nil
	}
	l.seen[key]++
	return true, nil
}

var _ ratelimit.Limiter = (*fakeLimiter)(nil)

type spyRecorder struct {
	mu       sync.Mutex
	requests []string
	limited  []string
	captcha  []string
	emails   []string
	upstream []int
}

func (r *spyRecorder) Request(function, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, function+":"+outcome)
}

func (r *spyRecorder) RateLimited(policy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limited = append(r.limited, policy)
}

func (r *spyRecorder) Captcha(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captcha = append(r.captcha, result)
}

func (r *spyRecorder) EmailSent(kind, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, kind+":"+result)
}

func (r *spyRecorder) ChatUpstream(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upstream = append(r.upstream, status)
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return "upstream status" }
func (e *statusErr) HTTPStatusCode() int { return e.code }

var errBoom = errors.New("boom")

func testClinic() Clinic {
	return Clinic{
		Name:          "DentalCare",
		From:          "DentalCare <onboarding@resend.dev>",
		OwnerEmail:    "owner@dentalcare.test",
		OwnerWhatsApp: "923241572018",
		Phone:         "03241572018",
		Hours:         []string{"Monday - Saturday: 9:00 AM - 9:00 PM"},
		Services:      []string{"Teeth Cleaning", "Root Canal"},
		Facts:         []string{"Walk-ins welcome."},
	}
}

func expectError(t *testing.T, err error, code ErrorCode, message string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, message, usecaseErr.Message)
}
