package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dentalcare-functions/internal/domain"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient("re_test", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
}

func testEmail() domain.OutboundEmail {
	return domain.OutboundEmail{
		From:    "DentalCare <onboarding@resend.dev>",
		To:      []string{"owner@example.com"},
		Subject: "Hello",
		HTML:    "<p>hi</p>",
		ReplyTo: "patient@example.com",
	}
}

func TestSend_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var got sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, []string{"owner@example.com"}, got.To)
		require.Equal(t, "patient@example.com", got.ReplyTo)
		require.Equal(t, "<p>hi</p>", got.HTML)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	id, err := newTestClient(t, srv).Send(context.Background(), testEmail())
	require.NoError(t, err)
	require.Equal(t, "msg_123", id)
}

func TestSend_OmitsEmptyReplyTo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, has := raw["reply_to"]
		require.False(t, has)
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	e := testEmail()
	e.ReplyTo = ""
	_, err := newTestClient(t, srv).Send(context.Background(), e)
	require.NoError(t, err)
}

func TestSend_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Send(context.Background(), testEmail())
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnprocessableEntity, statusErr.HTTPStatusCode())
	require.Contains(t, err.Error(), "invalid from")
}

func TestSend_Unconfigured(t *testing.T) {
	c := NewClient("  ")
	require.False(t, c.Configured())
	_, err := c.Send(context.Background(), testEmail())
	require.ErrorContains(t, err, "not configured")
}

func TestSend_NoRecipients(t *testing.T) {
	e := testEmail()
	e.To = nil
	_, err := NewClient("k").Send(context.Background(), e)
	require.ErrorContains(t, err, "recipient")
}

func TestSend_NetworkError(t *testing.T) {
	c := NewClient("k", WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	_, err := c.Send(context.Background(), testEmail())
	require.ErrorContains(t, err, "request failed")
}
