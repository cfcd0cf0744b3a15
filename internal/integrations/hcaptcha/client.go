// Package hcaptcha verifies CAPTCHA tokens against the hCaptcha siteverify endpoint.
package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultVerifyURL = "https://api.hcaptcha.com/siteverify"

// verifyResponse is the subset of the siteverify reply we rely on.
type verifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// HTTPStatusError captures non-2xx responses from the verifier.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("hcaptcha: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// RejectedError is returned when the provider answers but refuses the token.
type RejectedError struct {
	Codes []string
}

func (e *RejectedError) Error() string {
	if len(e.Codes) == 0 {
		return "hcaptcha: token rejected"
	}
	return "hcaptcha: token rejected: " + strings.Join(e.Codes, ",")
}

// Client calls siteverify with the server-held secret.
type Client struct {
	verifyURL  string
	secret     string
	httpClient *http.Client
}

type Option func(*Client)

func WithVerifyURL(u string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(u); s != "" {
			c.verifyURL = s
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(secret string, opts ...Option) *Client {
	c := &Client{
		verifyURL:  defaultVerifyURL,
		secret:     strings.TrimSpace(secret),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a secret is configured.
func (c *Client) Enabled() bool {
	return c.secret != ""
}

// Verify returns nil only when the provider confirms the token. Transport
// failures, non-2xx statuses, undecodable replies and refusals all return an
// error so callers can fail closed.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if !c.Enabled() {
		return errors.New("hcaptcha: secret is not configured")
	}
	if strings.TrimSpace(token) == "" {
		return &RejectedError{Codes: []string{"missing-input-response"}}
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" && remoteIP != "unknown" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("hcaptcha: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hcaptcha: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{StatusCode: res.StatusCode, URL: c.verifyURL, Body: string(buf)}
	}

	var out verifyResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&out); err != nil {
		return fmt.Errorf("hcaptcha: decode response: %w", err)
	}
	if !out.Success {
		return &RejectedError{Codes: out.ErrorCodes}
	}
	return nil
}
