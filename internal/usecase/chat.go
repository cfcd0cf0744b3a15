package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"

	"dentalcare-functions/internal/logging"
	"dentalcare-functions/internal/ratelimit"
	"dentalcare-functions/internal/validate"
)

// maxLoggedUpstreamBody bounds how much of an upstream error reaches the logs.
const maxLoggedUpstreamBody = 512

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// ChatService proxies validated conversations to the chat completion provider.
type ChatService struct {
	byIP     ratelimit.Limiter
	streamer ChatStreamer
	clinic   Clinic
	rec      Recorder
}

func NewChatService(byIP ratelimit.Limiter, streamer ChatStreamer, clinic Clinic, opts ...Option) (*ChatService, error) {
	if byIP == nil {
		return nil, errors.New("usecase: chat limiter must not be nil")
	}
	if streamer == nil {
		return nil, errors.New("usecase: chat streamer must not be nil")
	}
	o := buildOptions(opts)
	return &ChatService{byIP: byIP, streamer: streamer, clinic: clinic, rec: o.recorder}, nil
}

// Open returns the upstream event stream unread. The caller relays and closes it.
func (s *ChatService) Open(ctx context.Context, in Request) (body io.ReadCloser, err error) {
	defer func() { s.rec.Request(FunctionChat, outcome(err)) }()
	log := logging.FromContext(ctx)

	if err := admit(ctx, s.rec, s.byIP, ratelimit.ChatByIP.Name, in.ClientIP, MsgChatRateLimit); err != nil {
		return nil, err
	}

	raw, err := decodeBody(in.Body)
	if err != nil {
		return nil, err
	}
	req, err := validate.Chat(raw)
	if err != nil {
		return nil, validationError(err)
	}

	if !s.streamer.Configured() {
		log.ErrorContext(ctx, "chat provider is not configured")
		return nil, newError(ErrorConfigurationMissing, "chat_not_configured", MsgServiceUnavailable, nil)
	}

	stream, err := s.streamer.ChatStream(ctx, buildPromptMessages(s.clinic, req))
	if err != nil {
		return nil, s.upstreamError(ctx, err)
	}
	s.rec.ChatUpstream(http.StatusOK)
	log.InfoContext(ctx, "chat stream opened", "turns", len(req.Messages), "language", string(req.Language))
	return stream, nil
}

func (s *ChatService) upstreamError(ctx context.Context, err error) *Error {
	log := logging.FromContext(ctx)
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		s.rec.ChatUpstream(0)
		log.ErrorContext(ctx, "chat upstream request failed", "err", err)
		return newError(ErrorUpstream, "chat_transport_error", MsgChatError, err)
	}

	status := statusErr.HTTPStatusCode()
	s.rec.ChatUpstream(status)
	log.ErrorContext(ctx, "chat upstream returned error", "status", status, "err", truncate(err.Error(), maxLoggedUpstreamBody))

	switch status {
	case http.StatusTooManyRequests:
		return newError(ErrorUpstreamBusy, "chat_upstream_busy", MsgChatBusy, err)
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden, http.StatusServiceUnavailable:
		return newError(ErrorUpstreamUnavailable, "chat_upstream_unavailable", MsgChatUnavailable, err)
	default:
		return newError(ErrorUpstream, "chat_upstream_error", MsgChatError, err)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
