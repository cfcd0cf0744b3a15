package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"dentalcare-functions/internal/usecase"
)

type ChatOpener interface {
	Open(ctx context.Context, in usecase.Request) (io.ReadCloser, error)
}

// ChatHandler serves a RESPONSE_STREAM Function URL. On success the upstream
// body becomes the response body; the runtime pipes it and closes it.
type ChatHandler struct {
	uc ChatOpener
}

func NewChatHandler(uc ChatOpener) (*ChatHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &ChatHandler{uc: uc}, nil
}

func (h *ChatHandler) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (*events.LambdaFunctionURLStreamingResponse, error) {
	correlationID := CorrelationID(functionURLHeader(event))
	if resp, next := preflight(event.RequestContext.HTTP.Method, correlationID); !next {
		return streamed(resp), nil
	}
	ctx = RequestContext(ctx, usecase.FunctionChat, correlationID)

	in, err := decodeRequest(event)
	if err != nil {
		return streamed(errorResponse(ctx, correlationID, err)), nil
	}
	body, err := h.uc.Open(ctx, in)
	if err != nil {
		return streamed(errorResponse(ctx, correlationID, err)), nil
	}

	headers := responseHeaders(correlationID, "text/event-stream")
	headers["Cache-Control"] = "no-cache"
	return &events.LambdaFunctionURLStreamingResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       body,
	}, nil
}

func streamed(resp events.LambdaFunctionURLResponse) *events.LambdaFunctionURLStreamingResponse {
	return &events.LambdaFunctionURLStreamingResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       strings.NewReader(resp.Body),
	}
}
