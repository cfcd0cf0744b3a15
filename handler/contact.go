package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"dentalcare-functions/internal/usecase"
)

type ContactSender interface {
	Send(ctx context.Context, in usecase.Request) error
}

type successResponse struct {
	Success bool `json:"success"`
}

type ContactHandler struct {
	uc ContactSender
}

func NewContactHandler(uc ContactSender) (*ContactHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: contact use case must not be nil")
	}
	return &ContactHandler{uc: uc}, nil
}

func (h *ContactHandler) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	correlationID := CorrelationID(functionURLHeader(event))
	if resp, next := preflight(event.RequestContext.HTTP.Method, correlationID); !next {
		return resp, nil
	}
	ctx = RequestContext(ctx, usecase.FunctionContact, correlationID)

	in, err := decodeRequest(event)
	if err != nil {
		return errorResponse(ctx, correlationID, err), nil
	}
	if err := h.uc.Send(ctx, in); err != nil {
		return errorResponse(ctx, correlationID, err), nil
	}
	return jsonResponse(http.StatusOK, correlationID, successResponse{Success: true}), nil
}
