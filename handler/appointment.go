package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"dentalcare-functions/internal/usecase"
)

type AppointmentNotifier interface {
	Notify(ctx context.Context, in usecase.Request) (usecase.AppointmentOutput, error)
}

type appointmentResponse struct {
	Success       bool                  `json:"success"`
	OwnerNotified usecase.OwnerNotified `json:"ownerNotified"`
}

type AppointmentHandler struct {
	uc AppointmentNotifier
}

func NewAppointmentHandler(uc AppointmentNotifier) (*AppointmentHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: appointment use case must not be nil")
	}
	return &AppointmentHandler{uc: uc}, nil
}

func (h *AppointmentHandler) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	correlationID := CorrelationID(functionURLHeader(event))
	if resp, next := preflight(event.RequestContext.HTTP.Method, correlationID); !next {
		return resp, nil
	}
	ctx = RequestContext(ctx, usecase.FunctionAppointment, correlationID)

	in, err := decodeRequest(event)
	if err != nil {
		return errorResponse(ctx, correlationID, err), nil
	}
	out, err := h.uc.Notify(ctx, in)
	if err != nil {
		return errorResponse(ctx, correlationID, err), nil
	}
	return jsonResponse(http.StatusOK, correlationID, appointmentResponse{
		Success:       true,
		OwnerNotified: out.OwnerNotified,
	}), nil
}
