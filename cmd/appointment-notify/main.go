package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"dentalcare-functions/handler"
	"dentalcare-functions/internal/app"
)

func main() {
	ctx := context.Background()

	a, err := app.Bootstrap(ctx, nil)
	if err != nil {
		slog.Error("failed to bootstrap", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewAppointmentHandler(a.Appointment)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
