// Package handler adapts Lambda Function URL invocations to the clinic use cases.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"dentalcare-functions/internal/logging"
	"dentalcare-functions/internal/usecase"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	unknownClient       = "unknown"
)

// CORSHeaders are sent on every response, including errors and preflights.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	}
}

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HeaderFunc looks up a request header by canonical name.
type HeaderFunc func(name string) string

// ClientIP returns the first x-forwarded-for entry, then x-real-ip, then
// "unknown". All unattributable callers share one bucket.
func ClientIP(header HeaderFunc) string {
	if fwd := header("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(header("X-Real-Ip")); ip != "" {
		return ip
	}
	return unknownClient
}

// CorrelationID reuses the caller's X-Correlation-Id or mints a new one.
func CorrelationID(header HeaderFunc) string {
	if id := strings.TrimSpace(header(HeaderCorrelationID)); id != "" {
		return id
	}
	return newUUID()
}

var newUUID = func() string {
	return uuid.NewString()
}

// RequestContext attaches a logger carrying the correlation ID and function name.
func RequestContext(ctx context.Context, function, correlationID string) context.Context {
	l := slog.Default().With("correlation_id", correlationID, "function", function)
	return logging.WithLogger(ctx, l)
}

// ErrorStatus maps any error to its status and caller-visible body.
func ErrorStatus(err error) (int, ErrorBody) {
	ue := usecase.AsError(err)
	return ue.Code.HTTPStatus(), ErrorBody{Error: ue.Message, Code: string(ue.Code)}
}

// LogOutcome writes one line per failed request, with detail kept server-side.
func LogOutcome(ctx context.Context, err error) {
	ue := usecase.AsError(err)
	log := logging.FromContext(ctx)
	attrs := []any{"code", string(ue.Code), "reason", ue.Reason}
	if ue.Err != nil {
		attrs = append(attrs, "err", ue.Err)
	}
	if ue.Code.HTTPStatus() >= http.StatusInternalServerError {
		log.ErrorContext(ctx, "request failed", attrs...)
		return
	}
	log.InfoContext(ctx, "request rejected", attrs...)
}

// functionURLHeader looks headers up case-insensitively; Function URLs
// deliver them lower-cased but tests and proxies may not.
func functionURLHeader(event events.LambdaFunctionURLRequest) HeaderFunc {
	return func(name string) string {
		if v, ok := event.Headers[strings.ToLower(name)]; ok {
			return v
		}
		for k, v := range event.Headers {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return ""
	}
}

func eventBody(event events.LambdaFunctionURLRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	return base64.StdEncoding.DecodeString(event.Body)
}

func responseHeaders(correlationID, contentType string) map[string]string {
	h := CORSHeaders()
	h[HeaderCorrelationID] = correlationID
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h
}

func jsonResponse(status int, correlationID string, payload any) events.LambdaFunctionURLResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"An unexpected error occurred","code":"INTERNAL_ERROR"}`)
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    responseHeaders(correlationID, "application/json"),
		Body:       string(body),
	}
}

func errorResponse(ctx context.Context, correlationID string, err error) events.LambdaFunctionURLResponse {
	LogOutcome(ctx, err)
	status, body := ErrorStatus(err)
	return jsonResponse(status, correlationID, body)
}

// preflight answers OPTIONS and rejects anything but POST. ok reports
// whether the request should continue.
func preflight(method, correlationID string) (events.LambdaFunctionURLResponse, bool) {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return events.LambdaFunctionURLResponse{}, true
	case http.MethodOptions:
		return events.LambdaFunctionURLResponse{
			StatusCode: http.StatusOK,
			Headers:    responseHeaders(correlationID, ""),
		}, false
	default:
		return jsonResponse(http.StatusMethodNotAllowed, correlationID, ErrorBody{Error: "Method not allowed"}), false
	}
}

// decodeRequest turns the event into a transport-free use case request.
func decodeRequest(event events.LambdaFunctionURLRequest) (usecase.Request, error) {
	body, err := eventBody(event)
	if err != nil {
		return usecase.Request{}, &usecase.Error{
			Code:    usecase.ErrorMalformedRequest,
			Reason:  "invalid_base64",
			Message: usecase.MsgInvalidFormat,
			Err:     err,
		}
	}
	return usecase.Request{Body: body, ClientIP: ClientIP(functionURLHeader(event))}, nil
}
