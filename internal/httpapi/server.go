// Package httpapi serves the three clinic functions from one long-running
// HTTP process, for local development and container deployments.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dentalcare-functions/handler"
	"dentalcare-functions/internal/logging"
	"dentalcare-functions/internal/usecase"
)

const (
	PathAppointment = "/functions/v1/send-appointment-notification"
	PathContact     = "/functions/v1/send-contact-message"
	PathChat        = "/functions/v1/ai-chat"

	maxBodyBytes = 4 << 20
	relayChunk   = 4 << 10
)

type Server struct {
	appointment handler.AppointmentNotifier
	contact     handler.ContactSender
	chat        handler.ChatOpener
	metrics     http.Handler
}

// New builds the server. metrics may be nil, in which case /metrics is not mounted.
func New(appointment handler.AppointmentNotifier, contact handler.ContactSender, chat handler.ChatOpener, metrics http.Handler) (*Server, error) {
	if appointment == nil || contact == nil || chat == nil {
		return nil, errors.New("httpapi: use cases must not be nil")
	}
	return &Server{appointment: appointment, contact: contact, chat: chat, metrics: metrics}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(cors)
		for _, path := range []string{PathAppointment, PathContact, PathChat} {
			r.Options(path, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}
		r.Post(PathAppointment, s.handleAppointment)
		r.Post(PathContact, s.handleContact)
		r.Post(PathChat, s.handleChat)
	})
	r.MethodNotAllowed(cors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, handler.ErrorBody{Error: "Method not allowed"})
	})).ServeHTTP)
	return r
}

// cors sets the permissive CORS headers and the correlation ID before any
// handler runs, so every terminal state carries them.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range handler.CORSHeaders() {
			w.Header().Set(k, v)
		}
		w.Header().Set(handler.HeaderCorrelationID, handler.CorrelationID(r.Header.Get))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := handler.RequestContext(r.Context(), usecase.FunctionAppointment, w.Header().Get(handler.HeaderCorrelationID))
	in, err := readRequest(w, r)
	if err == nil {
		var out usecase.AppointmentOutput
		if out, err = s.appointment.Notify(ctx, in); err == nil {
			respondJSON(w, http.StatusOK, map[string]any{"success": true, "ownerNotified": out.OwnerNotified})
			return
		}
	}
	handler.LogOutcome(ctx, err)
	respondError(w, err)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx := handler.RequestContext(r.Context(), usecase.FunctionContact, w.Header().Get(handler.HeaderCorrelationID))
	in, err := readRequest(w, r)
	if err == nil {
		if err = s.contact.Send(ctx, in); err == nil {
			respondJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	handler.LogOutcome(ctx, err)
	respondError(w, err)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := handler.RequestContext(r.Context(), usecase.FunctionChat, w.Header().Get(handler.HeaderCorrelationID))
	in, err := readRequest(w, r)
	if err != nil {
		handler.LogOutcome(ctx, err)
		respondError(w, err)
		return
	}
	body, err := s.chat.Open(ctx, in)
	if err != nil {
		handler.LogOutcome(ctx, err)
		respondError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := relay(w, body); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "chat relay ended early", "err", err)
	}
}

// relay copies src to w chunk by chunk, flushing after each write so the
// caller sees tokens as the provider emits them.
func relay(w http.ResponseWriter, src io.Reader) error {
	rc := http.NewResponseController(w)
	buf := make([]byte, relayChunk)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func readRequest(w http.ResponseWriter, r *http.Request) (usecase.Request, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return usecase.Request{}, &usecase.Error{
			Code:    usecase.ErrorMalformedRequest,
			Reason:  "body_read_failed",
			Message: usecase.MsgInvalidFormat,
			Err:     err,
		}
	}
	return usecase.Request{Body: body, ClientIP: handler.ClientIP(r.Header.Get)}, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	status, body := handler.ErrorStatus(err)
	respondJSON(w, status, body)
}
