// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/YusovID/citizen-connect/internal/apperrors"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/YusovID/citizen-connect/internal/service"
	"github.com/YusovID/citizen-connect/internal/validation"
	"github.com/YusovID/citizen-connect/pkg/logger/sl"
	"github.com/YusovID/citizen-connect/swagger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the dependencies for the HTTP server, including the logger and service interfaces.
type Server struct {
	log        *slog.Logger
	summaries  service.SummaryService
	problems   service.ProblemService
	moderation service.ModerationService
	responses  service.ResponseService
	session    config.Session
}

// NewServer creates a new instance of the HTTP server.
func NewServer(
	log *slog.Logger,
	summaries service.SummaryService,
	problems service.ProblemService,
	moderation service.ModerationService,
	responses service.ResponseService,
	session config.Session,
) *Server {
	return &Server{
		log:        log,
		summaries:  summaries,
		problems:   problems,
		moderation: moderation,
		responses:  responses,
		session:    session,
	}
}

// Routes sets up the router with all middleware and endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	swaggerHandler, err := swagger.GetHandler()
	if err != nil {
		s.log.Error("failed to get swagger handler", sl.Err(err))
	} else {
		mux.Mount("/swagger", http.StripPrefix("/swagger", swaggerHandler))
	}

	mux.Handle("/metrics", promhttp.Handler())

	mux.Get("/summary", s.GetSummary)
	mux.Get("/summary.csv", s.GetSummaryCSV)
	mux.Get("/private/summary", s.GetPrivateSummary)
	mux.Get("/ccgs/{id}/summary", s.GetCCGSummary)
	mux.Get("/organisations/{id}/summary", s.GetOrganisationSummary)
	mux.Get("/parents/{id}/dashboard", s.GetParentDashboard)
	mux.Get("/map", s.GetMap)

	mux.Post("/problems", s.PostProblem)

	mux.Group(func(r chi.Router) {
		r.Use(s.editSession)

		r.Get("/moderate/{id}", s.GetModerate)
		r.Post("/moderate/{id}", s.PostModerate)
		r.Get("/respond/{id}", s.GetRespond)
		r.Post("/respond/{id}", s.PostRespond)
	})

	return mux
}

// respond is a helper function to encode data to JSON and write it to the response.
// It centralizes setting the Content-Type header and writing the status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// respondError is a convenience wrapper around respond for sending simple error messages.
func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// decodeAndValidate is a helper that deserializes a JSON request body into a struct
// and then runs validation checks on it.
func (s *Server) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode is a helper function to decode a JSON request body.
func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperrors.InvalidArgumentError{Argument: "id", Value: raw}
	}

	return id, nil
}

// handleServiceError provides centralized error handling for all HTTP handlers.
// It logs the internal error and maps it to a user-friendly HTTP response.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op), slog.String("request_id", getRequestID(r.Context())))

	var (
		validationErr *validation.ValidationError
		staleErr      *concurrency.StaleVersionError
		filterErr     *apperrors.InvalidFilterError
		notSupportErr *apperrors.NotSupportedError
		invalidArgErr *apperrors.InvalidArgumentError
	)

	switch {
	case errors.As(err, &staleErr):
		log.Info("stale edit rejected", slog.Int64("issue_id", staleErr.IssueID))
		s.respondError(w, http.StatusConflict, staleErr.Error())
		return
	case errors.As(err, &validationErr):
		log.Info("request failed validation", sl.Err(err))
		wrappedErr := fmt.Errorf("%w: %s", apperrors.ErrValidation, validationErr.Error())
		s.respondError(w, http.StatusBadRequest, wrappedErr.Error())
		return
	}

	log.Error("service error occurred", sl.Err(err))

	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request body")
	case errors.Is(err, apperrors.ErrValidation):
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
	case errors.As(err, &filterErr):
		s.respondError(w, http.StatusBadRequest, filterErr.Error())
	case errors.As(err, &notSupportErr):
		s.respondError(w, http.StatusBadRequest, notSupportErr.Error())
	case errors.As(err, &invalidArgErr):
		s.respondError(w, http.StatusBadRequest, invalidArgErr.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "resource not found")
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// validationMessage returns the part of a wrapped validation error that
// starts at apperrors.ErrValidation, dropping operation prefixes.
func validationMessage(err error) string {
	for e := err; e != nil; {
		if u, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range u.Unwrap() {
				if inner == apperrors.ErrValidation {
					return e.Error()
				}
			}
		}

		e = errors.Unwrap(e)
	}

	return err.Error()
}
