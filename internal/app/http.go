package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spacetrack/api/internal/metrics"
)

const apiVersion = "1.0.0"

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        *zap.Logger
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
}

// ServerOptions configure the HTTP surface. A nil Gatherer disables /metrics.
type ServerOptions struct {
	CORSOrigin string
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
}

func NewHTTPServer(service *Service, opts ServerOptions) *HTTPServer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	corsOrigin := opts.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		log:        log,
		metrics:    opts.Metrics,
		gatherer:   opts.Gatherer,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withMiddleware)
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/", s.handleRoot)
	r.Get("/api", s.handleAPIInfo)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/missions", func(r chi.Router) {
		r.Get("/", s.handleListMissions)
		r.Post("/", s.handleCreateMission)
		r.Get("/status/{status}", s.handleMissionsByStatus)
		r.Get("/category/{category}", s.handleMissionsByCategory)
		r.Get("/{id}", s.handleGetMission)
		r.Put("/{id}", s.handleUpdateMission)
		r.Delete("/{id}", s.handleDeleteMission)
	})

	r.Route("/api/activities", func(r chi.Router) {
		r.Get("/", s.handleListActivities)
		r.Post("/", s.handleCreateActivity)
		r.Get("/mission/{missionId}", s.handleActivitiesByMission)
		r.Get("/{id}", s.handleGetActivity)
		r.Put("/{id}", s.handleUpdateActivity)
		r.Delete("/{id}", s.handleDeleteActivity)
		r.Post("/{id}/image", s.handleUploadActivityImage)
	})

	r.Get("/api/search", s.handleSearch)

	r.Route("/api/nasa", func(r chi.Router) {
		r.Get("/info", s.handleNASAInfo)
		r.Get("/apod", s.handleAPOD)
		r.Get("/neo", s.handleNearEarthObjects)
		r.Get("/iss-location", s.handleISSLocation)
		r.Get("/techport/projects", s.handleTechPortProjects)
		r.Get("/techport/projects/{id}", s.handleTechPortProject)
	})

	return r
}

// envelope is the body of every entity, search and NASA response.
type envelope struct {
	Success bool   `json:"success"`
	Mission string `json:"mission,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func success(data any) envelope {
	return envelope{Success: true, Data: data}
}

func collection[T any](items []T) envelope {
	count := len(items)
	return envelope{Success: true, Count: &count, Data: items}
}

func (s *HTTPServer) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, codeRouteNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path), map[string]any{
		"availableEndpoints": "Visit GET / or GET /api for documentation",
	})
}

func (s *HTTPServer) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path), nil)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		defer func() {
			if recovered := recover(); recovered != nil {
				s.log.Error("panic serving request",
					zap.String("request_id", requestID),
					zap.Any("panic", recovered),
					zap.Stack("stack"),
				)
				if !writer.wroteHeader {
					writeError(writer, http.StatusInternalServerError, codeServerError, "Something went wrong", nil)
				}
			}

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			s.metrics.ObserveRequest(r.Method, route, writer.status, started)
			s.log.Info("request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", writer.status),
				zap.Int64("duration_ms", time.Since(started).Milliseconds()),
			)
		}()

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(writer, r)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(body []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(body)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, envelope{
		Success: false,
		Error:   code,
		Message: message,
		Details: details,
	})
}

// writeServiceError maps err and writes it. Internal messages are only shown
// in development mode.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError && code == codeServerError {
		s.log.Error("request failed",
			zap.Any("request_id", r.Context().Value(requestIDKey{})),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if s.service.cfg.IsDevelopment() {
			message = err.Error()
		}
	}
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return domainError(http.StatusBadRequest, codeInvalidBody, "Request body must be valid JSON", nil)
	}
	return nil
}

// pathID parses the named URL parameter as an int64 id.
func pathID(r *http.Request, name, entity string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domainError(http.StatusBadRequest, codeInvalidID, fmt.Sprintf("Invalid %s ID: %s", entity, raw), nil)
	}
	return id, nil
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	return http.StatusInternalServerError, codeServerError, "Something went wrong", nil
}
