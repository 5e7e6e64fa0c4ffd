package app

import (
	"context"
	"net/http"
	"time"
)

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "SpaceTrack API is running",
		"version":   apiVersion,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": map[string]string{
			"health":     "GET /",
			"api_info":   "GET /api",
			"missions":   "GET /api/missions",
			"activities": "GET /api/activities",
			"search":     "GET /api/search",
			"nasa":       "GET /api/nasa/info",
		},
	})
}

func (s *HTTPServer) handleAPIInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "SpaceTrack API - NASA Space Data Explorer",
		"version": apiVersion,
		"documentation": map[string]any{
			"missions": map[string]string{
				"GET /api/missions":                    "Get all missions (supports ?status, ?category, ?search)",
				"GET /api/missions/:id":                "Get mission by ID",
				"GET /api/missions/status/:status":     "Get missions by status",
				"GET /api/missions/category/:category": "Get missions by category",
				"POST /api/missions":                   "Create new mission",
				"PUT /api/missions/:id":                "Update mission",
				"DELETE /api/missions/:id":             "Delete mission",
			},
			"activities": map[string]string{
				"GET /api/activities":                    "Get all activities (supports ?search, ?missionId, ?type)",
				"GET /api/activities/:id":                "Get activity by ID",
				"GET /api/activities/mission/:missionId": "Get activities by mission",
				"POST /api/activities":                   "Create new activity",
				"PUT /api/activities/:id":                "Update activity",
				"DELETE /api/activities/:id":             "Delete activity",
				"POST /api/activities/:id/image":         "Upload an activity image (multipart field \"image\")",
			},
			"search": map[string]string{
				"GET /api/search": "Ranked search across missions and activities (?q, ?type, ?limit)",
			},
			"nasa": nasaEndpoints,
		},
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
		"search":   map[string]any{"status": "ok", "backend": s.service.SearchBackend()},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		detail := "unavailable"
		if s.service.cfg.IsDevelopment() {
			detail = err.Error()
		}
		checks["database"] = map[string]any{
			"status": "error",
			"error":  detail,
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}
