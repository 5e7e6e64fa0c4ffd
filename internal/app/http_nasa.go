package app

import "net/http"

var nasaEndpoints = map[string]string{
	"GET /api/nasa/info":                  "NASA API information",
	"GET /api/nasa/apod":                  "Astronomy Picture of the Day (?date=YYYY-MM-DD)",
	"GET /api/nasa/neo":                   "Near Earth Objects for today",
	"GET /api/nasa/iss-location":          "Current ISS position",
	"GET /api/nasa/techport/projects":     "NASA TechPort projects (?updatedSince=YYYY-MM-DD)",
	"GET /api/nasa/techport/projects/:id": "NASA TechPort project details",
}

func (s *HTTPServer) handleNASAInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, success(map[string]any{
		"description": "Proxy for public NASA and Open Notify data sources",
		"sources": map[string]string{
			"apod":     "https://api.nasa.gov/planetary/apod",
			"neo":      "https://api.nasa.gov/neo/rest/v1/feed",
			"iss":      "http://api.open-notify.org/iss-now.json",
			"techport": "https://api.nasa.gov/techport/api/projects",
		},
		"endpoints": nasaEndpoints,
	}))
}

func (s *HTTPServer) handleAPOD(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.APOD(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(data))
}

func (s *HTTPServer) handleNearEarthObjects(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.NearEarthObjects(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(data))
}

func (s *HTTPServer) handleISSLocation(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ISSLocation(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(data))
}

func (s *HTTPServer) handleTechPortProjects(w http.ResponseWriter, r *http.Request) {
	projects, total, err := s.service.TechPortProjects(r.Context(), r.URL.Query().Get("updatedSince"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := collection(projects)
	response.Total = &total
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleTechPortProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "project")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	project, err := s.service.TechPortProject(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(project))
}
