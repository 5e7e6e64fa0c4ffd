package app

import (
	"net/http"
	"strconv"

	"spacetrack/api/internal/search"
)

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	kind, ok := search.ParseResultType(query.Get("type"))
	if !ok {
		s.writeServiceError(w, r, validationError("type", "type must be mission or activity"))
		return
	}
	limit, _ := strconv.Atoi(query.Get("limit"))

	resp, err := s.service.Search(search.Query{
		Text:  query.Get("q"),
		Type:  kind,
		Limit: limit,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	count := len(resp.Results)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Count:   &count,
		Total:   &resp.Total,
		Data:    resp,
	})
}
