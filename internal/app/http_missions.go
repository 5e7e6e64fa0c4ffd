package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spacetrack/api/internal/store"
)

func (s *HTTPServer) handleListMissions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	s.listMissions(w, r, store.MissionFilter{
		Status:   query.Get("status"),
		Category: query.Get("category"),
		Search:   query.Get("search"),
	})
}

func (s *HTTPServer) handleMissionsByStatus(w http.ResponseWriter, r *http.Request) {
	s.listMissions(w, r, store.MissionFilter{Status: chi.URLParam(r, "status")})
}

func (s *HTTPServer) handleMissionsByCategory(w http.ResponseWriter, r *http.Request) {
	s.listMissions(w, r, store.MissionFilter{Category: chi.URLParam(r, "category")})
}

func (s *HTTPServer) listMissions(w http.ResponseWriter, r *http.Request, filter store.MissionFilter) {
	missions, err := s.service.ListMissions(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collection(missions))
}

func (s *HTTPServer) handleGetMission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "mission")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	mission, err := s.service.GetMission(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(mission))
}

func (s *HTTPServer) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	var input store.MissionInput
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	mission, err := s.service.CreateMission(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := success(mission)
	response.Message = "Mission created successfully"
	writeJSON(w, http.StatusCreated, response)
}

func (s *HTTPServer) handleUpdateMission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "mission")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var input store.MissionInput
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	mission, err := s.service.UpdateMission(r.Context(), id, input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := success(mission)
	response.Message = "Mission updated successfully"
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleDeleteMission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "mission")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.service.DeleteMission(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := success(map[string]int64{"id": id})
	response.Message = "Mission deleted successfully"
	writeJSON(w, http.StatusOK, response)
}
