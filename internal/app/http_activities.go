package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"spacetrack/api/internal/images"
	"spacetrack/api/internal/store"
)

// multipart overhead allowed on top of the image itself
const uploadEnvelopeSlack = 1 << 20

func (s *HTTPServer) handleListActivities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.ActivityFilter{
		Type:   query.Get("type"),
		Search: query.Get("search"),
	}
	if raw := strings.TrimSpace(query.Get("missionId")); raw != "" {
		missionID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidID, fmt.Sprintf("Invalid mission ID: %s", raw), nil)
			return
		}
		filter.MissionID = &missionID
	}

	activities, err := s.service.ListActivities(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collection(activities))
}

func (s *HTTPServer) handleActivitiesByMission(w http.ResponseWriter, r *http.Request) {
	missionID, err := pathID(r, "missionId", "mission")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	mission, activities, err := s.service.ActivitiesByMission(r.Context(), missionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := collection(activities)
	response.Mission = mission.Name
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "activity")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	activity, err := s.service.GetActivity(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(activity))
}

func (s *HTTPServer) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var input store.ActivityInput
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	activity, err := s.service.CreateActivity(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := success(activity)
	response.Message = "Activity created successfully"
	writeJSON(w, http.StatusCreated, response)
}

func (s *HTTPServer) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "activity")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var input store.ActivityInput
	if err := decodeBody(r, &input); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	activity, err := s.service.UpdateActivity(r.Context(), id, input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := success(activity)
	response.Message = "Activity updated successfully"
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "activity")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.service.DeleteActivity(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := success(map[string]int64{"id": id})
	response.Message = "Activity deleted successfully"
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleUploadActivityImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "activity")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !s.service.UploadsEnabled() {
		writeError(w, http.StatusServiceUnavailable, codeUploadUnavailable, "Image storage is not configured", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, images.MaxUploadSize+uploadEnvelopeSlack)
	if err := r.ParseMultipartForm(images.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, images.ErrTooLarge.Error(), nil)
			return
		}
		writeError(w, http.StatusBadRequest, codeInvalidBody, "Request must be multipart/form-data", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeServiceError(w, r, missingFieldsError([]string{"image"}))
		return
	}
	defer file.Close()

	activity, err := s.service.AttachImage(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	response := success(activity)
	response.Message = "Image uploaded successfully"
	writeJSON(w, http.StatusOK, response)
}
