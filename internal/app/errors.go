package app

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	codeValidation        = "VALIDATION_ERROR"
	codeInvalidBody       = "INVALID_BODY"
	codeInvalidID         = "INVALID_ID"
	codeNotFound          = "NOT_FOUND"
	codeMissionNotFound   = "MISSION_NOT_FOUND"
	codeRouteNotFound     = "ROUTE_NOT_FOUND"
	codeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	codeServerError       = "SERVER_ERROR"
	codeUpstreamError     = "UPSTREAM_ERROR"
	codeUploadUnavailable = "UPLOAD_UNAVAILABLE"
	codePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func missingFieldsError(missing []string) *DomainError {
	return domainError(http.StatusBadRequest, codeValidation,
		"Missing required fields: "+strings.Join(missing, ", "),
		map[string]any{"missing": missing},
	)
}

func validationError(field, message string) *DomainError {
	return domainError(http.StatusBadRequest, codeValidation, message, map[string]any{"field": field})
}

func missionNotFound(id int64) *DomainError {
	return domainError(http.StatusNotFound, codeNotFound, fmt.Sprintf("No mission found with ID: %d", id), nil)
}

// referencedMissionNotFound is missionNotFound for a missionId carried by an
// activity or a relation path.
func referencedMissionNotFound(id int64) *DomainError {
	return domainError(http.StatusNotFound, codeMissionNotFound, fmt.Sprintf("No mission found with ID: %d", id), nil)
}

func activityNotFound(id int64) *DomainError {
	return domainError(http.StatusNotFound, codeNotFound, fmt.Sprintf("No activity found with ID: %d", id), nil)
}
