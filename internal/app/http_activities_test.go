package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacetrack/api/internal/config"
	"spacetrack/api/internal/images"
	"spacetrack/api/internal/store"
)

func TestCreateActivity(t *testing.T) {
	env := newSeededEnv(t)

	rr, envelope := env.do(t, http.MethodPost, "/api/activities", map[string]any{
		"missionId":      2,
		"type":           "image",
		"date":           "2025-05-01",
		"title":          "Olympus Mons flyover",
		"objectObserved": "Olympus Mons",
		"rating":         5,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Activity created successfully", envelope.Message)

	activity := decodeData[store.Activity](t, envelope)
	assert.Equal(t, int64(11), activity.ID)
	assert.Equal(t, int64(2), activity.MissionID)
	require.NotNil(t, activity.Rating)
	assert.Equal(t, 5, *activity.Rating)
	assert.Nil(t, activity.Time)
	require.NotNil(t, activity.Mission)
	assert.Equal(t, "Perseverance", activity.Mission.Name)
	assert.Equal(t, "Mars Rover", activity.Mission.Category)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ActivitiesCreated))
}

func TestCreateActivityValidation(t *testing.T) {
	env := newSeededEnv(t)

	rr, envelope := env.do(t, http.MethodPost, "/api/activities", map[string]any{"title": "Only a title"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, codeValidation, envelope.Error)
	assert.Equal(t, "Missing required fields: missionId, type, date", envelope.Message)
	assert.Equal(t, []any{"missionId", "type", "date"}, envelope.Details["missing"])

	cases := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"bad date", map[string]any{"missionId": 1, "type": "image", "date": "05/01/2025", "title": "x"}, "date"},
		{"rating too low", map[string]any{"missionId": 1, "type": "image", "date": "2025-05-01", "title": "x", "rating": 0}, "rating"},
		{"rating too high", map[string]any{"missionId": 1, "type": "image", "date": "2025-05-01", "title": "x", "rating": 6}, "rating"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, envelope := env.do(t, http.MethodPost, "/api/activities", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.field, envelope.Details["field"])
		})
	}
}

func TestCreateActivityForMissingMission(t *testing.T) {
	env := newSeededEnv(t)

	rr, envelope := env.do(t, http.MethodPost, "/api/activities", map[string]any{
		"missionId": 99,
		"type":      "image",
		"date":      "2025-05-01",
		"title":     "Orphan",
	})
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, codeMissionNotFound, envelope.Error)
	assert.Equal(t, "No mission found with ID: 99", envelope.Message)

	activities, err := env.store.MemoryStore.ListActivities(context.Background(), store.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, activities, 10)
}

func TestListActivities(t *testing.T) {
	env := newSeededEnv(t)
	env.store.listMissionsCalls = 0

	rr, envelope := env.do(t, http.MethodGet, "/api/activities", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 10, *envelope.Count)
	assert.Equal(t, 1, env.store.listMissionsCalls)

	activities := decodeData[[]store.Activity](t, envelope)
	require.Len(t, activities, 10)
	assert.Equal(t, "Martian dust storm tracking", activities[0].Title)
	for i := 1; i < len(activities); i++ {
		assert.GreaterOrEqual(t, activities[i-1].Date, activities[i].Date)
	}
	for _, activity := range activities {
		require.NotNil(t, activity.Mission, "activity %d", activity.ID)
		assert.Equal(t, activity.MissionID, activity.Mission.ID)
	}
}

func TestListActivitiesFiltersCombine(t *testing.T) {
	env := newSeededEnv(t)

	_, envelope := env.do(t, http.MethodGet, "/api/activities?missionId=2&type=IMAGE", nil)
	activities := decodeData[[]store.Activity](t, envelope)
	require.Len(t, activities, 2)
	assert.Equal(t, "Martian dust storm tracking", activities[0].Title)
	assert.Equal(t, "Jezero Crater panorama", activities[1].Title)

	_, envelope = env.do(t, http.MethodGet, "/api/activities?search=mars", nil)
	assert.Equal(t, 3, *envelope.Count)

	_, envelope = env.do(t, http.MethodGet, "/api/activities?search=webb", nil)
	assert.Equal(t, 2, *envelope.Count, "mission name is searchable")

	_, envelope = env.do(t, http.MethodGet, "/api/activities?missionId=2&type=sample&search=core", nil)
	activities = decodeData[[]store.Activity](t, envelope)
	require.Len(t, activities, 1)
	assert.Equal(t, "Rock core drilling Site A", activities[0].Title)

	_, envelope = env.do(t, http.MethodGet, "/api/activities?missionId=0", nil)
	assert.Equal(t, 0, *envelope.Count)
	assert.Equal(t, "[]", string(envelope.Data))

	rr, envelope := env.do(t, http.MethodGet, "/api/activities?missionId=two", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, codeInvalidID, envelope.Error)
}

func TestActivitiesByMission(t *testing.T) {
	env := newSeededEnv(t)

	rr, envelope := env.do(t, http.MethodGet, "/api/activities/mission/2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Perseverance", envelope.Mission)
	assert.Equal(t, 3, *envelope.Count)

	rr, envelope = env.do(t, http.MethodGet, "/api/activities/mission/8", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Europa Clipper", envelope.Mission)
	assert.Equal(t, "[]", string(envelope.Data))

	rr, envelope = env.do(t, http.MethodGet, "/api/activities/mission/42", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, codeMissionNotFound, envelope.Error)
}

func TestActivityOutlivesDeletedMission(t *testing.T) {
	env := newSeededEnv(t)

	rr, _ := env.do(t, http.MethodDelete, "/api/missions/2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, envelope := env.do(t, http.MethodGet, "/api/activities/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &raw))
	assert.Equal(t, float64(2), raw["missionId"])
	assert.NotContains(t, raw, "mission")

	_, envelope = env.do(t, http.MethodGet, "/api/activities?missionId=2", nil)
	assert.Equal(t, 3, *envelope.Count)
}

func TestUpdateActivity(t *testing.T) {
	env := newSeededEnv(t)

	rr, envelope := env.do(t, http.MethodPut, "/api/activities/1", map[string]any{"rating": 4, "conditions": "Clear"})
	require.Equal(t, http.StatusOK, rr.Code)
	activity := decodeData[store.Activity](t, envelope)
	assert.Equal(t, "Jezero Crater panorama", activity.Title)
	assert.Equal(t, "Clear", activity.Conditions)
	require.NotNil(t, activity.Rating)
	assert.Equal(t, 4, *activity.Rating)

	rr, envelope = env.do(t, http.MethodPut, "/api/activities/1", map[string]any{"missionId": 3})
	require.Equal(t, http.StatusOK, rr.Code)
	activity = decodeData[store.Activity](t, envelope)
	require.NotNil(t, activity.Mission)
	assert.Equal(t, "James Webb Space Telescope", activity.Mission.Name)

	rr, envelope = env.do(t, http.MethodPut, "/api/activities/1", map[string]any{"missionId": 77})
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, codeMissionNotFound, envelope.Error)

	rr, envelope = env.do(t, http.MethodPut, "/api/activities/1", map[string]any{"title": " "})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "title", envelope.Details["field"])

	rr, envelope = env.do(t, http.MethodPut, "/api/activities/500", map[string]any{"rating": 3})
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, codeNotFound, envelope.Error)
	assert.Equal(t, "No activity found with ID: 500", envelope.Message)
}

func TestDeleteActivity(t *testing.T) {
	env := newSeededEnv(t)

	rr, envelope := env.do(t, http.MethodDelete, "/api/activities/3", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":3}`, string(envelope.Data))

	rr, _ = env.do(t, http.MethodGet, "/api/activities/3", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = env.do(t, http.MethodDelete, "/api/activities/3", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func newImageRequest(t *testing.T, path, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadActivityImage(t *testing.T) {
	objects := images.NewMemoryStore("http://images.test/spacetrack")
	env := newTestEnv(t, config.Config{Seed: true}, Dependencies{Images: objects})
	require.NoError(t, env.service.Bootstrap(context.Background()))

	rr := httptest.NewRecorder()
	env.server.ServeHTTP(rr, newImageRequest(t, "/api/activities/1/image", "crater.PNG", "image/png", []byte("\x89PNG fake")))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var envelope testEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	activity := decodeData[store.Activity](t, envelope)
	require.NotNil(t, activity.ImageURL)
	assert.True(t, strings.HasPrefix(*activity.ImageURL, "http://images.test/spacetrack/activities/1/"))
	assert.True(t, strings.HasSuffix(*activity.ImageURL, ".png"))

	keys := objects.Keys()
	require.Len(t, keys, 1)
	data, contentType, ok := objects.Get(keys[0])
	require.True(t, ok)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("\x89PNG fake"), data)

	rr = httptest.NewRecorder()
	env.server.ServeHTTP(rr, newImageRequest(t, "/api/activities/1/image", "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	env.server.ServeHTTP(rr, newImageRequest(t, "/api/activities/404/image", "x.png", "image/png", []byte("png")))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Len(t, objects.Keys(), 1)
}

func TestUploadActivityImageWithoutStorage(t *testing.T) {
	env := newSeededEnv(t)

	rr := httptest.NewRecorder()
	env.server.ServeHTTP(rr, newImageRequest(t, "/api/activities/1/image", "x.png", "image/png", []byte("png")))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var envelope testEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	assert.Equal(t, codeUploadUnavailable, envelope.Error)
}

func TestActivityFieldLengthsAreLimited(t *testing.T) {
	env := newSeededEnv(t)

	rr, envelope := env.do(t, http.MethodPost, "/api/activities", map[string]any{
		"missionId": 2,
		"type":      "image",
		"date":      "2025-05-01",
		"title":     strings.Repeat("t", 201),
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, codeValidation, envelope.Error)
	assert.Equal(t, "title", envelope.Details["field"])

	rr, envelope = env.do(t, http.MethodPut, "/api/activities/1", map[string]any{"type": strings.Repeat("k", 51)})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "type", envelope.Details["field"])

	rr, envelope = env.do(t, http.MethodPut, "/api/activities/1", map[string]any{"time": "21:30 local solar time on sol 1200"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "time", envelope.Details["field"])

	activities, err := env.store.MemoryStore.ListActivities(context.Background(), store.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, activities, 10)
}
