package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"spacetrack/api/internal/config"
	"spacetrack/api/internal/images"
	"spacetrack/api/internal/metrics"
	"spacetrack/api/internal/nasa"
	"spacetrack/api/internal/search"
	"spacetrack/api/internal/store"
)

const dateLayout = "2006-01-02"

type upstreamClient interface {
	APOD(ctx context.Context, date string) (json.RawMessage, error)
	NearEarthObjects(ctx context.Context, day string) (json.RawMessage, error)
	ISSLocation(ctx context.Context) (json.RawMessage, error)
	TechPortProjects(ctx context.Context, updatedSince string) ([]json.RawMessage, int, error)
	TechPortProject(ctx context.Context, id int64) (json.RawMessage, error)
}

// Dependencies are the optional collaborators of Service. Nil fields fall
// back to no-op or disabled behavior.
type Dependencies struct {
	Search  *search.Service
	NASA    upstreamClient
	Images  images.Store
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Service struct {
	cfg     config.Config
	store   store.Store
	search  *search.Service
	nasa    upstreamClient
	images  images.Store
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func New(cfg config.Config, dataStore store.Store, deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	searchService := deps.Search
	if searchService == nil {
		searchService = search.NewService(nil, search.NewStoreSearcher(dataStore), log)
	}
	return &Service{
		cfg:     cfg,
		store:   dataStore,
		search:  searchService,
		nasa:    deps.NASA,
		images:  deps.Images,
		metrics: deps.Metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Bootstrap seeds an empty store when seeding is enabled and rebuilds the
// search index from the store.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.cfg.Seed {
		result, err := store.Seed(ctx, s.store)
		if err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		if result.Missions > 0 {
			s.log.Info("seeded store",
				zap.Int("missions", result.Missions),
				zap.Int("activities", result.Activities),
			)
		}
	}

	missions, err := s.store.ListMissions(ctx, store.MissionFilter{})
	if err != nil {
		return fmt.Errorf("list missions: %w", err)
	}
	activities, err := s.store.ListActivities(ctx, store.ActivityFilter{})
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}

	names := make(map[int64]string, len(missions))
	missionRecords := make([]search.MissionRecord, 0, len(missions))
	for _, mission := range missions {
		names[mission.ID] = mission.Name
		missionRecords = append(missionRecords, search.MissionRecordFrom(mission))
	}
	activityRecords := make([]search.ActivityRecord, 0, len(activities))
	for _, activity := range activities {
		activityRecords = append(activityRecords, search.ActivityRecordFrom(activity, names[activity.MissionID]))
	}
	s.search.ReindexAll(missionRecords, activityRecords)
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SearchBackend() string {
	return s.search.Backend()
}

// Missions

func (s *Service) ListMissions(ctx context.Context, filter store.MissionFilter) ([]store.Mission, error) {
	missions, err := s.store.ListMissions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if missions == nil {
		missions = []store.Mission{}
	}
	return missions, nil
}

func (s *Service) GetMission(ctx context.Context, id int64) (store.Mission, error) {
	mission, err := s.store.GetMission(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Mission{}, missionNotFound(id)
	}
	return mission, err
}

func (s *Service) CreateMission(ctx context.Context, in store.MissionInput) (store.Mission, error) {
	if isBlank(in.Name) {
		return store.Mission{}, missingFieldsError([]string{"name"})
	}
	in = normalizeMissionInput(in)
	if isBlank(in.StartDate) {
		today := s.now().Format(dateLayout)
		in.StartDate = &today
	}
	if err := validateMissionInput(in); err != nil {
		return store.Mission{}, err
	}

	mission, err := s.store.CreateMission(ctx, in)
	if err != nil {
		return store.Mission{}, err
	}
	s.metrics.IncrementMissionsCreated()
	s.search.IndexMission(search.MissionRecordFrom(mission))
	return mission, nil
}

func (s *Service) UpdateMission(ctx context.Context, id int64, in store.MissionInput) (store.Mission, error) {
	if in.Name != nil && isBlank(in.Name) {
		return store.Mission{}, validationError("name", "name cannot be empty")
	}
	in = normalizeMissionInput(in)
	if err := validateMissionInput(in); err != nil {
		return store.Mission{}, err
	}

	mission, err := s.store.UpdateMission(ctx, id, in)
	if errors.Is(err, store.ErrNotFound) {
		return store.Mission{}, missionNotFound(id)
	}
	if err != nil {
		return store.Mission{}, err
	}

	s.search.IndexMission(search.MissionRecordFrom(mission))
	if in.Name != nil {
		s.reindexMissionActivities(ctx, mission)
	}
	return mission, nil
}

func (s *Service) DeleteMission(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteMission(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return missionNotFound(id)
	}
	s.search.DeleteMission(id)
	return nil
}

// reindexMissionActivities refreshes the mission name carried by the indexed
// activities of a renamed mission.
func (s *Service) reindexMissionActivities(ctx context.Context, mission store.Mission) {
	activities, err := s.store.ListActivities(ctx, store.ActivityFilter{MissionID: &mission.ID})
	if err != nil {
		s.log.Warn("reindex mission activities", zap.Int64("mission_id", mission.ID), zap.Error(err))
		return
	}
	records := make([]search.ActivityRecord, 0, len(activities))
	for _, activity := range activities {
		records = append(records, search.ActivityRecordFrom(activity, mission.Name))
	}
	s.search.IndexActivities(records)
}

// Activities

func (s *Service) ListActivities(ctx context.Context, filter store.ActivityFilter) ([]store.Activity, error) {
	activities, err := s.store.ListActivities(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, activities)
}

// ActivitiesByMission returns the mission and its activities, newest first.
func (s *Service) ActivitiesByMission(ctx context.Context, missionID int64) (store.Mission, []store.Activity, error) {
	mission, err := s.store.GetMission(ctx, missionID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Mission{}, nil, referencedMissionNotFound(missionID)
	}
	if err != nil {
		return store.Mission{}, nil, err
	}
	activities, err := s.ListActivities(ctx, store.ActivityFilter{MissionID: &missionID})
	if err != nil {
		return store.Mission{}, nil, err
	}
	return mission, activities, nil
}

func (s *Service) GetActivity(ctx context.Context, id int64) (store.Activity, error) {
	activity, err := s.store.GetActivity(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Activity{}, activityNotFound(id)
	}
	if err != nil {
		return store.Activity{}, err
	}
	return s.enrichOne(ctx, activity)
}

func (s *Service) CreateActivity(ctx context.Context, in store.ActivityInput) (store.Activity, error) {
	var missing []string
	if in.MissionID == nil || *in.MissionID == 0 {
		missing = append(missing, "missionId")
	}
	if isBlank(in.Type) {
		missing = append(missing, "type")
	}
	if isBlank(in.Date) {
		missing = append(missing, "date")
	}
	if isBlank(in.Title) {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return store.Activity{}, missingFieldsError(missing)
	}
	if err := validateActivityInput(in); err != nil {
		return store.Activity{}, err
	}

	mission, err := s.resolveMission(ctx, *in.MissionID)
	if err != nil {
		return store.Activity{}, err
	}

	activity, err := s.store.CreateActivity(ctx, in)
	if err != nil {
		return store.Activity{}, err
	}
	s.metrics.IncrementActivitiesCreated()
	s.search.IndexActivity(search.ActivityRecordFrom(activity, mission.Name))

	summary := mission.Summary()
	activity.Mission = &summary
	return activity, nil
}

func (s *Service) UpdateActivity(ctx context.Context, id int64, in store.ActivityInput) (store.Activity, error) {
	for _, required := range []struct {
		field string
		value *string
	}{
		{"type", in.Type},
		{"date", in.Date},
		{"title", in.Title},
	} {
		if required.value != nil && isBlank(required.value) {
			return store.Activity{}, validationError(required.field, required.field+" cannot be empty")
		}
	}
	if in.MissionID != nil && *in.MissionID == 0 {
		return store.Activity{}, validationError("missionId", "missionId cannot be empty")
	}
	if err := validateActivityInput(in); err != nil {
		return store.Activity{}, err
	}

	if _, err := s.store.GetActivity(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Activity{}, activityNotFound(id)
		}
		return store.Activity{}, err
	}
	if in.MissionID != nil {
		if _, err := s.resolveMission(ctx, *in.MissionID); err != nil {
			return store.Activity{}, err
		}
	}

	activity, err := s.store.UpdateActivity(ctx, id, in)
	if errors.Is(err, store.ErrNotFound) {
		return store.Activity{}, activityNotFound(id)
	}
	if err != nil {
		return store.Activity{}, err
	}

	enriched, err := s.enrichOne(ctx, activity)
	if err != nil {
		return store.Activity{}, err
	}
	missionName := ""
	if enriched.Mission != nil {
		missionName = enriched.Mission.Name
	}
	s.search.IndexActivity(search.ActivityRecordFrom(enriched, missionName))
	return enriched, nil
}

func (s *Service) DeleteActivity(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteActivity(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return activityNotFound(id)
	}
	s.search.DeleteActivity(id)
	return nil
}

func (s *Service) UploadsEnabled() bool {
	return s.images != nil
}

// AttachImage uploads an activity image and records its URL on the activity.
func (s *Service) AttachImage(ctx context.Context, id int64, filename, contentType string, size int64, body io.Reader) (store.Activity, error) {
	if s.images == nil {
		return store.Activity{}, domainError(http.StatusServiceUnavailable, codeUploadUnavailable, "Image storage is not configured", nil)
	}
	if err := images.Validate(contentType, size); err != nil {
		if errors.Is(err, images.ErrTooLarge) {
			return store.Activity{}, domainError(http.StatusRequestEntityTooLarge, codePayloadTooLarge, err.Error(), nil)
		}
		return store.Activity{}, validationError("image", err.Error())
	}
	if _, err := s.store.GetActivity(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Activity{}, activityNotFound(id)
		}
		return store.Activity{}, err
	}

	key := images.ObjectKey(id, filename, contentType)
	url, err := s.images.Put(ctx, key, body, size, contentType)
	if err != nil {
		return store.Activity{}, fmt.Errorf("store image: %w", err)
	}

	activity, err := s.UpdateActivity(ctx, id, store.ActivityInput{ImageURL: &url})
	if err != nil {
		if cleanupErr := s.images.Delete(ctx, key); cleanupErr != nil {
			s.log.Warn("remove orphaned image", zap.String("key", key), zap.Error(cleanupErr))
		}
		return store.Activity{}, err
	}
	return activity, nil
}

// resolveMission loads the mission an activity refers to.
func (s *Service) resolveMission(ctx context.Context, missionID int64) (store.Mission, error) {
	mission, err := s.store.GetMission(ctx, missionID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Mission{}, referencedMissionNotFound(missionID)
	}
	return mission, err
}

// enrich attaches the mission summary to each activity using a single mission
// listing. Activities whose mission is gone are returned without one.
func (s *Service) enrich(ctx context.Context, activities []store.Activity) ([]store.Activity, error) {
	if len(activities) == 0 {
		return []store.Activity{}, nil
	}
	missions, err := s.store.ListMissions(ctx, store.MissionFilter{})
	if err != nil {
		return nil, err
	}
	summaries := make(map[int64]store.MissionSummary, len(missions))
	for _, mission := range missions {
		summaries[mission.ID] = mission.Summary()
	}
	enriched := make([]store.Activity, len(activities))
	for i, activity := range activities {
		if summary, ok := summaries[activity.MissionID]; ok {
			activity.Mission = &summary
		}
		enriched[i] = activity
	}
	return enriched, nil
}

func (s *Service) enrichOne(ctx context.Context, activity store.Activity) (store.Activity, error) {
	mission, err := s.store.GetMission(ctx, activity.MissionID)
	if errors.Is(err, store.ErrNotFound) {
		activity.Mission = nil
		return activity, nil
	}
	if err != nil {
		return store.Activity{}, err
	}
	summary := mission.Summary()
	activity.Mission = &summary
	return activity, nil
}

// Search

func (s *Service) Search(q search.Query) (search.Response, error) {
	return s.search.Search(q)
}

// Upstream data

func (s *Service) APOD(ctx context.Context, date string) (json.RawMessage, error) {
	if date != "" {
		if err := validateDate("date", &date); err != nil {
			return nil, err
		}
	}
	if s.nasa == nil {
		return nil, s.upstreamUnavailable()
	}
	data, err := s.nasa.APOD(ctx, date)
	if err != nil {
		return nil, s.upstreamError(err, nasa.SourceAPOD, "Failed to fetch Astronomy Picture of the Day")
	}
	return data, nil
}

// NearEarthObjects returns today's (UTC) feed.
func (s *Service) NearEarthObjects(ctx context.Context) (json.RawMessage, error) {
	if s.nasa == nil {
		return nil, s.upstreamUnavailable()
	}
	data, err := s.nasa.NearEarthObjects(ctx, s.now().Format(dateLayout))
	if err != nil {
		return nil, s.upstreamError(err, nasa.SourceNEO, "Failed to fetch Near Earth Objects")
	}
	return data, nil
}

func (s *Service) ISSLocation(ctx context.Context) (json.RawMessage, error) {
	if s.nasa == nil {
		return nil, s.upstreamUnavailable()
	}
	data, err := s.nasa.ISSLocation(ctx)
	if err != nil {
		return nil, s.upstreamError(err, nasa.SourceISS, "Failed to fetch ISS location")
	}
	return data, nil
}

func (s *Service) TechPortProjects(ctx context.Context, updatedSince string) ([]json.RawMessage, int, error) {
	if updatedSince != "" {
		if err := validateDate("updatedSince", &updatedSince); err != nil {
			return nil, 0, err
		}
	}
	if s.nasa == nil {
		return nil, 0, s.upstreamUnavailable()
	}
	projects, total, err := s.nasa.TechPortProjects(ctx, updatedSince)
	if err != nil {
		return nil, 0, s.upstreamError(err, nasa.SourceTechPort, "Failed to fetch NASA TechPort projects")
	}
	if projects == nil {
		projects = []json.RawMessage{}
	}
	return projects, total, nil
}

func (s *Service) TechPortProject(ctx context.Context, id int64) (json.RawMessage, error) {
	if s.nasa == nil {
		return nil, s.upstreamUnavailable()
	}
	project, err := s.nasa.TechPortProject(ctx, id)
	if nasa.IsNotFound(err) {
		return nil, domainError(http.StatusNotFound, codeNotFound, fmt.Sprintf("No TechPort project found with ID: %d", id), nil)
	}
	if err != nil {
		return nil, s.upstreamError(err, nasa.SourceTechPort, "Failed to fetch project details")
	}
	return project, nil
}

func (s *Service) upstreamError(err error, source, message string) *DomainError {
	s.metrics.IncrementUpstreamFailure(source)
	var details any
	if s.cfg.IsDevelopment() {
		details = map[string]any{"cause": err.Error()}
	}
	return domainError(http.StatusBadGateway, codeUpstreamError, message, details)
}

func (s *Service) upstreamUnavailable() *DomainError {
	return domainError(http.StatusBadGateway, codeUpstreamError, "Upstream data sources are not configured", nil)
}

// Column widths of the PostgreSQL schema, enforced for every backing.
const (
	maxMissionName     = 100
	maxMissionCategory = 50
	maxMissionStatus   = 20
	maxActivityType    = 50
	maxActivityTime    = 20
	maxActivityTitle   = 200
)

// normalizeMissionInput trims the name and drops blank category and status so
// they keep their default or stored value. A blank startDate becomes "", which
// clears the date on update.
func normalizeMissionInput(in store.MissionInput) store.MissionInput {
	in.Name = trimmed(in.Name)
	if isBlank(in.Category) {
		in.Category = nil
	}
	if isBlank(in.Status) {
		in.Status = nil
	}
	if in.StartDate != nil && isBlank(in.StartDate) {
		cleared := ""
		in.StartDate = &cleared
	}
	return in
}

func validateMissionInput(in store.MissionInput) error {
	for _, limit := range []struct {
		field  string
		value  *string
		maxLen int
	}{
		{"name", in.Name, maxMissionName},
		{"category", in.Category, maxMissionCategory},
		{"status", in.Status, maxMissionStatus},
	} {
		if err := validateLength(limit.field, limit.value, limit.maxLen); err != nil {
			return err
		}
	}
	if in.StartDate != nil && *in.StartDate != "" {
		return validateDate("startDate", in.StartDate)
	}
	return nil
}

func validateActivityInput(in store.ActivityInput) error {
	for _, limit := range []struct {
		field  string
		value  *string
		maxLen int
	}{
		{"type", in.Type, maxActivityType},
		{"time", in.Time, maxActivityTime},
		{"title", in.Title, maxActivityTitle},
	} {
		if err := validateLength(limit.field, limit.value, limit.maxLen); err != nil {
			return err
		}
	}
	if err := validateDate("date", in.Date); err != nil {
		return err
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return validationError("rating", "rating must be between 1 and 5")
	}
	return nil
}

func validateLength(field string, value *string, maxLen int) error {
	if value == nil || utf8.RuneCountInString(*value) <= maxLen {
		return nil
	}
	return validationError(field, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
}

func validateDate(field string, value *string) error {
	if value == nil {
		return nil
	}
	if _, err := time.Parse(dateLayout, *value); err != nil {
		return validationError(field, field+" must be a date in YYYY-MM-DD format")
	}
	return nil
}

func isBlank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}
