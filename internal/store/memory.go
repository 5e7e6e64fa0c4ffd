package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Data is lost on restart.
type MemoryStore struct {
	mu             sync.RWMutex
	missions       map[int64]Mission
	activities     map[int64]Activity
	lastMissionID  int64
	lastActivityID int64
	now            func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		missions:   make(map[int64]Mission),
		activities: make(map[int64]Activity),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) CreateMission(_ context.Context, in MissionInput) (Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastMissionID++
	mission := newMission(s.lastMissionID, in, s.now())
	s.missions[mission.ID] = mission
	return mission, nil
}

func (s *MemoryStore) ListMissions(_ context.Context, filter MissionFilter) ([]Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	missions := make([]Mission, 0, len(s.missions))
	for _, mission := range s.missions {
		if filter.Match(mission) {
			missions = append(missions, mission)
		}
	}
	SortMissions(missions)
	return missions, nil
}

func (s *MemoryStore) GetMission(_ context.Context, id int64) (Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mission, ok := s.missions[id]
	if !ok {
		return Mission{}, ErrNotFound
	}
	return mission, nil
}

func (s *MemoryStore) UpdateMission(_ context.Context, id int64, in MissionInput) (Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mission, ok := s.missions[id]
	if !ok {
		return Mission{}, ErrNotFound
	}
	applyMissionInput(&mission, in)
	mission.UpdatedAt = s.now()
	s.missions[id] = mission
	return mission, nil
}

func (s *MemoryStore) DeleteMission(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.missions[id]; !ok {
		return false, nil
	}
	delete(s.missions, id)
	return true, nil
}

func (s *MemoryStore) CreateActivity(_ context.Context, in ActivityInput) (Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivityID++
	activity := newActivity(s.lastActivityID, in, s.now())
	s.activities[activity.ID] = activity
	return activity, nil
}

func (s *MemoryStore) ListActivities(_ context.Context, filter ActivityFilter) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activities := make([]Activity, 0, len(s.activities))
	for _, activity := range s.activities {
		var missionName string
		if mission, ok := s.missions[activity.MissionID]; ok {
			missionName = mission.Name
		}
		if filter.Match(activity, missionName) {
			activities = append(activities, activity)
		}
	}
	SortActivities(activities)
	return activities, nil
}

func (s *MemoryStore) GetActivity(_ context.Context, id int64) (Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[id]
	if !ok {
		return Activity{}, ErrNotFound
	}
	return activity, nil
}

func (s *MemoryStore) UpdateActivity(_ context.Context, id int64, in ActivityInput) (Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[id]
	if !ok {
		return Activity{}, ErrNotFound
	}
	applyActivityInput(&activity, in)
	activity.UpdatedAt = s.now()
	s.activities[id] = activity
	return activity, nil
}

func (s *MemoryStore) DeleteActivity(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[id]; !ok {
		return false, nil
	}
	delete(s.activities, id)
	return true, nil
}
