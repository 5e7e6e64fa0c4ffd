package search

import (
	"fmt"

	"go.uber.org/zap"
)

// Service is the facade that tries Meilisearch first and falls back to a
// secondary searcher.
type Service struct {
	meili    *Meili
	fallback Searcher
	log      *zap.Logger
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, fallback Searcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{meili: meili, fallback: fallback, log: log}
}

// Backend names the searcher that would serve the next query.
func (s *Service) Backend() string {
	if s.meiliReady() {
		return "meilisearch"
	}
	switch s.fallback.(type) {
	case *PgFTS:
		return "postgres"
	default:
		return "store"
	}
}

// Search tries Meilisearch if healthy, otherwise falls back. A fallback failure
// is returned to the caller.
func (s *Service) Search(q Query) (Response, error) {
	if s.meiliReady() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}, nil
		}
		s.log.Warn("meilisearch failed, falling back", zap.Error(err))
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}, nil
	}
	results, total, err := s.fallback.Search(q)
	if err != nil {
		return Response{}, fmt.Errorf("fallback search: %w", err)
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}, nil
}

// IndexMission indexes a mission (fire-and-forget to Meilisearch).
func (s *Service) IndexMission(m MissionRecord) {
	s.async("index mission", m.ID, func() error { return s.meili.IndexMission(m) })
}

// IndexActivity indexes an activity (fire-and-forget to Meilisearch).
func (s *Service) IndexActivity(a ActivityRecord) {
	s.async("index activity", a.ID, func() error { return s.meili.IndexActivity(a) })
}

// IndexActivities re-indexes a batch, e.g. after the owning mission was renamed.
func (s *Service) IndexActivities(activities []ActivityRecord) {
	if len(activities) == 0 {
		return
	}
	s.async("index activities", activities[0].MissionID, func() error { return s.meili.IndexActivities(activities) })
}

func (s *Service) DeleteMission(id int64) {
	s.async("delete mission", id, func() error { return s.meili.DeleteMission(id) })
}

func (s *Service) DeleteActivity(id int64) {
	s.async("delete activity", id, func() error { return s.meili.DeleteActivity(id) })
}

// ReindexAll pushes every mission and activity to Meilisearch.
// Called during Bootstrap.
func (s *Service) ReindexAll(missions []MissionRecord, activities []ActivityRecord) {
	if !s.meiliReady() {
		return
	}
	if err := s.meili.IndexMissions(missions); err != nil {
		s.log.Error("reindex missions failed", zap.Error(err))
	}
	if err := s.meili.IndexActivities(activities); err != nil {
		s.log.Error("reindex activities failed", zap.Error(err))
	}
	s.log.Info("search index rebuilt",
		zap.Int("missions", len(missions)),
		zap.Int("activities", len(activities)),
	)
}

func (s *Service) meiliReady() bool {
	return s.meili != nil && s.meili.Healthy()
}

func (s *Service) async(op string, id int64, fn func() error) {
	if !s.meiliReady() {
		return
	}
	go func() {
		if err := fn(); err != nil {
			s.log.Warn("search index update failed", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
		}
	}()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
