package search

import (
	"context"
	"strings"

	"spacetrack/api/internal/store"
)

// StoreSearcher answers searches with the store's own substring filters. It is
// the fallback for backings without a full-text index.
type StoreSearcher struct {
	store store.Store
}

func NewStoreSearcher(s store.Store) *StoreSearcher {
	return &StoreSearcher{store: s}
}

func (s *StoreSearcher) Healthy() bool {
	return s.store != nil
}

// Search returns missions first, then activities, each in listing order.
func (s *StoreSearcher) Search(q Query) ([]Result, int, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, 0, nil
	}
	ctx := context.Background()

	var results []Result
	if q.wants(ResultMission) {
		missions, err := s.store.ListMissions(ctx, store.MissionFilter{Search: text})
		if err != nil {
			return nil, 0, err
		}
		for _, m := range missions {
			results = append(results, Result{Type: ResultMission, ID: m.ID, Title: m.Name, Snippet: m.Description})
		}
	}
	if q.wants(ResultActivity) {
		activities, err := s.store.ListActivities(ctx, store.ActivityFilter{Search: text})
		if err != nil {
			return nil, 0, err
		}
		for _, a := range activities {
			results = append(results, Result{
				Type:      ResultActivity,
				ID:        a.ID,
				Title:     a.Title,
				Snippet:   a.Description,
				MissionID: a.MissionID,
			})
		}
	}

	total := len(results)
	if limit := q.PageSize(); len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}
