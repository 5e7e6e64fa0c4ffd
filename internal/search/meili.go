package search

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const (
	idxMissions   = "spacetrack_missions"
	idxActivities = "spacetrack_activities"
)

var errMeiliUnhealthy = errors.New("meilisearch unhealthy")

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	log     *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes.
// An unreachable server is not an error: the client starts unhealthy and the
// health loop picks it up once it answers.
func NewMeili(url, apiKey string, log *zap.Logger) *Meili {
	if log == nil {
		log = zap.NewNop()
	}
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		log:    log.With(zap.String("component", "meilisearch")),
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		m.log.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxMissions,
			filterable: []string{"status", "category"},
			searchable: []string{"name", "category", "description"},
		},
		{
			uid:        idxActivities,
			filterable: []string{"missionId", "type"},
			searchable: []string{"title", "objectObserved", "description", "location", "equipment", "missionName", "type"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: "id",
		}); err != nil {
			m.log.Debug("create index (may already exist)", zap.String("index", idx.uid), zap.Error(err))
		}

		index := m.client.Index(idx.uid)
		filterable := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterable[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
			m.log.Warn("update filterable attributes", zap.String("index", idx.uid), zap.Error(err))
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			m.log.Warn("update searchable attributes", zap.String("index", idx.uid), zap.Error(err))
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.log.Info("meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries both indexes (or the one selected by q.Type) and merges results.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, errMeiliUnhealthy
	}

	limit := int64(q.PageSize())
	var queries []*meili.SearchRequest
	for _, target := range []struct {
		uid  string
		kind ResultType
	}{
		{idxMissions, ResultMission},
		{idxActivities, ResultActivity},
	} {
		if !q.wants(target.kind) {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              target.uid,
			Query:                 q.Text,
			Limit:                 limit,
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		})
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, err
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		kind := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, kind))
		}
	}
	if len(results) > int(limit) {
		results = results[:limit]
	}
	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxMissions:
		return ResultMission
	case idxActivities:
		return ResultActivity
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, kind ResultType) Result {
	r := Result{Type: kind, ID: decodeInt(hit, "id")}
	switch kind {
	case ResultMission:
		r.Title = firstNonBlank(decodeFormattedString(hit, "name"), decodeString(hit, "name"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
	case ResultActivity:
		r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
		r.MissionID = decodeInt(hit, "missionId")
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// decodeInt accepts both JSON numbers and numeric strings.
func decodeInt(hit meili.Hit, key string) int64 {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	n, _ = strconv.ParseInt(decodeString(hit, key), 10, 64)
	return n
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]any
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	value, _ := formatted[key].(string)
	return strings.TrimSpace(value)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexMission adds or updates a mission in the search index.
func (m *Meili) IndexMission(mission MissionRecord) error {
	return m.IndexMissions([]MissionRecord{mission})
}

// IndexActivity adds or updates an activity in the search index.
func (m *Meili) IndexActivity(activity ActivityRecord) error {
	return m.IndexActivities([]ActivityRecord{activity})
}

func (m *Meili) DeleteMission(id int64) error {
	_, err := m.client.Index(idxMissions).DeleteDocument(strconv.FormatInt(id, 10), nil)
	return err
}

func (m *Meili) DeleteActivity(id int64) error {
	_, err := m.client.Index(idxActivities).DeleteDocument(strconv.FormatInt(id, 10), nil)
	return err
}

// IndexMissions bulk-indexes missions.
func (m *Meili) IndexMissions(missions []MissionRecord) error {
	if len(missions) == 0 {
		return nil
	}
	_, err := m.client.Index(idxMissions).AddDocuments(missions, nil)
	return err
}

// IndexActivities bulk-indexes activities.
func (m *Meili) IndexActivities(activities []ActivityRecord) error {
	if len(activities) == 0 {
		return nil
	}
	_, err := m.client.Index(idxActivities).AddDocuments(activities, nil)
	return err
}
