package search

import "strings"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultMission  ResultType = "mission"
	ResultActivity ResultType = "activity"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type      ResultType `json:"type"`
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	MissionID int64      `json:"missionId,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text  string
	Type  ResultType // empty = all types
	Limit int
}

// PageSize returns Limit clamped to [1, MaxLimit], DefaultLimit when unset.
func (q Query) PageSize() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

func (q Query) wants(t ResultType) bool {
	return q.Type == "" || q.Type == t
}

// ParseResultType maps a query parameter onto a ResultType. ok is false for
// unknown values.
func ParseResultType(raw string) (ResultType, bool) {
	switch ResultType(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", true
	case ResultMission:
		return ResultMission, true
	case ResultActivity:
		return ResultActivity, true
	default:
		return "", false
	}
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexMission(m MissionRecord) error
	IndexActivity(a ActivityRecord) error
	DeleteMission(id int64) error
	DeleteActivity(id int64) error
}

// MissionRecord is the data we index for a mission.
type MissionRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	StartDate   string `json:"startDate"`
	Description string `json:"description"`
}

// ActivityRecord is the data we index for an activity.
type ActivityRecord struct {
	ID             int64  `json:"id"`
	MissionID      int64  `json:"missionId"`
	MissionName    string `json:"missionName"`
	Type           string `json:"type"`
	Date           string `json:"date"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ObjectObserved string `json:"objectObserved"`
	Location       string `json:"location"`
	Equipment      string `json:"equipment"`
}
