package store

import (
	"sort"
	"strconv"
	"strings"
)

// MissionFilter narrows a mission listing. Empty fields are ignored.
type MissionFilter struct {
	Status   string
	Category string
	Search   string
}

// ActivityFilter narrows an activity listing. A nil MissionID is ignored.
type ActivityFilter struct {
	MissionID *int64
	Type      string
	Search    string
}

func (f MissionFilter) IsZero() bool {
	return strings.TrimSpace(f.Status) == "" && strings.TrimSpace(f.Category) == "" && strings.TrimSpace(f.Search) == ""
}

// Match reports whether m satisfies every exact filter and, when a search term is
// set, contains it in one of the searchable fields.
func (f MissionFilter) Match(m Mission) bool {
	if !equalFold(f.Status, m.Status) || !equalFold(f.Category, m.Category) {
		return false
	}
	term := normalizeTerm(f.Search)
	if term == "" {
		return true
	}
	return containsAny(term, m.Name, m.Description, m.Category, m.Status)
}

func (f ActivityFilter) IsZero() bool {
	return f.MissionID == nil && strings.TrimSpace(f.Type) == "" && strings.TrimSpace(f.Search) == ""
}

// Match is Match for activities. missionName is the resolved name of the
// activity's mission, or empty when it no longer exists.
func (f ActivityFilter) Match(a Activity, missionName string) bool {
	if f.MissionID != nil && a.MissionID != *f.MissionID {
		return false
	}
	if !equalFold(f.Type, a.Type) {
		return false
	}
	term := normalizeTerm(f.Search)
	if term == "" {
		return true
	}
	return containsAny(term,
		a.Title,
		a.Description,
		a.ObjectObserved,
		a.Location,
		a.Equipment,
		a.Type,
		missionName,
		strconv.FormatInt(a.ID, 10),
	)
}

// SortMissions orders missions by id ascending.
func SortMissions(missions []Mission) {
	sort.Slice(missions, func(i, j int) bool {
		return missions[i].ID < missions[j].ID
	})
}

// SortActivities orders activities by date descending, then id descending.
// Dates are YYYY-MM-DD so string order is calendar order.
func SortActivities(activities []Activity) {
	sort.Slice(activities, func(i, j int) bool {
		if activities[i].Date != activities[j].Date {
			return activities[i].Date > activities[j].Date
		}
		return activities[i].ID > activities[j].ID
	})
}

func equalFold(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.EqualFold(filter, strings.TrimSpace(value))
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func containsAny(term string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
