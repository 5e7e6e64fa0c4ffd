package search

import "spacetrack/api/internal/store"

func MissionRecordFrom(m store.Mission) MissionRecord {
	r := MissionRecord{
		ID:          m.ID,
		Name:        m.Name,
		Category:    m.Category,
		Status:      m.Status,
		Description: m.Description,
	}
	if m.StartDate != nil {
		r.StartDate = *m.StartDate
	}
	return r
}

// ActivityRecordFrom flattens an activity for indexing. missionName may be
// empty when the mission no longer exists.
func ActivityRecordFrom(a store.Activity, missionName string) ActivityRecord {
	return ActivityRecord{
		ID:             a.ID,
		MissionID:      a.MissionID,
		MissionName:    missionName,
		Type:           a.Type,
		Date:           a.Date,
		Title:          a.Title,
		Description:    a.Description,
		ObjectObserved: a.ObjectObserved,
		Location:       a.Location,
		Equipment:      a.Equipment,
	}
}
