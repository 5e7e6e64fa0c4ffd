package store

import "time"

const (
	DefaultMissionCategory = "General"
	DefaultMissionStatus   = "Active"
)

// Mission statuses used by convention. Status values are free-form strings and
// compared case-insensitively.
const (
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusPlanned   = "Planned"
)

type Mission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	StartDate   *string   `json:"startDate"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MissionSummary is the reduced mission view attached to activity reads.
type MissionSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

func (m Mission) Summary() MissionSummary {
	return MissionSummary{ID: m.ID, Name: m.Name, Category: m.Category, Status: m.Status}
}

type Activity struct {
	ID             int64           `json:"id"`
	MissionID      int64           `json:"missionId"`
	Type           string          `json:"type"`
	Date           string          `json:"date"`
	Time           *string         `json:"time"`
	Title          string          `json:"title"`
	ObjectObserved string          `json:"objectObserved"`
	Location       string          `json:"location"`
	Equipment      string          `json:"equipment"`
	Conditions     string          `json:"conditions"`
	Description    string          `json:"description"`
	Rating         *int            `json:"rating"`
	ImageURL       *string         `json:"imageUrl"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Mission        *MissionSummary `json:"mission,omitempty"`
}

// MissionInput carries the fields supplied by a caller. Nil means "not supplied":
// create falls back to defaults and update leaves the stored value untouched.
type MissionInput struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	StartDate   *string `json:"startDate"`
	Description *string `json:"description"`
}

type ActivityInput struct {
	MissionID      *int64  `json:"missionId"`
	Type           *string `json:"type"`
	Date           *string `json:"date"`
	Time           *string `json:"time"`
	Title          *string `json:"title"`
	ObjectObserved *string `json:"objectObserved"`
	Location       *string `json:"location"`
	Equipment      *string `json:"equipment"`
	Conditions     *string `json:"conditions"`
	Description    *string `json:"description"`
	Rating         *int    `json:"rating"`
	ImageURL       *string `json:"imageUrl"`
}

func newMission(id int64, in MissionInput, now time.Time) Mission {
	m := Mission{
		ID:        id,
		Category:  DefaultMissionCategory,
		Status:    DefaultMissionStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyMissionInput(&m, in)
	return m
}

func applyMissionInput(m *Mission, in MissionInput) {
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Category != nil {
		m.Category = *in.Category
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	if in.StartDate != nil {
		m.StartDate = nonEmpty(*in.StartDate)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
}

func newActivity(id int64, in ActivityInput, now time.Time) Activity {
	a := Activity{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyActivityInput(&a, in)
	return a
}

func applyActivityInput(a *Activity, in ActivityInput) {
	if in.MissionID != nil {
		a.MissionID = *in.MissionID
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.Date != nil {
		a.Date = *in.Date
	}
	if in.Time != nil {
		a.Time = nonEmpty(*in.Time)
	}
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.ObjectObserved != nil {
		a.ObjectObserved = *in.ObjectObserved
	}
	if in.Location != nil {
		a.Location = *in.Location
	}
	if in.Equipment != nil {
		a.Equipment = *in.Equipment
	}
	if in.Conditions != nil {
		a.Conditions = *in.Conditions
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Rating != nil {
		rating := *in.Rating
		a.Rating = &rating
	}
	if in.ImageURL != nil {
		a.ImageURL = nonEmpty(*in.ImageURL)
	}
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
