// Package store holds the mission and activity records behind one contract with
// memory, PostgreSQL and Redis backings.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// MissionStore is the mission half of the entity store contract. Missions are
// listed by id ascending.
type MissionStore interface {
	CreateMission(ctx context.Context, in MissionInput) (Mission, error)
	ListMissions(ctx context.Context, filter MissionFilter) ([]Mission, error)
	GetMission(ctx context.Context, id int64) (Mission, error)
	UpdateMission(ctx context.Context, id int64, in MissionInput) (Mission, error)
	DeleteMission(ctx context.Context, id int64) (bool, error)
}

// ActivityStore is the activity half of the entity store contract. Activities
// are listed by date descending, then id descending. Stores never check that the
// referenced mission exists; callers resolve it first.
type ActivityStore interface {
	CreateActivity(ctx context.Context, in ActivityInput) (Activity, error)
	ListActivities(ctx context.Context, filter ActivityFilter) ([]Activity, error)
	GetActivity(ctx context.Context, id int64) (Activity, error)
	UpdateActivity(ctx context.Context, id int64, in ActivityInput) (Activity, error)
	DeleteActivity(ctx context.Context, id int64) (bool, error)
}

type Store interface {
	MissionStore
	ActivityStore
	Ping(ctx context.Context) error
}
