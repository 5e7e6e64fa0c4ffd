package store

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(value string) *string { return &value }
func intPtr(value int) *int       { return &value }
func idPtr(value int64) *int64    { return &value }

// runStoreContract exercises the behavior every backing must share. newStore
// must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("mission defaults", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		mission, err := s.CreateMission(ctx, MissionInput{Name: strPtr("Test Mission")})
		require.NoError(t, err)
		assert.NotZero(t, mission.ID)
		assert.Equal(t, "Test Mission", mission.Name)
		assert.Equal(t, DefaultMissionCategory, mission.Category)
		assert.Equal(t, DefaultMissionStatus, mission.Status)
		assert.Nil(t, mission.StartDate)
		assert.Equal(t, "", mission.Description)
		assert.False(t, mission.CreatedAt.IsZero())
	})

	t.Run("ids are monotonic and never reused", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var last int64
		for i := 0; i < 3; i++ {
			mission, err := s.CreateMission(ctx, MissionInput{Name: strPtr("m" + strconv.Itoa(i))})
			require.NoError(t, err)
			assert.Greater(t, mission.ID, last)
			last = mission.ID
		}

		deleted, err := s.DeleteMission(ctx, last)
		require.NoError(t, err)
		require.True(t, deleted)

		next, err := s.CreateMission(ctx, MissionInput{Name: strPtr("after delete")})
		require.NoError(t, err)
		assert.Greater(t, next.ID, last)

		first, err := s.CreateActivity(ctx, activityInput(next.ID, "image", "2025-01-01", "first"))
		require.NoError(t, err)
		_, err = s.DeleteActivity(ctx, first.ID)
		require.NoError(t, err)
		second, err := s.CreateActivity(ctx, activityInput(next.ID, "image", "2025-01-01", "second"))
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("empty update only refreshes updatedAt", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateMission(ctx, MissionInput{
			Name:        strPtr("Hubble"),
			Category:    strPtr("Space Telescope"),
			StartDate:   strPtr("1990-04-24"),
			Description: strPtr("Iconic"),
		})
		require.NoError(t, err)

		updated, err := s.UpdateMission(ctx, created.ID, MissionInput{})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.Name, updated.Name)
		assert.Equal(t, created.Category, updated.Category)
		assert.Equal(t, created.Status, updated.Status)
		assert.Equal(t, created.StartDate, updated.StartDate)
		assert.Equal(t, created.Description, updated.Description)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		activity, err := s.CreateActivity(ctx, ActivityInput{
			MissionID: idPtr(created.ID),
			Type:      strPtr("image"),
			Date:      strPtr("2025-01-01"),
			Title:     strPtr("Pillars"),
			Rating:    intPtr(4),
			Time:      strPtr("21:30"),
		})
		require.NoError(t, err)

		sameActivity, err := s.UpdateActivity(ctx, activity.ID, ActivityInput{})
		require.NoError(t, err)
		assert.Equal(t, activity.Title, sameActivity.Title)
		assert.Equal(t, activity.Date, sameActivity.Date)
		assert.Equal(t, activity.Rating, sameActivity.Rating)
		assert.Equal(t, activity.Time, sameActivity.Time)
		assert.True(t, activity.CreatedAt.Equal(sameActivity.CreatedAt))
	})

	t.Run("partial update changes only supplied fields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateMission(ctx, MissionInput{Name: strPtr("Europa Clipper"), Status: strPtr(StatusPlanned)})
		require.NoError(t, err)

		updated, err := s.UpdateMission(ctx, created.ID, MissionInput{Status: strPtr(StatusActive)})
		require.NoError(t, err)
		assert.Equal(t, StatusActive, updated.Status)
		assert.Equal(t, "Europa Clipper", updated.Name)

		fetched, err := s.GetMission(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, fetched.Status)
	})

	t.Run("empty start date clears it", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateMission(ctx, MissionInput{Name: strPtr("Juno"), StartDate: strPtr("2011-08-05")})
		require.NoError(t, err)
		require.NotNil(t, created.StartDate)

		updated, err := s.UpdateMission(ctx, created.ID, MissionInput{StartDate: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, updated.StartDate)

		fetched, err := s.GetMission(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, fetched.StartDate)
		assert.Equal(t, "Juno", fetched.Name)
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		mission, err := s.CreateMission(ctx, MissionInput{Name: strPtr("Voyager 1")})
		require.NoError(t, err)
		activity, err := s.CreateActivity(ctx, activityInput(mission.ID, "instrument", "2025-03-25", "Plasma"))
		require.NoError(t, err)

		deleted, err := s.DeleteActivity(ctx, activity.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = s.GetActivity(ctx, activity.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		deleted, err = s.DeleteActivity(ctx, activity.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = s.DeleteMission(ctx, mission.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = s.GetMission(ctx, mission.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing records", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetMission(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.UpdateMission(ctx, 999, MissionInput{Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.UpdateActivity(ctx, 999, ActivityInput{Title: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
		deleted, err := s.DeleteMission(ctx, 999)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("mission delete does not cascade", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		mission, err := s.CreateMission(ctx, MissionInput{Name: strPtr("Artemis I")})
		require.NoError(t, err)
		activity, err := s.CreateActivity(ctx, activityInput(mission.ID, "maneuver", "2024-12-05", "TLI burn"))
		require.NoError(t, err)

		_, err = s.DeleteMission(ctx, mission.ID)
		require.NoError(t, err)

		fetched, err := s.GetActivity(ctx, activity.ID)
		require.NoError(t, err)
		assert.Equal(t, mission.ID, fetched.MissionID)
	})

	t.Run("activity optional fields default", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		activity, err := s.CreateActivity(ctx, activityInput(1, "image", "2025-01-01", "X"))
		require.NoError(t, err)
		assert.Equal(t, "2025-01-01", activity.Date)
		assert.Nil(t, activity.Time)
		assert.Nil(t, activity.Rating)
		assert.Nil(t, activity.ImageURL)
		assert.Equal(t, "", activity.Description)
		assert.Equal(t, "", activity.Equipment)
		assert.Nil(t, activity.Mission)
	})

	t.Run("missions are ordered and filtered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
			_, err := s.CreateMission(ctx, MissionInput{Name: strPtr(name), Category: strPtr("Telescope")})
			require.NoError(t, err)
		}
		_, err := s.CreateMission(ctx, MissionInput{Name: strPtr("Delta"), Status: strPtr(StatusCompleted)})
		require.NoError(t, err)

		all, err := s.ListMissions(ctx, MissionFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i-1].ID, all[i].ID)
		}

		completed, err := s.ListMissions(ctx, MissionFilter{Status: "completed"})
		require.NoError(t, err)
		require.Len(t, completed, 1)
		assert.Equal(t, "Delta", completed[0].Name)

		telescopes, err := s.ListMissions(ctx, MissionFilter{Category: "TELESCOPE", Search: "rav"})
		require.NoError(t, err)
		require.Len(t, telescopes, 1)
		assert.Equal(t, "Bravo", telescopes[0].Name)

		none, err := s.ListMissions(ctx, MissionFilter{Status: "Planned"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("activities are ordered by date then id descending", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a1, err := s.CreateActivity(ctx, activityInput(1, "image", "2025-01-15", "a1"))
		require.NoError(t, err)
		a2, err := s.CreateActivity(ctx, activityInput(1, "image", "2025-04-12", "a2"))
		require.NoError(t, err)
		a3, err := s.CreateActivity(ctx, activityInput(2, "image", "2025-01-15", "a3"))
		require.NoError(t, err)

		all, err := s.ListActivities(ctx, ActivityFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{a2.ID, a3.ID, a1.ID}, activityIDs(all))

		byMission, err := s.ListActivities(ctx, ActivityFilter{MissionID: idPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, []int64{a2.ID, a1.ID}, activityIDs(byMission))

		none, err := s.ListActivities(ctx, ActivityFilter{MissionID: idPtr(0)})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("activity search", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		perseverance, err := s.CreateMission(ctx, MissionInput{Name: strPtr("Perseverance")})
		require.NoError(t, err)
		webb, err := s.CreateMission(ctx, MissionInput{Name: strPtr("James Webb Space Telescope")})
		require.NoError(t, err)

		storm, err := s.CreateActivity(ctx, activityInput(perseverance.ID, "image", "2025-04-12", "Mars dust storm tracking"))
		require.NoError(t, err)
		deepField, err := s.CreateActivity(ctx, ActivityInput{
			MissionID:      idPtr(webb.ID),
			Type:           strPtr("observation"),
			Date:           strPtr("2025-02-10"),
			Title:          strPtr("Deep field galaxy survey"),
			ObjectObserved: strPtr("SMACS 0723"),
			Equipment:      strPtr("NIRCam"),
		})
		require.NoError(t, err)

		found, err := s.ListActivities(ctx, ActivityFilter{Search: "mars"})
		require.NoError(t, err)
		assert.Equal(t, []int64{storm.ID}, activityIDs(found))

		found, err = s.ListActivities(ctx, ActivityFilter{Search: "PERSEVER"})
		require.NoError(t, err)
		assert.Equal(t, []int64{storm.ID}, activityIDs(found), "mission name is searchable")

		found, err = s.ListActivities(ctx, ActivityFilter{Search: "nircam"})
		require.NoError(t, err)
		assert.Equal(t, []int64{deepField.ID}, activityIDs(found))

		found, err = s.ListActivities(ctx, ActivityFilter{Search: strconv.FormatInt(deepField.ID, 10)})
		require.NoError(t, err)
		assert.Contains(t, activityIDs(found), deepField.ID)

		found, err = s.ListActivities(ctx, ActivityFilter{Search: "galaxy", Type: "IMAGE"})
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = s.ListActivities(ctx, ActivityFilter{Search: "100%"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func activityInput(missionID int64, kind, date, title string) ActivityInput {
	return ActivityInput{
		MissionID: idPtr(missionID),
		Type:      strPtr(kind),
		Date:      strPtr(date),
		Title:     strPtr(title),
	}
}

func activityIDs(activities []Activity) []int64 {
	ids := make([]int64, 0, len(activities))
	for _, activity := range activities {
		ids = append(ids, activity.ID)
	}
	return ids
}
