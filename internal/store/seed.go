package store

import (
	"context"
	"fmt"
)

type seedMission struct {
	name        string
	category    string
	status      string
	startDate   string
	description string
}

type seedActivity struct {
	mission     int // index into seedMissions
	kind        string
	date        string
	title       string
	description string
	location    string
}

var seedMissions = []seedMission{
	{"Artemis I", "Lunar", StatusCompleted, "2022-11-16", "Uncrewed Moon mission to test Orion spacecraft"},
	{"Perseverance", "Mars Rover", StatusActive, "2020-07-30", "Mars rover searching for signs of ancient life"},
	{"James Webb Space Telescope", "Space Telescope", StatusActive, "2021-12-25", "Most powerful space telescope ever built"},
	{"Parker Solar Probe", "Heliophysics", StatusActive, "2018-08-12", "Studying the Sun's outer corona"},
	{"Hubble Space Telescope", "Space Telescope", StatusActive, "1990-04-24", "Iconic space telescope observing the universe"},
	{"International Space Station", "Space Station", StatusActive, "1998-11-20", "Habitable artificial satellite in low Earth orbit"},
	{"Voyager 1", "Interstellar", StatusActive, "1977-09-05", "First spacecraft to enter interstellar space"},
	{"Europa Clipper", "Planetary", StatusPlanned, "2024-10-10", "Mission to study Jupiter's moon Europa"},
}

var seedActivities = []seedActivity{
	{1, "image", "2025-01-15", "Jezero Crater panorama", "High-resolution panoramic image of Jezero Crater", "Mars - Jezero Crater"},
	{2, "observation", "2025-02-10", "Deep field galaxy survey", "Webb captures thousands of distant galaxies", "Deep Space"},
	{0, "maneuver", "2024-12-05", "Trans-lunar injection burn", "Critical engine burn to reach lunar orbit", "Earth-Moon Transfer"},
	{3, "instrument", "2025-03-20", "Solar corona measurement", "Temperature and density readings of solar corona", "Solar Corona"},
	{4, "image", "2025-01-28", "Carina Nebula observation", "Stunning image of star-forming region", "Carina Nebula"},
	{1, "sample", "2025-02-15", "Rock core drilling Site A", "Collected rock sample for analysis", "Mars - Sample Site A"},
	{5, "observation", "2025-03-10", "Earth atmospheric study", "Climate monitoring from ISS", "Low Earth Orbit"},
	{2, "image", "2025-04-01", "Exoplanet spectrum analysis", "Analyzing atmospheric composition of distant planet", "Exoplanet TRAPPIST-1e"},
	{1, "image", "2025-04-12", "Martian dust storm tracking", "Monitoring regional dust storm movement", "Mars - Syrtis Major"},
	{6, "instrument", "2025-03-25", "Interstellar plasma reading", "Measuring plasma density beyond solar system", "Interstellar Space"},
}

// SeedResult reports what Seed inserted.
type SeedResult struct {
	Missions   int
	Activities int
}

// Seed loads the sample missions and activities when the store holds no
// missions. It is a no-op otherwise.
func Seed(ctx context.Context, s Store) (SeedResult, error) {
	existing, err := s.ListMissions(ctx, MissionFilter{})
	if err != nil {
		return SeedResult{}, fmt.Errorf("count missions: %w", err)
	}
	if len(existing) > 0 {
		return SeedResult{}, nil
	}

	var result SeedResult
	ids := make([]int64, len(seedMissions))
	for i, item := range seedMissions {
		mission, err := s.CreateMission(ctx, MissionInput{
			Name:        &item.name,
			Category:    &item.category,
			Status:      &item.status,
			StartDate:   &item.startDate,
			Description: &item.description,
		})
		if err != nil {
			return result, fmt.Errorf("seed mission %q: %w", item.name, err)
		}
		ids[i] = mission.ID
		result.Missions++
	}

	for _, item := range seedActivities {
		missionID := ids[item.mission]
		if _, err := s.CreateActivity(ctx, ActivityInput{
			MissionID:   &missionID,
			Type:        &item.kind,
			Date:        &item.date,
			Title:       &item.title,
			Description: &item.description,
			Location:    &item.location,
		}); err != nil {
			return result, fmt.Errorf("seed activity %q: %w", item.title, err)
		}
		result.Activities++
	}
	return result, nil
}
