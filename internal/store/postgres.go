package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const missionColumns = `id, name, category, status, start_date::text, description, created_at, updated_at`

const activityColumns = `a.id, a.mission_id, a.type, a.date::text, a.time, a.title, a.object_observed,
	a.location, a.equipment, a.conditions, a.description, a.rating, a.image_url, a.created_at, a.updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMission(row rowScanner) (Mission, error) {
	var m Mission
	var startDate sql.NullString
	if err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Status, &startDate, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Mission{}, err
	}
	m.StartDate = fromNullString(startDate)
	return m, nil
}

func scanActivity(row rowScanner) (Activity, error) {
	var a Activity
	var timeOfDay, imageURL sql.NullString
	var rating sql.NullInt32
	if err := row.Scan(
		&a.ID, &a.MissionID, &a.Type, &a.Date, &timeOfDay, &a.Title, &a.ObjectObserved,
		&a.Location, &a.Equipment, &a.Conditions, &a.Description, &rating, &imageURL,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return Activity{}, err
	}
	a.Time = fromNullString(timeOfDay)
	a.ImageURL = fromNullString(imageURL)
	if rating.Valid {
		value := int(rating.Int32)
		a.Rating = &value
	}
	return a, nil
}

func (s *PostgresStore) CreateMission(ctx context.Context, in MissionInput) (Mission, error) {
	m := newMission(0, in, time.Time{})
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO missions (name, category, status, start_date, description)
		VALUES ($1, $2, $3, $4::date, $5)
		RETURNING `+missionColumns,
		m.Name, m.Category, m.Status, nullable(m.StartDate), m.Description,
	)
	created, err := scanMission(row)
	if err != nil {
		return Mission{}, fmt.Errorf("insert mission: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) ListMissions(ctx context.Context, filter MissionFilter) ([]Mission, error) {
	var where whereBuilder
	if status := strings.TrimSpace(filter.Status); status != "" {
		where.add("LOWER(TRIM(status)) = LOWER(" + where.arg(status) + ")")
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		where.add("LOWER(TRIM(category)) = LOWER(" + where.arg(category) + ")")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := where.arg(likePattern(term))
		where.add(fmt.Sprintf(`(name ILIKE %[1]s ESCAPE '\' OR description ILIKE %[1]s ESCAPE '\'
			OR category ILIKE %[1]s ESCAPE '\' OR status ILIKE %[1]s ESCAPE '\')`, pattern))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+missionColumns+` FROM missions`+where.sql()+` ORDER BY id ASC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	missions := make([]Mission, 0)
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missions: %w", err)
	}
	return missions, nil
}

func (s *PostgresStore) GetMission(ctx context.Context, id int64) (Mission, error) {
	m, err := scanMission(s.db.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Mission{}, ErrNotFound
	}
	if err != nil {
		return Mission{}, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) UpdateMission(ctx context.Context, id int64, in MissionInput) (Mission, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Mission{}, fmt.Errorf("begin mission update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanMission(tx.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Mission{}, ErrNotFound
	}
	if err != nil {
		return Mission{}, fmt.Errorf("lock mission: %w", err)
	}

	applyMissionInput(&current, in)
	updated, err := scanMission(tx.QueryRowContext(ctx, `
		UPDATE missions
		SET name=$2, category=$3, status=$4, start_date=$5::date, description=$6, updated_at=NOW()
		WHERE id=$1
		RETURNING `+missionColumns,
		id, current.Name, current.Category, current.Status, nullable(current.StartDate), current.Description,
	))
	if err != nil {
		return Mission{}, fmt.Errorf("update mission: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Mission{}, fmt.Errorf("commit mission update: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteMission(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM missions WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete mission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete mission rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) CreateActivity(ctx context.Context, in ActivityInput) (Activity, error) {
	a := newActivity(0, in, time.Time{})
	row := s.db.QueryRowContext(ctx, `
		WITH a AS (
			INSERT INTO activities (mission_id, type, date, time, title, object_observed, location,
				equipment, conditions, description, rating, image_url)
			VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING *
		)
		SELECT `+activityColumns+` FROM a`,
		a.MissionID, a.Type, a.Date, nullable(a.Time), a.Title, a.ObjectObserved, a.Location,
		a.Equipment, a.Conditions, a.Description, nullableInt(a.Rating), nullable(a.ImageURL),
	)
	created, err := scanActivity(row)
	if err != nil {
		return Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]Activity, error) {
	var where whereBuilder
	if filter.MissionID != nil {
		where.add("a.mission_id = " + where.arg(*filter.MissionID))
	}
	if activityType := strings.TrimSpace(filter.Type); activityType != "" {
		where.add("LOWER(TRIM(a.type)) = LOWER(" + where.arg(activityType) + ")")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := where.arg(likePattern(term))
		where.add(fmt.Sprintf(`(a.title ILIKE %[1]s ESCAPE '\' OR a.description ILIKE %[1]s ESCAPE '\'
			OR a.object_observed ILIKE %[1]s ESCAPE '\' OR a.location ILIKE %[1]s ESCAPE '\'
			OR a.equipment ILIKE %[1]s ESCAPE '\' OR a.type ILIKE %[1]s ESCAPE '\'
			OR COALESCE(m.name, '') ILIKE %[1]s ESCAPE '\' OR a.id::text LIKE %[1]s ESCAPE '\')`, pattern))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities a
		LEFT JOIN missions m ON m.id = a.mission_id`+where.sql()+`
		ORDER BY a.date DESC, a.id DESC`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

func (s *PostgresStore) GetActivity(ctx context.Context, id int64) (Activity, error) {
	a, err := scanActivity(s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities a WHERE a.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Activity{}, ErrNotFound
	}
	if err != nil {
		return Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) UpdateActivity(ctx context.Context, id int64, in ActivityInput) (Activity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Activity{}, fmt.Errorf("begin activity update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanActivity(tx.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities a WHERE a.id=$1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Activity{}, ErrNotFound
	}
	if err != nil {
		return Activity{}, fmt.Errorf("lock activity: %w", err)
	}

	applyActivityInput(&current, in)
	updated, err := scanActivity(tx.QueryRowContext(ctx, `
		WITH a AS (
			UPDATE activities
			SET mission_id=$2, type=$3, date=$4::date, time=$5, title=$6, object_observed=$7,
				location=$8, equipment=$9, conditions=$10, description=$11, rating=$12,
				image_url=$13, updated_at=NOW()
			WHERE id=$1
			RETURNING *
		)
		SELECT `+activityColumns+` FROM a`,
		id, current.MissionID, current.Type, current.Date, nullable(current.Time), current.Title,
		current.ObjectObserved, current.Location, current.Equipment, current.Conditions,
		current.Description, nullableInt(current.Rating), nullable(current.ImageURL),
	))
	if err != nil {
		return Activity{}, fmt.Errorf("update activity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Activity{}, fmt.Errorf("commit activity update: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteActivity(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete activity rows: %w", err)
	}
	return affected > 0, nil
}

// whereBuilder collects AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) arg(value any) string {
	w.args = append(w.args, value)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func fromNullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}
