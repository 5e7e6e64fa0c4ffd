package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; the API cannot serve anything without Postgres.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across missions and activities using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	tsQuery := "plainto_tsquery('english', $1)"
	var subQueries []string

	if q.wants(ResultMission) {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'mission'::text AS type, m.id, m.name AS title,
				ts_headline('english', coalesce(m.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				0::bigint AS mission_id,
				ts_rank(m.fts, %s) AS rank
			FROM missions m
			WHERE m.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.wants(ResultActivity) {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'activity'::text AS type, a.id, a.title,
				ts_headline('english', coalesce(a.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				a.mission_id,
				ts_rank(a.fts, %s) AS rank
			FROM activities a
			WHERE a.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}
	union := strings.Join(subQueries, " UNION ALL ")

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub", union)
	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, mission_id
		FROM (%s) sub
		ORDER BY rank DESC, id DESC
		LIMIT %d`, union, q.PageSize())

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, q.Text).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, q.Text)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var kind string
		if err := rows.Scan(&kind, &r.ID, &r.Title, &r.Snippet, &r.MissionID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(kind)
		results = append(results, r)
	}
	return results, total, rows.Err()
}
