// Package journal keeps an in-memory SQLite log of completed backend
// requests for the current process. Nothing is written to disk; the journal
// disappears when the dashboard exits.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/daviddao/nexus/internal/types"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so the at column sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Journal wraps an in-memory SQLite connection.
type Journal struct {
	conn *sql.DB
}

// FeatureStats aggregates journal rows for one feature.
type FeatureStats struct {
	Feature types.Feature `json:"feature"`
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Average time.Duration `json:"average"`
}

// Open creates an empty journal.
func Open() (*Journal, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// Every pooled connection to :memory: would get its own database.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Journal{conn: conn}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.conn != nil {
		return j.conn.Close()
	}
	return nil
}

// Record inserts an activity row, filling in ID and At when unset.
func (j *Journal) Record(a *types.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}
	_, err := j.conn.Exec(`
		INSERT INTO activity (id, feature, outcome, elapsed_ns, at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, string(a.Feature), a.Outcome, int64(a.Elapsed), a.At.UTC().Format(timeLayout),
	)
	return err
}

// Recent returns up to limit rows, newest first. limit <= 0 returns all.
func (j *Journal) Recent(limit int) ([]*types.Activity, error) {
	query := "SELECT id, feature, outcome, elapsed_ns, at FROM activity ORDER BY at DESC, rowid DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := j.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*types.Activity
	for rows.Next() {
		a := &types.Activity{}
		var feature, at string
		var elapsed int64
		if err := rows.Scan(&a.ID, &feature, &a.Outcome, &elapsed, &at); err != nil {
			return nil, err
		}
		a.Feature = types.Feature(feature)
		a.Elapsed = time.Duration(elapsed)
		if t, err := time.Parse(timeLayout, at); err == nil {
			a.At = t
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CountByOutcome returns row counts grouped by outcome.
func (j *Journal) CountByOutcome() (map[string]int, error) {
	rows, err := j.conn.Query("SELECT outcome, COUNT(*) FROM activity GROUP BY outcome")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{types.OutcomeSuccess: 0, types.OutcomeFailed: 0}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

// Stats returns per-feature aggregates ordered by feature name.
func (j *Journal) Stats() ([]FeatureStats, error) {
	rows, err := j.conn.Query(`
		SELECT feature,
		       SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END),
		       CAST(AVG(elapsed_ns) AS INTEGER)
		FROM activity
		GROUP BY feature
		ORDER BY feature`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FeatureStats
	for rows.Next() {
		var s FeatureStats
		var feature string
		var avg int64
		if err := rows.Scan(&feature, &s.Success, &s.Failed, &avg); err != nil {
			return nil, err
		}
		s.Feature = types.Feature(feature)
		s.Average = time.Duration(avg)
		result = append(result, s)
	}
	return result, rows.Err()
}
