package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nidhogg/forecast-facts/internal/facts"
)

// Seed inserts ds when both fact tables are empty. It reports whether rows
// were written; a populated database is left untouched.
func (s *Store) Seed(ctx context.Context, ds facts.Dataset) (bool, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM political_events) + (SELECT COUNT(*) FROM gdp_records)`,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count facts: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	eventRows := make([][]interface{}, len(ds.Events))
	for i, e := range ds.Events {
		eventRows[i] = []interface{}{e.Year, e.Date, e.Title, e.Description, string(e.ImpactLevel)}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"political_events"},
		[]string{"year", "event_date", "title", "description", "impact_level"},
		pgx.CopyFromRows(eventRows),
	); err != nil {
		return false, fmt.Errorf("seed political_events: %w", err)
	}

	gdpRows := make([][]interface{}, len(ds.GDP))
	for i, g := range ds.GDP {
		gdpRows[i] = []interface{}{g.Year, string(g.Quarter), g.GrowthRate}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"gdp_records"},
		[]string{"year", "quarter", "growth_rate"},
		pgx.CopyFromRows(gdpRows),
	); err != nil {
		return false, fmt.Errorf("seed gdp_records: %w", err)
	}

	for year, notes := range ds.Notes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO gdp_notes (year, notes) VALUES ($1, $2)
			ON CONFLICT (year) DO UPDATE SET notes = EXCLUDED.notes`,
			year, notes,
		); err != nil {
			return false, fmt.Errorf("seed gdp_notes %d: %w", year, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	s.logger.Info("Fact tables seeded",
		zap.Int("events", len(ds.Events)),
		zap.Int("gdp_records", len(ds.GDP)))
	return true, nil
}

// LoadDataset reads every fact row in insertion order.
func (s *Store) LoadDataset(ctx context.Context) (facts.Dataset, error) {
	ds := facts.Dataset{Notes: make(map[int]string)}

	rows, err := s.db.Query(ctx, `
		SELECT year, COALESCE(event_date, ''), COALESCE(title, ''), description, impact_level
		FROM political_events ORDER BY id`)
	if err != nil {
		return ds, fmt.Errorf("list political_events: %w", err)
	}
	for rows.Next() {
		var e facts.PoliticalEvent
		var impact string
		if err := rows.Scan(&e.Year, &e.Date, &e.Title, &e.Description, &impact); err != nil {
			rows.Close()
			return ds, fmt.Errorf("scan political_event: %w", err)
		}
		e.ImpactLevel = facts.ImpactLevel(impact)
		ds.Events = append(ds.Events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ds, fmt.Errorf("list political_events: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT year, quarter, growth_rate FROM gdp_records ORDER BY id`)
	if err != nil {
		return ds, fmt.Errorf("list gdp_records: %w", err)
	}
	for rows.Next() {
		var g facts.GdpRecord
		var quarter string
		if err := rows.Scan(&g.Year, &quarter, &g.GrowthRate); err != nil {
			rows.Close()
			return ds, fmt.Errorf("scan gdp_record: %w", err)
		}
		g.Quarter = facts.Quarter(quarter)
		ds.GDP = append(ds.GDP, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ds, fmt.Errorf("list gdp_records: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT year, notes FROM gdp_notes`)
	if err != nil {
		return ds, fmt.Errorf("list gdp_notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var year int
		var notes string
		if err := rows.Scan(&year, &notes); err != nil {
			return ds, fmt.Errorf("scan gdp_note: %w", err)
		}
		ds.Notes[year] = notes
	}
	return ds, rows.Err()
}
