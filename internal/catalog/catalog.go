// Package catalog records one summary row per stored route snapshot in
// Postgres, so snapshots can be browsed without reading every object.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no row matches the requested key.
var ErrNotFound = errors.New("snapshot not found")

// MaxLimit caps the number of rows a listing returns.
const MaxLimit = 500

// db is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Snapshot summarizes one stored route response.
type Snapshot struct {
	Key        string    `json:"key"`
	Route      string    `json:"route"`
	CapturedAt time.Time `json:"captured_at"`
	Shape      string    `json:"shape"`
	Points     int       `json:"points"`

	// PathMeters is the haversine length of the resolved path.
	PathMeters float64 `json:"path_meters"`

	// Provider summary of the first route; nil when the response has none.
	LengthMeters        *int64 `json:"length_meters,omitempty"`
	TravelTimeSeconds   *int64 `json:"travel_time_seconds,omitempty"`
	TrafficDelaySeconds *int64 `json:"traffic_delay_seconds,omitempty"`

	IndexedAt time.Time `json:"indexed_at"`
}

// Repo reads and writes the route_snapshots table.
type Repo struct {
	db db
}

// NewRepo returns a Repo on db. Pass a *pgxpool.Pool in production and a
// pgx.Tx in tests.
func NewRepo(db db) *Repo {
	return &Repo{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS route_snapshots (
		key                   TEXT PRIMARY KEY,
		route                 TEXT NOT NULL,
		captured_at           TIMESTAMPTZ NOT NULL,
		shape                 TEXT NOT NULL,
		points                INTEGER NOT NULL,
		path_meters           DOUBLE PRECISION NOT NULL,
		length_meters         BIGINT,
		travel_time_seconds   BIGINT,
		traffic_delay_seconds BIGINT,
		indexed_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS route_snapshots_route_captured_idx
		ON route_snapshots (route, captured_at DESC);`

// Migrate creates the table and its index when they do not exist yet.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("catalog.Repo.Migrate: %w", err)
	}
	return nil
}

const columns = `key, route, captured_at, shape, points, path_meters,
		length_meters, travel_time_seconds, traffic_delay_seconds, indexed_at`

// Upsert inserts s, or replaces the row of a snapshot that was overwritten
// in storage under the same key.
func (r *Repo) Upsert(ctx context.Context, s Snapshot) (Snapshot, error) {
	q := `
		INSERT INTO route_snapshots (key, route, captured_at, shape, points, path_meters,
			length_meters, travel_time_seconds, traffic_delay_seconds)
		VALUES (@key, @route, @captured_at, @shape, @points, @path_meters,
			@length_meters, @travel_time_seconds, @traffic_delay_seconds)
		ON CONFLICT (key) DO UPDATE SET
			route                 = EXCLUDED.route,
			captured_at           = EXCLUDED.captured_at,
			shape                 = EXCLUDED.shape,
			points                = EXCLUDED.points,
			path_meters           = EXCLUDED.path_meters,
			length_meters         = EXCLUDED.length_meters,
			travel_time_seconds   = EXCLUDED.travel_time_seconds,
			traffic_delay_seconds = EXCLUDED.traffic_delay_seconds,
			indexed_at            = now()
		RETURNING ` + columns

	args := pgx.NamedArgs{
		"key":                   s.Key,
		"route":                 s.Route,
		"captured_at":           s.CapturedAt,
		"shape":                 s.Shape,
		"points":                s.Points,
		"path_meters":           s.PathMeters,
		"length_meters":         s.LengthMeters, // nil becomes NULL
		"travel_time_seconds":   s.TravelTimeSeconds,
		"traffic_delay_seconds": s.TrafficDelaySeconds,
	}

	out, err := scanSnapshot(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog.Repo.Upsert: %w", err)
	}
	return out, nil
}

// Get returns the row of key, or ErrNotFound.
func (r *Repo) Get(ctx context.Context, key string) (Snapshot, error) {
	q := `SELECT ` + columns + ` FROM route_snapshots WHERE key = @key`

	out, err := scanSnapshot(r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}))
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog.Repo.Get: %w", err)
	}
	return out, nil
}

// Latest returns up to limit snapshots of route, newest capture first.
func (r *Repo) Latest(ctx context.Context, route string, limit int) ([]Snapshot, error) {
	q := `
		SELECT ` + columns + `
		FROM route_snapshots
		WHERE route = @route
		ORDER BY captured_at DESC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"route": route, "limit": ClampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("catalog.Repo.Latest: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog.Repo.Latest: scan: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog.Repo.Latest: rows: %w", err)
	}
	return snapshots, nil
}

// ClampLimit keeps limit within 1..MaxLimit; zero or negative means 20.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (Snapshot, error) {
	var out Snapshot
	err := s.Scan(
		&out.Key, &out.Route, &out.CapturedAt, &out.Shape, &out.Points, &out.PathMeters,
		&out.LengthMeters, &out.TravelTimeSeconds, &out.TrafficDelaySeconds, &out.IndexedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	out.CapturedAt = out.CapturedAt.UTC()
	out.IndexedAt = out.IndexedAt.UTC()
	return out, nil
}
