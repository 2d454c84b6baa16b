package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-dispatch/internal/domain"
)

// LocationRepo holds last-known coordinates per actor. One row per actor,
// overwritten on every report.
type LocationRepo struct{ db *pgxpool.Pool }

// NewLocationRepo creates a new LocationRepo.
func NewLocationRepo(db *pgxpool.Pool) *LocationRepo { return &LocationRepo{db: db} }

// Upsert stores a location sample; last write wins.
func (r *LocationRepo) Upsert(ctx context.Context, s domain.LocationSample) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO location_samples (actor_id, latitude, longitude, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (actor_id) DO UPDATE
        SET latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            updated_at = EXCLUDED.updated_at
    `, s.ActorID, s.Latitude, s.Longitude, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert location for %s: %w", s.ActorID, err)
	}
	return nil
}

// Get returns the latest sample for an actor, or nil when none was ever
// reported.
func (r *LocationRepo) Get(ctx context.Context, actorID string) (*domain.LocationSample, error) {
	var s domain.LocationSample
	err := r.db.QueryRow(ctx, `
        SELECT actor_id, latitude, longitude, updated_at FROM location_samples WHERE actor_id=$1
    `, actorID).Scan(&s.ActorID, &s.Latitude, &s.Longitude, &s.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location for %s: %w", actorID, err)
	}
	return &s, nil
}
