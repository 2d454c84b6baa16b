package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-dispatch/internal/apperr"
	"delivery-dispatch/internal/domain"
)

// PartnerRepo represents the delivery partner repository.
type PartnerRepo struct{ db *pgxpool.Pool }

// NewPartnerRepo creates a new PartnerRepo.
func NewPartnerRepo(db *pgxpool.Pool) *PartnerRepo { return &PartnerRepo{db: db} }

// Get - returns delivery partner by its ID.
func (r *PartnerRepo) Get(ctx context.Context, id string) (*domain.DeliveryPartner, error) {
	var p domain.DeliveryPartner
	err := r.db.QueryRow(ctx,
		`SELECT id, name, mobile, status FROM delivery_partners WHERE id=$1`, id,
	).Scan(&p.ID, &p.Name, &p.Mobile, &p.Status)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner %s: %w", id, err)
	}
	return &p, nil
}

// Create - registers a new delivery partner.
func (r *PartnerRepo) Create(ctx context.Context, p *domain.DeliveryPartner) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO delivery_partners(id, name, mobile, status) VALUES($1,$2,$3,$4)`,
		p.ID, p.Name, p.Mobile, string(p.Status))
	if err != nil {
		if IsDuplicate(err) {
			return apperr.ErrInvalid
		}
		return fmt.Errorf("create partner: %w", err)
	}
	return nil
}

// PartnerPosition is an available partner joined to its latest location
// sample. Raw material for broadcast candidate selection.
type PartnerPosition struct {
	Partner   domain.DeliveryPartner
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}

// FindAvailableWithLocation returns available partners that reported a
// location no older than since. Distance filtering happens in the service
// layer where the geo math lives.
func (r *PartnerRepo) FindAvailableWithLocation(ctx context.Context, since time.Time) ([]PartnerPosition, error) {
	rows, err := r.db.Query(ctx, `
        SELECT p.id, p.name, p.mobile, p.status, l.latitude, l.longitude, l.updated_at
        FROM delivery_partners p
        JOIN location_samples l ON l.actor_id = p.id
        WHERE p.status = $1 AND l.updated_at >= $2
        ORDER BY p.id
    `, string(domain.PartnerAvailable), since)
	if err != nil {
		return nil, fmt.Errorf("find available partners: %w", err)
	}
	defer rows.Close()

	var out []PartnerPosition
	for rows.Next() {
		var pp PartnerPosition
		if err := rows.Scan(&pp.Partner.ID, &pp.Partner.Name, &pp.Partner.Mobile, &pp.Partner.Status,
			&pp.Latitude, &pp.Longitude, &pp.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

// GetMany returns the subset of partners with the given ids.
func (r *PartnerRepo) GetMany(ctx context.Context, ids []string) ([]domain.DeliveryPartner, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, name, mobile, status FROM delivery_partners WHERE id = ANY($1) ORDER BY id
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("get partners: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DeliveryPartner, 0, len(ids))
	for rows.Next() {
		var p domain.DeliveryPartner
		if err := rows.Scan(&p.ID, &p.Name, &p.Mobile, &p.Status); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
