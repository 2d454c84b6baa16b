package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-dispatch/internal/domain"
)

// AssignmentRepo serves non-transactional assignment reads.
type AssignmentRepo struct {
	db *pgxpool.Pool
}

// NewAssignmentRepo creates a new AssignmentRepo.
func NewAssignmentRepo(db *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// Get returns an assignment by id, or nil.
func (r *AssignmentRepo) Get(ctx context.Context, id string) (*domain.Assignment, error) {
	row := r.db.QueryRow(ctx, `
        SELECT `+assignmentColumns+` FROM assignments WHERE id = $1
    `, id)
	a, err := scanAssignment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assignment %s: %w", id, err)
	}
	return a, nil
}

// ListOpen returns all broadcasted assignments awaiting acceptance.
func (r *AssignmentRepo) ListOpen(ctx context.Context) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments WHERE status = $1 ORDER BY created_at
    `, string(domain.AssignmentBroadcasted))
	if err != nil {
		return nil, fmt.Errorf("list open assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ListActiveForPartner returns assignments currently held by a partner.
func (r *AssignmentRepo) ListActiveForPartner(ctx context.Context, partnerID string) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments WHERE assigned_to = $1 AND status = $2 ORDER BY accepted_at
    `, partnerID, string(domain.AssignmentAssigned))
	if err != nil {
		return nil, fmt.Errorf("list assignments for partner %s: %w", partnerID, err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
