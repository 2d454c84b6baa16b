package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"delivery-dispatch/internal/apperr"
	"delivery-dispatch/internal/domain"
)

// TxRepo is the transactional order/assignment repository. All row locks are
// taken with FOR UPDATE so concurrent mutations of the same record serialize.
type TxRepo struct {
	tx pgx.Tx
}

const shopOrderColumns = `id, order_id, shop_id, shop_lat, shop_lon, subtotal, status, assignment_id,
               COALESCE(delivery_otp, '')`

// GetShopOrderForUpdate locks and returns a shop order by id, or nil.
func (r *TxRepo) GetShopOrderForUpdate(ctx context.Context, orderID, shopOrderID string) (*domain.ShopOrder, error) {
	row := r.tx.QueryRow(ctx, `
        SELECT `+shopOrderColumns+`
        FROM shop_orders WHERE order_id=$1 AND id=$2
        FOR UPDATE
    `, orderID, shopOrderID)
	so, err := scanShopOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock shop order %s: %w", shopOrderID, err)
	}
	return so, nil
}

// GetShopOrderByShopForUpdate locks and returns the shop order of one shop
// within an order, or nil.
func (r *TxRepo) GetShopOrderByShopForUpdate(ctx context.Context, orderID, shopID string) (*domain.ShopOrder, error) {
	row := r.tx.QueryRow(ctx, `
        SELECT `+shopOrderColumns+`
        FROM shop_orders WHERE order_id=$1 AND shop_id=$2
        FOR UPDATE
    `, orderID, shopID)
	so, err := scanShopOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock shop order for shop %s: %w", shopID, err)
	}
	return so, nil
}

// UpdateShopOrderStatus - update shop order status.
func (r *TxRepo) UpdateShopOrderStatus(ctx context.Context, shopOrderID string, status domain.ShopOrderStatus) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE shop_orders SET status = $2, updated_at = now() WHERE id = $1
    `, shopOrderID, string(status))
	if err != nil {
		return fmt.Errorf("update shop order status %s: %w", shopOrderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("shop order %s not found", shopOrderID)
	}
	return nil
}

// SetShopOrderOtp stores the delivery code for a shop order.
func (r *TxRepo) SetShopOrderOtp(ctx context.Context, shopOrderID, code string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE shop_orders SET delivery_otp = $2, updated_at = now() WHERE id = $1
    `, shopOrderID, code)
	if err != nil {
		return fmt.Errorf("set otp for shop order %s: %w", shopOrderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("shop order %s not found", shopOrderID)
	}
	return nil
}

// ClearShopOrderOtp invalidates the delivery code after a successful handoff.
func (r *TxRepo) ClearShopOrderOtp(ctx context.Context, shopOrderID string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE shop_orders SET delivery_otp = NULL, updated_at = now() WHERE id = $1
    `, shopOrderID)
	if err != nil {
		return fmt.Errorf("clear otp for shop order %s: %w", shopOrderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("shop order %s not found", shopOrderID)
	}
	return nil
}

// SetShopOrderAssignment links an assignment to its shop order.
func (r *TxRepo) SetShopOrderAssignment(ctx context.Context, shopOrderID, assignmentID string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE shop_orders SET assignment_id = $2, updated_at = now() WHERE id = $1
    `, shopOrderID, assignmentID)
	if err != nil {
		return fmt.Errorf("link assignment to shop order %s: %w", shopOrderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("shop order %s not found", shopOrderID)
	}
	return nil
}

const assignmentColumns = `id, order_id, shop_id, shop_order_id, status, COALESCE(assigned_to, ''),
               distance_km, created_at, accepted_at, completed_at`

// ActiveAssignmentByShopOrder returns the non-completed assignment for a
// shop order, or nil. The partial unique index on shop_order_id guarantees
// at most one.
func (r *TxRepo) ActiveAssignmentByShopOrder(ctx context.Context, shopOrderID string) (*domain.Assignment, error) {
	row := r.tx.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE shop_order_id = $1 AND status IN ($2, $3)
    `, shopOrderID, string(domain.AssignmentBroadcasted), string(domain.AssignmentAssigned))
	a, err := scanAssignment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("active assignment for shop order %s: %w", shopOrderID, err)
	}
	return a, nil
}

// GetAssignment returns an assignment by id, or nil.
func (r *TxRepo) GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	row := r.tx.QueryRow(ctx, `
        SELECT `+assignmentColumns+` FROM assignments WHERE id = $1
    `, assignmentID)
	a, err := scanAssignment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assignment %s: %w", assignmentID, err)
	}
	return a, nil
}

// InsertAssignment - insert a new broadcasted assignment.
func (r *TxRepo) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := r.tx.Exec(ctx, `
        INSERT INTO assignments (id, order_id, shop_id, shop_order_id, status, distance_km, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, a.ID, a.OrderID, a.ShopID, a.ShopOrderID, string(a.Status), a.DistanceKm, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert assignment %s: %w", a.ID, err)
	}
	return nil
}

// AcceptAssignment atomically claims a broadcasted assignment for a partner.
// The status predicate in the WHERE clause is what resolves concurrent
// accept attempts to exactly one winner.
func (r *TxRepo) AcceptAssignment(ctx context.Context, assignmentID, partnerID string, at time.Time) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE assignments
        SET status = $2, assigned_to = $3, accepted_at = $4
        WHERE id = $1 AND status = $5
    `, assignmentID, string(domain.AssignmentAssigned), partnerID, at, string(domain.AssignmentBroadcasted))
	if err != nil {
		return false, fmt.Errorf("accept assignment %s: %w", assignmentID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// CompleteAssignment marks an accepted assignment completed.
func (r *TxRepo) CompleteAssignment(ctx context.Context, assignmentID string, at time.Time) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE assignments
        SET status = $2, completed_at = $3
        WHERE id = $1 AND status = $4
    `, assignmentID, string(domain.AssignmentCompleted), at, string(domain.AssignmentAssigned))
	if err != nil {
		return fmt.Errorf("complete assignment %s: %w", assignmentID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("assignment %s not in accepted state", assignmentID)
	}
	return nil
}

// UpdatePartnerStatus - update delivery partner availability.
func (r *TxRepo) UpdatePartnerStatus(ctx context.Context, partnerID string, status domain.PartnerStatus) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE delivery_partners SET status = $2, updated_at = now() WHERE id = $1
    `, partnerID, string(status))
	if err != nil {
		return fmt.Errorf("update partner status %s: %w", partnerID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("partner %s: %w", partnerID, apperr.ErrNotFound)
	}
	return nil
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := row.Scan(&a.ID, &a.OrderID, &a.ShopID, &a.ShopOrderID, &a.Status, &a.AssignedTo,
		&a.DistanceKm, &a.CreatedAt, &a.AcceptedAt, &a.CompletedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
