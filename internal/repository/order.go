package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/ports/ordertx"
)

// OrderRepo represents the order aggregate repository.
type OrderRepo struct {
	db *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create persists an order with its shop orders and line items atomically.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
        INSERT INTO orders (id, customer_id, payment_method, address_text, address_lat, address_lon,
                            delivery_fee, tip, total, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, o.ID, o.CustomerID, string(o.PaymentMethod), o.Address.Text, o.Address.Latitude, o.Address.Longitude,
		o.DeliveryFee, o.Tip, o.Total, o.CreatedAt)
	if err != nil {
		// duplicate ids surface to the caller via IsDuplicate
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}

	for i := range o.ShopOrders {
		so := &o.ShopOrders[i]
		_, err = tx.Exec(ctx, `
            INSERT INTO shop_orders (id, order_id, shop_id, shop_lat, shop_lon, subtotal, status)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
        `, so.ID, o.ID, so.ShopID, so.ShopLat, so.ShopLon, so.Subtotal, string(so.Status))
		if err != nil {
			return fmt.Errorf("insert shop order %s: %w", so.ID, err)
		}
		for _, it := range so.Items {
			_, err = tx.Exec(ctx, `
                INSERT INTO order_items (shop_order_id, item_id, name, quantity, unit_price)
                VALUES ($1,$2,$3,$4,$5)
            `, so.ID, it.ItemID, it.Name, it.Quantity, it.UnitPrice)
			if err != nil {
				return fmt.Errorf("insert order item %s: %w", it.ItemID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %s: %w", o.ID, err)
	}
	return nil
}

// Get returns an order with its shop orders and line items, or nil.
func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.QueryRow(ctx, `
        SELECT id, customer_id, payment_method, address_text, address_lat, address_lon,
               delivery_fee, tip, total, created_at
        FROM orders WHERE id=$1
    `, id).Scan(&o.ID, &o.CustomerID, &o.PaymentMethod, &o.Address.Text, &o.Address.Latitude,
		&o.Address.Longitude, &o.DeliveryFee, &o.Tip, &o.Total, &o.CreatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	shopOrders, err := r.shopOrdersFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.ShopOrders = shopOrders
	return &o, nil
}

// GetShopOrder returns one shop order with its items, or nil.
func (r *OrderRepo) GetShopOrder(ctx context.Context, orderID, shopOrderID string) (*domain.ShopOrder, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, order_id, shop_id, shop_lat, shop_lon, subtotal, status, assignment_id,
               COALESCE(delivery_otp, '')
        FROM shop_orders WHERE order_id=$1 AND id=$2
    `, orderID, shopOrderID)
	so, err := scanShopOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shop order %s: %w", shopOrderID, err)
	}
	if err := r.attachItems(ctx, so); err != nil {
		return nil, err
	}
	return so, nil
}

// ListByCustomer returns orders for one customer, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID string, limit *int) ([]domain.Order, error) {
	q := `
        SELECT id, customer_id, payment_method, address_text, address_lat, address_lon,
               delivery_fee, tip, total, created_at
        FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`
	args := []any{customerID}
	if limit != nil {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, *limit)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.PaymentMethod, &o.Address.Text, &o.Address.Latitude,
			&o.Address.Longitude, &o.DeliveryFee, &o.Tip, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		shopOrders, err := r.shopOrdersFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ShopOrders = shopOrders
	}
	return out, nil
}

// ListByShop returns orders that contain a shop order of one shop, newest
// first.
func (r *OrderRepo) ListByShop(ctx context.Context, shopID string, limit *int) ([]domain.Order, error) {
	q := `
        SELECT o.id, o.customer_id, o.payment_method, o.address_text, o.address_lat, o.address_lon,
               o.delivery_fee, o.tip, o.total, o.created_at
        FROM orders o
        JOIN shop_orders so ON so.order_id = o.id
        WHERE so.shop_id = $1 ORDER BY o.created_at DESC`
	args := []any{shopID}
	if limit != nil {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, *limit)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.PaymentMethod, &o.Address.Text, &o.Address.Latitude,
			&o.Address.Longitude, &o.DeliveryFee, &o.Tip, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		shopOrders, err := r.shopOrdersFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ShopOrders = shopOrders
	}
	return out, nil
}

func (r *OrderRepo) shopOrdersFor(ctx context.Context, orderID string) ([]domain.ShopOrder, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, order_id, shop_id, shop_lat, shop_lon, subtotal, status, assignment_id,
               COALESCE(delivery_otp, '')
        FROM shop_orders WHERE order_id=$1 ORDER BY id
    `, orderID)
	if err != nil {
		return nil, fmt.Errorf("list shop orders for %s: %w", orderID, err)
	}
	defer rows.Close()

	var out []domain.ShopOrder
	for rows.Next() {
		so, err := scanShopOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *so)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.attachItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepo) attachItems(ctx context.Context, so *domain.ShopOrder) error {
	rows, err := r.db.Query(ctx, `
        SELECT item_id, name, quantity, unit_price
        FROM order_items WHERE shop_order_id=$1 ORDER BY id
    `, so.ID)
	if err != nil {
		return fmt.Errorf("list items for shop order %s: %w", so.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		so.Items = append(so.Items, it)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShopOrder(row rowScanner) (*domain.ShopOrder, error) {
	var so domain.ShopOrder
	if err := row.Scan(&so.ID, &so.OrderID, &so.ShopID, &so.ShopLat, &so.ShopLon,
		&so.Subtotal, &so.Status, &so.AssignmentID, &so.DeliveryOtp); err != nil {
		return nil, err
	}
	return &so, nil
}

// WithTx opens a transaction and executes fn within it.
func (r *OrderRepo) WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
