package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supplylink/supplylink/internal/shared"
)

// Repository defines persistence for purchase orders and their items. The
// order header and its items are written independently so a header survives
// a failed item write.
type Repository interface {
	CreateOrder(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error)
	AddItem(ctx context.Context, item Item) (Item, error)
	Get(ctx context.Context, id string) (PurchaseOrder, error)
	List(ctx context.Context, vendorID string) ([]PurchaseOrder, error)
	// CompareAndSetStatus moves the order to status only when the stored
	// version matches. stampDelivered additionally sets actual_delivery_date
	// if it is still null; expectedDelivery, when non-nil, rewrites the
	// promised date in the same write.
	CompareAndSetStatus(ctx context.Context, id string, status OrderStatus, expectedVersion int64, stampDelivered, expectedDelivery *time.Time) error
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
	CountByStatus(ctx context.Context) (map[OrderStatus]int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const orderColumns = `id, order_number, vendor_id, plant_id, status, expected_delivery_date, actual_delivery_date, notes, version, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var o PurchaseOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.VendorID, &o.PlantID, &o.Status,
		&o.ExpectedDeliveryDate, &o.ActualDeliveryDate, &o.Notes, &o.Version,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	return o, err
}

func (r *repository) CreateOrder(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.Version = 1
	const query = `INSERT INTO purchase_orders (id, order_number, vendor_id, plant_id, status, expected_delivery_date, notes, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.Exec(ctx, query, order.ID, order.OrderNumber, order.VendorID, order.PlantID, order.Status,
		order.ExpectedDeliveryDate, order.Notes, order.Version, order.CreatedBy, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return PurchaseOrder{}, err
	}
	return order, nil
}

func (r *repository) AddItem(ctx context.Context, item Item) (Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const query = `INSERT INTO purchase_order_items (id, order_id, product_id, quantity, unit) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Unit)
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (r *repository) Get(ctx context.Context, id string) (PurchaseOrder, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id))
	if err != nil {
		return PurchaseOrder{}, err
	}
	order.Items, err = r.listItems(ctx, id)
	return order, err
}

func (r *repository) listItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, order_id, product_id, quantity, unit FROM purchase_order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.Unit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, vendorID string) ([]PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders`
	args := []any{}
	if vendorID != "" {
		query += ` WHERE vendor_id = $1`
		args = append(args, vendorID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items, err = r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *repository) CompareAndSetStatus(ctx context.Context, id string, status OrderStatus, expectedVersion int64, stampDelivered, expectedDelivery *time.Time) error {
	const query = `UPDATE purchase_orders
		SET status = $1,
		    actual_delivery_date = COALESCE(actual_delivery_date, $2),
		    expected_delivery_date = COALESCE($3, expected_delivery_date),
		    version = version + 1,
		    updated_at = $4
		WHERE id = $5 AND version = $6`
	tag, err := r.db.Exec(ctx, query, status, stampDelivered, expectedDelivery, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)); err != nil {
			return err
		}
		return shared.ErrConflict
	}
	return nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	tag, err := r.db.Exec(ctx, `UPDATE purchase_order_items SET quantity = $1 WHERE id = $2`, quantity, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, itemID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchase_order_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[OrderStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM purchase_orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[OrderStatus]int{}
	for rows.Next() {
		var status OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
