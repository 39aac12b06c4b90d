package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supplylink/supplylink/internal/shared"
)

// Repository defines persistence for plant stock records.
type Repository interface {
	List(ctx context.Context, plantID string) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	UpdateThreshold(ctx context.Context, id string, threshold int) error
	// CompareAndSetQuantity updates quantity only when the stored version
	// matches. Returns shared.ErrConflict when another writer won.
	CompareAndSetQuantity(ctx context.Context, id string, quantity int, expectedVersion int64) error
	ListLowStock(ctx context.Context, plantID string) ([]Item, error)
	ListPlantIDs(ctx context.Context) ([]string, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const itemColumns = `id, plant_id, product_id, quantity_available, unit, reorder_level, version, last_updated`

func (r *repository) List(ctx context.Context, plantID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE plant_id = $1 ORDER BY product_id`, plantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *repository) Get(ctx context.Context, id string) (Item, error) {
	var i Item
	err := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id).
		Scan(&i.ID, &i.PlantID, &i.ProductID, &i.Quantity, &i.Unit, &i.ReorderThreshold, &i.Version, &i.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, shared.ErrNotFound
	}
	return i, err
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Version = 1
	item.LastUpdated = time.Now().UTC()
	const query = `INSERT INTO inventory_items (id, plant_id, product_id, quantity_available, unit, reorder_level, version, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query, item.ID, item.PlantID, item.ProductID, item.Quantity, item.Unit, item.ReorderThreshold, item.Version, item.LastUpdated)
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (r *repository) UpdateThreshold(ctx context.Context, id string, threshold int) error {
	tag, err := r.db.Exec(ctx, `UPDATE inventory_items SET reorder_level = $1, last_updated = $2 WHERE id = $3`, threshold, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CompareAndSetQuantity(ctx context.Context, id string, quantity int, expectedVersion int64) error {
	const query = `UPDATE inventory_items SET quantity_available = $1, version = version + 1, last_updated = $2 WHERE id = $3 AND version = $4`
	tag, err := r.db.Exec(ctx, query, quantity, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Row missing or version moved. Distinguish so callers can retry.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return shared.ErrConflict
	}
	return nil
}

func (r *repository) ListLowStock(ctx context.Context, plantID string) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE quantity_available < reorder_level`
	args := []any{}
	if plantID != "" {
		query += ` AND plant_id = $1`
		args = append(args, plantID)
	}
	query += ` ORDER BY plant_id, product_id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *repository) ListPlantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT plant_id FROM inventory_items ORDER BY plant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.PlantID, &i.ProductID, &i.Quantity, &i.Unit, &i.ReorderThreshold, &i.Version, &i.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
