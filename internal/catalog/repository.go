package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supplylink/supplylink/internal/shared"
)

// Repository defines persistence for products and plants.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, product Product) error

	ListPlants(ctx context.Context) ([]Plant, error)
	GetPlant(ctx context.Context, id string) (Plant, error)
	CreatePlant(ctx context.Context, plant Plant) (Plant, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListProducts(ctx context.Context) ([]Product, error) {
	const query = `SELECT id, name, unit, accepted_units, restock_quantity, created_at, updated_at FROM products ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.AcceptedUnits, &p.RestockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id string) (Product, error) {
	const query = `SELECT id, name, unit, accepted_units, restock_quantity, created_at, updated_at FROM products WHERE id = $1`
	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Unit, &p.AcceptedUnits, &p.RestockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) CreateProduct(ctx context.Context, product Product) (Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	const query = `INSERT INTO products (id, name, unit, accepted_units, restock_quantity, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query, product.ID, product.Name, product.Unit, product.AcceptedUnits, product.RestockQuantity, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id string, product Product) error {
	const query = `UPDATE products SET name = $1, unit = $2, accepted_units = $3, restock_quantity = $4, updated_at = $5 WHERE id = $6`
	tag, err := r.db.Exec(ctx, query, product.Name, product.Unit, product.AcceptedUnits, product.RestockQuantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListPlants(ctx context.Context) ([]Plant, error) {
	const query = `SELECT id, name, location, created_at, updated_at FROM plants ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plants []Plant
	for rows.Next() {
		var p Plant
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func (r *repository) GetPlant(ctx context.Context, id string) (Plant, error) {
	const query = `SELECT id, name, location, created_at, updated_at FROM plants WHERE id = $1`
	var p Plant
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Location, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plant{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) CreatePlant(ctx context.Context, plant Plant) (Plant, error) {
	if plant.ID == "" {
		plant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	plant.CreatedAt = now
	plant.UpdatedAt = now
	const query = `INSERT INTO plants (id, name, location, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, plant.ID, plant.Name, plant.Location, plant.CreatedAt, plant.UpdatedAt)
	if err != nil {
		return Plant{}, err
	}
	return plant, nil
}
