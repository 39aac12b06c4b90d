package actions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supplylink/supplylink/internal/shared"
)

// Repository defines persistence for action requests.
type Repository interface {
	Create(ctx context.Context, request Request) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	ListByOrder(ctx context.Context, orderID string) ([]Request, error)
	ListByVendor(ctx context.Context, vendorID string) ([]Request, error)
	ListPending(ctx context.Context) ([]Request, error)
	// Resolve flips a PENDING request to the given status. The update is
	// conditional on the stored status still being PENDING, so exactly one
	// of two racing resolvers wins; the loser sees shared.ErrAlreadyResolved.
	Resolve(ctx context.Context, id string, status Status, response, resolvedBy string, at time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const requestColumns = `id, order_id, vendor_id, action_type, status, message, response, changes, created_at, resolved_at, resolved_by`

func scanRequest(row pgx.Row) (Request, error) {
	var (
		r          Request
		changes    []byte
		response   *string
		resolvedBy *string
	)
	err := row.Scan(&r.ID, &r.OrderID, &r.VendorID, &r.Type, &r.Status, &r.Message, &response, &changes, &r.CreatedAt, &r.ResolvedAt, &resolvedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, shared.ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	if response != nil {
		r.Response = *response
	}
	if resolvedBy != nil {
		r.ResolvedBy = *resolvedBy
	}
	if len(changes) > 0 && string(changes) != "null" {
		r.Changes = &ProposedChanges{}
		if err := json.Unmarshal(changes, r.Changes); err != nil {
			return Request{}, err
		}
	}
	return r, nil
}

func (r *repository) Create(ctx context.Context, request Request) (Request, error) {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	request.Status = StatusPending
	var changes []byte
	if request.Changes != nil {
		var err error
		changes, err = json.Marshal(request.Changes)
		if err != nil {
			return Request{}, err
		}
	}
	const query = `INSERT INTO action_requests (id, order_id, vendor_id, action_type, status, message, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query, request.ID, request.OrderID, request.VendorID, request.Type, request.Status, request.Message, changes, request.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return request, nil
}

func (r *repository) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM action_requests WHERE id = $1`, id))
}

func (r *repository) ListByOrder(ctx context.Context, orderID string) ([]Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM action_requests WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
}

func (r *repository) ListByVendor(ctx context.Context, vendorID string) ([]Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM action_requests WHERE vendor_id = $1 ORDER BY created_at DESC`, vendorID)
}

func (r *repository) ListPending(ctx context.Context) ([]Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM action_requests WHERE status = 'PENDING' ORDER BY created_at`)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *repository) Resolve(ctx context.Context, id string, status Status, response, resolvedBy string, at time.Time) error {
	const query = `UPDATE action_requests
		SET status = $1, response = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $5 AND status = 'PENDING'`
	tag, err := r.db.Exec(ctx, query, status, response, resolvedBy, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return shared.ErrAlreadyResolved
	}
	return nil
}
