package vendors

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supplylink/supplylink/internal/shared"
)

// Repository defines persistence for vendors, their documents and metrics.
type Repository interface {
	List(ctx context.Context) ([]Vendor, error)
	Get(ctx context.Context, id string) (Vendor, error)
	GetByUserID(ctx context.Context, userID string) (Vendor, error)
	Create(ctx context.Context, vendor Vendor) (Vendor, error)
	UpdateProfile(ctx context.Context, vendor Vendor) error
	UpdateStatus(ctx context.Context, id string, status VendorStatus, reason string, at time.Time) error

	ListDocuments(ctx context.Context, vendorID string) ([]VendorDocument, error)
	GetDocument(ctx context.Context, id string) (VendorDocument, error)
	CountDocuments(ctx context.Context, vendorID string) (int, error)
	AddDocument(ctx context.Context, doc VendorDocument) (VendorDocument, error)
	DeleteDocument(ctx context.Context, id string) error

	GetMetrics(ctx context.Context, vendorID string) (PerformanceMetrics, error)
	ListMetrics(ctx context.Context) ([]PerformanceMetrics, error)
	EnsureMetrics(ctx context.Context, metrics PerformanceMetrics) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const vendorColumns = `id, user_id, name, contact_email, contact_phone, street, city, state, zip_code, country, status, status_reason, status_updated_at, created_at, updated_at`

func scanVendor(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.ContactEmail, &v.ContactPhone,
		&v.Address.Street, &v.Address.City, &v.Address.State, &v.Address.ZipCode, &v.Address.Country,
		&v.Status, &v.StatusReason, &v.StatusUpdatedAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, shared.ErrNotFound
	}
	return v, err
}

func (r *repository) List(ctx context.Context) ([]Vendor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+vendorColumns+` FROM vendors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Vendor, error) {
	return scanVendor(r.db.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id))
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (Vendor, error) {
	return scanVendor(r.db.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE user_id = $1`, userID))
}

func (r *repository) Create(ctx context.Context, vendor Vendor) (Vendor, error) {
	if vendor.ID == "" {
		vendor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vendor.CreatedAt = now
	vendor.UpdatedAt = now
	if vendor.Status == "" {
		vendor.Status = StatusPending
	}
	const query = `INSERT INTO vendors (id, user_id, name, contact_email, contact_phone, street, city, state, zip_code, country, status, status_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.Exec(ctx, query, vendor.ID, vendor.UserID, vendor.Name, vendor.ContactEmail, vendor.ContactPhone,
		vendor.Address.Street, vendor.Address.City, vendor.Address.State, vendor.Address.ZipCode, vendor.Address.Country,
		vendor.Status, vendor.StatusReason, vendor.CreatedAt, vendor.UpdatedAt)
	if err != nil {
		return Vendor{}, err
	}
	return vendor, nil
}

func (r *repository) UpdateProfile(ctx context.Context, vendor Vendor) error {
	const query = `UPDATE vendors SET name = $1, contact_email = $2, contact_phone = $3,
		street = $4, city = $5, state = $6, zip_code = $7, country = $8,
		status = $9, status_reason = $10, status_updated_at = $11, updated_at = $12
		WHERE id = $13`
	tag, err := r.db.Exec(ctx, query, vendor.Name, vendor.ContactEmail, vendor.ContactPhone,
		vendor.Address.Street, vendor.Address.City, vendor.Address.State, vendor.Address.ZipCode, vendor.Address.Country,
		vendor.Status, vendor.StatusReason, vendor.StatusUpdatedAt, time.Now().UTC(), vendor.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status VendorStatus, reason string, at time.Time) error {
	const query = `UPDATE vendors SET status = $1, status_reason = $2, status_updated_at = $3, updated_at = $3 WHERE id = $4`
	tag, err := r.db.Exec(ctx, query, status, reason, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListDocuments(ctx context.Context, vendorID string) ([]VendorDocument, error) {
	const query = `SELECT id, vendor_id, document_name, document_type, url, verified, uploaded_at FROM vendor_documents WHERE vendor_id = $1 ORDER BY uploaded_at DESC`
	rows, err := r.db.Query(ctx, query, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []VendorDocument
	for rows.Next() {
		var d VendorDocument
		if err := rows.Scan(&d.ID, &d.VendorID, &d.DocumentName, &d.DocumentType, &d.URL, &d.Verified, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *repository) GetDocument(ctx context.Context, id string) (VendorDocument, error) {
	const query = `SELECT id, vendor_id, document_name, document_type, url, verified, uploaded_at FROM vendor_documents WHERE id = $1`
	var d VendorDocument
	err := r.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.VendorID, &d.DocumentName, &d.DocumentType, &d.URL, &d.Verified, &d.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return VendorDocument{}, shared.ErrNotFound
	}
	return d, err
}

func (r *repository) CountDocuments(ctx context.Context, vendorID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vendor_documents WHERE vendor_id = $1`, vendorID).Scan(&count)
	return count, err
}

func (r *repository) AddDocument(ctx context.Context, doc VendorDocument) (VendorDocument, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO vendor_documents (id, vendor_id, document_name, document_type, url, verified, uploaded_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query, doc.ID, doc.VendorID, doc.DocumentName, doc.DocumentType, doc.URL, doc.Verified, doc.UploadedAt)
	if err != nil {
		return VendorDocument{}, err
	}
	return doc, nil
}

func (r *repository) DeleteDocument(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vendor_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetMetrics(ctx context.Context, vendorID string) (PerformanceMetrics, error) {
	const query = `SELECT vendor_id, on_time_delivery_rate, quality_score, overall_rating, evaluation_date, last_updated FROM performance_metrics WHERE vendor_id = $1`
	var m PerformanceMetrics
	err := r.db.QueryRow(ctx, query, vendorID).Scan(&m.VendorID, &m.OnTimeDeliveryRate, &m.QualityScore, &m.OverallRating, &m.EvaluationDate, &m.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return PerformanceMetrics{}, shared.ErrNotFound
	}
	return m, err
}

func (r *repository) ListMetrics(ctx context.Context) ([]PerformanceMetrics, error) {
	const query = `SELECT vendor_id, on_time_delivery_rate, quality_score, overall_rating, evaluation_date, last_updated FROM performance_metrics ORDER BY overall_rating DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []PerformanceMetrics
	for rows.Next() {
		var m PerformanceMetrics
		if err := rows.Scan(&m.VendorID, &m.OnTimeDeliveryRate, &m.QualityScore, &m.OverallRating, &m.EvaluationDate, &m.LastUpdated); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// EnsureMetrics inserts a metrics row only when none exists, so repeated
// approvals never reset an established record.
func (r *repository) EnsureMetrics(ctx context.Context, metrics PerformanceMetrics) error {
	const query = `INSERT INTO performance_metrics (vendor_id, on_time_delivery_rate, quality_score, overall_rating, evaluation_date, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (vendor_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, metrics.VendorID, metrics.OnTimeDeliveryRate, metrics.QualityScore, metrics.OverallRating, metrics.EvaluationDate, metrics.LastUpdated)
	return err
}
