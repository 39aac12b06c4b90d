package vendors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/supplylink/supplylink/internal/shared"
)

// Notifier delivers vendor-facing notifications out of band. Implementations
// enqueue work; delivery failures must not fail the triggering operation.
type Notifier interface {
	StatusChanged(ctx context.Context, vendor Vendor, previous VendorStatus) error
}

// Service owns vendor lifecycle rules: status transitions, the approval
// eligibility gate, and the profile/document edits that knock a vendor back
// to PENDING review.
type Service struct {
	repo     Repository
	audit    *shared.AuditLogger
	notifier Notifier
	clock    shared.Clock
	logger   *slog.Logger
}

func NewService(repo Repository, audit *shared.AuditLogger, notifier Notifier, clock shared.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, audit: audit, notifier: notifier, clock: clock, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Vendor, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Vendor, error) {
	if id == "" {
		return Vendor{}, errors.New("invalid vendor ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (Vendor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Create registers a new vendor in PENDING status.
func (s *Service) Create(ctx context.Context, vendor Vendor) (Vendor, error) {
	if vendor.Name == "" {
		return Vendor{}, errors.New("vendor name required")
	}
	if vendor.ContactEmail == "" {
		return Vendor{}, errors.New("vendor contact email required")
	}
	vendor.Status = StatusPending
	vendor.StatusReason = ""
	created, err := s.repo.Create(ctx, vendor)
	if err != nil {
		return Vendor{}, err
	}
	s.record(ctx, "vendor.created", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// SetStatus applies an admin status decision. SUSPENDED and INACTIVE need a
// reason; APPROVED needs the eligibility gate and seeds a zero-baseline
// metrics row exactly once.
func (s *Service) SetStatus(ctx context.Context, vendorID string, status VendorStatus, reason string) (Vendor, error) {
	if !status.Valid() {
		return Vendor{}, shared.ErrIllegalTransition
	}
	vendor, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return Vendor{}, err
	}

	switch status {
	case StatusSuspended, StatusInactive:
		if reason == "" {
			return Vendor{}, shared.ErrReasonRequired
		}
	case StatusApproved:
		count, err := s.repo.CountDocuments(ctx, vendorID)
		if err != nil {
			return Vendor{}, err
		}
		if !CanApprove(vendor, count) {
			return Vendor{}, shared.ErrIneligibleVendor
		}
		reason = ""
	case StatusPending:
		reason = ""
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, vendorID, status, reason, now); err != nil {
		return Vendor{}, err
	}

	if status == StatusApproved {
		err := s.repo.EnsureMetrics(ctx, PerformanceMetrics{
			VendorID:       vendorID,
			EvaluationDate: now,
			LastUpdated:    now,
		})
		if err != nil {
			return Vendor{}, err
		}
	}

	previous := vendor.Status
	vendor.Status = status
	vendor.StatusReason = reason
	vendor.StatusUpdatedAt = &now

	s.record(ctx, "vendor.status_changed", vendorID, map[string]any{
		"from":   string(previous),
		"to":     string(status),
		"reason": reason,
	})
	s.notify(ctx, vendor, previous)
	return vendor, nil
}

// UpdateProfile overwrites the vendor's contact and address details. Any
// profile change voids a previous approval: the vendor drops back to
// PENDING for re-review.
func (s *Service) UpdateProfile(ctx context.Context, vendorID string, name, contactEmail, contactPhone string, address Address) (Vendor, error) {
	vendor, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return Vendor{}, err
	}
	if name == "" {
		return Vendor{}, errors.New("vendor name required")
	}

	previous := vendor.Status
	now := s.clock.Now()
	vendor.Name = name
	vendor.ContactEmail = contactEmail
	vendor.ContactPhone = contactPhone
	vendor.Address = address
	vendor.Status = StatusPending
	vendor.StatusReason = ""
	vendor.StatusUpdatedAt = &now

	if err := s.repo.UpdateProfile(ctx, vendor); err != nil {
		return Vendor{}, err
	}
	s.record(ctx, "vendor.profile_updated", vendorID, map[string]any{"previous_status": string(previous)})
	if previous != StatusPending {
		s.notify(ctx, vendor, previous)
	}
	return vendor, nil
}

func (s *Service) ListDocuments(ctx context.Context, vendorID string) ([]VendorDocument, error) {
	return s.repo.ListDocuments(ctx, vendorID)
}

// AddDocument stores a compliance document and resets the vendor to PENDING,
// since the document set is part of what approval reviewed.
func (s *Service) AddDocument(ctx context.Context, vendorID string, doc VendorDocument) (VendorDocument, error) {
	if doc.DocumentName == "" || doc.DocumentType == "" {
		return VendorDocument{}, errors.New("document name and type required")
	}
	vendor, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return VendorDocument{}, err
	}
	doc.VendorID = vendorID
	doc.Verified = false
	doc.UploadedAt = s.clock.Now()
	created, err := s.repo.AddDocument(ctx, doc)
	if err != nil {
		return VendorDocument{}, err
	}
	if err := s.resetToPending(ctx, vendor); err != nil {
		return VendorDocument{}, err
	}
	s.record(ctx, "vendor.document_added", vendorID, map[string]any{"document": created.DocumentName, "type": created.DocumentType})
	return created, nil
}

// DeleteDocument removes a document owned by the vendor and resets the
// vendor to PENDING.
func (s *Service) DeleteDocument(ctx context.Context, vendorID, documentID string) error {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.VendorID != vendorID {
		return shared.ErrForbidden
	}
	vendor, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.resetToPending(ctx, vendor); err != nil {
		return err
	}
	s.record(ctx, "vendor.document_deleted", vendorID, map[string]any{"document": doc.DocumentName})
	return nil
}

func (s *Service) Metrics(ctx context.Context, vendorID string) (PerformanceMetrics, error) {
	return s.repo.GetMetrics(ctx, vendorID)
}

func (s *Service) ListMetrics(ctx context.Context) ([]PerformanceMetrics, error) {
	return s.repo.ListMetrics(ctx)
}

func (s *Service) resetToPending(ctx context.Context, vendor Vendor) error {
	if vendor.Status == StatusPending {
		return nil
	}
	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, vendor.ID, StatusPending, "", now); err != nil {
		return err
	}
	previous := vendor.Status
	vendor.Status = StatusPending
	vendor.StatusReason = ""
	vendor.StatusUpdatedAt = &now
	s.notify(ctx, vendor, previous)
	return nil
}

func (s *Service) record(ctx context.Context, action, vendorID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actorID := ""
	if actor := shared.ActorFromContext(ctx); actor != nil {
		actorID = actor.UserID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "vendor",
		EntityID: vendorID,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context, vendor Vendor, previous VendorStatus) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.StatusChanged(ctx, vendor, previous); err != nil && s.logger != nil {
		s.logger.Warn("status notification failed", slog.String("vendor_id", vendor.ID), slog.Any("error", err))
	}
}
