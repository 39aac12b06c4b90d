package vendors

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VendorStatus is the vendor onboarding/trading state.
type VendorStatus string

const (
	StatusPending   VendorStatus = "PENDING"
	StatusApproved  VendorStatus = "APPROVED"
	StatusSuspended VendorStatus = "SUSPENDED"
	StatusInactive  VendorStatus = "INACTIVE"
)

// Valid reports whether the status is part of the closed enumeration.
func (s VendorStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// Address is the vendor postal address. Every field is optional at the data
// level; completeness is enforced by the eligibility rule, not the type.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Vendor is an external supplier entity.
type Vendor struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	Name            string       `json:"name"`
	ContactEmail    string       `json:"contactEmail"`
	ContactPhone    string       `json:"contactPhone"`
	Address         Address      `json:"address"`
	Status          VendorStatus `json:"status"`
	StatusReason    string       `json:"statusReason,omitempty"`
	StatusUpdatedAt *time.Time   `json:"statusUpdatedAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// VendorDocument is a compliance document uploaded by the vendor.
type VendorDocument struct {
	ID           string    `json:"id"`
	VendorID     string    `json:"vendorId"`
	DocumentName string    `json:"documentName"`
	DocumentType string    `json:"documentType"`
	URL          string    `json:"url"`
	Verified     bool      `json:"verified"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// PerformanceMetrics is the per-vendor performance aggregate. It is created
// at zero baseline when the vendor first reaches APPROVED and maintained by
// external evaluation processes.
type PerformanceMetrics struct {
	VendorID           string    `json:"vendorId"`
	OnTimeDeliveryRate float64   `json:"onTimeDeliveryRate"`
	QualityScore       float64   `json:"qualityScore"`
	OverallRating      float64   `json:"overallRating"`
	EvaluationDate     time.Time `json:"evaluationDate"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

var titleCaser = cases.Title(language.English)

// DocumentTypeLabel renders a stored document type ("tax_certificate") as a
// display label ("Tax Certificate").
func DocumentTypeLabel(documentType string) string {
	label := make([]byte, 0, len(documentType))
	for i := 0; i < len(documentType); i++ {
		if documentType[i] == '_' || documentType[i] == '-' {
			label = append(label, ' ')
			continue
		}
		label = append(label, documentType[i])
	}
	return titleCaser.String(string(label))
}
