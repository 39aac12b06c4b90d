package auth

import (
	"time"

	"github.com/supplylink/supplylink/internal/shared"
)

// User represents a portal account. Vendor accounts carry the vendor they
// act for; admin accounts have an empty VendorID.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         shared.Role
	VendorID     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
