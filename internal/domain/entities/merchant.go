package entities

import (
	"time"
)

// MerchantStatus is the lifecycle state of a merchant.
type MerchantStatus string

const (
	MerchantStatusActive    MerchantStatus = "ACTIVE"
	MerchantStatusInactive  MerchantStatus = "INACTIVE"
	MerchantStatusSuspended MerchantStatus = "SUSPENDED"
)

// MerchantStatuses lists every valid status in declaration order.
var MerchantStatuses = []MerchantStatus{
	MerchantStatusActive,
	MerchantStatusInactive,
	MerchantStatusSuspended,
}

// Valid reports whether s is one of the known statuses. Matching is exact.
func (s MerchantStatus) Valid() bool {
	for _, known := range MerchantStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Merchant is the persisted merchant row.
// ID is the store-assigned key and is never serialized; callers address merchants by MerchantID.
type Merchant struct {
	ID           int64          `json:"-" db:"id"`
	MerchantID   string         `json:"merchantId" db:"merchant_id"`
	Name         string         `json:"name" db:"name"`
	Email        string         `json:"email" db:"email"`
	Phone        string         `json:"phone" db:"phone"`
	BusinessName *string        `json:"businessName,omitempty" db:"business_name"`
	Address      *string        `json:"address,omitempty" db:"address"`
	Status       MerchantStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// MerchantRequest is the body of create and update calls.
// Validation tags are evaluated explicitly by the service, not by the HTTP binder.
type MerchantRequest struct {
	Name         string  `json:"name" validate:"notblank,max=200"`
	Email        string  `json:"email" validate:"notblank,max=254,email"`
	Phone        string  `json:"phone" validate:"notblank,phone"`
	BusinessName *string `json:"businessName,omitempty" validate:"omitempty,max=255"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// MerchantResponse is the outward representation of a merchant.
type MerchantResponse struct {
	MerchantID   string         `json:"merchantId"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	BusinessName *string        `json:"businessName,omitempty"`
	Address      *string        `json:"address,omitempty"`
	Status       MerchantStatus `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// StatusChangeRequest is the body of PATCH /merchants/:id/status.
type StatusChangeRequest struct {
	Status MerchantStatus `json:"status"`
}
