package repositories

import (
	"context"
	"errors"

	"merchant-service/internal/domain/entities"
)

// ErrDuplicateMerchantID is returned by Create when the merchantId is already taken.
var ErrDuplicateMerchantID = errors.New("merchant id already exists")

// MerchantRepository is the merchant store contract.
type MerchantRepository interface {
	// Create inserts a merchant and returns it with its internal key and timestamps.
	// CreatedAt and UpdatedAt are set by the store when zero.
	Create(ctx context.Context, merchant entities.Merchant) (*entities.Merchant, error)

	// FindByMerchantID returns the merchant, or nil when none matches.
	FindByMerchantID(ctx context.Context, merchantID string) (*entities.Merchant, error)

	// Update overwrites the mutable columns of the row with merchant.ID.
	// merchant_id and created_at are never written.
	Update(ctx context.Context, merchant entities.Merchant) (*entities.Merchant, error)

	// Find runs one paginated query for the given filter.
	Find(ctx context.Context, filter entities.MerchantFilter, page entities.PageRequest) (*entities.MerchantPage, error)

	FindBySearchTerm(ctx context.Context, term string, page entities.PageRequest) (*entities.MerchantPage, error)
	FindByStatus(ctx context.Context, status entities.MerchantStatus, page entities.PageRequest) (*entities.MerchantPage, error)
	FindAll(ctx context.Context, page entities.PageRequest) (*entities.MerchantPage, error)
}
