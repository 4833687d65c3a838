// Package memory is an in-process merchant store used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"merchant-service/internal/domain/entities"
	"merchant-service/internal/domain/repositories"
)

// MerchantRepository keeps merchants in insertion order behind a RWMutex.
// Returned merchants are copies; mutating them does not touch the store.
type MerchantRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   []*entities.Merchant
	byMID  map[string]*entities.Merchant
	nowF   func() time.Time
}

var _ repositories.MerchantRepository = (*MerchantRepository)(nil)

// NewMerchantRepository returns an empty store.
func NewMerchantRepository() *MerchantRepository {
	return &MerchantRepository{
		byMID: make(map[string]*entities.Merchant),
		nowF:  time.Now,
	}
}

func (r *MerchantRepository) now() time.Time {
	return r.nowF().UTC().Truncate(time.Microsecond)
}

// Create stores merchant under a new internal key.
func (r *MerchantRepository) Create(ctx context.Context, merchant entities.Merchant) (*entities.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byMID[merchant.MerchantID]; exists {
		return nil, repositories.ErrDuplicateMerchantID
	}

	if merchant.CreatedAt.IsZero() {
		merchant.CreatedAt = r.now()
	}
	if merchant.UpdatedAt.IsZero() {
		merchant.UpdatedAt = merchant.CreatedAt
	}
	if merchant.Status == "" {
		merchant.Status = entities.MerchantStatusActive
	}

	r.nextID++
	merchant.ID = r.nextID
	stored := cloneMerchant(merchant)
	r.rows = append(r.rows, stored)
	r.byMID[stored.MerchantID] = stored

	out := cloneMerchant(*stored)
	return out, nil
}

// FindByMerchantID returns nil, nil when no merchant matches.
func (r *MerchantRepository) FindByMerchantID(ctx context.Context, merchantID string) (*entities.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byMID[merchantID]
	if !ok {
		return nil, nil
	}
	return cloneMerchant(*stored), nil
}

// Update overwrites the mutable fields of the row with merchant.ID.
func (r *MerchantRepository) Update(ctx context.Context, merchant entities.Merchant) (*entities.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var stored *entities.Merchant
	for _, row := range r.rows {
		if row.ID == merchant.ID {
			stored = row
			break
		}
	}
	if stored == nil {
		return nil, &entities.NotFoundError{Resource: "merchant", ID: merchant.MerchantID}
	}

	stored.Name = merchant.Name
	stored.Email = merchant.Email
	stored.Phone = merchant.Phone
	stored.BusinessName = cloneString(merchant.BusinessName)
	stored.Address = cloneString(merchant.Address)
	stored.Status = merchant.Status
	stored.UpdatedAt = merchant.UpdatedAt

	return cloneMerchant(*stored), nil
}

// Find filters, sorts and pages a snapshot of the store.
func (r *MerchantRepository) Find(ctx context.Context, filter entities.MerchantFilter, page entities.PageRequest) (*entities.MerchantPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := make([]entities.Merchant, 0, len(r.rows))
	for _, row := range r.rows {
		if matches(filter, row) {
			matched = append(matched, *cloneMerchant(*row))
		}
	}
	r.mu.RUnlock()

	if field := page.Sort.Field; field != "" {
		desc := page.Sort.Direction == entities.SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareField(field, &matched[i], &matched[j])
			if c == 0 {
				return matched[i].ID < matched[j].ID
			}
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	total := int64(len(matched))
	out := []entities.Merchant{}
	if page.Size > 0 {
		start := page.Offset()
		if start >= 0 && start < len(matched) {
			end := start + page.Size
			if end > len(matched) || end < start {
				end = len(matched)
			}
			out = matched[start:end]
		}
	}

	return &entities.MerchantPage{Merchants: out, TotalElements: total}, nil
}

// FindBySearchTerm lists merchants whose name or merchantId contains term.
func (r *MerchantRepository) FindBySearchTerm(ctx context.Context, term string, page entities.PageRequest) (*entities.MerchantPage, error) {
	return r.Find(ctx, entities.SearchFilter(term), page)
}

// FindByStatus lists merchants in status.
func (r *MerchantRepository) FindByStatus(ctx context.Context, status entities.MerchantStatus, page entities.PageRequest) (*entities.MerchantPage, error) {
	return r.Find(ctx, entities.StatusFilter(status), page)
}

// FindAll lists every merchant.
func (r *MerchantRepository) FindAll(ctx context.Context, page entities.PageRequest) (*entities.MerchantPage, error) {
	return r.Find(ctx, entities.NoFilter(), page)
}

func matches(filter entities.MerchantFilter, m *entities.Merchant) bool {
	switch filter.Kind {
	case entities.FilterSearch:
		term := strings.ToLower(filter.Term)
		return strings.Contains(strings.ToLower(m.Name), term) ||
			strings.Contains(strings.ToLower(m.MerchantID), term)
	case entities.FilterStatus:
		return m.Status == filter.Status
	default:
		return true
	}
}

// compareField orders by one sortable field. Absent optional values compare
// greater than any value, matching Postgres NULL ordering.
func compareField(field string, a, b *entities.Merchant) int {
	switch field {
	case "merchantId":
		return strings.Compare(a.MerchantID, b.MerchantID)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "phone":
		return strings.Compare(a.Phone, b.Phone)
	case "businessName":
		return compareOptional(a.BusinessName, b.BusinessName)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return 0
	}
}

func compareOptional(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return strings.Compare(*a, *b)
	}
}

func cloneMerchant(m entities.Merchant) *entities.Merchant {
	m.BusinessName = cloneString(m.BusinessName)
	m.Address = cloneString(m.Address)
	return &m
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
