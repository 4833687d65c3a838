package entities

import "math"

// FilterKind selects which of the mutually exclusive listing filters applies.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterSearch
	FilterStatus
)

// MerchantFilter is the tagged choice passed to the store's query builder.
// Term is only read for FilterSearch, Status only for FilterStatus.
type MerchantFilter struct {
	Kind   FilterKind
	Term   string
	Status MerchantStatus
}

// NoFilter matches every merchant.
func NoFilter() MerchantFilter {
	return MerchantFilter{Kind: FilterNone}
}

// SearchFilter matches merchants whose name or merchantId contains term, ignoring case.
func SearchFilter(term string) MerchantFilter {
	return MerchantFilter{Kind: FilterSearch, Term: term}
}

// StatusFilter matches merchants with exactly the given status.
func StatusFilter(status MerchantStatus) MerchantFilter {
	return MerchantFilter{Kind: FilterStatus, Status: status}
}

// SortDirection is the ordering direction of a sort directive.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// MerchantSortColumns maps every sortable response field to its column.
var MerchantSortColumns = map[string]string{
	"merchantId":   "merchant_id",
	"name":         "name",
	"email":        "email",
	"phone":        "phone",
	"businessName": "business_name",
	"status":       "status",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
}

// Sort orders a page by one field of MerchantSortColumns.
// An empty Field means insertion order.
type Sort struct {
	Field     string
	Direction SortDirection
}

// PageRequest describes a zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// Offset returns the number of rows skipped before the page. It saturates at
// math.MaxInt instead of overflowing, so a huge page is simply past the end.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// MerchantPage is one page of merchants as returned by the store.
type MerchantPage struct {
	Merchants     []Merchant
	TotalElements int64
}

// PagedResponse is the page envelope returned by listing endpoints.
type PagedResponse[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalPages    int   `json:"totalPages"`
}

// TotalPages returns ceil(total/size), or 0 when there is nothing to page.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
