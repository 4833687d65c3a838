package services

import (
	"context"
	"fmt"
	"strings"

	"merchant-service/internal/domain/entities"
)

// Page size bounds used when none are configured.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery is the raw listing input as it arrives from the boundary.
type ListQuery struct {
	Search string
	Status string
	Page   int
	Size   int
	Sort   string
}

// List runs a single paginated store query. A non-blank Search wins over
// Status; with neither, every merchant is listed.
func (s *MerchantService) List(ctx context.Context, q ListQuery) (resp *entities.PagedResponse[entities.MerchantResponse], err error) {
	defer func() { s.metrics.ObserveOperation("list", err) }()

	filter, err := ParseFilter(q.Search, q.Status)
	if err != nil {
		return nil, err
	}
	pageReq, err := s.pageRequest(q)
	if err != nil {
		return nil, err
	}

	page, err := s.repo.Find(ctx, filter, pageReq)
	if err != nil {
		return nil, storeError("list merchants", err)
	}

	out := toPagedResponse(page, pageReq)
	return &out, nil
}

// ParseFilter picks the listing filter. Status must match a known value exactly.
func ParseFilter(search, status string) (entities.MerchantFilter, error) {
	if term := strings.TrimSpace(search); term != "" {
		return entities.SearchFilter(term), nil
	}
	if st := strings.TrimSpace(status); st != "" {
		ms := entities.MerchantStatus(st)
		if err := ValidateStatus(ms); err != nil {
			return entities.MerchantFilter{}, err
		}
		return entities.StatusFilter(ms), nil
	}
	return entities.NoFilter(), nil
}

// ParseSort reads "field" or "field,asc|desc". An empty directive means insertion order.
func ParseSort(directive string) (entities.Sort, error) {
	directive = strings.TrimSpace(directive)
	if directive == "" {
		return entities.Sort{}, nil
	}

	parts := strings.Split(directive, ",")
	if len(parts) > 2 {
		return entities.Sort{}, entities.NewValidationError("sort", "sort must be field[,asc|desc]")
	}

	field := strings.TrimSpace(parts[0])
	if _, ok := entities.MerchantSortColumns[field]; !ok {
		return entities.Sort{}, entities.NewValidationError("sort", fmt.Sprintf("cannot sort by %q", field))
	}

	direction := entities.SortAsc
	if len(parts) == 2 {
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "", "asc":
		case "desc":
			direction = entities.SortDesc
		default:
			return entities.Sort{}, entities.NewValidationError("sort", fmt.Sprintf("unknown sort direction %q", parts[1]))
		}
	}
	return entities.Sort{Field: field, Direction: direction}, nil
}

func (s *MerchantService) pageRequest(q ListQuery) (entities.PageRequest, error) {
	sort, err := ParseSort(q.Sort)
	if err != nil {
		return entities.PageRequest{}, err
	}

	page := q.Page
	if page < 0 {
		page = 0
	}
	size := q.Size
	if size <= 0 {
		size = s.defaultPageSize
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}
	return entities.PageRequest{Page: page, Size: size, Sort: sort}, nil
}
