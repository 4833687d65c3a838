package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"merchant-service/internal/domain/entities"
	"merchant-service/internal/domain/repositories"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const merchantColumns = "id, merchant_id, name, email, phone, business_name, address, status, created_at, updated_at"

// pqUniqueViolation is the SQLSTATE Postgres reports for a unique index conflict.
const pqUniqueViolation = "23505"

// PostgresMerchantRepository stores merchants in the merchants table.
type PostgresMerchantRepository struct {
	DB *sqlx.DB
}

var _ repositories.MerchantRepository = (*PostgresMerchantRepository)(nil)

// NewPostgresMerchantRepository wraps an open sqlx handle.
func NewPostgresMerchantRepository(db *sqlx.DB) *PostgresMerchantRepository {
	return &PostgresMerchantRepository{
		DB: db,
	}
}

// Create inserts merchant and returns the stored row.
func (r *PostgresMerchantRepository) Create(ctx context.Context, merchant entities.Merchant) (*entities.Merchant, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if merchant.CreatedAt.IsZero() {
		merchant.CreatedAt = now
	}
	if merchant.UpdatedAt.IsZero() {
		merchant.UpdatedAt = merchant.CreatedAt
	}
	if merchant.Status == "" {
		merchant.Status = entities.MerchantStatusActive
	}

	query := `
		INSERT INTO merchants (
			merchant_id, name, email, phone, business_name, address,
			status, created_at, updated_at
		) VALUES (
			:merchant_id, :name, :email, :phone, :business_name, :address,
			:status, :created_at, :updated_at
		) RETURNING ` + merchantColumns

	rows, err := r.DB.NamedQueryContext(ctx, query, merchant)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repositories.ErrDuplicateMerchantID
		}
		return nil, errors.Wrap(err, "insert merchant")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			if isUniqueViolation(err) {
				return nil, repositories.ErrDuplicateMerchantID
			}
			return nil, errors.Wrap(err, "insert merchant")
		}
		return nil, errors.New("insert merchant: no row returned")
	}

	var created entities.Merchant
	if err := rows.StructScan(&created); err != nil {
		return nil, errors.Wrap(err, "scan created merchant")
	}
	return &created, nil
}

// FindByMerchantID returns nil, nil when no row matches.
func (r *PostgresMerchantRepository) FindByMerchantID(ctx context.Context, merchantID string) (*entities.Merchant, error) {
	var merchant entities.Merchant

	query := "SELECT " + merchantColumns + " FROM merchants WHERE merchant_id = $1"
	if err := r.DB.GetContext(ctx, &merchant, query, merchantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "select merchant %s", merchantID)
	}
	return &merchant, nil
}

// Update rewrites the mutable columns of the row keyed by merchant.ID.
func (r *PostgresMerchantRepository) Update(ctx context.Context, merchant entities.Merchant) (*entities.Merchant, error) {
	query := `
		UPDATE merchants SET
			name = :name,
			email = :email,
			phone = :phone,
			business_name = :business_name,
			address = :address,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + merchantColumns

	rows, err := r.DB.NamedQueryContext(ctx, query, merchant)
	if err != nil {
		return nil, errors.Wrapf(err, "update merchant %s", merchant.MerchantID)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrapf(err, "update merchant %s", merchant.MerchantID)
		}
		return nil, &entities.NotFoundError{Resource: "merchant", ID: merchant.MerchantID}
	}

	var updated entities.Merchant
	if err := rows.StructScan(&updated); err != nil {
		return nil, errors.Wrap(err, "scan updated merchant")
	}
	return &updated, nil
}

// Find counts the filtered rows, then selects one page of them.
func (r *PostgresMerchantRepository) Find(ctx context.Context, filter entities.MerchantFilter, page entities.PageRequest) (*entities.MerchantPage, error) {
	where, args := merchantWhere(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM merchants" + where
	if err := r.DB.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, errors.Wrap(err, "count merchants")
	}

	merchants := []entities.Merchant{}
	// A page past the end needs no select; it also keeps huge offsets off the wire.
	if total > 0 && page.Size > 0 && int64(page.Offset()) < total {
		query := fmt.Sprintf("SELECT %s FROM merchants%s ORDER BY %s LIMIT $%d OFFSET $%d",
			merchantColumns, where, merchantOrderBy(page.Sort), len(args)+1, len(args)+2)
		pageArgs := append(args, page.Size, page.Offset())
		if err := r.DB.SelectContext(ctx, &merchants, query, pageArgs...); err != nil {
			return nil, errors.Wrap(err, "select merchants")
		}
	}

	return &entities.MerchantPage{
		Merchants:     merchants,
		TotalElements: total,
	}, nil
}

// FindBySearchTerm lists merchants whose name or merchantId contains term.
func (r *PostgresMerchantRepository) FindBySearchTerm(ctx context.Context, term string, page entities.PageRequest) (*entities.MerchantPage, error) {
	return r.Find(ctx, entities.SearchFilter(term), page)
}

// FindByStatus lists merchants in status.
func (r *PostgresMerchantRepository) FindByStatus(ctx context.Context, status entities.MerchantStatus, page entities.PageRequest) (*entities.MerchantPage, error) {
	return r.Find(ctx, entities.StatusFilter(status), page)
}

// FindAll lists every merchant.
func (r *PostgresMerchantRepository) FindAll(ctx context.Context, page entities.PageRequest) (*entities.MerchantPage, error) {
	return r.Find(ctx, entities.NoFilter(), page)
}

func merchantWhere(filter entities.MerchantFilter) (string, []interface{}) {
	switch filter.Kind {
	case entities.FilterSearch:
		pattern := "%" + escapeLike(filter.Term) + "%"
		return ` WHERE (name ILIKE $1 ESCAPE '\' OR merchant_id ILIKE $1 ESCAPE '\')`, []interface{}{pattern}
	case entities.FilterStatus:
		return " WHERE status = $1", []interface{}{string(filter.Status)}
	default:
		return "", nil
	}
}

// merchantOrderBy only emits whitelisted columns; unknown fields fall back to id.
func merchantOrderBy(sort entities.Sort) string {
	column, ok := entities.MerchantSortColumns[sort.Field]
	if !ok {
		return "id ASC"
	}
	direction := "ASC"
	if sort.Direction == entities.SortDesc {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, id ASC", column, direction)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
