package services

import (
	"context"
	"errors"
	"time"

	"merchant-service/internal/domain/entities"
	"merchant-service/internal/domain/repositories"
	"merchant-service/internal/metrics"
	"merchant-service/shared/logger"
)

// DefaultMaxIdentifierAttempts bounds the create retry loop on id collisions.
const DefaultMaxIdentifierAttempts = 5

// MerchantService runs the merchant lifecycle and listing against a store.
// It holds no mutable state; concurrent calls only meet in the store.
type MerchantService struct {
	repo      repositories.MerchantRepository
	ids       IdentifierGenerator
	validator *RequestValidator
	logger    logger.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time

	maxIDAttempts   int
	defaultPageSize int
	maxPageSize     int
}

// MerchantServiceOption customises a MerchantService at construction.
type MerchantServiceOption func(*MerchantService)

// WithIdentifierGenerator replaces the random merchantId generator.
func WithIdentifierGenerator(g IdentifierGenerator) MerchantServiceOption {
	return func(s *MerchantService) { s.ids = g }
}

// WithMaxIdentifierAttempts bounds the create retry loop. Non-positive values are ignored.
func WithMaxIdentifierAttempts(n int) MerchantServiceOption {
	return func(s *MerchantService) {
		if n > 0 {
			s.maxIDAttempts = n
		}
	}
}

// WithClock sets the time source for createdAt and updatedAt.
func WithClock(clock func() time.Time) MerchantServiceOption {
	return func(s *MerchantService) { s.clock = clock }
}

// WithMetrics records operation outcomes on m.
func WithMetrics(m *metrics.Metrics) MerchantServiceOption {
	return func(s *MerchantService) { s.metrics = m }
}

// WithPageSizes sets the default and maximum list page size. Non-positive values keep the current setting.
func WithPageSizes(defaultSize, maxSize int) MerchantServiceOption {
	return func(s *MerchantService) {
		if defaultSize > 0 {
			s.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
	}
}

// NewMerchantService builds the service over repo. A nil log discards output.
func NewMerchantService(repo repositories.MerchantRepository, log logger.Logger, opts ...MerchantServiceOption) *MerchantService {
	s := &MerchantService{
		repo:            repo,
		ids:             NewRandomIdentifierGenerator(DefaultIdentifierPrefix, DefaultIdentifierLength),
		validator:       NewRequestValidator(),
		logger:          log,
		clock:           time.Now,
		maxIDAttempts:   DefaultMaxIdentifierAttempts,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	return s
}

func (s *MerchantService) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt keeps updatedAt strictly increasing even when the clock
// has not advanced past the stored value.
func (s *MerchantService) nextUpdatedAt(previous time.Time) time.Time {
	next := s.now()
	if !next.After(previous) {
		next = previous.Add(time.Microsecond)
	}
	return next
}

// Create validates req, assigns a fresh merchantId and stores an ACTIVE merchant.
// A generated id that already exists is replaced, up to maxIDAttempts times.
func (s *MerchantService) Create(ctx context.Context, req entities.MerchantRequest) (resp *entities.MerchantResponse, err error) {
	defer func() { s.metrics.ObserveOperation("create", err) }()

	if err := s.validator.ValidateMerchantRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	merchant := entities.Merchant{
		Status:    entities.MerchantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyRequest(req, &merchant)

	for attempt := 1; attempt <= s.maxIDAttempts; attempt++ {
		id, err := s.ids.Generate()
		if err != nil {
			return nil, &entities.PersistenceError{Op: "generate merchant id", Err: err}
		}
		merchant.MerchantID = id

		created, err := s.repo.Create(ctx, merchant)
		if errors.Is(err, repositories.ErrDuplicateMerchantID) {
			s.metrics.IdentifierCollision()
			s.logger.WithField("merchant_id", id).WarnContext(ctx, "merchant id collision on attempt %d/%d", attempt, s.maxIDAttempts)
			continue
		}
		if err != nil {
			return nil, storeError("create merchant", err)
		}

		s.logger.WithField("merchant_id", created.MerchantID).InfoContext(ctx, "merchant created")
		out := toMerchantResponse(*created)
		return &out, nil
	}

	return nil, &entities.IdentifierCollisionError{Attempts: s.maxIDAttempts}
}

// GetByMerchantID returns the merchant or an *entities.NotFoundError.
func (s *MerchantService) GetByMerchantID(ctx context.Context, merchantID string) (resp *entities.MerchantResponse, err error) {
	defer func() { s.metrics.ObserveOperation("get", err) }()

	merchant, err := s.find(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	out := toMerchantResponse(*merchant)
	return &out, nil
}

// Update replaces name, email, phone, businessName and address. merchantId,
// status and createdAt are left as stored.
func (s *MerchantService) Update(ctx context.Context, merchantID string, req entities.MerchantRequest) (resp *entities.MerchantResponse, err error) {
	defer func() { s.metrics.ObserveOperation("update", err) }()

	if err := s.validator.ValidateMerchantRequest(req); err != nil {
		return nil, err
	}

	merchant, err := s.find(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	applyRequest(req, merchant)
	merchant.UpdatedAt = s.nextUpdatedAt(merchant.UpdatedAt)

	updated, err := s.repo.Update(ctx, *merchant)
	if err != nil {
		return nil, storeError("update merchant", err)
	}

	s.logger.WithField("merchant_id", merchantID).InfoContext(ctx, "merchant updated")
	out := toMerchantResponse(*updated)
	return &out, nil
}

// ChangeStatus moves a merchant to status. Any status may follow any other.
func (s *MerchantService) ChangeStatus(ctx context.Context, merchantID string, status entities.MerchantStatus) (resp *entities.MerchantResponse, err error) {
	defer func() { s.metrics.ObserveOperation("change_status", err) }()

	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	merchant, err := s.find(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	previous := merchant.Status
	merchant.Status = status
	merchant.UpdatedAt = s.nextUpdatedAt(merchant.UpdatedAt)

	updated, err := s.repo.Update(ctx, *merchant)
	if err != nil {
		return nil, storeError("change merchant status", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"merchant_id": merchantID,
		"from":        string(previous),
		"to":          string(status),
	}).InfoContext(ctx, "merchant status changed")
	out := toMerchantResponse(*updated)
	return &out, nil
}

// Deactivate is a soft delete: the merchant becomes INACTIVE and stays readable.
func (s *MerchantService) Deactivate(ctx context.Context, merchantID string) (*entities.MerchantResponse, error) {
	return s.ChangeStatus(ctx, merchantID, entities.MerchantStatusInactive)
}

func (s *MerchantService) find(ctx context.Context, merchantID string) (*entities.Merchant, error) {
	merchant, err := s.repo.FindByMerchantID(ctx, merchantID)
	if err != nil {
		return nil, storeError("find merchant", err)
	}
	if merchant == nil {
		return nil, &entities.NotFoundError{Resource: "merchant", ID: merchantID}
	}
	return merchant, nil
}

// storeError passes typed domain errors through and folds everything else
// into a PersistenceError.
func storeError(op string, err error) error {
	var notFound *entities.NotFoundError
	if errors.As(err, &notFound) {
		return err
	}
	return &entities.PersistenceError{Op: op, Err: err}
}
