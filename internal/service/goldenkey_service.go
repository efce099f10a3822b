package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cdmworks/golden-keys-api/internal/dto"
	"github.com/cdmworks/golden-keys-api/internal/models"
	"github.com/cdmworks/golden-keys-api/internal/repository"
	appErrors "github.com/cdmworks/golden-keys-api/pkg/errors"
)

type goldenKeyStore interface {
	FetchPending(ctx context.Context) ([]models.GoldenKey, error)
	FetchApproved(ctx context.Context) ([]models.GoldenKey, error)
	AddPending(ctx context.Context, key *models.GoldenKey) error
	UpdatePending(ctx context.Context, id string, params repository.UpdateGoldenKeyParams) (*models.GoldenKey, error)
	DeletePending(ctx context.Context, id string) error
}

type snapshotCache interface {
	GetPending(ctx context.Context) ([]models.GoldenKey, error)
	GetApproved(ctx context.Context) ([]models.GoldenKey, error)
	SetPending(ctx context.Context, keys []models.GoldenKey) error
	SetApproved(ctx context.Context, keys []models.GoldenKey) error
	Invalidate(ctx context.Context)
}

type catalogMetrics interface {
	ObserveCatalogMutation(op string, err error)
	ObserveCacheLookup(hit bool)
}

// IDGenerator supplies identifiers for new records. Injected so tests can use
// deterministic ids instead of an ambient UUID facility.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc allows using plain functions.
type IDGeneratorFunc func() string

// NewID implements IDGenerator.
func (f IDGeneratorFunc) NewID() string { return f() }

func defaultIDGenerator() IDGenerator {
	return IDGeneratorFunc(uuid.NewString)
}

// GoldenKeyService is the approval workflow controller for the catalog.
// Creation always yields a pending record; edits and deletes are legal only
// while the record is still pending; transitions to approved or rejected are
// owned by an external review process and records in those states are
// read-only here.
type GoldenKeyService struct {
	store     goldenKeyStore
	cache     snapshotCache
	metrics   catalogMetrics
	validator *validator.Validate
	logger    *zap.Logger
	idgen     IDGenerator
	now       func() time.Time

	persistImports bool

	// Session overlay holding locally imported records that were not routed
	// through the gateway. Guarded separately from inflight.
	sessionMu sync.Mutex
	session   []models.GoldenKey

	// Per-id guards serialising overlapping mutations so a slow response
	// cannot clobber a newer state for the same record.
	inflight sync.Map
}

// GoldenKeyServiceOption configures the service.
type GoldenKeyServiceOption func(*GoldenKeyService)

// WithIDGenerator overrides the default UUID generator.
func WithIDGenerator(gen IDGenerator) GoldenKeyServiceOption {
	return func(s *GoldenKeyService) {
		if gen != nil {
			s.idgen = gen
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) GoldenKeyServiceOption {
	return func(s *GoldenKeyService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSnapshotCache attaches the invalidate-and-reload cache.
func WithSnapshotCache(cache snapshotCache) GoldenKeyServiceOption {
	return func(s *GoldenKeyService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithCatalogMetrics attaches mutation/cache instrumentation.
func WithCatalogMetrics(metrics catalogMetrics) GoldenKeyServiceOption {
	return func(s *GoldenKeyService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithPersistedImports routes imported pending records through the gateway
// instead of the session overlay.
func WithPersistedImports(enabled bool) GoldenKeyServiceOption {
	return func(s *GoldenKeyService) {
		s.persistImports = enabled
	}
}

// NewGoldenKeyService constructs the service with defaults.
func NewGoldenKeyService(store goldenKeyStore, validate *validator.Validate, logger *zap.Logger, opts ...GoldenKeyServiceOption) *GoldenKeyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GoldenKeyService{
		store:     store,
		validator: validate,
		logger:    logger,
		idgen:     defaultIDGenerator(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns the visible catalog view for the given filters along with the
// header counters. Rejected records never enter the view.
func (s *GoldenKeyService) List(ctx context.Context, filters models.GoldenKeyFilters) ([]models.GoldenKey, dto.ListMeta, error) {
	combined, pendingCount, err := s.collection(ctx)
	if err != nil {
		return nil, dto.ListMeta{}, err
	}
	visible := Visible(combined, filters)
	meta := dto.ListMeta{
		Total:    len(combined),
		Filtered: len(visible),
		Pending:  pendingCount,
	}
	return visible, meta, nil
}

// Owners returns the distinct owner list over the unfiltered collection.
func (s *GoldenKeyService) Owners(ctx context.Context) ([]string, error) {
	combined, _, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	return DistinctOwners(combined), nil
}

// Collection returns the full unfiltered visible collection, used by export.
func (s *GoldenKeyService) Collection(ctx context.Context) ([]models.GoldenKey, error) {
	combined, _, err := s.collection(ctx)
	return combined, err
}

// Create defines a new golden key. The record always enters the workflow as
// pending with a freshly generated id; any status supplied by the caller is
// irrelevant because the request shape carries none.
func (s *GoldenKeyService) Create(ctx context.Context, req dto.CreateGoldenKeyRequest) (key *models.GoldenKey, err error) {
	defer s.observe("create", &err)

	if verr := s.validator.Struct(req); verr != nil {
		return nil, appErrors.Wrap(verr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid golden key payload")
	}
	if !models.ValidDataType(req.DataType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported data type: %s", req.DataType))
	}

	version := req.Version
	if version == "" {
		version = models.DefaultVersion
	}
	now := s.now()
	key = &models.GoldenKey{
		ID:             s.idgen.NewID(),
		Key:            req.Key,
		Label:          req.Label,
		Description:    req.Description,
		DataType:       req.DataType,
		Required:       req.Required,
		Owner:          req.Owner,
		Version:        version,
		ApprovalStatus: models.ApprovalStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	unlock := s.lockID(key.ID)
	defer unlock()

	if err := s.store.AddPending(ctx, key); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("golden key %s already exists", key.ID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store golden key")
	}
	s.invalidate(ctx)
	return key, nil
}

// Update edits a pending golden key in place. Editing an approved or rejected
// record is a policy violation, not a data error: the stored record is left
// untouched and the caller gets a descriptive refusal.
func (s *GoldenKeyService) Update(ctx context.Context, id string, req dto.UpdateGoldenKeyRequest) (key *models.GoldenKey, err error) {
	defer s.observe("update", &err)

	if req.DataType != nil && !models.ValidDataType(*req.DataType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported data type: %s", *req.DataType))
	}

	unlock := s.lockID(id)
	defer unlock()

	params := repository.UpdateGoldenKeyParams{
		Key:         req.Key,
		Label:       req.Label,
		Description: req.Description,
		DataType:    req.DataType,
		Required:    req.Required,
		Owner:       req.Owner,
		Version:     req.Version,
		UpdatedAt:   s.now(),
	}
	key, uerr := s.store.UpdatePending(ctx, id, params)
	if uerr != nil {
		if errors.Is(uerr, repository.ErrPendingNotFound) {
			return nil, s.classifyMissingPending(ctx, id, "updated")
		}
		return nil, appErrors.Wrap(uerr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update golden key")
	}
	s.invalidate(ctx)
	return key, nil
}

// Delete removes a pending golden key. Deleting a non-pending record is
// refused the same way as an edit.
func (s *GoldenKeyService) Delete(ctx context.Context, id string) (err error) {
	defer s.observe("delete", &err)

	unlock := s.lockID(id)
	defer unlock()

	if derr := s.store.DeletePending(ctx, id); derr != nil {
		if errors.Is(derr, repository.ErrPendingNotFound) {
			return s.classifyMissingPending(ctx, id, "deleted")
		}
		return appErrors.Wrap(derr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete golden key")
	}
	s.invalidate(ctx)
	return nil
}

// Import merges parsed records into the catalog. By default the merge is
// session-local and bypasses the gateway, matching the original behaviour.
// With persisted imports enabled, pending records are routed through
// AddPending instead; records already approved or rejected still land in the
// overlay because the gateway has no write path for them.
func (s *GoldenKeyService) Import(ctx context.Context, keys []models.GoldenKey) (summary dto.ImportSummary, err error) {
	defer s.observe("import", &err)

	if !s.persistImports {
		s.mergeSession(keys)
		return dto.ImportSummary{Imported: len(keys)}, nil
	}

	overlay := make([]models.GoldenKey, 0)
	for i := range keys {
		key := keys[i]
		if key.ApprovalStatus != models.ApprovalStatusPending {
			overlay = append(overlay, key)
			continue
		}
		if aerr := s.store.AddPending(ctx, &key); aerr != nil {
			if errors.Is(aerr, repository.ErrDuplicateID) {
				return dto.ImportSummary{}, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("golden key %s already exists", key.ID))
			}
			return dto.ImportSummary{}, appErrors.Wrap(aerr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist imported golden key")
		}
	}
	s.mergeSession(overlay)
	s.invalidate(ctx)
	return dto.ImportSummary{Imported: len(keys), Persisted: true}, nil
}

// ClearSession drops the locally imported overlay. Durable records are not
// affected.
func (s *GoldenKeyService) ClearSession(ctx context.Context) {
	s.sessionMu.Lock()
	s.session = nil
	s.sessionMu.Unlock()
	s.invalidate(ctx)
}

func (s *GoldenKeyService) collection(ctx context.Context) ([]models.GoldenKey, int, error) {
	pending, err := s.fetchPending(ctx)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending golden keys")
	}
	approved, err := s.fetchApproved(ctx)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved golden keys")
	}

	combined := make([]models.GoldenKey, 0, len(pending)+len(approved))
	combined = append(combined, pending...)
	combined = append(combined, approved...)

	pendingCount := len(pending)
	s.sessionMu.Lock()
	for _, key := range s.session {
		if key.ApprovalStatus == models.ApprovalStatusRejected {
			continue
		}
		if key.ApprovalStatus == models.ApprovalStatusPending {
			pendingCount++
		}
		combined = append(combined, key)
	}
	s.sessionMu.Unlock()

	return combined, pendingCount, nil
}

func (s *GoldenKeyService) fetchPending(ctx context.Context) ([]models.GoldenKey, error) {
	if s.cache != nil {
		if keys, err := s.cache.GetPending(ctx); err == nil {
			s.observeCache(true)
			return keys, nil
		}
		s.observeCache(false)
	}
	keys, err := s.store.FetchPending(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cerr := s.cache.SetPending(ctx, keys); cerr != nil {
			s.logger.Warn("failed to cache pending snapshot", zap.Error(cerr))
		}
	}
	return keys, nil
}

func (s *GoldenKeyService) fetchApproved(ctx context.Context) ([]models.GoldenKey, error) {
	if s.cache != nil {
		if keys, err := s.cache.GetApproved(ctx); err == nil {
			s.observeCache(true)
			return keys, nil
		}
		s.observeCache(false)
	}
	keys, err := s.store.FetchApproved(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cerr := s.cache.SetApproved(ctx, keys); cerr != nil {
			s.logger.Warn("failed to cache approved snapshot", zap.Error(cerr))
		}
	}
	return keys, nil
}

// classifyMissingPending distinguishes "not pending anymore" from "gone".
// Only the former is a policy violation.
func (s *GoldenKeyService) classifyMissingPending(ctx context.Context, id, verb string) error {
	approved, err := s.store.FetchApproved(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved golden keys")
	}
	for _, key := range approved {
		if key.ID == id {
			return appErrors.Clone(appErrors.ErrPolicyViolation, fmt.Sprintf("only pending golden keys can be %s", verb))
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "golden key not found")
}

func (s *GoldenKeyService) mergeSession(keys []models.GoldenKey) {
	if len(keys) == 0 {
		return
	}
	s.sessionMu.Lock()
	s.session = append(s.session, keys...)
	s.sessionMu.Unlock()
}

func (s *GoldenKeyService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *GoldenKeyService) lockID(id string) func() {
	v, _ := s.inflight.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *GoldenKeyService) observe(op string, err *error) {
	if s.metrics != nil {
		s.metrics.ObserveCatalogMutation(op, *err)
	}
}

func (s *GoldenKeyService) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCacheLookup(hit)
	}
}
