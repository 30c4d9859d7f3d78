package rejections

import (
	"context"

	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/crebai/crebmatch-backend/pkg/metrics"
	"github.com/google/uuid"
)

// ServiceParams groups dependencies for the rejection service.
type ServiceParams struct {
	Repo    *Repository
	Cache   Cache // optional, best-effort
	Logger  *logger.Logger
	Metrics *metrics.EngineMetrics
}

// Service exposes the personal rejection set. Marks filter the discovery
// feed only; they never touch match state.
type Service interface {
	Mark(ctx context.Context, principalID, listingID uuid.UUID) error
	Undo(ctx context.Context, principalID, listingID uuid.UUID) error
	IsRejected(ctx context.Context, principalID, listingID uuid.UUID) (bool, error)
	MarkedSet(ctx context.Context, principalID uuid.UUID) (map[uuid.UUID]struct{}, error)
	CycleIfExhausted(ctx context.Context, principalID uuid.UUID, visible []uuid.UUID) (bool, error)
}

type service struct {
	repo    *Repository
	cache   Cache
	logg    *logger.Logger
	metrics *metrics.EngineMetrics
}

// NewService builds a rejection service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:    params.Repo,
		cache:   params.Cache,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Mark hides a listing from the principal's feed. Idempotent.
func (s *service) Mark(ctx context.Context, principalID, listingID uuid.UUID) error {
	if principalID == uuid.Nil || listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "principal id and listing id are required")
	}
	if err := s.repo.Insert(ctx, principalID, listingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rejection mark")
	}
	if s.cache != nil {
		if err := s.cache.Add(ctx, principalID, listingID); err != nil {
			s.logg.Warn(s.logg.WithPrincipalID(ctx, principalID.String()), "rejection cache add failed")
		}
	}
	return nil
}

// Undo restores a listing to the principal's feed. Idempotent.
func (s *service) Undo(ctx context.Context, principalID, listingID uuid.UUID) error {
	if principalID == uuid.Nil || listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "principal id and listing id are required")
	}
	if err := s.repo.Delete(ctx, principalID, listingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete rejection mark")
	}
	if s.cache != nil {
		if err := s.cache.Remove(ctx, principalID, listingID); err != nil {
			s.logg.Warn(s.logg.WithPrincipalID(ctx, principalID.String()), "rejection cache remove failed")
		}
	}
	return nil
}

// IsRejected answers from the cache when it can, otherwise from the table.
// A cache miss is ambiguous (the set may be cold) so only a positive cache
// hit short-circuits.
func (s *service) IsRejected(ctx context.Context, principalID, listingID uuid.UUID) (bool, error) {
	if s.cache != nil {
		hit, err := s.cache.Contains(ctx, principalID, listingID)
		if err == nil && hit {
			return true, nil
		}
	}
	exists, err := s.repo.Exists(ctx, principalID, listingID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check rejection mark")
	}
	return exists, nil
}

// MarkedSet returns the authoritative mark set for feed filtering and
// cycle decisions.
func (s *service) MarkedSet(ctx context.Context, principalID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	ids, err := s.repo.ListListingIDs(ctx, principalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rejection marks")
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// CycleIfExhausted clears the principal's marks when rejections alone
// exhausted the visible feed. It resets only when at least one listing is
// visible and every one of them is marked; an empty feed for other reasons
// leaves the set intact.
func (s *service) CycleIfExhausted(ctx context.Context, principalID uuid.UUID, visible []uuid.UUID) (bool, error) {
	if len(visible) == 0 {
		return false, nil
	}

	marked, err := s.MarkedSet(ctx, principalID)
	if err != nil {
		return false, err
	}
	for _, id := range visible {
		if _, ok := marked[id]; !ok {
			return false, nil
		}
	}

	if err := s.repo.DeleteAllForPrincipal(ctx, principalID); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset rejection marks")
	}
	if s.cache != nil {
		if err := s.cache.Clear(ctx, principalID); err != nil {
			s.logg.Warn(s.logg.WithPrincipalID(ctx, principalID.String()), "rejection cache clear failed")
		}
	}
	s.metrics.IncFeedReset()

	ctx = s.logg.WithPrincipalID(ctx, principalID.String())
	s.logg.Info(ctx, "rejection set cycled back after feed exhaustion")
	return true, nil
}
