package matches

import (
	"context"
	"errors"

	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/pkg/db"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/crebai/crebmatch-backend/pkg/metrics"
	"github.com/crebai/crebmatch-backend/pkg/pubsub"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
)

// ServiceParams groups dependencies for the match ledger service.
type ServiceParams struct {
	MatchRepo   *Repository
	ListingRepo *listings.Repository
	Logger      *logger.Logger
	Metrics     *metrics.EngineMetrics
	Events      *pubsub.DealEventPublisher // optional
}

// Service exposes the match ledger transitions and list views.
type Service interface {
	Like(ctx context.Context, principalID, listingID uuid.UUID) (MatchDTO, error)
	Accept(ctx context.Context, principalID, matchID uuid.UUID) (MatchDTO, error)
	Reject(ctx context.Context, principalID, matchID uuid.UUID) (MatchDTO, error)
	ListIncoming(ctx context.Context, principalID uuid.UUID, cursor string, limit int) (MatchesPageDTO, error)
	ListActive(ctx context.Context, principalID uuid.UUID, cursor string, limit int) (MatchesPageDTO, error)
}

type service struct {
	matchRepo   *Repository
	listingRepo *listings.Repository
	logg        *logger.Logger
	metrics     *metrics.EngineMetrics
	events      *pubsub.DealEventPublisher
}

// NewService builds a match service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.MatchRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match repo is required")
	}
	if params.ListingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		matchRepo:   params.MatchRepo,
		listingRepo: params.ListingRepo,
		logg:        params.Logger,
		metrics:     params.Metrics,
		events:      params.Events,
	}, nil
}

// Like opens (or returns) the live match between the caller and a listing.
// Repeats are idempotent: the existing live row is returned unchanged.
func (s *service) Like(ctx context.Context, principalID, listingID uuid.UUID) (MatchDTO, error) {
	if principalID == uuid.Nil || listingID == uuid.Nil {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "principal id and listing id are required")
	}

	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MatchDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "listing not found")
		}
		return MatchDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.OwnerID == principalID {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeSelfMatch, "cannot like your own listing")
	}

	if err := s.matchRepo.InsertPending(ctx, principalID, listing.OwnerID, listingID); err != nil {
		// a concurrent like winning the insert is still a successful like
		if !db.IsUniqueViolation(err, "matches_live_pair_key") {
			return MatchDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record like")
		}
	}

	match, err := s.matchRepo.FindLiveByPair(ctx, principalID, listingID)
	if err != nil {
		return MatchDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match after like")
	}

	s.metrics.IncMatchTransition("like")
	return toDTO(match), nil
}

// Accept moves a pending match to accepted. Only the listing owner side may
// accept. Losing a transition race returns the authoritative outcome: success
// if another accept landed, STATE_CONFLICT if the match was rejected.
func (s *service) Accept(ctx context.Context, principalID, matchID uuid.UUID) (MatchDTO, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return MatchDTO{}, err
	}
	if match.ToPrincipalID != principalID {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner may accept")
	}

	match, won, err := s.transition(ctx, match, enums.MatchStatusAccepted)
	if err != nil {
		return MatchDTO{}, err
	}

	if won {
		s.metrics.IncMatchTransition("accept")
		if s.events != nil {
			event := pubsub.DealEvent{
				Type:      pubsub.EventMatchAccepted,
				MatchID:   match.ID,
				ListingID: match.ListingID,
				ActorID:   principalID,
			}
			if err := s.events.Publish(ctx, event); err != nil {
				s.logg.Warn(s.logg.WithMatchID(ctx, match.ID.String()), "publish match.accepted failed")
			}
		}
	}

	return toDTO(match), nil
}

// Reject moves a pending match to rejected. Either party may walk away.
func (s *service) Reject(ctx context.Context, principalID, matchID uuid.UUID) (MatchDTO, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return MatchDTO{}, err
	}
	if !match.Party(principalID) {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this match")
	}

	match, won, err := s.transition(ctx, match, enums.MatchStatusRejected)
	if err != nil {
		return MatchDTO{}, err
	}
	if won {
		s.metrics.IncMatchTransition("reject")
	}
	return toDTO(match), nil
}

// ListIncoming pages pending matches awaiting the caller's decision.
func (s *service) ListIncoming(ctx context.Context, principalID uuid.UUID, cursor string, limit int) (MatchesPageDTO, error) {
	if principalID == uuid.Nil {
		return MatchesPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "principal id is required")
	}
	items, next, err := s.matchRepo.ListIncoming(ctx, principalID, cursor, limit)
	if err != nil {
		return MatchesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list incoming matches")
	}
	return MatchesPageDTO{Matches: items, NextCursor: next}, nil
}

// ListActive pages accepted matches where the caller is a party.
func (s *service) ListActive(ctx context.Context, principalID uuid.UUID, cursor string, limit int) (MatchesPageDTO, error) {
	if principalID == uuid.Nil {
		return MatchesPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "principal id is required")
	}
	items, next, err := s.matchRepo.ListActive(ctx, principalID, cursor, limit)
	if err != nil {
		return MatchesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active matches")
	}
	return MatchesPageDTO{Matches: items, NextCursor: next}, nil
}

func (s *service) loadMatch(ctx context.Context, matchID uuid.UUID) (models.Match, error) {
	if matchID == uuid.Nil {
		return models.Match{}, pkgerrors.New(pkgerrors.CodeValidation, "match id is required")
	}
	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Match{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "match not found")
		}
		return models.Match{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match")
	}
	return match, nil
}

// transition runs the compare-and-set against pending and, on a lost race,
// re-reads exactly once: reaching the requested state by another hand counts
// as success, any other terminal state is a conflict.
func (s *service) transition(ctx context.Context, match models.Match, to enums.MatchStatus) (models.Match, bool, error) {
	won, err := s.matchRepo.TransitionFromPending(ctx, match.ID, to)
	if err != nil {
		return models.Match{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition match")
	}

	fresh, err := s.matchRepo.FindByID(ctx, match.ID)
	if err != nil {
		return models.Match{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload match")
	}

	if won {
		return fresh, true, nil
	}
	if fresh.Status == to {
		return fresh, false, nil
	}
	return models.Match{}, false, pkgerrors.New(pkgerrors.CodeStateConflict,
		"match is already "+string(fresh.Status)).WithDetails(map[string]any{
		"status": fresh.Status,
	})
}
