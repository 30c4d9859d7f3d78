package listings

import (
	"context"

	"github.com/crebai/crebmatch-backend/internal/rejections"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/google/uuid"
)

// ServiceParams groups dependencies for the feed service.
type ServiceParams struct {
	Repo       *Repository
	Rejections rejections.Service
}

// Service exposes the discovery feed.
type Service interface {
	Feed(ctx context.Context, principalID uuid.UUID, filters FeedFilters) (FeedDTO, error)
}

type service struct {
	repo       *Repository
	rejections rejections.Service
}

// NewService builds a feed service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing repo is required")
	}
	if params.Rejections == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection service is required")
	}
	return &service{
		repo:       params.Repo,
		rejections: params.Rejections,
	}, nil
}

// Feed returns the listings a principal can still act on. When rejection
// marks alone emptied the feed, the set is cycled back, the full candidate
// pool is returned and FeedReset is raised so the client reloads.
func (s *service) Feed(ctx context.Context, principalID uuid.UUID, filters FeedFilters) (FeedDTO, error) {
	if principalID == uuid.Nil {
		return FeedDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "principal id is required")
	}

	candidates, err := s.repo.VisibleCandidates(ctx, principalID, filters)
	if err != nil {
		return FeedDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feed candidates")
	}

	candidateIDs := make([]uuid.UUID, 0, len(candidates))
	for _, listing := range candidates {
		candidateIDs = append(candidateIDs, listing.ID)
	}

	reset, err := s.rejections.CycleIfExhausted(ctx, principalID, candidateIDs)
	if err != nil {
		return FeedDTO{}, err
	}
	if reset {
		return FeedDTO{Listings: mapDTOs(candidates), FeedReset: true}, nil
	}

	marked, err := s.rejections.MarkedSet(ctx, principalID)
	if err != nil {
		return FeedDTO{}, err
	}

	visible := make([]ListingDTO, 0, len(candidates))
	for _, listing := range candidates {
		if _, ok := marked[listing.ID]; ok {
			continue
		}
		visible = append(visible, toDTO(listing))
	}

	return FeedDTO{Listings: visible, FeedReset: false}, nil
}

func mapDTOs(rows []models.Listing) []ListingDTO {
	out := make([]ListingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out
}
