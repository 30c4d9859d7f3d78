package deals

import (
	"context"
	"errors"

	"github.com/crebai/crebmatch-backend/internal/documents"
	"github.com/crebai/crebmatch-backend/internal/matches"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const artifactFanout = 8

// ServiceParams groups dependencies for the deal view composer.
type ServiceParams struct {
	MatchRepo *matches.Repository
	DocRepo   *documents.Repository
}

// Service composes the deal dashboard: every accepted match the principal
// is a party to, decorated with document progress. Pure read, no caching.
type Service interface {
	ListDeals(ctx context.Context, principalID uuid.UUID, cursor string, limit int) (DealsPageDTO, error)
}

type service struct {
	matchRepo *matches.Repository
	docRepo   *documents.Repository
}

// NewService builds a deal composer with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.MatchRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match repo is required")
	}
	if params.DocRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document repo is required")
	}
	return &service{
		matchRepo: params.MatchRepo,
		docRepo:   params.DocRepo,
	}, nil
}

// ListDeals pages the principal's accepted matches and resolves each one's
// document artifact concurrently.
func (s *service) ListDeals(ctx context.Context, principalID uuid.UUID, cursor string, limit int) (DealsPageDTO, error) {
	if principalID == uuid.Nil {
		return DealsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "principal id is required")
	}

	summaries, next, err := s.matchRepo.ListActive(ctx, principalID, cursor, limit)
	if err != nil {
		return DealsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accepted matches")
	}

	deals := make([]DealDTO, len(summaries))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(artifactFanout)
	for i, summary := range summaries {
		group.Go(func() error {
			deal := DealDTO{
				Match:           summary.Match,
				Listing:         summary.Listing,
				CounterpartID:   summary.CounterpartID,
				CounterpartName: summary.CounterpartName,
				Status:          enums.DealStatusDrafted,
			}

			artifact, err := s.docRepo.FindByMatchID(groupCtx, summary.Match.ID)
			switch {
			case err == nil:
				doc := documents.ToDTO(artifact)
				deal.Document = &doc
				deal.Status = classify(doc)
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal artifact")
			}

			deals[i] = deal
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return DealsPageDTO{}, err
	}

	return DealsPageDTO{Deals: deals, NextCursor: next}, nil
}

// classify orders document progress: signed beats sent beats drafted.
func classify(doc documents.DocumentDTO) enums.DealStatus {
	switch {
	case doc.Signed:
		return enums.DealStatusSigned
	case doc.ArtifactURL != "":
		return enums.DealStatusSent
	default:
		return enums.DealStatusDrafted
	}
}
