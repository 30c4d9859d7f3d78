package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/crebai/crebmatch-backend/internal/chat"
	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/internal/principals"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/crebai/crebmatch-backend/pkg/metrics"
	"github.com/crebai/crebmatch-backend/pkg/pubsub"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	matchesvc "github.com/crebai/crebmatch-backend/internal/matches"
)

const (
	defaultUploadAttempts = 3
	defaultUploadBackoff  = 200 * time.Millisecond
)

// ServiceParams groups dependencies for the document workflow service.
type ServiceParams struct {
	DocRepo        *Repository
	MatchRepo      *matchesvc.Repository
	ListingRepo    *listings.Repository
	PrincipalRepo  *principals.Repository
	Chat           chat.Service
	Store          ObjectStore
	Renderer       Renderer // defaults to the PDF renderer
	Logger         *logger.Logger
	Metrics        *metrics.EngineMetrics
	Events         *pubsub.DealEventPublisher // optional
	UploadAttempts int
	UploadBackoff  time.Duration
}

// Service drives the lease document workflow for accepted matches.
type Service interface {
	Generate(ctx context.Context, principalID, matchID uuid.UUID) (DocumentDTO, error)
	Update(ctx context.Context, principalID, matchID uuid.UUID, leaseText string) (DocumentDTO, error)
	Sign(ctx context.Context, principalID, matchID uuid.UUID, signaturePNG []byte) (DocumentDTO, error)
	CurrentArtifact(ctx context.Context, principalID, matchID uuid.UUID) (DocumentDTO, error)
}

type service struct {
	docRepo       *Repository
	matchRepo     *matchesvc.Repository
	listingRepo   *listings.Repository
	principalRepo *principals.Repository
	chat          chat.Service
	store         ObjectStore
	renderer      Renderer
	logg          *logger.Logger
	metrics       *metrics.EngineMetrics
	events        *pubsub.DealEventPublisher
	attempts      int
	backoff       time.Duration

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService builds a document service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DocRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document repo is required")
	}
	if params.MatchRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match repo is required")
	}
	if params.ListingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing repo is required")
	}
	if params.PrincipalRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "principal repo is required")
	}
	if params.Chat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat service is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "object store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	renderer := params.Renderer
	if renderer == nil {
		renderer = NewPDFRenderer()
	}
	attempts := params.UploadAttempts
	if attempts <= 0 {
		attempts = defaultUploadAttempts
	}
	backoff := params.UploadBackoff
	if backoff <= 0 {
		backoff = defaultUploadBackoff
	}
	return &service{
		docRepo:       params.DocRepo,
		matchRepo:     params.MatchRepo,
		listingRepo:   params.ListingRepo,
		principalRepo: params.PrincipalRepo,
		chat:          params.Chat,
		store:         params.Store,
		renderer:      renderer,
		logg:          params.Logger,
		metrics:       params.Metrics,
		events:        params.Events,
		attempts:      attempts,
		backoff:       backoff,
		locks:         map[uuid.UUID]*sync.Mutex{},
	}, nil
}

// Generate produces (or regenerates) the lease draft for an accepted match,
// uploads the rendered artifact and posts a system chat message in the same
// transaction as the artifact row.
func (s *service) Generate(ctx context.Context, principalID, matchID uuid.UUID) (DocumentDTO, error) {
	match, err := s.ensureAcceptedParty(ctx, principalID, matchID)
	if err != nil {
		return DocumentDTO{}, err
	}

	unlock := s.lockMatch(matchID)
	defer unlock()

	existing, err := s.docRepo.FindByMatchID(ctx, matchID)
	regenerating := false
	switch {
	case err == nil:
		if existing.Signed() {
			return DocumentDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "lease is signed and cannot be regenerated")
		}
		regenerating = true
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return DocumentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artifact")
	}

	listing, err := s.listingRepo.FindByID(ctx, match.ListingID)
	if err != nil {
		return DocumentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	parties, err := s.principalRepo.FindByIDs(ctx, []uuid.UUID{match.FromPrincipalID, match.ToPrincipalID})
	if err != nil {
		return DocumentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parties")
	}
	landlord := parties[match.ToPrincipalID]
	tenant := parties[match.FromPrincipalID]

	leaseText, err := buildLeaseText(listing, landlord, tenant, time.Now())
	if err != nil {
		return DocumentDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render lease text")
	}

	// from here the operation must run to completion
	ctx = context.WithoutCancel(ctx)

	artifactURL, err := s.renderAndUpload(ctx, matchID, leaseText, "lease.pdf")
	if err != nil {
		return DocumentDTO{}, err
	}

	artifact := models.DocumentArtifact{
		MatchID:     matchID,
		LeaseText:   leaseText,
		ArtifactURL: artifactURL,
		GeneratedBy: principalID,
	}
	if regenerating {
		artifact.GeneratedBy = existing.GeneratedBy
		artifact.CreatedAt = existing.CreatedAt
	}

	notice := "Lease document generated."
	if regenerating {
		notice = "Lease document regenerated."
	}
	if _, err := s.chat.PostSystemWith(ctx, matchID, notice, func(tx *gorm.DB) error {
		return s.docRepo.SaveTx(ctx, tx, &artifact)
	}); err != nil {
		return DocumentDTO{}, err
	}

	s.metrics.IncDocumentOp("generate")
	s.publishEvent(ctx, pubsub.EventDocumentGenerated, match, principalID)
	return s.currentDTO(ctx, matchID)
}

// Update replaces the lease text of an unsigned draft and re-uploads the
// artifact.
func (s *service) Update(ctx context.Context, principalID, matchID uuid.UUID, leaseText string) (DocumentDTO, error) {
	leaseText = strings.TrimSpace(leaseText)
	if leaseText == "" {
		return DocumentDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "lease text is required")
	}

	if _, err := s.ensureAcceptedParty(ctx, principalID, matchID); err != nil {
		return DocumentDTO{}, err
	}

	unlock := s.lockMatch(matchID)
	defer unlock()

	existing, err := s.loadArtifact(ctx, matchID)
	if err != nil {
		return DocumentDTO{}, err
	}
	if existing.Signed() {
		return DocumentDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "lease is signed and cannot be edited")
	}

	ctx = context.WithoutCancel(ctx)

	artifactURL, err := s.renderAndUpload(ctx, matchID, leaseText, "lease.pdf")
	if err != nil {
		return DocumentDTO{}, err
	}

	if _, err := s.chat.PostSystemWith(ctx, matchID, "Lease document updated.", func(tx *gorm.DB) error {
		updated, err := s.docRepo.UpdateDraftTx(ctx, tx, matchID, leaseText, artifactURL)
		if err != nil {
			return err
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeConflict, "lease is signed and cannot be edited")
		}
		return nil
	}); err != nil {
		return DocumentDTO{}, err
	}

	s.metrics.IncDocumentOp("update")
	return s.currentDTO(ctx, matchID)
}

// Sign seals the artifact. Only the party that did not generate the draft
// may sign, exactly once.
func (s *service) Sign(ctx context.Context, principalID, matchID uuid.UUID, signaturePNG []byte) (DocumentDTO, error) {
	match, err := s.ensureAcceptedParty(ctx, principalID, matchID)
	if err != nil {
		return DocumentDTO{}, err
	}

	unlock := s.lockMatch(matchID)
	defer unlock()

	existing, err := s.loadArtifact(ctx, matchID)
	if err != nil {
		return DocumentDTO{}, err
	}
	if existing.Signed() {
		return DocumentDTO{}, pkgerrors.New(pkgerrors.CodeAlreadySigned, "lease is already signed")
	}
	if existing.GeneratedBy == principalID {
		return DocumentDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "the drafting party cannot sign its own lease")
	}

	ctx = context.WithoutCancel(ctx)

	var signatureURL string
	if len(signaturePNG) > 0 {
		signatureURL, err = s.upload(ctx, objectKey(matchID, "signature.png"), signaturePNG, "image/png")
	} else {
		signedText := existing.LeaseText + fmt.Sprintf("\n\nSigned electronically on %s.\n",
			time.Now().UTC().Format("January 2, 2006"))
		signatureURL, err = s.renderAndUpload(ctx, matchID, signedText, "lease-signed.pdf")
	}
	if err != nil {
		return DocumentDTO{}, err
	}

	if _, err := s.chat.PostSystemWith(ctx, matchID, "Lease signed. The deal is closed.", func(tx *gorm.DB) error {
		signed, err := s.docRepo.SetSignatureTx(ctx, tx, matchID, signatureURL, principalID)
		if err != nil {
			return err
		}
		if !signed {
			return pkgerrors.New(pkgerrors.CodeAlreadySigned, "lease is already signed")
		}
		return nil
	}); err != nil {
		return DocumentDTO{}, err
	}

	s.metrics.IncDocumentOp("sign")
	s.publishEvent(ctx, pubsub.EventDocumentSigned, match, principalID)
	return s.currentDTO(ctx, matchID)
}

// CurrentArtifact returns the artifact for a match the caller is a party to.
func (s *service) CurrentArtifact(ctx context.Context, principalID, matchID uuid.UUID) (DocumentDTO, error) {
	if _, err := s.ensureAcceptedParty(ctx, principalID, matchID); err != nil {
		return DocumentDTO{}, err
	}
	artifact, err := s.loadArtifact(ctx, matchID)
	if err != nil {
		return DocumentDTO{}, err
	}
	return ToDTO(artifact), nil
}

func (s *service) lockMatch(matchID uuid.UUID) func() {
	s.mu.Lock()
	lock, ok := s.locks[matchID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[matchID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *service) ensureAcceptedParty(ctx context.Context, principalID, matchID uuid.UUID) (models.Match, error) {
	if principalID == uuid.Nil || matchID == uuid.Nil {
		return models.Match{}, pkgerrors.New(pkgerrors.CodeValidation, "principal id and match id are required")
	}
	match, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Match{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "match not found")
		}
		return models.Match{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match")
	}
	if !match.Party(principalID) {
		return models.Match{}, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this match")
	}
	if match.Status != enums.MatchStatusAccepted {
		return models.Match{}, pkgerrors.New(pkgerrors.CodeStateConflict, "documents require an accepted match")
	}
	return match, nil
}

func (s *service) loadArtifact(ctx context.Context, matchID uuid.UUID) (models.DocumentArtifact, error) {
	artifact, err := s.docRepo.FindByMatchID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DocumentArtifact{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no lease document for this match")
		}
		return models.DocumentArtifact{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artifact")
	}
	return artifact, nil
}

func (s *service) renderAndUpload(ctx context.Context, matchID uuid.UUID, leaseText, filename string) (string, error) {
	data, err := s.renderer.Render(leaseText)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render artifact")
	}
	return s.upload(ctx, objectKey(matchID, filename), data, "application/pdf")
}

// upload pushes bytes to the object store with bounded exponential backoff.
// Exhaustion surfaces as a retryable dependency error and nothing is
// committed.
func (s *service) upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	var uploadedURL string
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(s.attempts-1), retry.NewExponential(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			s.metrics.IncUploadRetry()
		}
		attempt++
		url, err := s.store.Upload(ctx, key, data, contentType)
		if err != nil {
			return retry.RetryableError(err)
		}
		uploadedURL = url
		return nil
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "object_key", key), "artifact upload exhausted retries", err)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload artifact")
	}
	return uploadedURL, nil
}

func (s *service) publishEvent(ctx context.Context, eventType string, match models.Match, actorID uuid.UUID) {
	if s.events == nil {
		return
	}
	event := pubsub.DealEvent{
		Type:      eventType,
		MatchID:   match.ID,
		ListingID: match.ListingID,
		ActorID:   actorID,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logg.Warn(s.logg.WithMatchID(ctx, match.ID.String()), "publish "+eventType+" failed")
	}
}

func (s *service) currentDTO(ctx context.Context, matchID uuid.UUID) (DocumentDTO, error) {
	artifact, err := s.loadArtifact(ctx, matchID)
	if err != nil {
		return DocumentDTO{}, err
	}
	return ToDTO(artifact), nil
}

func objectKey(matchID uuid.UUID, filename string) string {
	return "matches/" + matchID.String() + "/" + filename
}
