package deals

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crebai/crebmatch-backend/internal/chat"
	"github.com/crebai/crebmatch-backend/internal/documents"
	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/internal/matches"
	"github.com/crebai/crebmatch-backend/internal/principals"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDealsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS principals (
  id TEXT PRIMARY KEY,
  display_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`, `
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_cents INTEGER NOT NULL DEFAULT 0,
  rent_per_sf_cents INTEGER NOT NULL DEFAULT 0,
  size_sf INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS matches (
  id TEXT PRIMARY KEY,
  from_principal_id TEXT NOT NULL,
  to_principal_id TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS matches_live_pair_key
  ON matches (from_principal_id, listing_id)
  WHERE status <> 'rejected';`, `
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  match_id TEXT NOT NULL,
  sender_id TEXT,
  seq INTEGER NOT NULL,
  content TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (match_id, seq)
);`, `
CREATE TABLE IF NOT EXISTS document_artifacts (
  match_id TEXT PRIMARY KEY,
  lease_text TEXT NOT NULL,
  artifact_url TEXT NOT NULL,
  signature_url TEXT,
  generated_by TEXT NOT NULL,
  signed_by TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM document_artifacts")
		db.Exec("DELETE FROM messages")
		db.Exec("DELETE FROM matches")
		db.Exec("DELETE FROM listings")
		db.Exec("DELETE FROM principals")
	})

	return db
}

type nullStore struct {
	mu sync.Mutex
}

func (s *nullStore) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "https://storage.example.com/" + key, nil
}

type engineFixture struct {
	db        *gorm.DB
	matchSvc  matches.Service
	chatSvc   chat.Service
	docSvc    documents.Service
	dealSvc   Service
	tenant    uuid.UUID
	landlord  uuid.UUID
	listingID uuid.UUID
}

func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()

	db := setupDealsTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test"})

	matchRepo := matches.NewRepository(db)
	listingRepo := listings.NewRepository(db)

	matchSvc, err := matches.NewService(matches.ServiceParams{
		MatchRepo:   matchRepo,
		ListingRepo: listingRepo,
		Logger:      logg,
	})
	require.NoError(t, err)

	chatSvc, err := chat.NewService(chat.ServiceParams{
		ChatRepo:  chat.NewRepository(db),
		MatchRepo: matchRepo,
		Logger:    logg,
	})
	require.NoError(t, err)

	docRepo := documents.NewRepository(db)
	docSvc, err := documents.NewService(documents.ServiceParams{
		DocRepo:        docRepo,
		MatchRepo:      matchRepo,
		ListingRepo:    listingRepo,
		PrincipalRepo:  principals.NewRepository(db),
		Chat:           chatSvc,
		Store:          &nullStore{},
		Logger:         logg,
		UploadAttempts: 1,
		UploadBackoff:  time.Millisecond,
	})
	require.NoError(t, err)

	dealSvc, err := NewService(ServiceParams{
		MatchRepo: matchRepo,
		DocRepo:   docRepo,
	})
	require.NoError(t, err)

	tenant := models.Principal{ID: uuid.New(), DisplayName: "Taylor Tenant", Email: uuid.NewString() + "@example.com"}
	landlord := models.Principal{ID: uuid.New(), DisplayName: "Logan Landlord", Email: uuid.NewString() + "@example.com"}
	require.NoError(t, db.Create(&tenant).Error)
	require.NoError(t, db.Create(&landlord).Error)

	listing := models.Listing{
		ID:             uuid.New(),
		OwnerID:        landlord.ID,
		Title:          "Suite 400, Congress Ave",
		Location:       "Austin, TX",
		PriceCents:     250_000_00,
		RentPerSFCents: 36_00,
		SizeSF:         1200,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&listing).Error)

	return engineFixture{
		db:        db,
		matchSvc:  matchSvc,
		chatSvc:   chatSvc,
		docSvc:    docSvc,
		dealSvc:   dealSvc,
		tenant:    tenant.ID,
		landlord:  landlord.ID,
		listingID: listing.ID,
	}
}

func TestDealLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t)

	match, err := fx.matchSvc.Like(ctx, fx.tenant, fx.listingID)
	require.NoError(t, err)

	// no deal until the owner accepts
	page, err := fx.dealSvc.ListDeals(ctx, fx.tenant, "", 10)
	require.NoError(t, err)
	require.Empty(t, page.Deals)

	_, err = fx.matchSvc.Accept(ctx, fx.landlord, match.ID)
	require.NoError(t, err)

	page, err = fx.dealSvc.ListDeals(ctx, fx.tenant, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Deals, 1)
	require.Equal(t, enums.DealStatusDrafted, page.Deals[0].Status)
	require.Nil(t, page.Deals[0].Document)
	require.Equal(t, fx.landlord, page.Deals[0].CounterpartID)
	require.Equal(t, "Logan Landlord", page.Deals[0].CounterpartName)

	_, err = fx.docSvc.Generate(ctx, fx.landlord, match.ID)
	require.NoError(t, err)

	page, err = fx.dealSvc.ListDeals(ctx, fx.landlord, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Deals, 1)
	require.Equal(t, enums.DealStatusSent, page.Deals[0].Status)
	require.NotNil(t, page.Deals[0].Document)
	require.Equal(t, "Taylor Tenant", page.Deals[0].CounterpartName)

	_, err = fx.docSvc.Sign(ctx, fx.tenant, match.ID, nil)
	require.NoError(t, err)

	// post-signature edits conflict
	_, err = fx.docSvc.Update(ctx, fx.landlord, match.ID, "late change")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	for _, viewer := range []uuid.UUID{fx.tenant, fx.landlord} {
		page, err = fx.dealSvc.ListDeals(ctx, viewer, "", 10)
		require.NoError(t, err)
		require.Len(t, page.Deals, 1)
		require.Equal(t, enums.DealStatusSigned, page.Deals[0].Status)
	}

	// workflow narrated the whole deal in the channel
	history, err := fx.chatSvc.History(ctx, fx.tenant, match.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	require.Equal(t, "Lease document generated.", history.Messages[0].Content)
	require.Equal(t, "Lease signed. The deal is closed.", history.Messages[1].Content)
}

func TestListDealsValidatesPrincipal(t *testing.T) {
	fx := newEngineFixture(t)
	_, err := fx.dealSvc.ListDeals(context.Background(), uuid.Nil, "", 10)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
