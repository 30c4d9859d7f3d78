package listings

import (
	"context"
	"testing"
	"time"

	"github.com/crebai/crebmatch-backend/internal/rejections"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
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
CREATE TABLE IF NOT EXISTS rejection_marks (
  id TEXT PRIMARY KEY,
  principal_id TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (principal_id, listing_id)
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM listings")
		db.Exec("DELETE FROM matches")
		db.Exec("DELETE FROM rejection_marks")
	})

	return db
}

func newFeedFixture(t *testing.T) (Service, rejections.Service, *gorm.DB) {
	t.Helper()

	db := setupFeedTestDB(t)
	rejSvc, err := rejections.NewService(rejections.ServiceParams{
		Repo:   rejections.NewRepository(db),
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		Rejections: rejSvc,
	})
	require.NoError(t, err)
	return svc, rejSvc, db
}

func insertListing(t *testing.T, db *gorm.DB, owner uuid.UUID, title, location string, priceCents, rentCents int64, sizeSF int, createdAt time.Time) uuid.UUID {
	t.Helper()

	listing := models.Listing{
		ID:             uuid.New(),
		OwnerID:        owner,
		Title:          title,
		Location:       location,
		PriceCents:     priceCents,
		RentPerSFCents: rentCents,
		SizeSF:         sizeSF,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, db.Create(&listing).Error)
	return listing.ID
}

func insertMatch(t *testing.T, db *gorm.DB, from, to, listing uuid.UUID, status enums.MatchStatus) {
	t.Helper()

	row := models.Match{
		ID:              uuid.New(),
		FromPrincipalID: from,
		ToPrincipalID:   to,
		ListingID:       listing,
		Status:          status,
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestFeedExcludesOwnMatchedAndMarkedListings(t *testing.T) {
	ctx := context.Background()
	svc, rejSvc, db := newFeedFixture(t)

	viewer := uuid.New()
	owner := uuid.New()
	now := time.Now().UTC()

	own := insertListing(t, db, viewer, "Own office", "Austin", 100, 10, 500, now)
	matched := insertListing(t, db, owner, "Matched retail", "Austin", 200, 20, 600, now.Add(time.Second))
	marked := insertListing(t, db, owner, "Marked warehouse", "Dallas", 300, 30, 700, now.Add(2*time.Second))
	open := insertListing(t, db, owner, "Open flex", "Austin", 400, 40, 800, now.Add(3*time.Second))

	insertMatch(t, db, viewer, owner, matched, enums.MatchStatusPending)
	require.NoError(t, rejSvc.Mark(ctx, viewer, marked))

	feed, err := svc.Feed(ctx, viewer, FeedFilters{})
	require.NoError(t, err)
	require.False(t, feed.FeedReset)
	require.Len(t, feed.Listings, 1)
	require.Equal(t, open, feed.Listings[0].ID)
	for _, listing := range feed.Listings {
		require.NotEqual(t, own, listing.ID)
	}
}

func TestFeedAllowsReLikeAfterRejectedMatch(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newFeedFixture(t)

	viewer := uuid.New()
	owner := uuid.New()
	listing := insertListing(t, db, owner, "Rejected once", "Austin", 100, 10, 500, time.Now().UTC())
	insertMatch(t, db, viewer, owner, listing, enums.MatchStatusRejected)

	feed, err := svc.Feed(ctx, viewer, FeedFilters{})
	require.NoError(t, err)
	require.Len(t, feed.Listings, 1)
	require.Equal(t, listing, feed.Listings[0].ID)
}

func TestFeedAppliesFilters(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newFeedFixture(t)

	viewer := uuid.New()
	owner := uuid.New()
	now := time.Now().UTC()

	cheap := insertListing(t, db, owner, "Cheap", "Downtown Austin", 1000, 50, 400, now)
	insertListing(t, db, owner, "Pricey", "Downtown Austin", 9000, 90, 2000, now.Add(time.Second))
	insertListing(t, db, owner, "Elsewhere", "Houston", 1000, 50, 400, now.Add(2*time.Second))

	maxPrice := int64(5000)
	feed, err := svc.Feed(ctx, viewer, FeedFilters{
		Location:      "austin",
		MaxPriceCents: &maxPrice,
	})
	require.NoError(t, err)
	require.Len(t, feed.Listings, 1)
	require.Equal(t, cheap, feed.Listings[0].ID)
}

func TestFeedCyclesBackWhenRejectionsExhaustIt(t *testing.T) {
	ctx := context.Background()
	svc, rejSvc, db := newFeedFixture(t)

	viewer := uuid.New()
	owner := uuid.New()
	now := time.Now().UTC()

	first := insertListing(t, db, owner, "First", "Austin", 100, 10, 500, now)
	second := insertListing(t, db, owner, "Second", "Austin", 200, 20, 600, now.Add(time.Second))

	require.NoError(t, rejSvc.Mark(ctx, viewer, first))
	require.NoError(t, rejSvc.Mark(ctx, viewer, second))

	feed, err := svc.Feed(ctx, viewer, FeedFilters{})
	require.NoError(t, err)
	require.True(t, feed.FeedReset)
	require.Len(t, feed.Listings, 2)

	// marks were cleared, next page serves normally without another reset
	feed, err = svc.Feed(ctx, viewer, FeedFilters{})
	require.NoError(t, err)
	require.False(t, feed.FeedReset)
	require.Len(t, feed.Listings, 2)
}

func TestFeedEmptyForOtherReasonsDoesNotReset(t *testing.T) {
	ctx := context.Background()
	svc, rejSvc, _ := newFeedFixture(t)

	viewer := uuid.New()
	marked := uuid.New()
	require.NoError(t, rejSvc.Mark(ctx, viewer, marked))

	feed, err := svc.Feed(ctx, viewer, FeedFilters{})
	require.NoError(t, err)
	require.False(t, feed.FeedReset)
	require.Empty(t, feed.Listings)

	set, err := rejSvc.MarkedSet(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, set, 1)
}
