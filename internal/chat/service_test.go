package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/crebai/crebmatch-backend/internal/matches"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupChatTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS matches (
  id TEXT PRIMARY KEY,
  from_principal_id TEXT NOT NULL,
  to_principal_id TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  match_id TEXT NOT NULL,
  sender_id TEXT,
  seq INTEGER NOT NULL,
  content TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (match_id, seq)
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM messages")
		db.Exec("DELETE FROM matches")
	})

	return db
}

type chatFixture struct {
	svc   Service
	db    *gorm.DB
	liker uuid.UUID
	owner uuid.UUID
	match uuid.UUID
}

func newChatFixture(t *testing.T, status enums.MatchStatus, buffer int) chatFixture {
	t.Helper()

	db := setupChatTestDB(t)
	svc, err := NewService(ServiceParams{
		ChatRepo:         NewRepository(db),
		MatchRepo:        matches.NewRepository(db),
		Logger:           logger.New(logger.Options{ServiceName: "test"}),
		SubscriberBuffer: buffer,
	})
	require.NoError(t, err)

	row := models.Match{
		ID:              uuid.New(),
		FromPrincipalID: uuid.New(),
		ToPrincipalID:   uuid.New(),
		ListingID:       uuid.New(),
		Status:          status,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	require.NoError(t, db.Create(&row).Error)

	return chatFixture{
		svc:   svc,
		db:    db,
		liker: row.FromPrincipalID,
		owner: row.ToPrincipalID,
		match: row.ID,
	}
}

func TestPostRequiresAcceptedMatch(t *testing.T) {
	ctx := context.Background()
	fx := newChatFixture(t, enums.MatchStatusPending, 0)

	_, err := fx.svc.Post(ctx, fx.liker, fx.match, "hello")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeChannelClosed))
}

func TestPostRequiresParty(t *testing.T) {
	ctx := context.Background()
	fx := newChatFixture(t, enums.MatchStatusAccepted, 0)

	_, err := fx.svc.Post(ctx, uuid.New(), fx.match, "hello")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestPostAssignsMonotoneSeq(t *testing.T) {
	ctx := context.Background()
	fx := newChatFixture(t, enums.MatchStatusAccepted, 0)

	for i := 1; i <= 3; i++ {
		msg, err := fx.svc.Post(ctx, fx.liker, fx.match, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		require.EqualValues(t, i, msg.Seq)
	}

	sys, err := fx.svc.PostSystemWith(ctx, fx.match, "lease generated", nil)
	require.NoError(t, err)
	require.EqualValues(t, 4, sys.Seq)
	require.True(t, sys.System)
	require.Nil(t, sys.SenderID)
}

func TestHistoryPagesAscending(t *testing.T) {
	ctx := context.Background()
	fx := newChatFixture(t, enums.MatchStatusAccepted, 0)

	for i := 1; i <= 5; i++ {
		_, err := fx.svc.Post(ctx, fx.liker, fx.match, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	page, err := fx.svc.History(ctx, fx.owner, fx.match, 0, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	require.EqualValues(t, 1, page.Messages[0].Seq)
	require.EqualValues(t, 2, page.Messages[1].Seq)
	require.EqualValues(t, 2, page.NextAfterSeq)

	page, err = fx.svc.History(ctx, fx.owner, fx.match, page.NextAfterSeq, 10)
	require.NoError(t, err)
	require.Len(t, page.Messages, 3)
	require.EqualValues(t, 3, page.Messages[0].Seq)
	require.EqualValues(t, 5, page.Messages[2].Seq)
}

func TestSubscribeSeamHasNoGapOrDuplicate(t *testing.T) {
	ctx := context.Background()
	fx := newChatFixture(t, enums.MatchStatusAccepted, 256)

	const total = 40
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= total; i++ {
			if _, err := fx.svc.Post(ctx, fx.liker, fx.match, fmt.Sprintf("msg %d", i)); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	// subscribe mid-stream: backlog plus live delivery must cover every
	// seq exactly once
	backlog, sub, err := fx.svc.Subscribe(ctx, fx.owner, fx.match)
	require.NoError(t, err)
	defer fx.svc.Unsubscribe(fx.match, sub)

	wg.Wait()

	seen := map[int64]int{}
	lastSeq := int64(0)
	for _, msg := range backlog {
		seen[msg.Seq]++
		require.Greater(t, msg.Seq, lastSeq)
		lastSeq = msg.Seq
	}

	deadline := time.After(5 * time.Second)
	for int64(len(seen)) < total {
		select {
		case msg, ok := <-sub.C():
			require.True(t, ok, "subscriber evicted")
			seen[msg.Seq]++
			require.Greater(t, msg.Seq, lastSeq)
			lastSeq = msg.Seq
		case <-deadline:
			t.Fatalf("timed out with %d of %d messages", len(seen), total)
		}
	}

	for seq := int64(1); seq <= total; seq++ {
		require.Equal(t, 1, seen[seq], "seq %d", seq)
	}
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	ctx := context.Background()
	fx := newChatFixture(t, enums.MatchStatusAccepted, 1)

	_, sub, err := fx.svc.Subscribe(ctx, fx.owner, fx.match)
	require.NoError(t, err)

	// fill the queue, then overflow it
	_, err = fx.svc.Post(ctx, fx.liker, fx.match, "one")
	require.NoError(t, err)
	_, err = fx.svc.Post(ctx, fx.liker, fx.match, "two")
	require.NoError(t, err)

	first, ok := <-sub.C()
	require.True(t, ok)
	require.EqualValues(t, 1, first.Seq)

	_, ok = <-sub.C()
	require.False(t, ok, "expected closed channel after eviction")
}

func TestPostSystemWithRollsBackAtomically(t *testing.T) {
	ctx := context.Background()
	fx := newChatFixture(t, enums.MatchStatusAccepted, 0)

	boom := errors.New("artifact write failed")
	_, err := fx.svc.PostSystemWith(ctx, fx.match, "lease generated", func(tx *gorm.DB) error {
		return boom
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, fx.db.Model(&models.Message{}).Where("match_id = ?", fx.match).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// the failed attempt must not burn a sequence number
	msg, err := fx.svc.Post(ctx, fx.liker, fx.match, "hello")
	require.NoError(t, err)
	require.EqualValues(t, 1, msg.Seq)
}
