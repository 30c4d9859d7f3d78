package matches

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	"github.com/crebai/crebmatch-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns the match ledger table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a match repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a match row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&match).
		Error
	return match, err
}

// InsertPending records a like, ignoring the insert when a live match for
// the (liker, listing) pair already exists. The partial unique index on
// live pairs makes this race-safe.
func (r *Repository) InsertPending(ctx context.Context, from, to, listing uuid.UUID) error {
	if from == uuid.Nil || to == uuid.Nil || listing == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO matches (id, from_principal_id, to_principal_id, listing_id, status, created_at, updated_at)
VALUES (?, ?, ?, ?, 'pending', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT DO NOTHING`, uuid.New(), from, to, listing).
		Error
}

// FindLiveByPair returns the non-rejected match for (liker, listing).
func (r *Repository) FindLiveByPair(ctx context.Context, from, listing uuid.UUID) (models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Where("from_principal_id = ? AND listing_id = ? AND status <> ?", from, listing, enums.MatchStatusRejected).
		First(&match).
		Error
	return match, err
}

// TransitionFromPending is the ledger compare-and-set: it moves the match
// out of pending only if it is still pending, reporting whether this caller
// won the transition.
func (r *Repository) TransitionFromPending(ctx context.Context, id uuid.UUID, to enums.MatchStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND status = ?", id, enums.MatchStatusPending).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type matchSummaryRecord struct {
	MatchID          uuid.UUID         `gorm:"column:match_id"`
	FromPrincipalID  uuid.UUID         `gorm:"column:from_principal_id"`
	ToPrincipalID    uuid.UUID         `gorm:"column:to_principal_id"`
	Status           enums.MatchStatus `gorm:"column:status"`
	MatchCreatedAt   time.Time         `gorm:"column:match_created_at"`
	MatchUpdatedAt   time.Time         `gorm:"column:match_updated_at"`
	ListingID        uuid.UUID         `gorm:"column:listing_id"`
	ListingOwnerID   uuid.UUID         `gorm:"column:listing_owner_id"`
	Title            string            `gorm:"column:title"`
	Location         string            `gorm:"column:location"`
	Description      string            `gorm:"column:description"`
	PriceCents       int64             `gorm:"column:price_cents"`
	RentPerSFCents   int64             `gorm:"column:rent_per_sf_cents"`
	SizeSF           int               `gorm:"column:size_sf"`
	ImageURL         sql.NullString    `gorm:"column:image_url"`
	ListingCreatedAt time.Time         `gorm:"column:listing_created_at"`
	FromDisplayName  string            `gorm:"column:from_display_name"`
	ToDisplayName    string            `gorm:"column:to_display_name"`
}

var summaryColumns = []string{
	"m.id AS match_id",
	"m.from_principal_id",
	"m.to_principal_id",
	"m.status",
	"m.created_at AS match_created_at",
	"m.updated_at AS match_updated_at",
	"l.id AS listing_id",
	"l.owner_id AS listing_owner_id",
	"l.title",
	"l.location",
	"l.description",
	"l.price_cents",
	"l.rent_per_sf_cents",
	"l.size_sf",
	"l.image_url",
	"l.created_at AS listing_created_at",
	"pf.display_name AS from_display_name",
	"pt.display_name AS to_display_name",
}

// ListIncoming returns pending matches awaiting the principal's decision,
// newest first.
func (r *Repository) ListIncoming(ctx context.Context, principalID uuid.UUID, cursor string, limit int) ([]MatchSummaryDTO, string, error) {
	query := r.summaryQuery(ctx).
		Where("m.to_principal_id = ?", principalID).
		Where("m.status = ?", enums.MatchStatusPending)
	return r.scanSummaryPage(query, principalID, cursor, limit)
}

// ListActive returns accepted matches where the principal is a party,
// newest first.
func (r *Repository) ListActive(ctx context.Context, principalID uuid.UUID, cursor string, limit int) ([]MatchSummaryDTO, string, error) {
	query := r.summaryQuery(ctx).
		Where("(m.from_principal_id = ? OR m.to_principal_id = ?)", principalID, principalID).
		Where("m.status = ?", enums.MatchStatusAccepted)
	return r.scanSummaryPage(query, principalID, cursor, limit)
}

func (r *Repository) summaryQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("matches m").
		Select(strings.Join(summaryColumns, ", ")).
		Joins("JOIN listings l ON l.id = m.listing_id").
		Joins("JOIN principals pf ON pf.id = m.from_principal_id").
		Joins("JOIN principals pt ON pt.id = m.to_principal_id")
}

func (r *Repository) scanSummaryPage(query *gorm.DB, principalID uuid.UUID, cursor string, limit int) ([]MatchSummaryDTO, string, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return nil, "", err
	}
	if decodedCursor != nil {
		query = query.Where("(m.created_at < ?) OR (m.created_at = ? AND m.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []matchSummaryRecord
	if err := query.
		Order("m.created_at DESC").
		Order("m.id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Scan(&records).
		Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.MatchCreatedAt,
			ID:        last.MatchID,
		})
	}

	items := make([]MatchSummaryDTO, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDTO(principalID))
	}
	return items, nextCursor, nil
}

func (rec matchSummaryRecord) toDTO(viewer uuid.UUID) MatchSummaryDTO {
	counterpartID := rec.FromPrincipalID
	counterpartName := rec.FromDisplayName
	if rec.FromPrincipalID == viewer {
		counterpartID = rec.ToPrincipalID
		counterpartName = rec.ToDisplayName
	}

	var imageURL *string
	if rec.ImageURL.Valid {
		v := rec.ImageURL.String
		imageURL = &v
	}

	return MatchSummaryDTO{
		Match: MatchDTO{
			ID:              rec.MatchID,
			FromPrincipalID: rec.FromPrincipalID,
			ToPrincipalID:   rec.ToPrincipalID,
			ListingID:       rec.ListingID,
			Status:          rec.Status,
			CreatedAt:       rec.MatchCreatedAt,
			UpdatedAt:       rec.MatchUpdatedAt,
		},
		Listing: listings.ListingDTO{
			ID:             rec.ListingID,
			OwnerID:        rec.ListingOwnerID,
			Title:          rec.Title,
			Location:       rec.Location,
			Description:    rec.Description,
			PriceCents:     rec.PriceCents,
			RentPerSFCents: rec.RentPerSFCents,
			SizeSF:         rec.SizeSF,
			ImageURL:       imageURL,
			CreatedAt:      rec.ListingCreatedAt,
		},
		CounterpartID:   counterpartID,
		CounterpartName: counterpartName,
	}
}
