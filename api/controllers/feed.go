package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crebai/crebmatch-backend/api/middleware"
	"github.com/crebai/crebmatch-backend/api/responses"
	"github.com/crebai/crebmatch-backend/api/validators"
	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/internal/rejections"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
)

type markRejectionPayload struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
}

func principalFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.PrincipalIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing")
	}
	principalID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid principal id")
	}
	return principalID, nil
}

// FeedList returns the discovery feed for the authenticated principal.
func FeedList(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filters, err := parseFeedFilters(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		feed, err := svc.Feed(ctx, principalID, filters)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, feed)
	}
}

func parseFeedFilters(r *http.Request) (listings.FeedFilters, error) {
	filters := listings.FeedFilters{
		Location: strings.TrimSpace(r.URL.Query().Get("location")),
	}

	var err error
	if filters.MinPriceCents, err = validators.ParseQueryCentsPtr(r, "min_price_cents"); err != nil {
		return listings.FeedFilters{}, err
	}
	if filters.MaxPriceCents, err = validators.ParseQueryCentsPtr(r, "max_price_cents"); err != nil {
		return listings.FeedFilters{}, err
	}
	if filters.MinRentPerSFCents, err = validators.ParseQueryCentsPtr(r, "min_rent_per_sf_cents"); err != nil {
		return listings.FeedFilters{}, err
	}
	if filters.MaxRentPerSFCents, err = validators.ParseQueryCentsPtr(r, "max_rent_per_sf_cents"); err != nil {
		return listings.FeedFilters{}, err
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("min_size_sf")); raw != "" {
		value, err := validators.ParseQueryInt(r, "min_size_sf", 0, 0, 1<<30)
		if err != nil {
			return listings.FeedFilters{}, err
		}
		filters.MinSizeSF = &value
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("max_size_sf")); raw != "" {
		value, err := validators.ParseQueryInt(r, "max_size_sf", 0, 0, 1<<30)
		if err != nil {
			return listings.FeedFilters{}, err
		}
		filters.MaxSizeSF = &value
	}

	return filters, nil
}

// FeedReject marks a listing as not interesting for the principal.
func FeedReject(svc rejections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rejection service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload markRejectionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		if err := svc.Mark(ctx, principalID, listingID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"listing_id": listingID.String()})
	}
}

// FeedUnreject removes a rejection mark so the listing surfaces again.
func FeedUnreject(svc rejections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rejection service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		if err := svc.Undo(ctx, principalID, listingID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"listing_id": listingID.String()})
	}
}
