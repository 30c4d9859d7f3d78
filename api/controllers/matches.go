package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crebai/crebmatch-backend/api/responses"
	"github.com/crebai/crebmatch-backend/api/validators"
	"github.com/crebai/crebmatch-backend/internal/matches"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
)

type likeListingPayload struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
}

func matchIDFromURL(r *http.Request) (uuid.UUID, error) {
	matchID, err := uuid.Parse(chi.URLParam(r, "matchId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid match id")
	}
	return matchID, nil
}

func parsePage(r *http.Request) (string, int, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(r.URL.Query().Get("cursor")), limit, nil
}

// MatchLike opens a pending match against a listing.
func MatchLike(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "match service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload likeListingPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		match, err := svc.Like(ctx, principalID, listingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, match)
	}
}

// MatchAccept moves a pending match to accepted. Owner side only.
func MatchAccept(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "match service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		matchID, err := matchIDFromURL(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		match, err := svc.Accept(ctx, principalID, matchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, match)
	}
}

// MatchReject moves a pending match to rejected. Either party may reject.
func MatchReject(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "match service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		matchID, err := matchIDFromURL(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		match, err := svc.Reject(ctx, principalID, matchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, match)
	}
}

// MatchIncoming lists pending matches against the principal's listings.
func MatchIncoming(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "match service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cursor, limit, err := parsePage(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListIncoming(ctx, principalID, cursor, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// MatchActive lists accepted matches the principal is a party to.
func MatchActive(svc matches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "match service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cursor, limit, err := parsePage(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListActive(ctx, principalID, cursor, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
