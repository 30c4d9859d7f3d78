package controllers

import (
	"net/http"

	"github.com/crebai/crebmatch-backend/api/responses"
	"github.com/crebai/crebmatch-backend/internal/deals"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
)

// DealList returns the principal's deal dashboard.
func DealList(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deal service unavailable"))
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

		page, err := svc.ListDeals(ctx, principalID, cursor, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
