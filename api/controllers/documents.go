package controllers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/crebai/crebmatch-backend/api/responses"
	"github.com/crebai/crebmatch-backend/api/validators"
	"github.com/crebai/crebmatch-backend/internal/documents"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
)

type updateLeasePayload struct {
	LeaseText string `json:"lease_text" validate:"required,min=1"`
}

type signLeasePayload struct {
	SignaturePNG string `json:"signature_png,omitempty"`
}

// DocumentGenerate renders the lease for an accepted match and uploads it.
func DocumentGenerate(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
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

		doc, err := svc.Generate(ctx, principalID, matchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

// DocumentUpdate replaces the lease text while the document is unsigned.
func DocumentUpdate(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
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

		var payload updateLeasePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		doc, err := svc.Update(ctx, principalID, matchID, payload.LeaseText)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

// DocumentSign records the counterparty signature and closes the deal.
func DocumentSign(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
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

		// the signature image is optional, so an empty body is a valid sign request
		var payload signLeasePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil && !errors.Is(err, io.EOF) {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var signaturePNG []byte
		if raw := strings.TrimSpace(payload.SignaturePNG); raw != "" {
			signaturePNG, err = base64.StdEncoding.DecodeString(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "signature must be base64 encoded"))
				return
			}
		}

		doc, err := svc.Sign(ctx, principalID, matchID, signaturePNG)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

// DocumentFetch returns the current artifact for a match.
func DocumentFetch(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
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

		doc, err := svc.CurrentArtifact(ctx, principalID, matchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}
