package controllers

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crebai/crebmatch-backend/api/middleware"
	"github.com/crebai/crebmatch-backend/internal/documents"
	"github.com/crebai/crebmatch-backend/pkg/logger"
)

type stubDocumentService struct {
	signedWith []byte
	signCalls  int
}

func (s *stubDocumentService) Generate(ctx context.Context, principalID, matchID uuid.UUID) (documents.DocumentDTO, error) {
	return documents.DocumentDTO{}, nil
}

func (s *stubDocumentService) Update(ctx context.Context, principalID, matchID uuid.UUID, leaseText string) (documents.DocumentDTO, error) {
	return documents.DocumentDTO{}, nil
}

func (s *stubDocumentService) Sign(ctx context.Context, principalID, matchID uuid.UUID, signaturePNG []byte) (documents.DocumentDTO, error) {
	s.signCalls++
	s.signedWith = signaturePNG
	return documents.DocumentDTO{}, nil
}

func (s *stubDocumentService) CurrentArtifact(ctx context.Context, principalID, matchID uuid.UUID) (documents.DocumentDTO, error) {
	return documents.DocumentDTO{}, nil
}

func signRequest(t *testing.T, body io.Reader) *http.Request {
	t.Helper()
	matchID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+matchID+"/sign", body)
	ctx := middleware.WithPrincipalID(req.Context(), uuid.NewString())
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("matchId", matchID)
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestDocumentSignAcceptsEmptyBody(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := &stubDocumentService{}

	rec := httptest.NewRecorder()
	DocumentSign(svc, logg)(rec, signRequest(t, http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.signCalls)
	require.Nil(t, svc.signedWith)
}

func TestDocumentSignDecodesSignature(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := &stubDocumentService{}

	raw := []byte{0x89, 'P', 'N', 'G'}
	body := `{"signature_png":"` + base64.StdEncoding.EncodeToString(raw) + `"}`
	rec := httptest.NewRecorder()
	DocumentSign(svc, logg)(rec, signRequest(t, strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, raw, svc.signedWith)
}

func TestDocumentSignRejectsMalformedBody(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := &stubDocumentService{}

	rec := httptest.NewRecorder()
	DocumentSign(svc, logg)(rec, signRequest(t, strings.NewReader("{not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, svc.signCalls)
}
