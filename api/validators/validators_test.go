package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
)

type testPayload struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"listing_id":"x","extra":true}`))
	var payload testPayload
	err := DecodeJSONBody(req, &payload)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyValidatesTags(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"listing_id":"not-a-uuid"}`))
	var payload testPayload
	err := DecodeJSONBody(req, &payload)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"listing_id":"5a21a3fd-4a3b-43ef-9a5a-51c1d964b8e3"}`))
	var payload testPayload
	if err := DecodeJSONBody(req, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.ListingID == "" {
		t.Fatal("expected listing id to be decoded")
	}
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range error, got %v", err)
	}

	req = httptest.NewRequest("GET", "/", nil)
	value, err := ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || value != 20 {
		t.Fatalf("expected default 20, got %d err %v", value, err)
	}
}

func TestParseQueryCentsPtr(t *testing.T) {
	req := httptest.NewRequest("GET", "/?min_price_cents=120000", nil)
	value, err := ParseQueryCentsPtr(req, "min_price_cents")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value == nil || *value != 120000 {
		t.Fatalf("expected 120000, got %v", value)
	}

	req = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryCentsPtr(req, "min_price_cents")
	if err != nil || value != nil {
		t.Fatalf("expected nil for absent param, got %v err %v", value, err)
	}

	req = httptest.NewRequest("GET", "/?min_price_cents=-5", nil)
	if _, err := ParseQueryCentsPtr(req, "min_price_cents"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
