package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestMapError_PreservesRichEnvelope(t *testing.T) {
	err := NewError("provider unreachable", goerrors.CategoryExternal, http.StatusInternalServerError, map[string]any{"path": "/v3/quotations"})

	mapped := MapError(err)
	if mapped.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, mapped.Code)
	}
	if mapped.TextCode != RelayErrorExternalFailure {
		t.Fatalf("expected %q, got %q", RelayErrorExternalFailure, mapped.TextCode)
	}
}

func TestMapError_ClassifiesPlainErrors(t *testing.T) {
	mapped := MapError(errors.New("order id is required"))
	if mapped.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %q", mapped.Category)
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", mapped.Code)
	}
}

func TestHTTPStatus_DefaultsToInternal(t *testing.T) {
	if status := HTTPStatus(Internal("", nil)); status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
}

func TestLookup_MissingKeepsIdentifier(t *testing.T) {
	lookup := Missing(Contract{ID: "contract_1"})
	value, ok := lookup.Get()
	if ok {
		t.Fatalf("expected missing lookup")
	}
	if value.ID != "contract_1" || value.EventID != "" {
		t.Fatalf("expected identifier-only record, got %#v", value)
	}
}
