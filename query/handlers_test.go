package query

import (
	"context"
	"net/http"
	"testing"

	"github.com/andersonfds/freitool/core"
	goerrors "github.com/goliatone/go-errors"
)

type stubRunReader struct {
	filter  core.RunFilter
	entries []core.RunEntry
}

func (r *stubRunReader) List(_ context.Context, filter core.RunFilter) ([]core.RunEntry, error) {
	r.filter = filter
	return r.entries, nil
}

func TestListRunsQuery_DelegatesFilter(t *testing.T) {
	reader := &stubRunReader{entries: []core.RunEntry{{ID: "run-1", Platform: core.PlatformAppStore}}}
	out, err := NewListRunsQuery(reader).Query(context.Background(), ListRunsMessage{
		Filter: core.RunFilter{Platform: core.PlatformAppStore, Status: core.RunStatusFailed, Limit: 5},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].ID != "run-1" {
		t.Fatalf("unexpected entries %+v", out)
	}
	if reader.filter.Limit != 5 || reader.filter.Status != core.RunStatusFailed {
		t.Fatalf("unexpected filter %+v", reader.filter)
	}
}

func TestListRunsQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *ListRunsQuery
	_, err := q.Query(context.Background(), ListRunsMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal || rich.TextCode != core.ErrorInternal {
		t.Fatalf("unexpected envelope %q %q", rich.Category, rich.TextCode)
	}
	if rich.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d code, got %d", http.StatusInternalServerError, rich.Code)
	}
}

func TestListRunsMessage_ValidateReturnsRichError(t *testing.T) {
	cases := map[string]core.RunFilter{
		"platform":  {Platform: "web"},
		"operation": {Operation: "delete"},
		"status":    {Status: "pending"},
		"limit":     {Limit: MaxListRunsLimit + 1},
	}
	for field, filter := range cases {
		err := (ListRunsMessage{Filter: filter}).Validate()
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			t.Fatalf("%s: expected go-errors envelope, got %T", field, err)
		}
		if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.ErrorBadInput {
			t.Fatalf("%s: unexpected envelope %q %q", field, rich.Category, rich.TextCode)
		}
		validation := rich.AllValidationErrors()
		if len(validation) == 0 || validation[0].Field != field {
			t.Fatalf("%s: unexpected validation fields %+v", field, validation)
		}
	}
	if err := (ListRunsMessage{}).Validate(); err != nil {
		t.Fatalf("expected empty filter to be valid, got %v", err)
	}
}
