package devkit

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/andersonfds/freitool/core"
)

func TestFakeTransportAdapter_ReplaysScriptsAndRecords(t *testing.T) {
	adapter := NewFakeTransportAdapter("REST",
		JSONResponse(http.StatusOK, `{"id":"edit-1"}`),
		FailedExchange(stderrors.New("connection reset")),
	)
	if adapter.Kind() != "rest" {
		t.Fatalf("expected normalized kind, got %q", adapter.Kind())
	}

	res, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodPost, URL: "https://api.test/edits"})
	if err != nil || string(res.Body) != `{"id":"edit-1"}` {
		t.Fatalf("unexpected first exchange: %v %s", err, res.Body)
	}
	if _, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: "https://api.test/tracks/beta"}); err == nil {
		t.Fatalf("expected scripted failure")
	}
	if _, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: "https://api.test/tracks/beta"}); err == nil {
		t.Fatalf("expected last script to repeat")
	}

	if adapter.Count(http.MethodPost, "/edits") != 1 {
		t.Fatalf("expected one edit request")
	}
	if adapter.Count("", "/tracks/beta") != 2 {
		t.Fatalf("expected two track requests")
	}
}
