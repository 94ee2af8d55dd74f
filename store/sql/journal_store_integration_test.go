package sqlstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/andersonfds/freitool/core"
	sqlstore "github.com/andersonfds/freitool/store/sql"
)

func TestOpenAppliesSQLiteMigrations(t *testing.T) {
	journal := openSQLiteJournal(t)

	var tableName string
	if err := journal.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"release_runs",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "release_runs" {
		t.Fatalf("expected release_runs table, got %q", tableName)
	}
}

func TestJournalStore_RecordAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	journal := openSQLiteJournal(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []core.RunEntry{
		{
			Platform:   core.PlatformAppStore,
			Operation:  core.OperationSetNotes,
			Target:     "1234567890",
			Version:    "1.2.0",
			Locale:     "en-US",
			Status:     core.RunStatusOK,
			Step:       core.StepPatched,
			DurationMS: 120,
			CreatedAt:  base,
		},
		{
			Platform:   core.PlatformGooglePlay,
			Operation:  core.OperationCreateVersion,
			Target:     "com.example.app/internal",
			Version:    "1.2.0",
			Status:     core.RunStatusFailed,
			Step:       core.StepSessionOpen,
			ErrorCode:  core.ErrorVersionAlreadyExists,
			Error:      "googleplay: release 1.2.0 already exists",
			DurationMS: 80,
			CreatedAt:  base.Add(time.Minute),
		},
		{
			Platform:   core.PlatformGooglePlay,
			Operation:  core.OperationSetNotes,
			Target:     "com.example.app/internal",
			Version:    "1.2.0",
			Locale:     "pt-BR",
			Status:     core.RunStatusOK,
			Step:       core.StepCommitted,
			DurationMS: 95,
			CreatedAt:  base.Add(2 * time.Minute),
		},
	}
	for _, entry := range entries {
		if err := journal.Record(ctx, entry); err != nil {
			t.Fatalf("record %s/%s: %v", entry.Platform, entry.Operation, err)
		}
	}

	all, err := journal.List(ctx, core.RunFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	if all[0].Locale != "pt-BR" || all[2].Platform != core.PlatformAppStore {
		t.Fatalf("expected newest first ordering, got %+v", all)
	}
	if all[0].ID == "" {
		t.Fatalf("expected generated run id")
	}

	failed, err := journal.List(ctx, core.RunFilter{Status: core.RunStatusFailed})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed run, got %d", len(failed))
	}
	got := failed[0]
	if got.ErrorCode != core.ErrorVersionAlreadyExists || got.Step != core.StepSessionOpen || got.DurationMS != 80 {
		t.Fatalf("unexpected failed run: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected created_at %s, got %s", base.Add(time.Minute), got.CreatedAt)
	}

	android, err := journal.List(ctx, core.RunFilter{Platform: core.PlatformGooglePlay, Operation: core.OperationSetNotes})
	if err != nil {
		t.Fatalf("list android set_notes: %v", err)
	}
	if len(android) != 1 || android[0].Target != "com.example.app/internal" {
		t.Fatalf("unexpected android set_notes runs: %+v", android)
	}

	limited, err := journal.List(ctx, core.RunFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(limited))
	}
}

func TestJournalStore_RejectsEntryWithoutPlatform(t *testing.T) {
	journal := openSQLiteJournal(t)
	if err := journal.Record(context.Background(), core.RunEntry{Operation: core.OperationSetNotes}); err == nil {
		t.Fatalf("expected missing platform to fail")
	}
}

func TestOpen_RejectsUnknownDriverAndEmptyDSN(t *testing.T) {
	ctx := context.Background()
	if _, err := sqlstore.Open(ctx, core.JournalConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver to fail")
	}
	if _, err := sqlstore.Open(ctx, core.JournalConfig{Driver: "sqlite3"}); err == nil {
		t.Fatalf("expected empty dsn to fail")
	}
}

func TestNewJournalStore_RequiresDB(t *testing.T) {
	if _, err := sqlstore.NewJournalStore(nil); err == nil {
		t.Fatalf("expected nil db to fail")
	}
	if _, err := sqlstore.NewRepositoryFactoryFromDB(nil); err == nil {
		t.Fatalf("expected nil db to fail factory wiring")
	}
}

func openSQLiteJournal(t *testing.T) *sqlstore.Journal {
	t.Helper()
	dsn := fmt.Sprintf(
		"file:freitool-journal-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	journal, err := sqlstore.Open(context.Background(), core.JournalConfig{Driver: sqlstore.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}
