package core

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"
)

type stubReleaseStore struct {
	platform string
	target   string
	steps    []RunStep
	err      error

	notesCalls  int
	createCalls int
}

func (s *stubReleaseStore) Platform() string { return s.platform }
func (s *stubReleaseStore) Target() string   { return s.target }

func (s *stubReleaseStore) SetNotes(ctx context.Context, _, _, _ string) error {
	s.notesCalls++
	for _, step := range s.steps {
		MarkStep(ctx, step)
	}
	return s.err
}

func (s *stubReleaseStore) CreateVersion(ctx context.Context, _ string) error {
	s.createCalls++
	for _, step := range s.steps {
		MarkStep(ctx, step)
	}
	return s.err
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []RunEntry
	err     error
}

func (j *memoryJournal) Record(_ context.Context, entry RunEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, entry)
	return nil
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func TestJournaledStore_RecordsSuccessfulRun(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	inner := &stubReleaseStore{
		platform: PlatformAppStore,
		target:   "app_123",
		steps:    []RunStep{StepAuthenticated, StepVersionResolved, StepLocalizationResolved, StepPatched},
	}
	journal := &memoryJournal{}
	logger := newCaptureLogger()
	store := NewJournaledStore(inner,
		WithRunJournal(journal),
		WithRunLogger(logger),
		WithRunClock(steppingClock(start, 250*time.Millisecond)),
	)

	if err := store.SetNotes(context.Background(), " en-US ", "1.2.0", "Bug fixes"); err != nil {
		t.Fatalf("set notes: %v", err)
	}
	if inner.notesCalls != 1 {
		t.Fatalf("expected one delegated call, got %d", inner.notesCalls)
	}
	if len(journal.entries) != 1 {
		t.Fatalf("expected one journal entry, got %d", len(journal.entries))
	}
	entry := journal.entries[0]
	if entry.Status != RunStatusOK || entry.Step != StepPatched {
		t.Fatalf("unexpected entry status/step: %+v", entry)
	}
	if entry.Locale != "en-US" || entry.Target != "app_123" || entry.Operation != OperationSetNotes {
		t.Fatalf("unexpected entry identity: %+v", entry)
	}
	if entry.DurationMS != 250 || !entry.CreatedAt.Equal(start) {
		t.Fatalf("unexpected timing: %+v", entry)
	}
	if !hasLog(logger.snapshot(), "info", "set_notes succeeded") {
		t.Fatalf("expected success log")
	}
}

func TestJournaledStore_RecordsFailureStepAndCode(t *testing.T) {
	inner := &stubReleaseStore{
		platform: PlatformGooglePlay,
		target:   "com.example.app/beta",
		steps:    []RunStep{StepAuthenticated, StepSessionOpen},
		err:      ResolutionError(ErrorVersionAlreadyExists, "version 2.0.0 already exists", nil),
	}
	journal := &memoryJournal{}
	store := NewJournaledStore(inner, WithRunJournal(journal))

	err := store.CreateVersion(context.Background(), "2.0.0")
	if !HasTextCode(err, ErrorVersionAlreadyExists) {
		t.Fatalf("expected version exists error, got %v", err)
	}
	entry := journal.entries[0]
	if entry.Status != RunStatusFailed {
		t.Fatalf("expected failed status, got %q", entry.Status)
	}
	if entry.Step != StepSessionOpen {
		t.Fatalf("expected session_open step, got %q", entry.Step)
	}
	if entry.ErrorCode != ErrorVersionAlreadyExists {
		t.Fatalf("expected error code, got %q", entry.ErrorCode)
	}
}

func TestJournaledStore_JournalFailureDoesNotChangeResult(t *testing.T) {
	inner := &stubReleaseStore{platform: PlatformAppStore}
	logger := newCaptureLogger()
	store := NewJournaledStore(inner,
		WithRunJournal(&memoryJournal{err: stderrors.New("disk full")}),
		WithRunLogger(logger),
	)
	if err := store.CreateVersion(context.Background(), "1.0"); err != nil {
		t.Fatalf("expected journal failure to be swallowed, got %v", err)
	}
	if !hasLog(logger.snapshot(), "warn", "journal record failed") {
		t.Fatalf("expected journal failure warning")
	}
}

func TestJournaledStore_NoStepsReportsNotAuthenticated(t *testing.T) {
	inner := &stubReleaseStore{
		platform: PlatformAppStore,
		err:      AuthError(ErrorMalformedKeyPath, "bad key path", nil),
	}
	journal := &memoryJournal{}
	store := NewJournaledStore(inner, WithRunJournal(journal))
	_ = store.SetNotes(context.Background(), "en-US", "1.0", "notes")
	if journal.entries[0].Step != StepNotAuthenticated {
		t.Fatalf("expected not_authenticated, got %q", journal.entries[0].Step)
	}
}
