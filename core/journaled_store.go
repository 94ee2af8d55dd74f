package core

import (
	"context"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// JournaledStore decorates a ReleaseStore with outcome logging and, when a
// journal is configured, one RunEntry per invocation. A journal write failure
// is logged and never changes the operation result.
type JournaledStore struct {
	store   ReleaseStore
	journal RunJournal
	logger  Logger
	now     func() time.Time
}

type JournalOption func(*JournaledStore)

func WithRunJournal(journal RunJournal) JournalOption {
	return func(s *JournaledStore) {
		s.journal = journal
	}
}

func WithRunLogger(logger Logger) JournalOption {
	return func(s *JournaledStore) {
		s.logger = logger
	}
}

func WithRunClock(now func() time.Time) JournalOption {
	return func(s *JournaledStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewJournaledStore(store ReleaseStore, options ...JournalOption) *JournaledStore {
	s := &JournaledStore{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}
	s.logger = glog.Ensure(s.logger)
	return s
}

func (s *JournaledStore) Platform() string {
	if s == nil || s.store == nil {
		return ""
	}
	return s.store.Platform()
}

func (s *JournaledStore) Target() string {
	if s == nil {
		return ""
	}
	if target, ok := s.store.(ReleaseTarget); ok {
		return target.Target()
	}
	return ""
}

func (s *JournaledStore) SetNotes(ctx context.Context, locale string, version string, text string) error {
	return s.run(ctx, OperationSetNotes, version, locale, func(ctx context.Context) error {
		return s.store.SetNotes(ctx, locale, version, text)
	})
}

func (s *JournaledStore) CreateVersion(ctx context.Context, version string) error {
	return s.run(ctx, OperationCreateVersion, version, "", func(ctx context.Context) error {
		return s.store.CreateVersion(ctx, version)
	})
}

func (s *JournaledStore) run(
	ctx context.Context,
	operation string,
	version string,
	locale string,
	fn func(ctx context.Context) error,
) error {
	if s == nil || s.store == nil {
		return InternalError("core: release store is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	trace := RunTraceFromContext(ctx)
	if trace == nil {
		trace = NewRunTrace()
		ctx = ContextWithRunTrace(ctx, trace)
	}

	startedAt := s.now()
	err := fn(ctx)

	entry := RunEntry{
		Platform:   s.store.Platform(),
		Operation:  operation,
		Target:     s.Target(),
		Version:    strings.TrimSpace(version),
		Locale:     strings.TrimSpace(locale),
		Status:     RunStatusOK,
		Step:       trace.Last(),
		DurationMS: elapsedMillis(s.now, startedAt),
		CreatedAt:  startedAt,
	}
	if err != nil {
		entry.Status = RunStatusFailed
		entry.ErrorCode = TextCode(err)
		entry.Error = RedactText(err.Error())
	}
	observeRun(ctx, s.logger, entry, err)

	if s.journal != nil {
		if recordErr := s.journal.Record(ctx, entry); recordErr != nil {
			logWithLevel(ctx, s.logger, "warn", "journal record failed", map[string]any{
				"operation": operation,
				"error":     recordErr.Error(),
			})
		}
	}
	return err
}

