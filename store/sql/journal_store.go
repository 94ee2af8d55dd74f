package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andersonfds/freitool/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const DefaultListLimit = 20

// JournalStore persists release runs in the release_runs table.
type JournalStore struct {
	db   *bun.DB
	repo repository.Repository[*runRecord]
}

func NewJournalStore(db *bun.DB) (*JournalStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*runRecord](db, runHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid run repository wiring: %w", err)
		}
	}
	return &JournalStore{db: db, repo: repo}, nil
}

func (s *JournalStore) Record(ctx context.Context, entry core.RunEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: journal store is not configured")
	}
	platform := strings.TrimSpace(entry.Platform)
	operation := strings.TrimSpace(entry.Operation)
	if platform == "" || operation == "" {
		return fmt.Errorf("sqlstore: run entry requires platform and operation")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := entry.Status
	if status == "" {
		status = core.RunStatusOK
	}

	record := &runRecord{
		ID:           id,
		Platform:     platform,
		Operation:    operation,
		Target:       strings.TrimSpace(entry.Target),
		Version:      strings.TrimSpace(entry.Version),
		Locale:       strings.TrimSpace(entry.Locale),
		Status:       string(status),
		Step:         string(entry.Step),
		ErrorCode:    strings.TrimSpace(entry.ErrorCode),
		ErrorMessage: strings.TrimSpace(entry.Error),
		DurationMS:   entry.DurationMS,
		CreatedAt:    createdAt,
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// List returns the newest runs first.
func (s *JournalStore) List(ctx context.Context, filter core.RunFilter) ([]core.RunEntry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: journal store is not configured")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, 0),
	}
	if platform := strings.TrimSpace(filter.Platform); platform != "" {
		selectors = append(selectors, repository.SelectBy("platform", "=", platform))
	}
	if operation := strings.TrimSpace(filter.Operation); operation != "" {
		selectors = append(selectors, repository.SelectBy("operation", "=", operation))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}

	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	entries := make([]core.RunEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, runRecordToDomain(record))
	}
	return entries, nil
}

func runRecordToDomain(record *runRecord) core.RunEntry {
	if record == nil {
		return core.RunEntry{}
	}
	return core.RunEntry{
		ID:         record.ID,
		Platform:   record.Platform,
		Operation:  record.Operation,
		Target:     record.Target,
		Version:    record.Version,
		Locale:     record.Locale,
		Status:     core.RunStatus(record.Status),
		Step:       core.RunStep(record.Step),
		ErrorCode:  record.ErrorCode,
		Error:      record.ErrorMessage,
		DurationMS: record.DurationMS,
		CreatedAt:  record.CreatedAt.UTC(),
	}
}
