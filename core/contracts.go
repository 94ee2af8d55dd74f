package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// CredentialProvider mints and caches the access credential for one platform.
type CredentialProvider interface {
	Obtain(ctx context.Context) (Credential, error)
	Invalidate()
}

// ReleaseStore is the uniform release orchestration surface. One
// implementation exists per platform.
type ReleaseStore interface {
	Platform() string
	SetNotes(ctx context.Context, locale string, version string, text string) error
	CreateVersion(ctx context.Context, version string) error
}

// ReleaseTarget identifies the remote resource a store mutates (app id, or
// package and track).
type ReleaseTarget interface {
	Target() string
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

func (r TransportResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type RunStatus string

const (
	RunStatusOK     RunStatus = "ok"
	RunStatusFailed RunStatus = "failed"
)

// RunEntry is one journaled store invocation.
type RunEntry struct {
	ID         string
	Platform   string
	Operation  string
	Target     string
	Version    string
	Locale     string
	Status     RunStatus
	Step       RunStep
	ErrorCode  string
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}

type RunFilter struct {
	Platform  string
	Operation string
	Status    RunStatus
	Limit     int
}

type RunJournal interface {
	Record(ctx context.Context, entry RunEntry) error
}

type RunReader interface {
	List(ctx context.Context, filter RunFilter) ([]RunEntry, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
