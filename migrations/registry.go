package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const root = "data/sql/migrations"

// dialectDirs locates each dialect's migrations inside FS().
var dialectDirs = map[string]string{
	DialectPostgres: root,
	DialectSQLite:   root + "/sqlite",
}

type RegisterFunc func(ctx context.Context, dialect string, fsys fs.FS) error

type options struct {
	targets []string
}

type Option func(*options)

// WithValidationTargets limits registration to the named dialects.
func WithValidationTargets(targets ...string) Option {
	return func(o *options) {
		o.targets = nil
		for _, target := range targets {
			target = strings.ToLower(strings.TrimSpace(target))
			if target != "" {
				o.targets = append(o.targets, target)
			}
		}
	}
}

// Dialect returns the migrations for one dialect, failing when the embedded
// tree holds no up migration for it.
func Dialect(dialect string) (fs.FS, error) {
	dir, ok := dialectDirs[dialect]
	if !ok {
		return nil, fmt.Errorf("migrations: unknown dialect %q", dialect)
	}
	sub, err := fs.Sub(FS(), dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s filesystem: %w", dialect, err)
	}
	matches, err := fs.Glob(sub, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", dialect, dir)
	}
	return sub, nil
}

// Register hands each targeted dialect's migrations to registerFn. All
// dialects are targeted by default.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) error {
	if registerFn == nil {
		return fmt.Errorf("migrations: register function is required")
	}
	cfg := options{targets: []string{DialectPostgres, DialectSQLite}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.targets) == 0 {
		return fmt.Errorf("migrations: validation targets are required")
	}
	for _, dialect := range cfg.targets {
		fsys, err := Dialect(dialect)
		if err != nil {
			return err
		}
		if err := registerFn(ctx, dialect, fsys); err != nil {
			return fmt.Errorf("migrations: register %s: %w", dialect, err)
		}
	}
	return nil
}
