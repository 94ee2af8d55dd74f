package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type runRecord struct {
	bun.BaseModel `bun:"table:release_runs,alias:rr"`

	ID           string    `bun:"id,pk"`
	Platform     string    `bun:"platform,notnull"`
	Operation    string    `bun:"operation,notnull"`
	Target       string    `bun:"target,notnull"`
	Version      string    `bun:"version,notnull"`
	Locale       string    `bun:"locale,notnull"`
	Status       string    `bun:"status,notnull"`
	Step         string    `bun:"step,notnull"`
	ErrorCode    string    `bun:"error_code,notnull"`
	ErrorMessage string    `bun:"error_message,notnull"`
	DurationMS   int64     `bun:"duration_ms,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
