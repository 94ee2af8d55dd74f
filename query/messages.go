package query

import (
	"strings"

	"github.com/andersonfds/freitool/core"
)

const TypeListRuns = "freitool.query.runs.list"

const MaxListRunsLimit = 500

type ListRunsMessage struct {
	Filter core.RunFilter
}

func (ListRunsMessage) Type() string { return TypeListRuns }

func (m ListRunsMessage) Validate() error {
	switch strings.TrimSpace(m.Filter.Platform) {
	case "", core.PlatformAppStore, core.PlatformGooglePlay:
	default:
		return queryValidationError("platform", "platform must be ios or android")
	}
	switch strings.TrimSpace(m.Filter.Operation) {
	case "", core.OperationSetNotes, core.OperationCreateVersion:
	default:
		return queryValidationError("operation", "operation must be set_notes or create_version")
	}
	switch m.Filter.Status {
	case "", core.RunStatusOK, core.RunStatusFailed:
	default:
		return queryValidationError("status", "status must be ok or failed")
	}
	if m.Filter.Limit < 0 || m.Filter.Limit > MaxListRunsLimit {
		return queryValidationError("limit", "limit must be between 0 and 500")
	}
	return nil
}
