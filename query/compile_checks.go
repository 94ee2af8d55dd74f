package query

import (
	"github.com/andersonfds/freitool/core"
	gocmd "github.com/goliatone/go-command"
)

var _ gocmd.Querier[ListRunsMessage, []core.RunEntry] = (*ListRunsQuery)(nil)
