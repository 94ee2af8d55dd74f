package query

import (
	"context"

	"github.com/andersonfds/freitool/core"
)

type ListRunsQuery struct {
	reader core.RunReader
}

func NewListRunsQuery(reader core.RunReader) *ListRunsQuery {
	return &ListRunsQuery{reader: reader}
}

func (q *ListRunsQuery) Query(ctx context.Context, msg ListRunsMessage) ([]core.RunEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: run journal reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}
