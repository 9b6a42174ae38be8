// Package reports implements the Report Store Adapter: a narrow
// interface over crowd-sourced arrival observations, with an in-memory
// and a sqlite-backed concrete store.
package reports

import (
	"context"

	"github.com/fernway/transit/model"
)

// Store is the opaque record store the spec treats as an external
// collaborator: append a report, query recent ones for a stop and
// (optionally) a line.
type Store interface {
	Append(ctx context.Context, report model.CrowdReport) error
	Query(ctx context.Context, stopID, lineID string, since int64) ([]model.CrowdReport, error)
}
