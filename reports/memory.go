package reports

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fernway/transit/errors"
	"github.com/fernway/transit/model"
)

// Memory is an in-memory, ring-buffered Store. Used by default and by
// tests; a real deployment swaps in SQLiteStore or anything else
// satisfying Store.
type Memory struct {
	mu            sync.Mutex
	capacity      int
	reports       []model.CrowdReport
	lastTimestamp int64
}

// NewMemory constructs a Memory store that retains at most capacity
// reports, discarding the oldest once full. capacity <= 0 means
// unbounded.
func NewMemory(capacity int) *Memory {
	return &Memory{capacity: capacity}
}

func (m *Memory) Append(ctx context.Context, report model.CrowdReport) error {
	if report.ArrivalSeconds < 0 {
		return errors.InvalidInputf("arrival_seconds must be non-negative, got %d", report.ArrivalSeconds)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Timestamp <= m.lastTimestamp {
		report.Timestamp = m.lastTimestamp + 1
	}
	m.lastTimestamp = report.Timestamp

	m.reports = append(m.reports, report)
	if m.capacity > 0 && len(m.reports) > m.capacity {
		m.reports = m.reports[len(m.reports)-m.capacity:]
	}

	return nil
}

func (m *Memory) Query(ctx context.Context, stopID, lineID string, since int64) ([]model.CrowdReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.CrowdReport{}
	for _, r := range m.reports {
		if r.StopID != stopID {
			continue
		}
		if lineID != "" && r.LineID != lineID {
			continue
		}
		if r.Timestamp < since {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
