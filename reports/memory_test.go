package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernway/transit/model"
)

func TestMemoryAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	require.NoError(t, m.Append(ctx, model.CrowdReport{
		Timestamp: 100, StopID: "s1", LineID: "L1", ArrivalSeconds: 60,
	}))
	require.NoError(t, m.Append(ctx, model.CrowdReport{
		Timestamp: 200, StopID: "s1", LineID: "L2", ArrivalSeconds: 90,
	}))
	require.NoError(t, m.Append(ctx, model.CrowdReport{
		Timestamp: 300, StopID: "s2", LineID: "L1", ArrivalSeconds: 30,
	}))

	got, err := m.Query(ctx, "s1", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = m.Query(ctx, "s1", "L1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 60, got[0].ArrivalSeconds)

	got, err = m.Query(ctx, "s1", "", 150)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryTimestampMonotonic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	require.NoError(t, m.Append(ctx, model.CrowdReport{Timestamp: 100, StopID: "s1", ArrivalSeconds: 1}))
	require.NoError(t, m.Append(ctx, model.CrowdReport{Timestamp: 50, StopID: "s1", ArrivalSeconds: 2}))

	got, err := m.Query(ctx, "s1", "", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Greater(t, got[1].Timestamp, got[0].Timestamp)
}

func TestMemoryCapacityEvicts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Append(ctx, model.CrowdReport{
			Timestamp: int64(i + 1), StopID: "s1", ArrivalSeconds: i,
		}))
	}

	got, err := m.Query(ctx, "s1", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryRejectsNegativeArrival(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	err := m.Append(ctx, model.CrowdReport{StopID: "s1", ArrivalSeconds: -1})
	assert.Error(t, err)
}
