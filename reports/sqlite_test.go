package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernway/transit/model"
)

func TestSQLiteStoreAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(ctx, model.CrowdReport{
		Timestamp: 100, StopID: "s1", LineID: "L1", ArrivalSeconds: 60, Mode: model.ReportModeObserved,
	}))
	require.NoError(t, store.Append(ctx, model.CrowdReport{
		Timestamp: 200, StopID: "s1", LineID: "L2", ArrivalSeconds: 90, Mode: model.ReportModeEstimate,
	}))

	got, err := store.Query(ctx, "s1", "L1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 60, got[0].ArrivalSeconds)
	assert.Equal(t, model.ReportModeObserved, got[0].Mode)
	assert.NotEmpty(t, got[0].ID)
}

func TestSQLiteStoreRejectsNegativeArrival(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	err = store.Append(ctx, model.CrowdReport{StopID: "s1", ArrivalSeconds: -5})
	assert.Error(t, err)
}
