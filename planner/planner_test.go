package planner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernway/transit/index"
)

func writeFixture(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func buildIndex(t *testing.T) *index.StaticIndex {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, map[string]string{
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
a,Stop A,47.65,-122.31
b,Stop B,47.66,-122.30`,
		"routes.txt": `route_id,route_short_name,route_long_name,route_type
r,R,Main Line,3`,
		"trips.txt": `trip_id,route_id,service_id,shape_id
t,r,svc,`,
		"stop_times.txt": `trip_id,stop_id,arrival_time,departure_time,stop_sequence
t,a,09:00:00,09:00:00,1
t,b,09:04:00,09:04:00,2`,
	})
	idx, err := index.Load(dir)
	require.NoError(t, err)
	return idx
}

func TestDirectPlanSelection(t *testing.T) {
	idx := buildIndex(t)
	p := New(idx, nil, nil, nil, nil)

	res, err := p.Plan(context.Background(), Request{
		OriginLat: 47.65, OriginLng: -122.31,
		DestLat: 47.66, DestLng: -122.30,
		DepartAfterSec: 32000,
		MaxWalkM:       1000,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Itineraries)

	it := res.Itineraries[0]
	require.Len(t, it.Legs, 3)
	assert.Equal(t, LegWalk, it.Legs[0].Type)
	assert.Equal(t, LegTransit, it.Legs[1].Type)
	assert.Equal(t, LegWalk, it.Legs[2].Type)
	assert.Equal(t, 0, it.Transfers)
	assert.Equal(t, it.Legs[0].DurationSec+it.Legs[1].DurationSec+it.Legs[2].DurationSec, it.DurationSec)
}

func TestPlanUnknownAreaIsNotFound(t *testing.T) {
	idx := buildIndex(t)
	p := New(idx, nil, nil, nil, nil)

	_, err := p.Plan(context.Background(), Request{
		OriginLat: 10, OriginLng: 10,
		DestLat: 11, DestLng: 11,
		DepartAfterSec: 0,
		MaxWalkM:       100,
	})
	assert.Error(t, err)
}

func TestPlanRejectsNonPositiveMaxWalk(t *testing.T) {
	idx := buildIndex(t)
	p := New(idx, nil, nil, nil, nil)

	_, err := p.Plan(context.Background(), Request{MaxWalkM: 0})
	assert.Error(t, err)
}

func TestTransferNotesMentionInterchange(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, map[string]string{
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
a,Stop A,47.60,-122.30
x,Interchange,47.61,-122.29
b,Stop B,47.62,-122.28`,
		"routes.txt": `route_id,route_short_name,route_long_name,route_type
r1,R1,Line One,3
r2,R2,Line Two,3`,
		"trips.txt": `trip_id,route_id,service_id,shape_id
t1,r1,svc,
t2,r2,svc,`,
		"stop_times.txt": `trip_id,stop_id,arrival_time,departure_time,stop_sequence
t1,a,09:00:00,09:00:00,1
t1,x,09:05:00,09:05:00,2
t2,x,09:10:00,09:10:00,1
t2,b,09:15:00,09:15:00,2`,
	})
	idx, err := index.Load(dir)
	require.NoError(t, err)

	p := New(idx, nil, nil, nil, nil)
	res, err := p.Plan(context.Background(), Request{
		OriginLat: 47.60, OriginLng: -122.30,
		DestLat: 47.62, DestLng: -122.28,
		DepartAfterSec: 32000,
		MaxWalkM:       2000,
		MaxTransfers:   1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Itineraries)

	it := res.Itineraries[0]
	require.Len(t, it.Legs, 4)
	assert.Equal(t, 1, it.Transfers)
	require.NotEmpty(t, it.Notes)
	assert.Contains(t, it.Notes[0], "Transfer at")
}
