package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestDistance(t *testing.T) {
	d := Distance(0, 0, 0, 0)
	assert.Equal(t, 0.0, d)

	// Roughly one degree of latitude, ~111km.
	d = Distance(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 1000)
}

func TestLoadBuildsDerivedIndexes(t *testing.T) {
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

	idx, err := Load(dir)
	require.NoError(t, err)

	sts := idx.StopTimesForTrip("t1")
	require.Len(t, sts, 2)
	assert.Equal(t, "a", sts[0].StopID)
	assert.Equal(t, "x", sts[1].StopID)

	routes := idx.RoutesForStop("x")
	assert.True(t, routes["r1"])
	assert.True(t, routes["r2"])

	trips := idx.TripsForRoute("r1")
	assert.Equal(t, []string{"t1"}, trips)

	interchange := idx.InterchangeStops()
	require.NotEmpty(t, interchange)
	assert.Equal(t, "x", interchange[0])
}

func TestLoadRejectsNonIncreasingStopSequence(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, map[string]string{
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
a,Stop A,47.60,-122.30
b,Stop B,47.62,-122.28`,
		"routes.txt": `route_id,route_short_name,route_long_name,route_type
r,R,Line,3`,
		"trips.txt": `trip_id,route_id,service_id,shape_id
t,r,svc,`,
		"stop_times.txt": `trip_id,stop_id,arrival_time,departure_time,stop_sequence
t,a,09:00:00,09:00:00,2
t,b,09:05:00,09:05:00,1`,
	})

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestNearestStops(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, map[string]string{
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
near,Near,47.60,-122.30
far,Far,10,10`,
		"routes.txt": `route_id,route_short_name,route_long_name,route_type
r,R,Line,3`,
		"trips.txt": `trip_id,route_id,service_id,shape_id
t,r,svc,`,
		"stop_times.txt": `trip_id,stop_id,arrival_time,departure_time,stop_sequence
t,near,09:00:00,09:00:00,1
t,far,09:05:00,09:05:00,2`,
	})

	idx, err := Load(dir)
	require.NoError(t, err)

	results := idx.NearestStops(47.60, -122.30, 1000, 10)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].StopID)
}
