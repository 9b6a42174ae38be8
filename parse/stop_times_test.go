package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernway/transit/model"
)

func TestParseClock(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out int
		err bool
	}{
		{"00:00:00", 0, false},
		{"08:30:15", 8*3600 + 30*60 + 15, false},
		{"25:00:00", 25 * 3600, false}, // next-day service, not wrapped
		{"08:60:00", 0, true},
		{"08:00:60", 0, true},
		{"bogus", 0, true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseClock(tc.in)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.out, got)
		})
	}
}

func TestStopTimes(t *testing.T) {
	tripIDs := map[string]bool{"t": true}
	stopIDs := map[string]bool{"a": true, "b": true}

	for _, tc := range []struct {
		name      string
		content   string
		stopTimes []model.StopTime
		err       bool
	}{
		{
			"two_stops_sorted_by_sequence",
			`
trip_id,stop_id,arrival_time,departure_time,stop_sequence
t,b,08:05:00,08:05:00,2
t,a,08:00:00,08:00:00,1`,
			[]model.StopTime{
				{TripID: "t", StopID: "a", StopSequence: 1, ArrivalSec: 8 * 3600, DepartureSec: 8 * 3600},
				{TripID: "t", StopID: "b", StopSequence: 2, ArrivalSec: 8*3600 + 300, DepartureSec: 8*3600 + 300},
			},
			false,
		},
		{
			"unknown trip_id",
			`
trip_id,stop_id,arrival_time,departure_time,stop_sequence
x,a,08:00:00,08:00:00,1`,
			nil,
			true,
		},
		{
			"unknown stop_id",
			`
trip_id,stop_id,arrival_time,departure_time,stop_sequence
t,z,08:00:00,08:00:00,1`,
			nil,
			true,
		},
		{
			"arrival after departure",
			`
trip_id,stop_id,arrival_time,departure_time,stop_sequence
t,a,08:05:00,08:00:00,1`,
			nil,
			true,
		},
		{
			"non-increasing stop_sequence",
			`
trip_id,stop_id,arrival_time,departure_time,stop_sequence
t,a,08:00:00,08:00:00,2
t,b,08:05:00,08:05:00,2`,
			nil,
			true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := StopTimes(bytes.NewBufferString(tc.content), tripIDs, stopIDs)
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.stopTimes, got)
		})
	}
}
