package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fernway/transit/model"
)

func TestTrips(t *testing.T) {
	routeIDs := map[string]bool{"r": true}

	for _, tc := range []struct {
		name    string
		content string
		trips   []model.Trip
		err     bool
	}{
		{
			"minimal_trip",
			`
trip_id,route_id,service_id,shape_id
t,r,svc,shp`,
			[]model.Trip{{ID: "t", RouteID: "r", ServiceID: "svc", ShapeID: "shp"}},
			false,
		},
		{
			"blank trip_id",
			`
trip_id,route_id,service_id,shape_id
,r,svc,shp`,
			nil,
			true,
		},
		{
			"repeated trip_id",
			`
trip_id,route_id,service_id,shape_id
t,r,svc,shp
t,r,svc,shp`,
			nil,
			true,
		},
		{
			"unknown route_id",
			`
trip_id,route_id,service_id,shape_id
t,unknown,svc,shp`,
			nil,
			true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			trips, tripIDs, err := Trips(bytes.NewBufferString(tc.content), routeIDs)
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.trips, trips)
			for _, tr := range trips {
				assert.True(t, tripIDs[tr.ID])
			}
		})
	}
}
