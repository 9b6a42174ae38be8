package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/fernway/transit/model"
)

type tripCSV struct {
	ID        string `csv:"trip_id"`
	RouteID   string `csv:"route_id"`
	ServiceID string `csv:"service_id"`
	ShapeID   string `csv:"shape_id"`
}

// Trips parses trips.txt. routeIDs is the set returned by Routes, used
// to reject trips referencing an unknown route. Returns the trips in
// file order along with the set of known trip IDs, for use by
// StopTimes.
func Trips(data io.Reader, routeIDs map[string]bool) ([]model.Trip, map[string]bool, error) {
	rows := []*tripCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling trips csv: %w", err)
	}

	tripIDs := map[string]bool{}
	trips := make([]model.Trip, 0, len(rows))
	for _, t := range rows {
		if t.ID == "" {
			return nil, nil, fmt.Errorf("empty trip_id")
		}
		if tripIDs[t.ID] {
			return nil, nil, fmt.Errorf("repeated trip_id '%s'", t.ID)
		}
		tripIDs[t.ID] = true

		if t.RouteID == "" {
			return nil, nil, fmt.Errorf("trip_id '%s' has no route_id", t.ID)
		}
		if !routeIDs[t.RouteID] {
			return nil, nil, fmt.Errorf("trip_id '%s' references unknown route_id '%s'", t.ID, t.RouteID)
		}

		trips = append(trips, model.Trip{
			ID:        t.ID,
			RouteID:   t.RouteID,
			ServiceID: t.ServiceID,
			ShapeID:   t.ShapeID,
		})
	}

	return trips, tripIDs, nil
}
