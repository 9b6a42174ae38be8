package parse

import (
	"fmt"
	"io"
	"math"

	"github.com/gocarina/gocsv"

	"github.com/fernway/transit/model"
)

type stopCSV struct {
	ID   string  `csv:"stop_id"`
	Name string  `csv:"stop_name"`
	Lat  float64 `csv:"stop_lat"`
	Lon  float64 `csv:"stop_lon"`
}

// Stops parses stops.txt. Returns the stops in file order along with
// the set of known stop IDs, for use by StopTimes.
func Stops(data io.Reader) ([]model.Stop, map[string]bool, error) {
	rows := []*stopCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling stops csv: %w", err)
	}

	stopIDs := map[string]bool{}
	stops := make([]model.Stop, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, nil, fmt.Errorf("empty stop_id")
		}
		if stopIDs[r.ID] {
			return nil, nil, fmt.Errorf("repeated stop_id '%s'", r.ID)
		}
		stopIDs[r.ID] = true

		if math.IsNaN(r.Lat) || math.IsInf(r.Lat, 0) || math.IsNaN(r.Lon) || math.IsInf(r.Lon, 0) {
			return nil, nil, fmt.Errorf("non-finite coordinates for stop_id '%s'", r.ID)
		}

		stops = append(stops, model.Stop{
			ID:   r.ID,
			Name: r.Name,
			Lat:  r.Lat,
			Lng:  r.Lon,
		})
	}

	return stops, stopIDs, nil
}
