package parse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"github.com/fernway/transit/model"
)

func init() {
	// LazyCSVReader survives sloppy use of quotes in real-world feeds.
	// The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})
}

// Static is the raw result of parsing a directory of GTFS static feed
// files, before the index package derives its relations from it.
type Static struct {
	Stops     []model.Stop
	Routes    []model.Route
	Trips     []model.Trip
	StopTimes []model.StopTime
}

// Dir parses stops.txt, routes.txt, trips.txt and stop_times.txt out
// of dir, an already-unpacked GTFS static feed directory. A missing
// stops.txt is fatal, matching the "missing stops file is fatal"
// load-failure rule; the other three files are equally required since
// none of stops/routes/trips/stop_times is optional in this feed's
// minimal profile.
func Dir(dir string) (*Static, error) {
	open := func(name string) (*os.File, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		return f, nil
	}

	stopsFile, err := open("stops.txt")
	if err != nil {
		return nil, err
	}
	defer stopsFile.Close()

	stops, stopIDs, err := Stops(stopsFile)
	if err != nil {
		return nil, fmt.Errorf("parsing stops.txt: %w", err)
	}

	routesFile, err := open("routes.txt")
	if err != nil {
		return nil, err
	}
	defer routesFile.Close()

	routes, routeIDs, err := Routes(routesFile)
	if err != nil {
		return nil, fmt.Errorf("parsing routes.txt: %w", err)
	}

	tripsFile, err := open("trips.txt")
	if err != nil {
		return nil, err
	}
	defer tripsFile.Close()

	trips, tripIDs, err := Trips(tripsFile, routeIDs)
	if err != nil {
		return nil, fmt.Errorf("parsing trips.txt: %w", err)
	}

	stopTimesFile, err := open("stop_times.txt")
	if err != nil {
		return nil, err
	}
	defer stopTimesFile.Close()

	stopTimes, err := StopTimes(stopTimesFile, tripIDs, stopIDs)
	if err != nil {
		return nil, fmt.Errorf("parsing stop_times.txt: %w", err)
	}

	return &Static{
		Stops:     stops,
		Routes:    routes,
		Trips:     trips,
		StopTimes: stopTimes,
	}, nil
}
