package parse

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/fernway/transit/model"
)

type stopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	StopSequence  int    `csv:"stop_sequence"`
}

// parseClock converts a GTFS "HH:MM:SS" timestamp to seconds since
// midnight of the service day. Hours may run past 23 to denote
// service past midnight and are not wrapped.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("found %d parts in '%s'", len(parts), s)
	}

	hms := [3]int{}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = v
	}

	if hms[0] < 0 {
		return 0, fmt.Errorf("invalid hour in '%s'", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return 0, fmt.Errorf("invalid minute in '%s'", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return 0, fmt.Errorf("invalid second in '%s'", s)
	}

	return hms[0]*3600 + hms[1]*60 + hms[2], nil
}

// StopTimes parses stop_times.txt. tripIDs and stopIDs are the sets
// returned by Trips and Stops, used to reject rows referencing unknown
// trips or stops. Returns the stop times sorted by (trip_id,
// stop_sequence).
//
// A load fails outright, rather than skipping the offending row, on
// any row-level error: an unknown trip/stop reference, an unparseable
// clock value, arrival_sec > departure_sec, or a non-strictly-increasing
// stop_sequence within a trip.
func StopTimes(data io.Reader, tripIDs, stopIDs map[string]bool) ([]model.StopTime, error) {
	rows := []*stopTimeCSV{}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *stopTimeCSV) error {
		i++
		if !tripIDs[st.TripID] {
			return fmt.Errorf("unknown trip_id '%s' (row %d)", st.TripID, i+1)
		}
		if st.StopID == "" {
			return fmt.Errorf("missing stop_id (row %d)", i+1)
		}
		if !stopIDs[st.StopID] {
			return fmt.Errorf("unknown stop_id '%s' (row %d)", st.StopID, i+1)
		}
		rows = append(rows, st)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	stopTimes := make([]model.StopTime, 0, len(rows))
	for i, st := range rows {
		arrivalSec, err := parseClock(st.ArrivalTime)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing arrival_time (row %d)", i+1)
		}
		departureSec, err := parseClock(st.DepartureTime)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing departure_time (row %d)", i+1)
		}
		if arrivalSec > departureSec {
			return nil, fmt.Errorf("arrival_time after departure_time for trip_id '%s' stop_sequence %d (row %d)", st.TripID, st.StopSequence, i+1)
		}

		stopTimes = append(stopTimes, model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			StopSequence: st.StopSequence,
			ArrivalSec:   arrivalSec,
			DepartureSec: departureSec,
		})
	}

	sort.SliceStable(stopTimes, func(i, j int) bool {
		if stopTimes[i].TripID != stopTimes[j].TripID {
			return stopTimes[i].TripID < stopTimes[j].TripID
		}
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})

	lastSeq := map[string]int{}
	seen := map[string]bool{}
	for _, st := range stopTimes {
		if seen[st.TripID] && st.StopSequence <= lastSeq[st.TripID] {
			return nil, fmt.Errorf("non-increasing stop_sequence for trip_id '%s'", st.TripID)
		}
		lastSeq[st.TripID] = st.StopSequence
		seen[st.TripID] = true
	}

	return stopTimes, nil
}
