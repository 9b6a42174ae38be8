// Package index builds and serves the in-memory GTFS Static Index: the
// immutable relations every other component queries against for the
// lifetime of the process.
package index

import (
	"math"
	"sort"

	"github.com/fernway/transit/errors"
	"github.com/fernway/transit/model"
	"github.com/fernway/transit/parse"
)

// earthRadiusM is used by haversine distance calculations throughout
// the index and planner.
const earthRadiusM = 6371000.0

// Distance returns the great-circle distance between two points, in
// meters.
func Distance(aLat, aLng, bLat, bLng float64) float64 {
	aLatRad := aLat * math.Pi / 180
	aLngRad := aLng * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	bLngRad := bLng * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLng := aLngRad - bLngRad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(aLatRad)*math.Cos(bLatRad)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * earthRadiusM
}

// StaticIndex holds every GTFS static entity plus the four derived
// relations listed in the data model. Built once at Load and never
// mutated afterward: every field here is safe to read from any number
// of goroutines without synchronization.
type StaticIndex struct {
	stops  map[string]model.Stop
	routes map[string]model.Route
	trips  map[string]model.Trip

	stopOrder []string // file order, for stable iteration in nearest-stop scans

	stopTimesByTrip map[string][]model.StopTime // sorted by StopSequence
	stopTimesByStop map[string][]model.StopTime // sorted by ArrivalSec
	routesByStop    map[string]map[string]bool
	tripsByRoute    map[string][]string

	// interchangeStops is the top-100 stop_id list by served-route
	// count, precomputed once since the one-transfer planner consults
	// it on every query.
	interchangeStops []string
}

// Load parses the GTFS static feed directory dir and builds a
// StaticIndex. A missing or malformed stops.txt, or any row-level
// validation failure, is a ConfigError: the load aborts entirely
// rather than skipping bad rows.
func Load(dir string) (*StaticIndex, error) {
	static, err := parse.Dir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigError, "loading GTFS static feed", err)
	}
	return build(static)
}

func build(static *parse.Static) (*StaticIndex, error) {
	idx := &StaticIndex{
		stops:           map[string]model.Stop{},
		routes:          map[string]model.Route{},
		trips:           map[string]model.Trip{},
		stopTimesByTrip: map[string][]model.StopTime{},
		stopTimesByStop: map[string][]model.StopTime{},
		routesByStop:    map[string]map[string]bool{},
		tripsByRoute:    map[string][]string{},
	}

	for _, s := range static.Stops {
		idx.stops[s.ID] = s
		idx.stopOrder = append(idx.stopOrder, s.ID)
	}
	for _, r := range static.Routes {
		idx.routes[r.ID] = r
	}
	for _, t := range static.Trips {
		idx.trips[t.ID] = t
		idx.tripsByRoute[t.RouteID] = append(idx.tripsByRoute[t.RouteID], t.ID)
	}

	lastSeq := map[string]int{}
	seenTrip := map[string]bool{}
	for _, st := range static.StopTimes {
		if seenTrip[st.TripID] && st.StopSequence <= lastSeq[st.TripID] {
			return nil, errors.ConfigErrorf("non-increasing stop_sequence for trip_id '%s'", st.TripID)
		}
		lastSeq[st.TripID] = st.StopSequence
		seenTrip[st.TripID] = true

		idx.stopTimesByTrip[st.TripID] = append(idx.stopTimesByTrip[st.TripID], st)
		idx.stopTimesByStop[st.StopID] = append(idx.stopTimesByStop[st.StopID], st)

		trip, ok := idx.trips[st.TripID]
		if !ok {
			continue
		}
		if idx.routesByStop[st.StopID] == nil {
			idx.routesByStop[st.StopID] = map[string]bool{}
		}
		idx.routesByStop[st.StopID][trip.RouteID] = true
	}

	for tripID, sts := range idx.stopTimesByTrip {
		sort.Slice(sts, func(i, j int) bool { return sts[i].StopSequence < sts[j].StopSequence })
		idx.stopTimesByTrip[tripID] = sts
	}
	for stopID, sts := range idx.stopTimesByStop {
		sort.SliceStable(sts, func(i, j int) bool { return sts[i].ArrivalSec < sts[j].ArrivalSec })
		idx.stopTimesByStop[stopID] = sts
	}

	idx.interchangeStops = computeInterchangeStops(idx.stopOrder, idx.routesByStop)

	return idx, nil
}

func computeInterchangeStops(stopOrder []string, routesByStop map[string]map[string]bool) []string {
	type candidate struct {
		stopID string
		routes int
	}
	candidates := make([]candidate, 0, len(stopOrder))
	for _, stopID := range stopOrder {
		candidates = append(candidates, candidate{stopID, len(routesByStop[stopID])})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].routes > candidates[j].routes
	})
	if len(candidates) > 100 {
		candidates = candidates[:100]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.stopID
	}
	return out
}

// Stop returns the stop with the given ID, if known.
func (idx *StaticIndex) Stop(id string) (model.Stop, bool) {
	s, ok := idx.stops[id]
	return s, ok
}

// Route returns the route with the given ID, if known.
func (idx *StaticIndex) Route(id string) (model.Route, bool) {
	r, ok := idx.routes[id]
	return r, ok
}

// Trip returns the trip with the given ID, if known.
func (idx *StaticIndex) Trip(id string) (model.Trip, bool) {
	t, ok := idx.trips[id]
	return t, ok
}

// StopTimesForTrip returns a trip's stop times in stop_sequence order.
func (idx *StaticIndex) StopTimesForTrip(tripID string) []model.StopTime {
	return idx.stopTimesByTrip[tripID]
}

// StopTimesForStop returns a stop's stop times in arrival_sec order.
func (idx *StaticIndex) StopTimesForStop(stopID string) []model.StopTime {
	return idx.stopTimesByStop[stopID]
}

// RoutesForStop returns the set of route IDs serving a stop.
func (idx *StaticIndex) RoutesForStop(stopID string) map[string]bool {
	return idx.routesByStop[stopID]
}

// TripsForRoute returns the trip IDs belonging to a route.
func (idx *StaticIndex) TripsForRoute(routeID string) []string {
	return idx.tripsByRoute[routeID]
}

// InterchangeStops returns the top-100 stop_id candidates for
// one-transfer itinerary search, ranked by served-route count.
func (idx *StaticIndex) InterchangeStops() []string {
	return idx.interchangeStops
}

// NearbyStop is one result of a nearest-stops search.
type NearbyStop struct {
	StopID    string
	DistanceM float64
}

// NearestStops performs a linear scan over every stop, returning those
// within maxMeters of (lat, lng), sorted by ascending distance and
// capped at cap entries. The contract is "k closest within radius,
// order stable" — a future grid or k-d tree index could replace the
// scan without changing callers.
func (idx *StaticIndex) NearestStops(lat, lng, maxMeters float64, cap int) []NearbyStop {
	out := make([]NearbyStop, 0, len(idx.stopOrder))
	for _, stopID := range idx.stopOrder {
		s := idx.stops[stopID]
		d := Distance(lat, lng, s.Lat, s.Lng)
		if d <= maxMeters {
			out = append(out, NearbyStop{StopID: stopID, DistanceM: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	if len(out) > cap {
		out = out[:cap]
	}
	return out
}
