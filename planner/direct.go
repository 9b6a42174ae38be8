package planner

import (
	"sort"

	"github.com/fernway/transit/model"
)

// adjustedTrip is one candidate trip connecting two stops, with
// realtime-adjusted departure/arrival already applied.
type adjustedTrip struct {
	tripID   string
	routeID  string
	fromStop string
	toStop   string
	depSec   int64
	arrSec   int64
}

// directTrips finds trips connecting oStop to dStop after
// departAfterSec, per §4.6's subroutine: shared routes, correct stop
// ordering within the trip, realtime-adjusted times, and a 90s
// boarding slack on the departure cutoff. Sorted by arrival time.
func (p *Planner) directTrips(oStop, dStop string, departAfterSec int64, useRealtime bool) []adjustedTrip {
	oRoutes := p.index.RoutesForStop(oStop)
	dRoutes := p.index.RoutesForStop(dStop)
	if len(oRoutes) == 0 || len(dRoutes) == 0 {
		return nil
	}

	shared := []string{}
	for routeID := range oRoutes {
		if dRoutes[routeID] {
			shared = append(shared, routeID)
		}
	}

	out := []adjustedTrip{}
	for _, routeID := range shared {
		for _, tripID := range p.index.TripsForRoute(routeID) {
			sts := p.index.StopTimesForTrip(tripID)
			oIdx, dIdx := -1, -1
			for i, st := range sts {
				if st.StopID == oStop && oIdx == -1 {
					oIdx = i
				}
				if st.StopID == dStop {
					dIdx = i
				}
			}
			if oIdx == -1 || dIdx == -1 || oIdx >= dIdx {
				continue
			}

			oSt := sts[oIdx]
			dSt := sts[dIdx]

			depDelay := p.adjustedDelay(useRealtime, tripID, oSt.StopID)
			arrDelay := p.adjustedDelay(useRealtime, tripID, dSt.StopID)

			dep := int64(oSt.DepartureSec) + int64(depDelay)
			arr := int64(dSt.ArrivalSec) + int64(arrDelay)

			if dep < departAfterSec-90 {
				continue
			}

			out = append(out, adjustedTrip{
				tripID:   tripID,
				routeID:  routeID,
				fromStop: oStop,
				toStop:   dStop,
				depSec:   dep,
				arrSec:   arr,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].arrSec < out[j].arrSec })
	return out
}

// adjustedDelay resolves the delay to apply to (trip, stop): zero if
// realtime is disabled or the cache has nothing for either key.
func (p *Planner) adjustedDelay(useRealtime bool, tripID, stopID string) int {
	if !useRealtime || p.delayCache == nil {
		return 0
	}
	return p.delayCache.AdjustedDelay(tripID, stopID)
}

// directPlanKey identifies a direct itinerary for deduplication.
type directPlanKey struct {
	routeName    string
	departureSec int64
	arrivalSec   int64
}

// directPlan builds direct (walk-transit-walk) itineraries for up to
// the 6 nearest origin stops times the 6 nearest destination stops,
// taking up to 2 fastest trips per pair.
func (p *Planner) directPlan(req Request, originStops, destStops []nearStop) []Itinerary {
	const maxStopsPerSide = 6
	const maxTripsPerPair = 2

	if len(originStops) > maxStopsPerSide {
		originStops = originStops[:maxStopsPerSide]
	}
	if len(destStops) > maxStopsPerSide {
		destStops = destStops[:maxStopsPerSide]
	}

	seen := map[directPlanKey]bool{}
	itineraries := []Itinerary{}

	for _, o := range originStops {
		for _, d := range destStops {
			if o.stopID == d.stopID {
				continue
			}
			trips := p.directTrips(o.stopID, d.stopID, req.DepartAfterSec, req.UseRealtime)
			if len(trips) > maxTripsPerPair {
				trips = trips[:maxTripsPerPair]
			}

			for _, trip := range trips {
				route, _ := p.index.Route(trip.routeID)
				walk1 := walkDuration(o.distanceM)
				walk2 := walkDuration(d.distanceM)

				departureSec := max64(req.DepartAfterSec, trip.depSec-int64(walk1))
				arrivalSec := trip.arrSec + int64(walk2)

				key := directPlanKey{
					routeName:    route.DisplayName(),
					departureSec: departureSec,
					arrivalSec:   arrivalSec,
				}
				if seen[key] {
					continue
				}
				seen[key] = true

				legs := []Leg{
					{
						Type:        LegWalk,
						FromLat:     req.OriginLat,
						FromLng:     req.OriginLng,
						ToLat:       mustStop(p, o.stopID).Lat,
						ToLng:       mustStop(p, o.stopID).Lng,
						DurationSec: int64(walk1),
					},
					{
						Type:         LegTransit,
						RouteID:      trip.routeID,
						RouteName:    route.DisplayName(),
						TripID:       trip.tripID,
						FromStopID:   trip.fromStop,
						ToStopID:     trip.toStop,
						DepartureSec: trip.depSec,
						ArrivalSec:   trip.arrSec,
						DurationSec:  trip.arrSec - trip.depSec,
					},
					{
						Type:        LegWalk,
						FromLat:     mustStop(p, d.stopID).Lat,
						FromLng:     mustStop(p, d.stopID).Lng,
						ToLat:       req.DestLat,
						ToLng:       req.DestLng,
						DurationSec: int64(walk2),
					},
				}

				itineraries = append(itineraries, Itinerary{
					Legs:         legs,
					DepartureSec: departureSec,
					ArrivalSec:   arrivalSec,
					DurationSec:  arrivalSec - departureSec,
					Transfers:    0,
				})
			}
		}
	}

	sort.SliceStable(itineraries, func(i, j int) bool { return itineraries[i].DurationSec < itineraries[j].DurationSec })
	if len(itineraries) > 5 {
		itineraries = itineraries[:5]
	}
	return itineraries
}

func mustStop(p *Planner, stopID string) model.Stop {
	s, _ := p.index.Stop(stopID)
	return s
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
