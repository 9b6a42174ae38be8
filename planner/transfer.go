package planner

import (
	"fmt"
	"sort"
)

// transferBufferSec is the minimum gap enforced between the first
// leg's adjusted arrival and the second leg's adjusted departure.
const transferBufferSec = 120

type transferPlanKey struct {
	transfers    int
	route1       string
	route2       string
	departureSec int64
}

// earliestArrivalAtOrAfter returns the trip with the earliest arrival
// among those departing no earlier than minDep, honoring the transfer
// buffer strictly rather than trusting directTrips' boarding slack.
func earliestArrivalAtOrAfter(trips []adjustedTrip, minDep int64) (adjustedTrip, bool) {
	var best adjustedTrip
	found := false
	for _, t := range trips {
		if t.depSec < minDep {
			continue
		}
		if !found || t.arrSec < best.arrSec {
			best = t
			found = true
		}
	}
	return best, found
}

// transferPlan searches one-transfer itineraries through the top-100
// interchange stops, per §4.6. Only called when direct results are
// sparse.
func (p *Planner) transferPlan(req Request, originStops, destStops []nearStop) []Itinerary {
	const maxStopsPerSide = 6
	const maxTripsPerPair = 2

	if len(originStops) > maxStopsPerSide {
		originStops = originStops[:maxStopsPerSide]
	}
	if len(destStops) > maxStopsPerSide {
		destStops = destStops[:maxStopsPerSide]
	}

	seen := map[transferPlanKey]bool{}
	itineraries := []Itinerary{}

	for _, interchange := range p.index.InterchangeStops() {
		for _, o := range originStops {
			if o.stopID == interchange {
				continue
			}
			firstLegs := p.directTrips(o.stopID, interchange, req.DepartAfterSec, req.UseRealtime)
			if len(firstLegs) > maxTripsPerPair {
				firstLegs = firstLegs[:maxTripsPerPair]
			}
			if len(firstLegs) == 0 {
				continue
			}

			for _, d := range destStops {
				if d.stopID == interchange || d.stopID == o.stopID {
					continue
				}

				for _, first := range firstLegs {
					transferReady := first.arrSec + transferBufferSec
					secondLegs := p.directTrips(interchange, d.stopID, transferReady, req.UseRealtime)
					second, ok := earliestArrivalAtOrAfter(secondLegs, transferReady)
					if !ok {
						continue
					}

					route1, _ := p.index.Route(first.routeID)
					route2, _ := p.index.Route(second.routeID)

					walk1 := walkDuration(o.distanceM)
					walk2 := walkDuration(d.distanceM)

					departureSec := max64(req.DepartAfterSec, first.depSec-int64(walk1))
					arrivalSec := second.arrSec + int64(walk2)

					key := transferPlanKey{
						transfers:    1,
						route1:       route1.DisplayName(),
						route2:       route2.DisplayName(),
						departureSec: departureSec,
					}
					if seen[key] {
						continue
					}
					seen[key] = true

					interchangeStop := mustStop(p, interchange)

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
							RouteID:      first.routeID,
							RouteName:    route1.DisplayName(),
							TripID:       first.tripID,
							FromStopID:   first.fromStop,
							ToStopID:     first.toStop,
							DepartureSec: first.depSec,
							ArrivalSec:   first.arrSec,
							DurationSec:  first.arrSec - first.depSec,
						},
						{
							Type:         LegTransit,
							RouteID:      second.routeID,
							RouteName:    route2.DisplayName(),
							TripID:       second.tripID,
							FromStopID:   second.fromStop,
							ToStopID:     second.toStop,
							DepartureSec: second.depSec,
							ArrivalSec:   second.arrSec,
							DurationSec:  second.arrSec - second.depSec,
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
						Transfers:    1,
						Notes:        []string{fmt.Sprintf("Transfer at %s", interchangeStop.Name)},
					})
				}
			}
		}
	}

	sort.SliceStable(itineraries, func(i, j int) bool { return itineraries[i].DurationSec < itineraries[j].DurationSec })
	if len(itineraries) > 5 {
		itineraries = itineraries[:5]
	}
	return itineraries
}
