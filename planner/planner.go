package planner

import (
	"context"
	"sort"

	"github.com/fernway/transit/delaycache"
	"github.com/fernway/transit/errors"
	"github.com/fernway/transit/index"
	"github.com/fernway/transit/metrics"
	"github.com/fernway/transit/safety"
	"github.com/fernway/transit/walkdirections"
)

// walkSpeedMPS is the planner's own fallback walking speed, matching
// the Walk Directions Provider's haversine fallback.
const walkSpeedMPS = 5000.0 / 3600.0

const nearestStopsCap = 10

// nearStop is a nearest-stop search result, aliased locally so the
// planner doesn't leak the index package's exact shape to callers.
type nearStop struct {
	stopID    string
	distanceM float64
}

// Planner is the Itinerary Planner. It borrows the Static Index, the
// Delay Cache, the Safety Overlay, and (optionally) a Walk Directions
// Provider by read-only reference at query time.
type Planner struct {
	index        *index.StaticIndex
	delayCache   *delaycache.Cache
	overlay      *safety.Overlay
	walkProvider walkdirections.Provider
	metrics      *metrics.Metrics
}

// New constructs a Planner. walkProvider and metrics may be nil: a nil
// provider disables walk enhancement (every WALK leg stays an
// unenhanced straight-line estimate), and a nil metrics disables
// instrumentation.
func New(idx *index.StaticIndex, delayCache *delaycache.Cache, overlay *safety.Overlay, walkProvider walkdirections.Provider, m *metrics.Metrics) *Planner {
	return &Planner{index: idx, delayCache: delayCache, overlay: overlay, walkProvider: walkProvider, metrics: m}
}

func walkDuration(distanceM float64) float64 {
	return distanceM / walkSpeedMPS
}

func (p *Planner) nearestStops(lat, lng, maxWalkM float64) []nearStop {
	raw := p.index.NearestStops(lat, lng, maxWalkM, nearestStopsCap)
	out := make([]nearStop, len(raw))
	for i, r := range raw {
		out[i] = nearStop{stopID: r.StopID, distanceM: r.DistanceM}
	}
	return out
}

// Plan executes the full itinerary search described in §4.6: direct
// trips, an optional one-transfer fallback, walk enhancement, safety
// annotation and rejection, and a walk-only fallback of last resort.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	if req.MaxWalkM <= 0 {
		return Result{}, errors.InvalidInputf("max_walk_m must be positive")
	}

	originStops := p.nearestStops(req.OriginLat, req.OriginLng, req.MaxWalkM)
	destStops := p.nearestStops(req.DestLat, req.DestLng, req.MaxWalkM)

	itineraries := []Itinerary{}
	if len(originStops) > 0 && len(destStops) > 0 {
		itineraries = p.directPlan(req, originStops, destStops)

		if req.MaxTransfers >= 1 && len(itineraries) < 3 {
			transfers := p.transferPlan(req, originStops, destStops)
			itineraries = append(itineraries, transfers...)
		}
	}

	if req.EnhanceWalk {
		for i := range itineraries {
			p.enhanceWalkLegs(ctx, &itineraries[i], req)
		}
	}

	p.annotateSafety(itineraries, req)

	if req.Safety == SafetyPrefer || req.Safety == SafetyStrict {
		for i := range itineraries {
			recomputeDuration(&itineraries[i])
		}
	}

	threshold := rejectThreshold(req)
	itineraries = filterBySafety(itineraries, threshold)

	if len(itineraries) == 0 {
		if req.AllowWalkOnly {
			if it, ok := p.walkOnlyItinerary(ctx, req, threshold); ok {
				itineraries = []Itinerary{it}
			}
		}
	}

	if len(itineraries) == 0 {
		p.observe("not_found")
		return Result{}, errors.NotFoundf("no itineraries found")
	}

	sortItineraries(itineraries, req.Safety)
	if len(itineraries) > 5 {
		itineraries = itineraries[:5]
	}

	p.observeResultKind(itineraries)

	return Result{Itineraries: itineraries}, nil
}

func (p *Planner) observe(kind string) {
	if p.metrics == nil {
		return
	}
	p.metrics.PlannerQueriesTotal.WithLabelValues(kind).Inc()
}

func (p *Planner) observeResultKind(itineraries []Itinerary) {
	if len(itineraries) == 0 {
		return
	}
	if itineraries[0].Transfers > 0 {
		p.observe("transfer")
		return
	}
	transitLegs := 0
	for _, leg := range itineraries[0].Legs {
		if leg.Type == LegTransit {
			transitLegs++
		}
	}
	if transitLegs == 0 {
		p.observe("walk_only")
		return
	}
	p.observe("direct")
}

func rejectThreshold(req Request) *float64 {
	if req.RejectWalkBelow != nil {
		return req.RejectWalkBelow
	}
	if req.Safety == SafetyStrict {
		v := 0.40
		return &v
	}
	return nil
}

func filterBySafety(itineraries []Itinerary, threshold *float64) []Itinerary {
	if threshold == nil {
		return itineraries
	}
	out := make([]Itinerary, 0, len(itineraries))
	for _, it := range itineraries {
		if minWalkSafety(it) >= *threshold {
			out = append(out, it)
		}
	}
	return out
}

func minWalkSafety(it Itinerary) float64 {
	min := 1.0
	found := false
	for _, leg := range it.Legs {
		if leg.Type != LegWalk || leg.SafetyScore == nil {
			continue
		}
		if !found || *leg.SafetyScore < min {
			min = *leg.SafetyScore
			found = true
		}
	}
	if !found {
		return 1.0
	}
	return min
}

func averageWalkSafety(it Itinerary) float64 {
	var sum float64
	var count int
	for _, leg := range it.Legs {
		if leg.Type != LegWalk || leg.SafetyScore == nil {
			continue
		}
		sum += *leg.SafetyScore
		count++
	}
	if count == 0 {
		return 1.0
	}
	return sum / float64(count)
}

func sortItineraries(itineraries []Itinerary, mode SafetyMode) {
	if mode == SafetyPrefer || mode == SafetyStrict {
		sort.SliceStable(itineraries, func(i, j int) bool {
			if itineraries[i].DurationSec != itineraries[j].DurationSec {
				return itineraries[i].DurationSec < itineraries[j].DurationSec
			}
			return averageWalkSafety(itineraries[i]) > averageWalkSafety(itineraries[j])
		})
		return
	}
	sort.SliceStable(itineraries, func(i, j int) bool { return itineraries[i].DurationSec < itineraries[j].DurationSec })
}

func recomputeDuration(it *Itinerary) {
	var total int64
	for _, leg := range it.Legs {
		total += leg.DurationSec
	}
	it.DurationSec = total
	if len(it.Legs) > 0 {
		it.ArrivalSec = it.DepartureSec + total
	}
}
