package planner

import (
	"context"
	"math"
	"time"

	"github.com/fernway/transit/index"
	"github.com/fernway/transit/safety"
	"github.com/fernway/transit/walkdirections"
)

// biasFactor returns the multiplier applied to a walk leg's duration
// for the given safety mode and score, per §4.6.
func biasFactor(mode SafetyMode, safetyScore float64) float64 {
	switch mode {
	case SafetyPrefer:
		return 1 + (1-safetyScore)*0.3
	case SafetyStrict:
		return 1 + (1-safetyScore)*0.6
	default:
		return 1
	}
}

// enhanceWalkLegs replaces each WALK leg's duration with the
// minimum-biased-duration candidate from the Walk Directions
// Provider, keeping the rest as alternatives. A provider failure
// degrades to the leg's existing straight-line estimate.
func (p *Planner) enhanceWalkLegs(ctx context.Context, it *Itinerary, req Request) {
	if p.walkProvider == nil {
		return
	}

	for i := range it.Legs {
		leg := &it.Legs[i]
		if leg.Type != LegWalk {
			continue
		}

		start := time.Now()
		routes, err := p.walkProvider.Directions(ctx, leg.FromLat, leg.FromLng, leg.ToLat, leg.ToLng, req.WalkAlternatives)
		if p.metrics != nil {
			p.metrics.WalkDirectionsDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil || len(routes) == 0 {
			if p.metrics != nil {
				p.metrics.WalkDirectionsFailures.Inc()
			}
			continue
		}

		applyBestRoute(leg, routes, req.Safety, p.overlay)
	}
}

func applyBestRoute(leg *Leg, routes []walkdirections.Route, mode SafetyMode, overlay *safety.Overlay) {
	type scored struct {
		route       walkdirections.Route
		safetyScore float64
		biasedSec   float64
	}

	scoredRoutes := make([]scored, 0, len(routes))
	for _, r := range routes {
		score := scoreRoute(r, leg, overlay)
		biased := r.DurationSec * biasFactor(mode, score)
		scoredRoutes = append(scoredRoutes, scored{route: r, safetyScore: score, biasedSec: biased})
	}

	bestIdx := 0
	for i, s := range scoredRoutes {
		if s.biasedSec < scoredRoutes[bestIdx].biasedSec {
			bestIdx = i
		}
	}

	best := scoredRoutes[bestIdx]
	leg.DurationSec = int64(math.Round(best.biasedSec))
	score := best.safetyScore
	leg.SafetyScore = &score

	alts := make([]WalkAlternative, 0, len(scoredRoutes)-1)
	for i, s := range scoredRoutes {
		if i == bestIdx {
			continue
		}
		score := s.safetyScore
		alts = append(alts, WalkAlternative{
			DurationSec:   s.route.DurationSec,
			SafetyScore:   &score,
			BiasedSeconds: s.biasedSec,
			Summary:       s.route.Summary,
		})
	}
	leg.AltOptions = alts
}

func scoreRoute(r walkdirections.Route, leg *Leg, overlay *safety.Overlay) float64 {
	if overlay == nil {
		return 1.0
	}
	steps := make([]safety.Step, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = safety.Step{Name: s.Name, DistanceM: s.DistanceM}
	}
	geometry := make([]safety.Point, len(r.Geometry))
	for i, g := range r.Geometry {
		geometry[i] = safety.Point{Lat: g.Lat, Lng: g.Lng}
	}
	return overlay.Combined(steps, geometry, leg.FromLat, leg.FromLng, leg.ToLat, leg.ToLng)
}

// annotateSafety scores every WALK leg not already scored by walk
// enhancement (e.g. because enhance_walk was off). Such a leg has no
// steps or geometry, so the overlay grades it by the zones covering its
// endpoints and midpoint, else by the danger map's default score.
func (p *Planner) annotateSafety(itineraries []Itinerary, req Request) {
	if p.overlay == nil {
		return
	}
	for i := range itineraries {
		for j := range itineraries[i].Legs {
			leg := &itineraries[i].Legs[j]
			if leg.Type != LegWalk || leg.SafetyScore != nil {
				continue
			}
			score := p.overlay.Combined(nil, nil, leg.FromLat, leg.FromLng, leg.ToLat, leg.ToLng)
			leg.SafetyScore = &score
			leg.DurationSec = int64(math.Round(float64(leg.DurationSec) * biasFactor(req.Safety, score)))
		}
	}
}

// walkOnlyItinerary builds the walk-only fallback used when no transit
// itinerary survives, per §4.6: via the provider if available, else a
// haversine straight-line walk.
func (p *Planner) walkOnlyItinerary(ctx context.Context, req Request, threshold *float64) (Itinerary, bool) {
	distance := index.Distance(req.OriginLat, req.OriginLng, req.DestLat, req.DestLng)
	if distance > req.WalkOnlyMaxM {
		return Itinerary{}, false
	}

	leg := Leg{
		Type:    LegWalk,
		FromLat: req.OriginLat,
		FromLng: req.OriginLng,
		ToLat:   req.DestLat,
		ToLng:   req.DestLng,
	}

	var route walkdirections.Route
	gotRoute := false
	if p.walkProvider != nil {
		routes, err := p.walkProvider.Directions(ctx, req.OriginLat, req.OriginLng, req.DestLat, req.DestLng, 0)
		if err == nil && len(routes) > 0 {
			route = routes[0]
			gotRoute = true
		}
	}
	if !gotRoute {
		route = walkdirections.Haversine(req.OriginLat, req.OriginLng, req.DestLat, req.DestLng)
	}

	leg.DurationSec = int64(route.DurationSec)
	if p.overlay != nil {
		score := scoreRoute(route, &leg, p.overlay)
		leg.SafetyScore = &score
		if req.Safety == SafetyPrefer || req.Safety == SafetyStrict {
			leg.DurationSec = int64(math.Round(route.DurationSec * biasFactor(req.Safety, score)))
		}
	}

	if threshold != nil && leg.SafetyScore != nil && *leg.SafetyScore < *threshold {
		return Itinerary{}, false
	}

	it := Itinerary{
		Legs:         []Leg{leg},
		DepartureSec: req.DepartAfterSec,
		ArrivalSec:   req.DepartAfterSec + leg.DurationSec,
		DurationSec:  leg.DurationSec,
	}
	return it, true
}
