// Package api is the composition root: the Public Query API described
// in §4.7, wiring the Static Index, Delay Cache, Report Store, Safety
// Overlay, and Walk Directions Provider behind two operations an HTTP
// or CLI adapter can call without knowing any of those collaborators
// exist.
package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fernway/transit/config"
	"github.com/fernway/transit/delaycache"
	"github.com/fernway/transit/downloader"
	"github.com/fernway/transit/errors"
	"github.com/fernway/transit/fusion"
	"github.com/fernway/transit/index"
	"github.com/fernway/transit/metrics"
	"github.com/fernway/transit/model"
	"github.com/fernway/transit/planner"
	"github.com/fernway/transit/reports"
	"github.com/fernway/transit/safety"
	"github.com/fernway/transit/walkdirections"
)

// EstimatedArrival is the ETA operation's response.
type EstimatedArrival struct {
	StopID     string
	LineID     string
	ETASeconds int
	Source     fusion.Source
}

// PlanRequest is the Plan operation's request, mirroring planner.Request
// but expressed in terms this package's callers already have on hand.
type PlanRequest = planner.Request

// PlanResult is the Plan operation's response.
type PlanResult = planner.Result

// API owns every collaborator the core needs for the lifetime of the
// process. Construct with New, start background work with Run, then
// call ETA/Plan concurrently from any number of goroutines.
type API struct {
	index       *index.StaticIndex
	delayCache  *delaycache.Cache
	reportStore reports.Store
	overlay     *safety.Overlay
	planner     *planner.Planner
	metrics     *metrics.Metrics
	log         zerolog.Logger

	reportDecaySeconds float64
}

// New builds the composition root from a loaded configuration. The
// walk directions provider is optional: it is built only when
// cfg.WalkDirectionsBaseURL is set, and without it walk enhancement is
// disabled entirely (every WALK leg stays a straight-line estimate).
func New(cfg *config.Config, idx *index.StaticIndex, store reports.Store, log zerolog.Logger) (*API, error) {
	m := metrics.New()

	overlay := safety.New(cfg.DangerMapPath, cfg.SafetyZonesPath, log)

	var dc *delaycache.Cache
	if cfg.TripUpdatesURL != "" {
		interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
		dc = delaycache.New(cfg.TripUpdatesURL, downloader.Direct{}, interval, log, m.DelayCache)
	}

	var walkProvider walkdirections.Provider
	if cfg.WalkDirectionsBaseURL != "" {
		p, err := walkdirections.NewHTTPProvider(cfg.WalkDirectionsBaseURL, cfg.WalkDirectionsToken, downloader.Direct{}, 5, 512)
		if err != nil {
			return nil, errors.Wrap(errors.ConfigError, "constructing walk directions provider", err)
		}
		walkProvider = p
	}

	pl := planner.New(idx, dc, overlay, walkProvider, m)

	return &API{
		index:              idx,
		delayCache:         dc,
		reportStore:        store,
		overlay:            overlay,
		planner:            pl,
		metrics:            m,
		log:                log,
		reportDecaySeconds: float64(cfg.ReportDecaySeconds),
	}, nil
}

// Metrics exposes the Prometheus registry for an HTTP adapter to
// mount; this module never serves metrics itself.
func (a *API) Metrics() *metrics.Metrics {
	return a.metrics
}

// Run starts the Delay Cache poller and blocks until ctx is canceled.
// A no-op if no TRIP_UPDATES_URL was configured.
func (a *API) Run(ctx context.Context) {
	if a.delayCache == nil {
		<-ctx.Done()
		return
	}
	a.delayCache.Run(ctx)
}

// ETA resolves a stop (and optionally a specific line) to a combined
// arrival estimate: crowd reports fused with recency weighting, the
// realtime delay cache, and a schedule-derived headway fallback.
func (a *API) ETA(ctx context.Context, stopID string, lineID *string) (EstimatedArrival, error) {
	if stopID == "" {
		return EstimatedArrival{}, errors.InvalidInputf("stop_id is required")
	}
	if _, ok := a.index.Stop(stopID); !ok {
		return EstimatedArrival{}, errors.NotFoundf("unknown stop_id '%s'", stopID)
	}

	line := ""
	if lineID != nil {
		line = *lineID
	}

	now := time.Now().Unix()
	since := now - int64(a.reportDecaySeconds*4)
	crowdReports, err := a.reportStore.Query(ctx, stopID, line, since)
	if err != nil {
		a.log.Warn().Err(err).Str("stop_id", stopID).Msg("report store query failed, continuing without crowd input")
		crowdReports = nil
	}

	obs := make([]fusion.CrowdObservation, 0, len(crowdReports))
	for _, r := range crowdReports {
		obs = append(obs, fusion.CrowdObservation{
			ArrivalSeconds: r.ArrivalSeconds,
			AgeSeconds:     float64(now - r.Timestamp),
		})
	}
	var crowdETA *int
	if eta, ok := fusion.CrowdMean(obs, a.reportDecaySeconds); ok {
		crowdETA = &eta
	}

	liveETA := a.liveArrival(stopID, line)

	headway := fusion.DefaultHeadwaySeconds
	result := fusion.Combine(crowdETA, liveETA, now, headway)

	return EstimatedArrival{
		StopID:     stopID,
		LineID:     line,
		ETASeconds: result.ETASeconds,
		Source:     result.Source,
	}, nil
}

// liveArrival resolves the soonest realtime-adjusted arrival at stopID
// for a trip on lineID (or any line, if unset), using the Delay Cache
// and Static Index together, as seconds from now. Returns nil if
// realtime isn't configured or has nothing useful to say.
func (a *API) liveArrival(stopID, lineID string) *int {
	if a.delayCache == nil {
		return nil
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	nowSec := int64(now.Sub(midnight).Seconds())

	var best *int
	for _, st := range a.index.StopTimesForStop(stopID) {
		trip, ok := a.index.Trip(st.TripID)
		if !ok {
			continue
		}
		if lineID != "" && trip.RouteID != lineID {
			route, ok := a.index.Route(trip.RouteID)
			if !ok || route.ShortName != lineID {
				continue
			}
		}

		delay := a.delayCache.AdjustedDelay(st.TripID, stopID)
		adjusted := int64(st.ArrivalSec + delay)
		if adjusted < nowSec-120 {
			continue
		}
		eta := int(adjusted - nowSec)
		if best == nil || eta < *best {
			v := eta
			best = &v
		}
	}
	return best
}

// Plan runs the itinerary planner end to end.
func (a *API) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	return a.planner.Plan(ctx, req)
}

// RecordCrowdReport appends a crowd-sourced arrival observation.
func (a *API) RecordCrowdReport(ctx context.Context, report model.CrowdReport) error {
	return a.reportStore.Append(ctx, report)
}
