// Package delaycache maintains the Realtime Delay Cache: a background
// poller that decodes a GTFS-Realtime TripUpdates feed into per-trip
// and per-(trip,stop) delay snapshots.
package delaycache

import (
	"context"
	"sync/atomic"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"

	"github.com/fernway/transit/downloader"
)

// DefaultPollInterval matches POLL_INTERVAL_SECONDS' documented
// default.
const DefaultPollInterval = 12 * time.Second

// fetchTimeout bounds every poll's HTTP round trip, per the ≤6s
// realtime fetch budget.
const fetchTimeout = 6 * time.Second

type stopKey struct {
	TripID string
	StopID string
}

// snapshot is the paired (TripDelay, StopDelay) state swapped
// atomically on every successful poll, so a reader never observes one
// map updated without the other.
type snapshot struct {
	tripDelay map[string]int
	stopDelay map[stopKey]int
	updatedAt time.Time
}

var emptySnapshot = &snapshot{
	tripDelay: map[string]int{},
	stopDelay: map[stopKey]int{},
}

// Cache is the Realtime Delay Cache. The zero value is not usable;
// construct with New. If url is empty, the cache never polls and
// every lookup returns "no delay known", matching the no-op
// no-URL-configured case in the spec.
type Cache struct {
	url        string
	downloader downloader.Downloader
	interval   time.Duration
	log        zerolog.Logger
	metrics    *Metrics

	current atomic.Pointer[snapshot]
}

// Metrics are the Prometheus instruments the cache updates on every
// poll outcome.
type Metrics struct {
	PollsTotal     *prometheus.CounterVec
	SnapshotAgeSec prometheus.Gauge
}

// NewMetrics registers the cache's instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delaycache_polls_total",
			Help: "Realtime delay cache poll attempts by outcome.",
		}, []string{"outcome"}),
		SnapshotAgeSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "delaycache_snapshot_age_seconds",
			Help: "Age of the most recently applied delay snapshot.",
		}),
	}
	reg.MustRegister(m.PollsTotal, m.SnapshotAgeSec)
	return m
}

// New constructs a Cache. dl is typically downloader.HTTPGet wrapped
// in a no-cache downloader.Downloader; passing a fake is how tests
// exercise the poll loop without a network.
func New(url string, dl downloader.Downloader, interval time.Duration, log zerolog.Logger, metrics *Metrics) *Cache {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	c := &Cache{
		url:        url,
		downloader: dl,
		interval:   interval,
		log:        log,
		metrics:    metrics,
	}
	c.current.Store(emptySnapshot)
	return c
}

// Run polls forever until ctx is canceled. If no URL is configured,
// Run returns immediately: the cache stays a permanent no-op.
func (c *Cache) Run(ctx context.Context) {
	if c.url == "" {
		c.log.Info().Msg("no TRIP_UPDATES_URL configured, delay cache disabled")
		return
	}

	c.poll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.poll(ctx)
		}
	}
}

func (c *Cache) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	body, err := c.downloader.Get(pollCtx, c.url, nil, downloader.GetOptions{
		MaxSize: 32 << 20,
		Timeout: fetchTimeout,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("delay cache poll: fetch failed, keeping previous snapshot")
		c.observe("fetch_error")
		return
	}

	snap, err := decode(body)
	if err != nil {
		c.log.Warn().Err(err).Msg("delay cache poll: decode failed, keeping previous snapshot")
		c.observe("decode_error")
		return
	}

	snap.updatedAt = time.Now()
	c.current.Store(snap)
	c.observe("success")
}

func (c *Cache) observe(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.PollsTotal.WithLabelValues(outcome).Inc()
	if snap := c.current.Load(); snap != nil && !snap.updatedAt.IsZero() {
		c.metrics.SnapshotAgeSec.Set(time.Since(snap.updatedAt).Seconds())
	}
}

// decode walks a FeedMessage's TripUpdate entities, applying the same
// "first stop_time_update with a delay field wins the trip-level
// delay" rule as the spec.
func decode(body []byte) (*snapshot, error) {
	msg := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, err
	}

	snap := &snapshot{
		tripDelay: map[string]int{},
		stopDelay: map[stopKey]int{},
	}

	for _, entity := range msg.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		tripID := tu.GetTrip().GetTripId()
		if tripID == "" {
			continue
		}

		tripDelaySet := false
		for _, stu := range tu.GetStopTimeUpdate() {
			delay, ok := stopTimeDelay(stu)
			if !ok {
				continue
			}
			if stu.GetStopId() != "" {
				snap.stopDelay[stopKey{TripID: tripID, StopID: stu.GetStopId()}] = delay
			}
			if !tripDelaySet {
				snap.tripDelay[tripID] = delay
				tripDelaySet = true
			}
		}
		if !tripDelaySet {
			snap.tripDelay[tripID] = 0
		}
	}

	return snap, nil
}

func stopTimeDelay(stu *gtfsrt.TripUpdate_StopTimeUpdate) (int, bool) {
	if a := stu.GetArrival(); a != nil && a.Delay != nil {
		return int(a.GetDelay()), true
	}
	if d := stu.GetDeparture(); d != nil && d.Delay != nil {
		return int(d.GetDelay()), true
	}
	return 0, false
}

// TripDelay returns the trip-level delay in seconds and whether one is
// known.
func (c *Cache) TripDelay(tripID string) (int, bool) {
	snap := c.current.Load()
	d, ok := snap.tripDelay[tripID]
	return d, ok
}

// StopDelay returns the (trip, stop)-level delay in seconds and
// whether one is known.
func (c *Cache) StopDelay(tripID, stopID string) (int, bool) {
	snap := c.current.Load()
	d, ok := snap.stopDelay[stopKey{TripID: tripID, StopID: stopID}]
	return d, ok
}

// AdjustedDelay resolves the delay to apply to a (trip, stop) pair:
// stop-level delay if known, else trip-level, else zero.
func (c *Cache) AdjustedDelay(tripID, stopID string) int {
	if d, ok := c.StopDelay(tripID, stopID); ok {
		return d
	}
	if d, ok := c.TripDelay(tripID); ok {
		return d
	}
	return 0
}
