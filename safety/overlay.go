// Package safety implements the Safety Overlay: a danger map and a
// set of circular safety zones, used to score walking legs produced by
// the Walk Directions Provider.
package safety

import (
	"encoding/json"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/fernway/transit/model"
)

// Step mirrors the Walk Directions Provider's per-step shape, trimmed
// to the fields safety scoring needs.
type Step struct {
	Name      string
	DistanceM float64
}

// Point is a [lng, lat] geometry vertex, matching the provider's wire
// format.
type Point struct {
	Lng float64
	Lat float64
}

type dangerMapFile struct {
	Roads   map[string]int `json:"roads"`
	Types   map[string]int `json:"types"`
	Default int            `json:"default"`
}

type zonesFile struct {
	Zones []zoneEntry `json:"zones"`
}

type zoneEntry struct {
	Type    string  `json:"type"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m"`
	Score   float64 `json:"score"`
	Label   string  `json:"label"`
}

type overlayData struct {
	danger model.DangerMap
	zones  []model.SafetyZone
}

var empty = &overlayData{
	danger: model.DangerMap{Roads: map[string]int{}, Types: map[string]int{}, Default: 1},
}

// Overlay is the Safety Overlay. Reload swaps its data atomically; a
// missing file degrades to an empty overlay rather than failing.
type Overlay struct {
	dangerMapPath   string
	safetyZonesPath string
	log             zerolog.Logger

	data atomic.Pointer[overlayData]
}

// New constructs an Overlay and performs the initial load. Missing
// files are logged at warn and treated as empty, never fatal.
func New(dangerMapPath, safetyZonesPath string, log zerolog.Logger) *Overlay {
	o := &Overlay{dangerMapPath: dangerMapPath, safetyZonesPath: safetyZonesPath, log: log}
	o.data.Store(empty)
	o.ReloadDangerMap()
	o.ReloadSafetyZones()
	return o
}

// ReloadDangerMap re-reads the danger map file, if configured.
func (o *Overlay) ReloadDangerMap() {
	if o.dangerMapPath == "" {
		return
	}
	buf, err := os.ReadFile(o.dangerMapPath)
	if err != nil {
		o.log.Warn().Err(err).Str("path", o.dangerMapPath).Msg("safety overlay: danger map unavailable, treating as empty")
		return
	}
	var f dangerMapFile
	if err := json.Unmarshal(buf, &f); err != nil {
		o.log.Warn().Err(err).Str("path", o.dangerMapPath).Msg("safety overlay: danger map malformed, treating as empty")
		return
	}

	roads := map[string]int{}
	for name, score := range f.Roads {
		roads[strings.TrimSpace(strings.ToLower(name))] = score
	}
	def := f.Default
	if def == 0 {
		def = 1
	}

	o.swap(func(prev *overlayData) *overlayData {
		next := *prev
		next.danger = model.DangerMap{Roads: roads, Types: f.Types, Default: def}
		return &next
	})
}

// ReloadSafetyZones re-reads the safety zones file, if configured.
func (o *Overlay) ReloadSafetyZones() {
	if o.safetyZonesPath == "" {
		return
	}
	buf, err := os.ReadFile(o.safetyZonesPath)
	if err != nil {
		o.log.Warn().Err(err).Str("path", o.safetyZonesPath).Msg("safety overlay: safety zones unavailable, treating as empty")
		return
	}
	var f zonesFile
	if err := json.Unmarshal(buf, &f); err != nil {
		o.log.Warn().Err(err).Str("path", o.safetyZonesPath).Msg("safety overlay: safety zones malformed, treating as empty")
		return
	}

	zones := make([]model.SafetyZone, 0, len(f.Zones))
	for _, z := range f.Zones {
		if z.Type != "circle" {
			continue
		}
		zones = append(zones, model.SafetyZone{
			CenterLat: z.Lat,
			CenterLng: z.Lng,
			RadiusM:   z.RadiusM,
			Score:     clamp01(z.Score),
			Label:     z.Label,
		})
	}

	o.swap(func(prev *overlayData) *overlayData {
		next := *prev
		next.zones = zones
		return &next
	})
}

func (o *Overlay) swap(mutate func(*overlayData) *overlayData) {
	for {
		prev := o.data.Load()
		next := mutate(prev)
		if o.data.CompareAndSwap(prev, next) {
			return
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// roadSafety maps a 1..10 danger score to a [0,1] safety score.
func roadSafety(danger int) float64 {
	return round3(1 - (float64(danger)-1)/9)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// typeTag infers a danger-map type tag from a road name, per the
// fixed heuristic in the spec: alley, trail, arterial, street, or
// "" (unmatched, falls back to default).
func typeTag(name string) string {
	lower := strings.ToLower(name)
	switch {
	case lower == "alley" || strings.Contains(lower, "alley"):
		return "alley"
	case strings.Contains(lower, "trail") || strings.Contains(lower, "path") || strings.Contains(lower, "walk"):
		return "trail"
	case strings.Contains(lower, "way"):
		return "arterial"
	case strings.Contains(lower, "ave"), strings.Contains(lower, "avenue"),
		strings.Contains(lower, "st "), strings.HasSuffix(lower, " st"), strings.Contains(lower, "street"),
		strings.Contains(lower, "blvd"):
		return "street"
	default:
		return ""
	}
}

// stepDanger resolves a single step's danger score: exact road name
// match, else inferred type tag, else the map's default.
func stepDanger(d model.DangerMap, name string) int {
	if score, ok := d.Roads[strings.TrimSpace(strings.ToLower(name))]; ok {
		return score
	}
	if tag := typeTag(name); tag != "" {
		if score, ok := d.Types[tag]; ok {
			return score
		}
	}
	return d.Default
}

// RoadScore computes the distance-weighted safety mean across a walk
// leg's steps, falling back to the arithmetic mean if every distance
// is zero. ok is false for a leg with no steps.
func (o *Overlay) RoadScore(steps []Step) (score float64, ok bool) {
	if len(steps) == 0 {
		return 0, false
	}
	danger := o.data.Load().danger

	var sumWeighted, sumWeights, sumScores float64
	for _, s := range steps {
		safety := roadSafety(stepDanger(danger, s.Name))
		sumWeighted += safety * s.DistanceM
		sumWeights += s.DistanceM
		sumScores += safety
	}

	if sumWeights > 0 {
		return round3(sumWeighted / sumWeights), true
	}
	return round3(sumScores / float64(len(steps))), true
}

// ZoneScore samples a walk leg's geometry every 4th vertex (or
// endpoints plus midpoint if no geometry) and averages the maximum
// zone score covering each covered sample. ok is false if no sample
// falls inside any zone.
func (o *Overlay) ZoneScore(geometry []Point, fromLat, fromLng, toLat, toLng float64) (score float64, ok bool) {
	zones := o.data.Load().zones
	if len(zones) == 0 {
		return 0, false
	}

	samples := sampleGeometry(geometry, fromLat, fromLng, toLat, toLng)

	var sum float64
	var count int
	for _, p := range samples {
		max, covered := maxZoneScore(zones, p.Lat, p.Lng)
		if covered {
			sum += max
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return round3(sum / float64(count)), true
}

func sampleGeometry(geometry []Point, fromLat, fromLng, toLat, toLng float64) []Point {
	if len(geometry) == 0 {
		return []Point{
			{Lat: fromLat, Lng: fromLng},
			{Lat: (fromLat + toLat) / 2, Lng: (fromLng + toLng) / 2},
			{Lat: toLat, Lng: toLng},
		}
	}
	out := make([]Point, 0, len(geometry)/4+1)
	for i := 0; i < len(geometry); i += 4 {
		out = append(out, geometry[i])
	}
	return out
}

func maxZoneScore(zones []model.SafetyZone, lat, lng float64) (float64, bool) {
	var max float64
	var covered bool
	for _, z := range zones {
		if haversineM(lat, lng, z.CenterLat, z.CenterLng) <= z.RadiusM {
			if !covered || z.Score > max {
				max = z.Score
			}
			covered = true
		}
	}
	return max, covered
}

func haversineM(aLat, aLng, bLat, bLng float64) float64 {
	const earthRadiusM = 6371000.0
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

// Combined scores a full walk leg per the spec's three-step rule:
// road-only, zone-only, or their arithmetic mean when both exist.
func (o *Overlay) Combined(steps []Step, geometry []Point, fromLat, fromLng, toLat, toLng float64) float64 {
	road, roadOK := o.RoadScore(steps)
	zone, zoneOK := o.ZoneScore(geometry, fromLat, fromLng, toLat, toLng)

	switch {
	case roadOK && zoneOK:
		return round3((road + zone) / 2)
	case roadOK:
		return road
	case zoneOK:
		return zone
	default:
		return roadSafety(o.data.Load().danger.Default)
	}
}
