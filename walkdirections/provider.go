// Package walkdirections talks to the external Walk Directions
// Provider collaborator: turn-by-turn walking paths between two
// points, with rate limiting, memoization, and a haversine-based
// straight-line fallback when the provider is unavailable.
package walkdirections

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/fernway/transit/downloader"
	"github.com/fernway/transit/index"
)

// walkSpeedMPS is the fallback walking speed, 5 km/h.
const walkSpeedMPS = 5000.0 / 3600.0

// Step is one instruction in a walking route.
type Step struct {
	Name      string  `json:"name"`
	DistanceM float64 `json:"distance_m"`
	DurationS float64 `json:"duration_s"`
	Maneuver  string  `json:"maneuver"`
}

// Point is a [lng, lat] geometry vertex.
type Point struct {
	Lng float64
	Lat float64
}

// Route is one candidate path between two points.
type Route struct {
	Geometry    []Point
	Steps       []Step
	DurationSec float64
	Summary     string
}

// Provider is the Walk Directions Provider contract: up to
// 1+alternatives candidate paths between two points. Implementations
// must return (nil, err) on failure so callers can degrade to a
// haversine walk rather than fail the query.
type Provider interface {
	Directions(ctx context.Context, fromLat, fromLng, toLat, toLng float64, alternatives int) ([]Route, error)
}

type cacheKey struct {
	fromLat, fromLng, toLat, toLng float64
	alternatives                   int
}

// HTTPProvider is a concrete Provider backed by an HTTP API, rate
// limited and memoized since a single plan() call can enhance many
// WALK legs that share an origin or destination.
type HTTPProvider struct {
	baseURL    string
	token      string
	downloader downloader.Downloader
	limiter    *rate.Limiter
	cache      *lru.Cache[cacheKey, []Route]
}

// NewHTTPProvider constructs a provider. ratePerSecond bounds outbound
// calls; cacheSize bounds the memoization table.
func NewHTTPProvider(baseURL, token string, dl downloader.Downloader, ratePerSecond float64, cacheSize int) (*HTTPProvider, error) {
	cache, err := lru.New[cacheKey, []Route](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating directions cache: %w", err)
	}
	return &HTTPProvider{
		baseURL:    baseURL,
		token:      token,
		downloader: dl,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		cache:      cache,
	}, nil
}

type directionsResponse struct {
	Routes []struct {
		Geometry    [][2]float64 `json:"geometry"`
		Steps       []Step       `json:"steps"`
		DurationSec float64      `json:"duration_sec"`
		Summary     string       `json:"summary"`
	} `json:"routes"`
}

func (p *HTTPProvider) Directions(ctx context.Context, fromLat, fromLng, toLat, toLng float64, alternatives int) ([]Route, error) {
	key := cacheKey{fromLat, fromLng, toLat, toLng, alternatives}
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/directions?from=%f,%f&to=%f,%f&alternatives=%d",
		p.baseURL, fromLat, fromLng, toLat, toLng, alternatives)
	headers := map[string]string{}
	if p.token != "" {
		headers["Authorization"] = "Bearer " + p.token
	}

	body, err := p.downloader.Get(ctx, url, headers, downloader.GetOptions{
		MaxSize: 4 << 20,
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching directions: %w", err)
	}

	var parsed directionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding directions response: %w", err)
	}

	routes := make([]Route, 0, len(parsed.Routes))
	for _, r := range parsed.Routes {
		geometry := make([]Point, len(r.Geometry))
		for i, g := range r.Geometry {
			geometry[i] = Point{Lng: g[0], Lat: g[1]}
		}
		routes = append(routes, Route{
			Geometry:    geometry,
			Steps:       r.Steps,
			DurationSec: r.DurationSec,
			Summary:     r.Summary,
		})
	}

	p.cache.Add(key, routes)
	return routes, nil
}

// Haversine builds the straight-line fallback walk the planner uses
// when the provider is unavailable or unconfigured: a single leg at a
// fixed walking speed.
func Haversine(fromLat, fromLng, toLat, toLng float64) Route {
	distance := index.Distance(fromLat, fromLng, toLat, toLng)
	duration := distance / walkSpeedMPS
	return Route{
		Geometry: []Point{
			{Lng: fromLng, Lat: fromLat},
			{Lng: toLng, Lat: toLat},
		},
		Steps: []Step{
			{Name: "", DistanceM: distance, DurationS: duration},
		},
		DurationSec: duration,
		Summary:     "straight-line walk",
	}
}
