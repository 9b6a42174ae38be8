package walkdirections

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernway/transit/downloader"
)

func TestHaversineFallback(t *testing.T) {
	r := Haversine(0, 0, 0, 1)
	require.Len(t, r.Steps, 1)
	assert.Greater(t, r.DurationSec, 0.0)
	assert.InDelta(t, r.Steps[0].DistanceM/walkSpeedMPS, r.DurationSec, 1e-6)
}

type fakeDownloader struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeDownloader) Get(ctx context.Context, url string, headers map[string]string, opts downloader.GetOptions) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

func TestHTTPProviderDecodesAndCaches(t *testing.T) {
	fd := &fakeDownloader{body: []byte(`{"routes":[{"geometry":[[1.0,2.0]],"steps":[{"name":"Main St","distance_m":100,"duration_s":80}],"duration_sec":80,"summary":"via Main St"}]}`)}
	p, err := NewHTTPProvider("http://example", "tok", fd, 100, 10)
	require.NoError(t, err)

	routes, err := p.Directions(context.Background(), 1, 2, 3, 4, 0)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "via Main St", routes[0].Summary)
	assert.Equal(t, 1, fd.calls)

	// Second call with identical key should hit the memoization cache.
	_, err = p.Directions(context.Background(), 1, 2, 3, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, fd.calls)
}

func TestHTTPProviderPropagatesFetchError(t *testing.T) {
	fd := &fakeDownloader{err: assert.AnError}
	p, err := NewHTTPProvider("http://example", "", fd, 100, 10)
	require.NoError(t, err)

	_, err = p.Directions(context.Background(), 1, 2, 3, 4, 0)
	assert.Error(t, err)
}
