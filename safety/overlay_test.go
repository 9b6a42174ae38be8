package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRoadSafetyConversion(t *testing.T) {
	assert.Equal(t, 1.0, roadSafety(1))
	assert.Equal(t, 0.0, roadSafety(10))
}

func TestOverlayMissingFilesAreEmpty(t *testing.T) {
	o := New("", "", zerolog.Nop())
	score := o.Combined([]Step{{Name: "Main St", DistanceM: 100}}, nil, 0, 0, 0, 0)
	assert.Equal(t, 1.0, score) // default danger 1 -> safety 1.0
}

func TestOverlayRoadScoreHighDanger(t *testing.T) {
	dir := t.TempDir()
	dangerPath := filepath.Join(dir, "danger.json")
	writeFile(t, dangerPath, `{"roads":{"dangerous st": 10},"types":{},"default":1}`)

	o := New(dangerPath, "", zerolog.Nop())
	score, ok := o.RoadScore([]Step{{Name: "Dangerous St", DistanceM: 500}})
	require.True(t, ok)
	assert.Equal(t, 0.0, score)
}

func TestOverlayZoneScore(t *testing.T) {
	dir := t.TempDir()
	zonesPath := filepath.Join(dir, "zones.json")
	writeFile(t, zonesPath, `{"zones":[{"type":"circle","lat":1.0,"lng":1.0,"radius_m":1000000,"score":0.2,"label":"z"}]}`)

	o := New("", zonesPath, zerolog.Nop())
	score, ok := o.ZoneScore(nil, 1.0, 1.0, 1.0, 1.0)
	require.True(t, ok)
	assert.Equal(t, 0.2, score)
}

func TestOverlayCombinedAveragesRoadAndZone(t *testing.T) {
	dir := t.TempDir()
	dangerPath := filepath.Join(dir, "danger.json")
	zonesPath := filepath.Join(dir, "zones.json")
	writeFile(t, dangerPath, `{"roads":{"main st": 1},"types":{},"default":1}`)
	writeFile(t, zonesPath, `{"zones":[{"type":"circle","lat":1.0,"lng":1.0,"radius_m":1000000,"score":0.0,"label":"z"}]}`)

	o := New(dangerPath, zonesPath, zerolog.Nop())
	score := o.Combined([]Step{{Name: "Main St", DistanceM: 100}}, nil, 1.0, 1.0, 1.0, 1.0)
	assert.Equal(t, 0.5, score)
}

func TestTypeTagInference(t *testing.T) {
	assert.Equal(t, "alley", typeTag("Dark Alley"))
	assert.Equal(t, "trail", typeTag("Forest Trail"))
	assert.Equal(t, "arterial", typeTag("Highway"))
	assert.Equal(t, "street", typeTag("Main Avenue"))
	assert.Equal(t, "", typeTag("Random Place"))
}
