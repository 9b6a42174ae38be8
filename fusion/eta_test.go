package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrowdMeanEmpty(t *testing.T) {
	_, ok := CrowdMean(nil, DefaultDecaySeconds)
	assert.False(t, ok)
}

func TestCrowdMeanIdempotentOnIdenticalArrivals(t *testing.T) {
	obs := []CrowdObservation{
		{ArrivalSeconds: 240, AgeSeconds: 0},
		{ArrivalSeconds: 240, AgeSeconds: 500},
		{ArrivalSeconds: 240, AgeSeconds: 1000},
	}
	eta, ok := CrowdMean(obs, DefaultDecaySeconds)
	assert.True(t, ok)
	assert.Equal(t, 240, eta)
}

func TestCrowdMeanScenario(t *testing.T) {
	// Two reports at ages 0s and 300s, arrivals 240 and 360, decay 600.
	obs := []CrowdObservation{
		{ArrivalSeconds: 240, AgeSeconds: 0},
		{ArrivalSeconds: 360, AgeSeconds: 300},
	}
	eta, ok := CrowdMean(obs, 600)
	assert.True(t, ok)
	assert.Equal(t, 285, eta)
}

func TestCombineCrowdOnly(t *testing.T) {
	crowd := 200
	res := Combine(&crowd, nil, 0, DefaultHeadwaySeconds)
	assert.Equal(t, SourceCrowd, res.Source)
	assert.Equal(t, 200, res.ETASeconds)
}

func TestCombineLiveOnly(t *testing.T) {
	live := 120
	res := Combine(nil, &live, 0, DefaultHeadwaySeconds)
	assert.Equal(t, SourceLiveFeed, res.Source)
	assert.Equal(t, 120, res.ETASeconds)
}

func TestCombineCrowdAndLive(t *testing.T) {
	crowd, live := 200, 120
	res := Combine(&crowd, &live, 0, DefaultHeadwaySeconds)
	assert.Equal(t, SourceCrowdLive, res.Source)
	assert.Equal(t, 152, res.ETASeconds)
}

func TestCombineScheduleFallback(t *testing.T) {
	// epoch_seconds mod 600 == 437 -> eta = 600 - 437 = 163
	res := Combine(nil, nil, 123437, 600)
	assert.Equal(t, SourceSchedule, res.Source)
	assert.Equal(t, 163, res.ETASeconds)
	assert.NotNil(t, res.AssumedHeadway)
	assert.Equal(t, 600, *res.AssumedHeadway)
}

func TestCombineClampsNegative(t *testing.T) {
	crowd, live := -500, -500
	res := Combine(&crowd, &live, 0, DefaultHeadwaySeconds)
	assert.Equal(t, 0, res.ETASeconds)
}
