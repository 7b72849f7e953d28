package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityStartsAtInitial(t *testing.T) {
	q := newQualityController()
	assert.Equal(t, initialQuality, q.Quality())
}

func TestQualityRisesOnSmallFrames(t *testing.T) {
	q := newQualityController()
	q.Observe(20000)
	assert.Equal(t, initialQuality+qualityStep, q.Quality())
}

func TestQualityDropsOnOversizedFrames(t *testing.T) {
	q := newQualityController()
	q.Observe(maxDatagramBytes + 1)
	assert.Equal(t, initialQuality-qualityStep, q.Quality())
}

func TestQualityHoldsInComfortZone(t *testing.T) {
	q := newQualityController()
	q.Observe(60000)
	assert.Equal(t, initialQuality, q.Quality())
}

func TestQualityNeverExceedsMaximum(t *testing.T) {
	q := newQualityController()
	for i := 0; i < 100; i++ {
		q.Observe(1000)
	}
	assert.Equal(t, maxQuality, q.Quality())

	// One more small frame must not push past the ceiling.
	q.Observe(1000)
	assert.Equal(t, maxQuality, q.Quality())
}

func TestQualityNeverDropsBelowMinimum(t *testing.T) {
	q := newQualityController()
	for i := 0; i < 100; i++ {
		q.Observe(maxDatagramBytes + 1)
	}
	assert.Equal(t, minQuality, q.Quality())
}

func TestQualityRecoversAfterPressure(t *testing.T) {
	q := newQualityController()
	for i := 0; i < 5; i++ {
		q.Observe(maxDatagramBytes + 1)
	}
	lowered := q.Quality()
	assert.Less(t, lowered, initialQuality)

	q.Observe(30000)
	assert.Equal(t, lowered+qualityStep, q.Quality())
}
