package geo

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomPoints scatters n points over greater Taipei.
func randomPoints(rng *rand.Rand, n int) []Point {
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			Pos: i,
			Lat: 24.9 + rng.Float64()*0.3,
			Lon: 121.3 + rng.Float64()*0.4,
		}
	}
	return points
}

func bruteForce(points []Point, lat, lon, radiusDeg float64) []int {
	var out []int
	for _, p := range points {
		dLat, dLon := p.Lat-lat, p.Lon-lon
		if dLat*dLat+dLon*dLon <= radiusDeg*radiusDeg {
			out = append(out, p.Pos)
		}
	}
	sort.Ints(out)
	return out
}

func TestIndex_RangeQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := randomPoints(rng, 2000)
	idx := NewIndex(points)
	require.Equal(t, len(points), idx.Len())

	for i := 0; i < 200; i++ {
		lat := 24.9 + rng.Float64()*0.3
		lon := 121.3 + rng.Float64()*0.4
		radiusDeg := DegreesForKm(0.1 + rng.Float64()*5)

		got := idx.RangeQuery(lat, lon, radiusDeg)
		sort.Ints(got)
		want := bruteForce(points, lat, lon, radiusDeg)

		if len(want) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, want, got, "query %d at (%v,%v) r=%v", i, lat, lon, radiusDeg)
	}
}

func TestIndex_RangeQueryOrderedByPlanarDistance(t *testing.T) {
	points := []Point{
		{Pos: 0, Lat: 25.0400, Lon: 121.5654},
		{Pos: 1, Lat: 25.0330, Lon: 121.5654},
		{Pos: 2, Lat: 25.0350, Lon: 121.5654},
	}
	idx := NewIndex(points)

	got := idx.RangeQuery(25.0330, 121.5654, 0.01)
	assert.Equal(t, []int{1, 2, 0}, got)
}

func TestIndex_Empty(t *testing.T) {
	idx := NewIndex(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.RangeQuery(25, 121, 1))
}

func TestIndex_NoMatches(t *testing.T) {
	idx := NewIndex([]Point{{Pos: 0, Lat: 25, Lon: 121}})
	assert.Empty(t, idx.RangeQuery(0, 0, 0.5))
}

func TestIndex_DoesNotReorderInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	points := randomPoints(rng, 100)
	before := make([]Point, len(points))
	copy(before, points)

	NewIndex(points)
	assert.Equal(t, before, points)
}

func TestIndex_DeterministicRebuild(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := randomPoints(rng, 500)

	a := NewIndex(points)
	b := NewIndex(points)
	for i := 0; i < 50; i++ {
		lat := 24.9 + rng.Float64()*0.3
		lon := 121.3 + rng.Float64()*0.4
		r := DegreesForKm(2)

		ga := a.RangeQuery(lat, lon, r)
		gb := b.RangeQuery(lat, lon, r)
		sort.Ints(ga)
		sort.Ints(gb)
		assert.Equal(t, ga, gb)
	}
}
