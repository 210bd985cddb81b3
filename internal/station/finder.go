package station

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bikenearby/backend-go/internal/cache"
	"github.com/bikenearby/backend-go/internal/geo"
	"github.com/bikenearby/backend-go/internal/metrics"
	"github.com/bikenearby/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

const DefaultMaxRadiusKm = 50.0

// SnapshotSource yields the snapshot queries should run against.
type SnapshotSource interface {
	Current() *models.Snapshot
}

type indexedSnapshot struct {
	snapshot *models.Snapshot
	index    *geo.Index
}

// Finder answers radius queries against the current snapshot. It keeps the
// spatial index of the last snapshot it saw and rebuilds it when a newer
// snapshot is published.
type Finder struct {
	source      SnapshotSource
	maxRadiusKm float64
	exactRadius bool
	nearbyCache *cache.NearbyCache

	indexed atomic.Pointer[indexedSnapshot]
	buildMu sync.Mutex
}

var _ models.StationFinder = (*Finder)(nil)

type Option func(*Finder)

func WithMaxRadiusKm(km float64) Option {
	return func(f *Finder) {
		if km > 0 {
			f.maxRadiusKm = km
		}
	}
}

// WithExactRadius drops candidates whose great-circle distance exceeds the
// requested radius. Without it, results may include stations slightly past
// the radius (see geo.MaxOvershoot).
func WithExactRadius(exact bool) Option {
	return func(f *Finder) {
		f.exactRadius = exact
	}
}

// WithNearbyCache memoizes results per snapshot version.
func WithNearbyCache(c *cache.NearbyCache) Option {
	return func(f *Finder) {
		f.nearbyCache = c
	}
}

func NewFinder(source SnapshotSource, opts ...Option) *Finder {
	f := &Finder{
		source:      source,
		maxRadiusKm: DefaultMaxRadiusKm,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxRadiusKm is the largest radius FindNearbyStations accepts.
func (f *Finder) MaxRadiusKm() float64 {
	return f.maxRadiusKm
}

// FindNearbyStations returns stations around (lat, lon) sorted by ascending
// great-circle distance, ties broken by UID.
func (f *Finder) FindNearbyStations(ctx context.Context, lat, lon, radiusKm float64) ([]models.NearbyStation, error) {
	if err := f.validate(lat, lon, radiusKm); err != nil {
		return nil, err
	}

	snap := f.source.Current()
	if snap == nil {
		return nil, &EmptyDatasetError{}
	}

	key := cache.NearbyKey{Version: snap.Version(), Lat: lat, Lon: lon, RadiusKm: radiusKm}
	if f.nearbyCache != nil {
		if cached, ok := f.nearbyCache.Get(key); ok {
			metrics.RecordNearbyCacheLookup(true)
			log.Debug().Str("key", key.String()).Msg("Nearby cache HIT")
			return cached, nil
		}
		metrics.RecordNearbyCacheLookup(false)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := f.indexFor(snap)
	candidates := index.RangeQuery(lat, lon, geo.DegreesForKm(radiusKm))

	result := make([]models.NearbyStation, 0, len(candidates))
	for _, pos := range candidates {
		st := snap.At(pos)
		distance := geo.GreatCircleDistanceKm(lat, lon, st.Latitude, st.Longitude)
		if f.exactRadius && distance > radiusKm {
			continue
		}
		result = append(result, models.NearbyStation{
			Station:    st,
			DistanceKm: distance,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DistanceKm != result[j].DistanceKm {
			return result[i].DistanceKm < result[j].DistanceKm
		}
		return result[i].UID < result[j].UID
	})

	log.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Float64("radius_km", radiusKm).
		Int("candidates", len(candidates)).
		Int("results", len(result)).
		Uint64("version", snap.Version()).
		Msg("Nearby query")

	if f.nearbyCache != nil {
		f.nearbyCache.Add(key, result)
	}
	return result, nil
}

// AllStations returns the current snapshot.
func (f *Finder) AllStations(_ context.Context) (*models.Snapshot, error) {
	snap := f.source.Current()
	if snap == nil {
		return nil, &EmptyDatasetError{}
	}
	return snap, nil
}

func (f *Finder) validate(lat, lon, radiusKm float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return NewInvalidParameterError("lat", fmt.Sprintf("%v is outside [-90, 90]", lat))
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return NewInvalidParameterError("lng", fmt.Sprintf("%v is outside [-180, 180]", lon))
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return NewInvalidParameterError("range", "must be a positive number of kilometers")
	}
	if radiusKm > f.maxRadiusKm {
		return NewInvalidParameterError("range", fmt.Sprintf("must not exceed %g km", f.maxRadiusKm))
	}
	return nil
}

// indexFor returns the index built over snap, building it at most once per
// snapshot even under concurrent queries.
func (f *Finder) indexFor(snap *models.Snapshot) *geo.Index {
	if cur := f.indexed.Load(); cur != nil && cur.snapshot == snap {
		return cur.index
	}

	f.buildMu.Lock()
	defer f.buildMu.Unlock()

	if cur := f.indexed.Load(); cur != nil && cur.snapshot == snap {
		return cur.index
	}

	points := make([]geo.Point, snap.Len())
	for i := range points {
		st := snap.At(i)
		points[i] = geo.Point{Pos: i, Lat: st.Latitude, Lon: st.Longitude}
	}
	index := geo.NewIndex(points)

	// A query holding an older snapshot must not replace a newer index.
	if cur := f.indexed.Load(); cur == nil || cur.snapshot.Version() <= snap.Version() {
		f.indexed.Store(&indexedSnapshot{snapshot: snap, index: index})
	}
	metrics.RecordIndexBuild()
	log.Debug().Uint64("version", snap.Version()).Int("station_count", snap.Len()).Msg("Built spatial index")
	return index
}
