package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bikenearby/backend-go/internal/metrics"
	"github.com/bikenearby/backend-go/internal/models"
	"github.com/bikenearby/backend-go/internal/tdx"
	"github.com/rs/zerolog/log"
)

type AuthProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type StationProvider interface {
	FetchStations(ctx context.Context, token, region string) ([]tdx.RawStation, error)
}

type AvailabilityProvider interface {
	FetchAvailability(ctx context.Context, token, region string) ([]tdx.RawAvailability, error)
}

// Publisher is the snapshot store the refresher writes to.
type Publisher interface {
	Current() *models.Snapshot
	Publish(*models.Snapshot) error
}

// tokenInvalidator is implemented by token sources that cache.
type tokenInvalidator interface {
	Invalidate()
}

// Result describes one finished cycle.
type Result struct {
	Snapshot       *models.Snapshot
	FetchedRegions []string
	FailedRegions  []string
	Dropped        map[string]int
	Duration       time.Duration
}

// Refresher periodically rebuilds the station snapshot from the provider.
// At most one cycle runs at a time.
type Refresher struct {
	auth          AuthProvider
	stations      StationProvider
	availability  AvailabilityProvider
	store         Publisher
	regions       []string
	interval      time.Duration
	regionTimeout time.Duration
	now           func() time.Time

	running atomic.Bool

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type Option func(*Refresher)

func WithRegions(regions []string) Option {
	return func(r *Refresher) {
		if len(regions) > 0 {
			r.regions = append([]string(nil), regions...)
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(r *Refresher) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

func WithRegionTimeout(timeout time.Duration) Option {
	return func(r *Refresher) {
		if timeout > 0 {
			r.regionTimeout = timeout
		}
	}
}

func New(auth AuthProvider, stations StationProvider, availability AvailabilityProvider, store Publisher, opts ...Option) *Refresher {
	r := &Refresher{
		auth:          auth,
		stations:      stations,
		availability:  availability,
		store:         store,
		regions:       []string{"Taipei", "NewTaipei", "Taoyuan"},
		interval:      time.Minute,
		regionTimeout: 20 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs a cycle immediately and then one per interval until Stop is
// called or ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.cancel != nil {
		return fmt.Errorf("refresher already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()

	log.Info().
		Strs("regions", r.regions).
		Dur("interval", r.interval).
		Msg("Refresher started")
	return nil
}

// Stop cancels the background task and waits for an in-flight cycle.
func (r *Refresher) Stop() {
	r.lifecycle.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	log.Info().Msg("Refresher stopped")
}

func (r *Refresher) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick starts a cycle in the background so a slow cycle never delays the
// ticker; an overlapping tick is skipped by RefreshNow.
func (r *Refresher) tick(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.RefreshNow(ctx); err != nil {
			if errors.Is(err, ErrCycleInProgress) {
				log.Warn().Msg("Previous refresh still running, skipping tick")
				return
			}
			log.Error().Err(err).Msg("Refresh cycle failed")
		}
	}()
}

// RefreshNow runs one cycle synchronously. It returns ErrCycleInProgress
// when another cycle is already running.
func (r *Refresher) RefreshNow(ctx context.Context) (result *Result, err error) {
	if !r.running.CompareAndSwap(false, true) {
		metrics.RecordRefresh("skipped", 0)
		return nil, ErrCycleInProgress
	}
	defer r.running.Store(false)

	start := r.now()
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("refresh cycle panicked: %v", p)
		}

		duration := r.now().Sub(start)
		if result != nil {
			result.Duration = duration
		}
		metrics.RecordRefresh(outcome(err), duration)
	}()

	return r.cycle(ctx, start)
}

func outcome(err error) string {
	var authErr *AuthError
	var noRegions *NoRegionsError
	switch {
	case err == nil:
		return "published"
	case errors.As(err, &authErr):
		return "auth_failed"
	case errors.As(err, &noRegions):
		return "empty"
	default:
		return "failed"
	}
}

func (r *Refresher) cycle(ctx context.Context, start time.Time) (*Result, error) {
	token, err := r.auth.AccessToken(ctx)
	if err != nil {
		return nil, NewAuthError(err)
	}

	prev := r.store.Current()
	m := newMerger()
	result := &Result{}
	var failures []error
	// Regions the snapshot holds stations for, in configured order.
	var covered []string

	for _, region := range r.regions {
		stations, availability, err := r.fetchRegion(ctx, token, region)
		if err != nil {
			if unauthorized(err) {
				if inv, ok := r.auth.(tokenInvalidator); ok {
					inv.Invalidate()
				}
				return nil, NewAuthError(err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			fetchErr := NewRegionFetchError(region, err)
			failures = append(failures, fetchErr)
			result.FailedRegions = append(result.FailedRegions, region)
			metrics.RecordRegionFetch(region, false)

			carried := 0
			if prev != nil {
				previous := prev.StationsInRegion(region)
				m.carryForward(previous)
				carried = len(previous)
			}
			if carried > 0 {
				covered = append(covered, region)
			}
			log.Warn().
				Err(fetchErr).
				Str("region", region).
				Int("carried_forward", carried).
				Msg("Region fetch failed, keeping previous data")
			continue
		}

		metrics.RecordRegionFetch(region, true)
		result.FetchedRegions = append(result.FetchedRegions, region)
		covered = append(covered, region)
		m.addRegion(region, stations, availability)
		log.Debug().
			Str("region", region).
			Int("station_count", len(stations)).
			Int("availability_count", len(availability)).
			Msg("Fetched region")
	}

	result.Dropped = m.dropped
	for reason, n := range m.dropped {
		metrics.RecordDroppedStations(reason, n)
		log.Warn().Str("reason", reason).Int("count", n).Msg("Dropped station records")
	}

	if len(result.FetchedRegions) == 0 {
		return result, &NoRegionsError{Errs: failures}
	}

	version := uint64(1)
	if prev != nil {
		version = prev.Version() + 1
	}
	snap, err := models.NewSnapshot(version, r.now(), covered, m.stations)
	if err != nil {
		return result, fmt.Errorf("building snapshot: %w", err)
	}
	if err := r.store.Publish(snap); err != nil {
		return result, fmt.Errorf("publishing snapshot: %w", err)
	}

	result.Snapshot = snap
	metrics.SetSnapshot(snap.Version(), snap.Len())
	log.Info().
		Uint64("version", snap.Version()).
		Int("station_count", snap.Len()).
		Strs("failed_regions", result.FailedRegions).
		Int64("duration_ms", r.now().Sub(start).Milliseconds()).
		Msg("Published station snapshot")
	return result, nil
}

func (r *Refresher) fetchRegion(ctx context.Context, token, region string) ([]tdx.RawStation, []tdx.RawAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, r.regionTimeout)
	defer cancel()

	stations, err := r.stations.FetchStations(ctx, token, region)
	if err != nil {
		return nil, nil, fmt.Errorf("stations: %w", err)
	}
	availability, err := r.availability.FetchAvailability(ctx, token, region)
	if err != nil {
		return nil, nil, fmt.Errorf("availability: %w", err)
	}
	return stations, availability, nil
}

func unauthorized(err error) bool {
	var statusErr *tdx.StatusError
	return errors.As(err, &statusErr) && statusErr.Unauthorized()
}
