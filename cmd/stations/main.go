package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bikenearby/backend-go/internal/api"
	"github.com/bikenearby/backend-go/internal/cache"
	"github.com/bikenearby/backend-go/internal/config"
	"github.com/bikenearby/backend-go/internal/models"
	"github.com/bikenearby/backend-go/internal/refresh"
	"github.com/bikenearby/backend-go/internal/station"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// stations fetches one snapshot from TDX and prints it, or the stations
// around a point, as JSON.
func main() {
	lat := flag.Float64("lat", 0, "latitude of the query point")
	lng := flag.Float64("lng", 0, "longitude of the query point")
	radius := flag.Float64("range", 0, "search radius in km; 0 prints every station")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Could not read .env file")
	}
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, *lat, *lng, *radius); err != nil {
		log.Fatal().Err(err).Msg("Station lookup failed")
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer, lat, lng, radiusKm float64) error {
	store := cache.NewSnapshotStore()

	result, err := refresh.NewFromConfig(cfg, store).RefreshNow(ctx)
	if err != nil {
		return fmt.Errorf("refreshing stations: %w", err)
	}
	log.Info().
		Strs("fetched", result.FetchedRegions).
		Strs("failed", result.FailedRegions).
		Int("stations", result.Snapshot.Len()).
		Msg("Snapshot fetched")

	finder := station.NewFinder(store,
		station.WithMaxRadiusKm(cfg.MaxRadiusKm),
		station.WithExactRadius(cfg.ExactRadius),
	)

	var response []api.StationResponse
	if radiusKm > 0 {
		nearby, err := finder.FindNearbyStations(ctx, lat, lng, radiusKm)
		if err != nil {
			return err
		}
		response = api.NewNearbyStationResponses(nearby)
	} else {
		snap, err := finder.AllStations(ctx)
		if err != nil {
			return err
		}
		response = toResponses(snap)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(response)
}

func toResponses(snap *models.Snapshot) []api.StationResponse {
	response := make([]api.StationResponse, snap.Len())
	for i := range response {
		response[i] = api.NewStationResponse(snap.At(i))
	}
	return response
}
