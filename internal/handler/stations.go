package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/bikenearby/backend-go/internal/api"
	"github.com/bikenearby/backend-go/internal/images"
	"github.com/bikenearby/backend-go/internal/models"
	"github.com/bikenearby/backend-go/internal/station"
	"github.com/rs/zerolog/log"
)

const noDataMessage = "No station data available"

type StationsHandler struct {
	stationFinder models.StationFinder
	catalog       images.Catalog
}

// NewStationsHandler builds the HTTP handlers for the station endpoints.
// catalog may be nil, in which case responses carry no image_url.
func NewStationsHandler(finder models.StationFinder, catalog images.Catalog) *StationsHandler {
	return &StationsHandler{
		stationFinder: finder,
		catalog:       catalog,
	}
}

// NearbyStations serves GET /nearby_stations?lat=&lng=&range=.
func (h *StationsHandler) NearbyStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.currentSnapshot(ctx); !ok {
		api.Error(w, noDataMessage, http.StatusNotFound)
		return
	}

	lat, lng, radiusKm, err := api.ParseNearbyQuery(r.URL.Query())
	if err != nil {
		log.Debug().Err(err).Str("query", r.URL.RawQuery).Msg("Rejected nearby query")
		api.Error(w, api.MissingParametersMessage, http.StatusBadRequest)
		return
	}

	nearby, err := h.stationFinder.FindNearbyStations(ctx, lat, lng, radiusKm)
	if err != nil {
		var paramErr *station.InvalidParameterError
		var emptyErr *station.EmptyDatasetError
		switch {
		case errors.As(err, &paramErr):
			api.Error(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &emptyErr):
			api.Error(w, noDataMessage, http.StatusNotFound)
		default:
			log.Error().Err(err).Msg("Error finding nearby stations")
			api.Error(w, "Error finding stations", http.StatusInternalServerError)
		}
		return
	}

	names := h.imageNames(ctx)
	base := api.RequestBase(r)
	response := api.NewNearbyStationResponses(nearby)
	for i := range response {
		if name, ok := images.ByPosition(names, i); ok {
			response[i].ImageURL = h.catalog.URL(base, name)
		}
	}

	api.Success(w, response)
}

// AllStations serves GET /all_stations.
func (h *StationsHandler) AllStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, ok := h.currentSnapshot(ctx)
	if !ok {
		api.Error(w, noDataMessage, http.StatusNotFound)
		return
	}

	names := h.imageNames(ctx)
	base := api.RequestBase(r)
	response := make([]api.StationResponse, snap.Len())
	for i := range response {
		st := snap.At(i)
		response[i] = api.NewStationResponse(st)
		if name, ok := images.ByStation(names, st.UID); ok {
			response[i].ImageURL = h.catalog.URL(base, name)
		}
	}

	api.Success(w, response)
}

// currentSnapshot reports false when nothing has been published yet or the
// published snapshot holds no stations.
func (h *StationsHandler) currentSnapshot(ctx context.Context) (*models.Snapshot, bool) {
	snap, err := h.stationFinder.AllStations(ctx)
	if err != nil {
		var emptyErr *station.EmptyDatasetError
		if !errors.As(err, &emptyErr) {
			log.Error().Err(err).Msg("Error loading snapshot")
		}
		return nil, false
	}
	if snap == nil || snap.Len() == 0 {
		return nil, false
	}
	return snap, true
}

func (h *StationsHandler) imageNames(ctx context.Context) []string {
	if h.catalog == nil {
		return nil
	}
	names, err := h.catalog.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Image catalog unavailable, omitting image_url")
		return nil
	}
	return names
}
