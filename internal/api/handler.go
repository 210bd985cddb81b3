package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/bikenearby/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// StationResponse is one element of the station arrays the API returns.
type StationResponse struct {
	models.Station
	DistanceKm *float64 `json:"distance_km,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
}

func NewStationResponse(st models.Station) StationResponse {
	return StationResponse{Station: st}
}

// NewNearbyStationResponse rounds the distance to two decimals for display.
func NewNearbyStationResponse(st models.NearbyStation) StationResponse {
	d := RoundKm(st.DistanceKm)
	return StationResponse{Station: st.Station, DistanceKm: &d}
}

// NewNearbyStationResponses rounds every distance and orders the results by
// the rounded distance, then uid, so equal distance_km values are listed in
// ascending uid order.
func NewNearbyStationResponses(nearby []models.NearbyStation) []StationResponse {
	response := make([]StationResponse, len(nearby))
	for i, st := range nearby {
		response[i] = NewNearbyStationResponse(st)
	}
	sort.SliceStable(response, func(i, j int) bool {
		di, dj := *response[i].DistanceKm, *response[j].DistanceKm
		if di != dj {
			return di < dj
		}
		return response[i].UID < response[j].UID
	})
	return response
}

func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// Response helpers
func Success(w http.ResponseWriter, body interface{}) {
	writeJSON(w, http.StatusOK, body)
}

func Error(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, NewErrorResponse(message))
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Error encoding response")
		statusCode = http.StatusInternalServerError
		jsonBody, _ = json.Marshal(NewErrorResponse("Internal Server Error"))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(jsonBody); err != nil {
		log.Debug().Err(err).Msg("Error writing response")
	}
}

// MissingParametersMessage is returned when lat, lng or range is absent or
// not a number.
const MissingParametersMessage = "Missing or invalid parameters. Please provide lat, lng, and range as numbers."

// ParameterError reports a query parameter that is absent or not a number.
type ParameterError struct {
	Param string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("missing or non-numeric parameter %q", e.Param)
}

// Parameter parsing helpers
func ParseFloatParam(query url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return 0, &ParameterError{Param: name}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParameterError{Param: name}
	}
	return v, nil
}

// ParseNearbyQuery reads lat, lng and range from the query string.
func ParseNearbyQuery(query url.Values) (lat, lng, radiusKm float64, err error) {
	if lat, err = ParseFloatParam(query, "lat"); err != nil {
		return 0, 0, 0, err
	}
	if lng, err = ParseFloatParam(query, "lng"); err != nil {
		return 0, 0, 0, err
	}
	if radiusKm, err = ParseFloatParam(query, "range"); err != nil {
		return 0, 0, 0, err
	}
	return lat, lng, radiusKm, nil
}

// RequestBase returns the scheme and host the client used, ending in "/".
func RequestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host + "/"
}
