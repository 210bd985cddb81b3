package refresh

import (
	"math"

	"github.com/bikenearby/backend-go/internal/models"
	"github.com/bikenearby/backend-go/internal/tdx"
)

// Reasons a raw station record does not make it into a snapshot.
const (
	DropMissingUID         = "missing_uid"
	DropMissingCoordinates = "missing_coordinates"
	DropInvalidCoordinates = "invalid_coordinates"
	DropDuplicateUID       = "duplicate_uid"
)

// merger accumulates one cycle's stations in region order. The first record
// seen for a uid wins, across regions as well as within one.
type merger struct {
	seen     map[string]struct{}
	stations []models.Station
	dropped  map[string]int
}

func newMerger() *merger {
	return &merger{
		seen:    make(map[string]struct{}),
		dropped: make(map[string]int),
	}
}

// addRegion joins freshly fetched stations with availability by uid.
// Stations without availability are kept with zero counts.
func (m *merger) addRegion(region string, stations []tdx.RawStation, availability []tdx.RawAvailability) {
	byUID := make(map[string]*tdx.RawAvailability, len(availability))
	for i := range availability {
		a := &availability[i]
		if a.StationUID == nil {
			continue
		}
		if _, ok := byUID[*a.StationUID]; !ok {
			byUID[*a.StationUID] = a
		}
	}

	for i := range stations {
		raw := &stations[i]
		st, reason := convertStation(region, raw)
		if reason != "" {
			m.dropped[reason]++
			continue
		}
		applyAvailability(&st, byUID[st.UID])
		m.add(st)
	}
}

// carryForward re-adds a failed region's stations from the previous
// snapshot unchanged.
func (m *merger) carryForward(stations []models.Station) {
	for _, st := range stations {
		m.add(st)
	}
}

func (m *merger) add(st models.Station) {
	if _, dup := m.seen[st.UID]; dup {
		m.dropped[DropDuplicateUID]++
		return
	}
	m.seen[st.UID] = struct{}{}
	m.stations = append(m.stations, st)
}

func convertStation(region string, raw *tdx.RawStation) (models.Station, string) {
	if raw.StationUID == nil || *raw.StationUID == "" {
		return models.Station{}, DropMissingUID
	}
	pos := raw.StationPosition
	if pos == nil || pos.PositionLat == nil || pos.PositionLon == nil {
		return models.Station{}, DropMissingCoordinates
	}
	lat, lon := *pos.PositionLat, *pos.PositionLon
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return models.Station{}, DropInvalidCoordinates
	}

	st := models.Station{
		UID:       *raw.StationUID,
		Name:      raw.StationName.Preferred(),
		Latitude:  lat,
		Longitude: lon,
		Region:    region,
	}
	if addr := raw.StationAddress.Preferred(); addr != "" {
		st.Address = &addr
	}
	if raw.UpdateTime != nil {
		st.LastUpdate = *raw.UpdateTime
	}
	return st, ""
}

func applyAvailability(st *models.Station, a *tdx.RawAvailability) {
	if a == nil {
		return
	}
	if d := a.AvailableRentBikesDetail; d != nil {
		st.AvailableBikes = nonNegative(d.GeneralBikes)
		st.AvailableEBikes = nonNegative(d.ElectricBikes)
	} else {
		st.AvailableBikes = nonNegative(a.AvailableRentBikes)
	}
	st.AvailableDocks = nonNegative(a.AvailableReturnBikes)
}

func nonNegative(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
