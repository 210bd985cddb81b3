package models

import (
	"fmt"
	"math"
)

// Station is one bike-share dock as published in a snapshot.
type Station struct {
	UID             string  `json:"station_uid"`
	Name            string  `json:"station_name"`
	Address         *string `json:"station_address"`
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lng"`
	LastUpdate      string  `json:"update_time"`
	AvailableBikes  int     `json:"available_bikes"`
	AvailableEBikes int     `json:"available_e_bikes"`
	AvailableDocks  int     `json:"available_return"`
	Region          string  `json:"region"`
}

// NearbyStation is a Station enriched with its great-circle distance from a
// query point.
type NearbyStation struct {
	Station
	DistanceKm float64 `json:"distance_km"`
}

// Validate checks the invariants every published station must satisfy.
func (s *Station) Validate() error {
	if s.UID == "" {
		return fmt.Errorf("station uid is required")
	}

	if math.IsNaN(s.Latitude) || s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", s.Latitude)
	}

	if math.IsNaN(s.Longitude) || s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", s.Longitude)
	}

	if s.AvailableBikes < 0 || s.AvailableEBikes < 0 || s.AvailableDocks < 0 {
		return fmt.Errorf("negative availability for station %s", s.UID)
	}

	return nil
}
