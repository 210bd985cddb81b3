package models

import "context"

type StationFinder interface {
	FindNearbyStations(ctx context.Context, lat, lon, radiusKm float64) ([]NearbyStation, error)
	AllStations(ctx context.Context) (*Snapshot, error)
}
