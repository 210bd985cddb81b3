package models

import (
	"fmt"
	"time"
)

// Snapshot is one fully merged, immutable view of all stations. It is never
// mutated after NewSnapshot returns; refreshes build a replacement instead.
type Snapshot struct {
	version   uint64
	createdAt time.Time
	regions   []string
	stations  []Station
	byRegion  map[string][]int
}

// NewSnapshot copies stations and regions into a new snapshot. Stations
// must carry unique UIDs and valid coordinates.
func NewSnapshot(version uint64, createdAt time.Time, regions []string, stations []Station) (*Snapshot, error) {
	s := &Snapshot{
		version:   version,
		createdAt: createdAt,
		regions:   append([]string(nil), regions...),
		stations:  make([]Station, len(stations)),
		byRegion:  make(map[string][]int),
	}

	seen := make(map[string]struct{}, len(stations))
	for i, st := range stations {
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("invalid station at index %d: %w", i, err)
		}
		if _, dup := seen[st.UID]; dup {
			return nil, fmt.Errorf("duplicate station uid: %s", st.UID)
		}
		seen[st.UID] = struct{}{}

		s.stations[i] = st
		s.byRegion[st.Region] = append(s.byRegion[st.Region], i)
	}

	return s, nil
}

// Version is the refresh sequence number. Later snapshots have higher
// versions.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// CreatedAt is when the refresh that produced the snapshot finished merging.
func (s *Snapshot) CreatedAt() time.Time {
	return s.createdAt
}

// Regions lists the regions the snapshot covers.
func (s *Snapshot) Regions() []string {
	return append([]string(nil), s.regions...)
}

// Len returns the number of stations.
func (s *Snapshot) Len() int {
	return len(s.stations)
}

// At returns the station at position i in snapshot order.
func (s *Snapshot) At(i int) Station {
	return s.stations[i]
}

// Stations returns a copy of all stations in snapshot order.
func (s *Snapshot) Stations() []Station {
	result := make([]Station, len(s.stations))
	copy(result, s.stations)
	return result
}

// StationsInRegion returns a copy of the stations fetched for region, in
// snapshot order.
func (s *Snapshot) StationsInRegion(region string) []Station {
	positions := s.byRegion[region]
	result := make([]Station, len(positions))
	for i, pos := range positions {
		result[i] = s.stations[pos]
	}
	return result
}
