package refresh

import (
	"errors"
	"fmt"
)

// ErrCycleInProgress is returned by RefreshNow when another cycle is running.
var ErrCycleInProgress = errors.New("refresh cycle already in progress")

// AuthError aborts a whole cycle: no region is fetched and nothing is
// published.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("TDX authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func NewAuthError(err error) *AuthError {
	return &AuthError{Err: err}
}

// RegionFetchError reports a region skipped for one cycle.
type RegionFetchError struct {
	Region string
	Err    error
}

func (e *RegionFetchError) Error() string {
	return fmt.Sprintf("fetching region %s: %v", e.Region, e.Err)
}

func (e *RegionFetchError) Unwrap() error {
	return e.Err
}

func NewRegionFetchError(region string, err error) *RegionFetchError {
	return &RegionFetchError{
		Region: region,
		Err:    err,
	}
}

// NoRegionsError means every region failed, so the cycle published nothing.
type NoRegionsError struct {
	Errs []error
}

func (e *NoRegionsError) Error() string {
	return fmt.Sprintf("no region fetched successfully: %v", errors.Join(e.Errs...))
}

func (e *NoRegionsError) Unwrap() []error {
	return e.Errs
}
