package tdx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bikenearby/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	stationPath      = "/api/basic/v2/Bike/Station/City/"
	availabilityPath = "/api/basic/v2/Bike/Availability/City/"
)

// Client fetches per-city bike data from TDX. Pacing and retries come from
// the underlying HTTP client.
type Client struct {
	httpClient client.Interface
}

func NewClient(httpClient client.Interface) *Client {
	return &Client{httpClient: httpClient}
}

func (c *Client) FetchStations(ctx context.Context, token, region string) ([]RawStation, error) {
	var stations []RawStation
	if err := c.fetch(ctx, token, stationPath, region, &stations); err != nil {
		return nil, err
	}
	log.Debug().Str("region", region).Int("station_count", len(stations)).Msg("Fetched TDX stations")
	return stations, nil
}

func (c *Client) FetchAvailability(ctx context.Context, token, region string) ([]RawAvailability, error) {
	var availability []RawAvailability
	if err := c.fetch(ctx, token, availabilityPath, region, &availability); err != nil {
		return nil, err
	}
	log.Debug().Str("region", region).Int("record_count", len(availability)).Msg("Fetched TDX availability")
	return availability, nil
}

func (c *Client) fetch(ctx context.Context, token, basePath, region string, out interface{}) error {
	path := basePath + url.PathEscape(region) + "?%24format=JSON"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Accept", "application/json")

	resp, err := c.httpClient.Get(ctx, path, header)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	if resp == nil {
		return fmt.Errorf("no response from TDX for %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return newStatusError(basePath+region, resp.StatusCode, resp.Body)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding response for %s: %w", region, err)
	}
	return nil
}
