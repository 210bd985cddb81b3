package refresh

import (
	"github.com/bikenearby/backend-go/internal/config"
	"github.com/bikenearby/backend-go/internal/tdx"
	"github.com/bikenearby/backend-go/pkg/http/client"
)

// NewFromConfig builds a Refresher backed by the TDX API described by cfg.
func NewFromConfig(cfg *config.Config, store Publisher) *Refresher {
	// Token requests go to an absolute URL and are not paced with data calls.
	authClient := client.New(client.Options{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
	})
	dataClient := client.New(client.Options{
		BaseURL:           cfg.TDXBaseURL,
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerSecond: cfg.TDXRequestsPerSecond,
	})

	tokens := tdx.NewTokenSource(authClient, cfg.TDXTokenURL, cfg.TDXClientID, cfg.TDXClientSecret)
	tdxClient := tdx.NewClient(dataClient)

	return New(tokens, tdxClient, tdxClient, store,
		WithRegions(cfg.Regions),
		WithInterval(cfg.RefreshInterval),
		WithRegionTimeout(cfg.RegionTimeout),
	)
}
