package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/auth"
	"github.com/rickgao/kalshi-tennis/internal/config"
)

// NewFromConfig builds a client from the api section. Requests are signed
// when credentials are configured.
func NewFromConfig(cfg config.APIConfig, logger *slog.Logger) (*Client, error) {
	opts := []ClientOption{
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.MaxRetries, time.Second),
		WithRateLimit(cfg.RateLimit, 1),
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if cfg.HasCredentials() {
		creds, err := auth.LoadCredentials(cfg.APIKey, cfg.PrivateKeyPath, cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load api credentials: %w", err)
		}
		opts = append(opts, WithSigner(creds))
	}
	return NewClient(cfg.RestURL, opts...), nil
}
