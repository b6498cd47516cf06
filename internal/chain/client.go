// Package chain fetches transactions from a chain query provider. The core
// pipeline only sees the Client interface; any esplora-style block explorer
// API satisfies it, and the decorators in this package add rate limiting
// and caching without the pipeline knowing.
package chain

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
)

var (
	// ErrNotFound means the provider does not know the transaction.
	ErrNotFound = errors.New("transaction not found on the blockchain")
	// ErrUnreachable means the provider could not be queried at all.
	ErrUnreachable = errors.New("chain API unreachable")
	// ErrRateLimited means the provider refused the request for volume.
	ErrRateLimited = errors.New("chain API rate limited")
)

// Client fetches a transaction by id. Implementations are read-only and
// side-effect free, so a caller may always safely re-invoke after a
// failure.
type Client interface {
	FetchTransaction(ctx context.Context, id digest.Hash) (*model.ChainTransaction, error)
}

// newProxyFunc builds the transport proxy resolver: explicit configuration
// wins, environment variables fill the gaps.
func newProxyFunc(cfg model.HTTPConfig) func(*http.Request) (*url.URL, error) {
	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && cfg.HTTPSProxy != "" {
			return url.Parse(cfg.HTTPSProxy)
		}
		if cfg.HTTPProxy != "" {
			return url.Parse(cfg.HTTPProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
