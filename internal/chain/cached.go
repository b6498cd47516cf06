package chain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/veristamp/veristamp/internal/cache"
	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
)

// CachedClient wraps another Client with a transaction cache. Entries keep
// the raw transaction as hex so a cached certificate can be re-audited
// without network access. Unconfirmed transactions are never cached; their
// confirmation count is about to change.
type CachedClient struct {
	inner Client
	store cache.Cache
	ttl   time.Duration
}

// NewCachedClient wraps inner with the given cache store.
func NewCachedClient(inner Client, store cache.Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		inner: inner,
		store: store,
		ttl:   ttl,
	}
}

type cachedTransaction struct {
	RawHex        string     `json:"raw_hex"`
	Confirmations int64      `json:"confirmations"`
	BlockTime     *time.Time `json:"block_time,omitempty"`
}

// FetchTransaction serves from cache when possible and falls through to the
// wrapped client otherwise.
func (c *CachedClient) FetchTransaction(ctx context.Context, id digest.Hash) (*model.ChainTransaction, error) {
	key := id.DisplayString()

	if data, found := c.store.Get(key); found {
		var entry cachedTransaction
		if err := json.Unmarshal(data, &entry); err == nil {
			if raw, err := digest.DecodeHex(entry.RawHex); err == nil {
				return &model.ChainTransaction{
					RawBytes:      raw,
					Confirmations: entry.Confirmations,
					BlockTime:     entry.BlockTime,
				}, nil
			}
		}
		// Corrupt entry: drop it and refetch.
		_ = c.store.Delete(key)
	}

	tx, err := c.inner.FetchTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.Confirmations > 0 {
		entry := cachedTransaction{
			RawHex:        digest.EncodeHex(tx.RawBytes),
			Confirmations: tx.Confirmations,
			BlockTime:     tx.BlockTime,
		}
		if data, err := json.Marshal(entry); err == nil {
			_ = c.store.Set(key, data, c.ttl)
		}
	}

	return tx, nil
}
