package chain

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
	"github.com/veristamp/veristamp/internal/worker"
)

// EsploraClient queries an esplora-style block explorer API
// (https://blockstream.info/api and https://mempool.space/api expose the
// same surface). Three read-only endpoints are used: the raw transaction,
// its confirmation status, and the current tip height.
type EsploraClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxBody    int64
	limiter    *worker.Limiter
}

// NewEsploraClient builds a client for the given endpoint. The limiter is
// shared across clients so concurrent verifications stay polite to the
// provider; nil disables throttling.
func NewEsploraClient(endpoint string, httpCfg model.HTTPConfig, limiter *worker.Limiter) *EsploraClient {
	transport := &http.Transport{
		Proxy: newProxyFunc(httpCfg),
	}
	if httpCfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &EsploraClient{
		baseURL: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout:   httpCfg.Timeout,
			Transport: transport,
		},
		userAgent: httpCfg.UserAgent,
		maxBody:   httpCfg.MaxBodyBytes,
		limiter:   limiter,
	}
}

type txStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

// FetchTransaction retrieves the raw transaction bytes, confirmation count,
// and block timestamp for the given id.
func (c *EsploraClient) FetchTransaction(ctx context.Context, id digest.Hash) (*model.ChainTransaction, error) {
	display := id.DisplayString()

	rawHex, err := c.get(ctx, "/tx/"+display+"/hex")
	if err != nil {
		return nil, err
	}
	rawBytes, err := digest.DecodeHex(strings.TrimSpace(string(rawHex)))
	if err != nil {
		return nil, fmt.Errorf("decode raw transaction: %w", err)
	}

	statusBody, err := c.get(ctx, "/tx/"+display+"/status")
	if err != nil {
		return nil, err
	}
	var status txStatus
	if err := json.Unmarshal(statusBody, &status); err != nil {
		return nil, fmt.Errorf("decode transaction status: %w", err)
	}

	tx := &model.ChainTransaction{RawBytes: rawBytes}
	if !status.Confirmed {
		return tx, nil
	}

	tipBody, err := c.get(ctx, "/blocks/tip/height")
	if err != nil {
		return nil, err
	}
	tip, err := strconv.ParseInt(strings.TrimSpace(string(tipBody)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode tip height: %w", err)
	}

	confirmations := tip - status.BlockHeight + 1
	if confirmations < 1 {
		// The tip moved backwards between calls; the block still exists.
		confirmations = 1
	}
	tx.Confirmations = confirmations

	blockTime := time.Unix(status.BlockTime, 0).UTC()
	tx.BlockTime = &blockTime

	return tx, nil
}

func (c *EsploraClient) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnreachable, resp.StatusCode)
	}

	maxBody := c.maxBody
	if maxBody <= 0 {
		maxBody = 2_000_000
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	return body, nil
}
