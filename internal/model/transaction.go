package model

import "time"

// ChainTransaction is the read-only view of an on-chain transaction as
// returned by a chain query provider. Verification never mutates it.
type ChainTransaction struct {
	// RawBytes is the serialized transaction exactly as mined.
	RawBytes []byte

	// Confirmations counts blocks mined atop the containing block,
	// inclusive. Zero while the transaction sits in the mempool.
	Confirmations int64

	// BlockTime is the timestamp of the containing block, nil while
	// unconfirmed.
	BlockTime *time.Time
}
