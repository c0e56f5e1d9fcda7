package addrscan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single on-chain transfer touching a watched address.
type Transaction struct {
	// Hash uniquely identifies the transaction on chain.
	Hash string

	// From is the sender address.
	From string

	// To is the recipient address. Empty for contract creations.
	To string

	// Value is the transferred amount in the chain's native unit.
	Value decimal.Decimal

	// Block is the height of the block containing the transaction.
	Block int64

	// Timestamp is the block timestamp.
	Timestamp time.Time
}

// ChainReader defines read access to on-chain account state.
//
// Implementations are expected to talk to a node over JSON-RPC and may be
// wrapped in retry and rate limiting layers by the caller.
type ChainReader interface {
	// Balance returns the native-token balance of the address, converted
	// to the chain's primary denomination.
	//
	// Parameters:
	//   - ctx: context for cancellation and timeout control.
	//   - address: the account address to query.
	//
	// Returns:
	//   - The current balance.
	//   - An error if the node could not be reached or returned bad data.
	Balance(ctx context.Context, address string) (decimal.Decimal, error)

	// TransactionCount returns the number of transactions ever sent from
	// the address (the account nonce).
	TransactionCount(ctx context.Context, address string) (uint64, error)

	// LatestBlockNumber returns the height of the most recent block.
	LatestBlockNumber(ctx context.Context) (int64, error)

	// BlockTransactions returns every transaction in the block at the
	// given height.
	BlockTransactions(ctx context.Context, height int64) ([]Transaction, error)
}
