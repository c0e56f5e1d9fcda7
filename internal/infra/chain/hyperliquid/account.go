package hyperliquid

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"addresswatch/internal/addrscan"
	"addresswatch/internal/pkg/resilience"
	"addresswatch/internal/pkg/transport/jsonrpc"
	"addresswatch/internal/pkg/types"
)

// weiExponent converts wei quantities to the chain's primary denomination.
const weiExponent = -18

// latestBlockTag addresses the chain head in JSON-RPC state queries.
const latestBlockTag = "latest"

// classifyRPCError attaches a failure kind to a JSON-RPC error so the
// retry layer knows whether another attempt is worthwhile. Provider
// errors are usually missing or pruned state; everything else on this
// path is a connectivity problem.
func classifyRPCError(op string, err error) error {
	if errors.Is(err, jsonrpc.ErrProviderReturnedError) {
		return resilience.DataUnavailable(op, err)
	}
	return resilience.Transient(op, err)
}

// TransactionResponse represents a raw transaction object returned by the
// JSON-RPC API, reduced to the fields the scanner needs.
type TransactionResponse struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       types.Hex `json:"value"`
	BlockNumber types.Hex `json:"blockNumber"`
}

// BlockResponse represents a block returned by the JSON-RPC API, reduced
// to the fields the scanner needs.
type BlockResponse struct {
	Number       types.Hex             `json:"number"`
	Timestamp    types.Hex             `json:"timestamp"`
	Transactions []TransactionResponse `json:"transactions"`
}

// toScanTransaction converts a TransactionResponse to a simplified
// addrscan.Transaction, stamping it with the block timestamp.
func (t TransactionResponse) toScanTransaction(blockTime time.Time) addrscan.Transaction {
	return addrscan.Transaction{
		Hash:      t.Hash,
		From:      t.From,
		To:        t.To,
		Value:     decimal.NewFromBigInt(t.Value.BigInt(), weiExponent),
		Block:     t.BlockNumber.Int(),
		Timestamp: blockTime,
	}
}

// Balance implements the addrscan.ChainReader interface using
// eth_getBalance. The wei quantity is converted to the primary
// denomination with full precision.
func (c *client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	data, err := c.conn.Fetch(ctx, "eth_getBalance", address, latestBlockTag)
	if err != nil {
		return decimal.Zero, classifyRPCError("chain.balance", err)
	}

	var wei types.Hex
	if err := json.Unmarshal(data, &wei); err != nil {
		return decimal.Zero, resilience.Validation("chain.balance", err)
	}

	return decimal.NewFromBigInt(wei.BigInt(), weiExponent), nil
}

// TransactionCount implements the addrscan.ChainReader interface using
// eth_getTransactionCount.
func (c *client) TransactionCount(ctx context.Context, address string) (uint64, error) {
	data, err := c.conn.Fetch(ctx, "eth_getTransactionCount", address, latestBlockTag)
	if err != nil {
		return 0, classifyRPCError("chain.transaction_count", err)
	}

	var nonce types.Hex
	if err := json.Unmarshal(data, &nonce); err != nil {
		return 0, resilience.Validation("chain.transaction_count", err)
	}

	return uint64(nonce.Int()), nil
}

// LatestBlockNumber implements the addrscan.ChainReader interface using
// eth_blockNumber.
func (c *client) LatestBlockNumber(ctx context.Context) (int64, error) {
	data, err := c.conn.Fetch(ctx, "eth_blockNumber")
	if err != nil {
		return 0, classifyRPCError("chain.latest_block", err)
	}

	var number types.Hex
	if err := json.Unmarshal(data, &number); err != nil {
		return 0, resilience.Validation("chain.latest_block", err)
	}

	return number.Int(), nil
}

// BlockTransactions implements the addrscan.ChainReader interface using
// eth_getBlockByNumber with full transaction objects.
func (c *client) BlockTransactions(ctx context.Context, height int64) ([]addrscan.Transaction, error) {
	data, err := c.conn.Fetch(ctx, "eth_getBlockByNumber", types.HexFromInt(height), true)
	if err != nil {
		return nil, classifyRPCError("chain.block_transactions", err)
	}

	var block BlockResponse
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, resilience.Validation("chain.block_transactions", err)
	}

	blockTime := time.Unix(block.Timestamp.Int(), 0).UTC()

	transactions := make([]addrscan.Transaction, len(block.Transactions))
	for i, t := range block.Transactions {
		transactions[i] = t.toScanTransaction(blockTime)
	}

	return transactions, nil
}
