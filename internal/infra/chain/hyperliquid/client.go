// Package hyperliquid implements the addrscan.ChainReader interface for
// the Hyperliquid EVM using a JSON-RPC client.
package hyperliquid

import (
	"addresswatch/internal/addrscan"
	"addresswatch/internal/pkg/transport/jsonrpc"
)

// client implements the addrscan.ChainReader interface. It communicates
// with a Hyperliquid EVM node via a JSON-RPC client.
type client struct {
	conn jsonrpc.Client
}

// Ensure client implements the addrscan.ChainReader interface at compile time.
var _ addrscan.ChainReader = (*client)(nil)

// NewClient creates a new chain reader using the provided JSON-RPC
// connection.
func NewClient(conn jsonrpc.Client) *client {
	return &client{
		conn: conn,
	}
}
