package addrscan

import (
	"context"
	"encoding/json"
)

// ExchangeReader defines read access to off-chain account state held by
// the exchange, such as perp positions and withdrawable balance.
//
// The payload is kept opaque: it is stored alongside the snapshot and
// rendered into notifications without the scanner interpreting it.
type ExchangeReader interface {
	// UserState returns the exchange-side account state for the address
	// as a raw JSON document.
	//
	// Parameters:
	//   - ctx: context for cancellation and timeout control.
	//   - address: the account address to query.
	//
	// Returns:
	//   - The raw state document.
	//   - An error if the exchange API could not be reached.
	UserState(ctx context.Context, address string) (json.RawMessage, error)

	// UserFills returns the account's recent exchange fills as a raw
	// JSON document.
	//
	// Parameters:
	//   - ctx: context for cancellation and timeout control.
	//   - address: the account address to query.
	//
	// Returns:
	//   - The raw fills document.
	//   - An error if the exchange API could not be reached.
	UserFills(ctx context.Context, address string) (json.RawMessage, error)
}
