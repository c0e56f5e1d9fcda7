package addrscan

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSnapshotNotFound is returned by SnapshotStorage when no snapshot has
// been stored for the address yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// TxRef points at the most recent transaction observed for an address.
// It anchors new-transaction detection on the next scan.
type TxRef struct {
	Hash      string    `json:"hash"`
	Block     int64     `json:"block"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the full observed state of an address at one point in time.
// Consecutive snapshots of the same address are diffed to detect activity.
type Snapshot struct {
	// Address is the account the snapshot belongs to.
	Address string `json:"address"`

	// Balance is the native-token balance at scan time.
	Balance decimal.Decimal `json:"balance"`

	// TransactionCount is the account nonce at scan time.
	TransactionCount uint64 `json:"transaction_count"`

	// LastTx references the newest transaction seen within the scan
	// window, or nil if none was found.
	LastTx *TxRef `json:"last_tx,omitempty"`

	// Auxiliary carries opaque provider-specific state, keyed by source.
	// The exchange documents live under "user_state" and "user_fills".
	Auxiliary map[string]json.RawMessage `json:"auxiliary,omitempty"`

	// ScanTime is when the snapshot was taken. It gates the next scan.
	ScanTime time.Time `json:"scan_time"`
}

// setAuxiliary stores one opaque provider document, allocating the map on
// first use.
func (s *Snapshot) setAuxiliary(key string, doc json.RawMessage) {
	if s.Auxiliary == nil {
		s.Auxiliary = make(map[string]json.RawMessage)
	}
	s.Auxiliary[key] = doc
}

// SnapshotStorage defines the persistence contract for address snapshots.
type SnapshotStorage interface {
	// GetSnapshot loads the stored snapshot for the address.
	//
	// Returns:
	//   - The snapshot, if one exists.
	//   - ErrSnapshotNotFound if the address has never been scanned.
	//   - Any other error if the lookup fails.
	GetSnapshot(ctx context.Context, address string) (Snapshot, error)

	// PutSnapshot stores the snapshot, replacing any previous one for
	// the same address.
	PutSnapshot(ctx context.Context, snapshot Snapshot) error
}
