package addrscan

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxTrackedNewTransactions bounds how many newly observed transactions are
// reported per scan. Bursts beyond this are summarized by the count change
// rather than listed individually.
const maxTrackedNewTransactions = 5

// TxDirection classifies a transaction relative to the watched address.
type TxDirection uint8

const (
	// TxDirectionUnknown means the address appears in neither field,
	// which can happen for internal or contract-mediated transfers.
	TxDirectionUnknown TxDirection = iota
	// TxDirectionOutgoing means the watched address is the sender.
	TxDirectionOutgoing
	// TxDirectionIncoming means the watched address is the recipient.
	TxDirectionIncoming
)

// String returns a human-readable label for the direction.
func (d TxDirection) String() string {
	switch d {
	case TxDirectionOutgoing:
		return "transfer"
	case TxDirectionIncoming:
		return "receive"
	default:
		return "unknown"
	}
}

// ClassifiedTransaction pairs a transaction with its direction relative
// to the watched address.
type ClassifiedTransaction struct {
	Transaction
	Direction TxDirection
}

// ChangeType identifies what kind of activity a Change describes.
type ChangeType uint8

const (
	// ChangeTypeInitial reports the first observation of an address.
	ChangeTypeInitial ChangeType = iota + 1
	// ChangeTypeBalance reports a balance difference between scans.
	ChangeTypeBalance
	// ChangeTypeTransaction reports one newly observed transaction.
	ChangeTypeTransaction
)

// Change is a single detected difference between two consecutive snapshots
// of an address. Initial changes carry the observed balance and count,
// balance changes carry the old and new values, transaction changes carry
// the classified transaction.
type Change struct {
	Type    ChangeType
	Address string

	// Balance change fields. NewBalance also holds the first observed
	// balance on initial changes.
	OldBalance decimal.Decimal
	NewBalance decimal.Decimal

	// TransactionCount is the first observed count on initial changes.
	TransactionCount uint64

	// Transaction change field.
	Tx *ClassifiedTransaction
}

// classify determines a transaction's direction relative to the address.
// Address comparison is case-insensitive since EVM addresses are hex.
func classify(address string, tx Transaction) TxDirection {
	switch {
	case strings.EqualFold(tx.From, address):
		return TxDirectionOutgoing
	case strings.EqualFold(tx.To, address):
		return TxDirectionIncoming
	default:
		return TxDirectionUnknown
	}
}

// resolveNewTransactions walks recent transactions newest-first and collects
// those that happened after the previously anchored transaction. The walk
// stops at the anchor hash or after maxTrackedNewTransactions entries,
// whichever comes first. With no anchor, the newest entries up to the cap
// are taken.
func resolveNewTransactions(prev *Snapshot, recent []Transaction) []Transaction {
	var anchor string
	if prev != nil && prev.LastTx != nil {
		anchor = prev.LastTx.Hash
	}

	collected := make([]Transaction, 0, maxTrackedNewTransactions)
	for _, tx := range recent {
		if tx.Hash == anchor {
			break
		}

		collected = append(collected, tx)
		if len(collected) == maxTrackedNewTransactions {
			break
		}
	}

	return collected
}

// DetectChanges diffs two consecutive snapshots of the same address and
// returns the detected activity.
//
// The first scan of an address has no previous snapshot and yields exactly
// one initial change carrying the observed state. Balance differences yield
// a single balance change. A transaction count difference resolves newly
// observed transactions from the recent list (expected newest-first) and
// yields one change per transaction, classified by direction and reported
// oldest first, always after the balance change.
func DetectChanges(prev *Snapshot, curr Snapshot, recent []Transaction) []Change {
	if prev == nil {
		return []Change{{
			Type:             ChangeTypeInitial,
			Address:          curr.Address,
			NewBalance:       curr.Balance,
			TransactionCount: curr.TransactionCount,
		}}
	}

	var changes []Change

	if !prev.Balance.Equal(curr.Balance) {
		changes = append(changes, Change{
			Type:       ChangeTypeBalance,
			Address:    curr.Address,
			OldBalance: prev.Balance,
			NewBalance: curr.Balance,
		})
	}

	if prev.TransactionCount != curr.TransactionCount {
		resolved := resolveNewTransactions(prev, recent)
		for i := len(resolved) - 1; i >= 0; i-- {
			classified := ClassifiedTransaction{
				Transaction: resolved[i],
				Direction:   classify(curr.Address, resolved[i]),
			}
			changes = append(changes, Change{
				Type:    ChangeTypeTransaction,
				Address: curr.Address,
				Tx:      &classified,
			})
		}
	}

	return changes
}
