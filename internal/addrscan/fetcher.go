package addrscan

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"addresswatch/internal/pkg/logger"
	"addresswatch/internal/pkg/resilience"
	"addresswatch/internal/pkg/resilience/breaker"
	"addresswatch/internal/pkg/x/chflow"
)

// fetchResult carries the outcome of one concurrent sub-fetch. On success,
// apply folds the fetched value into the snapshot being assembled.
type fetchResult struct {
	part  string
	apply func(*Snapshot)
	err   error
}

// guarded runs fn under the service's circuit breaker, rate limiter, and
// retry policy. The breaker sees one outcome per guarded call, after
// retries are exhausted, so a provider that recovers within the retry
// budget never counts against it. The limiter gates every attempt, so
// retries never burst past the provider quota. An open breaker reports
// the data as unavailable, which degrades the affected field rather than
// retrying against a dependency known to be down.
func (s *service) guarded(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.caller.Do(ctx, op, func(ctx context.Context) error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			return fn(ctx)
		})
	})
	if errors.Is(err, breaker.ErrOpen) {
		return resilience.DataUnavailable(op, err)
	}
	return err
}

// FetchSnapshot assembles the current state of an address by querying the
// chain and the exchange concurrently.
//
// Five sub-fetches run in parallel: native balance, transaction count, the
// newest transaction within the scan window, the exchange user state, and
// the exchange fills.
// A sub-fetch that still fails after retries leaves its field at the zero
// default instead of failing the whole snapshot, so a flaky provider
// degrades a scan rather than aborting it. Only context cancellation makes
// FetchSnapshot return an error.
func (s *service) FetchSnapshot(ctx context.Context, address string) (Snapshot, error) {
	snap := Snapshot{Address: address}

	const parts = 5
	resultCh := make(chan fetchResult, parts)

	go func() {
		var balance decimal.Decimal
		err := s.guarded(ctx, "chain.balance", func(ctx context.Context) error {
			b, err := s.chain.Balance(ctx, address)
			if err != nil {
				return err
			}
			balance = b
			return nil
		})
		chflow.Send(ctx, resultCh, fetchResult{
			part:  "balance",
			apply: func(snap *Snapshot) { snap.Balance = balance },
			err:   err,
		})
	}()

	go func() {
		var count uint64
		err := s.guarded(ctx, "chain.transaction_count", func(ctx context.Context) error {
			c, err := s.chain.TransactionCount(ctx, address)
			if err != nil {
				return err
			}
			count = c
			return nil
		})
		chflow.Send(ctx, resultCh, fetchResult{
			part:  "transaction_count",
			apply: func(snap *Snapshot) { snap.TransactionCount = count },
			err:   err,
		})
	}()

	go func() {
		lastTx, err := s.newestTransaction(ctx, address)
		chflow.Send(ctx, resultCh, fetchResult{
			part:  "last_transaction",
			apply: func(snap *Snapshot) { snap.LastTx = lastTx },
			err:   err,
		})
	}()

	go func() {
		var state json.RawMessage
		err := s.guarded(ctx, "exchange.user_state", func(ctx context.Context) error {
			st, err := s.exchange.UserState(ctx, address)
			if err != nil {
				return err
			}
			state = st
			return nil
		})
		chflow.Send(ctx, resultCh, fetchResult{
			part: "user_state",
			apply: func(snap *Snapshot) {
				if state != nil {
					snap.setAuxiliary("user_state", state)
				}
			},
			err: err,
		})
	}()

	go func() {
		var fills json.RawMessage
		err := s.guarded(ctx, "exchange.user_fills", func(ctx context.Context) error {
			f, err := s.exchange.UserFills(ctx, address)
			if err != nil {
				return err
			}
			fills = f
			return nil
		})
		chflow.Send(ctx, resultCh, fetchResult{
			part: "user_fills",
			apply: func(snap *Snapshot) {
				if fills != nil {
					snap.setAuxiliary("user_fills", fills)
				}
			},
			err: err,
		})
	}()

	results, ok := chflow.Gather(ctx, resultCh, parts)
	if !ok {
		return Snapshot{}, ctx.Err()
	}

	for _, res := range results {
		if res.err != nil {
			logger.Warn(ctx, "snapshot sub-fetch failed, using default value",
				"address", address,
				"part", res.part,
				"error", res.err,
			)
			continue
		}

		res.apply(&snap)
	}

	snap.ScanTime = time.Now().UTC()
	return snap, nil
}

// newestTransaction walks backwards from the chain head looking for the
// most recent transaction involving the address, giving up after the
// configured scan window.
func (s *service) newestTransaction(ctx context.Context, address string) (*TxRef, error) {
	var latest int64
	err := s.guarded(ctx, "chain.latest_block", func(ctx context.Context) error {
		h, err := s.chain.LatestBlockNumber(ctx)
		if err != nil {
			return err
		}
		latest = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	floor := latest - s.scanWindow
	if floor < 0 {
		floor = 0
	}

	for height := latest; height > floor; height-- {
		txs, err := s.blockTransactions(ctx, height)
		if err != nil {
			return nil, err
		}

		// Transactions within a block are ordered by index, so the last
		// match in the highest block is the newest.
		for i := len(txs) - 1; i >= 0; i-- {
			if classify(address, txs[i]) == TxDirectionUnknown {
				continue
			}
			return &TxRef{
				Hash:      txs[i].Hash,
				Block:     txs[i].Block,
				Timestamp: txs[i].Timestamp,
			}, nil
		}
	}

	return nil, nil
}

// FetchRecentTransactions collects transactions involving the address
// within lookbackBlocks of the chain head, newest first. The backward walk
// stops as soon as limit matches are found, so callers that only need a
// handful of transactions do not pay for the full window.
func (s *service) FetchRecentTransactions(ctx context.Context, address string, lookbackBlocks int64, limit int) ([]Transaction, error) {
	var latest int64
	err := s.guarded(ctx, "chain.latest_block", func(ctx context.Context) error {
		h, err := s.chain.LatestBlockNumber(ctx)
		if err != nil {
			return err
		}
		latest = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	floor := latest - lookbackBlocks
	if floor < 0 {
		floor = 0
	}

	var matches []Transaction
	for height := latest; height > floor; height-- {
		txs, err := s.blockTransactions(ctx, height)
		if err != nil {
			return nil, err
		}

		for i := len(txs) - 1; i >= 0; i-- {
			if classify(address, txs[i]) == TxDirectionUnknown {
				continue
			}

			matches = append(matches, txs[i])
			if limit > 0 && len(matches) == limit {
				return matches, nil
			}
		}
	}

	return matches, nil
}

// blockTransactions fetches one block's transactions under the rate limiter
// and retry policy.
func (s *service) blockTransactions(ctx context.Context, height int64) ([]Transaction, error) {
	var txs []Transaction
	err := s.guarded(ctx, "chain.block_transactions", func(ctx context.Context) error {
		t, err := s.chain.BlockTransactions(ctx, height)
		if err != nil {
			return err
		}
		txs = t
		return nil
	})
	return txs, err
}
