// Package addrscan periodically observes watched addresses, diffs their
// state against the previous scan, and hands detected activity to a
// notifier.
package addrscan

import (
	"context"
	"errors"
	"sync"
	"time"

	"addresswatch/internal/pkg/logger"
	"addresswatch/internal/pkg/resilience/breaker"
	"addresswatch/internal/pkg/resilience/ratelimit"
	"addresswatch/internal/pkg/resilience/retry"
)

const (
	// defaultScanWindow is how many blocks back the snapshot fetch looks
	// for the address's newest transaction.
	defaultScanWindow = 10

	// defaultDetectionLookback is how many blocks back new-transaction
	// resolution scans once a count change is detected. It is deeper than
	// the scan window so activity between scans is not missed.
	defaultDetectionLookback = 20

	// defaultScanInterval spaces scans of an address when its watchers
	// have not chosen an interval.
	defaultScanInterval = time.Minute

	// defaultCallsPerSecond caps outbound provider calls.
	defaultCallsPerSecond = 2
)

// Watch binds a user to an address they want monitored.
type Watch struct {
	// UserID identifies the user to notify about activity.
	UserID int64

	// Address is the account being watched.
	Address string

	// Interval is the user's chosen scan spacing. Zero means the
	// service default applies.
	Interval time.Duration
}

// WatchProvider lists the currently active watches.
type WatchProvider interface {
	// ListWatches returns every active user/address pair.
	ListWatches(ctx context.Context) ([]Watch, error)
}

// ChangeNotifier receives detected activity for delivery to a user.
//
// Implementations typically format the changes into messages and queue
// them for asynchronous dispatch.
type ChangeNotifier interface {
	// NotifyChanges is invoked once per watcher whenever a scan detects
	// activity on an address they watch.
	NotifyChanges(ctx context.Context, userID int64, changes []Change) error
}

// Service scans watched addresses and reports detected activity.
type Service interface {
	// FetchSnapshot assembles the current observed state of an address.
	FetchSnapshot(ctx context.Context, address string) (Snapshot, error)

	// FetchRecentTransactions lists transactions involving the address
	// within lookbackBlocks of the chain head, newest first. The walk
	// stops early once limit matches are collected; a non-positive limit
	// means no cap.
	FetchRecentTransactions(ctx context.Context, address string, lookbackBlocks int64, limit int) ([]Transaction, error)

	// RunCycle scans every watched address that is due and notifies
	// watchers about detected changes. A failure on one address is
	// logged and does not abort the rest of the cycle.
	RunCycle(ctx context.Context) error

	// ForceScan scans a single address immediately, ignoring interval
	// gating, and returns the detected changes. Watchers of the address
	// are notified as in a regular cycle.
	ForceScan(ctx context.Context, address string) ([]Change, error)

	// Stats returns a copy of the aggregate scan counters.
	Stats() CycleStats
}

// CycleStats aggregates scan outcomes across the service's lifetime.
type CycleStats struct {
	// TotalScans counts completed address scans, forced scans included.
	TotalScans uint64

	// AddressesWithChanges counts scans that detected at least one change.
	AddressesWithChanges uint64

	// ScanErrors counts scans that failed before a new baseline was stored.
	ScanErrors uint64

	// LastCycle is when RunCycle last finished.
	LastCycle time.Time
}

type service struct {
	chain    ChainReader
	exchange ExchangeReader
	storage  SnapshotStorage
	watches  WatchProvider
	notifier ChangeNotifier

	limiter *ratelimit.Limiter
	caller  *retry.Caller
	breaker *breaker.Breaker

	scanWindow        int64
	detectionLookback int64
	scanInterval      time.Duration

	statsMu sync.Mutex
	stats   CycleStats
}

var _ Service = (*service)(nil)

type config struct {
	limiter           *ratelimit.Limiter
	retryPolicy       retry.Policy
	breaker           *breaker.Breaker
	scanWindow        int64
	detectionLookback int64
	scanInterval      time.Duration
}

// Option configures the scan service.
type Option func(*config)

// WithRateLimiter replaces the default provider rate limiter.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *config) {
		c.limiter = l
	}
}

// WithRetryPolicy sets the retry policy applied to provider calls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *config) {
		c.retryPolicy = p
	}
}

// WithBreaker replaces the circuit breaker guarding provider calls.
func WithBreaker(b *breaker.Breaker) Option {
	return func(c *config) {
		c.breaker = b
	}
}

// WithScanWindow sets how many blocks the snapshot fetch looks back.
func WithScanWindow(blocks int64) Option {
	return func(c *config) {
		c.scanWindow = blocks
	}
}

// WithDetectionLookback sets how many blocks new-transaction resolution scans.
func WithDetectionLookback(blocks int64) Option {
	return func(c *config) {
		c.detectionLookback = blocks
	}
}

// WithDefaultScanInterval sets the scan spacing for watchers without one.
func WithDefaultScanInterval(d time.Duration) Option {
	return func(c *config) {
		c.scanInterval = d
	}
}

// New creates the scan service with the given collaborators, applying any
// provided options.
func New(chain ChainReader, exchange ExchangeReader, storage SnapshotStorage, watches WatchProvider, notifier ChangeNotifier, opts ...Option) *service {
	cfg := config{
		limiter:           ratelimit.New(defaultCallsPerSecond),
		retryPolicy:       retry.NetworkPolicy,
		breaker:           breaker.New("provider"),
		scanWindow:        defaultScanWindow,
		detectionLookback: defaultDetectionLookback,
		scanInterval:      defaultScanInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		chain:             chain,
		exchange:          exchange,
		storage:           storage,
		watches:           watches,
		notifier:          notifier,
		limiter:           cfg.limiter,
		caller:            retry.NewCaller(cfg.retryPolicy),
		breaker:           cfg.breaker,
		scanWindow:        cfg.scanWindow,
		detectionLookback: cfg.detectionLookback,
		scanInterval:      cfg.scanInterval,
	}
}

// previousSnapshot loads the stored snapshot for an address. A missing
// snapshot is not an error: it means this is the address's first scan.
func (s *service) previousSnapshot(ctx context.Context, address string) (*Snapshot, error) {
	snap, err := s.storage.GetSnapshot(ctx, address)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// scanAddress fetches the address's current state, diffs it against the
// previous snapshot, and persists the new baseline. New-transaction
// resolution is only attempted when the transaction count moved; if that
// deeper scan fails, the count change still updates the baseline and the
// individual transactions go unreported.
func (s *service) scanAddress(ctx context.Context, address string, prev *Snapshot) ([]Change, error) {
	curr, err := s.FetchSnapshot(ctx, address)
	if err != nil {
		return nil, err
	}

	var recent []Transaction
	if prev != nil && prev.TransactionCount != curr.TransactionCount {
		// One extra entry so the anchor hash can still be found when the
		// cap's worth of new transactions sits in front of it.
		recent, err = s.FetchRecentTransactions(ctx, address, s.detectionLookback, maxTrackedNewTransactions+1)
		if err != nil {
			logger.Warn(ctx, "recent transaction lookup failed, reporting count change only",
				"address", address,
				"error", err,
			)
			recent = nil
		}
	}

	changes := DetectChanges(prev, curr, recent)

	if err := s.storage.PutSnapshot(ctx, curr); err != nil {
		return nil, err
	}

	return changes, nil
}

// watchersByAddress groups active watches so each address is scanned at
// most once per cycle, regardless of how many users watch it.
func (s *service) watchersByAddress(ctx context.Context) (map[string][]Watch, error) {
	watches, err := s.watches.ListWatches(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]Watch)
	for _, w := range watches {
		grouped[w.Address] = append(grouped[w.Address], w)
	}
	return grouped, nil
}

// scanDue reports whether the address is due for a scan. An address is due
// when any of its watchers' intervals has elapsed since the last scan.
func (s *service) scanDue(prev *Snapshot, watchers []Watch) bool {
	if prev == nil {
		return true
	}

	elapsed := time.Since(prev.ScanTime)
	for _, w := range watchers {
		interval := w.Interval
		if interval <= 0 {
			interval = s.scanInterval
		}
		if elapsed >= interval {
			return true
		}
	}
	return false
}

// notifyWatchers fans detected changes out to every watcher of the address.
// Delivery failures are logged per user so one broken recipient does not
// block the others.
func (s *service) notifyWatchers(ctx context.Context, watchers []Watch, changes []Change) {
	if len(changes) == 0 {
		return
	}

	for _, w := range watchers {
		if err := s.notifier.NotifyChanges(ctx, w.UserID, changes); err != nil {
			logger.Error(ctx, "failed to notify watcher",
				"user_id", w.UserID,
				"address", w.Address,
				"error", err,
			)
		}
	}
}

// scanAndNotify runs one address's full scan pass: gate on the interval,
// scan, record the outcome, and fan changes out to the watchers.
func (s *service) scanAndNotify(ctx context.Context, address string, watchers []Watch) {
	prev, err := s.previousSnapshot(ctx, address)
	if err != nil {
		logger.Error(ctx, "failed to load previous snapshot", "address", address, "error", err)
		s.recordScan(nil, err)
		return
	}

	if !s.scanDue(prev, watchers) {
		return
	}

	changes, err := s.scanAddress(ctx, address, prev)
	if err != nil {
		logger.Error(ctx, "address scan failed", "address", address, "error", err)
		s.recordScan(nil, err)
		return
	}
	s.recordScan(changes, nil)

	logger.Debug(ctx, "address scanned", "address", address, "changes", len(changes))
	s.notifyWatchers(ctx, watchers, changes)
}

func (s *service) RunCycle(ctx context.Context) error {
	grouped, err := s.watchersByAddress(ctx)
	if err != nil {
		return err
	}

	// Scans run concurrently per address; the shared rate limiter keeps
	// the fan-out from exceeding the provider quota.
	var wg sync.WaitGroup
	for address, watchers := range grouped {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(address string, watchers []Watch) {
			defer wg.Done()
			s.scanAndNotify(ctx, address, watchers)
		}(address, watchers)
	}
	wg.Wait()

	s.statsMu.Lock()
	s.stats.LastCycle = time.Now().UTC()
	s.statsMu.Unlock()

	return ctx.Err()
}

func (s *service) ForceScan(ctx context.Context, address string) ([]Change, error) {
	prev, err := s.previousSnapshot(ctx, address)
	if err != nil {
		return nil, err
	}

	changes, err := s.scanAddress(ctx, address, prev)
	if err != nil {
		s.recordScan(nil, err)
		return nil, err
	}
	s.recordScan(changes, nil)

	grouped, err := s.watchersByAddress(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list watchers for forced scan", "address", address, "error", err)
		return changes, nil
	}

	s.notifyWatchers(ctx, grouped[address], changes)
	return changes, nil
}

// recordScan folds one scan outcome into the aggregate counters.
func (s *service) recordScan(changes []Change, err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	if err != nil {
		s.stats.ScanErrors++
		return
	}

	s.stats.TotalScans++
	if len(changes) > 0 {
		s.stats.AddressesWithChanges++
	}
}

func (s *service) Stats() CycleStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}
