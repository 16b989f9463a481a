package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
)

// epochFloor is the checkpoint date used when nothing has been settled yet.
var epochFloor = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// BalanceService derives the cash balance from the ledger.
type BalanceService struct {
	store   repositories.Store
	cache   *ristretto.Cache
	gen     atomic.Uint64
	metrics MetricsRecorderInterface
}

// balanceCacheTTL bounds how long a memoized balance may be served.
const balanceCacheTTL = time.Minute

// NewBalanceService creates the balance engine. With cacheEnabled the current
// balance is memoized per ledger version, so writes from other processes
// sharing the database are picked up on the next read.
func NewBalanceService(store repositories.Store, metrics MetricsRecorderInterface, cacheEnabled bool) (*BalanceService, error) {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}

	s := &BalanceService{
		store:   store,
		metrics: metrics,
	}

	if cacheEnabled {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1000, // number of keys to track frequency of
			MaxCost:     100,
			BufferItems: 64, // number of keys per Get buffer
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize balance cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

func (s *BalanceService) cacheKey(gen uint64, version models.LedgerVersion) string {
	return fmt.Sprintf("balance:current:%d:%s", gen, version)
}

// CurrentBalance is the latest checkpoint plus every income and expenditure
// dated after the period it covers.
func (s *BalanceService) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	if s.cache == nil {
		return s.computeCurrentBalance(ctx)
	}

	gen := s.gen.Load()
	version, err := s.store.Transactions().Version(ctx)
	if err != nil {
		return decimal.Zero, storageErr("current balance", err)
	}

	key := s.cacheKey(gen, version)
	if v, ok := s.cache.Get(key); ok {
		s.metrics.IncrementCounter(metricBalanceCache, map[string]string{"result": "hit"})
		return v.(decimal.Decimal), nil
	}
	s.metrics.IncrementCounter(metricBalanceCache, map[string]string{"result": "miss"})

	balance, err := s.computeCurrentBalance(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	// only memoize when no write landed while the sums were read
	after, err := s.store.Transactions().Version(ctx)
	if err == nil && after == version && s.gen.Load() == gen {
		s.cache.SetWithTTL(key, balance, 1, balanceCacheTTL)
		s.cache.Wait()
	}

	return balance, nil
}

func (s *BalanceService) computeCurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := currentBalance(ctx, s.store.Transactions())
	if err != nil {
		return decimal.Zero, storageErr("current balance", err)
	}

	balanceFloat, _ := balance.Float64()
	s.metrics.RecordGauge(metricCurrentBalance, balanceFloat, nil)

	return balance, nil
}

// BalanceAsOf sums every non-settlement row dated on or before cutoff.
func (s *BalanceService) BalanceAsOf(ctx context.Context, cutoff time.Time) (decimal.Decimal, error) {
	balance, err := balanceAsOf(ctx, s.store.Transactions(), cutoff)
	if err != nil {
		return decimal.Zero, storageErr("balance as of", err)
	}
	return balance, nil
}

// Invalidate retires every balance memoized by this process. Writes made
// elsewhere are caught by the ledger version instead. Safe on a nil receiver.
func (s *BalanceService) Invalidate() {
	if s == nil {
		return
	}
	s.gen.Add(1)
}

// Close releases the cache.
func (s *BalanceService) Close() {
	if s != nil && s.cache != nil {
		s.cache.Close()
	}
}

func currentBalance(ctx context.Context, repo repositories.TransactionRepositoryInterface) (decimal.Decimal, error) {
	checkpointAmount := decimal.Zero
	floor := epochFloor

	checkpoint, err := repo.LatestSettlement(ctx)
	switch {
	case err == nil:
		checkpointAmount = checkpoint.TotalAmount
		floor = checkpoint.CoveredThrough()
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return decimal.Zero, err
	}

	income, err := repo.SumTotalAmount(ctx, models.LedgerSumFilter{
		Type:               models.TransactionTypeIncome,
		After:              &floor,
		ExcludeSettlements: true,
	})
	if err != nil {
		return decimal.Zero, err
	}

	expenditure, err := repo.SumTotalAmount(ctx, models.LedgerSumFilter{
		Type:  models.TransactionTypeExpenditure,
		After: &floor,
	})
	if err != nil {
		return decimal.Zero, err
	}

	return checkpointAmount.Add(income).Add(expenditure), nil
}

func balanceAsOf(ctx context.Context, repo repositories.TransactionRepositoryInterface, cutoff time.Time) (decimal.Decimal, error) {
	return repo.SumTotalAmount(ctx, models.LedgerSumFilter{
		OnOrBefore:         &cutoff,
		ExcludeSettlements: true,
	})
}

// ensureOpenPeriod denies changes to rows dated inside a settled period.
func ensureOpenPeriod(ctx context.Context, repo repositories.TransactionRepositoryInterface, action string, date time.Time) error {
	latest, err := repo.LatestSettlement(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}

	closedThrough := latest.CoveredThrough()
	if !models.DateOnly(date).After(closedThrough) {
		return denied(action, fmt.Sprintf("the period through %s is settled", closedThrough.Format(time.DateOnly)))
	}
	return nil
}
