package quota

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Store persists per-(API, day) consumption counters
type Store interface {
	ReserveQuota(ctx context.Context, apiName, day string, unitCost, dailyBudget int) (int, bool, error)
	GetQuotaRecord(ctx context.Context, apiName, day string) (*models.QuotaRecord, error)
}

// Ledger enforces a daily unit budget per upstream API. Every upstream
// call reserves its unit cost before being made; a reservation that would
// push the day's total past the budget is rejected and no units are
// consumed.
type Ledger struct {
	store  Store
	budget int
	logger *logging.Logger
	now    func() time.Time
}

// NewLedger creates a quota ledger with the given daily budget
func NewLedger(store Store, dailyBudget int, logger *logging.Logger) *Ledger {
	return &Ledger{
		store:  store,
		budget: dailyBudget,
		logger: logger,
		now:    time.Now,
	}
}

// day returns the UTC day key. All consumers bucket on UTC so the budget
// resets at the same instant everywhere.
func (l *Ledger) day() string {
	return l.now().UTC().Format("2006-01-02")
}

// Reserve consumes unitCost units from today's budget for an API. It
// returns the remaining units, or a QuotaExceeded error when the budget
// cannot cover the cost. Rejected reservations leave the ledger untouched.
func (l *Ledger) Reserve(ctx context.Context, apiName string, unitCost int) (int, error) {
	used, ok, err := l.store.ReserveQuota(ctx, apiName, l.day(), unitCost, l.budget)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindPersistenceFailure, "quota reservation failed", err)
	}
	if !ok {
		l.logger.WithField("api", apiName).WithField("unit_cost", unitCost).
			Warn("Daily quota exhausted, rejecting upstream call")
		metrics.RecordQuotaReservation(apiName, unitCost, 0, false)
		return 0, apperrors.Newf(apperrors.KindQuotaExceeded,
			"daily quota for %s exhausted", apiName)
	}

	remaining := l.budget - used
	metrics.RecordQuotaReservation(apiName, unitCost, remaining, true)

	return remaining, nil
}

// Usage reports today's consumption for an API
func (l *Ledger) Usage(ctx context.Context, apiName string) (*models.QuotaRecord, int, error) {
	record, err := l.store.GetQuotaRecord(ctx, apiName, l.day())
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindPersistenceFailure, "quota lookup failed", err)
	}

	remaining := l.budget - record.UnitsUsed
	if remaining < 0 {
		remaining = 0
	}

	return record, remaining, nil
}

// Budget returns the configured daily budget
func (l *Ledger) Budget() int {
	return l.budget
}
