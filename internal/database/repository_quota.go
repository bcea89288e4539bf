package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Quota ledger

// ReserveQuota atomically adds unitCost to today's consumption for an API,
// but only when the new total stays within the daily budget. It returns
// the units consumed after the reservation, or ok=false when the
// reservation would exceed the budget. The increment and the check are a
// single conditional upsert so concurrent reservations cannot both pass a
// stale read.
func (r *Repository) ReserveQuota(ctx context.Context, apiName, day string, unitCost, dailyBudget int) (int, bool, error) {
	if unitCost > dailyBudget {
		return 0, false, nil
	}

	query := `
		INSERT INTO api_quota_usage (api_name, day, units_used, request_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (api_name, day) DO UPDATE
		SET units_used = api_quota_usage.units_used + EXCLUDED.units_used,
		    request_count = api_quota_usage.request_count + 1,
		    updated_at = now()
		WHERE api_quota_usage.units_used + EXCLUDED.units_used <= $4
		RETURNING units_used
	`

	var unitsUsed int
	err := r.db.Pool.QueryRow(ctx, query, apiName, day, unitCost, dailyBudget).Scan(&unitsUsed)
	if err == pgx.ErrNoRows {
		// Conflict row exists and the conditional update declined
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to reserve quota: %w", err)
	}

	return unitsUsed, true, nil
}

// GetQuotaRecord retrieves the ledger row for an (API, day) pair.
// A missing row means nothing has been consumed yet.
func (r *Repository) GetQuotaRecord(ctx context.Context, apiName, day string) (*models.QuotaRecord, error) {
	query := `
		SELECT api_name, day, units_used, request_count, created_at, updated_at
		FROM api_quota_usage
		WHERE api_name = $1 AND day = $2
	`

	var record models.QuotaRecord
	err := r.db.Pool.QueryRow(ctx, query, apiName, day).Scan(
		&record.APIName, &record.Day, &record.UnitsUsed, &record.RequestCount,
		&record.CreatedAt, &record.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return &models.QuotaRecord{APIName: apiName, Day: day}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quota record: %w", err)
	}

	return &record, nil
}
