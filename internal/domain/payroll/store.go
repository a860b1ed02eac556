package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"timesheets/internal/platform/querier"
)

type SettingsStore interface {
	// GetSettings reports false when the tenant has no settings row.
	GetSettings(ctx context.Context, tenantID string) (Settings, bool, error)
	UpsertSettings(ctx context.Context, tenantID string, settings Settings) (Settings, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) GetSettings(ctx context.Context, tenantID string) (Settings, bool, error) {
	var out Settings
	err := s.DB.QueryRow(ctx, `
    SELECT disbursement_day, show_payslip_to_contractor, updated_at
    FROM payroll_settings
    WHERE tenant_id = $1
  `, tenantID).Scan(&out.DisbursementDay, &out.ShowPayslipToContractor, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	return out, true, nil
}

func (s *Store) UpsertSettings(ctx context.Context, tenantID string, settings Settings) (Settings, error) {
	out := settings
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_settings (tenant_id, disbursement_day, show_payslip_to_contractor, updated_at)
    VALUES ($1, $2, $3, now())
    ON CONFLICT (tenant_id) DO UPDATE
      SET disbursement_day = EXCLUDED.disbursement_day,
          show_payslip_to_contractor = EXCLUDED.show_payslip_to_contractor,
          updated_at = now()
    RETURNING updated_at
  `, tenantID, settings.DisbursementDay, settings.ShowPayslipToContractor).Scan(&out.UpdatedAt)
	return out, err
}
