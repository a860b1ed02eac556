package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"timesheets/internal/platform/querier"
)

const uniqueViolation = "23505"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const timesheetColumns = `
    id, tenant_id, contractor_id, project_id, client_id, month, year, status,
    COALESCE(rejection_reason, ''), total_hours, total_working_days, total_leaves, total_holidays,
    created_at, updated_at`

func scanTimesheet(row pgx.Row) (Timesheet, error) {
	var t Timesheet
	var status string
	err := row.Scan(&t.ID, &t.TenantID, &t.ContractorID, &t.ProjectID, &t.ClientID, &t.Month, &t.Year, &status,
		&t.RejectionReason, &t.TotalHours, &t.TotalWorkingDays, &t.TotalLeaves, &t.TotalHolidays,
		&t.CreatedAt, &t.UpdatedAt)
	t.Status = Status(status)
	return t, err
}

func (s *Store) Create(ctx context.Context, t Timesheet) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
    INSERT INTO timesheets (id, tenant_id, contractor_id, project_id, client_id, month, year, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, t.ID, t.TenantID, t.ContractorID, t.ProjectID, t.ClientID, t.Month, t.Year, string(t.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicatePeriod
		}
		return err
	}
	if err := copyEntries(ctx, tx, t.ID, t.Entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func copyEntries(ctx context.Context, tx pgx.Tx, timesheetID string, entries []Entry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if e.Status == DayUnset || e.Status == DayWeekend {
			continue
		}
		rows = append(rows, []any{timesheetID, e.Date, e.Hours, string(e.Status)})
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"timesheet_entries"},
		[]string{"timesheet_id", "entry_date", "hours", "status"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (s *Store) Get(ctx context.Context, tenantID, id string) (Timesheet, error) {
	t, err := scanTimesheet(s.DB.QueryRow(ctx, `
    SELECT`+timesheetColumns+`
    FROM timesheets
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Timesheet{}, ErrNotFound
	}
	if err != nil {
		return Timesheet{}, err
	}
	byID, err := s.loadEntries(ctx, []string{t.ID})
	if err != nil {
		return Timesheet{}, err
	}
	t.Entries = byID[t.ID]
	return t, nil
}

func (s *Store) FindByPeriod(ctx context.Context, tenantID, contractorID, projectID string, month, year int) (Timesheet, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id
    FROM timesheets
    WHERE tenant_id = $1 AND contractor_id = $2 AND project_id = $3 AND month = $4 AND year = $5
  `, tenantID, contractorID, projectID, month, year).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Timesheet{}, ErrNotFound
	}
	if err != nil {
		return Timesheet{}, err
	}
	return s.Get(ctx, tenantID, id)
}

func buildFilter(tenantID string, filter Filter) (string, []any) {
	where := " WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.ContractorID != "" {
		args = append(args, filter.ContractorID)
		where += fmt.Sprintf(" AND contractor_id = $%d", len(args))
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		where += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		where += fmt.Sprintf(" AND month = $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		where += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	return where, args
}

func (s *Store) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Timesheet, int, error) {
	where, args := buildFilter(tenantID, filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM timesheets"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + timesheetColumns + " FROM timesheets" + where +
		fmt.Sprintf(" ORDER BY year DESC, month DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	items, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) ListWithEntries(ctx context.Context, tenantID string, filter Filter) ([]Timesheet, error) {
	where, args := buildFilter(tenantID, filter)
	items, err := s.query(ctx, "SELECT"+timesheetColumns+" FROM timesheets"+where+" ORDER BY contractor_id, project_id", args...)
	if err != nil || len(items) == 0 {
		return items, err
	}
	ids := make([]string, len(items))
	for i, t := range items {
		ids[i] = t.ID
	}
	byID, err := s.loadEntries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Entries = byID[items[i].ID]
	}
	return items, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Timesheet, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Timesheet
	for rows.Next() {
		t, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) loadEntries(ctx context.Context, ids []string) (map[string][]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT timesheet_id, entry_date, hours, status
    FROM timesheet_entries
    WHERE timesheet_id = ANY($1::text[]::uuid[])
    ORDER BY entry_date
  `, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Entry, len(ids))
	for rows.Next() {
		var id, status string
		var e Entry
		if err := rows.Scan(&id, &e.Date, &e.Hours, &status); err != nil {
			return nil, err
		}
		e.Status = DayStatus(status)
		out[id] = append(out[id], e)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceEntries(ctx context.Context, tenantID, id string, entries []Entry, totals Totals) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, `
    SELECT status FROM timesheets WHERE tenant_id = $1 AND id = $2 FOR UPDATE
  `, tenantID, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if Status(status) != StatusDraft {
		return ErrNotEditable
	}

	if _, err := tx.Exec(ctx, "DELETE FROM timesheet_entries WHERE timesheet_id = $1", id); err != nil {
		return err
	}
	if err := copyEntries(ctx, tx, id, entries); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    UPDATE timesheets
    SET total_hours = $1, total_working_days = $2, total_leaves = $3, total_holidays = $4, updated_at = $5
    WHERE id = $6
  `, totals.TotalHours, totals.TotalWorkingDays, totals.TotalLeaves, totals.TotalHolidays, time.Now().UTC(), id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) UpdateStatus(ctx context.Context, tenantID, id string, from Status, next Timesheet) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE timesheets
    SET status = $1, rejection_reason = NULLIF($2, ''),
        total_hours = $3, total_working_days = $4, total_leaves = $5, total_holidays = $6,
        updated_at = $7
    WHERE tenant_id = $8 AND id = $9 AND status = $10
  `, string(next.Status), next.RejectionReason,
		next.TotalHours, next.TotalWorkingDays, next.TotalLeaves, next.TotalHolidays,
		time.Now().UTC(), tenantID, id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missOrStale(ctx, tenantID, id)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, tenantID, id string, from Status) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM timesheets WHERE tenant_id = $1 AND id = $2 AND status = $3
  `, tenantID, id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missOrStale(ctx, tenantID, id)
	}
	return nil
}

func (s *Store) missOrStale(ctx context.Context, tenantID, id string) error {
	var status string
	err := s.DB.QueryRow(ctx, "SELECT status FROM timesheets WHERE tenant_id = $1 AND id = $2", tenantID, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: status changed concurrently to %s", ErrInvalidTransition, status)
}
