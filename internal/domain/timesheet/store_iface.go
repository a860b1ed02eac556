package timesheet

import "context"

type StoreAPI interface {
	Create(ctx context.Context, t Timesheet) error
	Get(ctx context.Context, tenantID, id string) (Timesheet, error)
	FindByPeriod(ctx context.Context, tenantID, contractorID, projectID string, month, year int) (Timesheet, error)
	List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Timesheet, int, error)
	ListWithEntries(ctx context.Context, tenantID string, filter Filter) ([]Timesheet, error)
	ReplaceEntries(ctx context.Context, tenantID, id string, entries []Entry, totals Totals) error
	// UpdateStatus writes next's status, reason and totals only if the
	// persisted status still equals from.
	UpdateStatus(ctx context.Context, tenantID, id string, from Status, next Timesheet) error
	// Delete removes the sheet only if the persisted status still equals
	// from.
	Delete(ctx context.Context, tenantID, id string, from Status) error
}
