package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"timesheets/internal/domain/audit"
	"timesheets/internal/domain/registry"
)

type ProjectDirectory interface {
	GetProject(ctx context.Context, tenantID, projectID string) (registry.Project, error)
	IsAssigned(ctx context.Context, tenantID, contractorID, projectID string) (bool, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	store    StoreAPI
	projects ProjectDirectory
	audit    AuditRecorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store StoreAPI, projects ProjectDirectory, recorder AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, projects: projects, audit: recorder, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, tenantID, contractorID, projectID string, month, year int) (Timesheet, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return Timesheet{}, err
	}
	project, err := s.projects.GetProject(ctx, tenantID, projectID)
	if err != nil {
		return Timesheet{}, err
	}
	if !project.Active {
		return Timesheet{}, ErrProjectInactive
	}
	assigned, err := s.projects.IsAssigned(ctx, tenantID, contractorID, projectID)
	if err != nil {
		return Timesheet{}, err
	}
	if !assigned {
		return Timesheet{}, ErrProjectNotAssigned
	}

	if _, err := s.store.FindByPeriod(ctx, tenantID, contractorID, projectID, month, year); err == nil {
		return Timesheet{}, ErrDuplicatePeriod
	} else if !errors.Is(err, ErrNotFound) {
		return Timesheet{}, err
	}

	now := s.now().UTC()
	t := Timesheet{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		ContractorID: contractorID,
		ProjectID:    projectID,
		ClientID:     project.ClientID,
		Month:        month,
		Year:         year,
		Entries:      BuildMonth(month, year),
		Status:       StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return Timesheet{}, err
	}
	s.record(ctx, tenantID, "timesheet.create", t.ID, nil, statusSnapshot(t))
	return t, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Timesheet, error) {
	t, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return Timesheet{}, err
	}
	t.Entries = Hydrate(t.Month, t.Year, t.Entries)
	return t, nil
}

// Sheet returns the persisted timesheet for the period, or an unsaved draft
// skeleton when none exists. The boolean reports whether it is persisted.
func (s *Service) Sheet(ctx context.Context, tenantID, contractorID, projectID string, month, year int) (Timesheet, bool, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return Timesheet{}, false, err
	}
	t, err := s.store.FindByPeriod(ctx, tenantID, contractorID, projectID, month, year)
	if errors.Is(err, ErrNotFound) {
		return Skeleton(tenantID, contractorID, projectID, month, year), false, nil
	}
	if err != nil {
		return Timesheet{}, false, err
	}
	t.Entries = Hydrate(t.Month, t.Year, t.Entries)
	return t, true, nil
}

// Skeleton builds an unsaved draft for a period with default entries.
func Skeleton(tenantID, contractorID, projectID string, month, year int) Timesheet {
	return Timesheet{
		TenantID:     tenantID,
		ContractorID: contractorID,
		ProjectID:    projectID,
		Month:        month,
		Year:         year,
		Entries:      BuildMonth(month, year),
		Status:       StatusDraft,
	}
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) (ListResult, error) {
	items, total, err := s.store.List(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Timesheet{}
	}
	return ListResult{Items: items, Total: total}, nil
}

// ForContractorPeriod returns every timesheet a contractor holds for the
// period, across projects, with hydrated entries.
func (s *Service) ForContractorPeriod(ctx context.Context, tenantID, contractorID string, month, year int) ([]Timesheet, error) {
	items, err := s.store.ListWithEntries(ctx, tenantID, Filter{ContractorID: contractorID, Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Entries = Hydrate(items[i].Month, items[i].Year, items[i].Entries)
	}
	return items, nil
}

// ApprovedForPeriod returns every approved timesheet of the period,
// unpaginated, with hydrated entries.
func (s *Service) ApprovedForPeriod(ctx context.Context, tenantID string, month, year int) ([]Timesheet, error) {
	items, err := s.store.ListWithEntries(ctx, tenantID, Filter{Month: month, Year: year, Status: StatusApproved})
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Entries = Hydrate(items[i].Month, items[i].Year, items[i].Entries)
	}
	return items, nil
}

// SaveEntries replaces the full entry list of a draft.
func (s *Service) SaveEntries(ctx context.Context, tenantID, id string, entries []Entry) (Timesheet, error) {
	t, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return Timesheet{}, err
	}
	if !t.Editable() {
		return Timesheet{}, ErrNotEditable
	}
	if err := ValidateEntries(t.Month, t.Year, entries); err != nil {
		return Timesheet{}, err
	}
	t.Entries = Hydrate(t.Month, t.Year, entries)
	totals := ComputeTotals(t.Entries)
	if err := s.store.ReplaceEntries(ctx, tenantID, id, t.Entries, totals); err != nil {
		return Timesheet{}, err
	}
	t.Totals = totals
	t.UpdatedAt = s.now().UTC()
	return t, nil
}

func (s *Service) Submit(ctx context.Context, tenantID, id string) (Timesheet, error) {
	return s.transition(ctx, tenantID, id, ActionSubmit, Submit)
}

func (s *Service) Approve(ctx context.Context, tenantID, id string) (Timesheet, error) {
	return s.transition(ctx, tenantID, id, ActionApprove, Approve)
}

func (s *Service) Reject(ctx context.Context, tenantID, id, reason string) (Timesheet, error) {
	return s.transition(ctx, tenantID, id, ActionReject, func(t *Timesheet) error {
		return Reject(t, reason)
	})
}

func (s *Service) Revert(ctx context.Context, tenantID, id string) (Timesheet, error) {
	return s.transition(ctx, tenantID, id, ActionRevert, Revert)
}

func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	t, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := CheckDelete(t); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tenantID, id, t.Status); err != nil {
		return err
	}
	s.record(ctx, tenantID, "timesheet."+string(ActionDelete), id, statusSnapshot(t), nil)
	return nil
}

func (s *Service) transition(ctx context.Context, tenantID, id string, action Action, apply func(*Timesheet) error) (Timesheet, error) {
	current, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return Timesheet{}, err
	}
	next := current
	if err := apply(&next); err != nil {
		return Timesheet{}, err
	}
	if err := s.store.UpdateStatus(ctx, tenantID, id, current.Status, next); err != nil {
		return Timesheet{}, fmt.Errorf("%s timesheet: %w", action, err)
	}
	next.UpdatedAt = s.now().UTC()

	s.logger.Info("timesheet transition",
		"tenant_id", tenantID,
		"timesheet_id", id,
		"action", string(action),
		"from", string(current.Status),
		"to", string(next.Status),
	)
	s.record(ctx, tenantID, "timesheet."+string(action), id, statusSnapshot(current), statusSnapshot(next))
	return next, nil
}

type snapshot struct {
	Status          Status  `json:"status"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
	TotalHours      float64 `json:"totalHours"`
}

func statusSnapshot(t Timesheet) snapshot {
	return snapshot{Status: t.Status, RejectionReason: t.RejectionReason, TotalHours: t.TotalHours}
}

func (s *Service) record(ctx context.Context, tenantID, action, id string, before, after any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		TenantID:   tenantID,
		Action:     action,
		EntityType: audit.EntityTimesheet,
		EntityID:   id,
		Before:     before,
		After:      after,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit "+action+" failed", "err", err)
	}
}
