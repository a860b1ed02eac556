package reconciliation

import (
	"context"
	"errors"
	"log/slog"

	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
)

type TimesheetSource interface {
	ApprovedForPeriod(ctx context.Context, tenantID string, month, year int) ([]timesheet.Timesheet, error)
}

type Registry interface {
	GetContractor(ctx context.Context, tenantID, contractorID string) (registry.Contractor, error)
	GetProject(ctx context.Context, tenantID, projectID string) (registry.Project, error)
	GetClient(ctx context.Context, tenantID, clientID string) (registry.Client, error)
}

type Service struct {
	timesheets TimesheetSource
	registry   Registry
	logger     *slog.Logger
}

func NewService(timesheets TimesheetSource, reg Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{timesheets: timesheets, registry: reg, logger: logger}
}

// Report builds the reconciliation for approved timesheets of the period.
func (s *Service) Report(ctx context.Context, tenantID string, month, year int) (Report, error) {
	if err := timesheet.ValidatePeriod(month, year); err != nil {
		return Report{}, err
	}
	sheets, err := s.timesheets.ApprovedForPeriod(ctx, tenantID, month, year)
	if err != nil {
		return Report{}, err
	}

	r := resolver{
		tenantID:    tenantID,
		reg:         s.registry,
		contractors: map[string]*registry.Contractor{},
		projects:    map[string]*registry.Project{},
		clients:     map[string]*registry.Client{},
	}
	lines := make([]Line, 0, len(sheets))
	for _, ts := range sheets {
		line := Line{Timesheet: ts}
		if line.Contractor, err = r.contractor(ctx, ts.ContractorID); err != nil {
			return Report{}, err
		}
		if line.Project, err = r.project(ctx, ts.ProjectID); err != nil {
			return Report{}, err
		}
		if line.Client, err = r.client(ctx, ts.ClientID); err != nil {
			return Report{}, err
		}
		lines = append(lines, line)
	}

	report := Build(month, year, lines)
	if report.Skipped > 0 {
		s.logger.Warn("reconciliation skipped rows",
			"tenant_id", tenantID, "month", month, "year", year, "skipped", report.Skipped)
	}
	return report, nil
}

// resolver memoizes registry lookups for one report. Not-found records
// resolve to nil so the row is skipped rather than failing the report.
type resolver struct {
	tenantID    string
	reg         Registry
	contractors map[string]*registry.Contractor
	projects    map[string]*registry.Project
	clients     map[string]*registry.Client
}

func (r *resolver) contractor(ctx context.Context, id string) (*registry.Contractor, error) {
	if c, ok := r.contractors[id]; ok {
		return c, nil
	}
	c, err := r.reg.GetContractor(ctx, r.tenantID, id)
	if errors.Is(err, registry.ErrContractorNotFound) {
		r.contractors[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.contractors[id] = &c
	return &c, nil
}

func (r *resolver) project(ctx context.Context, id string) (*registry.Project, error) {
	if p, ok := r.projects[id]; ok {
		return p, nil
	}
	p, err := r.reg.GetProject(ctx, r.tenantID, id)
	if errors.Is(err, registry.ErrProjectNotFound) {
		r.projects[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.projects[id] = &p
	return &p, nil
}

func (r *resolver) client(ctx context.Context, id string) (*registry.Client, error) {
	if id == "" {
		return nil, nil
	}
	if c, ok := r.clients[id]; ok {
		return c, nil
	}
	c, err := r.reg.GetClient(ctx, r.tenantID, id)
	if errors.Is(err, registry.ErrClientNotFound) {
		r.clients[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.clients[id] = &c
	return &c, nil
}
