package payroll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"timesheets/internal/domain/audit"
	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
)

type TimesheetSource interface {
	ForContractorPeriod(ctx context.Context, tenantID, contractorID string, month, year int) ([]timesheet.Timesheet, error)
}

type ContractorDirectory interface {
	GetContractor(ctx context.Context, tenantID, contractorID string) (registry.Contractor, error)
	GetProject(ctx context.Context, tenantID, projectID string) (registry.Project, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	store       SettingsStore
	timesheets  TimesheetSource
	contractors ContractorDirectory
	audit       AuditRecorder
	logger      *slog.Logger
	company     Company
	defaults    Settings
}

type Options struct {
	Company                Company
	DefaultDisbursementDay int
}

func NewService(store SettingsStore, timesheets TimesheetSource, contractors ContractorDirectory, recorder AuditRecorder, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	day := opts.DefaultDisbursementDay
	if day < MinDisbursementDay || day > MaxDisbursementDay {
		day = MinDisbursementDay
	}
	return &Service{
		store:       store,
		timesheets:  timesheets,
		contractors: contractors,
		audit:       recorder,
		logger:      logger,
		company:     opts.Company,
		defaults:    Settings{DisbursementDay: day},
	}
}

func (s *Service) Settings(ctx context.Context, tenantID string) (Settings, error) {
	settings, ok, err := s.store.GetSettings(ctx, tenantID)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return s.defaults, nil
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID string, settings Settings) (Settings, error) {
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	before, err := s.Settings(ctx, tenantID)
	if err != nil {
		return Settings{}, err
	}
	saved, err := s.store.UpsertSettings(ctx, tenantID, settings)
	if err != nil {
		return Settings{}, err
	}
	if s.audit != nil {
		entry := audit.Entry{
			TenantID:   tenantID,
			Action:     "payroll.settings.update",
			EntityType: audit.EntityPayrollSettings,
			EntityID:   tenantID,
			Before:     before,
			After:      saved,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("audit payroll.settings.update failed", "err", err)
		}
	}
	return saved, nil
}

// Earnings computes a contractor's month from approved timesheets only.
func (s *Service) Earnings(ctx context.Context, tenantID, contractorID string, month, year int) (MonthEarnings, error) {
	if err := timesheet.ValidatePeriod(month, year); err != nil {
		return MonthEarnings{}, err
	}
	c, err := s.contractors.GetContractor(ctx, tenantID, contractorID)
	if err != nil {
		return MonthEarnings{}, err
	}
	return s.approvedEarnings(ctx, tenantID, c, month, year)
}

func (s *Service) approvedEarnings(ctx context.Context, tenantID string, c registry.Contractor, month, year int) (MonthEarnings, error) {
	sheets, err := s.timesheets.ForContractorPeriod(ctx, tenantID, c.ID, month, year)
	if err != nil {
		return MonthEarnings{}, err
	}
	approved := sheets[:0]
	for _, ts := range sheets {
		if ts.Status == timesheet.StatusApproved {
			approved = append(approved, ts)
		}
	}
	m := ContractorMonth(c.ID, month, year, approved, c.PayProfile)
	return m, s.nameProjects(ctx, tenantID, &m)
}

// nameProjects fills ProjectName on each project row. A project missing
// from the registry keeps an empty name.
func (s *Service) nameProjects(ctx context.Context, tenantID string, m *MonthEarnings) error {
	for i, e := range m.Projects {
		if e.ProjectID == "" {
			continue
		}
		p, err := s.contractors.GetProject(ctx, tenantID, e.ProjectID)
		if errors.Is(err, registry.ErrProjectNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		m.Projects[i].ProjectName = p.Name
	}
	return nil
}

// CurrentMonth estimates the in-progress month from every non-rejected
// timesheet, or from an empty skeleton when none exists yet.
func (s *Service) CurrentMonth(ctx context.Context, tenantID, contractorID string, now time.Time) (MonthEarnings, error) {
	c, err := s.contractors.GetContractor(ctx, tenantID, contractorID)
	if err != nil {
		return MonthEarnings{}, err
	}
	month, year := int(now.Month()), now.Year()
	sheets, err := s.timesheets.ForContractorPeriod(ctx, tenantID, contractorID, month, year)
	if err != nil {
		return MonthEarnings{}, err
	}
	active := sheets[:0]
	for _, ts := range sheets {
		if ts.Status != timesheet.StatusRejected {
			active = append(active, ts)
		}
	}
	if len(active) == 0 {
		active = append(active, timesheet.Skeleton(tenantID, contractorID, "", month, year))
	}
	m := ContractorMonth(contractorID, month, year, active, c.PayProfile)
	return m, s.nameProjects(ctx, tenantID, &m)
}

// Disbursement returns the next payment date for the tenant and the net
// estimate of the period it settles.
func (s *Service) Disbursement(ctx context.Context, tenantID, contractorID string, now time.Time) (Disbursement, error) {
	settings, err := s.Settings(ctx, tenantID)
	if err != nil {
		return Disbursement{}, err
	}
	d, err := Schedule(settings, now)
	if err != nil {
		return Disbursement{}, err
	}
	if contractorID == "" {
		return d, nil
	}
	estimate, err := s.Earnings(ctx, tenantID, contractorID, d.PeriodMonth, d.PeriodYear)
	if err != nil {
		return Disbursement{}, err
	}
	d.Estimate = &estimate
	return d, nil
}

// Payslip builds a contractor's payslip. Contractor viewers are refused
// unless the tenant has made payslips visible.
func (s *Service) Payslip(ctx context.Context, tenantID, contractorID string, month, year int, asContractor bool) (Payslip, error) {
	if err := timesheet.ValidatePeriod(month, year); err != nil {
		return Payslip{}, err
	}
	if asContractor {
		settings, err := s.Settings(ctx, tenantID)
		if err != nil {
			return Payslip{}, err
		}
		if !settings.ShowPayslipToContractor {
			return Payslip{}, ErrPayslipHidden
		}
	}
	c, err := s.contractors.GetContractor(ctx, tenantID, contractorID)
	if err != nil {
		return Payslip{}, err
	}
	earnings, err := s.approvedEarnings(ctx, tenantID, c, month, year)
	if err != nil {
		return Payslip{}, err
	}
	return BuildPayslip(s.company, c, earnings), nil
}
