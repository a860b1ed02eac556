package auth

import (
	"context"
	"slices"
)

const (
	RoleContractor = "contractor"
	RoleApprover   = "approver"
	RoleAdmin      = "admin"
)

const (
	PermTimesheetRead     = "timesheet.read"
	PermTimesheetWrite    = "timesheet.write"
	PermTimesheetApprove  = "timesheet.approve"
	PermPayrollRead       = "payroll.read"
	PermPayrollSettings   = "payroll.settings"
	PermPayslipRead       = "payroll.payslip.read"
	PermReportsRead       = "reports.read"
	PermRegistryRead      = "registry.read"
	PermAuditRead         = "audit.read"
	PermTimesheetReadAll  = "timesheet.read.all"
	PermPayrollReadOthers = "payroll.read.others"
)

var DefaultPermissions = []string{
	PermTimesheetRead,
	PermTimesheetWrite,
	PermTimesheetApprove,
	PermPayrollRead,
	PermPayrollSettings,
	PermPayslipRead,
	PermReportsRead,
	PermRegistryRead,
	PermAuditRead,
	PermTimesheetReadAll,
	PermPayrollReadOthers,
}

var RolePermissions = map[string][]string{
	RoleContractor: {
		PermTimesheetRead,
		PermTimesheetWrite,
		PermPayrollRead,
		PermPayslipRead,
		PermRegistryRead,
	},
	RoleApprover: {
		PermTimesheetRead,
		PermTimesheetApprove,
		PermTimesheetReadAll,
		PermPayrollRead,
		PermPayrollReadOthers,
		PermPayslipRead,
		PermReportsRead,
		PermRegistryRead,
	},
	RoleAdmin: {
		PermTimesheetRead,
		PermTimesheetWrite,
		PermTimesheetApprove,
		PermTimesheetReadAll,
		PermPayrollRead,
		PermPayrollReadOthers,
		PermPayrollSettings,
		PermPayslipRead,
		PermReportsRead,
		PermRegistryRead,
		PermAuditRead,
	},
}

func KnownRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func Allowed(role, permission string) bool {
	return slices.Contains(RolePermissions[role], permission)
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	return Allowed(role, permission), nil
}
