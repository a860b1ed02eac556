package timesheet

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// DayStatus distinguishes a day nobody has filled in (DayUnset) from a day
// entered with zero hours.
type DayStatus string

const (
	DayUnset   DayStatus = "unset"
	DayWorking DayStatus = "working"
	DayLeave   DayStatus = "leave"
	DayHoliday DayStatus = "holiday"
	DayWeekend DayStatus = "weekend"
)

func (s DayStatus) Valid() bool {
	switch s {
	case DayUnset, DayWorking, DayLeave, DayHoliday, DayWeekend:
		return true
	}
	return false
}

type Entry struct {
	Date   time.Time `json:"date"`
	Hours  float64   `json:"hours"`
	Status DayStatus `json:"status"`
}

func (e Entry) Editable() bool {
	return e.Status != DayWeekend
}

type Totals struct {
	TotalHours       float64 `json:"totalHours"`
	TotalWorkingDays float64 `json:"totalWorkingDays"`
	TotalLeaves      int     `json:"totalLeaves"`
	TotalHolidays    int     `json:"totalHolidays"`
}

type Timesheet struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"-"`
	ContractorID    string    `json:"contractorId"`
	ProjectID       string    `json:"projectId"`
	ClientID        string    `json:"clientId"`
	Month           int       `json:"month"`
	Year            int       `json:"year"`
	Entries         []Entry   `json:"entries,omitempty"`
	Status          Status    `json:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	Totals
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectiveTotals returns the totals frozen at submission, or totals
// recomputed from the entries while the sheet is still a draft.
func (t Timesheet) EffectiveTotals() Totals {
	if t.Status == StatusDraft {
		return ComputeTotals(t.Entries)
	}
	return t.Totals
}

type Filter struct {
	ContractorID string
	ProjectID    string
	Month        int
	Year         int
	Status       Status
}

type ListResult struct {
	Items []Timesheet `json:"items"`
	Total int         `json:"total"`
}
