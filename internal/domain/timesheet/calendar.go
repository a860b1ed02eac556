package timesheet

import (
	"fmt"
	"time"
)

const (
	HoursPerDay         = 8
	DefaultWorkingHours = 8
	MaxHours            = 24
	MinYear             = 2000
	MaxYear             = 2100
)

func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d", ErrOutOfRange, month)
	}
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: year %d", ErrOutOfRange, year)
	}
	return nil
}

func DaysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BuildMonth returns one default entry per calendar day, ordered by date.
func BuildMonth(month, year int) []Entry {
	days := DaysInMonth(month, year)
	entries := make([]Entry, 0, days)
	for d := 1; d <= days; d++ {
		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		entry := Entry{Date: date, Status: DayUnset}
		if IsWeekend(date) {
			entry.Status = DayWeekend
		}
		entries = append(entries, entry)
	}
	return entries
}

// Hydrate lays stored entries over the month skeleton. Days missing from
// storage keep their defaults and stored days outside the month are dropped.
func Hydrate(month, year int, stored []Entry) []Entry {
	entries := BuildMonth(month, year)
	for _, s := range stored {
		if s.Date.Year() != year || int(s.Date.Month()) != month {
			continue
		}
		idx := s.Date.Day() - 1
		if !entries[idx].Editable() {
			continue
		}
		entries[idx] = normalize(entries[idx].Date, s)
	}
	return entries
}

func normalize(date time.Time, e Entry) Entry {
	out := Entry{Date: date, Hours: clampHours(e.Hours), Status: e.Status}
	switch out.Status {
	case DayWorking:
		if out.Hours == 0 {
			out.Status = DayUnset
		}
	case DayLeave, DayHoliday:
		out.Hours = 0
	case DayWeekend:
		// a weekday persisted as weekend is treated as never filled in
		out.Status = DayUnset
		out.Hours = 0
	default:
		// no status given: the hours decide, as for a direct hours edit
		return SetHours(Entry{Date: date, Status: DayUnset}, e.Hours)
	}
	return out
}

func clampHours(hours float64) float64 {
	if hours < 0 {
		return 0
	}
	if hours > MaxHours {
		return MaxHours
	}
	return hours
}

// CycleStatus advances an editable day working -> leave -> holiday -> working.
// An unset day starts the cycle at working.
func CycleStatus(e Entry) Entry {
	switch e.Status {
	case DayWeekend:
		return e
	case DayWorking:
		e.Status = DayLeave
		e.Hours = 0
	case DayLeave:
		e.Status = DayHoliday
		e.Hours = 0
	default:
		if e.Hours == 0 {
			e.Hours = DefaultWorkingHours
		}
		e.Status = DayWorking
	}
	return e
}

// SetHours applies a direct hours edit, clamped to [0, MaxHours]. Positive
// hours force working; zero keeps leave or holiday and otherwise unsets.
func SetHours(e Entry, hours float64) Entry {
	if !e.Editable() {
		return e
	}
	e.Hours = clampHours(hours)
	if e.Hours > 0 {
		e.Status = DayWorking
		return e
	}
	if e.Status != DayLeave && e.Status != DayHoliday {
		e.Status = DayUnset
	}
	return e
}

func ComputeTotals(entries []Entry) Totals {
	var totals Totals
	for _, e := range entries {
		switch e.Status {
		case DayWorking:
			totals.TotalHours += e.Hours
		case DayLeave:
			totals.TotalLeaves++
		case DayHoliday:
			totals.TotalHolidays++
		}
	}
	totals.TotalWorkingDays = totals.TotalHours / HoursPerDay
	return totals
}

// CycleDay cycles the status of the given day of month. It reports false
// and leaves the sheet untouched unless the sheet is a draft.
func (t *Timesheet) CycleDay(day int) bool {
	idx, ok := t.editableIndex(day)
	if !ok {
		return false
	}
	t.Entries[idx] = CycleStatus(t.Entries[idx])
	return true
}

// SetDayHours sets hours on the given day of month under the same rules as CycleDay.
func (t *Timesheet) SetDayHours(day int, hours float64) bool {
	idx, ok := t.editableIndex(day)
	if !ok {
		return false
	}
	t.Entries[idx] = SetHours(t.Entries[idx], hours)
	return true
}

func (t *Timesheet) editableIndex(day int) (int, bool) {
	if t.Status != StatusDraft {
		return 0, false
	}
	if len(t.Entries) != DaysInMonth(t.Month, t.Year) {
		t.Entries = Hydrate(t.Month, t.Year, t.Entries)
	}
	idx := day - 1
	if idx < 0 || idx >= len(t.Entries) || !t.Entries[idx].Editable() {
		return 0, false
	}
	return idx, true
}

// ValidateEntries checks a full replacement entry list for a period.
func ValidateEntries(month, year int, entries []Entry) error {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Date.Year() != year || int(e.Date.Month()) != month {
			return fmt.Errorf("%w: entry %s outside %04d-%02d", ErrOutOfRange, e.Date.Format("2006-01-02"), year, month)
		}
		if seen[e.Date.Day()] {
			return fmt.Errorf("%w: duplicate entry for %s", ErrOutOfRange, e.Date.Format("2006-01-02"))
		}
		seen[e.Date.Day()] = true
		if e.Hours < 0 || e.Hours > MaxHours {
			return fmt.Errorf("%w: hours %v on %s", ErrOutOfRange, e.Hours, e.Date.Format("2006-01-02"))
		}
		if e.Status != "" && !e.Status.Valid() {
			return fmt.Errorf("%w: unknown day status %q", ErrOutOfRange, e.Status)
		}
	}
	return nil
}
