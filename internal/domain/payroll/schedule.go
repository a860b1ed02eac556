package payroll

import (
	"fmt"
	"time"
)

// NextDisbursementDate returns the first date on or after now whose day of
// month is day. The result is midnight in now's location.
func NextDisbursementDate(day int, now time.Time) (time.Time, error) {
	if day < MinDisbursementDay || day > MaxDisbursementDay {
		return time.Time{}, ErrOutOfRange
	}
	y, m, d := now.Date()
	if d > day {
		m++
	}
	return time.Date(y, m, day, 0, 0, 0, 0, now.Location()), nil
}

// DaysUntil counts calendar days from now to target, ignoring time of day.
func DaysUntil(now, target time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := target.Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func Countdown(days int) string {
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return fmt.Sprintf("%d days", days)
}

// Schedule resolves the next disbursement for the settings at now. The
// settled period is the month before the disbursement month.
func Schedule(settings Settings, now time.Time) (Disbursement, error) {
	date, err := NextDisbursementDate(settings.DisbursementDay, now)
	if err != nil {
		return Disbursement{}, err
	}
	prev := date.AddDate(0, -1, 0)
	days := DaysUntil(now, date)
	return Disbursement{
		Date:          date,
		DaysRemaining: days,
		Countdown:     Countdown(days),
		PeriodMonth:   int(prev.Month()),
		PeriodYear:    prev.Year(),
	}, nil
}
