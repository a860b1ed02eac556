package timesheet

import (
	"fmt"
	"slices"
	"strings"
)

type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRevert  Action = "revert"
	ActionDelete  Action = "delete"
)

// transitions lists, per action, the statuses it may start from and the
// status it produces. Delete has no target status; deleting a rejected
// sheet frees its period for a fresh draft.
var transitions = map[Action]struct {
	from []Status
	to   Status
}{
	ActionSubmit:  {[]Status{StatusDraft}, StatusSubmitted},
	ActionApprove: {[]Status{StatusSubmitted}, StatusApproved},
	ActionReject:  {[]Status{StatusSubmitted}, StatusRejected},
	ActionRevert:  {[]Status{StatusApproved}, StatusDraft},
	ActionDelete:  {[]Status{StatusDraft, StatusRejected}, ""},
}

// CanApply reports whether action is legal from the given status.
func CanApply(action Action, from Status) bool {
	t, ok := transitions[action]
	return ok && slices.Contains(t.from, from)
}

func (t Timesheet) Editable() bool {
	return t.Status == StatusDraft
}

func checkTransition(t *Timesheet, action Action) error {
	if !CanApply(action, t.Status) {
		return fmt.Errorf("%w: cannot %s a %s timesheet", ErrInvalidTransition, action, t.Status)
	}
	return nil
}

// Submit freezes the totals computed from the current entries.
func Submit(t *Timesheet) error {
	if err := checkTransition(t, ActionSubmit); err != nil {
		return err
	}
	t.Entries = Hydrate(t.Month, t.Year, t.Entries)
	t.Totals = ComputeTotals(t.Entries)
	t.Status = StatusSubmitted
	return nil
}

func Approve(t *Timesheet) error {
	if err := checkTransition(t, ActionApprove); err != nil {
		return err
	}
	t.Status = StatusApproved
	return nil
}

func Reject(t *Timesheet, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingReason
	}
	if err := checkTransition(t, ActionReject); err != nil {
		return err
	}
	t.Status = StatusRejected
	t.RejectionReason = reason
	return nil
}

// Revert returns an approved sheet to draft. Stored totals are kept but
// are stale until the next submission.
func Revert(t *Timesheet) error {
	if err := checkTransition(t, ActionRevert); err != nil {
		return err
	}
	t.Status = StatusDraft
	return nil
}

func CheckDelete(t Timesheet) error {
	return checkTransition(&t, ActionDelete)
}
