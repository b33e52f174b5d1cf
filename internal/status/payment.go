package status

import "time"

// PaymentPaid is the only payment flag value that is not overdue.
const PaymentPaid = "paid"

// ComputePaymentStatus reports whether a client is overdue. Only the manually
// set flag is consulted: anything other than "paid", including an empty
// value, is overdue.
func ComputePaymentStatus(flag string) bool {
	return flag != PaymentPaid
}

// PaymentDue describes a client's billing cycle relative to its due day.
type PaymentDue struct {
	// CurrentDue is the latest due date on or before today.
	CurrentDue time.Time `json:"current_due"`
	NextDue    time.Time `json:"next_due"`
	Covered    bool      `json:"covered"`
	DaysLate   int       `json:"days_late"`
}

// ComputePaymentDue places now in the monthly cycle defined by dueDay and
// checks whether lastPaidAt covers the current due date. A payment covers the
// current due date when it was made after the due date of the month before.
// Due days past the end of a month fall on its last day. ok is false when
// dueDay is outside 1..31.
func ComputePaymentDue(dueDay int, lastPaidAt, now time.Time) (due PaymentDue, ok bool) {
	if dueDay < 1 || dueDay > 31 {
		return PaymentDue{}, false
	}

	today := dateOnly(now)
	current := dueDateIn(today.Year(), today.Month(), dueDay)
	if today.Before(current) {
		current = shiftDue(current, -1, dueDay)
	}
	previous := shiftDue(current, -1, dueDay)

	due.CurrentDue = current
	due.NextDue = shiftDue(current, 1, dueDay)
	if !lastPaidAt.IsZero() && dateOnly(lastPaidAt).After(previous) {
		due.Covered = true
		return due, true
	}
	due.DaysLate = int(today.Sub(current).Hours() / 24)
	return due, true
}

func dateOnly(t time.Time) time.Time {
	v := t.UTC()
	return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
}

func dueDateIn(year int, month time.Month, dueDay int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if dueDay > last {
		dueDay = last
	}
	return time.Date(year, month, dueDay, 0, 0, 0, 0, time.UTC)
}

func shiftDue(from time.Time, months int, dueDay int) time.Time {
	first := time.Date(from.Year(), from.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return dueDateIn(first.Year(), first.Month(), dueDay)
}
