package models

import (
	"strings"
	"time"

	"github.com/nsynca/nsynca/internal/notion"
)

// Service status labels, in derivation precedence order.
const (
	StatusCancelled  = "Cancelled"
	StatusOverdue    = "Overdue"
	StatusComingSoon = "Coming Soon"
	StatusActive     = "Active"
)

// comingSoonWindowDays is the inclusive number of days ahead of today
// within which a due service is flagged Coming Soon.
const comingSoonWindowDays = 5

const isoDate = "2006-01-02"

// ParseISODate parses an ISO date or datetime string and truncates it
// to a midnight-UTC calendar date. The second return is false for empty
// or unparseable input.
func ParseISODate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	var t time.Time
	var err error
	if t, err = time.Parse(time.RFC3339, s); err != nil {
		if t, err = time.Parse(isoDate, s); err != nil {
			return time.Time{}, false
		}
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// Today returns the current UTC calendar date at midnight.
func Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths advances a date by n months, clamping the day to the last
// day of the target month (Jan 31 + 1 month is Feb 28, not Mar 3).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, time.UTC)
}

// AddCycle advances a date by one billing-cycle increment. The second
// return is false for unrecognized cycles.
func AddCycle(t time.Time, cycle string) (time.Time, bool) {
	switch strings.ToLower(cycle) {
	case "monthly":
		return AddMonths(t, 1), true
	case "yearly", "annual":
		return AddMonths(t, 12), true
	default:
		return t, false
	}
}

// NextDueDate rolls the due date forward from the last payment: one
// cycle increment first, then further increments while the candidate
// remains strictly before today. This keeps services that are
// payment-current across several missed cycles pointed at the next
// upcoming date. The second return is false when the cycle is
// unrecognized.
func NextDueDate(lastPayment time.Time, cycle string, today time.Time) (time.Time, bool) {
	due, ok := AddCycle(lastPayment, cycle)
	if !ok {
		return time.Time{}, false
	}
	for due.Before(today) {
		due, _ = AddCycle(due, cycle)
	}
	return due, true
}

// ComputeServiceUpdate derives the status and due-date payload for a
// service profile as of today. Status is always written. The due date
// is written when resolved, explicitly cleared when the service is
// cancelled, and omitted otherwise.
func ComputeServiceUpdate(s Service, today time.Time) notion.Properties {
	if s.EndDateAt != nil {
		return notion.Properties{
			UpdateStatus:      notion.SelectProp(StatusCancelled),
			UpdateNextDueDate: notion.NullDateProp(),
		}
	}

	status := StatusActive
	updates := notion.Properties{}

	if s.LastPaymentAt != nil && s.BillingCycle != "" {
		if due, ok := NextDueDate(*s.LastPaymentAt, s.BillingCycle, today); ok {
			switch {
			case due.Before(today):
				status = StatusOverdue
			case int(due.Sub(today).Hours()/24) <= comingSoonWindowDays:
				status = StatusComingSoon
			}
			updates[UpdateNextDueDate] = notion.DateProp(due.Format(isoDate))
		}
	}

	updates[UpdateStatus] = notion.SelectProp(status)
	return updates
}

// ExpectedChargeDates walks forward from the earliest charge date by
// one cycle increment through today inclusive, returning every date a
// charge is expected on. Unrecognized cycles yield nil.
func ExpectedChargeDates(earliest time.Time, cycle string, today time.Time) []time.Time {
	if _, ok := AddCycle(earliest, cycle); !ok {
		return nil
	}
	var expected []time.Time
	for current := earliest; !current.After(today); {
		expected = append(expected, current)
		current, _ = AddCycle(current, cycle)
	}
	return expected
}

// ChargeName formats the synthesized charge title, e.g. "OpenAI Web Jan25".
func ChargeName(serviceName string, date time.Time) string {
	return serviceName + " " + date.Format("Jan06")
}

// NewChargeProperties builds the full payload for a synthesized charge
// row linked back to its service profile.
func NewChargeProperties(s Service, date time.Time, price float64) notion.Properties {
	return notion.Properties{
		PropName:          notion.TitleProp(ChargeName(s.Name, date)),
		PropEntryType:     notion.SelectProp(EntryTypeCharge),
		PropDate:          notion.DateProp(date.Format(isoDate)),
		PropPrice:         notion.NumberProp(price),
		PropLinkedService: notion.RelationProp(s.ID),
	}
}
