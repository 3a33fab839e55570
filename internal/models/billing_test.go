package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsynca/nsynca/internal/notion"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseISODate(t *testing.T) {
	got, ok := ParseISODate("2024-03-15")
	require.True(t, ok)
	assert.Equal(t, date(2024, time.March, 15), got)

	got, ok = ParseISODate("2024-03-15T18:30:00.000+02:00")
	require.True(t, ok)
	assert.Equal(t, date(2024, time.March, 15), got, "datetimes truncate to the calendar date")

	_, ok = ParseISODate("")
	assert.False(t, ok)
	_, ok = ParseISODate("not-a-date")
	assert.False(t, ok)
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, date(2023, time.February, 28), AddMonths(date(2023, time.January, 31), 1))
	assert.Equal(t, date(2024, time.February, 29), AddMonths(date(2024, time.January, 31), 1))
	assert.Equal(t, date(2024, time.April, 30), AddMonths(date(2024, time.March, 31), 1))
	assert.Equal(t, date(2024, time.February, 15), AddMonths(date(2024, time.January, 15), 1))
	assert.Equal(t, date(2025, time.January, 31), AddMonths(date(2024, time.January, 31), 12))
}

func TestAddCycle(t *testing.T) {
	start := date(2024, time.January, 15)

	got, ok := AddCycle(start, "monthly")
	require.True(t, ok)
	assert.Equal(t, date(2024, time.February, 15), got)

	got, ok = AddCycle(start, "Yearly")
	require.True(t, ok)
	assert.Equal(t, date(2025, time.January, 15), got, "cycle labels are case-insensitive")

	got, ok = AddCycle(start, "ANNUAL")
	require.True(t, ok)
	assert.Equal(t, date(2025, time.January, 15), got)

	_, ok = AddCycle(start, "weekly")
	assert.False(t, ok)
	_, ok = AddCycle(start, "")
	assert.False(t, ok)
}

func TestNextDueDate_RollsForwardAcrossMissedCycles(t *testing.T) {
	due, ok := NextDueDate(date(2024, time.January, 15), "monthly", date(2024, time.April, 10))
	require.True(t, ok)
	assert.Equal(t, date(2024, time.April, 15), due)
}

func TestNextDueDate_SingleIncrementWhenCurrent(t *testing.T) {
	due, ok := NextDueDate(date(2024, time.March, 20), "monthly", date(2024, time.April, 10))
	require.True(t, ok)
	assert.Equal(t, date(2024, time.April, 20), due)
}

func TestNextDueDate_DueTodayIsNotRolled(t *testing.T) {
	due, ok := NextDueDate(date(2024, time.March, 10), "monthly", date(2024, time.April, 10))
	require.True(t, ok)
	assert.Equal(t, date(2024, time.April, 10), due, "strictly-before comparison keeps a today due date")
}

func TestNextDueDate_UnknownCycle(t *testing.T) {
	_, ok := NextDueDate(date(2024, time.January, 1), "quarterly", date(2024, time.April, 1))
	assert.False(t, ok)
}

func TestComputeServiceUpdate_CancelledWinsOverEverything(t *testing.T) {
	last := date(2020, time.January, 1)
	end := date(2024, time.January, 1)
	s := Service{Name: "Old Thing", BillingCycle: "monthly", LastPaymentAt: &last, EndDateAt: &end}

	flat := notion.Flatten(ComputeServiceUpdate(s, date(2024, time.June, 1)))
	assert.Equal(t, StatusCancelled, flat[UpdateStatus])
	val, present := flat[UpdateNextDueDate]
	require.True(t, present, "due date is explicitly cleared, not omitted")
	assert.Nil(t, val)
}

func TestComputeServiceUpdate_StatusTable(t *testing.T) {
	today := date(2024, time.April, 10)
	last := date(2024, time.March, 15) // monthly due 2024-04-15, 5 days out

	tests := []struct {
		name       string
		service    Service
		wantStatus string
		wantDue    any
	}{
		{
			name:       "coming soon at inclusive five day boundary",
			service:    Service{BillingCycle: "monthly", LastPaymentAt: &last},
			wantStatus: StatusComingSoon,
			wantDue:    "2024-04-15",
		},
		{
			name: "active outside the window",
			service: func() Service {
				lp := date(2024, time.March, 20)
				return Service{BillingCycle: "monthly", LastPaymentAt: &lp}
			}(),
			wantStatus: StatusActive,
			wantDue:    "2024-04-20",
		},
		{
			name:       "no payment history stays active without a due date",
			service:    Service{BillingCycle: "monthly"},
			wantStatus: StatusActive,
			wantDue:    nil,
		},
		{
			name: "unknown cycle stays active without a due date",
			service: func() Service {
				lp := date(2024, time.January, 1)
				return Service{BillingCycle: "quarterly", LastPaymentAt: &lp}
			}(),
			wantStatus: StatusActive,
			wantDue:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flat := notion.Flatten(ComputeServiceUpdate(tc.service, today))
			assert.Equal(t, tc.wantStatus, flat[UpdateStatus])
			if tc.wantDue == nil {
				assert.NotContains(t, flat, UpdateNextDueDate)
			} else {
				assert.Equal(t, tc.wantDue, flat[UpdateNextDueDate])
			}
		})
	}
}

func TestComputeServiceUpdate_Idempotent(t *testing.T) {
	last := date(2024, time.January, 15)
	s := Service{BillingCycle: "monthly", LastPaymentAt: &last}
	today := date(2024, time.April, 10)

	first := notion.Flatten(ComputeServiceUpdate(s, today))
	second := notion.Flatten(ComputeServiceUpdate(s, today))
	assert.Equal(t, first, second, "rerunning with unchanged inputs derives the same payload")
	assert.Equal(t, "2024-04-15", first[UpdateNextDueDate])
}

func TestExpectedChargeDates_Yearly(t *testing.T) {
	got := ExpectedChargeDates(date(2023, time.June, 1), "yearly", date(2025, time.July, 1))

	assert.Equal(t, []time.Time{
		date(2023, time.June, 1),
		date(2024, time.June, 1),
		date(2025, time.June, 1),
	}, got)
}

func TestExpectedChargeDates_IncludesTodayExactly(t *testing.T) {
	got := ExpectedChargeDates(date(2024, time.March, 1), "monthly", date(2024, time.May, 1))
	require.Len(t, got, 3)
	assert.Equal(t, date(2024, time.May, 1), got[2], "a date landing on today is expected")
}

func TestExpectedChargeDates_UnknownCycle(t *testing.T) {
	assert.Nil(t, ExpectedChargeDates(date(2024, time.January, 1), "weekly", date(2024, time.June, 1)))
}

func TestChargeName(t *testing.T) {
	assert.Equal(t, "OpenAI Jun24", ChargeName("OpenAI", date(2024, time.June, 1)))
	assert.Equal(t, "Web Hosting Jan25", ChargeName("Web Hosting", date(2025, time.January, 15)))
}

func TestNewChargeProperties(t *testing.T) {
	s := Service{ID: "svc-1", Name: "OpenAI"}
	flat := notion.Flatten(NewChargeProperties(s, date(2024, time.June, 1), 20.5))

	assert.Equal(t, "OpenAI Jun24", flat[PropName])
	assert.Equal(t, EntryTypeCharge, flat[PropEntryType])
	assert.Equal(t, "2024-06-01", flat[PropDate])
	assert.Equal(t, 20.5, flat[PropPrice])
	assert.Equal(t, []string{"svc-1"}, flat[PropLinkedService])
}
