package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsynca/nsynca/internal/models"
	"github.com/nsynca/nsynca/internal/notion"
)

func profileRow(id, name, cycle, lastPayment, endDate string) notion.Page {
	props := map[string]notion.Property{
		models.PropName:      titleProperty(name),
		models.PropEntryType: selectProperty(models.EntryTypeProfile),
	}
	if cycle != "" {
		props[models.PropBillingCycle] = selectProperty(cycle)
	}
	if lastPayment != "" {
		props["Last Payment Date"] = notion.Property{
			Type:   "rollup",
			Rollup: &notion.RollupValue{Type: "date", Date: &notion.DateSpec{Start: lastPayment}},
		}
	}
	if endDate != "" {
		props["End Date"] = dateProperty(endDate)
	}
	return notion.Page{ID: id, Properties: props}
}

func TestServiceUpdater_WritesStatusAndDueDate(t *testing.T) {
	store := &fakeStore{
		queryFn: func(string, notion.Filter) ([]notion.Page, error) {
			return []notion.Page{
				profileRow("svc-1", "OpenAI", "Monthly", "2024-03-15", ""),
				profileRow("svc-2", "Old Host", "Monthly", "2023-01-01", "2024-01-01"),
				profileRow("svc-3", "No History", "Monthly", "", ""),
			}, nil
		},
	}
	recorder := &eventRecorder{}
	u := NewServiceUpdater(Deps{Store: store, Sink: recorder}, "db-svc")
	u.today = func() time.Time { return midnight("2024-04-10") }

	stats, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 3, Updated: 3}, stats)

	require.Len(t, store.queries, 1)
	assert.Equal(t, models.PropEntryType, store.queries[0]["property"], "only profile rows are fetched")

	require.Len(t, store.updates, 3)
	byPage := map[string]map[string]any{}
	for _, call := range store.updates {
		byPage[call.pageID] = notion.Flatten(call.props)
	}

	assert.Equal(t, models.StatusComingSoon, byPage["svc-1"][models.UpdateStatus])
	assert.Equal(t, "2024-04-15", byPage["svc-1"][models.UpdateNextDueDate])

	assert.Equal(t, models.StatusCancelled, byPage["svc-2"][models.UpdateStatus])
	due, present := byPage["svc-2"][models.UpdateNextDueDate]
	require.True(t, present)
	assert.Nil(t, due, "cancellation clears the due date explicitly")

	assert.Equal(t, models.StatusActive, byPage["svc-3"][models.UpdateStatus])
	assert.NotContains(t, byPage["svc-3"], models.UpdateNextDueDate)

	updateEvents := recorder.byKind(EventServiceUpdate)
	require.Len(t, updateEvents, 3)
	assert.Equal(t, "OpenAI", updateEvents[0].Entity)
}

func TestServiceUpdater_FetchFailureAbortsRun(t *testing.T) {
	store := &fakeStore{
		queryFn: func(string, notion.Filter) ([]notion.Page, error) {
			return nil, errors.New("boom")
		},
	}
	u := NewServiceUpdater(Deps{Store: store}, "db-svc")

	_, err := u.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "fetch services")
}

func TestServiceUpdater_FailedRowIsSkipped(t *testing.T) {
	store := &fakeStore{
		queryFn: func(string, notion.Filter) ([]notion.Page, error) {
			return []notion.Page{
				profileRow("svc-1", "OpenAI", "Monthly", "2024-03-15", ""),
				profileRow("svc-2", "Hosting", "Monthly", "2024-03-20", ""),
			}, nil
		},
		updateErr: map[string]error{"svc-1": errors.New("conflict")},
	}
	u := NewServiceUpdater(Deps{Store: store}, "db-svc")
	u.today = func() time.Time { return midnight("2024-04-10") }

	stats, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Updated: 1, Failed: 1}, stats)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "svc-2", store.updates[0].pageID)
}
