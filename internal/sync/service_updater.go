package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/models"
	"github.com/nsynca/nsynca/internal/notion"
)

// ServiceUpdater writes billing status and next-due-date onto service
// profile rows.
type ServiceUpdater struct {
	pages
	databaseID string
}

// NewServiceUpdater builds a service updater over the given services
// database.
func NewServiceUpdater(deps Deps, databaseID string) *ServiceUpdater {
	return &ServiceUpdater{pages: newPages(deps), databaseID: databaseID}
}

func (u *ServiceUpdater) Name() string { return string(KindService) }

// Run fetches all service profile rows and updates each with its
// derived status and rolled-forward due date. A failed row is logged
// and skipped.
func (u *ServiceUpdater) Run(ctx context.Context) (Stats, error) {
	u.log.Info("starting service updates")
	u.status("Fetching services...")

	raw, err := u.store.QueryDatabase(ctx, u.databaseID,
		notion.SelectEquals(models.PropEntryType, models.EntryTypeProfile))
	if err != nil {
		u.log.Error("failed to fetch services", zap.Error(err))
		return Stats{}, fmt.Errorf("fetch services: %w", err)
	}

	collection := models.NewServiceCollection(raw)
	u.log.Info("fetched service profiles", zap.Int("services", collection.TotalCount()))

	var stats Stats
	for _, s := range collection.Services {
		stats.Processed++
		if err := u.processService(ctx, s); err != nil {
			stats.Failed++
			u.log.Error("service update failed",
				zap.String("service", s.Name), zap.String("page_id", s.ID), zap.Error(err))
			continue
		}
		stats.Updated++
	}

	u.log.Info("service updates complete",
		zap.Int("updated", stats.Updated), zap.Int("failed", stats.Failed))
	return stats, nil
}

func (u *ServiceUpdater) processService(ctx context.Context, s models.Service) error {
	updates := models.ComputeServiceUpdate(s, u.today())
	return u.applyUpdates(ctx, EventServiceUpdate, s.ID, s.Name, updates)
}
