package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/models"
)

// DeploymentUpdater writes deployment summaries (latest deploy per
// environment, release counts) onto project rows.
type DeploymentUpdater struct {
	pages
	databaseID string
}

// NewDeploymentUpdater builds a deployment updater over the given
// deployments database.
func NewDeploymentUpdater(deps Deps, databaseID string) *DeploymentUpdater {
	return &DeploymentUpdater{pages: newPages(deps), databaseID: databaseID}
}

func (u *DeploymentUpdater) Name() string { return string(KindDeployment) }

// Run fetches all deployments once, groups them by project, and updates
// every project that has at least one deployment. Projects with no
// deployments are never visited. A failed project is logged and
// skipped; only the initial fetch aborts the run.
func (u *DeploymentUpdater) Run(ctx context.Context) (Stats, error) {
	u.log.Info("starting deployment updates")
	u.status("Fetching deployments...")

	raw, err := u.store.QueryDatabase(ctx, u.databaseID, nil)
	if err != nil {
		u.log.Error("failed to fetch deployments", zap.Error(err))
		return Stats{}, fmt.Errorf("fetch deployments: %w", err)
	}

	collection := models.NewDeploymentCollection(raw)
	grouped := collection.GroupByProject()
	u.log.Info("grouped deployments", zap.Int("projects", len(grouped)))

	var stats Stats
	for projectID, deployments := range grouped {
		stats.Processed++
		if err := u.processProject(ctx, projectID, deployments); err != nil {
			stats.Failed++
			u.log.Error("deployment update failed for project",
				zap.String("project_id", projectID), zap.Error(err))
			continue
		}
		stats.Updated++
	}

	u.log.Info("deployment updates complete",
		zap.Int("updated", stats.Updated), zap.Int("failed", stats.Failed))
	return stats, nil
}

func (u *DeploymentUpdater) processProject(ctx context.Context, projectID string, deployments []models.Deployment) error {
	name, err := u.pageTitle(ctx, projectID)
	if err != nil {
		return err
	}

	latestDev, latestProd := models.LatestDeployments(deployments)
	devCount, prodCount := 0, 0
	for _, d := range deployments {
		if d.HasDev() {
			devCount++
		}
		if d.HasProd() {
			prodCount++
		}
	}

	u.logDeploymentInfo(name, latestDev, latestProd, devCount, prodCount)

	updates := models.PrepareDeploymentUpdates(latestDev, latestProd, devCount, prodCount)
	return u.applyUpdates(ctx, EventProjectUpdate, projectID, name, updates)
}

func (u *DeploymentUpdater) logDeploymentInfo(name string, latestDev, latestProd *models.Deployment, devCount, prodCount int) {
	if latestDev != nil {
		u.log.Info("latest dev deployment",
			zap.String("project", name),
			zap.String("version", latestDev.Version),
			zap.String("date", latestDev.DevDateString()))
	} else {
		u.log.Warn("no dev deployment", zap.String("project", name))
	}
	if latestProd != nil {
		u.log.Info("latest prod deployment",
			zap.String("project", name),
			zap.String("version", latestProd.Version),
			zap.String("date", latestProd.ProdDateString()))
	} else {
		u.log.Warn("no prod deployment", zap.String("project", name))
	}
	u.log.Info("release counts",
		zap.String("project", name),
		zap.Int("dev", devCount), zap.Int("prod", prodCount))
}
