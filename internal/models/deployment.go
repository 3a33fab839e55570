package models

import (
	"time"

	"github.com/nsynca/nsynca/internal/notion"
)

// Workspace property names on deployment rows.
const (
	propProject      = "Project"
	propVersion      = "Version"
	propDevDeployed  = "Dev Deployed Date"
	propProdDeployed = "Prod Deployed Date"
)

// Target property names written back to project rows.
const (
	UpdateLastDevDeploy   = "Last Dev Deploy"
	UpdateLastDevVersion  = "Last Dev Version"
	UpdateLastProdDeploy  = "Last Prod Deploy"
	UpdateLastProdVersion = "Last Prod Version"
	UpdateDevReleases     = "Nb Dev Releases"
	UpdateProdReleases    = "Nb Prod Releases"
)

// Deployment is a typed view over one deployment row. A deployment may
// carry neither, either, or both environment dates.
type Deployment struct {
	ID        string
	ProjectID string // first related project, "" when unlinked
	Version   string // "" when the title text is missing

	DevDate  *time.Time
	ProdDate *time.Time

	devDateRaw  string
	prodDateRaw string
}

// NewDeployment builds a Deployment from a raw page. Missing or
// malformed fields degrade to zero values, never errors.
func NewDeployment(pg notion.Page) Deployment {
	d := Deployment{
		ID:        pg.ID,
		ProjectID: pg.Prop(propProject).FirstRelationID(),
		Version:   pg.Prop(propVersion).TitleText(),
	}
	d.devDateRaw = pg.Prop(propDevDeployed).DateStart()
	d.prodDateRaw = pg.Prop(propProdDeployed).DateStart()
	if t, ok := ParseISODate(d.devDateRaw); ok {
		d.DevDate = &t
	}
	if t, ok := ParseISODate(d.prodDateRaw); ok {
		d.ProdDate = &t
	}
	return d
}

// HasDev reports whether this deployment reached the dev environment.
func (d Deployment) HasDev() bool { return d.DevDate != nil }

// HasProd reports whether this deployment reached production.
func (d Deployment) HasProd() bool { return d.ProdDate != nil }

// DevDateString returns the raw ISO start of the dev date, or "".
func (d Deployment) DevDateString() string { return d.devDateRaw }

// ProdDateString returns the raw ISO start of the prod date, or "".
func (d Deployment) ProdDateString() string { return d.prodDateRaw }

// DeploymentCollection is an immutable snapshot of deployment rows,
// built once per updater run.
type DeploymentCollection struct {
	Deployments []Deployment
}

// NewDeploymentCollection wraps raw pages into typed deployments,
// preserving fetch order.
func NewDeploymentCollection(pages []notion.Page) DeploymentCollection {
	deployments := make([]Deployment, 0, len(pages))
	for _, pg := range pages {
		deployments = append(deployments, NewDeployment(pg))
	}
	return DeploymentCollection{Deployments: deployments}
}

// GroupByProject buckets deployments by their project id, keeping fetch
// order within each bucket. Deployments without a resolvable project
// are dropped.
func (c DeploymentCollection) GroupByProject() map[string][]Deployment {
	grouped := make(map[string][]Deployment)
	for _, d := range c.Deployments {
		if d.ProjectID == "" {
			continue
		}
		grouped[d.ProjectID] = append(grouped[d.ProjectID], d)
	}
	return grouped
}

// LatestDeployments finds, independently per environment, the
// deployment with the maximum date among those carrying that
// environment's date. Ties resolve to the earliest record in input
// order, so the result is deterministic for a given fetch.
func LatestDeployments(deployments []Deployment) (latestDev, latestProd *Deployment) {
	for i := range deployments {
		d := &deployments[i]
		if d.HasDev() && (latestDev == nil || d.DevDate.After(*latestDev.DevDate)) {
			latestDev = d
		}
		if d.HasProd() && (latestProd == nil || d.ProdDate.After(*latestProd.ProdDate)) {
			latestProd = d
		}
	}
	return latestDev, latestProd
}

// PrepareDeploymentUpdates derives the project property payload from
// deployment data. Date and version are emitted together or not at all;
// release counts are always emitted, zero included.
func PrepareDeploymentUpdates(latestDev, latestProd *Deployment, devCount, prodCount int) notion.Properties {
	updates := notion.Properties{}

	if latestDev != nil && latestDev.DevDateString() != "" {
		updates[UpdateLastDevDeploy] = notion.DateProp(latestDev.DevDateString())
		updates[UpdateLastDevVersion] = notion.RichTextProp(latestDev.Version)
	}
	if latestProd != nil && latestProd.ProdDateString() != "" {
		updates[UpdateLastProdDeploy] = notion.DateProp(latestProd.ProdDateString())
		updates[UpdateLastProdVersion] = notion.RichTextProp(latestProd.Version)
	}

	updates[UpdateDevReleases] = notion.NumberProp(float64(devCount))
	updates[UpdateProdReleases] = notion.NumberProp(float64(prodCount))

	return updates
}
