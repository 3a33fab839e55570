package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/models"
	"github.com/nsynca/nsynca/internal/notion"
)

// ChargeUpdater detects recurring charges missing from a service
// profile's billing history and creates them.
type ChargeUpdater struct {
	pages
	databaseID string
}

// NewChargeUpdater builds a charge updater over the given services
// database (profiles and charges live in the same container).
func NewChargeUpdater(deps Deps, databaseID string) *ChargeUpdater {
	return &ChargeUpdater{pages: newPages(deps), databaseID: databaseID}
}

func (u *ChargeUpdater) Name() string { return string(KindCharge) }

// Run fetches billable service profiles and all existing charges once,
// then creates any charge expected between a profile's earliest charge
// and today that has no exact-date match. Profiles whose history cannot
// seed the walk (no charge at all, or no price on file) are skipped
// with a logged error.
func (u *ChargeUpdater) Run(ctx context.Context) (Stats, error) {
	u.log.Info("starting charge creation")
	u.status("Fetching service profiles and charges...")

	profiles, err := u.fetchBillableProfiles(ctx)
	if err != nil {
		u.log.Error("failed to fetch service profiles", zap.Error(err))
		return Stats{}, fmt.Errorf("fetch service profiles: %w", err)
	}
	u.log.Info("fetched billable profiles", zap.Int("profiles", profiles.TotalCount()))
	if profiles.TotalCount() == 0 {
		u.log.Warn("no service profiles match the billing-cycle criteria")
		return Stats{}, nil
	}

	charges, err := u.store.QueryDatabase(ctx, u.databaseID,
		notion.SelectEquals(models.PropEntryType, models.EntryTypeCharge))
	if err != nil {
		u.log.Error("failed to fetch charges", zap.Error(err))
		return Stats{}, fmt.Errorf("fetch charges: %w", err)
	}
	chargeCollection := models.NewServiceCollection(charges)
	u.log.Info("fetched existing charges", zap.Int("charges", chargeCollection.TotalCount()))

	var stats Stats
	for _, profile := range profiles.Services {
		stats.Processed++
		created, err := u.processProfile(ctx, profile, chargeCollection)
		stats.Created += created
		if err != nil {
			stats.Failed++
			u.log.Error("charge creation failed for service",
				zap.String("service", profile.Name), zap.Error(err))
			continue
		}
	}

	u.log.Info("charge creation complete",
		zap.Int("created", stats.Created), zap.Int("failed", stats.Failed))
	return stats, nil
}

// fetchBillableProfiles queries service profiles with a monthly or
// yearly billing cycle.
func (u *ChargeUpdater) fetchBillableProfiles(ctx context.Context) (models.ServiceCollection, error) {
	filter := notion.And(
		notion.SelectEquals(models.PropEntryType, models.EntryTypeProfile),
		notion.Or(
			notion.SelectEquals(models.PropBillingCycle, "Monthly"),
			notion.SelectEquals(models.PropBillingCycle, "Yearly"),
		),
	)
	raw, err := u.store.QueryDatabase(ctx, u.databaseID, filter)
	if err != nil {
		return models.ServiceCollection{}, err
	}
	return models.NewServiceCollection(raw), nil
}

// processProfile creates the missing charges for one profile, returning
// how many were created. A creation failure aborts the remaining dates
// for this profile only.
func (u *ChargeUpdater) processProfile(ctx context.Context, profile models.Service, all models.ServiceCollection) (int, error) {
	existing := all.ChargesForService(profile.ID)
	u.log.Info("existing charges for service",
		zap.String("service", profile.Name), zap.Int("charges", len(existing)))

	missing, err := u.missingDates(profile, existing)
	if err != nil {
		return 0, err
	}
	if len(missing) == 0 {
		u.log.Info("all charges exist", zap.String("service", profile.Name))
		return 0, nil
	}

	price, err := chargePrice(profile, existing)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, date := range missing {
		props := models.NewChargeProperties(profile, date, price)
		if _, err := u.store.CreatePage(ctx, u.databaseID, props); err != nil {
			return created, err
		}
		created++
		name := models.ChargeName(profile.Name, date)
		u.log.Info("created charge", zap.String("charge", name))
		u.publish(Event{Kind: EventChargeCreated, Entity: name, Updates: notion.Flatten(props)})
	}
	return created, nil
}

// missingDates diffs the expected charge dates against the existing
// ones. The earliest existing charge seeds the walk; with no dated
// charge at all there is no way to infer a start date, which is an
// error for this profile.
func (u *ChargeUpdater) missingDates(profile models.Service, existing []models.Service) ([]time.Time, error) {
	var earliest *models.Service
	for i := range existing {
		c := &existing[i]
		if c.Date == nil {
			continue
		}
		if earliest == nil || c.Date.Before(*earliest.Date) {
			earliest = c
		}
	}
	if earliest == nil {
		return nil, fmt.Errorf("no existing charges for service %q: cannot determine start date", profile.Name)
	}

	expected := models.ExpectedChargeDates(*earliest.Date, profile.BillingCycle, u.today())
	if len(expected) == 0 {
		u.log.Info("no charges expected", zap.String("service", profile.Name),
			zap.String("billing_cycle", profile.BillingCycle))
		return nil, nil
	}

	have := make(map[time.Time]bool, len(existing))
	for _, c := range existing {
		if c.Date != nil {
			have[*c.Date] = true
		}
	}

	var missing []time.Time
	for _, date := range expected {
		if !have[date] {
			missing = append(missing, date)
		}
	}
	return missing, nil
}

// chargePrice takes the price of the most recently dated existing
// charge. A profile whose history carries no price is an error; the
// price cannot be inferred.
func chargePrice(profile models.Service, existing []models.Service) (float64, error) {
	var latest *models.Service
	for i := range existing {
		c := &existing[i]
		if c.Date == nil {
			continue
		}
		if latest == nil || c.Date.After(*latest.Date) {
			latest = c
		}
	}
	if latest != nil && latest.Price != nil {
		return *latest.Price, nil
	}
	return 0, fmt.Errorf("no existing charges with a price for service %q: cannot determine price", profile.Name)
}
