package models

import (
	"time"

	"github.com/nsynca/nsynca/internal/notion"
)

// Entry types discriminating the two service-row subtypes.
const (
	EntryTypeProfile = "Service Profile"
	EntryTypeCharge  = "Charge"
)

// Workspace property names on service rows.
const (
	PropName          = "Name"
	PropEntryType     = "Entry Type"
	PropBillingCycle  = "Billing Cycle"
	propLastPayment   = "Last Payment Date"
	propEndDate       = "End Date"
	PropPrice         = "Price"
	PropDate          = "Date"
	PropLinkedService = "Linked Service"
)

// Target property names written back to service rows.
const (
	UpdateStatus      = "Status"
	UpdateNextDueDate = "Next Due Date"
)

// Service is a typed view over one service row: either a recurring
// subscription profile or a billed charge instance, per EntryType.
type Service struct {
	ID           string
	Name         string
	EntryType    string
	BillingCycle string // "" when not set

	// Profile fields.
	LastPaymentAt *time.Time
	EndDateAt     *time.Time

	// Charge fields.
	Price          *float64
	Date           *time.Time
	LinkedServices []string
}

// NewService builds a Service from a raw page. Profile and charge
// fields are extracted unconditionally; absent ones stay nil.
func NewService(pg notion.Page) Service {
	s := Service{
		ID:             pg.ID,
		Name:           pg.Prop(PropName).TitleText(),
		EntryType:      pg.Prop(PropEntryType).SelectName(),
		BillingCycle:   pg.Prop(PropBillingCycle).SelectName(),
		Price:          pg.Prop(PropPrice).Number,
		LinkedServices: pg.Prop(PropLinkedService).RelationIDs(),
	}
	if s.Name == "" {
		s.Name = notion.ExtractTitle(&pg)
	}
	// Last payment arrives through a rollup over linked charges.
	if t, ok := ParseISODate(pg.Prop(propLastPayment).RollupDateStart()); ok {
		s.LastPaymentAt = &t
	}
	if t, ok := ParseISODate(pg.Prop(propEndDate).DateStart()); ok {
		s.EndDateAt = &t
	}
	if t, ok := ParseISODate(pg.Prop(PropDate).DateStart()); ok {
		s.Date = &t
	}
	return s
}

// IsLinkedTo reports whether this row bills against the given service
// profile.
func (s Service) IsLinkedTo(serviceID string) bool {
	for _, id := range s.LinkedServices {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ServiceCollection is an immutable snapshot of service rows.
type ServiceCollection struct {
	Services []Service
}

// NewServiceCollection wraps raw pages into typed services, preserving
// fetch order.
func NewServiceCollection(pages []notion.Page) ServiceCollection {
	services := make([]Service, 0, len(pages))
	for _, pg := range pages {
		services = append(services, NewService(pg))
	}
	return ServiceCollection{Services: services}
}

// TotalCount returns the number of rows in the collection.
func (c ServiceCollection) TotalCount() int {
	return len(c.Services)
}

// FilterByEntryType returns a new collection holding only rows of the
// given entry type.
func (c ServiceCollection) FilterByEntryType(entryType string) ServiceCollection {
	var filtered []Service
	for _, s := range c.Services {
		if s.EntryType == entryType {
			filtered = append(filtered, s)
		}
	}
	return ServiceCollection{Services: filtered}
}

// ChargesForService returns the charge rows billing against the given
// service profile: entry type Charge and membership in the linked
// relation are both required.
func (c ServiceCollection) ChargesForService(serviceID string) []Service {
	var charges []Service
	for _, s := range c.Services {
		if s.EntryType == EntryTypeCharge && s.IsLinkedTo(serviceID) {
			charges = append(charges, s)
		}
	}
	return charges
}
