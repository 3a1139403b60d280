package models

import "strings"

// PriceToleranceBRL is the absolute tolerance used when cross-checking a
// webhook amount against the catalog price. Mismatches beyond it are logged
// for manual review but never block crediting: the processor has already
// captured the money by the time the webhook fires.
const PriceToleranceBRL = 0.01

// Plan is a static catalog entry for a credit pack. The catalog is compiled
// in; plans change rarely and a DB round-trip inside the webhook path buys
// nothing.
type Plan struct {
	ID       string
	Name     string
	Photos   int
	PriceBRL float64
}

var planCatalog = []Plan{
	{ID: "1", Name: "Essencial", Photos: 1, PriceBRL: 9.90},
	{ID: "2", Name: "Restaura 5", Photos: 5, PriceBRL: 29.90},
	{ID: "3", Name: "Família", Photos: 10, PriceBRL: 49.90},
}

// GetPlanByID resolves a catalog plan. Returns nil for unknown ids; callers
// on the webhook path must treat that as a soft anomaly, not a rejection.
func GetPlanByID(id string) *Plan {
	key := strings.TrimSpace(id)
	for i := range planCatalog {
		if planCatalog[i].ID == key {
			return &planCatalog[i]
		}
	}
	return nil
}

// AllPlans returns the catalog in display order.
func AllPlans() []Plan {
	out := make([]Plan, len(planCatalog))
	copy(out, planCatalog)
	return out
}
