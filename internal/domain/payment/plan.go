package payment

import "fmt"

// Plan describes a purchasable tier: a duration of paid time at a price.
// The plan id is what ends up on the license record; it carries no
// structural meaning beyond display and pricing.
type Plan struct {
	ID           string
	Name         string
	DurationDays int
	AmountCents  int64
	Currency     string
}

// DefaultPlans is the catalog of purchasable tiers.
var DefaultPlans = []Plan{
	{ID: "7days", Name: "7 dias", DurationDays: 7, AmountCents: 1990, Currency: "BRL"},
	{ID: "30days", Name: "30 dias", DurationDays: 30, AmountCents: 4990, Currency: "BRL"},
	{ID: "90days", Name: "90 dias", DurationDays: 90, AmountCents: 11990, Currency: "BRL"},
}

// LookupPlan finds a plan by id in the catalog.
func LookupPlan(planID string) (Plan, error) {
	for _, p := range DefaultPlans {
		if p.ID == planID {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("unknown plan: %s", planID)
}
