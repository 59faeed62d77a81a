package billing

import (
	"errors"

	"github.com/emailcraft/billing-backend/internal/models"
)

var ErrPlanNotFound = errors.New("plan not found")

// Plan is a catalog entry. All prices are integer minor units (cents); the
// catalog is defined at process start and never mutated.
type Plan struct {
	ID                models.PlanID     `json:"id"`
	Name              string            `json:"name"`
	MonthlyPriceMinor int64             `json:"monthlyPriceMinor"`
	YearlyPriceMinor  int64             `json:"yearlyPriceMinor"`
	ContactLimit      int               `json:"contactLimit"`
	EmailLimit        int               `json:"emailLimit"`
	Features          []string          `json:"features"`
	Currencies        []models.Currency `json:"currencies"`
}

// PriceMinor returns the charge amount for one billing period.
func (p Plan) PriceMinor(cycle models.BillingCycle) int64 {
	if cycle == models.BillingYearly {
		return p.YearlyPriceMinor
	}
	return p.MonthlyPriceMinor
}

// SupportsCurrency reports whether the plan can be billed in the given currency.
// The plan's currency list is the source of truth, not the gateway or the UI.
func (p Plan) SupportsCurrency(currency models.Currency) bool {
	for _, c := range p.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

// Catalog is the static plan table. Pure lookups, no side effects.
type Catalog struct {
	ordered []Plan
	byID    map[models.PlanID]Plan
}

var allCurrencies = []models.Currency{models.CurrencyUSD, models.CurrencyEUR, models.CurrencyGBP}

// NewCatalog builds the production plan table. Listing order is fixed:
// starter, professional, enterprise.
func NewCatalog() *Catalog {
	plans := []Plan{
		{
			ID:                models.PlanStarter,
			Name:              "Starter",
			MonthlyPriceMinor: 2500,
			YearlyPriceMinor:  1900,
			ContactLimit:      1000,
			EmailLimit:        5000,
			Features:          []string{"Basic email editor", "Contact management", "Basic analytics", "Email support"},
			Currencies:        allCurrencies,
		},
		{
			ID:                models.PlanProfessional,
			Name:              "Professional",
			MonthlyPriceMinor: 5900,
			YearlyPriceMinor:  4900,
			ContactLimit:      5000,
			EmailLimit:        25000,
			Features:          []string{"Advanced email editor", "AI subject lines", "Advanced analytics", "A/B testing", "Priority support"},
			Currencies:        allCurrencies,
		},
		{
			ID:                models.PlanEnterprise,
			Name:              "Enterprise",
			MonthlyPriceMinor: 12900,
			YearlyPriceMinor:  9900,
			ContactLimit:      25000,
			EmailLimit:        100000,
			Features:          []string{"All Professional features", "Custom integrations", "Dedicated support", "White-label options"},
			Currencies:        allCurrencies,
		},
	}

	byID := make(map[models.PlanID]Plan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}
	return &Catalog{ordered: plans, byID: byID}
}

// GetPlan looks up a plan by id.
func (c *Catalog) GetPlan(id models.PlanID) (Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// ListPlans returns all plans in catalog order. The slice is a copy; callers
// cannot mutate the catalog through it.
func (c *Catalog) ListPlans() []Plan {
	out := make([]Plan, len(c.ordered))
	copy(out, c.ordered)
	return out
}
