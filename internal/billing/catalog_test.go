package billing

import (
	"testing"

	"github.com/emailcraft/billing-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogListOrder(t *testing.T) {
	catalog := NewCatalog()

	plans := catalog.ListPlans()
	require.Len(t, plans, 3)
	assert.Equal(t, models.PlanStarter, plans[0].ID)
	assert.Equal(t, models.PlanProfessional, plans[1].ID)
	assert.Equal(t, models.PlanEnterprise, plans[2].ID)
}

func TestCatalogListReturnsCopy(t *testing.T) {
	catalog := NewCatalog()

	plans := catalog.ListPlans()
	plans[0].MonthlyPriceMinor = 1

	fresh, err := catalog.GetPlan(models.PlanStarter)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), fresh.MonthlyPriceMinor)
}

func TestCatalogGetPlanUnknown(t *testing.T) {
	catalog := NewCatalog()

	_, err := catalog.GetPlan("platinum")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanPriceMinorByCycle(t *testing.T) {
	catalog := NewCatalog()

	cases := []struct {
		plan    models.PlanID
		cycle   models.BillingCycle
		expect  int64
	}{
		{models.PlanStarter, models.BillingMonthly, 2500},
		{models.PlanStarter, models.BillingYearly, 1900},
		{models.PlanProfessional, models.BillingMonthly, 5900},
		{models.PlanProfessional, models.BillingYearly, 4900},
		{models.PlanEnterprise, models.BillingMonthly, 12900},
		{models.PlanEnterprise, models.BillingYearly, 9900},
	}
	for _, tc := range cases {
		plan, err := catalog.GetPlan(tc.plan)
		require.NoError(t, err)
		assert.Equal(t, tc.expect, plan.PriceMinor(tc.cycle), "%s/%s", tc.plan, tc.cycle)
	}
}

func TestPlanSupportsCurrency(t *testing.T) {
	catalog := NewCatalog()

	for _, plan := range catalog.ListPlans() {
		assert.True(t, plan.SupportsCurrency(models.CurrencyUSD))
		assert.True(t, plan.SupportsCurrency(models.CurrencyEUR))
		assert.True(t, plan.SupportsCurrency(models.CurrencyGBP))
		assert.False(t, plan.SupportsCurrency("JPY"))
	}
}
