package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentroll/internal/core"
)

func TestBalances(t *testing.T) {
	tenants := []core.Tenant{
		{ID: "a", Name: "Acme", BaseRent: core.Money{Cents: 500000}},
		{ID: "b", Name: "Bistro", BaseRent: core.Money{Cents: 300000}},
	}
	payments := []core.Payment{
		{TenantID: "a", Amount: core.Money{Cents: 200000}},
		{TenantID: "a", Amount: core.Money{Cents: 100000}},
		{TenantID: "b", Amount: core.Money{Cents: 350000}},
		{TenantID: "ghost", Amount: core.Money{Cents: 999}},
	}

	got := Balances(tenants, payments)

	require.Len(t, got, 2)
	assert.Equal(t, int64(200000), got[0].Balance.Cents)
	assert.Equal(t, int64(300000), got[0].Paid.Cents)
	assert.Equal(t, int64(-50000), got[1].Balance.Cents, "overpayment is a credit")
	assert.Equal(t, got[0].Balance, Balance(tenants[0], payments))
}

func TestBalanceWithoutPayments(t *testing.T) {
	tn := core.Tenant{ID: "a", BaseRent: core.Money{Cents: 1000}}
	assert.Equal(t, int64(1000), Balance(tn, nil).Cents)
}

func TestRecent(t *testing.T) {
	payments := []core.Payment{
		{ID: "1", Date: core.NewDate(2024, 1, 1)},
		{ID: "2", Date: core.NewDate(2024, 3, 1)},
		{ID: "3", Date: core.NewDate(2024, 2, 1)},
		{ID: "4", Date: core.NewDate(2024, 3, 1)},
	}

	got := Recent(payments, 3)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"2", "4", "3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "1", payments[0].ID, "input untouched")
	assert.Len(t, Recent(payments, 10), 4)
}
