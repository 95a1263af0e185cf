package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

func tierFixture() []catalog.Tier {
	return []catalog.Tier{
		{Code: "GOLD", Name: "Gold", Threshold: 20000, Freebies: []catalog.Component{{StockNo: "G", Quantity: 1}}},
		{Code: "BRONZE", Name: "Bronze", Threshold: 5000, Freebies: []catalog.Component{{StockNo: "B", Quantity: 2}}},
		{Code: "BROKEN", Name: "Broken", Threshold: 0, Freebies: []catalog.Component{{StockNo: "Z", Quantity: 1}}},
	}
}

func TestTierPolicyOnce(t *testing.T) {
	engine := pricing.TierEngine{Tiers: tierFixture(), Policy: pricing.TierPolicyOnce}

	earned := engine.Evaluate(21000)
	require.Len(t, earned, 2)
	require.Equal(t, "BRONZE", earned[0].Code)
	require.Equal(t, int64(1), earned[0].Times)
	require.Equal(t, int64(2), earned[0].Freebies[0].Quantity)
	require.Equal(t, "GOLD", earned[1].Code)

	require.Empty(t, engine.Evaluate(4999))
	require.Len(t, engine.Evaluate(5000), 1)
}

func TestTierPolicyPerMultiple(t *testing.T) {
	engine := pricing.TierEngine{Tiers: tierFixture(), Policy: pricing.TierPolicyPerMultiple}

	earned := engine.Evaluate(21000)
	require.Len(t, earned, 2)
	require.Equal(t, int64(4), earned[0].Times)
	require.Equal(t, int64(8), earned[0].Freebies[0].Quantity)
	require.Equal(t, int64(1), earned[1].Times)
	require.Equal(t, int64(1), earned[1].Freebies[0].Quantity)
}

func TestParseTierPolicy(t *testing.T) {
	p, err := pricing.ParseTierPolicy("")
	require.NoError(t, err)
	require.Equal(t, pricing.TierPolicyOnce, p)

	p, err = pricing.ParseTierPolicy(" PER_MULTIPLE ")
	require.NoError(t, err)
	require.Equal(t, pricing.TierPolicyPerMultiple, p)

	_, err = pricing.ParseTierPolicy("sometimes")
	require.Error(t, err)
}
