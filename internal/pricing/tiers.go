package pricing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/catalog"
)

// TierPolicy controls how often a basket tier fires per transaction.
type TierPolicy string

const (
	// TierPolicyOnce fires each reached tier exactly once.
	TierPolicyOnce TierPolicy = "once"
	// TierPolicyPerMultiple fires a tier once per full multiple of its threshold.
	TierPolicyPerMultiple TierPolicy = "per_multiple"
)

// ParseTierPolicy parses a configuration value. Empty means TierPolicyOnce.
func ParseTierPolicy(v string) (TierPolicy, error) {
	switch TierPolicy(strings.ToLower(strings.TrimSpace(v))) {
	case "", TierPolicyOnce:
		return TierPolicyOnce, nil
	case TierPolicyPerMultiple:
		return TierPolicyPerMultiple, nil
	default:
		return "", fmt.Errorf("unknown tier policy %q", v)
	}
}

// Freebie is a free item granted by an earned tier.
type Freebie struct {
	StockNo      string `json:"stock_no"`
	VariantIndex int32  `json:"variant_index"`
	Quantity     int64  `json:"quantity"`
}

// EarnedTier is a tier reached by a subtotal. Freebie quantities already
// include Times.
type EarnedTier struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Message   string    `json:"message,omitempty"`
	Threshold Money     `json:"threshold"`
	Times     int64     `json:"times"`
	Freebies  []Freebie `json:"freebies,omitempty"`
}

// TierEngine evaluates basket tiers against a subtotal.
type TierEngine struct {
	Tiers  []catalog.Tier
	Policy TierPolicy
}

// Evaluate returns the earned tiers by threshold ascending. Tiers with a
// non-positive threshold never fire.
func (e TierEngine) Evaluate(subtotal Money) []EarnedTier {
	tiers := slices.Clone(e.Tiers)
	slices.SortStableFunc(tiers, func(a, b catalog.Tier) int {
		if a.Threshold != b.Threshold {
			if a.Threshold < b.Threshold {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Code, b.Code)
	})
	var out []EarnedTier
	for _, t := range tiers {
		if t.Threshold <= 0 || subtotal < t.Threshold {
			continue
		}
		times := int64(1)
		if e.Policy == TierPolicyPerMultiple {
			times = subtotal / t.Threshold
		}
		earned := EarnedTier{
			Code:      t.Code,
			Name:      t.Name,
			Message:   t.Message,
			Threshold: t.Threshold,
			Times:     times,
		}
		for _, f := range t.Freebies {
			earned.Freebies = append(earned.Freebies, Freebie{
				StockNo:      f.StockNo,
				VariantIndex: f.VariantIndex,
				Quantity:     int64(f.Quantity) * times,
			})
		}
		out = append(out, earned)
	}
	return out
}
