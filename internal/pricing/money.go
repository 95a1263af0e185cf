package pricing

import "math"

// MaxLineQty is the largest quantity a single cart line may carry.
const MaxLineQty = math.MaxInt32

// mulMoney returns a*b or ErrAmountOverflow when the product does not fit.
func mulMoney(a, b int64) (Money, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrAmountOverflow
	}
	return p, nil
}

// addMoney returns a+b or ErrAmountOverflow when the sum does not fit.
func addMoney(a, b Money) (Money, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, ErrAmountOverflow
	}
	return s, nil
}
