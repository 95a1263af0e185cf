package pricing

import (
	"fmt"

	"github.com/noah-isme/backend-kasir/internal/common"
)

var (
	// ErrNoSuchProduct is returned when a code matches no product or bundle.
	ErrNoSuchProduct = fmt.Errorf("no such product: %w", common.ErrNotFound)
	// ErrUnknownBundle is returned when a bundle code is not defined.
	ErrUnknownBundle = fmt.Errorf("unknown bundle: %w", common.ErrNotFound)
	// ErrInvalidQuantity is returned for non-positive line quantities.
	ErrInvalidQuantity = fmt.Errorf("quantity must be positive: %w", common.ErrValidation)
	// ErrAmountOverflow is returned when a line or cart total does not fit in
	// minor units.
	ErrAmountOverflow = fmt.Errorf("amount out of range: %w", common.ErrValidation)
	// ErrEmptyCart is returned when pricing a cart with no lines.
	ErrEmptyCart = fmt.Errorf("cart is empty: %w", common.ErrValidation)
	// ErrCatalogUnavailable is returned when the engine has no catalog index.
	ErrCatalogUnavailable = fmt.Errorf("catalog unavailable: %w", common.ErrPersistence)
)
