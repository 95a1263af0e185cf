package catalog

// Records is the raw catalog as loaded from persistence or an import file.
type Records struct {
	Products []ProductRecord `json:"products" yaml:"products"`
	Promos   []PromoRecord   `json:"promos" yaml:"promos"`
	Bundles  []BundleRecord  `json:"bundles" yaml:"bundles"`
	Tiers    []TierRecord    `json:"tiers" yaml:"tiers"`
}

// ProductRecord describes one product and the promos it is linked to.
type ProductRecord struct {
	StockNo   string            `json:"stock_no" yaml:"stock_no" validate:"required,max=64"`
	Name      string            `json:"name" yaml:"name" validate:"required"`
	Price     int64             `json:"price" yaml:"price" validate:"gte=0"`
	Stock     int64             `json:"stock" yaml:"stock"` // seeds new products; re-imports keep the live count
	Shorthand string            `json:"shorthand,omitempty" yaml:"shorthand,omitempty" validate:"omitempty,max=32"`
	ImageRef  string            `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
	Promos    []PromoLinkRecord `json:"promos,omitempty" yaml:"promos,omitempty" validate:"dive"`
}

// PromoLinkRecord links a product to a promo type with an optional price.
type PromoLinkRecord struct {
	Code  string `json:"code" yaml:"code" validate:"required"`
	Price *int64 `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gte=0"`
}

// PromoRecord defines a promo type. Price is nil when the store does not
// carry promo prices.
type PromoRecord struct {
	Code         string `json:"code" yaml:"code" validate:"required,max=32"`
	Name         string `json:"name" yaml:"name" validate:"required"`
	UnitsPerSale int32  `json:"units_per_sale" yaml:"units_per_sale" validate:"gte=1"`
	Price        *int64 `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gte=0"`
}

// BundleRecord defines a fixed-price bundle and its ordered components.
type BundleRecord struct {
	Code       string            `json:"code" yaml:"code" validate:"required,max=32"`
	Name       string            `json:"name" yaml:"name" validate:"required"`
	Price      int64             `json:"price" yaml:"price" validate:"gte=0"`
	SKU        string            `json:"sku,omitempty" yaml:"sku,omitempty"`
	Components []ComponentRecord `json:"components" yaml:"components" validate:"required,min=1,dive"`
}

// TierRecord defines a basket tier and its freebies.
type TierRecord struct {
	Code      string            `json:"code" yaml:"code" validate:"required,max=32"`
	Name      string            `json:"name" yaml:"name" validate:"required"`
	Threshold int64             `json:"threshold" yaml:"threshold" validate:"gt=0"`
	Message   string            `json:"message,omitempty" yaml:"message,omitempty"`
	Freebies  []ComponentRecord `json:"freebies,omitempty" yaml:"freebies,omitempty" validate:"dive"`
}

// ComponentRecord is a product quantity inside a bundle or tier.
type ComponentRecord struct {
	StockNo      string `json:"stock_no" yaml:"stock_no" validate:"required"`
	VariantIndex int32  `json:"variant_index,omitempty" yaml:"variant_index,omitempty" validate:"gte=0"`
	Quantity     int32  `json:"quantity" yaml:"quantity" validate:"gte=1"`
}
