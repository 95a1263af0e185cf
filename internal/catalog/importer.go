package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/db"
	"github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// ErrInvalidImportFile is returned when an import file cannot be decoded at all.
var ErrInvalidImportFile = fmt.Errorf("invalid catalog import file: %w", common.ErrValidation)

// Amount is a decimal currency amount written in major units ("18.00").
type Amount struct {
	Value decimal.Decimal
	Set   bool
}

// UnmarshalYAML accepts quoted or bare decimal scalars.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	v := strings.TrimSpace(node.Value)
	if v == "" || node.Tag == "!!null" {
		*a = Amount{}
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q", node.Line, node.Value)
	}
	*a = Amount{Value: d, Set: true}
	return nil
}

// ImportFile is the on-disk catalog format. JSON files decode as well since
// the YAML decoder accepts JSON.
type ImportFile struct {
	Products []ImportProduct `yaml:"products"`
	Promos   []ImportPromo   `yaml:"promos"`
	Bundles  []ImportBundle  `yaml:"bundles"`
	Tiers    []ImportTier    `yaml:"tiers"`
}

type ImportProduct struct {
	StockNo   string            `yaml:"stock_no"`
	Name      string            `yaml:"name"`
	Price     Amount            `yaml:"price"`
	Stock     int64             `yaml:"stock"`
	Shorthand string            `yaml:"shorthand"`
	ImageRef  string            `yaml:"image_ref"`
	Promos    []ImportPromoLink `yaml:"promos"`
}

type ImportPromoLink struct {
	Code  string `yaml:"code"`
	Price Amount `yaml:"price"`
}

type ImportPromo struct {
	Code         string `yaml:"code"`
	Name         string `yaml:"name"`
	UnitsPerSale int32  `yaml:"units_per_sale"`
	Price        Amount `yaml:"price"`
}

type ImportBundle struct {
	Code       string            `yaml:"code"`
	Name       string            `yaml:"name"`
	Price      Amount            `yaml:"price"`
	SKU        string            `yaml:"sku"`
	Components []ComponentRecord `yaml:"components"`
}

type ImportTier struct {
	Code      string            `yaml:"code"`
	Name      string            `yaml:"name"`
	Threshold Amount            `yaml:"threshold"`
	Message   string            `yaml:"message"`
	Freebies  []ComponentRecord `yaml:"freebies"`
}

// DecodeImportFile parses a YAML or JSON catalog file.
func DecodeImportFile(r io.Reader) (ImportFile, error) {
	var file ImportFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return ImportFile{}, nil
		}
		return ImportFile{}, fmt.Errorf("%w: %w", ErrInvalidImportFile, err)
	}
	return file, nil
}

// ImportReport counts the outcome of an import.
type ImportReport struct {
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped []Skip `json:"skipped,omitempty"`
}

// Importer writes catalog records to the store. Each record is upserted in
// its own transaction so a rejected record never leaves siblings half written.
type Importer struct {
	Runner db.Runner
	Caps   db.Capabilities
	Logger *zerolog.Logger
	// Exponent is the number of minor-unit digits, 2 when zero.
	Exponent int32
}

// ImportFile decodes r and applies it.
func (im *Importer) ImportFile(ctx context.Context, r io.Reader) (ImportReport, error) {
	file, err := DecodeImportFile(r)
	if err != nil {
		return ImportReport{}, err
	}
	records, skipped := im.Records(file)
	report, err := im.Import(ctx, records)
	report.Skipped = append(skipped, report.Skipped...)
	return report, err
}

// Records converts decimal amounts to minor units. Records with amounts that
// cannot be represented are skipped.
func (im *Importer) Records(file ImportFile) (Records, []Skip) {
	var (
		out     Records
		skipped []Skip
	)
	skip := func(kind, key string, err error) {
		skipped = append(skipped, im.warn(kind, key, err.Error()))
	}
	for _, p := range file.Promos {
		rec := PromoRecord{Code: p.Code, Name: p.Name, UnitsPerSale: p.UnitsPerSale}
		price, err := im.optionalMinor(p.Price)
		if err != nil {
			skip("promo", p.Code, err)
			continue
		}
		rec.Price = price
		out.Promos = append(out.Promos, rec)
	}
	for _, p := range file.Products {
		price, err := im.minor(p.Price)
		if err != nil {
			skip("product", p.StockNo, err)
			continue
		}
		rec := ProductRecord{
			StockNo:   p.StockNo,
			Name:      p.Name,
			Price:     price,
			Stock:     p.Stock,
			Shorthand: p.Shorthand,
			ImageRef:  p.ImageRef,
		}
		bad := false
		for _, l := range p.Promos {
			lp, err := im.optionalMinor(l.Price)
			if err != nil {
				skip("product", p.StockNo, err)
				bad = true
				break
			}
			rec.Promos = append(rec.Promos, PromoLinkRecord{Code: l.Code, Price: lp})
		}
		if !bad {
			out.Products = append(out.Products, rec)
		}
	}
	for _, b := range file.Bundles {
		price, err := im.minor(b.Price)
		if err != nil {
			skip("bundle", b.Code, err)
			continue
		}
		out.Bundles = append(out.Bundles, BundleRecord{
			Code:       b.Code,
			Name:       b.Name,
			Price:      price,
			SKU:        b.SKU,
			Components: b.Components,
		})
	}
	for _, t := range file.Tiers {
		threshold, err := im.minor(t.Threshold)
		if err != nil {
			skip("tier", t.Code, err)
			continue
		}
		out.Tiers = append(out.Tiers, TierRecord{
			Code:      t.Code,
			Name:      t.Name,
			Threshold: threshold,
			Message:   t.Message,
			Freebies:  t.Freebies,
		})
	}
	return out, skipped
}

// Import upserts records in dependency order: promos, products, bundles, tiers.
func (im *Importer) Import(ctx context.Context, records Records) (ImportReport, error) {
	if im == nil || im.Runner == nil {
		return ImportReport{}, errors.New("catalog importer not configured")
	}
	var report ImportReport
	count := func(created bool) {
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}
	valid := func(kind, key string, rec any) bool {
		if err := common.Validator().Struct(rec); err != nil {
			report.Skipped = append(report.Skipped, im.warn(kind, key, describe(err)))
			return false
		}
		return true
	}

	for _, rec := range records.Promos {
		rec.Code = strings.TrimSpace(rec.Code)
		if !valid("promo", rec.Code, rec) {
			continue
		}
		var created bool
		err := im.Runner.InTx(ctx, func(q gen.Querier) error {
			var err error
			created, err = im.upsertPromo(ctx, q, rec)
			return err
		})
		if err != nil {
			if !db.IsConstraintViolation(err) {
				return report, db.Persistence("import promo "+rec.Code, err)
			}
			report.Skipped = append(report.Skipped, im.warn("promo", rec.Code, err.Error()))
			continue
		}
		count(created)
	}

	for _, rec := range records.Products {
		rec.StockNo = strings.TrimSpace(rec.StockNo)
		if !valid("product", rec.StockNo, rec) {
			continue
		}
		var (
			created bool
			missing []string
		)
		err := im.Runner.InTx(ctx, func(q gen.Querier) error {
			missing = missing[:0]
			row, err := q.UpsertProduct(ctx, gen.UpsertProductParams{
				StockNo:   rec.StockNo,
				Name:      rec.Name,
				Price:     rec.Price,
				Stock:     rec.Stock,
				Shorthand: optionalText(rec.Shorthand),
				ImageRef:  optionalText(rec.ImageRef),
			})
			if err != nil {
				return err
			}
			created = row.Created
			if err := q.DeletePromoLinksForProduct(ctx, row.ID); err != nil {
				return err
			}
			for _, link := range rec.Promos {
				code := strings.TrimSpace(link.Code)
				promoID, err := q.GetPromoTypeIDByCode(ctx, code)
				if db.IsNoRows(err) {
					missing = append(missing, code)
					continue
				}
				if err != nil {
					return err
				}
				if _, err := q.UpsertPromoLink(ctx, gen.UpsertPromoLinkParams{
					ProductID: row.ID,
					PromoID:   promoID,
					Price:     optionalInt8(link.Price),
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if !db.IsConstraintViolation(err) {
				return report, db.Persistence("import product "+rec.StockNo, err)
			}
			report.Skipped = append(report.Skipped, im.warn("product", rec.StockNo, err.Error()))
			continue
		}
		for _, code := range missing {
			report.Skipped = append(report.Skipped, im.warn("promo_link", rec.StockNo+"/"+code, "unknown promo code"))
		}
		count(created)
	}

	for _, rec := range records.Bundles {
		rec.Code = strings.TrimSpace(rec.Code)
		if !valid("bundle", rec.Code, rec) {
			continue
		}
		var created bool
		err := im.Runner.InTx(ctx, func(q gen.Querier) error {
			row, err := q.UpsertBundle(ctx, gen.UpsertBundleParams{
				Code:  rec.Code,
				Name:  rec.Name,
				Price: rec.Price,
				Sku:   strings.TrimSpace(rec.SKU),
			})
			if err != nil {
				return err
			}
			created = row.Created
			if err := q.DeleteBundleComponents(ctx, row.ID); err != nil {
				return err
			}
			for pos, c := range rec.Components {
				if err := q.InsertBundleComponent(ctx, gen.InsertBundleComponentParams{
					BundleID:     row.ID,
					Position:     int32(pos),
					StockNo:      strings.TrimSpace(c.StockNo),
					VariantIndex: c.VariantIndex,
					Quantity:     c.Quantity,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if !db.IsConstraintViolation(err) {
				return report, db.Persistence("import bundle "+rec.Code, err)
			}
			report.Skipped = append(report.Skipped, im.warn("bundle", rec.Code, err.Error()))
			continue
		}
		count(created)
	}

	for _, rec := range records.Tiers {
		rec.Code = strings.TrimSpace(rec.Code)
		if !valid("tier", rec.Code, rec) {
			continue
		}
		var created bool
		err := im.Runner.InTx(ctx, func(q gen.Querier) error {
			row, err := q.UpsertBasketTier(ctx, gen.UpsertBasketTierParams{
				Code:      rec.Code,
				Name:      rec.Name,
				Threshold: rec.Threshold,
				Message:   rec.Message,
			})
			if err != nil {
				return err
			}
			created = row.Created
			if err := q.DeleteTierFreebies(ctx, row.ID); err != nil {
				return err
			}
			for pos, f := range rec.Freebies {
				if err := q.InsertTierFreebie(ctx, gen.InsertTierFreebieParams{
					TierID:       row.ID,
					Position:     int32(pos),
					StockNo:      strings.TrimSpace(f.StockNo),
					VariantIndex: f.VariantIndex,
					Quantity:     f.Quantity,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if !db.IsConstraintViolation(err) {
				return report, db.Persistence("import tier "+rec.Code, err)
			}
			report.Skipped = append(report.Skipped, im.warn("tier", rec.Code, err.Error()))
			continue
		}
		count(created)
	}

	if im.Logger != nil {
		im.Logger.Info().
			Int("created", report.Created).
			Int("updated", report.Updated).
			Int("skipped", len(report.Skipped)).
			Msg("catalog import applied")
	}
	return report, nil
}

func (im *Importer) upsertPromo(ctx context.Context, q gen.Querier, rec PromoRecord) (bool, error) {
	if !im.Caps.PromoPrice {
		if rec.Price != nil && im.Logger != nil {
			im.Logger.Warn().Str("code", rec.Code).Msg("store has no promo price column, price ignored")
		}
		row, err := q.UpsertPromoTypeLegacy(ctx, gen.UpsertPromoTypeLegacyParams{
			Code:         rec.Code,
			Name:         rec.Name,
			UnitsPerSale: rec.UnitsPerSale,
		})
		return row.Created, err
	}
	row, err := q.UpsertPromoType(ctx, gen.UpsertPromoTypeParams{
		Code:         rec.Code,
		Name:         rec.Name,
		UnitsPerSale: rec.UnitsPerSale,
		Price:        optionalInt8(rec.Price),
	})
	return row.Created, err
}

func (im *Importer) warn(kind, key, reason string) Skip {
	if obs.CatalogSkippedRecordsTotal != nil {
		obs.CatalogSkippedRecordsTotal.WithLabelValues(kind).Inc()
	}
	if im != nil && im.Logger != nil {
		im.Logger.Warn().Str("kind", kind).Str("key", key).Str("reason", reason).Msg("catalog import record skipped")
	}
	return Skip{Kind: kind, Key: key, Reason: reason}
}

func (im *Importer) exponent() int32 {
	if im == nil || im.Exponent <= 0 {
		return 2
	}
	return im.Exponent
}

func (im *Importer) minor(a Amount) (int64, error) {
	if !a.Set {
		return 0, errors.New("amount is required")
	}
	return ToMinor(a.Value, im.exponent())
}

func (im *Importer) optionalMinor(a Amount) (*int64, error) {
	if !a.Set {
		return nil, nil
	}
	v, err := ToMinor(a.Value, im.exponent())
	if err != nil {
		return nil, err
	}
	return &v, nil
}

var (
	minMinor = decimal.NewFromInt(math.MinInt64)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// ToMinor converts a major-unit decimal to minor units, rejecting values with
// more fractional digits than the currency has or that do not fit an int64.
func ToMinor(d decimal.Decimal, exponent int32) (int64, error) {
	shifted := d.Shift(exponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), exponent)
	}
	if shifted.LessThan(minMinor) || shifted.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("amount %s is out of range", d.String())
	}
	return shifted.IntPart(), nil
}

func optionalText(v string) pgtype.Text {
	v = strings.TrimSpace(v)
	return pgtype.Text{String: v, Valid: v != ""}
}

func optionalInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}
