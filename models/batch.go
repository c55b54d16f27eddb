package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Batch is one FIFO cost layer: every unit in it shares one unit cost and
// one creation date. Ordering among batches of the same product is
// (CreatedAt, Sequence); Sequence is assigned at insertion and makes the
// order total even when two batches share a timestamp.
type Batch struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	BusinessId      string          `gorm:"index" json:"-"`
	ProductName     string          `gorm:"index;size:100;not null" json:"productName"`
	StockType       StockType       `gorm:"type:enum('RAW_MATERIAL','FINISHED_GOOD');default:RAW_MATERIAL" json:"stockType"`
	InitialQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"initialQuantity"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"currentQuantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unitCost"`
	Variants        []BatchVariant  `gorm:"foreignKey:BatchID;references:ID" json:"variants,omitempty"`
	CreatedAt       int64           `gorm:"index;not null" json:"createdAt"`
	Sequence        int64           `gorm:"index;not null;default:0" json:"sequence"`
}

// BatchVariant is a named sub-partition of a batch's quantity (size,
// color, ...). When a batch has variants, CurrentQuantity must equal the
// sum of variant quantities after every mutation.
type BatchVariant struct {
	ID       string          `gorm:"primaryKey;size:36" json:"id"`
	BatchID  string          `gorm:"index;size:36;not null" json:"batchId"`
	Label    string          `gorm:"size:100;not null" json:"label"`
	Quantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
}

// NormalizeProductName upper-cases and trims a product name; product names
// group batches case-insensitively and are stored upper-cased.
func NormalizeProductName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Variant returns the named variant, or nil.
func (b *Batch) Variant(label string) *BatchVariant {
	for i := range b.Variants {
		if b.Variants[i].Label == label {
			return &b.Variants[i]
		}
	}
	return nil
}

// SyncQuantityFromVariants makes the variant list the source of truth:
// CurrentQuantity (and InitialQuantity on explicit edits) become the sum
// of variant quantities. No-op for batches without variants.
func (b *Batch) SyncQuantityFromVariants(resetInitial bool) {
	if len(b.Variants) == 0 {
		return
	}
	sum := decimal.Zero
	for i := range b.Variants {
		sum = sum.Add(b.Variants[i].Quantity)
	}
	b.CurrentQuantity = sum
	if resetInitial {
		b.InitialQuantity = sum
	}
}

// VariantSumMatches reports whether the variant-sum invariant holds. A
// batch without variants trivially satisfies it.
func (b *Batch) VariantSumMatches() bool {
	if len(b.Variants) == 0 {
		return true
	}
	sum := decimal.Zero
	for i := range b.Variants {
		sum = sum.Add(b.Variants[i].Quantity)
	}
	return b.CurrentQuantity.Equal(sum)
}

// AvailableFor returns the quantity the FIFO selector may take from this
// batch for the given variant label ("" means whole batch).
func (b *Batch) AvailableFor(variantLabel string) decimal.Decimal {
	if variantLabel != "" && len(b.Variants) > 0 {
		v := b.Variant(variantLabel)
		if v == nil {
			return decimal.Zero
		}
		return v.Quantity
	}
	return b.CurrentQuantity
}

type NewBatch struct {
	ProductName   string             `json:"productName" validate:"required"`
	StockType     StockType          `json:"stockType" validate:"required"`
	Quantity      decimal.Decimal    `json:"quantity"`
	UnitCost      decimal.Decimal    `json:"unitCost"`
	Variants      []NewBatchVariant  `json:"variants" validate:"dive"`
	PaymentMethod PaymentMethod      `json:"paymentMethod"`
	CreatedAt     int64              `json:"createdAt"`
}

type NewBatchVariant struct {
	Label    string          `json:"label" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (input *NewBatch) Validate() error {
	if err := runValidator(input); err != nil {
		return err
	}
	if !input.StockType.Valid() {
		return NewValidationError("stockType", "must be RAW_MATERIAL or FINISHED_GOOD")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	if len(input.Variants) == 0 && !input.Quantity.IsPositive() {
		return NewValidationError("quantity", "must be positive")
	}
	if input.UnitCost.IsNegative() {
		return NewValidationError("unitCost", "must not be negative")
	}
	if len(input.Variants) > 0 {
		sum := decimal.Zero
		for _, v := range input.Variants {
			if v.Quantity.IsNegative() {
				return NewValidationError("variants", "variant quantity must not be negative")
			}
			sum = sum.Add(v.Quantity)
		}
		if !sum.IsPositive() {
			return NewValidationError("variants", "variant quantities must sum to a positive total")
		}
	}
	return nil
}

// UpdateBatch carries a partial edit; nil fields are left unchanged.
// Supplying Variants makes them the new source of truth for quantities.
type UpdateBatch struct {
	ProductName *string            `json:"productName"`
	UnitCost    *decimal.Decimal   `json:"unitCost"`
	Variants    []NewBatchVariant  `json:"variants"`
	CreatedAt   *int64             `json:"createdAt"`
}

func (input *UpdateBatch) Validate() error {
	if input.ProductName != nil && strings.TrimSpace(*input.ProductName) == "" {
		return NewValidationError("productName", "must not be empty")
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return NewValidationError("unitCost", "must not be negative")
	}
	if len(input.Variants) > 0 {
		sum := decimal.Zero
		for _, v := range input.Variants {
			if strings.TrimSpace(v.Label) == "" {
				return NewValidationError("variants", "variant label must not be empty")
			}
			if v.Quantity.IsNegative() {
				return NewValidationError("variants", "variant quantity must not be negative")
			}
			sum = sum.Add(v.Quantity)
		}
		if !sum.IsPositive() {
			return NewValidationError("variants", "variant quantities must sum to a positive total")
		}
	}
	return nil
}
