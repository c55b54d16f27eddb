package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SaleRecord is one realized sale. TotalCOGS comes from the FIFO selector,
// never from the caller.
type SaleRecord struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	BusinessId     string          `gorm:"index" json:"-"`
	ProductName    string          `gorm:"index;size:100;not null" json:"productName"`
	VariantLabel   *string         `gorm:"size:100" json:"variantLabel,omitempty"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	SalePrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"salePrice"`
	TotalRevenue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"totalRevenue"`
	TotalCOGS      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"totalCOGS"`
	RelatedOrderID *string         `gorm:"index;size:36" json:"relatedOrderId,omitempty"`
	CreatedAt      int64           `gorm:"index;not null" json:"createdAt"`
}

// SaleConsumption records one batch decrement made by a sale, so sale
// edits and deletions reverse exactly what was taken instead of
// approximating with newest-first refills.
type SaleConsumption struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	BusinessId    string          `gorm:"index" json:"-"`
	SaleID        string          `gorm:"index;size:36;not null" json:"saleId"`
	BatchID       string          `gorm:"index;size:36;not null" json:"batchId"`
	VariantLabel  *string         `gorm:"size:100" json:"variantLabel,omitempty"`
	QuantityTaken decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantityTaken"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unitCost"`
}

type NewSale struct {
	ProductName   string          `json:"productName" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	VariantLabel  string          `json:"variantLabel"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     int64           `json:"createdAt"`
}

func (input *NewSale) Validate() error {
	if err := runValidator(input); err != nil {
		return err
	}
	if !input.Quantity.IsPositive() {
		return NewValidationError("quantity", "must be positive")
	}
	if input.SalePrice.IsNegative() {
		return NewValidationError("salePrice", "must not be negative")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	return nil
}

// UpdateSale is a partial edit; the engine reverses the old consumption,
// re-consumes with the merged values and recomputes revenue and COGS.
type UpdateSale struct {
	ProductName  *string          `json:"productName"`
	Quantity     *decimal.Decimal `json:"quantity"`
	SalePrice    *decimal.Decimal `json:"salePrice"`
	VariantLabel *string          `json:"variantLabel"`
}

func (input *UpdateSale) Validate() error {
	if input.ProductName != nil && strings.TrimSpace(*input.ProductName) == "" {
		return NewValidationError("productName", "must not be empty")
	}
	if input.Quantity != nil && !input.Quantity.IsPositive() {
		return NewValidationError("quantity", "must be positive")
	}
	if input.SalePrice != nil && input.SalePrice.IsNegative() {
		return NewValidationError("salePrice", "must not be negative")
	}
	return nil
}
