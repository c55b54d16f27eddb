package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductionIngredient names a raw material and a quantity. On the planned
// list quantities may be zero or approximate; on the actual list they are
// what completion really consumed.
type ProductionIngredient struct {
	ProductName string          `json:"productName"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// IngredientList is stored as a JSON column so planned and actual
// ingredient sets stay distinct fields on the record.
type IngredientList []ProductionIngredient

func (l IngredientList) Value() (driver.Value, error) {
	if l == nil {
		l = IngredientList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *IngredientList) Scan(v interface{}) error {
	switch s := v.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(s), l)
	case []byte:
		return json.Unmarshal(s, l)
	default:
		return fmt.Errorf("cannot scan %T into ingredient list", v)
	}
}

// ProductionRecord is one manufacturing run. IN_PROGRESS records hold the
// plan; completion consumes raw materials, creates exactly one finished
// good batch and is terminal.
type ProductionRecord struct {
	ID                string           `gorm:"primaryKey;size:36" json:"id"`
	BusinessId        string           `gorm:"index" json:"-"`
	OutputProductName string           `gorm:"index;size:100;not null" json:"outputProductName"`
	OutputQuantity    decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"outputQuantity"`
	TotalCost         decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"totalCost"`
	Status            ProductionStatus `gorm:"type:enum('IN_PROGRESS','COMPLETED');default:IN_PROGRESS" json:"status"`
	Ingredients       IngredientList   `gorm:"type:json" json:"ingredients,omitempty"`
	ActualIngredients IngredientList   `gorm:"type:json" json:"actualIngredients,omitempty"`
	BatchIdCreated    *string          `gorm:"size:36" json:"batchIdCreated,omitempty"`
	CreatedAt         int64            `gorm:"index;not null" json:"createdAt"`
	CompletedAt       *int64           `json:"completedAt,omitempty"`
}

// ProductionUsage records one batch decrement made by a completed
// production. Deleting the production restores exactly these quantities.
type ProductionUsage struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	BusinessId   string          `gorm:"index" json:"-"`
	ProductionID string          `gorm:"index;size:36;not null" json:"productionId"`
	BatchID      string          `gorm:"index;size:36;not null" json:"batchId"`
	VariantLabel *string         `gorm:"size:100" json:"variantLabel,omitempty"`
	QuantityUsed decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantityUsed"`
	CostPerUnit  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"costPerUnit"`
}

type OperationalCost struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

type NewProduction struct {
	OutputProductName string                 `json:"outputProductName" validate:"required"`
	OutputQuantity    decimal.Decimal        `json:"outputQuantity"`
	Ingredients       []ProductionIngredient `json:"ingredients"`
	OperationalCosts  []OperationalCost      `json:"operationalCosts"`
	CreatedAt         int64                  `json:"createdAt"`
}

func (input *NewProduction) Validate() error {
	if err := runValidator(input); err != nil {
		return err
	}
	if input.OutputQuantity.IsNegative() {
		return NewValidationError("outputQuantity", "must not be negative")
	}
	for _, ing := range input.Ingredients {
		if strings.TrimSpace(ing.ProductName) == "" {
			return NewValidationError("ingredients", "ingredient product name must not be empty")
		}
		if ing.Quantity.IsNegative() {
			return NewValidationError("ingredients", "ingredient quantity must not be negative")
		}
	}
	for _, c := range input.OperationalCosts {
		if c.Amount.IsNegative() {
			return NewValidationError("operationalCosts", "cost amount must not be negative")
		}
		if c.PaymentMethod != "" && !c.PaymentMethod.Valid() {
			return NewValidationError("operationalCosts", "payment method must be CASH or BANK")
		}
	}
	return nil
}

// UpdateProduction edits the plan of an IN_PROGRESS run; it never touches
// inventory.
type UpdateProduction struct {
	OutputProductName *string                `json:"outputProductName"`
	OutputQuantity    *decimal.Decimal       `json:"outputQuantity"`
	Ingredients       []ProductionIngredient `json:"ingredients"`
}

func (input *UpdateProduction) Validate() error {
	if input.OutputProductName != nil && strings.TrimSpace(*input.OutputProductName) == "" {
		return NewValidationError("outputProductName", "must not be empty")
	}
	if input.OutputQuantity != nil && input.OutputQuantity.IsNegative() {
		return NewValidationError("outputQuantity", "must not be negative")
	}
	return nil
}

// CompleteProduction input. Variant quantities, when given, are expected
// by the caller to sum to ActualQuantity; the engine does not re-validate
// that pre-condition.
type CompleteProduction struct {
	ActualQuantity    decimal.Decimal        `json:"actualQuantity"`
	ActualIngredients []ProductionIngredient `json:"actualIngredients"`
	Variants          []NewBatchVariant      `json:"variants"`
	CompletedAt       int64                  `json:"completedAt"`
}

func (input *CompleteProduction) Validate() error {
	if input.ActualQuantity.IsNegative() {
		return NewValidationError("actualQuantity", "must not be negative")
	}
	for _, ing := range input.ActualIngredients {
		if strings.TrimSpace(ing.ProductName) == "" {
			return NewValidationError("actualIngredients", "ingredient product name must not be empty")
		}
		if ing.Quantity.IsNegative() {
			return NewValidationError("actualIngredients", "ingredient quantity must not be negative")
		}
	}
	return nil
}
