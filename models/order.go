package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DepositOrder is a pre-order paid partially upfront. Completion consumes
// stock exactly like a direct sale and links the resulting SaleRecord;
// cancellation forfeits the deposit without touching inventory.
type DepositOrder struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	BusinessId    string          `gorm:"index" json:"-"`
	CustomerName  string          `gorm:"size:100;not null" json:"customerName"`
	ProductName   string          `gorm:"index;size:100;not null" json:"productName"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"totalAmount"`
	DepositAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"depositAmount"`
	Status        OrderStatus     `gorm:"type:enum('PENDING','COMPLETED','CANCELLED');default:PENDING" json:"status"`
	CreatedAt     int64           `gorm:"index;not null" json:"createdAt"`
	CompletedAt   *int64          `json:"completedAt,omitempty"`
}

type NewDepositOrder struct {
	CustomerName  string          `json:"customerName" validate:"required"`
	ProductName   string          `json:"productName" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     int64           `json:"createdAt"`
}

func (input *NewDepositOrder) Validate() error {
	if err := runValidator(input); err != nil {
		return err
	}
	if !input.Quantity.IsPositive() {
		return NewValidationError("quantity", "must be positive")
	}
	if input.TotalAmount.IsNegative() {
		return NewValidationError("totalAmount", "must not be negative")
	}
	if input.DepositAmount.IsNegative() {
		return NewValidationError("depositAmount", "must not be negative")
	}
	if input.DepositAmount.GreaterThan(input.TotalAmount) {
		return NewValidationError("depositAmount", "must not exceed totalAmount")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	return nil
}

type UpdateDepositOrder struct {
	CustomerName  *string          `json:"customerName"`
	ProductName   *string          `json:"productName"`
	Quantity      *decimal.Decimal `json:"quantity"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
	DepositAmount *decimal.Decimal `json:"depositAmount"`
}

func (input *UpdateDepositOrder) Validate() error {
	if input.CustomerName != nil && strings.TrimSpace(*input.CustomerName) == "" {
		return NewValidationError("customerName", "must not be empty")
	}
	if input.ProductName != nil && strings.TrimSpace(*input.ProductName) == "" {
		return NewValidationError("productName", "must not be empty")
	}
	if input.Quantity != nil && !input.Quantity.IsPositive() {
		return NewValidationError("quantity", "must be positive")
	}
	if input.TotalAmount != nil && input.TotalAmount.IsNegative() {
		return NewValidationError("totalAmount", "must not be negative")
	}
	if input.DepositAmount != nil && input.DepositAmount.IsNegative() {
		return NewValidationError("depositAmount", "must not be negative")
	}
	return nil
}
