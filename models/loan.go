package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Loan tracks borrowed principal. RemainingAmount only moves down, via
// repayments; a loan with any repayment applied cannot be deleted.
type Loan struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	BusinessId      string          `gorm:"index" json:"-"`
	Source          string          `gorm:"size:100;not null" json:"source"`
	InitialAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"initialAmount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remainingAmount"`
	Note            string          `gorm:"type:text" json:"note"`
	CreatedAt       int64           `gorm:"index;not null" json:"createdAt"`
}

type NewLoan struct {
	Source        string          `json:"source" validate:"required"`
	InitialAmount decimal.Decimal `json:"initialAmount"`
	Note          string          `json:"note"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     int64           `json:"createdAt"`
}

func (input *NewLoan) Validate() error {
	if err := runValidator(input); err != nil {
		return err
	}
	if !input.InitialAmount.IsPositive() {
		return NewValidationError("initialAmount", "must be positive")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	return nil
}

// UpdateLoan re-bases the principal: RemainingAmount shifts by the same
// delta as InitialAmount so applied repayments stay accounted for.
type UpdateLoan struct {
	Source        *string          `json:"source"`
	InitialAmount *decimal.Decimal `json:"initialAmount"`
	Note          *string          `json:"note"`
	PaymentMethod *PaymentMethod   `json:"paymentMethod"`
	CreatedAt     *int64           `json:"createdAt"`
}

func (input *UpdateLoan) Validate() error {
	if input.Source != nil && strings.TrimSpace(*input.Source) == "" {
		return NewValidationError("source", "must not be empty")
	}
	if input.InitialAmount != nil && !input.InitialAmount.IsPositive() {
		return NewValidationError("initialAmount", "must be positive")
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	return nil
}

type LoanRepayment struct {
	Principal     decimal.Decimal `json:"principal"`
	Interest      decimal.Decimal `json:"interest"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     int64           `json:"createdAt"`
}

func (input *LoanRepayment) Validate() error {
	if input.Principal.IsNegative() {
		return NewValidationError("principal", "must not be negative")
	}
	if input.Interest.IsNegative() {
		return NewValidationError("interest", "must not be negative")
	}
	if input.Principal.IsZero() && input.Interest.IsZero() {
		return NewValidationError("", "principal and interest cannot both be zero")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	return nil
}
