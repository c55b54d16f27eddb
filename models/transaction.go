package models

import (
	"github.com/shopspring/decimal"
)

// Transaction is one cash ledger entry. Entries carrying a RelatedID were
// emitted by an owning entity (batch, production, sale, order, loan or
// transfer group) and may only change through that entity.
type Transaction struct {
	ID            string              `gorm:"primaryKey;size:36" json:"id"`
	BusinessId    string              `gorm:"index" json:"-"`
	Type          TransactionType     `gorm:"type:enum('CASH_IN','CASH_OUT');not null" json:"type"`
	Category      TransactionCategory `gorm:"index;size:30;not null" json:"category"`
	Amount        decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Description   string              `gorm:"size:255;not null" json:"description"`
	RelatedID     *string             `gorm:"index;size:36" json:"relatedId,omitempty"`
	PaymentMethod PaymentMethod       `gorm:"type:enum('CASH','BANK');default:CASH" json:"paymentMethod"`
	CreatedAt     int64               `gorm:"index;not null" json:"createdAt"`
}

// SystemOwned reports whether the entry was emitted by another entity and
// is therefore closed to direct edits.
func (t *Transaction) SystemOwned() bool {
	return t.RelatedID != nil && *t.RelatedID != ""
}

type NewTransaction struct {
	Type          TransactionType     `json:"type" validate:"required"`
	Category      TransactionCategory `json:"category" validate:"required"`
	Amount        decimal.Decimal     `json:"amount"`
	Description   string              `json:"description" validate:"required"`
	PaymentMethod PaymentMethod       `json:"paymentMethod"`
	CreatedAt     int64               `json:"createdAt"`
}

func (input *NewTransaction) Validate() error {
	if err := runValidator(input); err != nil {
		return err
	}
	if !input.Type.Valid() {
		return NewValidationError("type", "must be CASH_IN or CASH_OUT")
	}
	if !input.Category.Valid() {
		return NewValidationError("category", "unknown category")
	}
	if !input.Amount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	return nil
}

type UpdateTransaction struct {
	Type          *TransactionType     `json:"type"`
	Category      *TransactionCategory `json:"category"`
	Amount        *decimal.Decimal     `json:"amount"`
	Description   *string              `json:"description"`
	PaymentMethod *PaymentMethod       `json:"paymentMethod"`
	CreatedAt     *int64               `json:"createdAt"`
}

func (input *UpdateTransaction) Validate() error {
	if input.Type != nil && !input.Type.Valid() {
		return NewValidationError("type", "must be CASH_IN or CASH_OUT")
	}
	if input.Category != nil && !input.Category.Valid() {
		return NewValidationError("category", "unknown category")
	}
	if input.Amount != nil && !input.Amount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	if input.Description != nil && *input.Description == "" {
		return NewValidationError("description", "must not be empty")
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", "must be CASH or BANK")
	}
	return nil
}

type NewTransfer struct {
	Amount    decimal.Decimal `json:"amount"`
	From      PaymentMethod   `json:"from"`
	To        PaymentMethod   `json:"to"`
	Note      string          `json:"note"`
	CreatedAt int64           `json:"createdAt"`
}

func (input *NewTransfer) Validate() error {
	if !input.Amount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	if !input.From.Valid() || !input.To.Valid() {
		return NewValidationError("from", "accounts must be CASH or BANK")
	}
	if input.From == input.To {
		return NewValidationError("to", "source and destination accounts must differ")
	}
	return nil
}
