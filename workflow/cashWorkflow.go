package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/umkmpro/umkm_backend/models"
)

// AddTransaction records a manual ledger entry. Manual entries never carry
// a RelatedID; that marker is reserved for entries emitted by batches,
// productions, sales, orders, loans and transfers.
func AddTransaction(s *models.LedgerSnapshot, input *models.NewTransaction) (*models.Transaction, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:            uuid.NewString(),
		Type:          input.Type,
		Category:      input.Category,
		Amount:        input.Amount,
		Description:   input.Description,
		PaymentMethod: paymentMethodOrCash(input.PaymentMethod),
		CreatedAt:     input.CreatedAt,
	}
	s.Transactions = append(s.Transactions, tx)
	return tx, nil
}

// EditTransaction edits a manual entry. System-owned entries only change
// through their owning entity.
func EditTransaction(s *models.LedgerSnapshot, id string, input *models.UpdateTransaction) (*models.Transaction, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	tx := s.FindTransaction(id)
	if tx == nil {
		return nil, &models.NotFoundError{Entity: "transaction", ID: id}
	}
	if tx.SystemOwned() {
		return nil, models.NewConflictError("transaction %s belongs to entity %s; edit that entity instead", id, *tx.RelatedID)
	}

	if input.Type != nil {
		tx.Type = *input.Type
	}
	if input.Category != nil {
		tx.Category = *input.Category
	}
	if input.Amount != nil {
		tx.Amount = *input.Amount
	}
	if input.Description != nil {
		tx.Description = *input.Description
	}
	if input.PaymentMethod != nil {
		tx.PaymentMethod = *input.PaymentMethod
	}
	if input.CreatedAt != nil {
		tx.CreatedAt = *input.CreatedAt
	}
	return tx, nil
}

// DeleteTransaction removes a manual entry, with the same system-owned
// guard as EditTransaction.
func DeleteTransaction(s *models.LedgerSnapshot, id string) error {
	tx := s.FindTransaction(id)
	if tx == nil {
		return &models.NotFoundError{Entity: "transaction", ID: id}
	}
	if tx.SystemOwned() {
		return models.NewConflictError("transaction %s belongs to entity %s; delete that entity instead", id, *tx.RelatedID)
	}
	s.RemoveTransaction(id)
	return nil
}

// TransferFunds moves money between the CASH and BANK accounts as a
// cash-out / cash-in pair sharing one transfer-group id in RelatedID, so
// the two legs are deleted together and net to zero per account move.
func TransferFunds(s *models.LedgerSnapshot, input *models.NewTransfer) ([]*models.Transaction, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	groupID := uuid.NewString()
	desc := fmt.Sprintf("TRANSFER: %s -> %s", input.From, input.To)
	if input.Note != "" {
		desc = fmt.Sprintf("%s (%s)", desc, input.Note)
	}

	out := &models.Transaction{
		ID:            uuid.NewString(),
		Type:          models.TransactionTypeCashOut,
		Category:      models.CategoryTransfer,
		Amount:        input.Amount,
		Description:   desc,
		RelatedID:     &groupID,
		PaymentMethod: input.From,
		CreatedAt:     input.CreatedAt,
	}
	in := &models.Transaction{
		ID:            uuid.NewString(),
		Type:          models.TransactionTypeCashIn,
		Category:      models.CategoryTransfer,
		Amount:        input.Amount,
		Description:   desc,
		RelatedID:     &groupID,
		PaymentMethod: input.To,
		CreatedAt:     input.CreatedAt,
	}
	s.Transactions = append(s.Transactions, out, in)
	return []*models.Transaction{out, in}, nil
}

// DeleteTransfer removes both legs of a transfer group.
func DeleteTransfer(s *models.LedgerSnapshot, groupID string) error {
	legs := s.TransactionsRelatedTo(groupID)
	if len(legs) == 0 {
		return &models.NotFoundError{Entity: "transfer", ID: groupID}
	}
	for _, t := range legs {
		if t.Category != models.CategoryTransfer {
			return models.NewConflictError("id %s does not identify a transfer group", groupID)
		}
	}
	s.RemoveTransactionsRelatedTo(groupID)
	return nil
}
