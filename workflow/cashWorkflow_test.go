package workflow

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

func TestAddAndEditManualTransaction(t *testing.T) {
	s := models.NewLedgerSnapshot()
	tx, err := AddTransaction(s, &models.NewTransaction{
		Type:        models.TransactionTypeCashOut,
		Category:    models.CategoryOperational,
		Amount:      decimal.NewFromInt(50),
		Description: "electricity",
		CreatedAt:   1000,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tx.RelatedID != nil {
		t.Fatal("manual transaction must not carry a RelatedID")
	}

	newAmount := decimal.NewFromInt(75)
	if _, err := EditTransaction(s, tx.ID, &models.UpdateTransaction{Amount: &newAmount}); err != nil {
		t.Fatalf("EditTransaction: %v", err)
	}
	if !tx.Amount.Equal(newAmount) {
		t.Fatalf("amount = %s, want 75", tx.Amount)
	}

	if err := DeleteTransaction(s, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if len(s.Transactions) != 0 {
		t.Fatal("transaction not removed")
	}
}

func TestSystemOwnedTransactionGuard(t *testing.T) {
	s := models.NewLedgerSnapshot()
	batch, err := CreateBatch(s, &models.NewBatch{
		ProductName: "flour",
		StockType:   models.StockTypeRawMaterial,
		Quantity:    decimal.NewFromInt(5),
		UnitCost:    decimal.NewFromInt(10),
		CreatedAt:   1000,
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	owned := s.TransactionsRelatedTo(batch.ID)[0]

	newAmount := decimal.NewFromInt(1)
	_, err = EditTransaction(s, owned.ID, &models.UpdateTransaction{Amount: &newAmount})
	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("edit err = %v, want ConflictError", err)
	}

	err = DeleteTransaction(s, owned.ID)
	if !errors.As(err, &conflict) {
		t.Fatalf("delete err = %v, want ConflictError", err)
	}
	if s.FindTransaction(owned.ID) == nil {
		t.Fatal("system-owned transaction was deleted")
	}
}

func TestTransferFundsPairsLegs(t *testing.T) {
	s := models.NewLedgerSnapshot()
	legs, err := TransferFunds(s, &models.NewTransfer{
		Amount:    decimal.NewFromInt(500),
		From:      models.PaymentMethodCash,
		To:        models.PaymentMethodBank,
		Note:      "setor tunai",
		CreatedAt: 1000,
	})
	if err != nil {
		t.Fatalf("TransferFunds: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(legs))
	}
	out, in := legs[0], legs[1]
	if out.Type != models.TransactionTypeCashOut || out.PaymentMethod != models.PaymentMethodCash {
		t.Fatalf("out leg = %+v", out)
	}
	if in.Type != models.TransactionTypeCashIn || in.PaymentMethod != models.PaymentMethodBank {
		t.Fatalf("in leg = %+v", in)
	}
	if *out.RelatedID != *in.RelatedID {
		t.Fatal("legs do not share a transfer group id")
	}
	if out.Description != "TRANSFER: CASH -> BANK (setor tunai)" {
		t.Fatalf("description = %q", out.Description)
	}

	if err := DeleteTransfer(s, *out.RelatedID); err != nil {
		t.Fatalf("DeleteTransfer: %v", err)
	}
	if len(s.Transactions) != 0 {
		t.Fatal("transfer legs not removed together")
	}
}

func TestTransferFundsSameAccountRejected(t *testing.T) {
	s := models.NewLedgerSnapshot()
	_, err := TransferFunds(s, &models.NewTransfer{
		Amount:    decimal.NewFromInt(500),
		From:      models.PaymentMethodCash,
		To:        models.PaymentMethodCash,
		CreatedAt: 1000,
	})
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}
