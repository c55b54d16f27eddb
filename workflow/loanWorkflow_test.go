package workflow

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

func createTestLoan(t *testing.T, s *models.LedgerSnapshot) *models.Loan {
	t.Helper()
	loan, err := CreateLoan(s, &models.NewLoan{
		Source:        "KUR BRI",
		InitialAmount: decimal.NewFromInt(10000),
		CreatedAt:     1000,
	})
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	return loan
}

func TestCreateLoanBooksProceeds(t *testing.T) {
	s := models.NewLedgerSnapshot()
	loan := createTestLoan(t, s)

	if !loan.RemainingAmount.Equal(loan.InitialAmount) {
		t.Fatalf("remaining = %s, want initial %s", loan.RemainingAmount, loan.InitialAmount)
	}
	txs := s.TransactionsRelatedTo(loan.ID)
	if len(txs) != 1 || txs[0].Category != models.CategoryLoanProceeds || txs[0].Type != models.TransactionTypeCashIn {
		t.Fatalf("txs = %+v, want one LOAN_PROCEEDS cash-in", txs)
	}
	if txs[0].Description != "LOAN PROCEEDS: KUR BRI" {
		t.Fatalf("tx description = %q", txs[0].Description)
	}
}

func TestRepayLoanSplitsPrincipalAndInterest(t *testing.T) {
	s := models.NewLedgerSnapshot()
	loan := createTestLoan(t, s)

	if _, err := RepayLoan(s, loan.ID, &models.LoanRepayment{
		Principal: decimal.NewFromInt(3000),
		Interest:  decimal.NewFromInt(500),
		CreatedAt: 2000,
	}); err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}
	if !loan.RemainingAmount.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("remaining = %s, want 7000", loan.RemainingAmount)
	}

	var repayment, interest *models.Transaction
	for _, tx := range s.TransactionsRelatedTo(loan.ID) {
		switch tx.Category {
		case models.CategoryLoanRepayment:
			repayment = tx
		case models.CategoryOperational:
			interest = tx
		}
	}
	if repayment == nil || !repayment.Amount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("repayment tx = %+v", repayment)
	}
	if interest == nil || !interest.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("interest tx = %+v", interest)
	}
	if interest.Description != "LOAN INTEREST: KUR BRI" {
		t.Fatalf("interest description = %q", interest.Description)
	}
}

func TestRepayLoanOverpaymentFloorsAtZero(t *testing.T) {
	s := models.NewLedgerSnapshot()
	loan := createTestLoan(t, s)

	if _, err := RepayLoan(s, loan.ID, &models.LoanRepayment{
		Principal: decimal.NewFromInt(12000),
		CreatedAt: 2000,
	}); err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}
	if !loan.RemainingAmount.IsZero() {
		t.Fatalf("remaining = %s, want 0", loan.RemainingAmount)
	}
}

func TestUpdateLoanRebasesRemaining(t *testing.T) {
	s := models.NewLedgerSnapshot()
	loan := createTestLoan(t, s)
	if _, err := RepayLoan(s, loan.ID, &models.LoanRepayment{
		Principal: decimal.NewFromInt(4000),
		CreatedAt: 2000,
	}); err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}

	// Principal was misentered: it should have been 12000, not 10000.
	// Remaining moves by the same +2000 delta.
	newInitial := decimal.NewFromInt(12000)
	if _, err := UpdateLoan(s, loan.ID, &models.UpdateLoan{InitialAmount: &newInitial}); err != nil {
		t.Fatalf("UpdateLoan: %v", err)
	}
	if !loan.RemainingAmount.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("remaining = %s, want 8000", loan.RemainingAmount)
	}

	for _, tx := range s.TransactionsRelatedTo(loan.ID) {
		if tx.Category == models.CategoryLoanProceeds && !tx.Amount.Equal(newInitial) {
			t.Fatalf("proceeds tx amount = %s, want 12000", tx.Amount)
		}
	}
}

func TestDeleteLoanWithRepaymentsConflicts(t *testing.T) {
	s := models.NewLedgerSnapshot()
	loan := createTestLoan(t, s)
	if _, err := RepayLoan(s, loan.ID, &models.LoanRepayment{
		Principal: decimal.NewFromInt(1000),
		CreatedAt: 2000,
	}); err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}

	err := DeleteLoan(s, loan.ID)
	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}

func TestDeleteLoanUntouched(t *testing.T) {
	s := models.NewLedgerSnapshot()
	loan := createTestLoan(t, s)

	if err := DeleteLoan(s, loan.ID); err != nil {
		t.Fatalf("DeleteLoan: %v", err)
	}
	if len(s.Loans) != 0 || len(s.Transactions) != 0 {
		t.Fatalf("loans=%d transactions=%d, want both empty", len(s.Loans), len(s.Transactions))
	}
}
