package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

// CreateLoan books borrowed principal as a LOAN_PROCEEDS cash-in.
func CreateLoan(s *models.LedgerSnapshot, input *models.NewLoan) (*models.Loan, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		ID:              uuid.NewString(),
		Source:          input.Source,
		InitialAmount:   input.InitialAmount,
		RemainingAmount: input.InitialAmount,
		Note:            input.Note,
		CreatedAt:       input.CreatedAt,
	}
	s.Loans = append(s.Loans, loan)

	s.Transactions = append(s.Transactions, &models.Transaction{
		ID:            uuid.NewString(),
		Type:          models.TransactionTypeCashIn,
		Category:      models.CategoryLoanProceeds,
		Amount:        loan.InitialAmount,
		Description:   fmt.Sprintf("LOAN PROCEEDS: %s", loan.Source),
		RelatedID:     &loan.ID,
		PaymentMethod: paymentMethodOrCash(input.PaymentMethod),
		CreatedAt:     input.CreatedAt,
	})
	return loan, nil
}

// UpdateLoan re-bases the principal. RemainingAmount shifts by the same
// delta as InitialAmount, so repayments already applied stay accounted
// for; the proceeds entry follows the new principal.
func UpdateLoan(s *models.LedgerSnapshot, id string, input *models.UpdateLoan) (*models.Loan, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	loan := s.FindLoan(id)
	if loan == nil {
		return nil, &models.NotFoundError{Entity: "loan", ID: id}
	}

	if input.Source != nil {
		loan.Source = *input.Source
	}
	if input.Note != nil {
		loan.Note = *input.Note
	}
	if input.CreatedAt != nil {
		loan.CreatedAt = *input.CreatedAt
	}
	if input.InitialAmount != nil {
		delta := input.InitialAmount.Sub(loan.InitialAmount)
		loan.InitialAmount = *input.InitialAmount
		loan.RemainingAmount = decimal.Max(decimal.Zero, loan.RemainingAmount.Add(delta))
	}

	for _, t := range s.TransactionsRelatedTo(loan.ID) {
		if t.Category != models.CategoryLoanProceeds {
			continue
		}
		t.Amount = loan.InitialAmount
		t.Description = fmt.Sprintf("LOAN PROCEEDS: %s", loan.Source)
		t.CreatedAt = loan.CreatedAt
		if input.PaymentMethod != nil {
			t.PaymentMethod = *input.PaymentMethod
		}
	}
	return loan, nil
}

// RepayLoan applies a repayment. Principal reduces RemainingAmount
// (floored at zero) and goes out as LOAN_REPAYMENT; interest is an expense
// and goes out as OPERATIONAL. Both entries stay linked to the loan.
func RepayLoan(s *models.LedgerSnapshot, id string, input *models.LoanRepayment) (*models.Loan, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	loan := s.FindLoan(id)
	if loan == nil {
		return nil, &models.NotFoundError{Entity: "loan", ID: id}
	}

	method := paymentMethodOrCash(input.PaymentMethod)
	if input.Principal.IsPositive() {
		loan.RemainingAmount = decimal.Max(decimal.Zero, loan.RemainingAmount.Sub(input.Principal))
		s.Transactions = append(s.Transactions, &models.Transaction{
			ID:            uuid.NewString(),
			Type:          models.TransactionTypeCashOut,
			Category:      models.CategoryLoanRepayment,
			Amount:        input.Principal,
			Description:   fmt.Sprintf("LOAN PRINCIPAL REPAYMENT: %s", loan.Source),
			RelatedID:     &loan.ID,
			PaymentMethod: method,
			CreatedAt:     input.CreatedAt,
		})
	}
	if input.Interest.IsPositive() {
		s.Transactions = append(s.Transactions, &models.Transaction{
			ID:            uuid.NewString(),
			Type:          models.TransactionTypeCashOut,
			Category:      models.CategoryOperational,
			Amount:        input.Interest,
			Description:   fmt.Sprintf("LOAN INTEREST: %s", loan.Source),
			RelatedID:     &loan.ID,
			PaymentMethod: method,
			CreatedAt:     input.CreatedAt,
		})
	}
	return loan, nil
}

// DeleteLoan removes an untouched loan and its proceeds entry. A loan with
// any repayment applied stays: removing it would strand the repayment
// entries already on the ledger.
func DeleteLoan(s *models.LedgerSnapshot, id string) error {
	loan := s.FindLoan(id)
	if loan == nil {
		return &models.NotFoundError{Entity: "loan", ID: id}
	}
	if loan.RemainingAmount.LessThan(loan.InitialAmount) {
		return models.NewConflictError("loan %s has repayments applied and cannot be deleted", id)
	}
	s.RemoveLoan(id)
	s.RemoveTransactionsRelatedTo(id)
	return nil
}
