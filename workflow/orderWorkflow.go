package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

// CreateDepositOrder books a pre-order and takes the deposit as cash-in.
// Inventory is untouched until completion.
func CreateDepositOrder(s *models.LedgerSnapshot, input *models.NewDepositOrder) (*models.DepositOrder, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	order := &models.DepositOrder{
		ID:            uuid.NewString(),
		CustomerName:  input.CustomerName,
		ProductName:   models.NormalizeProductName(input.ProductName),
		Quantity:      input.Quantity,
		TotalAmount:   input.TotalAmount,
		DepositAmount: input.DepositAmount,
		Status:        models.OrderStatusPending,
		CreatedAt:     input.CreatedAt,
	}
	s.Orders = append(s.Orders, order)

	if order.DepositAmount.IsPositive() {
		s.Transactions = append(s.Transactions, &models.Transaction{
			ID:            uuid.NewString(),
			Type:          models.TransactionTypeCashIn,
			Category:      models.CategoryDeposit,
			Amount:        order.DepositAmount,
			Description:   fmt.Sprintf("ORDER DEPOSIT: %s (%s)", order.CustomerName, order.ProductName),
			RelatedID:     &order.ID,
			PaymentMethod: paymentMethodOrCash(input.PaymentMethod),
			CreatedAt:     input.CreatedAt,
		})
	}
	return order, nil
}

// UpdateDepositOrder edits a PENDING order and keeps its deposit entry in
// step. Completed and cancelled orders are closed to edits.
func UpdateDepositOrder(s *models.LedgerSnapshot, id string, input *models.UpdateDepositOrder) (*models.DepositOrder, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	order := s.FindOrder(id)
	if order == nil {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	if order.Status != models.OrderStatusPending {
		return nil, models.NewConflictError("order %s is %s and can no longer be edited", id, order.Status)
	}

	if input.CustomerName != nil {
		order.CustomerName = *input.CustomerName
	}
	if input.ProductName != nil {
		order.ProductName = models.NormalizeProductName(*input.ProductName)
	}
	if input.Quantity != nil {
		order.Quantity = *input.Quantity
	}
	if input.TotalAmount != nil {
		order.TotalAmount = *input.TotalAmount
	}
	if input.DepositAmount != nil {
		order.DepositAmount = *input.DepositAmount
	}
	if order.DepositAmount.GreaterThan(order.TotalAmount) {
		return nil, models.NewValidationError("depositAmount", "must not exceed totalAmount")
	}

	for _, t := range s.TransactionsRelatedTo(order.ID) {
		if t.Category != models.CategoryDeposit {
			continue
		}
		t.Amount = order.DepositAmount
		t.Description = fmt.Sprintf("ORDER DEPOSIT: %s (%s)", order.CustomerName, order.ProductName)
	}
	return order, nil
}

// CompleteDepositOrder delivers a PENDING order: the ordered quantity is
// consumed FIFO from finished goods, a SaleRecord is created for the full
// order value, the deposit entry is reclassified from DEPOSIT to SALES and
// the balance comes in as a settlement entry linked to the sale. On
// insufficient stock nothing changes and the order stays PENDING.
func CompleteDepositOrder(s *models.LedgerSnapshot, id string, completedAt int64, paymentMethod models.PaymentMethod) (*models.DepositOrder, error) {
	order := s.FindOrder(id)
	if order == nil {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	if order.Status != models.OrderStatusPending {
		return nil, models.NewConflictError("order %s is %s and cannot be completed", id, order.Status)
	}

	cogs, entries, err := ConsumeFIFO(s, order.ProductName, models.StockTypeFinishedGood, "", order.Quantity)
	if err != nil {
		return nil, err
	}

	salePrice := decimal.Zero
	if order.Quantity.IsPositive() {
		salePrice = order.TotalAmount.Div(order.Quantity)
	}
	sale := &models.SaleRecord{
		ID:             uuid.NewString(),
		ProductName:    order.ProductName,
		Quantity:       order.Quantity,
		SalePrice:      salePrice,
		TotalRevenue:   order.TotalAmount,
		TotalCOGS:      cogs,
		RelatedOrderID: &order.ID,
		CreatedAt:      completedAt,
	}
	s.Sales = append(s.Sales, sale)
	appendSaleConsumptions(s, sale.ID, entries)

	for _, t := range s.TransactionsRelatedTo(order.ID) {
		if t.Category != models.CategoryDeposit {
			continue
		}
		t.Category = models.CategorySales
		t.Description = fmt.Sprintf("ORDER DEPOSIT SETTLED: %s (%s)", order.CustomerName, order.ProductName)
	}

	balance := order.TotalAmount.Sub(order.DepositAmount)
	if balance.IsPositive() {
		s.Transactions = append(s.Transactions, &models.Transaction{
			ID:            uuid.NewString(),
			Type:          models.TransactionTypeCashIn,
			Category:      models.CategorySales,
			Amount:        balance,
			Description:   fmt.Sprintf("ORDER BALANCE SETTLEMENT: %s (%s)", order.CustomerName, order.ProductName),
			RelatedID:     &sale.ID,
			PaymentMethod: paymentMethodOrCash(paymentMethod),
			CreatedAt:     completedAt,
		})
	}

	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &completedAt
	return order, nil
}

// CancelDepositOrder forfeits a PENDING order's deposit. The deposit entry
// is reclassified to FORFEITED_DEPOSIT, so the cash stays on the books;
// inventory is never touched.
func CancelDepositOrder(s *models.LedgerSnapshot, id string) (*models.DepositOrder, error) {
	order := s.FindOrder(id)
	if order == nil {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	if order.Status != models.OrderStatusPending {
		return nil, models.NewConflictError("order %s is %s and cannot be cancelled", id, order.Status)
	}

	for _, t := range s.TransactionsRelatedTo(order.ID) {
		if t.Category != models.CategoryDeposit {
			continue
		}
		t.Category = models.CategoryForfeitedDeposit
		t.Description = fmt.Sprintf("FORFEITED DEPOSIT: %s (%s)", order.CustomerName, order.ProductName)
	}
	order.Status = models.OrderStatusCancelled
	return order, nil
}

// DeleteDepositOrder removes a PENDING or CANCELLED order and its ledger
// entries. A completed order is anchored by its sale; delete the sale
// first, which reverts the order to PENDING.
func DeleteDepositOrder(s *models.LedgerSnapshot, id string) error {
	order := s.FindOrder(id)
	if order == nil {
		return &models.NotFoundError{Entity: "order", ID: id}
	}
	if order.Status == models.OrderStatusCompleted {
		return models.NewConflictError("order %s is completed; delete its sale to revert it first", id)
	}
	s.RemoveOrder(id)
	s.RemoveTransactionsRelatedTo(id)
	return nil
}
