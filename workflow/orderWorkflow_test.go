package workflow

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

func createTestOrder(t *testing.T, s *models.LedgerSnapshot) *models.DepositOrder {
	t.Helper()
	order, err := CreateDepositOrder(s, &models.NewDepositOrder{
		CustomerName:  "Budi",
		ProductName:   "roti",
		Quantity:      decimal.NewFromInt(5),
		TotalAmount:   decimal.NewFromInt(1000),
		DepositAmount: decimal.NewFromInt(300),
		CreatedAt:     2000,
	})
	if err != nil {
		t.Fatalf("CreateDepositOrder: %v", err)
	}
	return order
}

func TestCreateDepositOrderTakesDeposit(t *testing.T) {
	s := models.NewLedgerSnapshot()
	order := createTestOrder(t, s)

	txs := s.TransactionsRelatedTo(order.ID)
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Category != models.CategoryDeposit || !tx.Amount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("tx = %+v, want DEPOSIT of 300", tx)
	}
	if tx.Description != "ORDER DEPOSIT: Budi (ROTI)" {
		t.Fatalf("tx description = %q", tx.Description)
	}
}

func TestCompleteDepositOrderSettlesBalance(t *testing.T) {
	s := models.NewLedgerSnapshot()
	seedBatch(s, "roti", models.StockTypeFinishedGood, 10, 100, 1000)
	order := createTestOrder(t, s)

	completed, err := CompleteDepositOrder(s, order.ID, 5000, "")
	if err != nil {
		t.Fatalf("CompleteDepositOrder: %v", err)
	}
	if completed.Status != models.OrderStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("order = %+v, want COMPLETED with CompletedAt", completed)
	}
	if !s.TotalAvailable("roti", models.StockTypeFinishedGood, "").Equal(decimal.NewFromInt(5)) {
		t.Fatal("stock not consumed")
	}

	if len(s.Sales) != 1 {
		t.Fatalf("sales = %d, want 1", len(s.Sales))
	}
	sale := s.Sales[0]
	if sale.RelatedOrderID == nil || *sale.RelatedOrderID != order.ID {
		t.Fatal("sale not linked to the order")
	}
	if !sale.TotalRevenue.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("sale revenue = %s, want full order value 1000", sale.TotalRevenue)
	}
	if !sale.SalePrice.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("sale price = %s, want 200 (1000/5)", sale.SalePrice)
	}
	if !sale.TotalCOGS.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("sale COGS = %s, want 500", sale.TotalCOGS)
	}

	// Deposit reclassified to SALES, balance settlement for 700.
	orderTxs := s.TransactionsRelatedTo(order.ID)
	if len(orderTxs) != 1 || orderTxs[0].Category != models.CategorySales {
		t.Fatalf("order txs = %+v, want reclassified deposit", orderTxs)
	}
	if orderTxs[0].Description != "ORDER DEPOSIT SETTLED: Budi (ROTI)" {
		t.Fatalf("deposit description = %q", orderTxs[0].Description)
	}
	saleTxs := s.TransactionsRelatedTo(sale.ID)
	if len(saleTxs) != 1 || !saleTxs[0].Amount.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("settlement txs = %+v, want one for 700", saleTxs)
	}
	if saleTxs[0].Description != "ORDER BALANCE SETTLEMENT: Budi (ROTI)" {
		t.Fatalf("settlement description = %q", saleTxs[0].Description)
	}
}

func TestCompleteDepositOrderInsufficientStockStaysPending(t *testing.T) {
	s := models.NewLedgerSnapshot()
	seedBatch(s, "roti", models.StockTypeFinishedGood, 3, 100, 1000)
	order := createTestOrder(t, s)

	_, err := CompleteDepositOrder(s, order.ID, 5000, "")
	var stockErr *models.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("status = %s, want still PENDING", order.Status)
	}
	if len(s.Sales) != 0 {
		t.Fatal("sale created despite failed completion")
	}
	if tx := s.TransactionsRelatedTo(order.ID)[0]; tx.Category != models.CategoryDeposit {
		t.Fatalf("deposit reclassified on failure: %+v", tx)
	}
}

func TestCancelDepositOrderForfeitsDeposit(t *testing.T) {
	s := models.NewLedgerSnapshot()
	seedBatch(s, "roti", models.StockTypeFinishedGood, 10, 100, 1000)
	order := createTestOrder(t, s)

	cancelled, err := CancelDepositOrder(s, order.ID)
	if err != nil {
		t.Fatalf("CancelDepositOrder: %v", err)
	}
	if cancelled.Status != models.OrderStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}
	if !s.TotalAvailable("roti", models.StockTypeFinishedGood, "").Equal(decimal.NewFromInt(10)) {
		t.Fatal("cancellation touched inventory")
	}
	tx := s.TransactionsRelatedTo(order.ID)[0]
	if tx.Category != models.CategoryForfeitedDeposit {
		t.Fatalf("tx category = %s, want FORFEITED_DEPOSIT", tx.Category)
	}
	if tx.Description != "FORFEITED DEPOSIT: Budi (ROTI)" {
		t.Fatalf("tx description = %q", tx.Description)
	}

	if _, err := CompleteDepositOrder(s, order.ID, 6000, ""); err == nil {
		t.Fatal("completing a cancelled order must fail")
	}
}

func TestDeleteSaleRevertsCompletedOrder(t *testing.T) {
	s := models.NewLedgerSnapshot()
	seedBatch(s, "roti", models.StockTypeFinishedGood, 10, 100, 1000)
	order := createTestOrder(t, s)

	if _, err := CompleteDepositOrder(s, order.ID, 5000, ""); err != nil {
		t.Fatalf("CompleteDepositOrder: %v", err)
	}
	sale := s.Sales[0]
	if err := DeleteSale(s, sale.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}

	if order.Status != models.OrderStatusPending || order.CompletedAt != nil {
		t.Fatalf("order = %+v, want reverted to PENDING", order)
	}
	if !s.TotalAvailable("roti", models.StockTypeFinishedGood, "").Equal(decimal.NewFromInt(10)) {
		t.Fatal("stock not restored")
	}
	txs := s.TransactionsRelatedTo(order.ID)
	if len(txs) != 1 || txs[0].Category != models.CategoryDeposit {
		t.Fatalf("order txs = %+v, want deposit back as DEPOSIT", txs)
	}
	if txs[0].Description != "ORDER DEPOSIT: Budi (ROTI)" {
		t.Fatalf("deposit description = %q", txs[0].Description)
	}
}

func TestDeleteDepositOrder(t *testing.T) {
	s := models.NewLedgerSnapshot()
	seedBatch(s, "roti", models.StockTypeFinishedGood, 10, 100, 1000)
	order := createTestOrder(t, s)

	if _, err := CompleteDepositOrder(s, order.ID, 5000, ""); err != nil {
		t.Fatalf("CompleteDepositOrder: %v", err)
	}
	err := DeleteDepositOrder(s, order.ID)
	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError for completed order", err)
	}

	// After the sale is deleted the order is PENDING again and removable.
	if err := DeleteSale(s, s.Sales[0].ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if err := DeleteDepositOrder(s, order.ID); err != nil {
		t.Fatalf("DeleteDepositOrder: %v", err)
	}
	if len(s.Orders) != 0 || len(s.Transactions) != 0 {
		t.Fatalf("orders=%d transactions=%d, want both empty", len(s.Orders), len(s.Transactions))
	}
}

func TestEditSaleOfFullyDepositedOrderRepricesBalance(t *testing.T) {
	s := models.NewLedgerSnapshot()
	seedBatch(s, "roti", models.StockTypeFinishedGood, 10, 100, 1000)
	order, err := CreateDepositOrder(s, &models.NewDepositOrder{
		CustomerName:  "Budi",
		ProductName:   "roti",
		Quantity:      decimal.NewFromInt(5),
		TotalAmount:   decimal.NewFromInt(1000),
		DepositAmount: decimal.NewFromInt(1000),
		CreatedAt:     2000,
	})
	if err != nil {
		t.Fatalf("CreateDepositOrder: %v", err)
	}
	if _, err := CompleteDepositOrder(s, order.ID, 5000, ""); err != nil {
		t.Fatalf("CompleteDepositOrder: %v", err)
	}
	sale := s.Sales[0]
	if len(s.TransactionsRelatedTo(sale.ID)) != 0 {
		t.Fatal("deposit covered the order; no balance entry expected at completion")
	}

	// Raising the price creates the balance entry the completion skipped.
	newPrice := decimal.NewFromInt(300)
	if _, err := EditSale(s, sale.ID, &models.UpdateSale{SalePrice: &newPrice}); err != nil {
		t.Fatalf("EditSale: %v", err)
	}
	txs := s.TransactionsRelatedTo(sale.ID)
	if len(txs) != 1 || !txs[0].Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("settlement txs = %+v, want one for 500 (1500 - 1000 deposit)", txs)
	}
	if txs[0].Description != "ORDER BALANCE SETTLEMENT: Budi (ROTI)" {
		t.Fatalf("settlement description = %q", txs[0].Description)
	}
	if txs[0].CreatedAt != 5000 {
		t.Fatalf("settlement createdAt = %d, want the order completion time", txs[0].CreatedAt)
	}

	// Lowering it back to the deposit removes the entry again.
	backPrice := decimal.NewFromInt(200)
	if _, err := EditSale(s, sale.ID, &models.UpdateSale{SalePrice: &backPrice}); err != nil {
		t.Fatalf("EditSale: %v", err)
	}
	if txs := s.TransactionsRelatedTo(sale.ID); len(txs) != 0 {
		t.Fatalf("settlement txs = %+v, want none when the deposit covers the revenue", txs)
	}
}

func TestUpdateDepositOrderSyncsDepositTransaction(t *testing.T) {
	s := models.NewLedgerSnapshot()
	order := createTestOrder(t, s)

	newDeposit := decimal.NewFromInt(400)
	newCustomer := "Siti"
	if _, err := UpdateDepositOrder(s, order.ID, &models.UpdateDepositOrder{
		CustomerName:  &newCustomer,
		DepositAmount: &newDeposit,
	}); err != nil {
		t.Fatalf("UpdateDepositOrder: %v", err)
	}
	tx := s.TransactionsRelatedTo(order.ID)[0]
	if !tx.Amount.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("tx amount = %s, want 400", tx.Amount)
	}
	if tx.Description != "ORDER DEPOSIT: Siti (ROTI)" {
		t.Fatalf("tx description = %q", tx.Description)
	}
}
