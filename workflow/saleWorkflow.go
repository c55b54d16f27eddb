package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/umkmpro/umkm_backend/models"
	"github.com/umkmpro/umkm_backend/utils"
)

// RecordSale consumes finished goods FIFO, records the per-batch
// consumption and emits the SALES cash-in entry. Revenue is quantity x
// sale price; COGS is whatever the selector accumulated.
func RecordSale(s *models.LedgerSnapshot, input *models.NewSale) (*models.SaleRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	cogs, entries, err := ConsumeFIFO(s, input.ProductName, models.StockTypeFinishedGood, input.VariantLabel, input.Quantity)
	if err != nil {
		return nil, err
	}

	sale := &models.SaleRecord{
		ID:           uuid.NewString(),
		ProductName:  models.NormalizeProductName(input.ProductName),
		Quantity:     input.Quantity,
		SalePrice:    input.SalePrice,
		TotalRevenue: input.Quantity.Mul(input.SalePrice),
		TotalCOGS:    cogs,
		CreatedAt:    input.CreatedAt,
	}
	if input.VariantLabel != "" {
		label := input.VariantLabel
		sale.VariantLabel = &label
	}
	s.Sales = append(s.Sales, sale)
	appendSaleConsumptions(s, sale.ID, entries)

	s.Transactions = append(s.Transactions, &models.Transaction{
		ID:            uuid.NewString(),
		Type:          models.TransactionTypeCashIn,
		Category:      models.CategorySales,
		Amount:        sale.TotalRevenue,
		Description:   saleDescription(sale),
		RelatedID:     &sale.ID,
		PaymentMethod: paymentMethodOrCash(input.PaymentMethod),
		CreatedAt:     input.CreatedAt,
	})
	return sale, nil
}

// EditSale reverses the recorded consumption exactly, re-consumes with the
// merged values and recomputes revenue and COGS. When the re-consumption
// fails the original entries are reapplied, so a failed edit leaves the
// sale and the batches exactly as they were.
func EditSale(s *models.LedgerSnapshot, id string, input *models.UpdateSale) (*models.SaleRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	sale := s.FindSale(id)
	if sale == nil {
		return nil, &models.NotFoundError{Entity: "sale", ID: id}
	}

	productName := sale.ProductName
	if input.ProductName != nil {
		productName = models.NormalizeProductName(*input.ProductName)
	}
	quantity := sale.Quantity
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	salePrice := sale.SalePrice
	if input.SalePrice != nil {
		salePrice = *input.SalePrice
	}
	variantLabel := ""
	if sale.VariantLabel != nil {
		variantLabel = *sale.VariantLabel
	}
	if input.VariantLabel != nil {
		variantLabel = *input.VariantLabel
	}

	old := consumptionEntriesOf(s.ConsumptionsForSale(id))
	RestoreConsumption(s, old)

	cogs, entries, err := ConsumeFIFO(s, productName, models.StockTypeFinishedGood, variantLabel, quantity)
	if err != nil {
		ReapplyConsumption(s, old)
		return nil, err
	}

	s.RemoveConsumptionsForSale(id)
	appendSaleConsumptions(s, id, entries)

	sale.ProductName = productName
	sale.Quantity = quantity
	sale.SalePrice = salePrice
	sale.TotalRevenue = quantity.Mul(salePrice)
	sale.TotalCOGS = cogs
	if variantLabel == "" {
		sale.VariantLabel = nil
	} else {
		sale.VariantLabel = &variantLabel
	}

	syncSaleTransactions(s, sale)
	return sale, nil
}

// DeleteSale restores the consumed quantities exactly and removes the sale
// with its ledger entry. A sale that settled a deposit order also reverts
// the order to PENDING: the settlement entry goes away and the deposit
// entry is reclassified back to DEPOSIT.
func DeleteSale(s *models.LedgerSnapshot, id string) error {
	sale := s.FindSale(id)
	if sale == nil {
		return &models.NotFoundError{Entity: "sale", ID: id}
	}

	RestoreConsumption(s, consumptionEntriesOf(s.ConsumptionsForSale(id)))
	s.RemoveConsumptionsForSale(id)
	s.RemoveSale(id)
	s.RemoveTransactionsRelatedTo(id)

	if sale.RelatedOrderID != nil {
		if order := s.FindOrder(*sale.RelatedOrderID); order != nil {
			order.Status = models.OrderStatusPending
			order.CompletedAt = nil
			for _, t := range s.TransactionsRelatedTo(order.ID) {
				if t.Category == models.CategorySales {
					t.Category = models.CategoryDeposit
					t.Description = fmt.Sprintf("ORDER DEPOSIT: %s (%s)", order.CustomerName, order.ProductName)
				}
			}
		}
	}
	return nil
}

// syncSaleTransactions rewrites the sale's own cash-in entry. A direct
// sale carries the full revenue; a sale that settled a deposit order
// carries the balance, revenue minus the deposit already taken. An order
// whose deposit covered the whole amount has no balance entry, so an edit
// can make that entry appear or vanish.
func syncSaleTransactions(s *models.LedgerSnapshot, sale *models.SaleRecord) {
	var order *models.DepositOrder
	if sale.RelatedOrderID != nil {
		order = s.FindOrder(*sale.RelatedOrderID)
	}

	var own *models.Transaction
	for _, t := range s.TransactionsRelatedTo(sale.ID) {
		if t.Category == models.CategorySales {
			own = t
			break
		}
	}

	if order == nil {
		if own != nil {
			own.Amount = sale.TotalRevenue
			own.Description = saleDescription(sale)
		}
		return
	}

	balance := sale.TotalRevenue.Sub(order.DepositAmount)
	switch {
	case balance.IsPositive() && own != nil:
		own.Amount = balance
	case balance.IsPositive():
		method := models.PaymentMethodCash
		for _, t := range s.TransactionsRelatedTo(order.ID) {
			if t.Category == models.CategorySales {
				method = t.PaymentMethod
			}
		}
		s.Transactions = append(s.Transactions, &models.Transaction{
			ID:            uuid.NewString(),
			Type:          models.TransactionTypeCashIn,
			Category:      models.CategorySales,
			Amount:        balance,
			Description:   fmt.Sprintf("ORDER BALANCE SETTLEMENT: %s (%s)", order.CustomerName, order.ProductName),
			RelatedID:     &sale.ID,
			PaymentMethod: method,
			CreatedAt:     utils.DereferencePtr(order.CompletedAt, sale.CreatedAt),
		})
	case own != nil:
		s.RemoveTransaction(own.ID)
	}
}

func saleDescription(sale *models.SaleRecord) string {
	if sale.VariantLabel != nil && *sale.VariantLabel != "" {
		return fmt.Sprintf("SALE: %s (%s)", sale.ProductName, *sale.VariantLabel)
	}
	return fmt.Sprintf("SALE: %s", sale.ProductName)
}

func appendSaleConsumptions(s *models.LedgerSnapshot, saleID string, entries []ConsumptionEntry) {
	for _, e := range entries {
		c := &models.SaleConsumption{
			ID:            uuid.NewString(),
			SaleID:        saleID,
			BatchID:       e.BatchID,
			QuantityTaken: e.Quantity,
			UnitCost:      e.UnitCost,
		}
		if e.VariantLabel != "" {
			label := e.VariantLabel
			c.VariantLabel = &label
		}
		s.SaleConsumptions = append(s.SaleConsumptions, c)
	}
}

func consumptionEntriesOf(rows []*models.SaleConsumption) []ConsumptionEntry {
	out := make([]ConsumptionEntry, 0, len(rows))
	for _, c := range rows {
		e := ConsumptionEntry{
			BatchID:  c.BatchID,
			Quantity: c.QuantityTaken,
			UnitCost: c.UnitCost,
		}
		if c.VariantLabel != nil {
			e.VariantLabel = *c.VariantLabel
		}
		out = append(out, e)
	}
	return out
}
