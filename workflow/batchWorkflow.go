package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/umkmpro/umkm_backend/models"
)

// CreateBatch adds a new cost layer and emits the matching STOCK_PURCHASE
// cash-out entry, linked by the batch id.
func CreateBatch(s *models.LedgerSnapshot, input *models.NewBatch) (*models.Batch, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	batch := &models.Batch{
		ID:              uuid.NewString(),
		ProductName:     models.NormalizeProductName(input.ProductName),
		StockType:       input.StockType,
		InitialQuantity: input.Quantity,
		CurrentQuantity: input.Quantity,
		UnitCost:        input.UnitCost,
		CreatedAt:       input.CreatedAt,
		Sequence:        s.NextBatchSequence(),
	}
	for _, v := range input.Variants {
		batch.Variants = append(batch.Variants, models.BatchVariant{
			ID:       uuid.NewString(),
			BatchID:  batch.ID,
			Label:    v.Label,
			Quantity: v.Quantity,
		})
	}
	batch.SyncQuantityFromVariants(true)

	s.Batches = append(s.Batches, batch)
	s.Transactions = append(s.Transactions, &models.Transaction{
		ID:            uuid.NewString(),
		Type:          models.TransactionTypeCashOut,
		Category:      models.CategoryStockPurchase,
		Amount:        batch.InitialQuantity.Mul(batch.UnitCost),
		Description:   fmt.Sprintf("STOCK PURCHASE: %s", batch.ProductName),
		RelatedID:     &batch.ID,
		PaymentMethod: paymentMethodOrCash(input.PaymentMethod),
		CreatedAt:     input.CreatedAt,
	})
	return batch, nil
}

// EditBatch applies a partial update. When variants are supplied they
// become the source of truth: both quantities are recomputed as the
// variant sum. The linked purchase transaction follows the new amount and
// description.
//
// Variant replacement is refused once anything has consumed from the
// batch: recorded consumption carries variant labels, and reversal needs
// those labels to still exist.
func EditBatch(s *models.LedgerSnapshot, id string, input *models.UpdateBatch) (*models.Batch, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	batch := s.FindBatch(id)
	if batch == nil {
		return nil, &models.NotFoundError{Entity: "batch", ID: id}
	}

	if input.Variants != nil {
		for _, u := range s.ProductionUsages {
			if u.BatchID == id {
				return nil, models.NewConflictError("batch %s has been consumed by production %s; its variants can no longer be replaced", id, u.ProductionID)
			}
		}
		for _, c := range s.SaleConsumptions {
			if c.BatchID == id {
				return nil, models.NewConflictError("batch %s has been consumed by sale %s; its variants can no longer be replaced", id, c.SaleID)
			}
		}
	}

	if input.ProductName != nil {
		batch.ProductName = models.NormalizeProductName(*input.ProductName)
	}
	if input.UnitCost != nil {
		batch.UnitCost = *input.UnitCost
	}
	if input.CreatedAt != nil {
		batch.CreatedAt = *input.CreatedAt
	}
	if input.Variants != nil {
		variants := make([]models.BatchVariant, 0, len(input.Variants))
		for _, v := range input.Variants {
			variants = append(variants, models.BatchVariant{
				ID:       uuid.NewString(),
				BatchID:  batch.ID,
				Label:    v.Label,
				Quantity: v.Quantity,
			})
		}
		batch.Variants = variants
		batch.SyncQuantityFromVariants(true)
	}

	for _, t := range s.TransactionsRelatedTo(batch.ID) {
		if t.Category != models.CategoryStockPurchase {
			continue
		}
		t.Amount = batch.InitialQuantity.Mul(batch.UnitCost)
		t.Description = fmt.Sprintf("STOCK PURCHASE: %s", batch.ProductName)
		t.CreatedAt = batch.CreatedAt
	}
	return batch, nil
}

// DeleteBatch removes a batch and its purchase transaction. A batch that
// any production or sale has consumed from stays: deleting it would orphan
// the recorded consumption that reversal relies on.
func DeleteBatch(s *models.LedgerSnapshot, id string) error {
	batch := s.FindBatch(id)
	if batch == nil {
		return &models.NotFoundError{Entity: "batch", ID: id}
	}
	for _, u := range s.ProductionUsages {
		if u.BatchID == id {
			return models.NewConflictError("batch %s has been consumed by production %s and cannot be deleted", id, u.ProductionID)
		}
	}
	for _, c := range s.SaleConsumptions {
		if c.BatchID == id {
			return models.NewConflictError("batch %s has been consumed by sale %s and cannot be deleted", id, c.SaleID)
		}
	}
	s.RemoveBatch(id)
	s.RemoveTransactionsRelatedTo(id)
	return nil
}

func paymentMethodOrCash(m models.PaymentMethod) models.PaymentMethod {
	if m == "" {
		return models.PaymentMethodCash
	}
	return m
}
