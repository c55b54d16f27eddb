package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

// StartProduction opens a manufacturing run. Raw materials are not touched
// yet: the plan's ingredient quantities may be zero or approximate and are
// only committed at completion. Each positive operational cost emits a
// PRODUCTION_COST cash-out entry linked to the run.
func StartProduction(s *models.LedgerSnapshot, input *models.NewProduction) (*models.ProductionRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	totalOpCost := decimal.Zero
	for _, c := range input.OperationalCosts {
		totalOpCost = totalOpCost.Add(c.Amount)
	}

	prod := &models.ProductionRecord{
		ID:                uuid.NewString(),
		OutputProductName: models.NormalizeProductName(input.OutputProductName),
		OutputQuantity:    input.OutputQuantity,
		TotalCost:         totalOpCost,
		Status:            models.ProductionStatusInProgress,
		Ingredients:       normalizeIngredients(input.Ingredients),
		CreatedAt:         input.CreatedAt,
	}
	s.Productions = append(s.Productions, prod)

	for _, c := range input.OperationalCosts {
		if !c.Amount.IsPositive() {
			continue
		}
		s.Transactions = append(s.Transactions, &models.Transaction{
			ID:            uuid.NewString(),
			Type:          models.TransactionTypeCashOut,
			Category:      models.CategoryProductionCost,
			Amount:        c.Amount,
			Description:   fmt.Sprintf("PRODUCTION %s (%s)", prod.OutputProductName, c.Description),
			RelatedID:     &prod.ID,
			PaymentMethod: paymentMethodOrCash(c.PaymentMethod),
			CreatedAt:     input.CreatedAt,
		})
	}
	return prod, nil
}

// UpdateProduction edits the plan of an IN_PROGRESS run. It never touches
// inventory; completed runs are closed to edits.
func UpdateProduction(s *models.LedgerSnapshot, id string, input *models.UpdateProduction) (*models.ProductionRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	prod := s.FindProduction(id)
	if prod == nil {
		return nil, &models.NotFoundError{Entity: "production", ID: id}
	}
	if prod.Status == models.ProductionStatusCompleted {
		return nil, models.NewConflictError("production %s is completed and can no longer be edited", id)
	}

	if input.OutputProductName != nil {
		prod.OutputProductName = models.NormalizeProductName(*input.OutputProductName)
	}
	if input.OutputQuantity != nil {
		prod.OutputQuantity = *input.OutputQuantity
	}
	if input.Ingredients != nil {
		prod.Ingredients = normalizeIngredients(input.Ingredients)
	}
	return prod, nil
}

// CompleteProduction consumes the actual ingredients FIFO from raw
// material batches, prices the output at (operational + material cost) /
// actual quantity, and creates exactly one finished good batch. The
// transition is one-way: completing an already-completed run is a no-op,
// so retries cannot double-consume materials or duplicate the output
// batch.
//
// Ingredient consumption is all-or-nothing: an insufficient ingredient
// rolls back every decrement already made and the snapshot is returned to
// its pre-call shape.
func CompleteProduction(s *models.LedgerSnapshot, id string, input *models.CompleteProduction) (*models.ProductionRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	prod := s.FindProduction(id)
	if prod == nil {
		return nil, &models.NotFoundError{Entity: "production", ID: id}
	}
	if prod.Status == models.ProductionStatusCompleted {
		return prod, nil
	}

	totalMaterialCost := decimal.Zero
	committed := make([]ConsumptionEntry, 0, 8)
	usages := make([]*models.ProductionUsage, 0, 8)
	for _, ing := range input.ActualIngredients {
		if !ing.Quantity.IsPositive() {
			continue
		}
		cost, entries, err := ConsumeFIFO(s, ing.ProductName, models.StockTypeRawMaterial, "", ing.Quantity)
		if err != nil {
			RestoreConsumption(s, committed)
			return nil, err
		}
		committed = append(committed, entries...)
		totalMaterialCost = totalMaterialCost.Add(cost)
		for _, e := range entries {
			usage := &models.ProductionUsage{
				ID:           uuid.NewString(),
				ProductionID: prod.ID,
				BatchID:      e.BatchID,
				QuantityUsed: e.Quantity,
				CostPerUnit:  e.UnitCost,
			}
			if e.VariantLabel != "" {
				label := e.VariantLabel
				usage.VariantLabel = &label
			}
			usages = append(usages, usage)
		}
	}

	finalCost := prod.TotalCost.Add(totalMaterialCost)
	unitCost := decimal.Zero
	if input.ActualQuantity.IsPositive() {
		unitCost = finalCost.Div(input.ActualQuantity)
	}

	completedAt := input.CompletedAt
	output := &models.Batch{
		ID:              uuid.NewString(),
		ProductName:     prod.OutputProductName,
		StockType:       models.StockTypeFinishedGood,
		InitialQuantity: input.ActualQuantity,
		CurrentQuantity: input.ActualQuantity,
		UnitCost:        unitCost,
		CreatedAt:       completedAt,
		Sequence:        s.NextBatchSequence(),
	}
	for _, v := range input.Variants {
		output.Variants = append(output.Variants, models.BatchVariant{
			ID:       uuid.NewString(),
			BatchID:  output.ID,
			Label:    v.Label,
			Quantity: v.Quantity,
		})
	}

	s.Batches = append(s.Batches, output)
	s.ProductionUsages = append(s.ProductionUsages, usages...)

	prod.Status = models.ProductionStatusCompleted
	prod.CompletedAt = &completedAt
	prod.BatchIdCreated = &output.ID
	prod.OutputQuantity = input.ActualQuantity
	prod.TotalCost = finalCost
	prod.ActualIngredients = normalizeIngredients(input.ActualIngredients)
	return prod, nil
}

// DeleteProduction undoes a run. Raw material restoration is exact, from
// the recorded usage rows. A completed run whose output batch has already
// been partially sold is kept: its cost has leaked into realized COGS.
func DeleteProduction(s *models.LedgerSnapshot, id string) error {
	prod := s.FindProduction(id)
	if prod == nil {
		return &models.NotFoundError{Entity: "production", ID: id}
	}

	if prod.Status == models.ProductionStatusCompleted && prod.BatchIdCreated != nil {
		output := s.FindBatch(*prod.BatchIdCreated)
		if output != nil && output.CurrentQuantity.LessThan(output.InitialQuantity) {
			return models.NewConflictError("production %s output has been partially sold and the run cannot be deleted", id)
		}
	}

	for _, u := range s.UsagesForProduction(id) {
		b := s.FindBatch(u.BatchID)
		if b == nil {
			continue
		}
		b.CurrentQuantity = b.CurrentQuantity.Add(u.QuantityUsed)
		if u.VariantLabel != nil {
			if v := b.Variant(*u.VariantLabel); v != nil {
				v.Quantity = v.Quantity.Add(u.QuantityUsed)
			}
		}
	}

	if prod.BatchIdCreated != nil {
		s.RemoveBatch(*prod.BatchIdCreated)
	}
	s.RemoveUsagesForProduction(id)
	s.RemoveProduction(id)
	s.RemoveTransactionsRelatedTo(id)
	return nil
}

func normalizeIngredients(in []models.ProductionIngredient) models.IngredientList {
	out := make(models.IngredientList, 0, len(in))
	for _, ing := range in {
		out = append(out, models.ProductionIngredient{
			ProductName: models.NormalizeProductName(ing.ProductName),
			Quantity:    ing.Quantity,
		})
	}
	return out
}
