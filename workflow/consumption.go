package workflow

import (
	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

// ConsumptionEntry records one decrement made by the FIFO selector. When a
// batch with variants is drained without a requested label, one entry is
// emitted per variant touched so restoration is exact at variant
// granularity.
type ConsumptionEntry struct {
	BatchID      string
	VariantLabel string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
}

// ConsumeFIFO takes quantityNeeded units of the product from its batches,
// oldest first by (createdAt, sequence), and returns the accumulated cost
// plus the per-batch entries. variantLabel restricts consumption to that
// variant on batches that have variants.
//
// The availability scan runs before any decrement: on insufficient stock
// the snapshot is left untouched and an InsufficientStockError is
// returned.
func ConsumeFIFO(s *models.LedgerSnapshot, productName string, stockType models.StockType, variantLabel string, quantityNeeded decimal.Decimal) (decimal.Decimal, []ConsumptionEntry, error) {
	if !quantityNeeded.IsPositive() {
		return decimal.Zero, nil, models.NewValidationError("quantity", "must be positive")
	}

	batches := s.BatchesFor(productName, stockType)

	available := decimal.Zero
	for _, b := range batches {
		if !b.CurrentQuantity.IsPositive() {
			continue
		}
		available = available.Add(b.AvailableFor(variantLabel))
	}
	if available.LessThan(quantityNeeded) {
		return decimal.Zero, nil, &models.InsufficientStockError{
			ProductName:  models.NormalizeProductName(productName),
			VariantLabel: variantLabel,
			Available:    available,
			Requested:    quantityNeeded,
		}
	}

	totalCost := decimal.Zero
	remaining := quantityNeeded
	entries := make([]ConsumptionEntry, 0, 4)
	for _, b := range batches {
		if !remaining.IsPositive() {
			break
		}
		if !b.CurrentQuantity.IsPositive() {
			continue
		}
		avail := b.AvailableFor(variantLabel)
		if !avail.IsPositive() {
			continue
		}
		take := decimal.Min(avail, remaining)
		taken := consumeFromBatch(b, variantLabel, take)
		entries = append(entries, taken...)
		totalCost = totalCost.Add(take.Mul(b.UnitCost))
		remaining = remaining.Sub(take)
	}

	return totalCost, entries, nil
}

// consumeFromBatch decrements the batch by take units. With an explicit
// label only that variant moves; without one, variants drain in list
// order so the variant-sum invariant survives the decrement.
func consumeFromBatch(b *models.Batch, variantLabel string, take decimal.Decimal) []ConsumptionEntry {
	b.CurrentQuantity = b.CurrentQuantity.Sub(take)

	if len(b.Variants) == 0 {
		return []ConsumptionEntry{{
			BatchID:  b.ID,
			Quantity: take,
			UnitCost: b.UnitCost,
		}}
	}

	if variantLabel != "" {
		v := b.Variant(variantLabel)
		v.Quantity = v.Quantity.Sub(take)
		return []ConsumptionEntry{{
			BatchID:      b.ID,
			VariantLabel: variantLabel,
			Quantity:     take,
			UnitCost:     b.UnitCost,
		}}
	}

	entries := make([]ConsumptionEntry, 0, 2)
	remaining := take
	for i := range b.Variants {
		if !remaining.IsPositive() {
			break
		}
		v := &b.Variants[i]
		if !v.Quantity.IsPositive() {
			continue
		}
		part := decimal.Min(v.Quantity, remaining)
		v.Quantity = v.Quantity.Sub(part)
		remaining = remaining.Sub(part)
		entries = append(entries, ConsumptionEntry{
			BatchID:      b.ID,
			VariantLabel: v.Label,
			Quantity:     part,
			UnitCost:     b.UnitCost,
		})
	}
	return entries
}

// RestoreConsumption puts recorded quantities back onto their batches.
// Batches that have ever been consumed from are never deleted and their
// variant lists are never replaced, so every entry's batch and recorded
// label are present.
func RestoreConsumption(s *models.LedgerSnapshot, entries []ConsumptionEntry) {
	for _, e := range entries {
		b := s.FindBatch(e.BatchID)
		if b == nil {
			continue
		}
		b.CurrentQuantity = b.CurrentQuantity.Add(e.Quantity)
		if e.VariantLabel != "" {
			if v := b.Variant(e.VariantLabel); v != nil {
				v.Quantity = v.Quantity.Add(e.Quantity)
			}
		}
	}
}

// ReapplyConsumption re-executes recorded entries verbatim. Used to roll a
// snapshot back to its pre-edit shape after a restoration whose follow-up
// consumption failed.
func ReapplyConsumption(s *models.LedgerSnapshot, entries []ConsumptionEntry) {
	for _, e := range entries {
		b := s.FindBatch(e.BatchID)
		if b == nil {
			continue
		}
		b.CurrentQuantity = b.CurrentQuantity.Sub(e.Quantity)
		if e.VariantLabel != "" {
			if v := b.Variant(e.VariantLabel); v != nil {
				v.Quantity = v.Quantity.Sub(e.Quantity)
			}
		}
	}
}
