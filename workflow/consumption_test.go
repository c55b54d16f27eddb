package workflow

import (
	"errors"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

func seedBatch(s *models.LedgerSnapshot, product string, stockType models.StockType, qty, cost, createdAt int64) *models.Batch {
	b := &models.Batch{
		ID:              product + "-" + strconv.FormatInt(s.NextBatchSequence(), 10),
		ProductName:     models.NormalizeProductName(product),
		StockType:       stockType,
		InitialQuantity: decimal.NewFromInt(qty),
		CurrentQuantity: decimal.NewFromInt(qty),
		UnitCost:        decimal.NewFromInt(cost),
		CreatedAt:       createdAt,
		Sequence:        s.NextBatchSequence(),
	}
	s.Batches = append(s.Batches, b)
	return b
}

func TestConsumeFIFOOrderAndCost(t *testing.T) {
	s := models.NewLedgerSnapshot()
	b1 := seedBatch(s, "flour", models.StockTypeRawMaterial, 5, 10, 1000)
	b2 := seedBatch(s, "flour", models.StockTypeRawMaterial, 5, 20, 2000)

	cost, entries, err := ConsumeFIFO(s, "flour", models.StockTypeRawMaterial, "", decimal.NewFromInt(7))
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	// 5*10 from the old batch, 2*20 from the new one.
	if !cost.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("cost = %s, want 90", cost)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].BatchID != b1.ID || !entries[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("first entry = %+v, want 5 from oldest batch", entries[0])
	}
	if entries[1].BatchID != b2.ID || !entries[1].Quantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("second entry = %+v, want 2 from newer batch", entries[1])
	}
	if !b1.CurrentQuantity.IsZero() {
		t.Fatalf("b1 current = %s, want 0", b1.CurrentQuantity)
	}
	if !b2.CurrentQuantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("b2 current = %s, want 3", b2.CurrentQuantity)
	}
}

func TestConsumeFIFOTimestampTieBreaksBySequence(t *testing.T) {
	s := models.NewLedgerSnapshot()
	first := seedBatch(s, "sugar", models.StockTypeRawMaterial, 3, 10, 5000)
	second := seedBatch(s, "sugar", models.StockTypeRawMaterial, 3, 15, 5000)

	_, entries, err := ConsumeFIFO(s, "sugar", models.StockTypeRawMaterial, "", decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if len(entries) != 1 || entries[0].BatchID != first.ID {
		t.Fatalf("consumed from %s, want the earlier-inserted batch %s", entries[0].BatchID, first.ID)
	}
	if !second.CurrentQuantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("later-inserted batch was touched: current = %s", second.CurrentQuantity)
	}
}

func TestConsumeFIFOInsufficientStockLeavesSnapshotUntouched(t *testing.T) {
	s := models.NewLedgerSnapshot()
	b := seedBatch(s, "flour", models.StockTypeRawMaterial, 10, 10, 1000)

	_, _, err := ConsumeFIFO(s, "flour", models.StockTypeRawMaterial, "", decimal.NewFromInt(11))
	var stockErr *models.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if !stockErr.Available.Equal(decimal.NewFromInt(10)) || !stockErr.Requested.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("stockErr = %+v", stockErr)
	}
	if !b.CurrentQuantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("batch mutated on failed consumption: current = %s", b.CurrentQuantity)
	}
}

func TestConsumeFIFOVariantDrainKeepsSumInvariant(t *testing.T) {
	s := models.NewLedgerSnapshot()
	b := seedBatch(s, "shirt", models.StockTypeFinishedGood, 10, 50, 1000)
	b.Variants = []models.BatchVariant{
		{ID: "v1", BatchID: b.ID, Label: "S", Quantity: decimal.NewFromInt(4)},
		{ID: "v2", BatchID: b.ID, Label: "M", Quantity: decimal.NewFromInt(6)},
	}

	// No label: variants drain in list order, one entry per variant touched.
	_, entries, err := ConsumeFIFO(s, "shirt", models.StockTypeFinishedGood, "", decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (S drained, M partially)", len(entries))
	}
	if entries[0].VariantLabel != "S" || !entries[0].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].VariantLabel != "M" || !entries[1].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("second entry = %+v", entries[1])
	}
	if !b.VariantSumMatches() {
		t.Fatalf("variant sum invariant broken: current=%s", b.CurrentQuantity)
	}
}

func TestConsumeFIFOWithVariantLabel(t *testing.T) {
	s := models.NewLedgerSnapshot()
	b := seedBatch(s, "shirt", models.StockTypeFinishedGood, 10, 50, 1000)
	b.Variants = []models.BatchVariant{
		{ID: "v1", BatchID: b.ID, Label: "S", Quantity: decimal.NewFromInt(4)},
		{ID: "v2", BatchID: b.ID, Label: "M", Quantity: decimal.NewFromInt(6)},
	}

	_, _, err := ConsumeFIFO(s, "shirt", models.StockTypeFinishedGood, "M", decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	if !b.Variant("M").Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("M quantity = %s, want 1", b.Variant("M").Quantity)
	}
	if !b.Variant("S").Quantity.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("S quantity = %s, want 4 (untouched)", b.Variant("S").Quantity)
	}

	// Asking for more than the variant holds fails even though the batch
	// as a whole has enough.
	_, _, err = ConsumeFIFO(s, "shirt", models.StockTypeFinishedGood, "M", decimal.NewFromInt(2))
	var stockErr *models.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError for variant M", err)
	}
}

func TestRestoreConsumptionRoundTrip(t *testing.T) {
	s := models.NewLedgerSnapshot()
	seedBatch(s, "flour", models.StockTypeRawMaterial, 5, 10, 1000)
	seedBatch(s, "flour", models.StockTypeRawMaterial, 5, 20, 2000)

	_, entries, err := ConsumeFIFO(s, "flour", models.StockTypeRawMaterial, "", decimal.NewFromInt(7))
	if err != nil {
		t.Fatalf("ConsumeFIFO: %v", err)
	}
	RestoreConsumption(s, entries)

	if !s.TotalAvailable("flour", models.StockTypeRawMaterial, "").Equal(decimal.NewFromInt(10)) {
		t.Fatalf("total after restore = %s, want 10", s.TotalAvailable("flour", models.StockTypeRawMaterial, ""))
	}

	ReapplyConsumption(s, entries)
	if !s.TotalAvailable("flour", models.StockTypeRawMaterial, "").Equal(decimal.NewFromInt(3)) {
		t.Fatalf("total after reapply = %s, want 3", s.TotalAvailable("flour", models.StockTypeRawMaterial, ""))
	}
}
