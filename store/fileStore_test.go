package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/models"
)

func TestFileRepositoryRoundTrip(t *testing.T) {
	repo := NewFileRepository(t.TempDir(), "test-biz")

	snapshot := models.NewLedgerSnapshot()
	label := "M"
	snapshot.Batches = append(snapshot.Batches, &models.Batch{
		ID:              "b1",
		ProductName:     "ROTI",
		StockType:       models.StockTypeFinishedGood,
		InitialQuantity: decimal.NewFromInt(10),
		CurrentQuantity: decimal.NewFromInt(7),
		UnitCost:        decimal.RequireFromString("12.5"),
		Variants: []models.BatchVariant{
			{ID: "v1", BatchID: "b1", Label: label, Quantity: decimal.NewFromInt(7)},
		},
		CreatedAt: 1000,
		Sequence:  1,
	})
	snapshot.Sales = append(snapshot.Sales, &models.SaleRecord{
		ID:           "s1",
		ProductName:  "ROTI",
		VariantLabel: &label,
		Quantity:     decimal.NewFromInt(3),
		TotalCOGS:    decimal.RequireFromString("37.5"),
		CreatedAt:    2000,
	})

	if err := repo.SaveAll(context.Background(), snapshot); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	loaded, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if len(loaded.Batches) != 1 || len(loaded.Sales) != 1 {
		t.Fatalf("loaded batches=%d sales=%d", len(loaded.Batches), len(loaded.Sales))
	}
	b := loaded.Batches[0]
	if !b.UnitCost.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unit cost = %s, want 12.5", b.UnitCost)
	}
	if len(b.Variants) != 1 || b.Variants[0].Label != "M" {
		t.Fatalf("variants = %+v", b.Variants)
	}
	if loaded.Sales[0].VariantLabel == nil || *loaded.Sales[0].VariantLabel != "M" {
		t.Fatal("sale variant label lost")
	}
}

func TestFileRepositoryMissingFileReturnsEmpty(t *testing.T) {
	repo := NewFileRepository(t.TempDir(), "nobody")
	loaded, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded.Batches) != 0 || len(loaded.Transactions) != 0 {
		t.Fatal("expected an empty snapshot for a missing file")
	}
}

func TestStoreApplyCommitsOnlyOnSuccess(t *testing.T) {
	repo := NewFileRepository(t.TempDir(), "test-biz")
	st := NewStore("test-biz", repo, nil)

	err := st.Apply(context.Background(), "seed", func(s *models.LedgerSnapshot) error {
		s.Batches = append(s.Batches, &models.Batch{
			ID:              "b1",
			ProductName:     "FLOUR",
			StockType:       models.StockTypeRawMaterial,
			InitialQuantity: decimal.NewFromInt(5),
			CurrentQuantity: decimal.NewFromInt(5),
			CreatedAt:       1000,
			Sequence:        1,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	failed := models.NewConflictError("boom")
	err = st.Apply(context.Background(), "fail", func(s *models.LedgerSnapshot) error {
		s.Batches = nil
		return failed
	})
	if err != failed {
		t.Fatalf("Apply err = %v, want the operation error", err)
	}

	snap := st.Snapshot()
	if len(snap.Batches) != 1 {
		t.Fatalf("batches = %d; failed operation must not mutate committed state", len(snap.Batches))
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	repo := NewFileRepository(t.TempDir(), "test-biz")
	st := NewStore("test-biz", repo, nil)

	if err := st.Apply(context.Background(), "seed", func(s *models.LedgerSnapshot) error {
		s.Batches = append(s.Batches, &models.Batch{
			ID:              "b1",
			CurrentQuantity: decimal.NewFromInt(5),
			Sequence:        1,
		})
		return nil
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	snap := st.Snapshot()
	snap.Batches[0].CurrentQuantity = decimal.NewFromInt(99)

	if !st.Snapshot().Batches[0].CurrentQuantity.Equal(decimal.NewFromInt(5)) {
		t.Fatal("reader mutation leaked into committed state")
	}
}
