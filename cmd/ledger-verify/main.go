// Command ledger-verify loads a business's snapshot and checks the ledger
// invariants: quantity conservation per product and the variant-sum rule
// per batch. Exits non-zero when any violation is found.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/umkmpro/umkm_backend/config"
	"github.com/umkmpro/umkm_backend/store"
)

func main() {
	businessId := flag.String("business", store.DefaultBusinessID(), "business id to verify")
	driver := flag.String("driver", os.Getenv("STORAGE_DRIVER"), "storage driver (mysql|file)")
	dataDir := flag.String("data-dir", os.Getenv("DATA_DIR"), "snapshot directory for the file driver")
	flag.Parse()

	var repo store.Repository
	switch strings.ToLower(strings.TrimSpace(*driver)) {
	case "file":
		dir := *dataDir
		if dir == "" {
			dir = "./data"
		}
		repo = store.NewFileRepository(dir, *businessId)
	default:
		config.ConnectDatabaseWithRetry()
		repo = store.NewGormRepository(config.GetDB(), *businessId)
	}

	snapshot, err := repo.LoadAll(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load snapshot: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for _, v := range snapshot.CheckConservation() {
		failed = true
		fmt.Printf("conservation violated: product=%s stock_type=%s expected=%s actual=%s\n",
			v.ProductName, v.StockType, v.Expected.String(), v.Actual.String())
	}
	for _, id := range snapshot.CheckVariantSums() {
		failed = true
		b := snapshot.FindBatch(id)
		fmt.Printf("variant sum violated: batch=%s product=%s current=%s\n",
			id, b.ProductName, b.CurrentQuantity.String())
	}

	inventoryValue := decimal.Zero
	for _, b := range snapshot.Batches {
		inventoryValue = inventoryValue.Add(b.CurrentQuantity.Mul(b.UnitCost))
	}
	fmt.Printf("checked %d batches, %d productions, %d sales; inventory value %s\n",
		len(snapshot.Batches), len(snapshot.Productions), len(snapshot.Sales), inventoryValue.String())

	if failed {
		os.Exit(1)
	}
	fmt.Println("ok")
}
