package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates or updates every ledger table.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Batch{},
		&BatchVariant{},
		&ProductionRecord{},
		&ProductionUsage{},
		&SaleRecord{},
		&SaleConsumption{},
		&DepositOrder{},
		&Loan{},
		&Transaction{},
	)
}
