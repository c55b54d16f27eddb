package store

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/umkmpro/umkm_backend/models"
)

// GormRepository persists snapshots to MySQL. Every save replaces the
// business's rows wholesale inside one transaction, so the tables always
// mirror one committed snapshot.
type GormRepository struct {
	db         *gorm.DB
	businessId string
}

func NewGormRepository(db *gorm.DB, businessId string) *GormRepository {
	return &GormRepository{db: db, businessId: businessId}
}

func (r *GormRepository) LoadAll(ctx context.Context) (*models.LedgerSnapshot, error) {
	snapshot := models.NewLedgerSnapshot()
	db := r.db.WithContext(ctx)

	if err := db.Preload(clause.Associations).
		Where("business_id = ?", r.businessId).
		Order("created_at, sequence").
		Find(&snapshot.Batches).Error; err != nil {
		return nil, err
	}
	if err := db.Where("business_id = ?", r.businessId).Order("created_at").Find(&snapshot.Productions).Error; err != nil {
		return nil, err
	}
	if err := db.Where("business_id = ?", r.businessId).Find(&snapshot.ProductionUsages).Error; err != nil {
		return nil, err
	}
	if err := db.Where("business_id = ?", r.businessId).Order("created_at").Find(&snapshot.Sales).Error; err != nil {
		return nil, err
	}
	if err := db.Where("business_id = ?", r.businessId).Find(&snapshot.SaleConsumptions).Error; err != nil {
		return nil, err
	}
	if err := db.Where("business_id = ?", r.businessId).Order("created_at").Find(&snapshot.Orders).Error; err != nil {
		return nil, err
	}
	if err := db.Where("business_id = ?", r.businessId).Order("created_at").Find(&snapshot.Loans).Error; err != nil {
		return nil, err
	}
	if err := db.Where("business_id = ?", r.businessId).Order("created_at").Find(&snapshot.Transactions).Error; err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *GormRepository) SaveAll(ctx context.Context, snapshot *models.LedgerSnapshot) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = r.saveAll(ctx, snapshot)
		var mysqlErr *mysql.MySQLError
		// 1213 is a deadlock with a concurrent replace; the write is
		// idempotent, so retry.
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1213 {
			continue
		}
		return err
	}
	return err
}

func (r *GormRepository) saveAll(ctx context.Context, snapshot *models.LedgerSnapshot) error {
	for _, b := range snapshot.Batches {
		b.BusinessId = r.businessId
	}
	for _, p := range snapshot.Productions {
		p.BusinessId = r.businessId
	}
	for _, u := range snapshot.ProductionUsages {
		u.BusinessId = r.businessId
	}
	for _, sl := range snapshot.Sales {
		sl.BusinessId = r.businessId
	}
	for _, c := range snapshot.SaleConsumptions {
		c.BusinessId = r.businessId
	}
	for _, o := range snapshot.Orders {
		o.BusinessId = r.businessId
	}
	for _, l := range snapshot.Loans {
		l.BusinessId = r.businessId
	}
	for _, t := range snapshot.Transactions {
		t.BusinessId = r.businessId
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tables := []any{
			&models.BatchVariant{}, // child rows first, then batches
			&models.Batch{},
			&models.ProductionRecord{},
			&models.ProductionUsage{},
			&models.SaleRecord{},
			&models.SaleConsumption{},
			&models.DepositOrder{},
			&models.Loan{},
			&models.Transaction{},
		}
		for _, model := range tables {
			if _, ok := model.(*models.BatchVariant); ok {
				if err := tx.Where("batch_id IN (?)",
					tx.Model(&models.Batch{}).Select("id").Where("business_id = ?", r.businessId),
				).Delete(&models.BatchVariant{}).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Where("business_id = ?", r.businessId).Delete(model).Error; err != nil {
				return err
			}
		}

		if len(snapshot.Batches) > 0 {
			if err := tx.Create(snapshot.Batches).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Productions) > 0 {
			if err := tx.Create(snapshot.Productions).Error; err != nil {
				return err
			}
		}
		if len(snapshot.ProductionUsages) > 0 {
			if err := tx.Create(snapshot.ProductionUsages).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Sales) > 0 {
			if err := tx.Create(snapshot.Sales).Error; err != nil {
				return err
			}
		}
		if len(snapshot.SaleConsumptions) > 0 {
			if err := tx.Create(snapshot.SaleConsumptions).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Orders) > 0 {
			if err := tx.Create(snapshot.Orders).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Loans) > 0 {
			if err := tx.Create(snapshot.Loans).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Transactions) > 0 {
			if err := tx.Create(snapshot.Transactions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
