package models

import (
	"database/sql/driver"
	"fmt"
)

type StockType string

const (
	StockTypeRawMaterial  StockType = "RAW_MATERIAL"
	StockTypeFinishedGood StockType = "FINISHED_GOOD"
)

func (t StockType) Valid() bool {
	return t == StockTypeRawMaterial || t == StockTypeFinishedGood
}

func (t StockType) Value() (driver.Value, error) { return string(t), nil }

func (t *StockType) Scan(v interface{}) error { return scanEnum(v, "stock type", t) }

type TransactionType string

const (
	TransactionTypeCashIn  TransactionType = "CASH_IN"
	TransactionTypeCashOut TransactionType = "CASH_OUT"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeCashIn || t == TransactionTypeCashOut
}

func (t TransactionType) Value() (driver.Value, error) { return string(t), nil }

func (t *TransactionType) Scan(v interface{}) error { return scanEnum(v, "transaction type", t) }

type TransactionCategory string

const (
	CategoryStockPurchase    TransactionCategory = "STOCK_PURCHASE"
	CategorySales            TransactionCategory = "SALES"
	CategoryProductionCost   TransactionCategory = "PRODUCTION_COST"
	CategoryOperational      TransactionCategory = "OPERATIONAL"
	CategoryDeposit          TransactionCategory = "DEPOSIT"
	CategoryForfeitedDeposit TransactionCategory = "FORFEITED_DEPOSIT"
	CategoryLoanProceeds     TransactionCategory = "LOAN_PROCEEDS"
	CategoryLoanRepayment    TransactionCategory = "LOAN_REPAYMENT"
	CategoryTransfer         TransactionCategory = "TRANSFER"
)

func (c TransactionCategory) Valid() bool {
	switch c {
	case CategoryStockPurchase, CategorySales, CategoryProductionCost,
		CategoryOperational, CategoryDeposit, CategoryForfeitedDeposit,
		CategoryLoanProceeds, CategoryLoanRepayment, CategoryTransfer:
		return true
	}
	return false
}

func (c TransactionCategory) Value() (driver.Value, error) { return string(c), nil }

func (c *TransactionCategory) Scan(v interface{}) error {
	return scanEnum(v, "transaction category", c)
}

type ProductionStatus string

const (
	ProductionStatusInProgress ProductionStatus = "IN_PROGRESS"
	ProductionStatusCompleted  ProductionStatus = "COMPLETED"
)

func (s ProductionStatus) Value() (driver.Value, error) { return string(s), nil }

func (s *ProductionStatus) Scan(v interface{}) error { return scanEnum(v, "production status", s) }

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Value() (driver.Value, error) { return string(s), nil }

func (s *OrderStatus) Scan(v interface{}) error { return scanEnum(v, "order status", s) }

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodBank PaymentMethod = "BANK"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodBank
}

func (m PaymentMethod) Value() (driver.Value, error) { return string(m), nil }

func (m *PaymentMethod) Scan(v interface{}) error { return scanEnum(v, "payment method", m) }

func scanEnum[T ~string](v interface{}, name string, dst *T) error {
	switch s := v.(type) {
	case string:
		*dst = T(s)
	case []byte:
		*dst = T(string(s))
	default:
		return fmt.Errorf("cannot scan %T into %s", v, name)
	}
	return nil
}
