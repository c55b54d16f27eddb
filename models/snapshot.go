package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LedgerSnapshot is the aggregate root: every collection the engine reads
// or writes, held in memory. Operations mutate a clone and the store swaps
// the whole snapshot atomically, so readers never observe a half-applied
// operation.
type LedgerSnapshot struct {
	Batches          []*Batch            `json:"batches"`
	Productions      []*ProductionRecord `json:"productions"`
	ProductionUsages []*ProductionUsage  `json:"productionUsages"`
	Sales            []*SaleRecord       `json:"sales"`
	SaleConsumptions []*SaleConsumption  `json:"saleConsumptions"`
	Orders           []*DepositOrder     `json:"orders"`
	Loans            []*Loan             `json:"loans"`
	Transactions     []*Transaction      `json:"transactions"`
}

func NewLedgerSnapshot() *LedgerSnapshot {
	return &LedgerSnapshot{
		Batches:          []*Batch{},
		Productions:      []*ProductionRecord{},
		ProductionUsages: []*ProductionUsage{},
		Sales:            []*SaleRecord{},
		SaleConsumptions: []*SaleConsumption{},
		Orders:           []*DepositOrder{},
		Loans:            []*Loan{},
		Transactions:     []*Transaction{},
	}
}

// Clone deep-copies the snapshot. decimal.Decimal is immutable, so value
// copies of the structs are enough once the slices (and the nested variant
// and ingredient slices) are duplicated.
func (s *LedgerSnapshot) Clone() *LedgerSnapshot {
	out := &LedgerSnapshot{
		Batches:          make([]*Batch, len(s.Batches)),
		Productions:      make([]*ProductionRecord, len(s.Productions)),
		ProductionUsages: make([]*ProductionUsage, len(s.ProductionUsages)),
		Sales:            make([]*SaleRecord, len(s.Sales)),
		SaleConsumptions: make([]*SaleConsumption, len(s.SaleConsumptions)),
		Orders:           make([]*DepositOrder, len(s.Orders)),
		Loans:            make([]*Loan, len(s.Loans)),
		Transactions:     make([]*Transaction, len(s.Transactions)),
	}
	for i, b := range s.Batches {
		cp := *b
		cp.Variants = make([]BatchVariant, len(b.Variants))
		copy(cp.Variants, b.Variants)
		out.Batches[i] = &cp
	}
	for i, p := range s.Productions {
		cp := *p
		cp.Ingredients = append(IngredientList(nil), p.Ingredients...)
		cp.ActualIngredients = append(IngredientList(nil), p.ActualIngredients...)
		if p.BatchIdCreated != nil {
			v := *p.BatchIdCreated
			cp.BatchIdCreated = &v
		}
		if p.CompletedAt != nil {
			v := *p.CompletedAt
			cp.CompletedAt = &v
		}
		out.Productions[i] = &cp
	}
	for i, u := range s.ProductionUsages {
		cp := *u
		if u.VariantLabel != nil {
			v := *u.VariantLabel
			cp.VariantLabel = &v
		}
		out.ProductionUsages[i] = &cp
	}
	for i, sl := range s.Sales {
		cp := *sl
		if sl.VariantLabel != nil {
			v := *sl.VariantLabel
			cp.VariantLabel = &v
		}
		if sl.RelatedOrderID != nil {
			v := *sl.RelatedOrderID
			cp.RelatedOrderID = &v
		}
		out.Sales[i] = &cp
	}
	for i, c := range s.SaleConsumptions {
		cp := *c
		if c.VariantLabel != nil {
			v := *c.VariantLabel
			cp.VariantLabel = &v
		}
		out.SaleConsumptions[i] = &cp
	}
	for i, o := range s.Orders {
		cp := *o
		if o.CompletedAt != nil {
			v := *o.CompletedAt
			cp.CompletedAt = &v
		}
		out.Orders[i] = &cp
	}
	for i, l := range s.Loans {
		cp := *l
		out.Loans[i] = &cp
	}
	for i, t := range s.Transactions {
		cp := *t
		if t.RelatedID != nil {
			v := *t.RelatedID
			cp.RelatedID = &v
		}
		out.Transactions[i] = &cp
	}
	return out
}

func (s *LedgerSnapshot) FindBatch(id string) *Batch {
	for _, b := range s.Batches {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (s *LedgerSnapshot) FindProduction(id string) *ProductionRecord {
	for _, p := range s.Productions {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *LedgerSnapshot) FindSale(id string) *SaleRecord {
	for _, sl := range s.Sales {
		if sl.ID == id {
			return sl
		}
	}
	return nil
}

func (s *LedgerSnapshot) FindOrder(id string) *DepositOrder {
	for _, o := range s.Orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (s *LedgerSnapshot) FindLoan(id string) *Loan {
	for _, l := range s.Loans {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (s *LedgerSnapshot) FindTransaction(id string) *Transaction {
	for _, t := range s.Transactions {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TransactionsRelatedTo returns the ledger entries owned by the entity.
func (s *LedgerSnapshot) TransactionsRelatedTo(id string) []*Transaction {
	out := make([]*Transaction, 0, 2)
	for _, t := range s.Transactions {
		if t.RelatedID != nil && *t.RelatedID == id {
			out = append(out, t)
		}
	}
	return out
}

func (s *LedgerSnapshot) RemoveBatch(id string) {
	for i, b := range s.Batches {
		if b.ID == id {
			s.Batches = append(s.Batches[:i], s.Batches[i+1:]...)
			return
		}
	}
}

func (s *LedgerSnapshot) RemoveProduction(id string) {
	for i, p := range s.Productions {
		if p.ID == id {
			s.Productions = append(s.Productions[:i], s.Productions[i+1:]...)
			return
		}
	}
}

func (s *LedgerSnapshot) RemoveSale(id string) {
	for i, sl := range s.Sales {
		if sl.ID == id {
			s.Sales = append(s.Sales[:i], s.Sales[i+1:]...)
			return
		}
	}
}

func (s *LedgerSnapshot) RemoveOrder(id string) {
	for i, o := range s.Orders {
		if o.ID == id {
			s.Orders = append(s.Orders[:i], s.Orders[i+1:]...)
			return
		}
	}
}

func (s *LedgerSnapshot) RemoveLoan(id string) {
	for i, l := range s.Loans {
		if l.ID == id {
			s.Loans = append(s.Loans[:i], s.Loans[i+1:]...)
			return
		}
	}
}

func (s *LedgerSnapshot) RemoveTransaction(id string) {
	for i, t := range s.Transactions {
		if t.ID == id {
			s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
			return
		}
	}
}

// RemoveTransactionsRelatedTo drops every ledger entry owned by the entity.
func (s *LedgerSnapshot) RemoveTransactionsRelatedTo(id string) {
	kept := s.Transactions[:0]
	for _, t := range s.Transactions {
		if t.RelatedID == nil || *t.RelatedID != id {
			kept = append(kept, t)
		}
	}
	s.Transactions = kept
}

// RemoveUsagesForProduction drops the consumption records of one run.
func (s *LedgerSnapshot) RemoveUsagesForProduction(productionID string) {
	kept := s.ProductionUsages[:0]
	for _, u := range s.ProductionUsages {
		if u.ProductionID != productionID {
			kept = append(kept, u)
		}
	}
	s.ProductionUsages = kept
}

// RemoveConsumptionsForSale drops the consumption records of one sale.
func (s *LedgerSnapshot) RemoveConsumptionsForSale(saleID string) {
	kept := s.SaleConsumptions[:0]
	for _, c := range s.SaleConsumptions {
		if c.SaleID != saleID {
			kept = append(kept, c)
		}
	}
	s.SaleConsumptions = kept
}

// ConsumptionsForSale returns the recorded per-batch entries of one sale.
func (s *LedgerSnapshot) ConsumptionsForSale(saleID string) []*SaleConsumption {
	out := make([]*SaleConsumption, 0, 4)
	for _, c := range s.SaleConsumptions {
		if c.SaleID == saleID {
			out = append(out, c)
		}
	}
	return out
}

// UsagesForProduction returns the recorded per-batch entries of one run.
func (s *LedgerSnapshot) UsagesForProduction(productionID string) []*ProductionUsage {
	out := make([]*ProductionUsage, 0, 4)
	for _, u := range s.ProductionUsages {
		if u.ProductionID == productionID {
			out = append(out, u)
		}
	}
	return out
}

// NextBatchSequence returns the insertion sequence for a new batch. The
// sequence is the deterministic FIFO tie-break for equal timestamps.
func (s *LedgerSnapshot) NextBatchSequence() int64 {
	var max int64
	for _, b := range s.Batches {
		if b.Sequence > max {
			max = b.Sequence
		}
	}
	return max + 1
}

// BatchesFor returns the batches of one product and stock type, oldest
// first by (CreatedAt, Sequence). Product names compare normalized.
func (s *LedgerSnapshot) BatchesFor(productName string, stockType StockType) []*Batch {
	name := NormalizeProductName(productName)
	out := make([]*Batch, 0, 4)
	for _, b := range s.Batches {
		if b.ProductName == name && b.StockType == stockType {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// TotalAvailable sums what the FIFO selector could take for the product
// (and variant, when given) right now.
func (s *LedgerSnapshot) TotalAvailable(productName string, stockType StockType, variantLabel string) decimal.Decimal {
	total := decimal.Zero
	for _, b := range s.BatchesFor(productName, stockType) {
		if !b.CurrentQuantity.IsPositive() {
			continue
		}
		total = total.Add(b.AvailableFor(variantLabel))
	}
	return total
}

// ConservationViolation describes one product whose batch quantities do
// not reconcile with its recorded consumption.
type ConservationViolation struct {
	ProductName string
	StockType   StockType
	Expected    decimal.Decimal
	Actual      decimal.Decimal
}

// CheckConservation verifies, per product and stock type, that
// sum(current) == sum(initial) - sum(recorded consumption). Consumption is
// read from ProductionUsage and SaleConsumption rows, which is exactly
// what reversal restores.
func (s *LedgerSnapshot) CheckConservation() []ConservationViolation {
	type key struct {
		name string
		st   StockType
	}
	initial := map[key]decimal.Decimal{}
	current := map[key]decimal.Decimal{}
	consumed := map[key]decimal.Decimal{}
	batchKey := map[string]key{}

	for _, b := range s.Batches {
		k := key{b.ProductName, b.StockType}
		batchKey[b.ID] = k
		initial[k] = initial[k].Add(b.InitialQuantity)
		current[k] = current[k].Add(b.CurrentQuantity)
	}
	for _, u := range s.ProductionUsages {
		if k, ok := batchKey[u.BatchID]; ok {
			consumed[k] = consumed[k].Add(u.QuantityUsed)
		}
	}
	for _, c := range s.SaleConsumptions {
		if k, ok := batchKey[c.BatchID]; ok {
			consumed[k] = consumed[k].Add(c.QuantityTaken)
		}
	}

	var out []ConservationViolation
	for k, init := range initial {
		expected := init.Sub(consumed[k])
		if !current[k].Equal(expected) {
			out = append(out, ConservationViolation{
				ProductName: k.name,
				StockType:   k.st,
				Expected:    expected,
				Actual:      current[k],
			})
		}
	}
	return out
}

// CheckVariantSums returns the ids of batches violating the variant-sum
// invariant.
func (s *LedgerSnapshot) CheckVariantSums() []string {
	var out []string
	for _, b := range s.Batches {
		if !b.VariantSumMatches() {
			out = append(out, b.ID)
		}
	}
	return out
}
