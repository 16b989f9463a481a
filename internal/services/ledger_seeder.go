package services

import (
	"context"
	"fmt"
	"time"

	"pettycash/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// seedCategory is a demo category with the price band of its line items.
type seedCategory struct {
	name     string
	minPrice float64
	maxPrice float64
	unit     string
}

var seedCategories = []seedCategory{
	{"Office Supplies", 1, 40, "pcs"},
	{"Refreshments", 2, 25, "pack"},
	{"Postage", 1, 15, "pcs"},
	{"Cleaning", 3, 30, "bottle"},
	{"Local Travel", 5, 60, "trip"},
	{"Repairs", 20, 150, "job"},
}

// SeedOptions controls how much demo history is generated.
type SeedOptions struct {
	// Start is normalized to the first day of its month.
	Start                time.Time
	Months               int
	ExpendituresPerMonth int
	MonthlyFloat         decimal.Decimal
}

// SeedSummary counts what a seed run created.
type SeedSummary struct {
	Categories   int
	Incomes      int
	Expenditures int
	Approved     int
	Pending      int
	Drafts       int
}

// LedgerSeeder fills an empty ledger with plausible demo history. Every row
// goes through the normal services so the usual rules apply.
type LedgerSeeder struct {
	transactions *TransactionService
	approvals    *ApprovalService
	categories   *CategoryService
	faker        *gofakeit.Faker
}

// NewLedgerSeeder creates a seeder. A zero seed picks a random one.
func NewLedgerSeeder(transactions *TransactionService, approvals *ApprovalService, categories *CategoryService, seed uint64) *LedgerSeeder {
	return &LedgerSeeder{
		transactions: transactions,
		approvals:    approvals,
		categories:   categories,
		faker:        gofakeit.New(seed),
	}
}

// Seed records a monthly float income and a mix of approved, pending and
// draft expenditures for each month, acting as actor (an approver).
func (s *LedgerSeeder) Seed(ctx context.Context, opts SeedOptions, actor models.Actor) (*SeedSummary, error) {
	if actor == nil || !actor.IsApprover() {
		return nil, denied("seed", "approver role required")
	}
	if opts.Months < 1 {
		return nil, newValidationError("months", "must be at least 1")
	}
	if opts.ExpendituresPerMonth < 0 {
		return nil, newValidationError("expendituresPerMonth", "must not be negative")
	}
	if !opts.MonthlyFloat.IsPositive() {
		return nil, newValidationError("monthlyFloat", "must be positive")
	}

	summary := &SeedSummary{}
	categoryIDs, err := s.ensureCategories(ctx, actor, summary)
	if err != nil {
		return nil, err
	}

	first := time.Date(opts.Start.Year(), opts.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := 0; m < opts.Months; m++ {
		monthStart := first.AddDate(0, m, 0)

		if _, err := s.transactions.CreateIncome(ctx, CreateIncomeInput{
			TransactionDate: monthStart,
			Description:     fmt.Sprintf("Petty cash float %s", monthStart.Format("2006-01")),
			Amount:          opts.MonthlyFloat,
		}, actor); err != nil {
			return summary, fmt.Errorf("seed income %s: %w", monthStart.Format("2006-01"), err)
		}
		summary.Incomes++

		for i := 0; i < opts.ExpendituresPerMonth; i++ {
			if err := s.seedExpenditure(ctx, monthStart, categoryIDs, actor, summary); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

func (s *LedgerSeeder) ensureCategories(ctx context.Context, actor models.Actor, summary *SeedSummary) (map[string]uuid.UUID, error) {
	existing, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]uuid.UUID, len(seedCategories))
	for _, c := range existing {
		ids[c.Name] = c.ID
	}

	for _, c := range seedCategories {
		if _, ok := ids[c.name]; ok {
			continue
		}
		created, err := s.categories.Create(ctx, c.name, actor)
		if err != nil {
			return nil, fmt.Errorf("seed category %q: %w", c.name, err)
		}
		ids[c.name] = created.ID
		summary.Categories++
	}
	return ids, nil
}

func (s *LedgerSeeder) seedExpenditure(ctx context.Context, monthStart time.Time, categoryIDs map[string]uuid.UUID, actor models.Actor, summary *SeedSummary) error {
	category := seedCategories[s.faker.IntRange(0, len(seedCategories)-1)]
	categoryID := categoryIDs[category.name]
	date := monthStart.AddDate(0, 0, s.faker.IntRange(0, 27))

	input := CreateExpenditureInput{
		TransactionDate: date,
		Description:     s.faker.Sentence(5),
		TaxRegime:       models.TaxRegimeTaxable,
		TaxMethod:       models.TaxMethodExclusive,
		CategoryID:      &categoryID,
	}
	switch roll := s.faker.Float64(); {
	case roll < 0.15:
		input.TaxRegime = models.TaxRegimeTaxExempt
		input.TaxMethod = models.TaxMethodNone
	case roll < 0.45:
		input.TaxMethod = models.TaxMethodInclusive
	}

	for n := s.faker.IntRange(1, 3); n > 0; n-- {
		input.LineItems = append(input.LineItems, LineItemInput{
			Name:      s.faker.ProductName(),
			Quantity:  decimal.NewFromInt(int64(s.faker.IntRange(1, 5))),
			Unit:      category.unit,
			UnitPrice: decimal.NewFromFloat(s.faker.Float64Range(category.minPrice, category.maxPrice)).Round(2),
		})
	}

	txn, err := s.transactions.CreateExpenditure(ctx, input, actor)
	if err != nil {
		return fmt.Errorf("seed expenditure on %s: %w", date.Format(time.DateOnly), err)
	}
	summary.Expenditures++

	// 70% approved, 20% waiting in the queue, the rest stay drafts
	roll := s.faker.Float64()
	if roll >= 0.9 {
		summary.Drafts++
		return nil
	}

	if _, err := s.approvals.Submit(ctx, txn.ID, actor); err != nil {
		return err
	}
	if roll >= 0.7 {
		summary.Pending++
		return nil
	}

	if _, err := s.approvals.Approve(ctx, txn.ID, actor); err != nil {
		return err
	}
	summary.Approved++
	return nil
}
