package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"pettycash/internal/database"
	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestTransactionRepository(t *testing.T) {
	suite.Run(t, new(TransactionRepositorySuite))
}

type TransactionRepositorySuite struct {
	suite.Suite
	db        *database.DB
	repo      TransactionRepositoryInterface
	ctx       context.Context
	applicant *models.User
	approver  *models.User
}

func (s *TransactionRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewTransactionRepository(s.db.DB)
	s.ctx = context.Background()
	s.applicant = database.CreateTestUser(s.T(), s.db, "alice")
	s.approver = database.CreateTestApprover(s.T(), s.db, "boss")
}

func (s *TransactionRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *TransactionRepositorySuite) newExpenditure(date time.Time, items ...models.LineItem) *models.Transaction {
	txn := &models.Transaction{
		Type:            models.TransactionTypeExpenditure,
		TaxRegime:       models.TaxRegimeTaxExempt,
		TransactionDate: date,
		ApplicantID:     s.applicant.ID,
		Description:     "stationery",
		LineItems:       items,
	}
	txn.ApplyAmounts(txn.BaseAmount(), decimal.Zero)
	return txn
}

func (s *TransactionRepositorySuite) settlementRow(period string, date time.Time, amount string) *models.Transaction {
	txn := &models.Transaction{
		Type:             models.TransactionTypeIncome,
		TaxRegime:        models.TaxRegimeTaxExempt,
		TransactionDate:  date,
		ApplicantID:      s.approver.ID,
		Description:      "carry-forward " + period,
		Status:           models.StatusApproved,
		IsSettlement:     true,
		SettlementPeriod: &period,
	}
	txn.ApplyAmounts(decimal.RequireFromString(amount), decimal.Zero)
	return txn
}

func (s *TransactionRepositorySuite) TestCreate_WithLineItems() {
	txn := s.newExpenditure(day(2025, 5, 10),
		models.NewLineItem("pens", decimal.NewFromInt(2), "box", decimal.NewFromInt(100)),
		models.NewLineItem("tape", decimal.NewFromInt(1), "roll", decimal.NewFromInt(50)),
	)

	s.Require().NoError(s.repo.Create(s.ctx, txn))
	s.NotEqual(uuid.Nil, txn.ID)

	found, err := s.repo.GetByID(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, found.Status)
	s.True(found.TotalAmount.Equal(decimal.NewFromInt(-250)))
	s.Require().Len(found.LineItems, 2)
	s.Equal("pens", found.LineItems[0].Name)
	s.Equal(0, found.LineItems[0].Position)
	s.Equal("tape", found.LineItems[1].Name)
	s.True(found.LineItems[0].LineTotal.Equal(decimal.NewFromInt(200)))
}

func (s *TransactionRepositorySuite) TestCreate_RejectsSignMismatch() {
	txn := s.newExpenditure(day(2025, 5, 10))
	txn.TotalAmount = decimal.NewFromInt(10)

	err := s.repo.Create(s.ctx, txn)
	s.Error(err)
	s.True(errors.Is(err, models.ErrSignMismatch))
}

func (s *TransactionRepositorySuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrTransactionNotFound)
	s.ErrorIs(err, ErrNotFound)
}

func (s *TransactionRepositorySuite) TestUpdate_WritesNullableColumns() {
	txn := database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusPending, "30", day(2025, 5, 3))

	now := time.Now().UTC()
	txn.Status = models.StatusRejected
	txn.ApproverID = &s.approver.ID
	txn.ApprovedAt = &now
	txn.RejectionReason = "no receipt"
	s.Require().NoError(s.repo.Update(s.ctx, txn))

	found, err := s.repo.GetByID(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, found.Status)
	s.Require().NotNil(found.ApproverID)
	s.Equal(s.approver.ID, *found.ApproverID)

	found.Status = models.StatusPending
	found.ApproverID = nil
	found.ApprovedAt = nil
	found.RejectionReason = ""
	s.Require().NoError(s.repo.Update(s.ctx, found))

	again, err := s.repo.GetByID(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, again.Status)
	s.Nil(again.ApproverID)
	s.Nil(again.ApprovedAt)
	s.Empty(again.RejectionReason)
}

func (s *TransactionRepositorySuite) TestUpdate_NotFound() {
	txn := s.newExpenditure(day(2025, 5, 10))
	txn.ID = uuid.New()

	s.ErrorIs(s.repo.Update(s.ctx, txn), ErrTransactionNotFound)
}

func (s *TransactionRepositorySuite) TestUpdateWithLineItems_ReplacesItems() {
	txn := s.newExpenditure(day(2025, 5, 10),
		models.NewLineItem("pens", decimal.NewFromInt(2), "box", decimal.NewFromInt(100)),
		models.NewLineItem("tape", decimal.NewFromInt(1), "roll", decimal.NewFromInt(50)),
	)
	s.Require().NoError(s.repo.Create(s.ctx, txn))

	txn.LineItems = []models.LineItem{
		models.NewLineItem("paper", decimal.NewFromInt(3), "ream", decimal.NewFromInt(40)),
	}
	txn.ApplyAmounts(txn.BaseAmount(), decimal.Zero)
	txn.Description = "paper"
	s.Require().NoError(s.repo.UpdateWithLineItems(s.ctx, txn))

	found, err := s.repo.GetByID(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal("paper", found.Description)
	s.True(found.TotalAmount.Equal(decimal.NewFromInt(-120)))
	s.Require().Len(found.LineItems, 1)
	s.Equal("paper", found.LineItems[0].Name)

	var count int64
	s.Require().NoError(s.db.Model(&models.LineItem{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *TransactionRepositorySuite) TestDelete_RemovesLineItems() {
	txn := s.newExpenditure(day(2025, 5, 10),
		models.NewLineItem("pens", decimal.NewFromInt(2), "box", decimal.NewFromInt(100)),
	)
	s.Require().NoError(s.repo.Create(s.ctx, txn))

	s.Require().NoError(s.repo.Delete(s.ctx, txn.ID))

	_, err := s.repo.GetByID(s.ctx, txn.ID)
	s.ErrorIs(err, ErrTransactionNotFound)

	var count int64
	s.Require().NoError(s.db.Model(&models.LineItem{}).Count(&count).Error)
	s.Zero(count)

	s.ErrorIs(s.repo.Delete(s.ctx, txn.ID), ErrTransactionNotFound)
}

func (s *TransactionRepositorySuite) TestList_FiltersAndOrder() {
	category := database.CreateTestCategory(s.T(), s.db, "Office")

	older := database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusDraft, "10", day(2025, 4, 30))
	newer := database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusApproved, "20", day(2025, 5, 2))
	database.CreateTestTransaction(s.T(), s.db, s.approver, models.TransactionTypeIncome, models.StatusApproved, "500", day(2025, 5, 1))

	newer.CategoryID = &category.ID
	s.Require().NoError(s.repo.Update(s.ctx, newer))

	s.Run("all newest first", func() {
		items, total, err := s.repo.List(s.ctx, models.TransactionFilters{})
		s.Require().NoError(err)
		s.Equal(int64(3), total)
		s.Require().Len(items, 3)
		s.Equal(newer.ID, items[0].ID)
		s.Equal(older.ID, items[2].ID)
	})

	s.Run("type and status", func() {
		items, total, err := s.repo.List(s.ctx, models.TransactionFilters{
			Type:   models.TransactionTypeExpenditure,
			Status: models.StatusDraft,
		})
		s.Require().NoError(err)
		s.Equal(int64(1), total)
		s.Equal(older.ID, items[0].ID)
	})

	s.Run("date range", func() {
		from, to := day(2025, 5, 1), day(2025, 5, 31)
		_, total, err := s.repo.List(s.ctx, models.TransactionFilters{StartDate: &from, EndDate: &to})
		s.Require().NoError(err)
		s.Equal(int64(2), total)
	})

	s.Run("category", func() {
		items, total, err := s.repo.List(s.ctx, models.TransactionFilters{CategoryID: &category.ID})
		s.Require().NoError(err)
		s.Equal(int64(1), total)
		s.Require().NotNil(items[0].Category)
		s.Equal("Office", items[0].Category.Name)
	})

	s.Run("pagination keeps total", func() {
		items, total, err := s.repo.List(s.ctx, models.TransactionFilters{Offset: 1, Limit: 1})
		s.Require().NoError(err)
		s.Equal(int64(3), total)
		s.Len(items, 1)
	})
}

func (s *TransactionRepositorySuite) TestListPending_OldestApplicationFirst() {
	first := database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusPending, "10", day(2025, 5, 9))
	second := database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusPending, "20", day(2025, 5, 1))
	database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusDraft, "30", day(2025, 5, 1))

	first.ApplicationDate = day(2025, 5, 2)
	second.ApplicationDate = day(2025, 5, 5)
	s.Require().NoError(s.repo.Update(s.ctx, first))
	s.Require().NoError(s.repo.Update(s.ctx, second))

	items, total, err := s.repo.ListPending(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(items, 2)
	s.Equal(first.ID, items[0].ID)
	s.Equal(second.ID, items[1].ID)
}

func (s *TransactionRepositorySuite) TestSumTotalAmount() {
	database.CreateTestTransaction(s.T(), s.db, s.approver, models.TransactionTypeIncome, models.StatusApproved, "1000", day(2025, 4, 1))
	database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusApproved, "263", day(2025, 4, 30))
	database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusDraft, "0.10", day(2025, 5, 1))
	database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusDraft, "0.20", day(2025, 5, 1))
	s.Require().NoError(s.repo.Create(s.ctx, s.settlementRow("2025-04", day(2025, 5, 1), "737")))

	aprilEnd := day(2025, 4, 30)

	tests := []struct {
		name   string
		filter models.LedgerSumFilter
		want   string
	}{
		{name: "empty filter", filter: models.LedgerSumFilter{}, want: "1473.7"},
		{name: "income only", filter: models.LedgerSumFilter{Type: models.TransactionTypeIncome}, want: "1737"},
		{name: "income without settlements", filter: models.LedgerSumFilter{Type: models.TransactionTypeIncome, ExcludeSettlements: true}, want: "1000"},
		{name: "on or before is inclusive", filter: models.LedgerSumFilter{OnOrBefore: &aprilEnd, ExcludeSettlements: true}, want: "737"},
		{name: "after is exclusive", filter: models.LedgerSumFilter{Type: models.TransactionTypeExpenditure, After: &aprilEnd}, want: "-0.3"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			sum, err := s.repo.SumTotalAmount(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.True(sum.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", sum, tt.want)
		})
	}
}

func (s *TransactionRepositorySuite) TestSumTotalAmount_EmptyLedger() {
	sum, err := s.repo.SumTotalAmount(s.ctx, models.LedgerSumFilter{})
	s.Require().NoError(err)
	s.True(sum.IsZero())
}

func (s *TransactionRepositorySuite) TestSettlementLookups() {
	_, err := s.repo.LatestSettlement(s.ctx)
	s.ErrorIs(err, ErrTransactionNotFound)

	april := s.settlementRow("2025-04", day(2025, 5, 1), "100")
	may := s.settlementRow("2025-05", day(2025, 6, 1), "80")
	s.Require().NoError(s.repo.Create(s.ctx, april))
	s.Require().NoError(s.repo.Create(s.ctx, may))

	latest, err := s.repo.LatestSettlement(s.ctx)
	s.Require().NoError(err)
	s.Equal(may.ID, latest.ID)

	found, err := s.repo.FindSettlement(s.ctx, "2025-04")
	s.Require().NoError(err)
	s.Equal(april.ID, found.ID)

	_, err = s.repo.FindSettlement(s.ctx, "2025-06")
	s.ErrorIs(err, ErrTransactionNotFound)

	all, err := s.repo.ListSettlements(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(may.ID, all[0].ID)
}

func (s *TransactionRepositorySuite) TestCreate_DuplicateSettlementPeriod() {
	s.Require().NoError(s.repo.Create(s.ctx, s.settlementRow("2025-04", day(2025, 5, 1), "100")))

	err := s.repo.Create(s.ctx, s.settlementRow("2025-04", day(2025, 5, 1), "100"))
	s.ErrorIs(err, ErrDuplicateKey)

	all, err := s.repo.ListSettlements(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *TransactionRepositorySuite) TestExpenditureTotalsByCategory() {
	office := database.CreateTestCategory(s.T(), s.db, "Office")
	travel := database.CreateTestCategory(s.T(), s.db, "Travel")

	assign := func(txn *models.Transaction, category *models.Category) {
		txn.CategoryID = &category.ID
		s.Require().NoError(s.repo.Update(s.ctx, txn))
	}

	assign(database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusApproved, "100", day(2025, 5, 1)), office)
	assign(database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusApproved, "50", day(2025, 5, 31)), office)
	assign(database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusApproved, "300", day(2025, 5, 15)), travel)
	// excluded: pending, other month, uncategorized
	assign(database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusPending, "999", day(2025, 5, 15)), travel)
	assign(database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusApproved, "999", day(2025, 6, 1)), office)
	database.CreateTestTransaction(s.T(), s.db, s.applicant, models.TransactionTypeExpenditure, models.StatusApproved, "999", day(2025, 5, 15))

	totals, err := s.repo.ExpenditureTotalsByCategory(s.ctx, day(2025, 5, 1), day(2025, 5, 31))
	s.Require().NoError(err)
	s.Require().Len(totals, 2)
	s.Equal("Travel", totals[0].CategoryName)
	s.True(totals[0].Total.Equal(decimal.NewFromInt(-300)))
	s.Equal("Office", totals[1].CategoryName)
	s.True(totals[1].Total.Equal(decimal.NewFromInt(-150)))

	count, err := s.repo.CountByCategory(s.ctx, office.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), count)
}

func (s *TransactionRepositorySuite) TestLockSettlementPeriod_NoopOnSQLite() {
	s.NoError(s.repo.LockSettlementPeriod(s.ctx, "2025-05"))
}

func (s *TransactionRepositorySuite) TestVersion_ChangesOnEveryWrite() {
	empty, err := s.repo.Version(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), empty.RowCount)
	s.Empty(empty.LastUpdated)

	txn := s.newExpenditure(day(2025, 5, 10), models.NewLineItem("pens", decimal.NewFromInt(1), "box", decimal.NewFromInt(100)))
	s.Require().NoError(s.repo.Create(s.ctx, txn))
	created, err := s.repo.Version(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), created.RowCount)
	s.NotEqual(empty, created)

	time.Sleep(time.Millisecond)
	txn.Description = "pens and paper"
	s.Require().NoError(s.repo.Update(s.ctx, txn))
	updated, err := s.repo.Version(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), updated.RowCount)
	s.NotEqual(created.String(), updated.String())

	s.Require().NoError(s.repo.Delete(s.ctx, txn.ID))
	deleted, err := s.repo.Version(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), deleted.RowCount)
}
