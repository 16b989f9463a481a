package repositories

import (
	"context"
	"testing"
	"time"

	"pettycash/internal/database"
	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestCashCountRepository(t *testing.T) {
	suite.Run(t, new(CashCountRepositorySuite))
}

type CashCountRepositorySuite struct {
	suite.Suite
	db       *database.DB
	repo     CashCountRepositoryInterface
	ctx      context.Context
	operator *models.User
}

func (s *CashCountRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewCashCountRepository(s.db.DB)
	s.ctx = context.Background()
	s.operator = database.CreateTestUser(s.T(), s.db, "counter")
}

func (s *CashCountRepositorySuite) newSession(counts map[int]int, balance int64, at time.Time) *models.CashCountSession {
	return models.NewCashCountSession(counts, models.DefaultDenominations, decimal.NewFromInt(balance), s.operator.ID, at)
}

func (s *CashCountRepositorySuite) TestCreateAndGet() {
	session := s.newSession(map[int]int{1000: 1, 100: 3, 1: 0}, 1250, time.Now().UTC())
	s.Require().NoError(s.repo.Create(s.ctx, session))

	found, err := s.repo.GetByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.True(found.CountedTotal.Equal(decimal.NewFromInt(1300)))
	s.True(found.Difference.Equal(decimal.NewFromInt(50)))
	s.Require().Len(found.Denominations, 2)
	s.Equal(1000, found.Denominations[0].Denomination)
	s.Equal(100, found.Denominations[1].Denomination)
	s.Equal(3, found.Denominations[1].Count)
}

func (s *CashCountRepositorySuite) TestList_NewestFirst() {
	older := s.newSession(map[int]int{10: 1}, 10, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	newer := s.newSession(map[int]int{5: 1}, 10, time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.repo.Create(s.ctx, older))
	s.Require().NoError(s.repo.Create(s.ctx, newer))

	sessions, total, err := s.repo.List(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(sessions, 2)
	s.Equal(newer.ID, sessions[0].ID)
	s.False(sessions[0].IsBalanced())
	s.True(sessions[1].IsBalanced())
}

func (s *CashCountRepositorySuite) TestDelete_RemovesLines() {
	session := s.newSession(map[int]int{500: 2}, 1000, time.Now().UTC())
	s.Require().NoError(s.repo.Create(s.ctx, session))

	s.Require().NoError(s.repo.Delete(s.ctx, session.ID))

	_, err := s.repo.GetByID(s.ctx, session.ID)
	s.ErrorIs(err, ErrCashCountNotFound)

	var lines int64
	s.Require().NoError(s.db.Model(&models.CashCountDenomination{}).Count(&lines).Error)
	s.Zero(lines)

	s.ErrorIs(s.repo.Delete(s.ctx, uuid.New()), ErrCashCountNotFound)
}
