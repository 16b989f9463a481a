package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCashCountSession(t *testing.T) {
	counts := map[int]int{1000: 2, 100: 3, 5: 0, 1: 7}
	operator := uuid.New()

	session := NewCashCountSession(counts, DefaultDenominations, decimal.NewFromInt(2300), operator, time.Now())

	require.Len(t, session.Denominations, 3)
	assert.Equal(t, 1000, session.Denominations[0].Denomination)
	assert.Equal(t, 100, session.Denominations[1].Denomination)
	assert.Equal(t, 1, session.Denominations[2].Denomination)
	assert.True(t, session.CountedTotal.Equal(decimal.NewFromInt(2307)))
	assert.True(t, session.Difference.Equal(decimal.NewFromInt(7)))
	assert.False(t, session.IsBalanced())
	assert.Equal(t, operator, session.OperatorID)
}

func TestNewCashCountSession_Empty(t *testing.T) {
	session := NewCashCountSession(map[int]int{}, DefaultDenominations, decimal.NewFromInt(-40), uuid.New(), time.Now())

	assert.Empty(t, session.Denominations)
	assert.True(t, session.CountedTotal.IsZero())
	assert.True(t, session.Difference.Equal(decimal.NewFromInt(40)))
}

func TestNewCashCountDenomination(t *testing.T) {
	line := NewCashCountDenomination(500, 4)
	assert.True(t, line.Subtotal.Equal(decimal.NewFromInt(2000)))
}
