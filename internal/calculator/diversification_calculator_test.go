package calculator

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-analytics-api/internal/models"
)

func holding(symbol, sector string, value float64) models.HoldingSnapshot {
	return models.HoldingSnapshot{
		Symbol:       symbol,
		Name:         symbol,
		Sector:       sector,
		CurrentValue: decimal.NewFromFloat(value),
	}
}

func TestDiversificationCalculator_Score(t *testing.T) {
	dc := NewDiversificationCalculator(5)

	t.Run("empty portfolio scores zero", func(t *testing.T) {
		assert.Equal(t, 0, dc.Score(nil))
		assert.Equal(t, 0, dc.Score([]models.HoldingSnapshot{}))
	})

	t.Run("zero total value scores zero", func(t *testing.T) {
		holdings := []models.HoldingSnapshot{holding("AAA", "Tech", 0)}
		assert.Equal(t, 0, dc.Score(holdings))
	})

	t.Run("single holding portfolio", func(t *testing.T) {
		holdings := []models.HoldingSnapshot{holding("ONLY", "Tech", 50000)}

		// Stock sub-score 0 (100% weight), sector sub-score 0
		// (100% dominance, one sector), count sub-score 20.
		assert.Equal(t, 4, dc.Score(holdings))
	})

	t.Run("well spread portfolio scores high", func(t *testing.T) {
		sectors := []string{"Tech", "Finance", "Health", "Energy", "Consumer"}
		holdings := make([]models.HoldingSnapshot, 0, 15)
		for i := 0; i < 15; i++ {
			holdings = append(holdings, holding(
				fmt.Sprintf("S%02d", i),
				sectors[i%len(sectors)],
				10000,
			))
		}

		// Max weight ~6.7%, five equal sectors at 20%, 15 holdings.
		assert.Equal(t, 100, dc.Score(holdings))
	})

	t.Run("concentrated top position drags the score", func(t *testing.T) {
		holdings := []models.HoldingSnapshot{
			holding("BIG", "Tech", 40000),
			holding("AAA", "Finance", 20000),
			holding("BBB", "Health", 20000),
			holding("CCC", "Energy", 20000),
		}

		// Top weight 40% → stock 0; max sector 40% → −15, four
		// sectors → −10, sector 75; count 40.
		// 0×0.4 + 75×0.4 + 40×0.2 = 38.
		assert.Equal(t, 38, dc.Score(holdings))
	})
}

func TestDiversificationCalculator_SectorAllocation(t *testing.T) {
	dc := NewDiversificationCalculator(5)

	t.Run("percentages per sector", func(t *testing.T) {
		holdings := []models.HoldingSnapshot{
			holding("AAA", "Tech", 60000),
			holding("BBB", "Tech", 20000),
			holding("CCC", "Finance", 20000),
		}

		allocation := dc.SectorAllocation(holdings)

		assert.InDelta(t, 80.0, allocation["Tech"], 0.001)
		assert.InDelta(t, 20.0, allocation["Finance"], 0.001)
	})

	t.Run("missing sector maps to Unknown", func(t *testing.T) {
		holdings := []models.HoldingSnapshot{
			holding("AAA", "", 50000),
			holding("BBB", "Tech", 50000),
		}

		allocation := dc.SectorAllocation(holdings)

		assert.InDelta(t, 50.0, allocation["Unknown"], 0.001)
	})

	t.Run("empty holdings give empty map", func(t *testing.T) {
		assert.Empty(t, dc.SectorAllocation(nil))
	})
}

func TestDiversificationCalculator_TopHoldings(t *testing.T) {
	dc := NewDiversificationCalculator(3)

	holdings := []models.HoldingSnapshot{
		holding("SMALL", "Tech", 5000),
		holding("BIG", "Tech", 50000),
		holding("MID1", "Finance", 25000),
		holding("MID2", "Health", 20000),
	}

	top := dc.TopHoldings(holdings)

	require.Len(t, top, 3)
	assert.Equal(t, "BIG", top[0].Symbol)
	assert.Equal(t, "MID1", top[1].Symbol)
	assert.Equal(t, "MID2", top[2].Symbol)
	assert.InDelta(t, 50.0, top[0].Weight, 0.001)
}

func TestDiversificationCalculator_Concentration(t *testing.T) {
	dc := NewDiversificationCalculator(5)

	t.Run("top1 and top5 weights", func(t *testing.T) {
		holdings := make([]models.HoldingSnapshot, 0, 7)
		holdings = append(holdings, holding("BIG", "Tech", 30000))
		for i := 0; i < 6; i++ {
			holdings = append(holdings, holding(fmt.Sprintf("S%d", i), "Tech", 10000))
		}

		c := dc.Concentration(holdings)

		// Total 90,000: top1 = 30/90, top5 = 70/90.
		assert.InDelta(t, 33.33, c.Top1Weight, 0.01)
		assert.InDelta(t, 77.78, c.Top5Weight, 0.01)
		assert.Equal(t, 7, c.HoldingsCount)
	})

	t.Run("empty holdings", func(t *testing.T) {
		c := dc.Concentration(nil)
		assert.Equal(t, models.ConcentrationData{}, c)
	})
}

func TestDiversificationCalculator_ScoreBounds(t *testing.T) {
	dc := NewDiversificationCalculator(5)

	properties := gopter.NewProperties(nil)

	properties.Property("score stays in [0, 100]", prop.ForAll(
		func(values []float64) bool {
			holdings := make([]models.HoldingSnapshot, 0, len(values))
			sectors := []string{"Tech", "Finance", "Health", ""}
			for i, v := range values {
				holdings = append(holdings, holding(
					fmt.Sprintf("S%02d", i),
					sectors[i%len(sectors)],
					v,
				))
			}

			score := dc.Score(holdings)
			return score >= 0 && score <= 100
		},
		gen.SliceOf(gen.Float64Range(0, 1e7)),
	))

	properties.TestingRun(t)
}
