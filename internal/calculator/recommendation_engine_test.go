package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"portfolio-analytics-api/internal/models"
)

func baseSnapshot() *models.AnalysisSnapshot {
	s := models.NewAnalysisSnapshot(primitive.NewObjectID(), day(2024, time.June, 28))
	s.DiversificationScore = 80
	s.Concentration = models.ConcentrationData{Top1Weight: 10, Top5Weight: 40, HoldingsCount: 12}
	return s
}

func countByType(recs []models.Recommendation, t models.RecommendationType) int {
	n := 0
	for _, r := range recs {
		if r.Type == t {
			n++
		}
	}
	return n
}

func TestRecommendationEngine_Generate(t *testing.T) {
	re := NewRecommendationEngine()

	t.Run("healthy snapshot yields nothing", func(t *testing.T) {
		recs := re.Generate(baseSnapshot())
		assert.Empty(t, recs)
	})

	t.Run("nil snapshot yields nothing", func(t *testing.T) {
		assert.Empty(t, re.Generate(nil))
	})

	t.Run("concentrated portfolio fires both concentration rules", func(t *testing.T) {
		s := baseSnapshot()
		s.Concentration.Top1Weight = 30
		s.Concentration.Top5Weight = 75
		s.TopHoldings = []models.TopHolding{{Symbol: "RELIANCE", Weight: 30}}

		recs := re.Generate(s)

		require.Equal(t, 2, countByType(recs, models.RecConcentrationRisk))
		assert.Equal(t, models.PriorityHigh, recs[0].Priority)
		assert.Equal(t, models.ActionReduce, recs[0].Action)
		assert.Contains(t, recs[0].Message, "RELIANCE is 30.0% of your portfolio")
		assert.Equal(t, models.ActionDiversify, recs[1].Action)
		assert.Contains(t, recs[1].Message, "75.0%")
	})

	t.Run("top stock placeholder when holdings are missing", func(t *testing.T) {
		s := baseSnapshot()
		s.Concentration.Top1Weight = 28

		recs := re.Generate(s)

		require.Len(t, recs, 1)
		assert.Contains(t, recs[0].Message, "Top stock is 28.0%")
	})

	t.Run("low diversification", func(t *testing.T) {
		s := baseSnapshot()
		s.DiversificationScore = 35

		recs := re.Generate(s)

		require.Len(t, recs, 1)
		assert.Equal(t, models.RecLowDiversification, recs[0].Type)
		assert.Equal(t, models.PriorityMedium, recs[0].Priority)
		assert.Contains(t, recs[0].Message, "(35/100)")
	})

	t.Run("overweight sectors fire one rule each", func(t *testing.T) {
		s := baseSnapshot()
		s.SectorAllocation = map[string]float64{
			"Technology": 45.0,
			"Finance":    42.0,
			"Health":     13.0,
		}

		recs := re.Generate(s)

		require.Equal(t, 2, countByType(recs, models.RecSectorImbalance))
		// Sorted by sector name for deterministic output.
		assert.Contains(t, recs[0].Message, "Finance sector is overweight at 42.0%")
		assert.Contains(t, recs[1].Message, "Technology sector is overweight at 45.0%")
	})

	t.Run("underperformance against benchmark", func(t *testing.T) {
		s := baseSnapshot()
		s.Alpha = f(-7.5)

		recs := re.Generate(s)

		require.Len(t, recs, 1)
		assert.Equal(t, models.RecUnderperformance, recs[0].Type)
		assert.Equal(t, models.PriorityHigh, recs[0].Priority)
		assert.Contains(t, recs[0].Message, "underperforming benchmark by 7.5%")
	})

	t.Run("negative ytd return", func(t *testing.T) {
		s := baseSnapshot()
		s.Returns[models.WindowYTD] = f(-3.2)

		recs := re.Generate(s)

		require.Len(t, recs, 1)
		assert.Equal(t, models.RecNegativeReturns, recs[0].Type)
		assert.Contains(t, recs[0].Message, "YTD return is -3.2%")
	})

	t.Run("zero ytd return does not fire", func(t *testing.T) {
		s := baseSnapshot()
		s.Returns[models.WindowYTD] = f(0.0)

		assert.Empty(t, re.Generate(s))
	})

	t.Run("high volatility and low sharpe", func(t *testing.T) {
		s := baseSnapshot()
		s.Risk.Volatility30D = f(34.0)
		s.Risk.SharpeRatio = f(0.3)

		recs := re.Generate(s)

		require.Len(t, recs, 2)
		assert.Equal(t, models.RecHighVolatility, recs[0].Type)
		assert.Equal(t, models.ActionReduceRisk, recs[0].Action)
		assert.Equal(t, models.RecPoorRiskReturn, recs[1].Type)
		assert.Contains(t, recs[1].Message, "(Sharpe: 0.30)")
	})

	t.Run("missing metrics fire nothing", func(t *testing.T) {
		s := baseSnapshot()
		s.Alpha = nil
		s.Risk = models.RiskMetrics{}

		assert.Empty(t, re.Generate(s))
	})
}
