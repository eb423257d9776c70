package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-analytics-api/internal/models"
)

// pairedHistories builds 40 aligned trading days ending at asOf where the
// benchmark alternates ±1% daily and the portfolio moves by exactly twice
// the benchmark's return.
func pairedHistories(asOf time.Time) ([]models.ValuationPoint, []models.BenchmarkPoint) {
	const days = 40

	benchmarks := make([]models.BenchmarkPoint, 0, days+1)
	close := 20000.0
	benchmarks = append(benchmarks, models.BenchmarkPoint{
		TradeDate:  asOf.AddDate(0, 0, -days),
		CloseValue: decimal.NewFromFloat(close),
	})

	portfolio := make([]models.ValuationPoint, 0, days)
	for i := 0; i < days; i++ {
		factor := 1.01
		pfReturn := 2.0
		if i%2 == 1 {
			factor = 0.99
			pfReturn = -2.0
		}
		close *= factor
		date := asOf.AddDate(0, 0, -(days - 1 - i))
		benchmarks = append(benchmarks, models.BenchmarkPoint{
			TradeDate:  date,
			CloseValue: decimal.NewFromFloat(close),
		})

		r := pfReturn
		portfolio = append(portfolio, models.ValuationPoint{
			RecordDate:  date,
			TotalValue:  decimal.NewFromInt(100000),
			DailyReturn: &r,
		})
	}

	return portfolio, benchmarks
}

func TestAlphaBetaCalculator_Calculate(t *testing.T) {
	asOf := day(2024, time.June, 28)

	t.Run("portfolio moving at twice the benchmark", func(t *testing.T) {
		ab := NewAlphaBetaCalculator(0.06)
		portfolio, benchmarks := pairedHistories(asOf)

		alpha, beta := ab.Calculate(portfolio, benchmarks, asOf)

		// Sample covariance over population variance inflates the
		// slope by n/(n−1): 2 × 40/39.
		require.NotNil(t, beta)
		assert.InDelta(t, 2.051, *beta, 0.001)

		// Both means are zero, so alpha reduces to rf × (beta − 1).
		require.NotNil(t, alpha)
		assert.InDelta(t, 0.06, *alpha, 0.01)
	})

	t.Run("insufficient portfolio history", func(t *testing.T) {
		ab := NewAlphaBetaCalculator(0.06)
		portfolio, benchmarks := pairedHistories(asOf)
		portfolio = portfolio[:10]

		alpha, beta := ab.Calculate(portfolio, benchmarks, asOf)

		assert.Nil(t, alpha)
		assert.Nil(t, beta)
	})

	t.Run("insufficient benchmark history", func(t *testing.T) {
		ab := NewAlphaBetaCalculator(0.06)
		portfolio, benchmarks := pairedHistories(asOf)
		benchmarks = benchmarks[:10]

		alpha, beta := ab.Calculate(portfolio, benchmarks, asOf)

		assert.Nil(t, alpha)
		assert.Nil(t, beta)
	})

	t.Run("flat benchmark has no beta", func(t *testing.T) {
		ab := NewAlphaBetaCalculator(0.06)
		portfolio, _ := pairedHistories(asOf)

		benchmarks := make([]models.BenchmarkPoint, 0, 41)
		for i := 0; i <= 40; i++ {
			benchmarks = append(benchmarks, models.BenchmarkPoint{
				TradeDate:  asOf.AddDate(0, 0, -(40 - i)),
				CloseValue: decimal.NewFromInt(20000),
			})
		}

		alpha, beta := ab.Calculate(portfolio, benchmarks, asOf)

		assert.Nil(t, alpha)
		assert.Nil(t, beta)
	})

	t.Run("missing stored daily returns shrink the overlap", func(t *testing.T) {
		ab := NewAlphaBetaCalculator(0.06)
		portfolio, benchmarks := pairedHistories(asOf)
		for i := range portfolio {
			portfolio[i].DailyReturn = nil
		}

		alpha, beta := ab.Calculate(portfolio, benchmarks, asOf)

		assert.Nil(t, alpha)
		assert.Nil(t, beta)
	})
}
