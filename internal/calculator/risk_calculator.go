package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"portfolio-analytics-api/internal/models"
)

// Lookback windows and minimum sample counts per metric. Below the minimum a
// metric is reported as nil: fabricating a number would silently corrupt the
// composite scores built on top of it.
const (
	volatilityWindowDays = 30
	drawdownWindowDays   = 365
	varWindowDays        = 90
	sharpeWindowDays     = 365

	minVolatilitySamples = 10
	minDrawdownSamples   = 10
	minVaRSamples        = 30
	minSharpeSamples     = 30
)

// RiskCalculator computes trailing risk statistics from a portfolio's daily
// valuation history.
type RiskCalculator struct {
	riskFreeRate float64
}

// NewRiskCalculator creates a risk calculator with the given annual
// risk-free rate (a fraction, e.g. 0.06 for 6%).
func NewRiskCalculator(riskFreeRate float64) *RiskCalculator {
	return &RiskCalculator{riskFreeRate: riskFreeRate}
}

// Metrics computes all four risk metrics at once.
func (rc *RiskCalculator) Metrics(history []models.ValuationPoint, asOf time.Time) models.RiskMetrics {
	return models.RiskMetrics{
		Volatility30D: rc.Volatility(history, volatilityWindowDays, asOf),
		MaxDrawdown:   rc.MaxDrawdown(history, asOf),
		VaR95:         rc.ValueAtRisk(history, asOf),
		SharpeRatio:   rc.SharpeRatio(history, asOf),
	}
}

// Volatility is the annualized standard deviation of daily returns over the
// trailing window: σ(daily) × √252, as a percentage.
func (rc *RiskCalculator) Volatility(history []models.ValuationPoint, windowDays int, asOf time.Time) *float64 {
	returns := dailyReturns(trailing(history, windowDays, asOf))
	if len(returns) < minVolatilitySamples {
		return nil
	}

	sigma, err := stats.StandardDeviationPopulation(returns)
	if err != nil {
		return nil
	}

	return floatPtr(round2(sigma * math.Sqrt(tradingDaysPerYear)))
}

// MaxDrawdown is the deepest peak-to-trough decline of total value over the
// trailing year, as a negative percentage.
func (rc *RiskCalculator) MaxDrawdown(history []models.ValuationPoint, asOf time.Time) *float64 {
	window := trailing(history, drawdownWindowDays, asOf)
	if len(window) < minDrawdownSamples {
		return nil
	}

	runningMax := window[0].TotalValue.InexactFloat64()
	maxDD := 0.0
	for _, p := range window {
		value := p.TotalValue.InexactFloat64()
		if value > runningMax {
			runningMax = value
		}
		if runningMax == 0 {
			continue
		}
		drawdown := (value - runningMax) / runningMax * 100
		if drawdown < maxDD {
			maxDD = drawdown
		}
	}

	return floatPtr(round2(maxDD))
}

// ValueAtRisk is the 95% one-day VaR in currency terms: the 5th percentile
// of the trailing 90 days of daily returns scaled by the latest total value.
func (rc *RiskCalculator) ValueAtRisk(history []models.ValuationPoint, asOf time.Time) *float64 {
	window := trailing(history, varWindowDays, asOf)
	returns := dailyReturns(window)
	if len(returns) < minVaRSamples {
		return nil
	}

	percentile, err := stats.Percentile(returns, 5)
	if err != nil {
		return nil
	}

	latest := window[len(window)-1].TotalValue.InexactFloat64()
	return floatPtr(round2(percentile * latest / 100))
}

// SharpeRatio is the annualized excess return per unit of volatility over
// the trailing year. Nil when the sample is too small or volatility is zero.
func (rc *RiskCalculator) SharpeRatio(history []models.ValuationPoint, asOf time.Time) *float64 {
	window := trailing(history, sharpeWindowDays, asOf)
	if len(window) < 2 {
		return nil
	}

	startValue := window[0].TotalValue.InexactFloat64()
	endValue := window[len(window)-1].TotalValue.InexactFloat64()
	if startValue == 0 {
		return nil
	}
	annualReturn := (endValue - startValue) / startValue

	// Daily returns are stored as percentages; Sharpe works on fractions.
	fractions := make([]float64, 0, len(window))
	for _, r := range dailyReturns(window) {
		fractions = append(fractions, r/100)
	}
	if len(fractions) < minSharpeSamples {
		return nil
	}

	sigma, err := stats.StandardDeviationPopulation(fractions)
	if err != nil {
		return nil
	}
	volatility := sigma * math.Sqrt(tradingDaysPerYear)
	if volatility == 0 {
		return nil
	}

	return floatPtr(round3((annualReturn - rc.riskFreeRate) / volatility))
}

// trailing returns the points whose record date falls inside the trailing
// window ending at asOf, ordered by date.
func trailing(history []models.ValuationPoint, windowDays int, asOf time.Time) []models.ValuationPoint {
	end := models.DateOf(asOf)
	start := end.AddDate(0, 0, -windowDays)

	window := make([]models.ValuationPoint, 0, len(history))
	for _, p := range history {
		date := models.DateOf(p.RecordDate)
		if date.Before(start) || date.After(end) {
			continue
		}
		window = append(window, p)
	}
	sort.Slice(window, func(i, j int) bool { return window[i].RecordDate.Before(window[j].RecordDate) })

	return window
}

// dailyReturns extracts the stored daily returns, skipping rows the value
// refresh has not filled yet.
func dailyReturns(points []models.ValuationPoint) []float64 {
	returns := make([]float64, 0, len(points))
	for _, p := range points {
		if p.DailyReturn != nil {
			returns = append(returns, *p.DailyReturn)
		}
	}
	return returns
}
