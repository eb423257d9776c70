package calculator

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"portfolio-analytics-api/internal/models"
)

const (
	alphaBetaWindowDays = 365
	minAlphaBetaSamples = 30
)

// AlphaBetaCalculator produces CAPM-style alpha and beta by regressing the
// portfolio's stored daily returns against daily returns derived from
// consecutive benchmark closes. The two sides are aligned on the dates they
// have in common; anything short of the sample minimum degrades to
// (nil, nil) so the analysis can proceed without a benchmark comparison.
type AlphaBetaCalculator struct {
	riskFreeRate float64
}

// NewAlphaBetaCalculator creates an alpha/beta calculator with the given
// annual risk-free rate.
func NewAlphaBetaCalculator(riskFreeRate float64) *AlphaBetaCalculator {
	return &AlphaBetaCalculator{riskFreeRate: riskFreeRate}
}

// Calculate returns (alpha, beta) over the trailing year. Alpha is rounded
// to 2 decimals, beta to 3. Beta is nil when the benchmark variance is zero,
// and alpha is nil whenever beta is.
func (ab *AlphaBetaCalculator) Calculate(pfHistory []models.ValuationPoint, bmHistory []models.BenchmarkPoint, asOf time.Time) (*float64, *float64) {
	end := models.DateOf(asOf)
	start := end.AddDate(0, 0, -alphaBetaWindowDays)

	pfWindow := trailing(pfHistory, alphaBetaWindowDays, asOf)
	bmWindow := benchmarkTrailing(bmHistory, start, end)

	if len(pfWindow) < minAlphaBetaSamples || len(bmWindow) < minAlphaBetaSamples {
		return nil, nil
	}

	pfByDate := make(map[time.Time]float64, len(pfWindow))
	for _, p := range pfWindow {
		if p.DailyReturn != nil {
			pfByDate[models.DateOf(p.RecordDate)] = *p.DailyReturn
		}
	}

	// Benchmark daily returns come from consecutive closes, not from a
	// stored field; the asymmetry with the portfolio side is deliberate.
	bmByDate := make(map[time.Time]float64, len(bmWindow))
	for i := 1; i < len(bmWindow); i++ {
		prev := bmWindow[i-1].CloseValue.InexactFloat64()
		if prev == 0 {
			continue
		}
		close := bmWindow[i].CloseValue.InexactFloat64()
		bmByDate[models.DateOf(bmWindow[i].TradeDate)] = (close - prev) / prev * 100
	}

	common := make([]time.Time, 0, len(pfByDate))
	for date := range pfByDate {
		if _, ok := bmByDate[date]; ok {
			common = append(common, date)
		}
	}
	if len(common) < minAlphaBetaSamples {
		return nil, nil
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	pfReturns := make([]float64, 0, len(common))
	bmReturns := make([]float64, 0, len(common))
	for _, date := range common {
		pfReturns = append(pfReturns, pfByDate[date])
		bmReturns = append(bmReturns, bmByDate[date])
	}

	covariance, err := stats.Covariance(stats.Float64Data(pfReturns), stats.Float64Data(bmReturns))
	if err != nil {
		return nil, nil
	}
	bmVariance, err := stats.PopulationVariance(stats.Float64Data(bmReturns))
	if err != nil || bmVariance == 0 {
		return nil, nil
	}
	beta := covariance / bmVariance

	pfMean, err := stats.Mean(stats.Float64Data(pfReturns))
	if err != nil {
		return nil, nil
	}
	bmMean, err := stats.Mean(stats.Float64Data(bmReturns))
	if err != nil {
		return nil, nil
	}

	annualPf := pfMean * tradingDaysPerYear
	annualBm := bmMean * tradingDaysPerYear
	alpha := annualPf - (ab.riskFreeRate + beta*(annualBm-ab.riskFreeRate))

	return floatPtr(round2(alpha)), floatPtr(round3(beta))
}

func benchmarkTrailing(history []models.BenchmarkPoint, start, end time.Time) []models.BenchmarkPoint {
	window := make([]models.BenchmarkPoint, 0, len(history))
	for _, p := range history {
		date := models.DateOf(p.TradeDate)
		if date.Before(start) || date.After(end) {
			continue
		}
		window = append(window, p)
	}
	sort.Slice(window, func(i, j int) bool { return window[i].TradeDate.Before(window[j].TradeDate) })
	return window
}
