package calculator

import (
	"sort"
	"time"

	"portfolio-analytics-api/internal/models"
)

// ReturnsCalculator computes simple percentage returns over fixed calendar
// lookback windows and year-to-date. The same algorithm serves portfolio
// valuation series and benchmark close series: within a window it takes the
// chronologically first and last points it can find, which makes the metric
// tolerant of missing trading days.
type ReturnsCalculator struct{}

// NewReturnsCalculator creates a returns calculator.
func NewReturnsCalculator() *ReturnsCalculator {
	return &ReturnsCalculator{}
}

// seriesPoint is the shape both kinds of history reduce to.
type seriesPoint struct {
	date  time.Time
	value float64
}

// PortfolioReturns computes the full returns map (1d/1w/1m/3m/6m/1y/ytd) for
// a portfolio valuation history. A nil entry means the window had fewer than
// two points or a zero starting value.
func (rc *ReturnsCalculator) PortfolioReturns(history []models.ValuationPoint, asOf time.Time) map[string]*float64 {
	series := make([]seriesPoint, 0, len(history))
	for _, p := range history {
		series = append(series, seriesPoint{date: models.DateOf(p.RecordDate), value: p.TotalValue.InexactFloat64()})
	}
	return rc.allWindows(series, asOf)
}

// BenchmarkReturns computes the same returns map for a benchmark close-value
// history.
func (rc *ReturnsCalculator) BenchmarkReturns(history []models.BenchmarkPoint, asOf time.Time) map[string]*float64 {
	series := make([]seriesPoint, 0, len(history))
	for _, p := range history {
		series = append(series, seriesPoint{date: models.DateOf(p.TradeDate), value: p.CloseValue.InexactFloat64()})
	}
	return rc.allWindows(series, asOf)
}

func (rc *ReturnsCalculator) allWindows(series []seriesPoint, asOf time.Time) map[string]*float64 {
	sort.Slice(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })

	results := make(map[string]*float64, len(models.ReturnWindows)+1)
	end := models.DateOf(asOf)
	for _, window := range models.ReturnWindows {
		start := end.AddDate(0, 0, -models.WindowDays[window])
		results[window] = rc.spanReturn(series, start, end)
	}
	janFirst := time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	results[models.WindowYTD] = rc.spanReturn(series, janFirst, end)

	return results
}

// spanReturn computes (last − first)/first × 100 over the points that fall
// inside [start, end]. It needs at least two points and a non-zero starting
// value; otherwise the return is unknown and nil is reported.
func (rc *ReturnsCalculator) spanReturn(series []seriesPoint, start, end time.Time) *float64 {
	var window []seriesPoint
	for _, p := range series {
		if p.date.Before(start) || p.date.After(end) {
			continue
		}
		window = append(window, p)
	}

	if len(window) < 2 {
		return nil
	}

	first := window[0].value
	last := window[len(window)-1].value
	if first == 0 {
		return nil
	}

	return floatPtr(round2((last - first) / first * 100))
}
