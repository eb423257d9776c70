// Package calculator contains the pure analytics engines: returns, risk,
// diversification, alpha/beta, health scoring and recommendations. Engines
// never touch storage; they transform history and holdings already in memory
// and report insufficient data as nil results rather than errors.
package calculator

import "math"

const tradingDaysPerYear = 252

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func floatPtr(v float64) *float64 { return &v }
