package calculator

import (
	"math"

	"portfolio-analytics-api/internal/models"
)

// HealthCalculator combines diversification, performance and risk into one
// composite health score. It is a pure function of a snapshot the other
// engines have already filled in.
type HealthCalculator struct{}

// NewHealthCalculator creates a health calculator.
func NewHealthCalculator() *HealthCalculator {
	return &HealthCalculator{}
}

// HealthScores carries the composite and its two derived sub-scores; the
// diversification sub-score lives on the snapshot itself.
type HealthScores struct {
	Health      int
	Risk        int
	Performance int
}

// Score computes the health composite:
// 0.35 × diversification + 0.40 × performance + 0.25 × risk, clamped to
// [0, 100]. A missing snapshot scores neutral 50s across the board.
func (hc *HealthCalculator) Score(snapshot *models.AnalysisSnapshot) HealthScores {
	if snapshot == nil {
		return HealthScores{Health: 50, Risk: 50, Performance: 50}
	}

	diversification := float64(snapshot.DiversificationScore)
	risk := hc.riskScore(snapshot.Risk)
	performance := hc.performanceScore(snapshot.Returns[models.WindowYTD], snapshot.Alpha)

	health := clampScore(diversification*0.35 + performance*0.40 + risk*0.25)

	return HealthScores{
		Health:      int(math.Round(health)),
		Risk:        int(math.Round(risk)),
		Performance: int(math.Round(performance)),
	}
}

// riskScore starts at a neutral 50 and applies the Sharpe and volatility
// adjustments independently: both can stack before the clamp.
func (hc *HealthCalculator) riskScore(metrics models.RiskMetrics) float64 {
	score := 50.0

	if sharpe := metrics.SharpeRatio; sharpe != nil {
		switch {
		case *sharpe > 2:
			score += 30
		case *sharpe > 1.5:
			score += 20
		case *sharpe > 1:
			score += 10
		case *sharpe < 0.5:
			score -= 20
		}
	}

	if vol := metrics.Volatility30D; vol != nil {
		switch {
		case *vol < 15:
			score += 20
		case *vol < 20:
			score += 10
		case *vol > 30:
			score -= 20
		case *vol > 25:
			score -= 10
		}
	}

	return clampScore(score)
}

// performanceScore applies mutually exclusive YTD-return and alpha tiers on
// top of a neutral 50.
func (hc *HealthCalculator) performanceScore(ytdReturn, alpha *float64) float64 {
	score := 50.0

	if ytdReturn != nil {
		switch {
		case *ytdReturn > 20:
			score += 30
		case *ytdReturn > 15:
			score += 20
		case *ytdReturn > 10:
			score += 10
		case *ytdReturn < 0:
			score -= 20
		case *ytdReturn < 5:
			score -= 10
		}
	}

	if alpha != nil {
		switch {
		case *alpha > 5:
			score += 20
		case *alpha > 2:
			score += 10
		case *alpha < -5:
			score -= 20
		case *alpha < -2:
			score -= 10
		}
	}

	return clampScore(score)
}
