package calculator

import (
	"fmt"
	"math"
	"sort"

	"portfolio-analytics-api/internal/models"
)

// Rule thresholds. Each rule fires independently; one run can emit several
// recommendations.
const (
	top1WeightThreshold     = 25.0
	top5WeightThreshold     = 70.0
	lowDiversificationScore = 50
	sectorWeightThreshold   = 40.0
	underperformanceAlpha   = -5.0
	highVolatility          = 30.0
	lowSharpe               = 0.5
)

// RecommendationEngine is a stateless rule evaluator over a completed
// analysis snapshot.
type RecommendationEngine struct{}

// NewRecommendationEngine creates a recommendation engine.
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// Generate runs every rule family and returns the combined recommendations.
func (re *RecommendationEngine) Generate(snapshot *models.AnalysisSnapshot) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0)
	if snapshot == nil {
		return recommendations
	}

	recommendations = append(recommendations, re.concentrationRules(snapshot)...)
	recommendations = append(recommendations, re.diversificationRules(snapshot)...)
	recommendations = append(recommendations, re.performanceRules(snapshot)...)
	recommendations = append(recommendations, re.riskRules(snapshot)...)

	return recommendations
}

func (re *RecommendationEngine) concentrationRules(snapshot *models.AnalysisSnapshot) []models.Recommendation {
	var recs []models.Recommendation

	if top1 := snapshot.Concentration.Top1Weight; top1 > top1WeightThreshold {
		symbol := "Top stock"
		if len(snapshot.TopHoldings) > 0 && snapshot.TopHoldings[0].Symbol != "" {
			symbol = snapshot.TopHoldings[0].Symbol
		}
		recs = append(recs, models.Recommendation{
			Type:     models.RecConcentrationRisk,
			Priority: models.PriorityHigh,
			Message:  fmt.Sprintf("%s is %.1f%% of your portfolio. Consider reducing exposure.", symbol, top1),
			Action:   models.ActionReduce,
		})
	}

	if top5 := snapshot.Concentration.Top5Weight; top5 > top5WeightThreshold {
		recs = append(recs, models.Recommendation{
			Type:     models.RecConcentrationRisk,
			Priority: models.PriorityHigh,
			Message:  fmt.Sprintf("Top 5 holdings represent %.1f%% of portfolio. Diversify to reduce risk.", top5),
			Action:   models.ActionDiversify,
		})
	}

	return recs
}

func (re *RecommendationEngine) diversificationRules(snapshot *models.AnalysisSnapshot) []models.Recommendation {
	var recs []models.Recommendation

	if snapshot.DiversificationScore < lowDiversificationScore {
		recs = append(recs, models.Recommendation{
			Type:     models.RecLowDiversification,
			Priority: models.PriorityMedium,
			Message:  fmt.Sprintf("Diversification score is low (%d/100). Add more stocks from different sectors.", snapshot.DiversificationScore),
			Action:   models.ActionDiversify,
		})
	}

	// Sorted for deterministic output across runs.
	sectors := make([]string, 0, len(snapshot.SectorAllocation))
	for sector := range snapshot.SectorAllocation {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	for _, sector := range sectors {
		if weight := snapshot.SectorAllocation[sector]; weight > sectorWeightThreshold {
			recs = append(recs, models.Recommendation{
				Type:     models.RecSectorImbalance,
				Priority: models.PriorityHigh,
				Message:  fmt.Sprintf("%s sector is overweight at %.1f%%. Consider rebalancing.", sector, weight),
				Action:   models.ActionRebalance,
			})
		}
	}

	return recs
}

func (re *RecommendationEngine) performanceRules(snapshot *models.AnalysisSnapshot) []models.Recommendation {
	var recs []models.Recommendation

	if alpha := snapshot.Alpha; alpha != nil && *alpha < underperformanceAlpha {
		recs = append(recs, models.Recommendation{
			Type:     models.RecUnderperformance,
			Priority: models.PriorityHigh,
			Message:  fmt.Sprintf("Portfolio underperforming benchmark by %.1f%%. Review holdings and consider changes.", math.Abs(*alpha)),
			Action:   models.ActionReview,
		})
	}

	if ytd := snapshot.Returns[models.WindowYTD]; ytd != nil && *ytd < 0 {
		recs = append(recs, models.Recommendation{
			Type:     models.RecNegativeReturns,
			Priority: models.PriorityMedium,
			Message:  fmt.Sprintf("YTD return is %.1f%%. Consider reviewing underperforming stocks.", *ytd),
			Action:   models.ActionReview,
		})
	}

	return recs
}

func (re *RecommendationEngine) riskRules(snapshot *models.AnalysisSnapshot) []models.Recommendation {
	var recs []models.Recommendation

	if vol := snapshot.Risk.Volatility30D; vol != nil && *vol > highVolatility {
		recs = append(recs, models.Recommendation{
			Type:     models.RecHighVolatility,
			Priority: models.PriorityMedium,
			Message:  fmt.Sprintf("Portfolio volatility is high at %.1f%%. Consider adding stable, low-beta stocks.", *vol),
			Action:   models.ActionReduceRisk,
		})
	}

	if sharpe := snapshot.Risk.SharpeRatio; sharpe != nil && *sharpe < lowSharpe {
		recs = append(recs, models.Recommendation{
			Type:     models.RecPoorRiskReturn,
			Priority: models.PriorityMedium,
			Message:  fmt.Sprintf("Risk-adjusted returns are low (Sharpe: %.2f). Portfolio may not be compensating for risk.", *sharpe),
			Action:   models.ActionOptimize,
		})
	}

	return recs
}
