package models

// RecommendationType tags the rule family that produced a recommendation.
type RecommendationType string

const (
	RecConcentrationRisk   RecommendationType = "concentration_risk"
	RecSectorImbalance     RecommendationType = "sector_imbalance"
	RecLowDiversification  RecommendationType = "low_diversification"
	RecUnderperformance    RecommendationType = "underperformance"
	RecNegativeReturns     RecommendationType = "negative_returns"
	RecHighVolatility      RecommendationType = "high_volatility"
	RecPoorRiskReturn      RecommendationType = "poor_risk_return"
)

// RecommendationPriority orders recommendations for the user. Only high and
// medium priorities generate alerts.
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

// RecommendationAction is the suggested remediation.
type RecommendationAction string

const (
	ActionReduce     RecommendationAction = "REDUCE"
	ActionDiversify  RecommendationAction = "DIVERSIFY"
	ActionRebalance  RecommendationAction = "REBALANCE"
	ActionReview     RecommendationAction = "REVIEW"
	ActionReduceRisk RecommendationAction = "REDUCE_RISK"
	ActionOptimize   RecommendationAction = "OPTIMIZE"
)

// Recommendation is one rule hit over an analysis snapshot. Recommendations
// are regenerated from scratch on every run and never mutated.
type Recommendation struct {
	Type     RecommendationType     `bson:"type" json:"type"`
	Priority RecommendationPriority `bson:"priority" json:"priority"`
	Message  string                 `bson:"message" json:"message"`
	Action   RecommendationAction   `bson:"action" json:"action"`
}

// Alertable reports whether the recommendation is important enough to become
// an alert for the user.
func (r Recommendation) Alertable() bool {
	return r.Priority == PriorityHigh || r.Priority == PriorityMedium
}

var alertTitles = map[RecommendationType]string{
	RecConcentrationRisk:  "Concentration Risk Detected",
	RecSectorImbalance:    "Sector Imbalance",
	RecUnderperformance:   "Portfolio Underperformance",
	RecHighVolatility:     "High Volatility Alert",
	RecLowDiversification: "Diversification Needed",
	RecNegativeReturns:    "Negative Returns",
	RecPoorRiskReturn:     "Risk-Return Imbalance",
}

// AlertTitle returns the user-facing title for a recommendation type.
func (r Recommendation) AlertTitle() string {
	if title, ok := alertTitles[r.Type]; ok {
		return title
	}
	return "Portfolio Alert"
}
