package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Return windows. Every window is a fixed calendar-day lookback from the
// analysis date; YTD is anchored on January 1 of the current year.
const (
	Window1D  = "1d"
	Window1W  = "1w"
	Window1M  = "1m"
	Window3M  = "3m"
	Window6M  = "6m"
	Window1Y  = "1y"
	WindowYTD = "ytd"
)

// ReturnWindows lists the fixed day-count windows in ascending order.
var ReturnWindows = []string{Window1D, Window1W, Window1M, Window3M, Window6M, Window1Y}

// WindowDays maps each fixed window to its lookback in calendar days.
var WindowDays = map[string]int{
	Window1D: 1,
	Window1W: 7,
	Window1M: 30,
	Window3M: 90,
	Window6M: 180,
	Window1Y: 365,
}

// RiskMetrics holds the trailing risk statistics. A nil field means the
// sample requirement for that metric was not met; downstream consumers must
// treat nil as "unknown", never as zero.
type RiskMetrics struct {
	Volatility30D *float64 `bson:"volatility_30d,omitempty" json:"volatility_30d,omitempty"`
	MaxDrawdown   *float64 `bson:"max_drawdown,omitempty" json:"max_drawdown,omitempty"`
	VaR95         *float64 `bson:"var_95,omitempty" json:"var_95,omitempty"`
	SharpeRatio   *float64 `bson:"sharpe_ratio,omitempty" json:"sharpe_ratio,omitempty"`
}

// TopHolding is one entry of the top-holdings-by-value breakdown.
type TopHolding struct {
	Symbol string  `bson:"symbol" json:"symbol"`
	Name   string  `bson:"name,omitempty" json:"name,omitempty"`
	Weight float64 `bson:"weight" json:"weight"`
	Value  float64 `bson:"value" json:"value"`
}

// ConcentrationData summarizes how top-heavy the portfolio is.
type ConcentrationData struct {
	Top1Weight    float64 `bson:"top_1_weight" json:"top_1_weight"`
	Top5Weight    float64 `bson:"top_5_weight" json:"top_5_weight"`
	HoldingsCount int     `bson:"num_holdings" json:"num_holdings"`
}

// AnalysisSnapshot is the aggregate output of one analysis run. Exactly one
// snapshot exists per (portfolio, analysis date); re-running the analysis on
// the same day replaces it.
type AnalysisSnapshot struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PortfolioID  primitive.ObjectID `bson:"portfolio_id" json:"portfolio_id"`
	AnalysisDate time.Time          `bson:"analysis_date" json:"analysis_date"`

	HealthScore          int `bson:"health_score" json:"health_score"`
	DiversificationScore int `bson:"diversification_score" json:"diversification_score"`
	RiskScore            int `bson:"risk_score" json:"risk_score"`
	PerformanceScore     int `bson:"performance_score" json:"performance_score"`

	Returns          map[string]*float64 `bson:"returns" json:"returns"`
	BenchmarkReturns map[string]*float64 `bson:"benchmark_returns" json:"benchmark_returns"`
	Alpha            *float64            `bson:"alpha,omitempty" json:"alpha,omitempty"`
	Beta             *float64            `bson:"beta,omitempty" json:"beta,omitempty"`

	Risk RiskMetrics `bson:"risk_metrics" json:"risk_metrics"`

	SectorAllocation map[string]float64 `bson:"sector_allocation" json:"sector_allocation"`
	TopHoldings      []TopHolding       `bson:"top_holdings" json:"top_holdings"`
	Concentration    ConcentrationData  `bson:"concentration_data" json:"concentration_data"`

	Recommendations []Recommendation `bson:"recommendations" json:"recommendations"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NewAnalysisSnapshot creates an empty snapshot keyed to a portfolio and a
// calendar date, ready for the engines to fill in.
func NewAnalysisSnapshot(portfolioID primitive.ObjectID, date time.Time) *AnalysisSnapshot {
	return &AnalysisSnapshot{
		PortfolioID:      portfolioID,
		AnalysisDate:     DateOf(date),
		Returns:          make(map[string]*float64),
		BenchmarkReturns: make(map[string]*float64),
		SectorAllocation: make(map[string]float64),
		TopHoldings:      []TopHolding{},
		Recommendations:  []Recommendation{},
		CreatedAt:        time.Now().UTC(),
	}
}

// Validate checks the snapshot invariants before persistence.
func (s *AnalysisSnapshot) Validate() error {
	if s.PortfolioID.IsZero() {
		return fmt.Errorf("portfolio ID is required")
	}
	if s.AnalysisDate.IsZero() {
		return fmt.Errorf("analysis date is required")
	}
	if s.HealthScore < 0 || s.HealthScore > 100 {
		return fmt.Errorf("health score out of range: %d", s.HealthScore)
	}
	if s.DiversificationScore < 0 || s.DiversificationScore > 100 {
		return fmt.Errorf("diversification score out of range: %d", s.DiversificationScore)
	}
	return nil
}
