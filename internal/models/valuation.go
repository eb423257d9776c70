package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValuationPoint is one day of a portfolio's valuation history. Points are
// produced by the value-refresh job and consumed read-only by the analytics
// engines. DailyReturn is a percentage and stays nil until the refresh job
// has a previous day to compare against.
type ValuationPoint struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PortfolioID   primitive.ObjectID `bson:"portfolio_id" json:"portfolio_id"`
	RecordDate    time.Time          `bson:"record_date" json:"record_date"`
	TotalValue    decimal.Decimal    `bson:"total_value" json:"total_value"`
	InvestedValue decimal.Decimal    `bson:"invested_value,omitempty" json:"invested_value,omitempty"`
	DailyReturn   *float64           `bson:"daily_return,omitempty" json:"daily_return,omitempty"`
}

// BenchmarkPoint is one day of a benchmark instrument's close history.
type BenchmarkPoint struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	BenchmarkID string             `bson:"benchmark_id" json:"benchmark_id"`
	TradeDate   time.Time          `bson:"trade_date" json:"trade_date"`
	CloseValue  decimal.Decimal    `bson:"close_value" json:"close_value"`
}

// DateOf truncates a timestamp to its UTC calendar date. History rows and
// analysis snapshots are keyed by date, not by instant.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
