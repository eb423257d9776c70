package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"portfolio-analytics-api/internal/models"
)

// ValuationHistoryRepository provides daily portfolio valuation records.
type ValuationHistoryRepository interface {
	// GetRange retrieves valuation points with record dates in [from, to],
	// ordered by date ascending.
	GetRange(ctx context.Context, portfolioID primitive.ObjectID, from, to time.Time) ([]models.ValuationPoint, error)

	// RecomputeDailyReturns recalculates and persists the daily return
	// percentage of every valuation point of a portfolio from consecutive
	// total values. Returns the number of points updated.
	RecomputeDailyReturns(ctx context.Context, portfolioID primitive.ObjectID) (int64, error)
}

// BenchmarkHistoryRepository provides daily benchmark index closes.
type BenchmarkHistoryRepository interface {
	// GetRange retrieves benchmark points with trade dates in [from, to],
	// ordered by date ascending.
	GetRange(ctx context.Context, benchmarkID string, from, to time.Time) ([]models.BenchmarkPoint, error)
}
