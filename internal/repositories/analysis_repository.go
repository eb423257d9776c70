package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"portfolio-analytics-api/internal/models"
)

// AnalysisRepository persists analysis snapshots.
type AnalysisRepository interface {
	// Upsert stores a snapshot, replacing any existing snapshot with the
	// same portfolio ID and analysis date. Re-running an analysis for the
	// same day never produces a second document.
	Upsert(ctx context.Context, snapshot *models.AnalysisSnapshot) error

	// GetLatest retrieves the most recent snapshot of a portfolio.
	GetLatest(ctx context.Context, portfolioID primitive.ObjectID) (*models.AnalysisSnapshot, error)

	// GetHistory retrieves the most recent snapshots of a portfolio,
	// newest first, up to limit.
	GetHistory(ctx context.Context, portfolioID primitive.ObjectID, limit int) ([]*models.AnalysisSnapshot, error)

	// DeleteOlderThan removes snapshots with an analysis date before the
	// cutoff. Returns the number of snapshots removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
