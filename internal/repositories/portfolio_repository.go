package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"portfolio-analytics-api/internal/models"
)

// Sentinel errors for upstream lookups. A lookup failure aborts the analysis
// of that portfolio; it is never silently converted into empty data.
var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrAnalysisNotFound  = errors.New("analysis snapshot not found")
)

// PortfolioRepository looks up portfolios and their current holdings.
type PortfolioRepository interface {
	// GetByID retrieves a portfolio by ID.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Portfolio, error)

	// GetActive retrieves all portfolios included in the nightly batch.
	GetActive(ctx context.Context) ([]*models.Portfolio, error)

	// GetHoldings retrieves the current holdings snapshot of a portfolio.
	GetHoldings(ctx context.Context, portfolioID primitive.ObjectID) ([]models.HoldingSnapshot, error)
}
