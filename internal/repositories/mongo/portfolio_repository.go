package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/repositories"
)

// MongoPortfolioRepository implements PortfolioRepository using MongoDB
type MongoPortfolioRepository struct {
	portfolios *mongo.Collection
	holdings   *mongo.Collection
}

// NewPortfolioRepository creates a new MongoDB portfolio repository
func NewPortfolioRepository(db *mongo.Database) repositories.PortfolioRepository {
	return &MongoPortfolioRepository{
		portfolios: db.Collection("portfolios"),
		holdings:   db.Collection("portfolio_holdings"),
	}
}

// GetByID retrieves a portfolio by its ID
func (r *MongoPortfolioRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := r.portfolios.FindOne(ctx, bson.M{"_id": id}).Decode(&portfolio)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, repositories.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	return &portfolio, nil
}

// GetActive retrieves all active portfolios
func (r *MongoPortfolioRepository) GetActive(ctx context.Context) ([]*models.Portfolio, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.portfolios.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get active portfolios: %w", err)
	}
	defer cursor.Close(ctx)

	var portfolios []*models.Portfolio
	if err := cursor.All(ctx, &portfolios); err != nil {
		return nil, fmt.Errorf("failed to decode portfolios: %w", err)
	}

	return portfolios, nil
}

// GetHoldings retrieves the current holdings of a portfolio
func (r *MongoPortfolioRepository) GetHoldings(ctx context.Context, portfolioID primitive.ObjectID) ([]models.HoldingSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "current_value", Value: -1}})

	cursor, err := r.holdings.Find(ctx, bson.M{"portfolio_id": portfolioID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer cursor.Close(ctx)

	var holdings []models.HoldingSnapshot
	if err := cursor.All(ctx, &holdings); err != nil {
		return nil, fmt.Errorf("failed to decode holdings: %w", err)
	}

	return holdings, nil
}
