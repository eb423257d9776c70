package mongo

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/repositories"
)

// MongoValuationHistoryRepository implements ValuationHistoryRepository using MongoDB
type MongoValuationHistoryRepository struct {
	collection *mongo.Collection
}

// NewValuationHistoryRepository creates a new MongoDB valuation history repository
func NewValuationHistoryRepository(db *mongo.Database) repositories.ValuationHistoryRepository {
	return &MongoValuationHistoryRepository{
		collection: db.Collection("valuation_history"),
	}
}

// GetRange retrieves valuation points within a date range, oldest first
func (r *MongoValuationHistoryRepository) GetRange(ctx context.Context, portfolioID primitive.ObjectID, from, to time.Time) ([]models.ValuationPoint, error) {
	filter := bson.M{
		"portfolio_id": portfolioID,
		"record_date": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "record_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get valuation history: %w", err)
	}
	defer cursor.Close(ctx)

	var points []models.ValuationPoint
	if err := cursor.All(ctx, &points); err != nil {
		return nil, fmt.Errorf("failed to decode valuation history: %w", err)
	}

	return points, nil
}

// RecomputeDailyReturns recalculates daily return percentages from consecutive closes
func (r *MongoValuationHistoryRepository) RecomputeDailyReturns(ctx context.Context, portfolioID primitive.ObjectID) (int64, error) {
	opts := options.Find().SetSort(bson.D{{Key: "record_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"portfolio_id": portfolioID}, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to get valuation history: %w", err)
	}
	defer cursor.Close(ctx)

	var points []models.ValuationPoint
	if err := cursor.All(ctx, &points); err != nil {
		return 0, fmt.Errorf("failed to decode valuation history: %w", err)
	}

	var writes []mongo.WriteModel
	for i := 1; i < len(points); i++ {
		prev := points[i-1].TotalValue.InexactFloat64()
		if prev == 0 {
			continue
		}
		curr := points[i].TotalValue.InexactFloat64()
		dailyReturn := math.Round((curr-prev)/prev*100*10000) / 10000

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": points[i].ID}).
			SetUpdate(bson.M{"$set": bson.M{"daily_return": dailyReturn}}))
	}

	if len(writes) == 0 {
		return 0, nil
	}

	result, err := r.collection.BulkWrite(ctx, writes)
	if err != nil {
		return 0, fmt.Errorf("failed to update daily returns: %w", err)
	}

	return result.ModifiedCount + result.UpsertedCount, nil
}

// MongoBenchmarkHistoryRepository implements BenchmarkHistoryRepository using MongoDB
type MongoBenchmarkHistoryRepository struct {
	collection *mongo.Collection
}

// NewBenchmarkHistoryRepository creates a new MongoDB benchmark history repository
func NewBenchmarkHistoryRepository(db *mongo.Database) repositories.BenchmarkHistoryRepository {
	return &MongoBenchmarkHistoryRepository{
		collection: db.Collection("benchmark_history"),
	}
}

// GetRange retrieves benchmark points within a date range, oldest first
func (r *MongoBenchmarkHistoryRepository) GetRange(ctx context.Context, benchmarkID string, from, to time.Time) ([]models.BenchmarkPoint, error) {
	filter := bson.M{
		"benchmark_id": benchmarkID,
		"trade_date": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "trade_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get benchmark history: %w", err)
	}
	defer cursor.Close(ctx)

	var points []models.BenchmarkPoint
	if err := cursor.All(ctx, &points); err != nil {
		return nil, fmt.Errorf("failed to decode benchmark history: %w", err)
	}

	return points, nil
}
