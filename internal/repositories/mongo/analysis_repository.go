package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/repositories"
)

// MongoAnalysisRepository implements AnalysisRepository using MongoDB
type MongoAnalysisRepository struct {
	collection *mongo.Collection
}

// NewAnalysisRepository creates a new MongoDB analysis repository
func NewAnalysisRepository(db *mongo.Database) repositories.AnalysisRepository {
	return &MongoAnalysisRepository{
		collection: db.Collection("analysis_snapshots"),
	}
}

// Upsert replaces the snapshot for the same portfolio and analysis date.
// The collection carries a unique index on (portfolio_id, analysis_date),
// so a concurrent double-run resolves to a single document.
func (r *MongoAnalysisRepository) Upsert(ctx context.Context, snapshot *models.AnalysisSnapshot) error {
	if snapshot.ID.IsZero() {
		snapshot.ID = primitive.NewObjectID()
	}
	snapshot.CreatedAt = time.Now()

	filter := bson.M{
		"portfolio_id":  snapshot.PortfolioID,
		"analysis_date": snapshot.AnalysisDate,
	}

	_, err := r.collection.ReplaceOne(ctx, filter, snapshot, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert analysis snapshot: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent snapshot of a portfolio
func (r *MongoAnalysisRepository) GetLatest(ctx context.Context, portfolioID primitive.ObjectID) (*models.AnalysisSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "analysis_date", Value: -1}})

	var snapshot models.AnalysisSnapshot
	err := r.collection.FindOne(ctx, bson.M{"portfolio_id": portfolioID}, opts).Decode(&snapshot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, repositories.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis snapshot: %w", err)
	}

	return &snapshot, nil
}

// GetHistory retrieves recent snapshots of a portfolio, newest first
func (r *MongoAnalysisRepository) GetHistory(ctx context.Context, portfolioID primitive.ObjectID, limit int) ([]*models.AnalysisSnapshot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "analysis_date", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"portfolio_id": portfolioID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer cursor.Close(ctx)

	var snapshots []*models.AnalysisSnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode analysis history: %w", err)
	}

	return snapshots, nil
}

// DeleteOlderThan removes snapshots older than the cutoff date
func (r *MongoAnalysisRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"analysis_date": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	return result.DeletedCount, nil
}
