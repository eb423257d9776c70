package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"portfolio-analytics-api/internal/config"
)

// MongoDB represents MongoDB database connection
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoDB creates a new MongoDB connection
func NewMongoDB(cfg config.DatabaseConfig) (*MongoDB, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)

	if cfg.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))
	}
	if cfg.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(uint64(cfg.MinPoolSize))
	}
	if cfg.MaxIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)
	}
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second)
	}
	if cfg.SocketTimeout > 0 {
		clientOpts.SetSocketTimeout(time.Duration(cfg.SocketTimeout) * time.Second)
	}
	if cfg.ReplicaSet != "" {
		clientOpts.SetReplicaSet(cfg.ReplicaSet)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	if err := createIndexes(ctx, database); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &MongoDB{
		client:   client,
		database: database,
	}, nil
}

// GetDatabase returns the database instance
func (m *MongoDB) GetDatabase() *mongo.Database {
	return m.database
}

// Collection returns a collection
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Disconnect closes the database connection
func (m *MongoDB) Disconnect() error {
	if m.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return m.client.Disconnect(ctx)
}

// Ping checks the database connection
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// createIndexes creates necessary indexes for collections
func createIndexes(ctx context.Context, db *mongo.Database) error {
	// Portfolio collection indexes
	portfolios := db.Collection("portfolios")
	portfolioIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
		},
	}
	if _, err := portfolios.Indexes().CreateMany(ctx, portfolioIndexes); err != nil {
		return fmt.Errorf("failed to create portfolio indexes: %w", err)
	}

	// Holdings collection indexes
	holdings := db.Collection("portfolio_holdings")
	holdingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "portfolio_id", Value: 1}, {Key: "symbol", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := holdings.Indexes().CreateMany(ctx, holdingIndexes); err != nil {
		return fmt.Errorf("failed to create holding indexes: %w", err)
	}

	// Valuation history indexes
	valuations := db.Collection("valuation_history")
	valuationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "portfolio_id", Value: 1}, {Key: "record_date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := valuations.Indexes().CreateMany(ctx, valuationIndexes); err != nil {
		return fmt.Errorf("failed to create valuation indexes: %w", err)
	}

	// Benchmark history indexes
	benchmarks := db.Collection("benchmark_history")
	benchmarkIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "benchmark_id", Value: 1}, {Key: "trade_date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := benchmarks.Indexes().CreateMany(ctx, benchmarkIndexes); err != nil {
		return fmt.Errorf("failed to create benchmark indexes: %w", err)
	}

	// Analysis snapshot indexes. The unique compound index backs the
	// one-snapshot-per-day upsert.
	snapshots := db.Collection("analysis_snapshots")
	snapshotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "portfolio_id", Value: 1}, {Key: "analysis_date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "analysis_date", Value: 1}},
		},
	}
	if _, err := snapshots.Indexes().CreateMany(ctx, snapshotIndexes); err != nil {
		return fmt.Errorf("failed to create snapshot indexes: %w", err)
	}

	return nil
}
