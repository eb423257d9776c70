package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/repositories"
	"portfolio-analytics-api/pkg/cache"
)

// Mock implementations

type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) GetActive(ctx context.Context) ([]*models.Portfolio, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) GetHoldings(ctx context.Context, portfolioID primitive.ObjectID) ([]models.HoldingSnapshot, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HoldingSnapshot), args.Error(1)
}

type MockValuationHistoryRepository struct {
	mock.Mock
}

func (m *MockValuationHistoryRepository) GetRange(ctx context.Context, portfolioID primitive.ObjectID, from, to time.Time) ([]models.ValuationPoint, error) {
	args := m.Called(ctx, portfolioID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ValuationPoint), args.Error(1)
}

func (m *MockValuationHistoryRepository) RecomputeDailyReturns(ctx context.Context, portfolioID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, portfolioID)
	return args.Get(0).(int64), args.Error(1)
}

type MockBenchmarkHistoryRepository struct {
	mock.Mock
}

func (m *MockBenchmarkHistoryRepository) GetRange(ctx context.Context, benchmarkID string, from, to time.Time) ([]models.BenchmarkPoint, error) {
	args := m.Called(ctx, benchmarkID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BenchmarkPoint), args.Error(1)
}

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Upsert(ctx context.Context, snapshot *models.AnalysisSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockAnalysisRepository) GetLatest(ctx context.Context, portfolioID primitive.ObjectID) (*models.AnalysisSnapshot, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisSnapshot), args.Error(1)
}

func (m *MockAnalysisRepository) GetHistory(ctx context.Context, portfolioID primitive.ObjectID, limit int) ([]*models.AnalysisSnapshot, error) {
	args := m.Called(ctx, portfolioID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AnalysisSnapshot), args.Error(1)
}

func (m *MockAnalysisRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockAlertEmitter struct {
	mock.Mock
}

func (m *MockAlertEmitter) EmitAlerts(ctx context.Context, portfolioID string, userID int64, recommendations []models.Recommendation) (int, error) {
	args := m.Called(ctx, portfolioID, userID, recommendations)
	return args.Int(0), args.Error(1)
}

// Test fixtures

type serviceFixture struct {
	portfolioRepo *MockPortfolioRepository
	valuationRepo *MockValuationHistoryRepository
	benchmarkRepo *MockBenchmarkHistoryRepository
	analysisRepo  *MockAnalysisRepository
	publisher     *MockAlertEmitter
	service       *AnalysisService
	redis         *miniredis.Miniredis
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cacheClient := cache.NewRedisClientWithClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		config.CacheConfig{AnalysisTTL: time.Hour},
	)

	f := &serviceFixture{
		portfolioRepo: new(MockPortfolioRepository),
		valuationRepo: new(MockValuationHistoryRepository),
		benchmarkRepo: new(MockBenchmarkHistoryRepository),
		analysisRepo:  new(MockAnalysisRepository),
		publisher:     new(MockAlertEmitter),
		redis:         mr,
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f.service = NewAnalysisService(
		f.portfolioRepo,
		f.valuationRepo,
		f.benchmarkRepo,
		f.analysisRepo,
		cacheClient,
		f.publisher,
		nil,
		config.AnalyticsConfig{
			RiskFreeRate:     0.06,
			TopHoldingsLimit: 5,
			BatchWorkers:     2,
			DefaultBenchmark: "NIFTY50",
		},
		logger,
	)

	return f
}

func testPortfolio() *models.Portfolio {
	return &models.Portfolio{
		ID:          primitive.NewObjectID(),
		UserID:      42,
		Name:        "Growth",
		BenchmarkID: "NIFTY50",
		IsActive:    true,
	}
}

// growingValuations builds ~60 days of history ending today with stored
// daily returns.
func growingValuations(portfolioID primitive.ObjectID) []models.ValuationPoint {
	today := models.DateOf(time.Now().UTC())
	points := make([]models.ValuationPoint, 0, 60)
	for i := 0; i < 60; i++ {
		r := 0.3
		if i%2 == 1 {
			r = -0.1
		}
		points = append(points, models.ValuationPoint{
			PortfolioID: portfolioID,
			RecordDate:  today.AddDate(0, 0, -(59 - i)),
			TotalValue:  decimal.NewFromFloat(100000 + float64(i)*200),
			DailyReturn: &r,
		})
	}
	return points
}

func testHoldings() []models.HoldingSnapshot {
	return []models.HoldingSnapshot{
		{Symbol: "AAA", Name: "Alpha Corp", Sector: "Technology", CurrentValue: decimal.NewFromInt(30000)},
		{Symbol: "BBB", Name: "Beta Ltd", Sector: "Finance", CurrentValue: decimal.NewFromInt(25000)},
		{Symbol: "CCC", Name: "Gamma Inc", Sector: "Health", CurrentValue: decimal.NewFromInt(25000)},
		{Symbol: "DDD", Name: "Delta Co", Sector: "Energy", CurrentValue: decimal.NewFromInt(20000)},
	}
}

// Tests

func TestAnalysisService_AnalyzePortfolio(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline produces a stored snapshot", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("GetRange", mock.Anything, portfolio.ID, mock.Anything, mock.Anything).
			Return(growingValuations(portfolio.ID), nil)
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, portfolio.ID).Return(testHoldings(), nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("EmitAlerts", mock.Anything, portfolio.ID.Hex(), int64(42), mock.Anything).Return(0, nil)

		snapshot, err := f.service.AnalyzePortfolio(ctx, portfolio.ID)

		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, portfolio.ID, snapshot.PortfolioID)
		assert.Equal(t, models.DateOf(time.Now().UTC()), snapshot.AnalysisDate)

		// Enough history for every risk metric.
		assert.NotNil(t, snapshot.Risk.Volatility30D)
		assert.NotNil(t, snapshot.Risk.SharpeRatio)

		// No benchmark data: alpha and beta degrade to nil.
		assert.Nil(t, snapshot.Alpha)
		assert.Nil(t, snapshot.Beta)

		// Scores stay in range.
		assert.GreaterOrEqual(t, snapshot.HealthScore, 0)
		assert.LessOrEqual(t, snapshot.HealthScore, 100)
		assert.Greater(t, snapshot.DiversificationScore, 0)

		f.analysisRepo.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("same-day rerun overwrites the stored snapshot", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("GetRange", mock.Anything, portfolio.ID, mock.Anything, mock.Anything).
			Return(growingValuations(portfolio.ID), nil)
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, portfolio.ID).Return(testHoldings(), nil)
		f.publisher.On("EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(0, nil)

		// Replace-or-insert keyed on (portfolio, date), like the mongo
		// repository's unique index.
		stored := make(map[string]*models.AnalysisSnapshot)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				s := args.Get(1).(*models.AnalysisSnapshot)
				stored[s.PortfolioID.Hex()+"|"+s.AnalysisDate.Format("2006-01-02")] = s
			}).
			Return(nil)

		_, err := f.service.AnalyzePortfolio(ctx, portfolio.ID)
		require.NoError(t, err)
		_, err = f.service.AnalyzePortfolio(ctx, portfolio.ID)
		require.NoError(t, err)

		f.analysisRepo.AssertNumberOfCalls(t, "Upsert", 2)
		assert.Len(t, stored, 1)
	})

	t.Run("portfolio not found", func(t *testing.T) {
		f := newServiceFixture(t)
		id := primitive.NewObjectID()

		f.portfolioRepo.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrPortfolioNotFound)

		snapshot, err := f.service.AnalyzePortfolio(ctx, id)

		assert.Nil(t, snapshot)
		assert.ErrorIs(t, err, repositories.ErrPortfolioNotFound)
	})

	t.Run("valuation fetch failure aborts the analysis", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("GetRange", mock.Anything, portfolio.ID, mock.Anything, mock.Anything).
			Return(nil, errors.New("mongo down"))
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil).Maybe()
		f.portfolioRepo.On("GetHoldings", mock.Anything, portfolio.ID).
			Return(testHoldings(), nil).Maybe()

		snapshot, err := f.service.AnalyzePortfolio(ctx, portfolio.ID)

		assert.Nil(t, snapshot)
		assert.Error(t, err)
		f.analysisRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("empty history still yields a snapshot", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("GetRange", mock.Anything, portfolio.ID, mock.Anything, mock.Anything).
			Return([]models.ValuationPoint{}, nil)
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, portfolio.ID).
			Return([]models.HoldingSnapshot{}, nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

		snapshot, err := f.service.AnalyzePortfolio(ctx, portfolio.ID)

		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, 0, snapshot.DiversificationScore)
		assert.Nil(t, snapshot.Risk.Volatility30D)
		for _, window := range models.ReturnWindows {
			assert.Nil(t, snapshot.Returns[window])
		}
	})

	t.Run("alert publishing failure does not fail the analysis", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("GetRange", mock.Anything, portfolio.ID, mock.Anything, mock.Anything).
			Return([]models.ValuationPoint{}, nil)
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, portfolio.ID).
			Return([]models.HoldingSnapshot{}, nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(0, errors.New("broker down"))

		_, err := f.service.AnalyzePortfolio(ctx, portfolio.ID)

		assert.NoError(t, err)
	})

	t.Run("upsert failure surfaces", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("GetRange", mock.Anything, portfolio.ID, mock.Anything, mock.Anything).
			Return([]models.ValuationPoint{}, nil)
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, portfolio.ID).
			Return([]models.HoldingSnapshot{}, nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("write failed"))

		snapshot, err := f.service.AnalyzePortfolio(ctx, portfolio.ID)

		assert.Nil(t, snapshot)
		assert.Error(t, err)
		f.publisher.AssertNotCalled(t, "EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAnalysisService_GetLatestAnalysis(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to the repository on cache miss", func(t *testing.T) {
		f := newServiceFixture(t)
		id := primitive.NewObjectID()
		stored := models.NewAnalysisSnapshot(id, models.DateOf(time.Now().UTC()))

		f.analysisRepo.On("GetLatest", mock.Anything, id).Return(stored, nil)

		snapshot, err := f.service.GetLatestAnalysis(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, id, snapshot.PortfolioID)
		f.analysisRepo.AssertExpectations(t)
	})

	t.Run("served from cache after an analysis", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("GetRange", mock.Anything, portfolio.ID, mock.Anything, mock.Anything).
			Return([]models.ValuationPoint{}, nil)
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, portfolio.ID).
			Return([]models.HoldingSnapshot{}, nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, nil)

		_, err := f.service.AnalyzePortfolio(ctx, portfolio.ID)
		require.NoError(t, err)

		snapshot, err := f.service.GetLatestAnalysis(ctx, portfolio.ID)

		require.NoError(t, err)
		assert.Equal(t, portfolio.ID, snapshot.PortfolioID)
		f.analysisRepo.AssertNotCalled(t, "GetLatest", mock.Anything, mock.Anything)
	})

	t.Run("no snapshot stored", func(t *testing.T) {
		f := newServiceFixture(t)
		id := primitive.NewObjectID()

		f.analysisRepo.On("GetLatest", mock.Anything, id).Return(nil, repositories.ErrAnalysisNotFound)

		_, err := f.service.GetLatestAnalysis(ctx, id)

		assert.ErrorIs(t, err, repositories.ErrAnalysisNotFound)
	})
}

func TestAnalysisService_RunBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("one failure does not stop the others", func(t *testing.T) {
		f := newServiceFixture(t)

		good := testPortfolio()
		bad := testPortfolio()

		f.portfolioRepo.On("GetActive", mock.Anything).Return([]*models.Portfolio{good, bad}, nil)

		f.portfolioRepo.On("GetByID", mock.Anything, good.ID).Return(good, nil)
		f.valuationRepo.On("GetRange", mock.Anything, good.ID, mock.Anything, mock.Anything).
			Return([]models.ValuationPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, good.ID).
			Return([]models.HoldingSnapshot{}, nil)

		f.portfolioRepo.On("GetByID", mock.Anything, bad.ID).Return(nil, repositories.ErrPortfolioNotFound)

		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(0, nil).Maybe()

		result, err := f.service.RunBatch(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.Success)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("listing failure aborts the run", func(t *testing.T) {
		f := newServiceFixture(t)

		f.portfolioRepo.On("GetActive", mock.Anything).Return(nil, errors.New("mongo down"))

		result, err := f.service.RunBatch(ctx, nil)

		assert.Nil(t, result)
		assert.Error(t, err)
	})

	t.Run("no active portfolios", func(t *testing.T) {
		f := newServiceFixture(t)

		f.portfolioRepo.On("GetActive", mock.Anything).Return([]*models.Portfolio{}, nil)

		result, err := f.service.RunBatch(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
	})

	t.Run("explicit portfolio IDs skip the active listing", func(t *testing.T) {
		f := newServiceFixture(t)

		p := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
		f.valuationRepo.On("GetRange", mock.Anything, p.ID, mock.Anything, mock.Anything).
			Return([]models.ValuationPoint{}, nil)
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.portfolioRepo.On("GetHoldings", mock.Anything, p.ID).
			Return([]models.HoldingSnapshot{}, nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(0, nil).Maybe()

		result, err := f.service.RunBatch(ctx, []primitive.ObjectID{p.ID})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
		assert.Equal(t, 1, result.Success)
		f.portfolioRepo.AssertNotCalled(t, "GetActive", mock.Anything)
	})

	t.Run("aggregates published alert counts", func(t *testing.T) {
		f := newServiceFixture(t)

		first := testPortfolio()
		second := testPortfolio()

		f.portfolioRepo.On("GetActive", mock.Anything).Return([]*models.Portfolio{first, second}, nil)
		for _, p := range []*models.Portfolio{first, second} {
			f.portfolioRepo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			f.valuationRepo.On("GetRange", mock.Anything, p.ID, mock.Anything, mock.Anything).
				Return([]models.ValuationPoint{}, nil)
			f.portfolioRepo.On("GetHoldings", mock.Anything, p.ID).
				Return([]models.HoldingSnapshot{}, nil)
		}
		f.benchmarkRepo.On("GetRange", mock.Anything, "NIFTY50", mock.Anything, mock.Anything).
			Return([]models.BenchmarkPoint{}, nil)
		f.analysisRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("EmitAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(2, nil)

		result, err := f.service.RunBatch(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Success)
		assert.Equal(t, 4, result.Alerts)
	})
}

func TestAnalysisService_CleanupSnapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes before the retention cutoff", func(t *testing.T) {
		f := newServiceFixture(t)

		f.analysisRepo.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(12), nil)

		deleted, err := f.service.CleanupSnapshots(ctx, 730)

		require.NoError(t, err)
		assert.Equal(t, int64(12), deleted)
	})

	t.Run("non-positive retention is a no-op", func(t *testing.T) {
		f := newServiceFixture(t)

		deleted, err := f.service.CleanupSnapshots(ctx, 0)

		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
		f.analysisRepo.AssertNotCalled(t, "DeleteOlderThan", mock.Anything, mock.Anything)
	})
}

func TestAnalysisService_RefreshDailyReturns(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes for an existing portfolio", func(t *testing.T) {
		f := newServiceFixture(t)
		portfolio := testPortfolio()

		f.portfolioRepo.On("GetByID", mock.Anything, portfolio.ID).Return(portfolio, nil)
		f.valuationRepo.On("RecomputeDailyReturns", mock.Anything, portfolio.ID).Return(int64(59), nil)

		updated, err := f.service.RefreshDailyReturns(ctx, portfolio.ID)

		require.NoError(t, err)
		assert.Equal(t, int64(59), updated)
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		f := newServiceFixture(t)
		id := primitive.NewObjectID()

		f.portfolioRepo.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrPortfolioNotFound)

		_, err := f.service.RefreshDailyReturns(ctx, id)

		assert.ErrorIs(t, err, repositories.ErrPortfolioNotFound)
	})
}

func TestAnalysisService_RefreshAllDailyReturns(t *testing.T) {
	ctx := context.Background()

	t.Run("covers every active portfolio and survives failures", func(t *testing.T) {
		f := newServiceFixture(t)

		good := testPortfolio()
		bad := testPortfolio()

		f.portfolioRepo.On("GetActive", mock.Anything).Return([]*models.Portfolio{good, bad}, nil)
		f.valuationRepo.On("RecomputeDailyReturns", mock.Anything, good.ID).Return(int64(40), nil)
		f.valuationRepo.On("RecomputeDailyReturns", mock.Anything, bad.ID).Return(int64(0), errors.New("mongo down"))

		updated, err := f.service.RefreshAllDailyReturns(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(40), updated)
	})

	t.Run("listing failure aborts the refresh", func(t *testing.T) {
		f := newServiceFixture(t)

		f.portfolioRepo.On("GetActive", mock.Anything).Return(nil, errors.New("mongo down"))

		_, err := f.service.RefreshAllDailyReturns(ctx)

		assert.Error(t, err)
	})
}
