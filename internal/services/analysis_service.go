package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"portfolio-analytics-api/internal/calculator"
	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/models"
	"portfolio-analytics-api/internal/repositories"
	"portfolio-analytics-api/pkg/cache"
	"portfolio-analytics-api/pkg/metrics"
)

// AlertEmitter publishes alerts derived from a snapshot's recommendations
type AlertEmitter interface {
	EmitAlerts(ctx context.Context, portfolioID string, userID int64, recommendations []models.Recommendation) (int, error)
}

// BatchResult summarizes a batch analysis run
type BatchResult struct {
	Total    int           `json:"total"`
	Success  int           `json:"success"`
	Failed   int           `json:"failed"`
	Alerts   int           `json:"alerts"`
	Duration time.Duration `json:"duration"`
}

// AnalysisService orchestrates the analysis pipeline: it fetches portfolio
// data, runs the engines concurrently, assembles the snapshot and persists it.
type AnalysisService struct {
	portfolioRepo repositories.PortfolioRepository
	valuationRepo repositories.ValuationHistoryRepository
	benchmarkRepo repositories.BenchmarkHistoryRepository
	analysisRepo  repositories.AnalysisRepository

	returnsCalc   *calculator.ReturnsCalculator
	riskCalc      *calculator.RiskCalculator
	divCalc       *calculator.DiversificationCalculator
	alphaBetaCalc *calculator.AlphaBetaCalculator
	healthCalc    *calculator.HealthCalculator
	recEngine     *calculator.RecommendationEngine

	cache     *cache.RedisClient
	publisher AlertEmitter
	metrics   *metrics.Metrics
	config    config.AnalyticsConfig
	logger    *logrus.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	portfolioRepo repositories.PortfolioRepository,
	valuationRepo repositories.ValuationHistoryRepository,
	benchmarkRepo repositories.BenchmarkHistoryRepository,
	analysisRepo repositories.AnalysisRepository,
	cacheClient *cache.RedisClient,
	publisher AlertEmitter,
	m *metrics.Metrics,
	cfg config.AnalyticsConfig,
	logger *logrus.Logger,
) *AnalysisService {
	return &AnalysisService{
		portfolioRepo: portfolioRepo,
		valuationRepo: valuationRepo,
		benchmarkRepo: benchmarkRepo,
		analysisRepo:  analysisRepo,
		returnsCalc:   calculator.NewReturnsCalculator(),
		riskCalc:      calculator.NewRiskCalculator(cfg.RiskFreeRate),
		divCalc:       calculator.NewDiversificationCalculator(cfg.TopHoldingsLimit),
		alphaBetaCalc: calculator.NewAlphaBetaCalculator(cfg.RiskFreeRate),
		healthCalc:    calculator.NewHealthCalculator(),
		recEngine:     calculator.NewRecommendationEngine(),
		cache:         cacheClient,
		publisher:     publisher,
		metrics:       m,
		config:        cfg,
		logger:        logger,
	}
}

// AnalyzePortfolio runs the full analysis pipeline for one portfolio and
// stores today's snapshot. Re-running on the same day replaces the snapshot.
func (s *AnalysisService) AnalyzePortfolio(ctx context.Context, portfolioID primitive.ObjectID) (*models.AnalysisSnapshot, error) {
	snapshot, _, err := s.analyze(ctx, portfolioID)
	return snapshot, err
}

// analyze runs the pipeline and reports how many alerts it published, so
// batch runs can log an aggregate count.
func (s *AnalysisService) analyze(ctx context.Context, portfolioID primitive.ObjectID) (snapshot *models.AnalysisSnapshot, alerts int, err error) {
	start := time.Now()

	// An engine panic must fail this analysis, not the process.
	defer func() {
		if r := recover(); r != nil {
			snapshot = nil
			err = fmt.Errorf("analysis panicked: %v", r)
			s.logger.WithField("portfolio_id", portfolioID.Hex()).Errorf("Analysis panicked: %v", r)
		}
		if s.metrics != nil {
			result := "success"
			if err != nil {
				result = "failure"
			}
			s.metrics.RecordAnalysis(result, time.Since(start))
		}
	}()

	if s.config.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.AnalysisTimeout)
		defer cancel()
	}

	portfolio, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, 0, err
	}

	asOf := models.DateOf(time.Now().UTC())
	benchmarkID := portfolio.BenchmarkID
	if benchmarkID == "" {
		benchmarkID = s.config.DefaultBenchmark
	}

	valuations, benchmarks, holdings, err := s.fetchInputs(ctx, portfolioID, benchmarkID, asOf)
	if err != nil {
		return nil, 0, err
	}

	snapshot = models.NewAnalysisSnapshot(portfolioID, asOf)

	// The engines are independent; run them concurrently and merge. Each
	// stage recovers its own panic so a bad input fails this analysis
	// instead of the process.
	g, _ := errgroup.WithContext(ctx)
	g.Go(stage("returns", func() {
		snapshot.Returns = s.returnsCalc.PortfolioReturns(valuations, asOf)
	}))
	g.Go(stage("benchmark_returns", func() {
		snapshot.BenchmarkReturns = s.returnsCalc.BenchmarkReturns(benchmarks, asOf)
	}))
	g.Go(stage("risk", func() {
		snapshot.Risk = s.riskCalc.Metrics(valuations, asOf)
	}))
	g.Go(stage("alpha_beta", func() {
		snapshot.Alpha, snapshot.Beta = s.alphaBetaCalc.Calculate(valuations, benchmarks, asOf)
	}))
	g.Go(stage("diversification", func() {
		snapshot.DiversificationScore = s.divCalc.Score(holdings)
		snapshot.SectorAllocation = s.divCalc.SectorAllocation(holdings)
		snapshot.TopHoldings = s.divCalc.TopHoldings(holdings)
		snapshot.Concentration = s.divCalc.Concentration(holdings)
	}))
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	// Health depends on the merged engine outputs, so it runs last.
	scores := s.healthCalc.Score(snapshot)
	snapshot.HealthScore = scores.Health
	snapshot.RiskScore = scores.Risk
	snapshot.PerformanceScore = scores.Performance

	snapshot.Recommendations = s.recEngine.Generate(snapshot)

	if err := snapshot.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid analysis snapshot: %w", err)
	}

	if err := s.analysisRepo.Upsert(ctx, snapshot); err != nil {
		return nil, 0, err
	}

	s.cacheSnapshot(ctx, snapshot)
	alerts = s.publishAlerts(ctx, portfolio, snapshot)

	s.logger.WithFields(logrus.Fields{
		"portfolio_id":    portfolioID.Hex(),
		"health_score":    snapshot.HealthScore,
		"recommendations": len(snapshot.Recommendations),
		"duration":        time.Since(start),
	}).Info("Portfolio analysis completed")

	return snapshot, alerts, nil
}

// stage wraps an engine run so a panic surfaces as that analysis' error
func stage(name string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s engine panicked: %v", name, r)
			}
		}()
		fn()
		return nil
	}
}

// fetchInputs loads valuation history, benchmark history and holdings in
// parallel. The history window covers a full year and, for the YTD return,
// back to January 1st when that is further out.
func (s *AnalysisService) fetchInputs(ctx context.Context, portfolioID primitive.ObjectID, benchmarkID string, asOf time.Time) ([]models.ValuationPoint, []models.BenchmarkPoint, []models.HoldingSnapshot, error) {
	from := asOf.AddDate(-1, 0, 0)
	yearStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if yearStart.Before(from) {
		from = yearStart
	}

	var (
		valuations []models.ValuationPoint
		benchmarks []models.BenchmarkPoint
		holdings   []models.HoldingSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		valuations, err = s.valuationRepo.GetRange(gctx, portfolioID, from, asOf)
		return err
	})
	g.Go(func() error {
		var err error
		benchmarks, err = s.benchmarkRepo.GetRange(gctx, benchmarkID, from, asOf)
		return err
	})
	g.Go(func() error {
		var err error
		holdings, err = s.portfolioRepo.GetHoldings(gctx, portfolioID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	return valuations, benchmarks, holdings, nil
}

// cacheSnapshot stores the latest snapshot in Redis. Cache failures are
// logged and ignored; the snapshot is already persisted.
func (s *AnalysisService) cacheSnapshot(ctx context.Context, snapshot *models.AnalysisSnapshot) {
	if s.cache == nil {
		return
	}

	key := cache.AnalysisKey(snapshot.PortfolioID.Hex())
	if err := s.cache.Set(ctx, key, snapshot, s.cache.AnalysisTTL()); err != nil {
		s.logger.Warnf("Failed to cache analysis snapshot: %v", err)
	}
}

// publishAlerts emits alerts for actionable recommendations and returns how
// many were published. Publishing failures never fail the analysis.
func (s *AnalysisService) publishAlerts(ctx context.Context, portfolio *models.Portfolio, snapshot *models.AnalysisSnapshot) int {
	if s.publisher == nil {
		return 0
	}

	count, err := s.publisher.EmitAlerts(ctx, snapshot.PortfolioID.Hex(), portfolio.UserID, snapshot.Recommendations)
	if err != nil {
		s.logger.Warnf("Failed to publish alerts for portfolio %s: %v", snapshot.PortfolioID.Hex(), err)
	}
	if count > 0 && s.metrics != nil {
		s.metrics.RecordAlerts(count)
	}

	return count
}

// GetLatestAnalysis returns the most recent snapshot, preferring the cache
func (s *AnalysisService) GetLatestAnalysis(ctx context.Context, portfolioID primitive.ObjectID) (*models.AnalysisSnapshot, error) {
	if s.cache != nil {
		var cached models.AnalysisSnapshot
		if err := s.cache.Get(ctx, cache.AnalysisKey(portfolioID.Hex()), &cached); err == nil {
			return &cached, nil
		}
	}

	return s.analysisRepo.GetLatest(ctx, portfolioID)
}

// GetAnalysisHistory returns recent snapshots, newest first
func (s *AnalysisService) GetAnalysisHistory(ctx context.Context, portfolioID primitive.ObjectID, limit int) ([]*models.AnalysisSnapshot, error) {
	if limit <= 0 || limit > 90 {
		limit = 30
	}

	return s.analysisRepo.GetHistory(ctx, portfolioID, limit)
}

// RunBatch analyzes the given portfolios, or every active portfolio when
// none are given, with a bounded worker pool. One portfolio's failure never
// stops the others.
func (s *AnalysisService) RunBatch(ctx context.Context, portfolioIDs []primitive.ObjectID) (*BatchResult, error) {
	start := time.Now()

	if s.metrics != nil {
		s.metrics.RecordBatchRun()
	}

	if len(portfolioIDs) == 0 {
		portfolios, err := s.portfolioRepo.GetActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active portfolios: %w", err)
		}
		for _, p := range portfolios {
			portfolioIDs = append(portfolioIDs, p.ID)
		}
	}

	workers := s.config.BatchWorkers
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		portfolioID primitive.ObjectID
		alerts      int
		err         error
	}

	jobs := make(chan primitive.ObjectID)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				_, alerts, err := s.analyze(ctx, id)
				results <- outcome{portfolioID: id, alerts: alerts, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range portfolioIDs {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &BatchResult{Total: len(portfolioIDs)}
	for out := range results {
		if out.err != nil {
			result.Failed++
			s.logger.WithField("portfolio_id", out.portfolioID.Hex()).Warnf("Batch analysis failed: %v", out.err)
		} else {
			result.Success++
			result.Alerts += out.alerts
		}
	}
	// Portfolios never submitted because the context was cancelled count
	// as failed for this run.
	result.Failed = result.Total - result.Success
	result.Duration = time.Since(start)

	s.logger.WithFields(logrus.Fields{
		"total":    result.Total,
		"success":  result.Success,
		"failed":   result.Failed,
		"alerts":   result.Alerts,
		"duration": result.Duration,
	}).Info("Batch analysis completed")

	return result, nil
}

// CleanupSnapshots removes snapshots older than the retention window
func (s *AnalysisService) CleanupSnapshots(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := models.DateOf(time.Now().UTC()).AddDate(0, 0, -retentionDays)
	deleted, err := s.analysisRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Infof("Removed %d analysis snapshots older than %s", deleted, cutoff.Format("2006-01-02"))
	}

	return deleted, nil
}

// RefreshDailyReturns recomputes stored daily returns for a portfolio
func (s *AnalysisService) RefreshDailyReturns(ctx context.Context, portfolioID primitive.ObjectID) (int64, error) {
	if _, err := s.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return 0, err
	}

	return s.valuationRepo.RecomputeDailyReturns(ctx, portfolioID)
}

// RefreshAllDailyReturns recomputes stored daily returns for every active
// portfolio. The nightly job runs this before the analysis batch so the
// return-based metrics read fresh values. One portfolio's failure never
// stops the others.
func (s *AnalysisService) RefreshAllDailyReturns(ctx context.Context) (int64, error) {
	portfolios, err := s.portfolioRepo.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active portfolios: %w", err)
	}

	var updated int64
	for _, p := range portfolios {
		n, err := s.valuationRepo.RecomputeDailyReturns(ctx, p.ID)
		if err != nil {
			s.logger.WithField("portfolio_id", p.ID.Hex()).Warnf("Daily return refresh failed: %v", err)
			continue
		}
		updated += n
	}

	return updated, nil
}
