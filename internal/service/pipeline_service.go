package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feature-service/internal/broker"
	"feature-service/internal/engine"
	"feature-service/internal/models"
	"feature-service/internal/redisclient"
	"feature-service/internal/schema"
	"feature-service/internal/store"
	"feature-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PipelineService orchestrates feature table runs: snapshot load, engine
// transform, schema-validated staging write, atomic swap, cache warm and
// event publication.
type PipelineService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	engine         *engine.Engine
	lookbackYears  int
	cacheTTL       time.Duration
	lockTTL        time.Duration
	logger         *zap.Logger
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	st *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	lookbackYears int,
	cacheTTL time.Duration,
	lockTTL time.Duration,
) *PipelineService {
	if lookbackYears <= 0 {
		lookbackYears = engine.DefaultLookbackYears
	}
	return &PipelineService{
		store:          st,
		redis:          redis,
		eventPublisher: eventPublisher,
		engine:         engine.New(lookbackYears),
		lookbackYears:  lookbackYears,
		cacheTTL:       cacheTTL,
		lockTTL:        lockTTL,
		logger:         util.GetLogger(),
	}
}

// NewRunID returns a fresh run identifier
func (s *PipelineService) NewRunID() string {
	return uuid.New().String()
}

// RunFeatureBuild executes one full materialization for an as-of date. The
// run is all-or-nothing: on any failure the previously published table
// remains untouched and the failure is recorded and published.
func (s *PipelineService) RunFeatureBuild(ctx context.Context, runID string, asOf time.Time) (*models.RunReport, error) {
	ctx, span := util.StartSpan(ctx, "PipelineService.RunFeatureBuild")
	defer span.End()

	start := time.Now()
	util.FeatureRunsStartedTotal.Inc()

	locked, err := s.redis.AcquireRunLock(ctx, runID, s.lockTTL)
	if err != nil {
		s.logger.Warn("Run lock unavailable, proceeding without it", zap.Error(err))
	} else if !locked {
		util.FeatureRunsFailedTotal.WithLabelValues("run_in_flight").Inc()
		return nil, fmt.Errorf("another feature run is already in flight")
	}
	defer func() {
		if err := s.redis.ReleaseRunLock(context.Background(), runID); err != nil {
			s.logger.Warn("Failed to release run lock", zap.Error(err))
		}
	}()

	run := &models.FeatureRun{
		RunID:             runID,
		AsOfDate:          asOf,
		Status:            models.RunStatusRunning,
		SchemaFingerprint: schema.Fingerprint(),
		StartedAt:         start.UTC(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		util.FeatureRunsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	report, err := s.buildAndPublish(ctx, runID, asOf)
	if err != nil {
		reason := failureReason(err)
		util.FeatureRunsFailedTotal.WithLabelValues(reason).Inc()
		if dbErr := s.store.FailRun(ctx, runID, err.Error()); dbErr != nil {
			s.logger.Error("Failed to record run failure", zap.String("run_id", runID), zap.Error(dbErr))
		}
		s.publishRunFailed(ctx, runID, asOf, err)
		return nil, err
	}

	if err := s.store.CompleteRun(ctx, runID, *report); err != nil {
		s.logger.Error("Failed to record run completion", zap.String("run_id", runID), zap.Error(err))
	}

	util.FeatureRunsCompletedTotal.Inc()
	util.FeatureRunDuration.Observe(time.Since(start).Seconds())
	util.FeatureCustomersEmitted.Set(float64(report.CustomersEmitted))

	s.logger.Info("Feature run published",
		zap.String("run_id", runID),
		zap.Time("as_of_date", asOf),
		zap.Int64("customers_emitted", report.CustomersEmitted),
		zap.Duration("took", time.Since(start)))

	event := &models.FeatureRunCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRunCompleted,
			Timestamp: time.Now(),
		},
		RunID:             runID,
		AsOfDate:          asOf.Format("2006-01-02"),
		SchemaFingerprint: schema.Fingerprint(),
		Report:            *report,
	}
	if err := s.eventPublisher.PublishRunCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish FeatureRunCompleted event", zap.Error(err))
	}

	return report, nil
}

// buildAndPublish is the failable core of a run
func (s *PipelineService) buildAndPublish(ctx context.Context, runID string, asOf time.Time) (*models.RunReport, error) {
	snap, err := s.store.LoadSnapshot(ctx, asOf, s.lookbackYears)
	if err != nil {
		return nil, fmt.Errorf("failed to load source snapshot: %w", err)
	}

	result, err := s.engine.Run(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("feature aggregation failed: %w", err)
	}

	if err := s.store.WriteFeatures(ctx, result.Records); err != nil {
		return nil, fmt.Errorf("failed to publish feature table: %w", err)
	}

	s.warmCache(ctx, result.Records)

	return &result.Report, nil
}

// warmCache refreshes the online cache after a swap; failures here degrade
// reads to the database and are not fatal to the run
func (s *PipelineService) warmCache(ctx context.Context, records []models.CustomerFeatureRecord) {
	for i := range records {
		if err := s.redis.CacheFeatureRecord(ctx, &records[i], s.cacheTTL); err != nil {
			s.logger.Warn("Failed to warm feature cache",
				zap.String("customer", records[i].ExternalCustomerKey),
				zap.Error(err))
			return
		}
	}
}

func (s *PipelineService) publishRunFailed(ctx context.Context, runID string, asOf time.Time, cause error) {
	event := &models.FeatureRunFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRunFailed,
			Timestamp: time.Now(),
		},
		RunID:    runID,
		AsOfDate: asOf.Format("2006-01-02"),
		Reason:   cause.Error(),
	}
	if err := s.eventPublisher.PublishRunFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish FeatureRunFailed event", zap.Error(err))
	}
}

// failureReason maps the error taxonomy onto metric labels. Schema and
// duplicate-key violations are aggregation bugs; everything else is an
// operational error.
func failureReason(err error) string {
	switch {
	case errors.Is(err, schema.ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, engine.ErrDuplicateKey):
		return "duplicate_key"
	default:
		return "error"
	}
}

// GetFeatureRecord serves one customer's published record, cache first
func (s *PipelineService) GetFeatureRecord(ctx context.Context, customerKey string) (*models.CustomerFeatureRecord, error) {
	ctx, span := util.StartSpan(ctx, "PipelineService.GetFeatureRecord")
	defer span.End()

	rec, err := s.redis.GetFeatureRecord(ctx, customerKey)
	if err != nil {
		s.logger.Warn("Feature cache read failed, falling back to DB",
			zap.String("customer", customerKey), zap.Error(err))
	}
	if rec != nil {
		util.FeatureCacheHitsTotal.WithLabelValues("hit").Inc()
		return rec, nil
	}
	util.FeatureCacheHitsTotal.WithLabelValues("miss").Inc()

	rec, err = s.store.GetFeatureRecord(ctx, customerKey)
	if err != nil {
		return nil, err
	}

	if err := s.redis.CacheFeatureRecord(ctx, rec, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache feature record", zap.Error(err))
	}
	return rec, nil
}

// GetRun retrieves run status and report counters
func (s *PipelineService) GetRun(ctx context.Context, runID string) (*models.FeatureRun, error) {
	return s.store.GetRun(ctx, runID)
}
