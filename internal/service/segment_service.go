package service

import (
	"context"
	"fmt"
	"time"

	"feature-service/internal/broker"
	"feature-service/internal/models"
	"feature-service/internal/segment"
	"feature-service/internal/store"
	"feature-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SegmentService bucketizes externally produced probability scores into
// discount-sensitivity segments and persists the assignments.
type SegmentService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	bucketizer     *segment.Bucketizer
	logger         *zap.Logger
}

// NewSegmentService creates a new segment service
func NewSegmentService(st *store.Store, eventPublisher *broker.EventPublisher, bucketizer *segment.Bucketizer) *SegmentService {
	return &SegmentService{
		store:          st,
		eventPublisher: eventPublisher,
		bucketizer:     bucketizer,
		logger:         util.GetLogger(),
	}
}

// SegmentSummary reports one assignment batch
type SegmentSummary struct {
	RunID        string           `json:"run_id"`
	Assigned     int              `json:"assigned"`
	Rejected     int              `json:"rejected"`
	Distribution map[string]int64 `json:"distribution"`
}

// AssignSegments validates and bucketizes a score batch. Scores outside
// [0,1] are rejected and counted; valid assignments are persisted and
// published per customer.
func (s *SegmentService) AssignSegments(ctx context.Context, runID string, scores []models.CustomerScore) (*SegmentSummary, error) {
	ctx, span := util.StartSpan(ctx, "SegmentService.AssignSegments")
	defer span.End()

	if runID == "" {
		runID = uuid.New().String()
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("empty score batch")
	}

	now := time.Now().UTC()
	summary := &SegmentSummary{
		RunID:        runID,
		Distribution: make(map[string]int64),
	}
	assignments := make([]models.CustomerSegment, 0, len(scores))

	for _, sc := range scores {
		label, err := s.bucketizer.Assign(sc.Score)
		if err != nil {
			util.SegmentScoresRejectedTotal.Inc()
			summary.Rejected++
			s.logger.Warn("Rejected score",
				zap.String("customer", sc.ExternalCustomerKey),
				zap.Float64("score", sc.Score))
			continue
		}

		assignments = append(assignments, models.CustomerSegment{
			ExternalCustomerKey: sc.ExternalCustomerKey,
			RunID:               runID,
			Score:               sc.Score,
			Segment:             label,
			AssignedAt:          now,
		})
		summary.Assigned++
		summary.Distribution[label]++
		util.SegmentsAssignedTotal.WithLabelValues(label).Inc()
	}

	if len(assignments) > 0 {
		if err := s.store.UpsertSegments(ctx, assignments); err != nil {
			return nil, fmt.Errorf("failed to persist segments: %w", err)
		}
	}

	for _, a := range assignments {
		event := &models.CustomerSegmentedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeCustomerSegmented,
				Timestamp: time.Now(),
			},
			RunID:               runID,
			ExternalCustomerKey: a.ExternalCustomerKey,
			Score:               a.Score,
			Segment:             a.Segment,
		}
		if err := s.eventPublisher.PublishCustomerSegmented(ctx, event); err != nil {
			s.logger.Error("Failed to publish CustomerSegmented event",
				zap.String("customer", a.ExternalCustomerKey),
				zap.Error(err))
		}
	}

	s.logger.Info("Segment batch assigned",
		zap.String("run_id", runID),
		zap.Int("assigned", summary.Assigned),
		zap.Int("rejected", summary.Rejected))

	return summary, nil
}

// GetSegment retrieves the latest assignment for a customer
func (s *SegmentService) GetSegment(ctx context.Context, customerKey string) (*models.CustomerSegment, error) {
	return s.store.GetSegment(ctx, customerKey)
}
