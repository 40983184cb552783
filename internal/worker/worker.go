package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"feature-service/internal/broker"
	"feature-service/internal/models"
	"feature-service/internal/service"
)

// RunWorker consumes feature-run requests and executes materializations
type RunWorker struct {
	consumer        *broker.Consumer
	eventHandler    *broker.EventHandler
	pipelineService *service.PipelineService
}

// NewRunWorker creates a new run worker
func NewRunWorker(consumer *broker.Consumer, pipelineService *service.PipelineService) *RunWorker {
	eventHandler := broker.NewEventHandler()

	w := &RunWorker{
		consumer:        consumer,
		eventHandler:    eventHandler,
		pipelineService: pipelineService,
	}
	eventHandler.OnRunRequested(w.handleRunRequested)
	return w
}

func (w *RunWorker) handleRunRequested(ctx context.Context, event *models.FeatureRunRequestedEvent) error {
	asOf, err := time.Parse("2006-01-02", event.AsOfDate)
	if err != nil {
		// a malformed date can never succeed on retry; drop it
		log.Printf("Ignoring run request with bad as_of_date %q: %v", event.AsOfDate, err)
		return nil
	}

	runID := event.RunID
	if runID == "" {
		runID = w.pipelineService.NewRunID()
	}

	log.Printf("Processing feature run request: run_id=%s as_of=%s", runID, event.AsOfDate)
	if _, err := w.pipelineService.RunFeatureBuild(ctx, runID, asOf); err != nil {
		return fmt.Errorf("feature run %s failed: %w", runID, err)
	}
	return nil
}

// Start starts the worker
func (w *RunWorker) Start(ctx context.Context) error {
	log.Println("Starting run worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RunWorker) Stop() error {
	log.Println("Stopping run worker...")
	return w.consumer.Close()
}

// SegmentWorker consumes score batches and assigns segments
type SegmentWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.EventHandler
	segmentService *service.SegmentService
}

// NewSegmentWorker creates a new segment worker
func NewSegmentWorker(consumer *broker.Consumer, segmentService *service.SegmentService) *SegmentWorker {
	eventHandler := broker.NewEventHandler()

	w := &SegmentWorker{
		consumer:       consumer,
		eventHandler:   eventHandler,
		segmentService: segmentService,
	}
	eventHandler.OnCustomerScored(w.handleCustomerScored)
	return w
}

func (w *SegmentWorker) handleCustomerScored(ctx context.Context, event *models.CustomerScoredEvent) error {
	log.Printf("Processing score batch: run_id=%s scores=%d", event.RunID, len(event.Scores))

	summary, err := w.segmentService.AssignSegments(ctx, event.RunID, event.Scores)
	if err != nil {
		return fmt.Errorf("segment assignment for run %s failed: %w", event.RunID, err)
	}

	log.Printf("Segment batch done: run_id=%s assigned=%d rejected=%d",
		summary.RunID, summary.Assigned, summary.Rejected)
	return nil
}

// Start starts the segment worker
func (w *SegmentWorker) Start(ctx context.Context) error {
	log.Println("Starting segment worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the segment worker
func (w *SegmentWorker) Stop() error {
	log.Println("Stopping segment worker...")
	return w.consumer.Close()
}
