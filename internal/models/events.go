package models

import "time"

// Event types
const (
	EventTypeRunRequested      = "FEATURE_RUN_REQUESTED"
	EventTypeRunCompleted      = "FEATURE_RUN_COMPLETED"
	EventTypeRunFailed         = "FEATURE_RUN_FAILED"
	EventTypeCustomerScored    = "CUSTOMER_SCORED"
	EventTypeCustomerSegmented = "CUSTOMER_SEGMENTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// FeatureRunRequestedEvent asks the pipeline to materialize the feature
// table for an as-of date (format "2006-01-02")
type FeatureRunRequestedEvent struct {
	BaseEvent
	RunID    string `json:"run_id"`
	AsOfDate string `json:"as_of_date"`
}

// FeatureRunCompletedEvent published after a successful table swap
type FeatureRunCompletedEvent struct {
	BaseEvent
	RunID             string    `json:"run_id"`
	AsOfDate          string    `json:"as_of_date"`
	SchemaFingerprint string    `json:"schema_fingerprint"`
	Report            RunReport `json:"report"`
}

// FeatureRunFailedEvent published when a run aborts before publication
type FeatureRunFailedEvent struct {
	BaseEvent
	RunID    string `json:"run_id"`
	AsOfDate string `json:"as_of_date"`
	Reason   string `json:"reason"`
}

// CustomerScoredEvent carries a batch of model scores to bucketize
type CustomerScoredEvent struct {
	BaseEvent
	RunID  string          `json:"run_id"`
	Scores []CustomerScore `json:"scores"`
}

// CustomerSegmentedEvent published per assigned segment
type CustomerSegmentedEvent struct {
	BaseEvent
	RunID               string  `json:"run_id"`
	ExternalCustomerKey string  `json:"externalcustomerkey"`
	Score               float64 `json:"score"`
	Segment             string  `json:"segment"`
}
