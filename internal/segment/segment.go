// Package segment assigns discount-sensitivity segments to model scores.
package segment

import "fmt"

// Segment labels, ordered by increasing discount sensitivity.
const (
	SegmentFullPrice      = "full_price"
	SegmentConditional    = "conditional"
	SegmentDiscountDriven = "discount_driven"
)

// Default calibration; an alternate (0.2, 0.5) calibration is in use for
// some markets and is supplied through configuration, never hardcoded by
// callers.
const (
	DefaultLowerThreshold = 0.20
	DefaultUpperThreshold = 0.60
)

// Bucketizer maps a probability score in [0,1] onto three fixed,
// non-overlapping intervals: [0, t1) -> full_price, [t1, t2) -> conditional,
// [t2, 1] -> discount_driven. Intervals are left-closed/right-open except
// the top, which includes 1.
type Bucketizer struct {
	lower float64
	upper float64
}

// NewBucketizer validates the threshold pair and returns a bucketizer.
func NewBucketizer(lower, upper float64) (*Bucketizer, error) {
	if lower <= 0 || upper <= lower || upper > 1 {
		return nil, fmt.Errorf("invalid segment thresholds: lower=%v upper=%v (need 0 < lower < upper <= 1)", lower, upper)
	}
	return &Bucketizer{lower: lower, upper: upper}, nil
}

// Thresholds returns the configured (lower, upper) pair.
func (b *Bucketizer) Thresholds() (float64, float64) {
	return b.lower, b.upper
}

// Assign returns the segment label for a score, rejecting values outside
// [0,1] instead of clamping them.
func (b *Bucketizer) Assign(score float64) (string, error) {
	if score < 0 || score > 1 {
		return "", fmt.Errorf("score %v outside [0,1]", score)
	}
	switch {
	case score < b.lower:
		return SegmentFullPrice, nil
	case score < b.upper:
		return SegmentConditional, nil
	default:
		return SegmentDiscountDriven, nil
	}
}
