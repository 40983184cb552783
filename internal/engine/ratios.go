package engine

// Null-propagating arithmetic over optional values. "Unknown" (nil) is a
// different signal than zero and must never collapse into it; every derived
// ratio is total over optional inputs and returns nil on undefined division.

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Ratio divides num by den, returning nil when either side is unknown or
// the denominator is zero.
func Ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return Float(*num / *den)
}

// CountRatio divides two counts, returning nil when the denominator is zero.
func CountRatio(num, den int64) *float64 {
	if den == 0 {
		return nil
	}
	return Float(float64(num) / float64(den))
}

// PerCount divides an optional sum by a count.
func PerCount(num *float64, den int64) *float64 {
	if num == nil || den == 0 {
		return nil
	}
	return Float(*num / float64(den))
}

// addOpt accumulates v into acc, treating nil acc as "nothing seen yet".
// A nil v leaves acc untouched; callers that must distinguish a skipped
// unknown from a true zero track that separately.
func addOpt(acc, v *float64) *float64 {
	if v == nil {
		return acc
	}
	if acc == nil {
		return Float(*v)
	}
	return Float(*acc + *v)
}

func minOpt(acc, v *float64) *float64 {
	if v == nil {
		return acc
	}
	if acc == nil || *v < *acc {
		return Float(*v)
	}
	return acc
}

func maxOpt(acc, v *float64) *float64 {
	if v == nil {
		return acc
	}
	if acc == nil || *v > *acc {
		return Float(*v)
	}
	return acc
}
