package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseThresholds(t *testing.T) {
	lower, upper := parseThresholds("0.2,0.6")
	assert.Equal(t, 0.2, lower)
	assert.Equal(t, 0.6, upper)

	// alternate calibration
	lower, upper = parseThresholds("0.2, 0.5")
	assert.Equal(t, 0.2, lower)
	assert.Equal(t, 0.5, upper)

	// malformed input falls back to the default calibration
	lower, upper = parseThresholds("0.2")
	assert.Equal(t, 0.2, lower)
	assert.Equal(t, 0.6, upper)

	lower, upper = parseThresholds("a,b")
	assert.Equal(t, 0.2, lower)
	assert.Equal(t, 0.6, upper)
}
