package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioNilPropagation(t *testing.T) {
	assert.Nil(t, Ratio(nil, Float(2)))
	assert.Nil(t, Ratio(Float(2), nil))
	assert.Nil(t, Ratio(Float(2), Float(0)))
	assert.Equal(t, 0.5, *Ratio(Float(1), Float(2)))
}

func TestCountRatio(t *testing.T) {
	assert.Nil(t, CountRatio(3, 0))
	assert.Equal(t, 1.5, *CountRatio(3, 2))
}

func TestPerCount(t *testing.T) {
	assert.Nil(t, PerCount(nil, 2))
	assert.Nil(t, PerCount(Float(10), 0))
	assert.Equal(t, 5.0, *PerCount(Float(10), 2))
}

func TestOptionalAccumulators(t *testing.T) {
	assert.Nil(t, addOpt(nil, nil))
	assert.Equal(t, 3.0, *addOpt(Float(1), Float(2)))
	assert.Equal(t, 1.0, *addOpt(Float(1), nil))

	assert.Equal(t, 1.0, *minOpt(Float(2), Float(1)))
	assert.Equal(t, 2.0, *minOpt(nil, Float(2)))
	assert.Equal(t, 2.0, *maxOpt(Float(1), Float(2)))
	assert.Nil(t, maxOpt(nil, nil))
}
