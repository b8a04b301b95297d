package ewma

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestDefaultStartsAtZero(t *testing.T) {
	e := Default()
	assert.Equal(t, e.Value(), 0.0)
}

func TestObserveBlends(t *testing.T) {
	e := New(0.1)
	e.Observe(100)
	assert.Equal(t, e.Value(), 10.0)
	e.Observe(100)
	assert.Equal(t, e.Value(), 19.0)
}

func TestSetReplacesValue(t *testing.T) {
	e := New(0.5)
	e.Observe(40)
	e.Set(5)
	assert.Equal(t, e.Value(), 5.0)
}

func TestNewWithValueSeedsWithoutBlending(t *testing.T) {
	e := NewWithValue(0.1, 250)
	assert.Equal(t, e.Value(), 250.0)
}

func TestSetAlphaAffectsFutureObserves(t *testing.T) {
	e := NewWithValue(0.1, 0)
	e.SetAlpha(1.0)
	e.Observe(42)
	assert.Equal(t, e.Value(), 42.0, "alpha=1 should replace immediately")
}
