package hashfallback

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_IsUnitNorm(t *testing.T) {
	e := New(0)
	vec, err := e.Embed(context.Background(), "kubernetes deployment guide for clusters")
	require.NoError(t, err)

	var sumSquares float64
	for _, x := range vec {
		sumSquares += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSquares)
	assert.InDelta(t, 1.0, norm, 1e-3)
}

func TestEmbed_IsDeterministic(t *testing.T) {
	e := New(DefaultDimension)
	a, err := e.Embed(context.Background(), "same text every time")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "same text every time")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbed_DifferentTextDifferentVector(t *testing.T) {
	e := New(DefaultDimension)
	a, err := e.Embed(context.Background(), "alpha")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "zeta gamma delta")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEmbed_DimensionDefaultsTo64(t *testing.T) {
	e := New(0)
	assert.Equal(t, 64, e.Dimension())
}

func TestBackendID_IsHashV1(t *testing.T) {
	e := New(0)
	assert.Equal(t, "hash-v1", e.BackendID())
}
