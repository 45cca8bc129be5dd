package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		g, err := New(" x^2 + 1 ", -2, 2)
		require.NoError(t, err)
		assert.NotEmpty(t, g.ID)
		assert.Equal(t, "x^2 + 1", g.Expression)
	})

	t.Run("InvalidRange", func(t *testing.T) {
		_, err := New("x", 3, 3)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("InvalidExpression", func(t *testing.T) {
		_, err := New("x +* 2", 0, 1)
		require.Error(t, err)
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		_, err := New("y + 1", 0, 1)
		require.Error(t, err)
	})
}

func TestInsertImplicitMul(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2x", "2*x"},
		{"3(x+1)", "3*(x+1)"},
		{"2sin(x)", "2*sin(x)"},
		{"2e", "2*e"},
		{"1e3*x", "1e3*x"},
		{"1e3x", "1e3*x"},
		{"2.5E-1x", "2.5E-1*x"},
		{"x2 + 1", "x2 + 1"},
		{"x^2 + 1", "x^2 + 1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, insertImplicitMul(tt.in))
		})
	}
}

func TestSample(t *testing.T) {
	t.Run("Parabola", func(t *testing.T) {
		g, err := New("x^2", -2, 2)
		require.NoError(t, err)

		points, err := Sample(g, 5)
		require.NoError(t, err)
		require.Len(t, points, 5)
		assert.Equal(t, Point{X: -2, Y: 4}, points[0])
		assert.Equal(t, Point{X: 0, Y: 0}, points[2])
		assert.Equal(t, Point{X: 2, Y: 4}, points[4])
	})

	t.Run("ImplicitMultiplicationAndFunctions", func(t *testing.T) {
		g, err := New("2x + sin(pi*x)", 0, 1)
		require.NoError(t, err)

		points, err := Sample(g, 3)
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.InDelta(t, 2.0, points[1].Y, 1e-9)
		assert.InDelta(t, 2.0, points[2].Y, 1e-9)
	})

	t.Run("ScientificNotation", func(t *testing.T) {
		g, err := New("1e3*x + 2.5e-1x", 0, 1)
		require.NoError(t, err)

		points, err := Sample(g, 2)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.InDelta(t, 1000.25, points[1].Y, 1e-9)
	})

	t.Run("SkipsNonFinite", func(t *testing.T) {
		g, err := New("1/x", -1, 1)
		require.NoError(t, err)

		points, err := Sample(g, 3)
		require.NoError(t, err)
		require.Len(t, points, 2)
		for _, p := range points {
			assert.False(t, math.IsInf(p.Y, 0))
		}
	})

	t.Run("ClampsSampleCount", func(t *testing.T) {
		g, err := New("x", 0, 1)
		require.NoError(t, err)

		points, err := Sample(g, 1)
		require.NoError(t, err)
		assert.Len(t, points, 2)
	})
}
