package streamline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/siteforge/layout-optimizer/pkg/geometry"
	"github.com/siteforge/layout-optimizer/pkg/tensorfield"
)

func TestTraceStraightGridExitsBoundary(t *testing.T) {
	field := tensorfield.New(tensorfield.Grid(r2.Vec{X: 50, Y: 50}, 0, 1000))
	site := geometry.Rect(0, 0, 100, 100)
	tracer := Tracer{Step: 5, MaxSteps: 1000, MinAnisotropy: 0.01}

	line := tracer.Trace(r2.Vec{X: 50, Y: 30}, field, site)

	require.GreaterOrEqual(t, len(line), 2)
	last := line[len(line)-1]
	assert.InDelta(t, 100.0, math.Abs(last.X-50)+50, 1e-6, "trace ends on the left or right edge")
	for _, p := range line {
		assert.InDelta(t, 30.0, p.Y, 1e-9)
	}
	assert.InDelta(t, 50.0, line.Length(), 1e-6)
}

func TestTraceBidirectionalSpansSite(t *testing.T) {
	field := tensorfield.New(tensorfield.Grid(r2.Vec{X: 50, Y: 50}, math.Pi/2, 1000))
	site := geometry.Rect(0, 0, 100, 100)
	tracer := Tracer{Step: 5, MaxSteps: 1000, MinAnisotropy: 0.01}

	line := tracer.TraceBidirectional(r2.Vec{X: 20, Y: 50}, field, site)

	assert.InDelta(t, 100.0, line.Length(), 1e-6)
	assert.InDelta(t, 20.0, line[0].X, 1e-9)
}

func TestTraceStopsOnMaxSteps(t *testing.T) {
	field := tensorfield.New(tensorfield.Grid(r2.Vec{}, 0, 1000))
	site := geometry.Rect(-1000, -1000, 1000, 1000)
	tracer := Tracer{Step: 1, MaxSteps: 10, MinAnisotropy: 0.01}

	line := tracer.Trace(r2.Vec{}, field, site)
	assert.Len(t, line, 11)
}

func TestTraceSeedOutsideOrIsotropic(t *testing.T) {
	site := geometry.Rect(0, 0, 10, 10)
	tracer := DefaultTracer()

	field := tensorfield.New(tensorfield.Grid(r2.Vec{}, 0, 100))
	assert.Len(t, tracer.Trace(r2.Vec{X: 20, Y: 20}, field, site), 1)

	empty := tensorfield.New()
	assert.Len(t, tracer.Trace(r2.Vec{X: 5, Y: 5}, empty, site), 1)
}

func TestTraceDoesNotZigZag(t *testing.T) {
	field := tensorfield.New(tensorfield.Radial(r2.Vec{X: 50, Y: 50}, 200, true))
	site := geometry.Rect(0, 0, 100, 100)
	tracer := Tracer{Step: 1, MaxSteps: 50, MinAnisotropy: 0.001}

	line := tracer.Trace(r2.Vec{X: 80, Y: 50}, field, site)
	require.Greater(t, len(line), 10)
	for i := 2; i < len(line); i++ {
		a := r2.Sub(line[i-1], line[i-2])
		b := r2.Sub(line[i], line[i-1])
		assert.Greater(t, r2.Dot(a, b), 0.0, "step %d reverses direction", i)
	}
}
