package layout

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_EmptyIsNoop(t *testing.T) {
	e := newTestEngine(t)
	snap := e.Tick()
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Edges)
	assert.Equal(t, uint64(0), snap.Tick)
}

func TestTick_SingleNodeConvergesToCenter(t *testing.T) {
	e := newTestEngine(t)
	e.Apply(ingest.Event{ID: "A", Content: "alone"})
	var snap Snapshot
	for i := 0; i < 1000; i++ {
		snap = e.Tick()
	}
	assert.Equal(t, uint64(1000), snap.Tick)
	pos := snap.Nodes[0].Position
	assert.InDelta(t, 300, pos.X, 1)
	assert.InDelta(t, 300, pos.Y, 1)
}

func TestTick_PairEquilibrium(t *testing.T) {
	// Centring (0.1) balances repulsion (500/d^2) alone at d = sqrt(5000),
	// and repulsion plus spring (100-d)*0.01 at d ~= 95.48.
	tests := []struct {
		name     string
		related  string
		wantDist float64
	}{
		{"spring", "", 95.484},
		{"no spring", "none", math.Sqrt(5000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.Apply(ingest.Event{ID: "A", Content: "a"})
			if tt.related == "" {
				e.Apply(ingest.Event{ID: "B", Content: "b"})
			} else {
				// bypass inference so the pair stays unconnected
				e.mu.Lock()
				e.addNodeLocked("B", "b")
				e.mu.Unlock()
			}
			var snap Snapshot
			for i := 0; i < 2000; i++ {
				snap = e.Tick()
			}
			d := snap.Nodes[0].Position.Sub(snap.Nodes[1].Position).Len()
			assert.InDelta(t, tt.wantDist, d, 0.5)
		})
	}
}

func TestTick_StaysInBoundsAndFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := metrics.NewCollector("test")
	e, err := NewEngine(DefaultParams(), WithMetrics(m))
	require.NoError(t, err)
	p := e.Params()

	for i := 0; i < 60; i++ {
		ev := ingest.Event{ID: fmt.Sprintf("n%d", i), Content: "note"}
		if i > 0 && rng.Intn(3) == 0 {
			ev.RelatedTo = fmt.Sprintf("n%d", rng.Intn(i))
		}
		e.Apply(ev)
		for k := 0; k < 10; k++ {
			e.Tick()
		}
	}
	for i := 0; i < 400; i++ {
		snap := e.Tick()
		for _, n := range snap.Nodes {
			require.True(t, n.Position.finite() && n.Velocity.finite(), "node %s not finite", n.ID)
			require.GreaterOrEqual(t, n.Position.X, p.Margin)
			require.LessOrEqual(t, n.Position.X, p.Width-p.Margin)
			require.GreaterOrEqual(t, n.Position.Y, p.Margin)
			require.LessOrEqual(t, n.Position.Y, p.Height-p.Margin)
		}
	}
	assert.Equal(t, float64(1000), testutil.ToFloat64(m.LayoutTicks))
	assert.Equal(t, float64(60), testutil.ToFloat64(m.LayoutNodes))
}

func TestTick_CoincidentNodesStayFinite(t *testing.T) {
	e := newTestEngine(t)
	e.Apply(ingest.Event{ID: "A", Content: "a"}, ingest.Event{ID: "B", Content: "b"})
	e.mu.Lock()
	e.nodes[1].Position = e.nodes[0].Position
	e.mu.Unlock()

	for i := 0; i < 100; i++ {
		snap := e.Tick()
		for _, n := range snap.Nodes {
			require.True(t, n.Position.finite())
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 40.0, clamp(10, 40, 560))
	assert.Equal(t, 560.0, clamp(900, 40, 560))
	assert.Equal(t, 100.0, clamp(100, 40, 560))
}
