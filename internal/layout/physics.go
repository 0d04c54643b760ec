package layout

import (
	"math"
	"time"
)

// Tick advances the simulation by one frame and returns the resulting state.
// Nodes are updated in insertion order; a node sees the positions that earlier
// nodes already reached in the same tick. An empty graph is left untouched.
func (e *Engine) Tick() Snapshot {
	start := time.Now()
	e.mu.Lock()
	n := len(e.nodes)
	if n > 0 {
		e.stepLocked()
		e.ticks++
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	if n > 0 {
		e.metrics.RecordTick(time.Since(start), n)
	}
	return snap
}

func (e *Engine) stepLocked() {
	p := e.params
	for i := range e.nodes {
		node := &e.nodes[i]
		v := node.Velocity.Scale(p.Damping).Add(e.forceLocked(i))
		pos := node.Position.Add(v)
		if !v.finite() || !pos.finite() {
			node.Velocity = Vec2{}
			continue
		}
		node.Velocity = v
		node.Position = Vec2{
			X: clamp(pos.X, p.Margin, p.Width-p.Margin),
			Y: clamp(pos.Y, p.Margin, p.Height-p.Margin),
		}
	}
}

// forceLocked sums the centring, repulsion and spring forces acting on node i.
func (e *Engine) forceLocked(i int) Vec2 {
	p := e.params
	pos := e.nodes[i].Position
	var f Vec2

	toCenter := p.center().Sub(pos)
	if d := toCenter.Len(); d > 0 {
		f = f.Add(toCenter.Scale(p.CenterForce / d))
	}

	for j := range e.nodes {
		if j == i {
			continue
		}
		delta := e.nodes[j].Position.Sub(pos)
		d := delta.Len()
		if d == 0 {
			continue
		}
		dist := math.Max(d, 1)
		f = f.Sub(delta.Scale(p.Repulsion / (dist * dist) / d))
	}

	for _, j := range e.adj[i] {
		delta := e.nodes[j].Position.Sub(pos)
		d := delta.Len()
		if d == 0 {
			continue
		}
		f = f.Add(delta.Scale((d - p.RestLength) * p.Spring / d))
	}
	return f
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
