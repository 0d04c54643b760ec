package layout

import "math"

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// EdgeKind distinguishes semantic links from inferred sequential links.
type EdgeKind string

const (
	// EdgeSemantic connects a note to the prior note it was found similar to.
	EdgeSemantic EdgeKind = "semantic"
	// EdgeSequential connects insertion-adjacent notes that have no semantic edge.
	EdgeSequential EdgeKind = "sequential"
)

// Node is a graph node as seen by the renderer.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Position Vec2   `json:"position"`
	Velocity Vec2   `json:"velocity"`
}

// Edge connects two nodes. Direction is informational; forces act on both endpoints.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Snapshot is a read-only copy of the layout state.
type Snapshot struct {
	Tick   uint64  `json:"tick"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
}

type pairKey struct{ a, b string }

// newPairKey orders the ids so (x, y) and (y, x) map to the same key.
func newPairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}
