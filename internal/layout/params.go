package layout

import "fmt"

// Params holds canvas geometry and force constants for the simulation.
type Params struct {
	Width       float64 `yaml:"width" json:"width"`
	Height      float64 `yaml:"height" json:"height"`
	Radius      float64 `yaml:"radius" json:"radius"`             // initial placement circle
	Margin      float64 `yaml:"margin" json:"margin"`             // positions are clamped this far inside the canvas
	CenterForce float64 `yaml:"center_force" json:"center_force"` // magnitude of the pull toward the centre
	Repulsion   float64 `yaml:"repulsion" json:"repulsion"`       // k_r in k_r / d^2
	Spring      float64 `yaml:"spring" json:"spring"`             // k_s in (d - rest) * k_s
	RestLength  float64 `yaml:"rest_length" json:"rest_length"`
	Damping     float64 `yaml:"damping" json:"damping"`
	LabelLength int     `yaml:"label_length" json:"label_length"` // label length in runes
}

// DefaultParams returns the default tuning: 600x600 canvas, radius 150, margin 40,
// centring 0.1, repulsion 500, spring 0.01, rest length 100, damping 0.9.
func DefaultParams() Params {
	return Params{
		Width:       600,
		Height:      600,
		Radius:      150,
		Margin:      40,
		CenterForce: 0.1,
		Repulsion:   500,
		Spring:      0.01,
		RestLength:  100,
		Damping:     0.9,
		LabelLength: 30,
	}
}

// Validate reports parameters that would make the simulation degenerate.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %gx%g", p.Width, p.Height)
	}
	if 2*p.Margin >= p.Width || 2*p.Margin >= p.Height {
		return fmt.Errorf("margin %g leaves no room on a %gx%g canvas", p.Margin, p.Width, p.Height)
	}
	if p.Damping < 0 || p.Damping >= 1 {
		return fmt.Errorf("damping must be in [0, 1), got %g", p.Damping)
	}
	if p.LabelLength <= 0 {
		return fmt.Errorf("label length must be positive, got %d", p.LabelLength)
	}
	return nil
}

func (p Params) center() Vec2 {
	return Vec2{X: p.Width / 2, Y: p.Height / 2}
}
