// Package layout places video instances in a single horizontal row and
// builds the per-tick aspect-corrected transform for each of them.
//
// Placements depend only on the number of videos and are computed once.
// The aspect correction depends only on the window size and is recomputed
// every tick, so a resize never moves or rescales a placement.
package layout

// Placement is the static position of one instance in normalized device
// coordinates. Offset.X runs from -1 (leftmost) to +1 (rightmost).
type Placement struct {
	Offset Point
	Scale  float64
}

// Layout returns the placements for n instances in left-to-right order.
// Instance i gets x = -1 + 2i/(n-1), y = 0 and scale 1/n. A single instance
// is centered at the origin with scale 1. n <= 0 yields nil.
func Layout(n int) []Placement {
	if n <= 0 {
		return nil
	}
	scale := 1 / float64(n)
	out := make([]Placement, n)
	for i := range out {
		x := 0.0
		if n > 1 {
			x = -1 + 2*float64(i)/float64(n-1)
		}
		out[i] = Placement{Offset: Point{X: x}, Scale: scale}
	}
	return out
}

// AspectCorrection returns the window aspect correction: the y axis is
// stretched by width/height so a unit square stays square on screen.
// A degenerate size yields the identity.
func AspectCorrection(width, height int) Matrix {
	if width <= 0 || height <= 0 {
		return Identity()
	}
	return Scale(1, float64(width)/float64(height))
}

// ContentScale returns the y factor that keeps a width x height frame at its
// own aspect ratio inside a square cell. A degenerate size yields 1.
func ContentScale(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float64(height) / float64(width)
}

// Model returns the static part of an instance transform. The quad is
// scaled to the placement scale and its center moved to
// Offset * (1 - Scale), which tiles the row edge to edge across [-1, 1].
// contentY multiplies the y scale; pass 1 to fill the cell.
func (p Placement) Model(contentY float64) Matrix {
	s := p.Scale
	return Translate(p.Offset.X*(1-s), p.Offset.Y*(1-s)).Multiply(Scale(s, s*contentY))
}

// Compose folds the aspect correction into the placement: aspect * model.
// A square window needs no correction.
func Compose(p Placement, aspect Matrix, contentY float64) Matrix {
	model := p.Model(contentY)
	if aspect.IsIdentity() {
		return model
	}
	return aspect.Multiply(model)
}
