package hierarchy

import (
	"github.com/matzehuels/healthviz/pkg/errors"
)

// Reframe zooms the layout rooted at root onto focus. For every arc:
//
//	x' = clamp((x - focus.X0) / (focus.X1 - focus.X0), 0, 1) * 2π
//	y' = max(0, y - focus.depth)
//
// The result is written to Arc.Current and computed from Arc.Frame only, so
// repeated calls with the same focus give the same result. Reframe(root,
// root) restores the base layout.
//
// Focus must belong to root's tree and have a non-zero span.
func Reframe(root, focus *Arc) error {
	if root == nil || focus == nil {
		return errors.New(errors.ErrCodeInvalidInput, "reframe needs a root and a focus").In(errors.StageAggregate)
	}
	if focus.Root() != root {
		return errors.New(errors.ErrCodeInvalidInput, "focus %q is not part of this layout", focus.Title()).In(errors.StageAggregate)
	}
	p := focus.Frame
	span := p.Span()
	if span <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "focus %q has zero span", focus.Title()).In(errors.StageAggregate)
	}

	depth := float64(focus.Depth())
	for _, a := range root.Descendants() {
		f := a.Frame
		a.Current = Frame{
			X0: clamp01((f.X0-p.X0)/span) * FullCircle,
			X1: clamp01((f.X1-p.X0)/span) * FullCircle,
			Y0: max(0, f.Y0-depth),
			Y1: max(0, f.Y1-depth),
		}
	}
	return nil
}

// Reset copies every arc's base frame into Current.
func Reset(root *Arc) {
	for _, a := range root.Descendants() {
		a.Current = a.Frame
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
