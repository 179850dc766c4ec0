package hierarchy

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FullCircle is the angular extent assigned to the root.
const FullCircle = 2 * math.Pi

// Frame is an arc's position: angles X0..X1 in radians and rings Y0..Y1.
type Frame struct {
	X0 float64 `json:"x0" bson:"x0"`
	X1 float64 `json:"x1" bson:"x1"`
	Y0 float64 `json:"y0" bson:"y0"`
	Y1 float64 `json:"y1" bson:"y1"`
}

// Span is the angular width of f.
func (f Frame) Span() float64 { return f.X1 - f.X0 }

// Visible reports whether an arc in this frame is drawn when rings rings
// are shown around the center: it must sit outside the center disc, inside
// the outermost ring, and have non-zero width.
func (f Frame) Visible(rings int) bool {
	return f.Y1 <= float64(rings) && f.Y0 >= 1 && f.X1 > f.X0
}

// LabelVisible reports whether the arc is large enough to carry a label.
func (f Frame) LabelVisible(rings int) bool {
	return f.Y1 <= float64(rings) && f.Y0 >= 1 && (f.Y1-f.Y0)*(f.X1-f.X0) > 0.03
}

// Arc is a partitioned node.
type Arc struct {
	Node *Node

	// Frame is the layout computed by [Partition]; it never changes.
	Frame Frame

	// Current is the frame after the latest [Reframe].
	Current Frame

	Parent   *Arc
	Children []*Arc
}

// Partition lays out root as a sunburst. The root covers [0, 2π) and ring
// [0, 1]; every node at depth d gets ring [d, d+1]. Each node's interval is
// split among its children in proportion to their values, contiguously and in
// child order, with the last non-empty child ending exactly at the parent's
// end.
//
// Children with zero value get zero span. When all children of a node are
// zero they collapse onto the node's start angle. Negative values are laid
// out as zero.
func Partition(root *Node) *Arc {
	a := &Arc{Node: root}
	a.Frame = Frame{X0: 0, X1: FullCircle, Y0: float64(root.Depth), Y1: float64(root.Depth + 1)}
	a.Current = a.Frame
	layout(a)
	return a
}

func layout(a *Arc) {
	kids := a.Node.Children
	if len(kids) == 0 {
		return
	}

	weights := make([]float64, len(kids))
	last := -1
	for i, c := range kids {
		weights[i] = max(c.Value, 0)
		if weights[i] > 0 {
			last = i
		}
	}
	total := floats.Sum(weights)

	span := a.Frame.Span()
	x := a.Frame.X0
	a.Children = make([]*Arc, len(kids))
	for i, c := range kids {
		x1 := x
		switch {
		case i == last:
			x1 = a.Frame.X1
		case weights[i] > 0:
			x1 = x + span*weights[i]/total
		}
		child := &Arc{
			Node:   c,
			Parent: a,
			Frame:  Frame{X0: x, X1: x1, Y0: float64(c.Depth), Y1: float64(c.Depth + 1)},
		}
		child.Current = child.Frame
		a.Children[i] = child
		layout(child)
		x = x1
	}
}

// Depth is the arc's node depth.
func (a *Arc) Depth() int { return a.Node.Depth }

// Key is the arc's node key.
func (a *Arc) Key() string { return a.Node.Key }

// Value is the arc's node value.
func (a *Arc) Value() float64 { return a.Node.Value }

// Path returns the breadcrumb of keys from the first ring down to a.
func (a *Arc) Path() []string { return a.Node.Path() }

// Title joins the breadcrumb with "/", see JoinPath.
func (a *Arc) Title() string {
	return JoinPath(a.Path())
}

// Root walks up to the tree's root arc.
func (a *Arc) Root() *Arc {
	r := a
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Descendants returns a and every arc below it in breadth-first order.
func (a *Arc) Descendants() []*Arc {
	out := []*Arc{a}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].Children...)
	}
	return out
}

// Find follows keys down from a. It returns nil when any step is missing.
func (a *Arc) Find(keys ...string) *Arc {
	cur := a
	for _, k := range keys {
		var next *Arc
		for _, c := range cur.Children {
			if c.Node.Key == k {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
