package hierarchy

// Node is one group in an aggregated tree.
type Node struct {
	// Key is the grouping value at this level. The root's key is empty.
	Key string `json:"key" bson:"key"`

	// Value is the sum of the measure over every row in this subtree.
	Value float64 `json:"value" bson:"value"`

	Children []*Node `json:"children,omitempty" bson:"children,omitempty"`

	// Depth is 0 at the root. Height is the distance to the deepest leaf.
	Depth  int `json:"depth" bson:"depth"`
	Height int `json:"height" bson:"height"`

	// Rows counts the input rows aggregated under this node.
	Rows int `json:"rows" bson:"rows"`

	// Coerced counts measure cells treated as 0. Only set on the root.
	Coerced int `json:"coerced,omitempty" bson:"coerced,omitempty"`

	Parent *Node `json:"-" bson:"-"`

	index map[string]*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Path returns the keys from the root's first child down to n.
// The root's path is empty.
func (n *Node) Path() []string {
	var keys []string
	for p := n; p.Parent != nil; p = p.Parent {
		keys = append(keys, p.Key)
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// Child returns the direct child with the given key.
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// Find follows keys down from n. It returns nil when any step is missing.
func (n *Node) Find(keys ...string) *Node {
	cur := n
	for _, k := range keys {
		if cur = cur.Child(k); cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Leaves returns the leaf nodes under n in tree order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if x.IsLeaf() {
			out = append(out, x)
		}
		return true
	})
	return out
}

func (n *Node) child(key string) *Node {
	if c, ok := n.index[key]; ok {
		return c
	}
	if n.index == nil {
		n.index = make(map[string]*Node)
	}
	c := &Node{Key: key, Parent: n, Depth: n.Depth + 1}
	n.index[key] = c
	n.Children = append(n.Children, c)
	return c
}

// finish sums values bottom-up, sets heights and drops the build index.
func (n *Node) finish() {
	n.index = nil
	if n.IsLeaf() {
		n.Height = 0
		return
	}
	n.Value, n.Rows, n.Height = 0, 0, 0
	for _, c := range n.Children {
		c.finish()
		n.Value += c.Value
		n.Rows += c.Rows
		n.Height = max(n.Height, c.Height+1)
	}
}

// Link prepares a hand-built or decoded tree for layout: it sets parent
// pointers, depths and heights, and recomputes every internal value and row
// count from the leaves. Leaf values are kept.
func Link(root *Node) {
	root.Parent = nil
	root.Depth = 0
	link(root)
	root.finish()
}

func link(n *Node) {
	for _, c := range n.Children {
		c.Parent = n
		c.Depth = n.Depth + 1
		link(c)
	}
}
