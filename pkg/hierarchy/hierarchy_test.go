package hierarchy

import (
	"math"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
)

const tol = 1e-9

func riskRows() []dataset.Row {
	return []dataset.Row{
		{"rei": "Diet", "location": "Texas", "sex": "Male", "val": "10"},
		{"rei": "Diet", "location": "Texas", "sex": "Female", "val": "5"},
		{"rei": "Diet", "location": "Ohio", "sex": "Male", "val": "5"},
		{"rei": "Tobacco", "location": "Texas", "sex": "Male", "val": "20"},
		{"rei": "Alcohol", "location": "Ohio", "sex": "Female", "val": "0"},
	}
}

func TestAggregateSumsBucket(t *testing.T) {
	rows := []dataset.Row{
		{"rei": "Diet", "age": "25-34", "val": "10"},
		{"rei": "Diet", "age": "25-34", "val": "15"},
	}

	root, err := Aggregate(rows, []string{"rei", "age"}, "val", Options{})
	require.NoError(t, err)

	leaves := root.Leaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, 25.0, leaves[0].Value)
	assert.Equal(t, []string{"Diet", "25-34"}, leaves[0].Path())
	assert.Equal(t, 2, leaves[0].Rows)
	assert.Equal(t, 25.0, root.Value)
}

func TestAggregateStructure(t *testing.T) {
	root, err := Aggregate(riskRows(), []string{"rei", "location", "sex"}, "val", Options{})
	require.NoError(t, err)

	assert.Equal(t, "", root.Key)
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 3, root.Height)
	assert.Equal(t, 40.0, root.Value)
	assert.Equal(t, 5, root.Rows)

	var keys []string
	for _, c := range root.Children {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"Diet", "Tobacco", "Alcohol"}, keys, "first-seen order")

	diet := root.Find("Diet")
	require.NotNil(t, diet)
	assert.Equal(t, 20.0, diet.Value)
	assert.Equal(t, 1, diet.Depth)
	assert.Equal(t, 2, diet.Height)

	texas := root.Find("Diet", "Texas")
	require.NotNil(t, texas)
	assert.Equal(t, 15.0, texas.Value)
	assert.Same(t, diet, texas.Parent)

	assert.Nil(t, root.Find("Diet", "Nevada"))
}

func TestAggregateInternalValuesEqualLeafSums(t *testing.T) {
	root, err := Aggregate(randomRows(200, 7), []string{"a", "b", "c"}, "val", Options{})
	require.NoError(t, err)

	root.Walk(func(n *Node) bool {
		if n.IsLeaf() {
			return true
		}
		var sum float64
		for _, l := range n.Leaves() {
			sum += l.Value
		}
		assert.InDelta(t, sum, n.Value, tol, "node %v", n.Path())
		return true
	})
}

func TestAggregateRootEqualsMeasureSum(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		rows := randomRows(100, seed)
		root, err := Aggregate(rows, []string{"a", "b"}, "val", Options{})
		require.NoError(t, err)

		var want float64
		coerced := 0
		for _, r := range rows {
			v, ok := r.Number("val")
			if !ok {
				coerced++
			}
			want += v
		}
		assert.InDelta(t, want, root.Value, tol)
		assert.Equal(t, coerced, root.Coerced)
	}
}

func TestAggregateCoercion(t *testing.T) {
	rows := []dataset.Row{
		{"rei": "Diet", "val": "10"},
		{"rei": "Diet", "val": "n/a"},
		{"rei": "Diet"},
		{"rei": "Diet", "val": " 2.5 "},
	}

	root, err := Aggregate(rows, []string{"rei"}, "val", Options{})
	require.NoError(t, err)
	assert.Equal(t, 12.5, root.Value)
	assert.Equal(t, 2, root.Coerced)
	assert.Equal(t, 4, root.Rows)

	_, err = Aggregate(rows, []string{"rei"}, "val", Options{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedMeasure), "got %v", err)
	assert.Equal(t, errors.StageAggregate, errors.StageOf(err))
}

func TestAggregateMissingKeyGroupsUnderEmpty(t *testing.T) {
	rows := []dataset.Row{
		{"rei": "Diet", "val": "1"},
		{"val": "2"},
	}
	root, err := Aggregate(rows, []string{"rei"}, "val", Options{})
	require.NoError(t, err)

	blank := root.Child("")
	require.NotNil(t, blank)
	assert.Equal(t, 2.0, blank.Value)
}

func TestAggregateErrors(t *testing.T) {
	tests := []struct {
		name    string
		rows    []dataset.Row
		keyPath []string
		measure string
		code    errors.Code
	}{
		{"no rows", nil, []string{"rei"}, "val", errors.ErrCodeEmptyDataset},
		{"empty key path", riskRows(), nil, "val", errors.ErrCodeInvalidInput},
		{"empty measure", riskRows(), []string{"rei"}, "", errors.ErrCodeInvalidInput},
		{"blank key field", riskRows(), []string{" "}, "val", errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.rows, tt.keyPath, tt.measure, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
			assert.Equal(t, errors.StageAggregate, errors.StageOf(err))
		})
	}
}

func TestSortByValue(t *testing.T) {
	rows := []dataset.Row{
		{"k": "a", "val": "1"},
		{"k": "b", "val": "3"},
		{"k": "c", "val": "1"},
		{"k": "d", "val": "2"},
	}
	root, err := Aggregate(rows, []string{"k"}, "val", Options{})
	require.NoError(t, err)

	SortByValue(root)

	var keys []string
	for _, c := range root.Children {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, keys)
}

func TestPartitionRoot(t *testing.T) {
	root, _ := Aggregate(riskRows(), []string{"rei", "location", "sex"}, "val", Options{})
	arc := Partition(root)

	assert.Equal(t, Frame{X0: 0, X1: FullCircle, Y0: 0, Y1: 1}, arc.Frame)
	assert.Equal(t, arc.Frame, arc.Current)
}

func TestPartitionSpans(t *testing.T) {
	root, err := Aggregate(randomRows(300, 42), []string{"a", "b", "c"}, "val", Options{})
	require.NoError(t, err)
	arc := Partition(root)

	for _, a := range arc.Descendants() {
		assert.Equal(t, float64(a.Depth()), a.Frame.Y0)
		assert.Equal(t, float64(a.Depth()+1), a.Frame.Y1)
		assert.LessOrEqual(t, a.Frame.Y1, float64(root.Height+1))

		if len(a.Children) == 0 {
			continue
		}
		spans := make([]float64, len(a.Children))
		for i, c := range a.Children {
			spans[i] = c.Frame.Span()
			assert.GreaterOrEqual(t, c.Frame.X0, a.Frame.X0-tol)
			assert.LessOrEqual(t, c.Frame.X1, a.Frame.X1+tol)
			if i > 0 {
				assert.Equal(t, a.Children[i-1].Frame.X1, c.Frame.X0, "siblings must be contiguous")
			}
		}
		if a.Value() > 0 {
			assert.True(t, floats.EqualWithinAbs(floats.Sum(spans), a.Frame.Span(), tol),
				"children of %q span %v, parent %v", a.Title(), floats.Sum(spans), a.Frame.Span())
			assert.Equal(t, a.Frame.X1, a.Children[len(a.Children)-1].Frame.X1)
		}
	}
}

func TestPartitionProportional(t *testing.T) {
	root, _ := Aggregate(riskRows(), []string{"rei"}, "val", Options{})
	arc := Partition(root)

	diet, tobacco, alcohol := arc.Find("Diet"), arc.Find("Tobacco"), arc.Find("Alcohol")
	require.NotNil(t, diet)
	assert.InDelta(t, math.Pi, diet.Frame.Span(), tol)
	assert.InDelta(t, math.Pi, tobacco.Frame.Span(), tol)
	assert.Equal(t, 0.0, alcohol.Frame.Span(), "zero value gets zero span")
	assert.Equal(t, FullCircle, alcohol.Frame.X0)
}

func TestPartitionZeroTotal(t *testing.T) {
	rows := []dataset.Row{
		{"a": "x", "b": "1", "val": "0"},
		{"a": "x", "b": "2", "val": "0"},
		{"a": "y", "b": "1", "val": "4"},
	}
	root, _ := Aggregate(rows, []string{"a", "b"}, "val", Options{})
	arc := Partition(root)

	x := arc.Find("x")
	require.NotNil(t, x)
	assert.Equal(t, 0.0, x.Frame.Span())
	for _, c := range x.Children {
		assert.Equal(t, x.Frame.X0, c.Frame.X0)
		assert.Equal(t, x.Frame.X0, c.Frame.X1)
	}
	assert.InDelta(t, FullCircle, arc.Find("y").Frame.Span(), tol)
}

func TestReframeIdentity(t *testing.T) {
	root, _ := Aggregate(randomRows(150, 3), []string{"a", "b", "c"}, "val", Options{})
	arc := Partition(root)

	require.NoError(t, Reframe(arc, arc))
	for _, a := range arc.Descendants() {
		assert.InDelta(t, a.Frame.X0, a.Current.X0, tol)
		assert.InDelta(t, a.Frame.X1, a.Current.X1, tol)
		assert.Equal(t, a.Frame.Y0, a.Current.Y0)
		assert.Equal(t, a.Frame.Y1, a.Current.Y1)
	}
}

func TestReframeFocus(t *testing.T) {
	root, _ := Aggregate(riskRows(), []string{"rei", "location", "sex"}, "val", Options{})
	arc := Partition(root)
	diet := arc.Find("Diet")

	require.NoError(t, Reframe(arc, diet))

	assert.InDelta(t, 0, diet.Current.X0, tol)
	assert.InDelta(t, FullCircle, diet.Current.X1, tol)
	assert.Equal(t, 0.0, diet.Current.Y0)
	assert.Equal(t, 1.0, diet.Current.Y1)

	tobacco := arc.Find("Tobacco")
	assert.Equal(t, 0.0, tobacco.Current.Span(), "siblings collapse")
	assert.False(t, tobacco.Current.Visible(3))

	assert.Equal(t, Frame{X0: 0, X1: FullCircle, Y0: 0, Y1: 0}, arc.Current, "ancestors collapse to depth 0")

	texas := arc.Find("Diet", "Texas")
	assert.InDelta(t, 0, texas.Current.X0, tol)
	assert.InDelta(t, FullCircle*15/20, texas.Current.X1, tol)
	assert.Equal(t, 1.0, texas.Current.Y0)
	assert.True(t, texas.Current.Visible(3))

	// base layout is untouched and the transform is re-derivable
	before := texas.Current
	require.NoError(t, Reframe(arc, diet))
	assert.Equal(t, before, texas.Current)
	assert.InDelta(t, math.Pi*15/40*2, texas.Frame.Span(), tol)

	require.NoError(t, Reframe(arc, arc))
	assert.InDelta(t, texas.Frame.X1, texas.Current.X1, tol)
}

func TestReframeErrors(t *testing.T) {
	root, _ := Aggregate(riskRows(), []string{"rei"}, "val", Options{})
	arc := Partition(root)
	other := Partition(root)

	err := Reframe(arc, other.Find("Diet"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "foreign focus: %v", err)

	err = Reframe(arc, arc.Find("Alcohol"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "zero span: %v", err)

	assert.Error(t, Reframe(arc, nil))
}

func TestReset(t *testing.T) {
	root, _ := Aggregate(riskRows(), []string{"rei", "location"}, "val", Options{})
	arc := Partition(root)
	require.NoError(t, Reframe(arc, arc.Find("Diet")))

	Reset(arc)
	for _, a := range arc.Descendants() {
		assert.Equal(t, a.Frame, a.Current)
	}
}

func TestFrameVisibility(t *testing.T) {
	tests := []struct {
		name         string
		f            Frame
		visible      bool
		labelVisible bool
	}{
		{"first ring wide", Frame{X0: 0, X1: 1, Y0: 1, Y1: 2}, true, true},
		{"center disc", Frame{X0: 0, X1: FullCircle, Y0: 0, Y1: 1}, false, false},
		{"beyond rings", Frame{X0: 0, X1: 1, Y0: 3, Y1: 4}, false, false},
		{"zero width", Frame{X0: 1, X1: 1, Y0: 1, Y1: 2}, false, false},
		{"too thin for label", Frame{X0: 0, X1: 0.02, Y0: 2, Y1: 3}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, tt.f.Visible(3))
			assert.Equal(t, tt.labelVisible, tt.f.LabelVisible(3))
		})
	}
}

func TestArcNavigation(t *testing.T) {
	root, _ := Aggregate(riskRows(), []string{"rei", "location", "sex"}, "val", Options{})
	arc := Partition(root)

	male := arc.Find("Diet", "Texas", "Male")
	require.NotNil(t, male)
	assert.Equal(t, []string{"Diet", "Texas", "Male"}, male.Path())
	assert.Equal(t, "Diet/Texas/Male", male.Title())
	assert.Same(t, arc, male.Root())
	assert.Equal(t, "", arc.Title())

	all := arc.Descendants()
	assert.Same(t, arc, all[0])
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Depth(), all[i].Depth(), "breadth-first order")
	}
	count := 0
	root.Walk(func(*Node) bool { count++; return true })
	assert.Len(t, all, count)
}

func randomRows(n int, seed uint64) []dataset.Row {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b9))
	rows := make([]dataset.Row, n)
	for i := range rows {
		val := strconv.FormatFloat(r.Float64()*100, 'f', 3, 64)
		if r.IntN(10) == 0 {
			val = "NaN"
		}
		rows[i] = dataset.Row{
			"a":   "a" + strconv.Itoa(r.IntN(4)),
			"b":   "b" + strconv.Itoa(r.IntN(5)),
			"c":   "c" + strconv.Itoa(r.IntN(3)),
			"val": val,
		}
	}
	return rows
}

func TestLink(t *testing.T) {
	root := &Node{Children: []*Node{
		{Key: "Diet", Children: []*Node{
			{Key: "Texas", Value: 3, Rows: 1},
			{Key: "Ohio", Value: 2, Rows: 2},
		}},
		{Key: "Tobacco", Value: 4, Rows: 1},
	}}

	Link(root)

	assert.Equal(t, 9.0, root.Value)
	assert.Equal(t, 4, root.Rows)
	assert.Equal(t, 2, root.Height)
	ohio := root.Find("Diet", "Ohio")
	require.NotNil(t, ohio)
	assert.Equal(t, 2, ohio.Depth)
	assert.Equal(t, []string{"Diet", "Ohio"}, ohio.Path())
	assert.Equal(t, 5.0, ohio.Parent.Value)
}

func TestJoinSplitPath(t *testing.T) {
	tests := []struct {
		path string
		keys []string
	}{
		{"", nil},
		{"/", nil},
		{"Texas", []string{"Texas"}},
		{"Texas/2019", []string{"Texas", "2019"}},
		{"/Texas/2019/", []string{"Texas", "2019"}},
		{`Texas/18\/24`, []string{"Texas", "18/24"}},
		{`a\\b/c`, []string{`a\b`, "c"}},
		{"Texas//Male", []string{"Texas", "", "Male"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.keys, SplitPath(tt.path), "SplitPath(%q)", tt.path)
	}

	for _, keys := range [][]string{
		{"Texas", "2019"},
		{"18/24", `a\b`, "/"},
	} {
		assert.Equal(t, keys, SplitPath(JoinPath(keys)), "round trip %q", keys)
	}
	assert.Equal(t, `Texas/18\/24`, JoinPath([]string{"Texas", "18/24"}))
}

func TestArcTitleWithSlashKey(t *testing.T) {
	rows := []dataset.Row{
		{"state": "Texas", "age": "18/24", "val": "3"},
		{"state": "Texas", "age": "25/34", "val": "1"},
	}
	root, err := Aggregate(rows, []string{"state", "age"}, "val", Options{})
	require.NoError(t, err)
	arcs := Partition(root)

	young := arcs.Find("Texas", "18/24")
	require.NotNil(t, young)
	assert.Equal(t, `Texas/18\/24`, young.Title())
	assert.Same(t, young, arcs.Find(SplitPath(young.Title())...))
}
