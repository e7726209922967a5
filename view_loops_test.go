package blade

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectFrames(t *testing.T, v *View, items []int) []LoopFrame {
	t.Helper()
	v.Set("items", items)
	seq, err := v.Foreach("items", "", "item")
	require.NoError(t, err)
	var frames []LoopFrame
	for l := range seq {
		frames = append(frames, *l)
	}
	return frames
}

func TestLoopFrameProperties(t *testing.T) {
	e := newTestEngine(nil)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("frames follow the iteration counters", prop.ForAll(
		func(n int) bool {
			frames := collectFrames(t, e.NewView(), make([]int, n))
			if len(frames) != n {
				return false
			}
			for i, f := range frames {
				ok := f.Index == i &&
					f.Iteration == i+1 &&
					f.Count == n &&
					f.Remaining == n-i-1 &&
					f.First == (i == 0) &&
					f.Last == (i == n-1) &&
					f.Even == (i%2 == 0) &&
					f.Odd == (i%2 == 1) &&
					f.Depth == 1 &&
					f.Parent == nil
				if !ok {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 40),
	))
	properties.TestingRun(t)
}

func TestLoopVariableRestored(t *testing.T) {
	e := newTestEngine(nil)
	v := e.NewView()
	collectFrames(t, v, []int{1, 2})
	assert.Nil(t, v.Loop())
	_, ok := v.Get("loop")
	assert.False(t, ok)
}

func TestUnsizedLoop(t *testing.T) {
	e := newTestEngine(nil)
	out := renderString(t, e,
		"@for($i = 0; $i < 2; $i++)[{{ $loop->iteration }}{{ $loop->count ?? '?' }}]@endfor", nil)
	assert.Equal(t, "[1?][2?]", out)
}

func TestLoopMap(t *testing.T) {
	var l *LoopFrame
	assert.Nil(t, l.Map())

	parent := &LoopFrame{Index: 1, Iteration: 2, Sized: true, Count: 3, Remaining: 1}
	child := &LoopFrame{Depth: 2, Parent: parent}
	m := child.Map()
	assert.Nil(t, m["count"])
	assert.Equal(t, 3, m["parent"].(map[string]any)["count"])
}

func TestForeachNonIterable(t *testing.T) {
	e := newTestEngine(nil)
	_, err := e.RenderString("@foreach($s as $c){{ $c }}@endforeach", map[string]any{"s": "abc"})
	assert.ErrorIs(t, err, ErrExpression)

	e.SetThrowOnError(false)
	out := renderString(t, e, "@foreach($s as $c){{ $c }}@endforeach", map[string]any{"s": "abc"})
	assert.Contains(t, out, "View Error [Foreach]")
}

func TestStackOrderProperty(t *testing.T) {
	e := newTestEngine(nil)
	properties := gopter.NewProperties(nil)
	properties.Property("prepends come first, newest pass first; pushes follow in pass order", prop.ForAll(
		func(passes []int, prepends []bool) bool {
			v := e.NewView()
			n := min(len(passes), len(prepends))
			for i := range n {
				v.addFragment("s", passes[i], prepends[i], "x")
			}
			sorted := v.ordered("s")
			if len(sorted) != n || len(v.stack("s", "")) != n {
				return false
			}
			for i := 1; i < len(sorted); i++ {
				a, b := sorted[i-1], sorted[i]
				switch {
				case a.prepend != b.prepend:
					if !a.prepend {
						return false
					}
				case a.prepend:
					if a.pass < b.pass || a.pass == b.pass && a.seq < b.seq {
						return false
					}
				default:
					if a.pass > b.pass || a.pass == b.pass && a.seq > b.seq {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1, 4)),
		gen.SliceOf(gen.Bool()),
	))
	properties.TestingRun(t)
}
