package expression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "1", Stringify(true))
	assert.Equal(t, "", Stringify(false))
	assert.Equal(t, "1.5", Stringify(1.5))
	assert.Equal(t, "42", Stringify(42))
	assert.Equal(t, "<b>", Stringify(HTML("<b>")))
	assert.Equal(t, "boom", Stringify(errors.New("boom")))
	assert.Equal(t, "[1 2]", Stringify([]int{1, 2}))
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{nil, false, 0, 0.0, "", "0", []int{}, map[string]any{}} {
		assert.False(t, Truthy(v), "%#v", v)
	}
	for _, v := range []any{true, 1, -1, 0.1, "a", "00", []int{0}, struct{}{}} {
		assert.True(t, Truthy(v), "%#v", v)
	}
}

func TestLooseEqual(t *testing.T) {
	assert.True(t, LooseEqual(1, "1"))
	assert.True(t, LooseEqual(1.0, 1))
	assert.True(t, LooseEqual("a", "a"))
	assert.False(t, LooseEqual("a", "b"))
	assert.True(t, LooseEqual(true, "yes"))
	assert.False(t, LooseEqual(false, "yes"))
}

func TestEach(t *testing.T) {
	var keys, values []any
	collect := func(k, v any) bool {
		keys = append(keys, k)
		values = append(values, v)
		return true
	}

	require.NoError(t, Each(map[string]int{"b": 2, "a": 1}, collect))
	assert.Equal(t, []any{"a", "b"}, keys)
	assert.Equal(t, []any{1, 2}, values)

	keys, values = nil, nil
	require.NoError(t, Each([]string{"x", "y"}, collect))
	assert.Equal(t, []any{0, 1}, keys)

	keys, values = nil, nil
	require.NoError(t, Each(nil, collect))
	assert.Empty(t, keys)

	count := 0
	require.NoError(t, Each([]int{1, 2, 3}, func(_, _ any) bool {
		count++
		return count < 2
	}))
	assert.Equal(t, 2, count)

	assert.Error(t, Each("abc", collect))
}

func TestLen(t *testing.T) {
	n, ok := Len([]int{1, 2})
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = Len(func(yield func(int) bool) {})
	assert.False(t, ok)
}

func TestArith(t *testing.T) {
	out, err := Arith('+', 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	out, err = Arith('/', 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.5, out)

	out, err = Arith('.', "a", 1)
	require.NoError(t, err)
	assert.Equal(t, "a1", out)

	out, err = Arith('*', 1.5, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)

	_, err = Arith('/', 1, 0)
	assert.Error(t, err)
}

func TestIterable(t *testing.T) {
	for _, v := range []any{nil, []int{}, [2]int{}, map[string]int{}, 3, func(yield func(int) bool) {}} {
		assert.True(t, Iterable(v), "%#v", v)
	}
	for _, v := range []any{"abc", 1.5, struct{}{}} {
		assert.False(t, Iterable(v), "%#v", v)
	}
}
