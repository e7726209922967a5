package blade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstr(t *testing.T) {
	tests := []struct {
		start  int
		length []int
		want   string
	}{
		{0, nil, "héllo"},
		{1, []int{3}, "éll"},
		{-3, nil, "llo"},
		{1, []int{-1}, "éll"},
		{10, nil, ""},
		{-10, []int{2}, "hé"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, substr("héllo", tt.start, tt.length...))
	}
}

func TestNumberFormat(t *testing.T) {
	tests := []struct {
		in   any
		opts []any
		want string
	}{
		{1234567.891, nil, "1,234,568"},
		{1234567.891, []any{2}, "1,234,567.89"},
		{"1234.5", []any{2, ",", "."}, "1.234,50"},
		{-0.001, []any{2}, "0.00"},
		{-1500, nil, "-1,500"},
		{12, []any{1, ".", ""}, "12.0"},
	}
	for _, tt := range tests {
		out, err := numberFormat(tt.in, tt.opts...)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out, tt.in)
	}
}

func TestDefaultFuncs(t *testing.T) {
	e := newTestEngine(nil)
	data := map[string]any{
		"items": []string{"a", "b", "c"},
		"text":  "Hello World",
		"bio":   `<p onclick="x()">hi</p><script>bad()</script>`,
	}
	tests := []struct {
		src  string
		want string
	}{
		{"{{ count($items) }}", "3"},
		{"{{ implode(', ', $items) }}", "a, b, c"},
		{"{{ count(explode('-', 'a-b')) }}", "2"},
		{"{{ in_array('b', $items) ? 'yes' : 'no' }}", "yes"},
		{"{{ strtoupper($text) }}", "HELLO WORLD"},
		{"{{ ucfirst('abc') }}", "Abc"},
		{"{{ slug($text) }}", "hello-world"},
		{"{!! sanitize($bio) !!}", "<p>hi</p>"},
		{"{{ sanitize($bio) }}", "<p>hi</p>"},
		{"{{ str_replace('World', 'Go', $text) }}", "Hello Go"},
		{"{{ strlen($text) }}", "11"},
		{"{{ md5('a') }}", "0cc175b9c0f1b6a831c399e269772661"},
		{"{{ number_format(1234.5, 1) }}", "1,234.5"},
		{"{!! nl2br(\"a\\nb\") !!}", "a<br />\nb"},
		{"{{ json_encode([1, 2]) }}", "[1,2]"},
		{"{{ format('%03d', 7) }}", "007"},
		{"{{ e('<a>') }}", "&lt;a&gt;"},
		{"{{ empty($items) ? 'empty' : 'full' }}", "full"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderString(t, e, tt.src, data), tt.src)
	}
}

func TestCountInConditions(t *testing.T) {
	e := newTestEngine(nil)
	src := "@if(count($items) > 1)[many]@else[few]@endif"
	assert.Equal(t, "[many]", renderString(t, e, src, map[string]any{"items": []int{1, 2}}))
	assert.Equal(t, "[few]", renderString(t, e, src, map[string]any{"items": []int{1}}))
	assert.Equal(t, "[few]", renderString(t, e, src, nil))
	assert.Equal(t, "x", renderString(t, e, "{{ trim('  x ') }}", nil))
}

func TestVariablesAndFunctionsAreSeparate(t *testing.T) {
	e := newTestEngine(nil)
	tests := []struct {
		src  string
		data map[string]any
		want string
	}{
		{"<title>{{ $title ?? 'Default' }}</title>", nil, "<title>Default</title>"},
		{"<title>{{ $title ?? 'Default' }}</title>", map[string]any{"title": "Home"}, "<title>Home</title>"},
		{"[@isset($title)<set>@endisset]", nil, "[]"},
		{"[@isset($slug)<set>@endisset]", map[string]any{"slug": "a-b"}, "[<set>]"},
		{"{{ $format or 'x' }}", nil, "x"},
		{"{{ $count + 1 }}", map[string]any{"count": 2}, "3"},
		{"{{ $first->name }}", map[string]any{"first": map[string]any{"name": "ann"}}, "ann"},
		{"{{ title($title) }}", map[string]any{"title": "go blade"}, "Go Blade"},
		{"{{ $double(2) }}", map[string]any{"double": func(n int) int { return n * 2 }}, "4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderString(t, e, tt.src, tt.data), tt.src)
	}

	_, err := e.RenderString("{{ nope(1) }}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined function nope()")
}

func TestCustomFunc(t *testing.T) {
	e := newTestEngine(nil)
	e.Func("double", func(n int) int { return n * 2 })
	assert.Equal(t, "8", renderString(t, e, "{{ double(4) }}", nil))

	e.Func("upper", func(v string) string { return "<" + v + ">" })
	assert.Equal(t, "&lt;x&gt;", renderString(t, e, "{{ upper('x') }}", nil))
}

func TestCustomEscaper(t *testing.T) {
	e := newTestEngine(nil)
	e.SetEscaper(func(s string) string { return "[" + s + "]" })
	assert.Equal(t, "[x]", renderString(t, e, "{{ 'x' }}", nil))
}
