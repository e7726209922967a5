package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGroup(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		start int
		want  int
	}{
		{"simple", "(a)", 0, 3},
		{"nested", "(count(f(x)) > 1) rest", 0, 17},
		{"quoted closer", "('a)b') tail", 0, 7},
		{"escaped quote", `("a\")") x`, 0, 8},
		{"brackets", "([1, (2)], {3})", 0, 15},
		{"offset", "@if(x)", 3, 6},
		{"unterminated", "(a (b)", 0, -1},
		{"not an opener", "abc", 0, -1},
		{"out of range", "(", 5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchGroup(tt.text, tt.start))
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		sep  rune
		want []string
	}{
		{"empty", "  ", ',', nil},
		{"positional", "'a', $b ,3", ',', []string{"'a'", "$b", "3"}},
		{"nested groups", "f(1, 2), [3, 4], {5: 6}", ',', []string{"f(1, 2)", "[3, 4]", "{5: 6}"}},
		{"quoted separator", `"a,b", 'c,d', ¬e,f¬`, ',', []string{`"a,b"`, `'c,d'`, `¬e,f¬`}},
		{"semicolons", "$i = 0; $i < 3; $i++", ';', []string{"$i = 0", "$i < 3", "$i++"}},
		{"trailing unterminated", "a, 'b, c", ',', []string{"a", "'b, c"}},
		{"trailing empty", "a,", ',', []string{"a", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.sep))
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("keyed values", func(t *testing.T) {
		got := Parse(`type="submit" class='btn a=b' disabled`, ' ', '=', true)
		assert.Equal(t, []Arg{
			{Key: "type", Value: `"submit"`},
			{Key: "class", Value: `'btn a=b'`},
			{Key: "disabled", Bare: true},
		}, got)
	})

	t.Run("quoted fragment is a value", func(t *testing.T) {
		got := Parse(`'a=b', c=d, e`, ',', '=', false)
		assert.Equal(t, []Arg{
			{Value: `'a=b'`},
			{Key: "c", Value: "d"},
			{Value: "e"},
		}, got)
	})

	t.Run("quoted fragment with emptyKey", func(t *testing.T) {
		got := Parse(`"x"`, ',', '=', true)
		assert.Equal(t, []Arg{{Key: `"x"`, Bare: true}}, got)
	})

	t.Run("assign inside group", func(t *testing.T) {
		got := Parse(`f(a=1)=2`, ',', '=', false)
		assert.Equal(t, []Arg{{Key: "f(a=1)", Value: "2"}}, got)
	})
}

func TestQuotes(t *testing.T) {
	assert.True(t, IsQuoted(`'abc'`))
	assert.True(t, IsQuoted(`"a\"b"`))
	assert.False(t, IsQuoted(`'a' . 'b'`))
	assert.False(t, IsQuoted(`'`))
	assert.Equal(t, "abc", StripQuotes(` 'abc' `))
	assert.Equal(t, "é", StripQuotes("¬é¬"))
	assert.Equal(t, "$x", StripQuotes("$x"))
	assert.Equal(t, 5, MatchQuote(`'a\'' x`, 0))
	assert.Equal(t, -1, MatchQuote(`x`, 0))
}

func TestStripParens(t *testing.T) {
	assert.Equal(t, "'a', 1", StripParens(" ('a', 1) "))
	assert.Equal(t, "x", StripParens("x"))
	assert.Equal(t, "", StripParens("()"))
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 5, Index("'a:b':c", ':'))
	assert.Equal(t, -1, Index("f(a:b)", ':'))
}
