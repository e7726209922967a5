package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$name", "name"},
		{" $user->name ", "user?.name"},
		{"$loop->parent->index", "loop?.parent?.index"},
		{"$a === $b", "a == b"},
		{"$a !== null", "a != nil"},
		{"['a' => 1, 'b' => $x]", "{'a': 1, 'b': x}"},
		{"[1, [2 => 3]]", "[1, {2: 3}]"},
		{"'$not ->a var'", "'$not ->a var'"},
		{`"it's $x"`, `"it's $x"`},
		{"isset($user)", "((user) != nil)"},
		{"isset($a, $b->c) && $d", "((a) != nil && (b?.c) != nil) && d"},
		{"$user.null", "user.null"},
		{"count($items) > 0", "count(items) > 0"},
		{"$", "$"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
