package args

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func fragmentGen() gopter.Gen {
	return gen.OneGenOf(
		gen.Identifier(),
		gen.Identifier().Map(func(s string) string { return "'" + s + ", x'" }),
		gen.Identifier().Map(func(s string) string { return s + "(" + s + ", [1, 2])" }),
		gen.Identifier().Map(func(s string) string { return "{" + s + ": (a, b)}" }),
	)
}

func TestSplitProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("split inverts join on top-level separators", prop.ForAll(
		func(parts []string) bool {
			if len(parts) == 0 {
				return true
			}
			got := Split(strings.Join(parts, ", "), ',')
			if len(got) != len(parts) {
				return false
			}
			for i := range parts {
				if got[i] != parts[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(fragmentGen()),
	))

	properties.Property("a group wrapped around any fragment list is matched whole", prop.ForAll(
		func(parts []string) bool {
			text := "(" + strings.Join(parts, ", ") + ") tail"
			return MatchGroup(text, 0) == len(text)-len(" tail")
		},
		gen.SliceOf(fragmentGen()),
	))

	properties.TestingRun(t)
}
