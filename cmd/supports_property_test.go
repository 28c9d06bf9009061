//go:build property

package cmd

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSupportsProperties validates the capability query
func TestSupportsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: every renderer except the reserved name is supported
	properties.Property("all other renderers are supported", prop.ForAll(
		func(renderer string) bool {
			if renderer == unsupportedRenderer {
				return !Supports(renderer)
			}
			return Supports(renderer)
		},
		gen.OneGenOf(gen.AnyString(), gen.Const(unsupportedRenderer)),
	))

	properties.TestingRun(t)
}
