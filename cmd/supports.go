package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// unsupportedRenderer is the only renderer name the preprocessor rejects.
const unsupportedRenderer = "not-supported"

// ErrRendererNotSupported is returned by "supports" for a rejected renderer.
var ErrRendererNotSupported = errors.New("renderer not supported")

// supportsCmd answers mdBook's capability query
var supportsCmd = &cobra.Command{
	Use:   "supports <renderer>",
	Short: "Report whether a renderer is supported",
	Long: `mdBook runs "mdbook-wikilinks supports <renderer>" before a build and
only runs the preprocessor when the command exits with status 0.

Every renderer is supported except the literal name "not-supported".
With any other number of arguments the command behaves like the root
command and preprocesses standard input.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSupports,
}

func init() {
	rootCmd.AddCommand(supportsCmd)
}

// Supports reports whether the preprocessor runs for the given renderer.
func Supports(renderer string) bool {
	return renderer != unsupportedRenderer
}

func runSupports(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return runFilter(cmd, args)
	}

	if !Supports(args[0]) {
		return fmt.Errorf("%w: %s", ErrRendererNotSupported, args[0])
	}

	return nil
}
