package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	artifactruntime "github.com/wippyai/artifact-runtime"
)

var resolveSymbol bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <artifact> <name>",
	Short: "Resolve a resource or symbol through an artifact's region",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt := newRuntime()
		defer rt.Close(ctx)

		for _, e := range multierr.Errors(rt.DeployAll(ctx)) {
			logger.Warn("deployment failed", zap.Error(e))
		}
		out, err := resolve(ctx, rt, args[0], args[1], resolveSymbol)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVarP(&resolveSymbol, "symbol", "s", false, "load name as a wasm symbol instead of a resource")
}

// resolve renders the outcome of one lookup.
func resolve(ctx context.Context, rt *artifactruntime.Runtime, artifact, name string, symbol bool) (string, error) {
	var b strings.Builder
	if symbol {
		sym, err := rt.LoadSymbol(ctx, artifact, name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "symbol   %s\n", sym.Name)
		fmt.Fprintf(&b, "unit     %s\n", sym.Location.Unit().ID())
		fmt.Fprintf(&b, "location %s\n", sym.Location)
		fmt.Fprintf(&b, "exports  %s\n", strings.Join(sym.Exports(), ", "))
		return b.String(), nil
	}

	loc, err := rt.FindResource(artifact, name)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "resource %s\n", name)
	fmt.Fprintf(&b, "unit     %s\n", loc.Unit().ID())
	fmt.Fprintf(&b, "location %s\n", loc)
	return b.String(), nil
}
