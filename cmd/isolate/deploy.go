package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	artifactruntime "github.com/wippyai/artifact-runtime"
	"github.com/wippyai/artifact-runtime/deploy"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy every descriptor under the root and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt := newRuntime()
		defer rt.Close(ctx)

		err := rt.DeployAll(ctx)
		for _, e := range multierr.Errors(err) {
			logger.Error("deployment failed", zap.Error(e))
		}
		printArtifacts(cmd.OutOrStdout(), rt)
		if err != nil {
			return fmt.Errorf("%d artifact(s) failed to deploy", len(multierr.Errors(err)))
		}
		return nil
	},
}

// artifactRow is one deployed artifact as shown by deploy and inspect.
type artifactRow struct {
	name   string
	kind   string
	state  deploy.RunState
	domain string
	region string
}

func artifactRows(rt *artifactruntime.Runtime) []artifactRow {
	svc := rt.Service()
	var rows []artifactRow
	for _, d := range svc.Domains() {
		row := artifactRow{name: d.Name(), kind: "domain", state: d.State()}
		if r := d.Region(); r != nil {
			row.region = r.ID().String()
		}
		rows = append(rows, row)
	}
	for _, a := range svc.Applications() {
		row := artifactRow{name: a.Name(), kind: "application", state: a.State(), domain: a.DomainName()}
		if r := a.Region(); r != nil {
			row.region = r.ID().String()
		}
		rows = append(rows, row)
	}
	return rows
}

func printArtifacts(out io.Writer, rt *artifactruntime.Runtime) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSTATE\tDOMAIN\tREGION")
	for _, r := range artifactRows(rt) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.name, r.kind, r.state, dash(r.domain), dash(r.region))
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
