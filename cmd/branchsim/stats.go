package main

import (
	"fmt"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/branchsim/internal/http"
	"github.com/fyrsmithlabs/branchsim/internal/render"
)

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the leaf counts of a sample of trees",
		Example: `  branchsim stats --sample-size 10000
  branchsim stats -n 45 -m 100 --strategy secure --json`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = a.run(false, func(cmd *cobra.Command, _ []string) error {
		settings := a.settings()
		summary, err := a.engine.SampleStats(cmd.Context(), settings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, httpapi.NewStatsResponse(settings, summary))
		}
		fmt.Fprintf(out, "Generated %d samples:\n%s\n", settings.SampleSize, render.Summary(summary))
		return nil
	})
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
