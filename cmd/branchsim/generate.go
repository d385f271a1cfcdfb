package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/branchsim/internal/http"
	"github.com/fyrsmithlabs/branchsim/internal/render"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		draw   bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one tree and print its statistics",
		Example: `  branchsim generate -n 40 -m 100 --print
  branchsim generate --json`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = a.run(false, func(cmd *cobra.Command, _ []string) error {
		settings := a.settings()
		root, err := a.engine.Generate(cmd.Context(), settings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, httpapi.NewTreeResponse(settings, root, draw))
		}
		if draw {
			fmt.Fprint(out, render.Tree(root))
			fmt.Fprint(out, render.Rolls(root, render.NewPalette(a.cfg.Display.Colour)))
		}
		fmt.Fprintln(out, render.TreeStats(tree.Measure(root)))
		return nil
	})
	cmd.Flags().BoolVar(&draw, "print", false, "draw the tree and its generation rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
