package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/branchsim/internal/export"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

func newExportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write trees to CSV files",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "output directory (default export.dir from config)")

	outDir := func() string {
		if dir != "" {
			return dir
		}
		return a.cfg.Export.Dir
	}

	samples := &cobra.Command{
		Use:   "samples [name]",
		Short: "Generate a sample and write one row per tree",
		Long: `Generate sample-size trees and write one CSV row per tree.

The file is named n-m-xSIZE.csv unless a name is given; the .csv
extension is always appended.`,
		Args: cobra.MaximumNArgs(1),
	}
	samples.RunE = a.run(false, func(cmd *cobra.Command, args []string) error {
		settings := a.settings()
		name := export.ChooseName(argOrEmpty(args), export.DefaultSampleName(settings.Params, settings.SampleSize))
		path, err := export.Path(outDir(), name)
		if err != nil {
			return err
		}
		n, err := export.SamplesToFile(cmd.Context(), a.engine, settings, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d samples to %s\n", n, path)
		return nil
	})

	single := &cobra.Command{
		Use:   "tree [name]",
		Short: "Generate one tree and write its measurements",
		Long: `Generate one tree and write a single CSV row without a header.

The file is named leaves-branches-nodes-generations.csv unless a name is
given.`,
		Args: cobra.MaximumNArgs(1),
	}
	single.RunE = a.run(false, func(cmd *cobra.Command, args []string) error {
		root, err := a.engine.Generate(cmd.Context(), a.settings())
		if err != nil {
			return err
		}
		name := export.ChooseName(argOrEmpty(args), export.DefaultTreeName(tree.Measure(root)))
		path, err := export.Path(outDir(), name)
		if err != nil {
			return err
		}
		if err := export.TreeToFile(root, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote tree to %s\n", path)
		return nil
	})

	cmd.AddCommand(samples, single)
	return cmd
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
