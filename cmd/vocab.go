package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"glycomotif/internal/service/library"
)

func newVocabCommand() *cobra.Command {
	vocabCmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage the glycoword library",
	}

	var datasetPath, outPath string
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the glycoword library from a labelled glycan dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(datasetPath)
			if err != nil {
				return fmt.Errorf("failed to open dataset: %w", err)
			}
			defer f.Close()

			lib, rows, err := library.Build(f)
			if err != nil {
				return err
			}
			if err := lib.SaveFile(outPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s glycowords from %s labelled glycans to %s\n",
				humanize.Comma(int64(lib.Len())), humanize.Comma(int64(rows)), outPath)
			return nil
		},
	}
	buildCmd.Flags().StringVar(&datasetPath, "dataset", "", "CSV dataset with glycan and label columns")
	buildCmd.Flags().StringVar(&outPath, "out", "glycowords.json", "Output path for the glycoword library")
	buildCmd.MarkFlagRequired("dataset")

	vocabCmd.AddCommand(buildCmd)
	return vocabCmd
}
