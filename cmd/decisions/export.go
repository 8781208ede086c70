package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/decisions-tracker/internal/export"
	"github.com/joseph-ayodele/decisions-tracker/internal/repository"
)

var (
	exportFormat string
	exportDir    string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "xlsx", "json, yaml, xlsx or docx")
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "", "output directory (defaults to export.dir)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export kept decisions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		cands, err := e.store.ListCandidates(cmd.Context(), repository.CandidateFilter{KeptOnly: true, IncludeSignals: true})
		if err != nil {
			return err
		}
		dir := exportDir
		if dir == "" {
			dir = e.cfg.Export.Dir
		}
		path, err := export.NewService(e.logger).WriteFile(cmd.Context(), format, dir, cands)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d decisions to %s\n", len(cands), path)
		return nil
	},
}
