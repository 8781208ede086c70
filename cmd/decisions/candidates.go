package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/repository"
)

var (
	listDocID   string
	listKept    bool
	listSignals bool
	listLimit   int
)

func init() {
	candidatesCmd.Flags().StringVar(&listDocID, "doc", "", "only candidates from this document id")
	candidatesCmd.Flags().BoolVar(&listKept, "kept", false, "only candidates a reviewer kept")
	candidatesCmd.Flags().BoolVar(&listSignals, "signals", false, "include belief/outlook signals")
	candidatesCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows (0 for all)")
	rootCmd.AddCommand(candidatesCmd)
	rootCmd.AddCommand(documentsCmd)
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List stored decision candidates by score",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if listDocID != "" {
			if err := common.ValidateAndReturnError(common.NewValidator().Field("doc", listDocID, common.UUID)); err != nil {
				return err
			}
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		cands, err := e.store.ListCandidates(cmd.Context(), repository.CandidateFilter{
			DocID:          listDocID,
			KeptOnly:       listKept,
			IncludeSignals: listSignals,
			Limit:          listLimit,
		})
		if err != nil {
			return err
		}
		printCandidates(cmd.OutOrStdout(), cands)
		return nil
	},
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List processed documents and their status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		docs, err := e.store.ListDocuments(cmd.Context())
		if err != nil {
			return err
		}
		printDocuments(cmd.OutOrStdout(), docs)
		return nil
	},
}
