package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
	"github.com/joseph-ayodele/decisions-tracker/internal/governor"
)

var (
	keepUndo     bool
	keepCategory string
	keepMetrics  entity.ReviewMetrics
)

func init() {
	keepCmd.Flags().BoolVar(&keepUndo, "undo", false, "unkeep instead of keep")
	keepCmd.Flags().StringVar(&keepCategory, "category", "", "override the category (Product, Capex, Platform, Ops, Other)")
	keepCmd.Flags().IntVar(&keepMetrics.Impact, "impact", -1, "impact slider 0-10")
	keepCmd.Flags().IntVar(&keepMetrics.Cost, "cost", -1, "cost slider 0-10")
	keepCmd.Flags().IntVar(&keepMetrics.Risk, "risk", -1, "risk slider 0-10")
	keepCmd.Flags().IntVar(&keepMetrics.Urgency, "urgency", -1, "urgency slider 0-10")
	keepCmd.Flags().IntVar(&keepMetrics.Confidence, "confidence", -1, "confidence slider 0-10")
	rootCmd.AddCommand(keepCmd)
}

var keepCmd = &cobra.Command{
	Use:   "keep <candidate-id>...",
	Short: "Mark candidates as kept and record reviewer edits",
	Long: `Mark candidates as kept so they are exported. Sliders left unset are not
changed; when any slider is given the others default to 0.

Examples:
  decisions keep 3f0c...:p4:c1 --impact 8 --urgency 6
  decisions keep 3f0c...:p4:c1 --category Capex
  decisions keep 3f0c...:p4:c1 --undo`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKeep,
}

func runKeep(cmd *cobra.Command, ids []string) error {
	edit := governor.ReviewEdit{}
	kept := !keepUndo
	edit.Kept = &kept
	if keepCategory != "" {
		edit.Category = &keepCategory
	}
	if m, ok := sliders(cmd, keepMetrics); ok {
		edit.Metrics = &m
	}
	if err := governor.ValidateReview(edit); err != nil {
		return err
	}

	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	for _, id := range ids {
		if err := e.store.SetKept(ctx, id, *edit.Kept); err != nil {
			return err
		}
		if edit.Category != nil {
			cat, _ := constants.Canonicalize(*edit.Category)
			if err := e.store.SetCategory(ctx, id, cat); err != nil {
				return err
			}
		}
		if edit.Metrics != nil {
			if err := e.store.SetMetrics(ctx, id, *edit.Metrics); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s (kept=%t)\n", id, kept)
	}
	return nil
}

// sliders returns the metric flags the user set, zeroing the rest.
func sliders(cmd *cobra.Command, m entity.ReviewMetrics) (entity.ReviewMetrics, bool) {
	set := false
	for _, name := range []string{"impact", "cost", "risk", "urgency", "confidence"} {
		if cmd.Flags().Changed(name) {
			set = true
		}
	}
	if !set {
		return entity.ReviewMetrics{}, false
	}
	for _, v := range []*int{&m.Impact, &m.Cost, &m.Risk, &m.Urgency, &m.Confidence} {
		if *v < 0 {
			*v = 0
		}
	}
	return m, true
}
