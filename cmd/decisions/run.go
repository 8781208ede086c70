package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/decisions-tracker/internal/extract"
	"github.com/joseph-ayodele/decisions-tracker/internal/governor"
	"github.com/joseph-ayodele/decisions-tracker/internal/ingest"
	"github.com/joseph-ayodele/decisions-tracker/internal/metrics"
	"github.com/joseph-ayodele/decisions-tracker/internal/pipeline"
	"github.com/joseph-ayodele/decisions-tracker/internal/quality"
	"github.com/joseph-ayodele/decisions-tracker/internal/signals"
)

var (
	runForce       bool
	runMaxRounds   int
	runShowSignals bool
	runLabel       string
)

func init() {
	runCmd.Flags().BoolVar(&runForce, "force", false, "process files even if identical content was processed before")
	runCmd.Flags().IntVar(&runMaxRounds, "max-rounds", 8, "how many times to resume documents paused for time or memory")
	runCmd.Flags().BoolVar(&runShowSignals, "signals", false, "also list belief/outlook signals")
	runCmd.Flags().StringVar(&runLabel, "label", "pasted memo", "label for text read from stdin")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [path|-]...",
	Short: "Extract decision candidates from files, directories or stdin",
	Long: `Queue every supported file (pdf, txt, md) under the given paths and run the
pipeline over them one page at a time. "-" reads a memo from stdin.

Examples:
  decisions run reports/acme-10k.pdf
  decisions run ./inbox --signals
  pbpaste | decisions run - --label "board memo"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	floors := quality.Floors{A: e.cfg.Scoring.FloorA, B: e.cfg.Scoring.FloorB, C: e.cfg.Scoring.FloorC}
	stage := pipeline.NewPageStage(signals.NewScorer(floors), e.logger)
	opts := append(governor.OptionsFromConfig(e.cfg.Governor),
		governor.WithSink(e.store),
		governor.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	g := governor.New(stage, e.logger, opts...)

	var index ingest.HashIndex
	if !runForce {
		index = e.store
	}
	in := ingest.NewFSIngestor(g, index, e.logger)

	out := cmd.OutOrStdout()
	for _, arg := range args {
		if arg == "-" {
			body, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			if _, err := g.Enqueue(extract.FromText(runLabel, string(body))); err != nil {
				return err
			}
			continue
		}
		if err := enqueuePath(ctx, in, arg, e.cfg.Ingest.SkipHidden, out); err != nil {
			return err
		}
	}

	if err := drain(ctx, g, runMaxRounds, out); err != nil {
		return err
	}

	fmt.Fprintln(out, g.Status())
	printDocuments(out, g.Documents())
	printCandidates(out, g.Candidates(governor.ListOptions{IncludeSignals: runShowSignals}))
	return nil
}

func enqueuePath(ctx context.Context, in *ingest.FSIngestor, path string, skipHidden bool, out io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		res, err := in.IngestPath(ctx, path)
		if err != nil {
			return err
		}
		if res.Deduplicated {
			fmt.Fprintf(out, "skipping %s: already processed as %s (use --force)\n", path, res.DocID)
		}
		return nil
	}
	results, stats, err := in.IngestDirectory(ctx, path, skipHidden)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != "" {
			fmt.Fprintf(out, "failed %s: %s\n", r.SourcePath, r.Err)
		}
	}
	fmt.Fprintf(out, "%s: %d matched, %d queued, %d duplicates, %d failed\n",
		path, stats.Matched, stats.Succeeded-stats.Deduplicated, stats.Deduplicated, stats.Failed)
	return nil
}

// drain runs the governor until nothing is left to resume, the context is
// cancelled or maxRounds resumptions have been spent.
func drain(ctx context.Context, g *governor.Governor, maxRounds int, out io.Writer) error {
	for round := 0; ; round++ {
		if err := g.Run(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			fmt.Fprintln(out, "cancelled; committed pages were saved")
			return nil
		}
		if round >= maxRounds {
			return nil
		}
		if g.Resume() == 0 {
			return nil
		}
	}
}
