package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/bomsort/internal/cli"
	"github.com/Veraticus/bomsort/internal/config"
	"github.com/Veraticus/bomsort/internal/engine"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/tabular"
	"github.com/spf13/cobra"
)

type learnOptions struct {
	skipRows int
	dryRun   bool
}

func learnCmd() *cobra.Command {
	var opts learnOptions

	cmd := &cobra.Command{
		Use:   "learn <file>",
		Short: "Learn keywords from a corrected classification file",
		Long: `Read a file written by 'bomsort classify' whose Correct Classification
column you have edited, and add keywords for every corrected row to the
rules. The rules are saved even when nothing new was learned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			return runLearn(cmd.Context(), settings, args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.skipRows, "skip-rows", 0, "banner rows above the header")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show what would be learned without saving")

	return cmd
}

func runLearn(ctx context.Context, settings *config.Settings, path string, opts learnOptions, out io.Writer) error {
	table, err := tabular.ReadFile(path, tabular.Options{Sheet: settings.Sheet, SkipRows: opts.skipRows})
	if err != nil {
		return err
	}

	rows, err := tabular.Classified(table)
	if err != nil {
		return err
	}

	corrected := 0
	for _, r := range rows {
		if r.Corrected() {
			corrected++
		}
	}
	slog.Info("Read corrections", "file", path, "rows", len(rows), "corrected", corrected)

	be, err := openBackend(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := be.Close(); closeErr != nil {
			slog.Warn("Failed to close rule storage", "error", closeErr)
		}
	}()

	eng := engine.New(be.store, be.log)

	if opts.dryRun {
		rs, err := eng.Rules(ctx)
		if err != nil {
			return err
		}
		_, record := engine.Learn(rows, rs)
		fmt.Fprintln(out, cli.RenderOutcomes(engine.Result{Record: record}))
		fmt.Fprintln(out, cli.FormatInfo("Dry run, rules were not saved"))
		return nil
	}

	result, err := applyCorrections(ctx, eng, rows, out)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.RenderOutcomes(result))
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Rules updated from %d corrected row(s)", corrected)))
	reportSkipped(out, result.Outcomes)
	return nil
}

// reportSkipped notes corrections that could not become keywords.
func reportSkipped(out io.Writer, outcomes []engine.Outcome) {
	for _, o := range outcomes {
		switch o.Kind {
		case engine.OutcomeNoKeyword:
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Row %d has no text to learn from", o.Index+1)))
		case engine.OutcomeNotLearnable:
			if o.Label == model.LabelIgnore {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Row %d: Ignore corrections are not learned; add ignore keywords with 'bomsort rules add'", o.Index+1)))
			}
		}
	}
}
