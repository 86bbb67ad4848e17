package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/bomsort/internal/cli"
	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/config"
	"github.com/Veraticus/bomsort/internal/engine"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/tabular"
	"github.com/Veraticus/bomsort/internal/tui"
	"github.com/Veraticus/bomsort/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// classifyOptions are the flags of the classify command.
type classifyOptions struct {
	output    string
	review    bool
	useTUI    bool
	reviewAll bool
	learn     bool
	preview   int
	theme     string
}

func classifyCmd() *cobra.Command {
	var opts classifyOptions

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Classify the rows of a BOM spreadsheet",
		Long: `Read a BOM (.xlsx or .csv), label every row as Active, Passive, Ignore or
Unclassified, preview the result and write it with Classification and
Correct Classification columns.

With --review or --tui you can correct the labels on the spot; the
corrections are then learned as new keywords. Otherwise edit the
Correct Classification column of the output and run 'bomsort learn'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.useTUI && !stdoutIsTerminal() {
				return common.NewUserError("--tui needs an interactive terminal; use --review instead", nil)
			}
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			return runClassify(cmd.Context(), settings, args[0], opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", tabular.DefaultOutputName, "output file (.xlsx or .csv)")
	cmd.Flags().BoolVar(&opts.review, "review", false, "review rows interactively in the terminal")
	cmd.Flags().BoolVar(&opts.useTUI, "tui", false, "review rows in a full-screen table")
	cmd.Flags().BoolVar(&opts.reviewAll, "all", false, "review every row, not only unclassified ones")
	cmd.Flags().BoolVar(&opts.learn, "learn", true, "learn keywords from review corrections")
	cmd.Flags().IntVar(&opts.preview, "preview", cli.PreviewRows, "number of rows to preview (0 for none)")
	cmd.Flags().StringVar(&opts.theme, "theme", "default", "TUI color theme (default, catppuccin)")
	cmd.Flags().Int("skip-rows", config.DefaultSkipRows, "banner rows above the header")
	cmd.Flags().String("sheet", "", "worksheet to read (default: first sheet)")

	_ = viper.BindPFlag(config.KeySkipRows, cmd.Flags().Lookup("skip-rows"))
	_ = viper.BindPFlag(config.KeySheet, cmd.Flags().Lookup("sheet"))

	return cmd
}

func runClassify(ctx context.Context, settings *config.Settings, path string, opts classifyOptions, in io.Reader, out io.Writer) error {
	if opts.review && opts.useTUI {
		return common.NewUserError("choose either --review or --tui", nil)
	}

	table, err := tabular.ReadFile(path, tabular.Options{Sheet: settings.Sheet, SkipRows: settings.SkipRows})
	if err != nil {
		return err
	}
	slog.Info("Read BOM", "file", path, "rows", len(table.Rows), "columns", len(table.Columns))

	be, err := openBackend(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := be.Close(); closeErr != nil {
			slog.Warn("Failed to close rule storage", "error", closeErr)
		}
	}()

	bar := cli.NewProgressBar(os.Stderr, len(table.Rows), "Classifying rows...")
	eng := engine.NewWithConfig(be.store, be.log, engine.Config{
		Progress: func() { _ = bar.Add(1) },
	})

	classified, err := eng.Classify(ctx, table.Rows)
	if err != nil {
		return err
	}

	if len(classified) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No rows to classify in "+path))
		return writeExport(opts.output, &tabular.Table{Columns: tabular.ExportHeader(table.Columns)}, out)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Classified %d rows", len(classified))))
	fmt.Fprintln(out, cli.RenderSummary(model.Summarize(classified)))
	if opts.preview > 0 {
		fmt.Fprintln(out, cli.RenderPreview(classified, opts.preview))
	}

	reviewed, reviewedOK, err := review(ctx, classified, opts, in, out)
	if err != nil {
		return err
	}

	if err := writeExport(opts.output, tabular.Export(reviewed), out); err != nil {
		return err
	}

	if !reviewedOK || !opts.learn {
		return nil
	}

	result, err := applyCorrections(ctx, eng, reviewed, out)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.RenderOutcomes(result))
	fmt.Fprintln(out, cli.FormatSuccess("Rules updated"))
	return nil
}

func writeExport(path string, table *tabular.Table, out io.Writer) error {
	if err := tabular.WriteFile(path, table); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess("Saved classified table to "+path))
	return nil
}

// review runs the chosen reviewer. ok is false when no review took place
// or the user canceled it, in which case rows are returned unchanged.
func review(ctx context.Context, rows []model.ClassifiedRow, opts classifyOptions, in io.Reader, out io.Writer) ([]model.ClassifiedRow, bool, error) {
	var reviewer engine.Reviewer
	switch {
	case opts.useTUI:
		reviewer = tui.NewReviewer(tui.WithReviewAll(opts.reviewAll), tui.WithTheme(themes.ByName(opts.theme)))
	case opts.review:
		p := cli.NewCLIPrompter(in, out)
		p.SetReviewAll(opts.reviewAll)
		reviewer = p
	default:
		return rows, false, nil
	}

	handler := cli.NewInterruptHandler(out, "No rules were changed.")
	reviewCtx, stop := handler.HandleInterrupts(ctx)
	defer stop()

	reviewed, err := reviewer.Review(reviewCtx, rows)
	if errors.Is(err, tui.ErrReviewCanceled) {
		fmt.Fprintln(out, cli.FormatWarning("Review canceled, rules were not changed"))
		return rows, false, nil
	}
	if err != nil {
		if handler.WasInterrupted() {
			return nil, false, context.Canceled
		}
		return nil, false, fmt.Errorf("review failed: %w", err)
	}
	return reviewed, true, nil
}

// stdoutIsTerminal reports whether stdout is an interactive terminal.
func stdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
