package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/bomsort/internal/model"
	"github.com/schollz/progressbar/v3"
)

// ReviewStats summarizes an interactive review.
type ReviewStats struct {
	Shown     int
	Corrected int
	Stopped   bool
	Duration  time.Duration
}

// Prompter reviews classified rows one at a time on a terminal. It
// implements engine.Reviewer.
type Prompter struct {
	startTime   time.Time
	writer      io.Writer
	reader      *NonBlockingReader
	progressBar *progressbar.ProgressBar
	stats       ReviewStats
	reviewAll   bool
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// SetReviewAll makes Review visit every row instead of only the
// Unclassified ones.
func (p *Prompter) SetReviewAll(all bool) {
	p.reviewAll = all
}

// Stats returns the statistics of the last review.
func (p *Prompter) Stats() ReviewStats {
	return p.stats
}

// Review asks the user to confirm or correct each selected row and
// returns a copy of rows with CorrectClassification filled in. Entering
// q, or reaching the end of input, keeps the remaining rows as they are.
func (p *Prompter) Review(ctx context.Context, rows []model.ClassifiedRow) ([]model.ClassifiedRow, error) {
	out := make([]model.ClassifiedRow, len(rows))
	copy(out, rows)

	p.stats = ReviewStats{}
	p.startTime = time.Now()

	queue := p.selectRows(out)
	if len(queue) == 0 {
		if _, err := fmt.Fprintln(p.writer, FormatSuccess("Nothing to review: every row has a classification")); err != nil {
			return nil, fmt.Errorf("failed to write review message: %w", err)
		}
		return out, nil
	}

	p.initProgressBar(len(queue))

	for n, idx := range queue {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label, stop, err := p.reviewRow(ctx, n+1, len(queue), out[idx])
		if err != nil {
			return nil, err
		}
		if stop {
			p.stats.Stopped = true
			break
		}

		p.stats.Shown++
		if label != out[idx].CorrectClassification {
			slog.Debug("Row corrected", "row", idx+1, "from", out[idx].CorrectClassification, "to", label)
		}
		out[idx].CorrectClassification = label
		if out[idx].Corrected() {
			p.stats.Corrected++
		}
		p.updateProgress()
	}

	p.stats.Duration = time.Since(p.startTime)
	p.showCompletion()
	return out, nil
}

func (p *Prompter) selectRows(rows []model.ClassifiedRow) []int {
	queue := make([]int, 0, len(rows))
	for i, r := range rows {
		if p.reviewAll || r.Classification == model.LabelUnclassified {
			queue = append(queue, i)
		}
	}
	return queue
}

// reviewRow shows one row and reads a choice. It returns the chosen
// label, or stop when the user ended the review.
func (p *Prompter) reviewRow(ctx context.Context, n, total int, row model.ClassifiedRow) (model.Label, bool, error) {
	title := fmt.Sprintf("Row %d of %d", n, total)
	if _, err := fmt.Fprintln(p.writer, RenderBox(title, formatRow(row))); err != nil {
		return "", false, fmt.Errorf("failed to write row box: %w", err)
	}
	if _, err := fmt.Fprintln(p.writer, "  [A] Active  [P] Passive  [I] Ignore  [U] Unclassified  [Enter] keep  [Q] finish"); err != nil {
		return "", false, fmt.Errorf("failed to write options: %w", err)
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("Classification")); err != nil {
			return "", false, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return "", true, nil
		}
		if err != nil {
			return "", false, err
		}

		switch strings.ToLower(input) {
		case "":
			return row.CorrectClassification, false, nil
		case "q", "quit":
			return "", true, nil
		}

		label, err := model.ParseLabel(input)
		if err != nil {
			if _, werr := fmt.Fprintln(p.writer, FormatError("Enter a, p, i, u, q or press Enter")); werr != nil {
				return "", false, fmt.Errorf("failed to write error: %w", werr)
			}
			continue
		}
		return label, false, nil
	}
}

func formatRow(row model.ClassifiedRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Type:       "), fieldText(row.Row.Type))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Description:"), fieldText(row.Row.Description))
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Model:      "), fieldText(row.Row.Model))
	fmt.Fprintf(&b, "\n%s %s", BoldStyle.Render("Classified: "), FormatLabel(row.Classification))
	if row.MatchedKeyword != "" {
		fmt.Fprintf(&b, " %s", SubtleStyle.Render(fmt.Sprintf("(matched %q)", row.MatchedKeyword)))
	}
	if row.Corrected() {
		fmt.Fprintf(&b, "\n%s %s", BoldStyle.Render("Corrected:  "), FormatLabel(row.CorrectClassification))
	}
	return b.String()
}

func fieldText(f model.Field) string {
	if !f.Present {
		return SubtleStyle.Render("(empty)")
	}
	return f.Value
}

func (p *Prompter) initProgressBar(total int) {
	p.progressBar = NewProgressBar(p.writer, total, "Reviewing rows...")
}

func (p *Prompter) updateProgress() {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Add(1); err != nil {
		slog.Debug("Failed to update progress bar", "error", err)
	}
}

func (p *Prompter) showCompletion() {
	summary := fmt.Sprintf("Reviewed %d rows, corrected %d in %s",
		p.stats.Shown, p.stats.Corrected, p.stats.Duration.Round(time.Second))
	if p.stats.Stopped {
		summary += " (stopped early)"
	}
	if _, err := fmt.Fprintln(p.writer, "\n"+FormatSuccess(summary)); err != nil {
		slog.Warn("Failed to write review summary", "error", err)
	}
}

// NewProgressBar returns a themed progress bar that writes to w.
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
