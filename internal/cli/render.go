package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/bomsort/internal/changelog"
	"github.com/Veraticus/bomsort/internal/engine"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// PreviewRows is the number of rows shown after classification.
const PreviewRows = 50

const maxCellWidth = 40

// RenderPreview renders the first limit rows as a table. A limit of zero
// or less renders every row.
func RenderPreview(rows []model.ClassifiedRow, limit int) string {
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
		Headers("#", model.ColumnType, model.ColumnDescription, model.ColumnModel, model.ColumnClassification, "Keyword")

	for i, r := range shown {
		t.Row(
			strconv.Itoa(i+1),
			truncate(r.Row.Type.Value, maxCellWidth),
			truncate(r.Row.Description.Value, maxCellWidth),
			truncate(r.Row.Model.Value, maxCellWidth),
			r.Classification.String(),
			truncate(r.MatchedKeyword, maxCellWidth),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return TableHeaderStyle
		}
		if col == 4 && row >= 0 && row < len(shown) {
			return LabelStyle(shown[row].Classification).Padding(0, 1)
		}
		return TableCellStyle
	})

	out := t.String()
	if len(shown) < len(rows) {
		out += "\n" + SubtleStyle.Render(fmt.Sprintf("showing %d of %d rows", len(shown), len(rows)))
	}
	return out
}

// RenderSummary renders per-label counts.
func RenderSummary(summary model.Summary) string {
	total := 0
	for _, n := range summary {
		total += n
	}

	lines := []string{fmt.Sprintf("%s %d rows", ChartIcon, total)}
	for _, label := range model.Labels() {
		lines = append(lines, fmt.Sprintf("  %-14s %d", FormatLabel(label), summary[label]))
	}
	return strings.Join(lines, "\n")
}

// RenderOutcomes lists the keywords a rule update added.
func RenderOutcomes(result engine.Result) string {
	if result.Added() == 0 {
		return FormatInfo("No new keywords learned")
	}

	lines := []string{FormatSuccess(fmt.Sprintf("Learned %d new keyword(s)", result.Added()))}
	for _, change := range result.Record.Changes {
		lines = append(lines, "  "+change)
	}
	return strings.Join(lines, "\n")
}

// RenderRuleSet renders every keyword list with its size.
func RenderRuleSet(rs *model.RuleSet) string {
	sections := make([]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		keywords := rs.Keywords(c)
		title := fmt.Sprintf("%s %s (%d)", RulesIcon, c, len(keywords))

		body := SubtleStyle.Render("(none)")
		if len(keywords) > 0 {
			quoted := make([]string, len(keywords))
			for i, kw := range keywords {
				quoted[i] = strconv.Quote(kw)
			}
			body = strings.Join(quoted, ", ")
		}
		sections = append(sections, LabelStyle(c.Label()).Bold(true).Render(title)+"\n"+body)
	}
	return strings.Join(sections, "\n\n")
}

// RenderHistory renders change records oldest first.
func RenderHistory(records []model.ChangeRecord) string {
	if len(records) == 0 {
		return FormatInfo("No rule changes recorded")
	}

	blocks := make([]string, len(records))
	for i, r := range records {
		header := BoldStyle.Render(r.Timestamp.Format(changelog.TimestampLayout))
		blocks[i] = header + "\n  " + strings.Join(r.Changes, "\n  ")
	}
	return strings.Join(blocks, "\n\n")
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
