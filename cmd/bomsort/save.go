package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/bomsort/internal/changelog"
	"github.com/Veraticus/bomsort/internal/cli"
	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/engine"
	"github.com/Veraticus/bomsort/internal/model"
)

// saveRetries is how many times a failed rule update is written again
// before the command gives up.
const saveRetries = 1

// applyCorrections learns from rows and persists the update. A failed
// write is retried from the engine's pending update, never by learning
// again, since a second pass over already saved rules finds nothing new.
// When only the change log could not be written the unwritten record is
// printed so it is not lost.
func applyCorrections(ctx context.Context, eng *engine.Engine, rows []model.ClassifiedRow, out io.Writer) (engine.Result, error) {
	result, err := eng.ApplyCorrections(ctx, rows)

	for attempt := 1; err != nil && attempt <= saveRetries && eng.Pending(); attempt++ {
		if !errors.Is(err, common.ErrIO) || ctx.Err() != nil {
			break
		}
		what := "rules"
		if eng.RulesSaved() {
			what = "change log"
		}
		slog.Warn("Rule update not persisted, retrying", "error", err, "attempt", attempt)
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Could not write the %s, retrying", what)))
		result, err = eng.RetrySave(ctx)
	}

	if err != nil && errors.Is(err, common.ErrChangeLog) && !result.Record.Empty() {
		fmt.Fprintln(out, cli.FormatWarning("Rules were saved but this change record was not logged:"))
		fmt.Fprintln(out, strings.TrimSpace(changelog.Format(result.Record)))
	}
	return result, err
}
