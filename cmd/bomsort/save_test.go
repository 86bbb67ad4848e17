package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/bomsort/internal/changelog"
	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/config"
	"github.com/Veraticus/bomsort/internal/engine"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/rules"
	"github.com/Veraticus/bomsort/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyLog fails its first failures appends.
type flakyLog struct {
	*changelog.MemoryLog
	failures int
}

func (l *flakyLog) Append(ctx context.Context, record model.ChangeRecord) error {
	if l.failures > 0 {
		l.failures--
		return fmt.Errorf("%w: disk busy", common.ErrIO)
	}
	return l.MemoryLog.Append(ctx, record)
}

func gizmoCorrection() []model.ClassifiedRow {
	return []model.ClassifiedRow{
		testutil.Corrected(testutil.Row("", "Gizmo hub", ""), model.LabelUnclassified, model.LabelActive),
	}
}

func TestApplyCorrections_RetriesChangeLog(t *testing.T) {
	ctx := context.Background()
	store := rules.NewMemoryStore(rules.Default())
	log := &flakyLog{MemoryLog: changelog.NewMemoryLog(), failures: 1}
	eng := engine.New(store, log)

	var out bytes.Buffer
	result, err := applyCorrections(ctx, eng, gizmoCorrection(), &out)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added())
	assert.Contains(t, out.String(), "Could not write the change log, retrying")
	assert.NotContains(t, out.String(), "not logged")
	assert.Equal(t, 1, store.SaveCount(), "rules are written once")
	assert.False(t, eng.Pending())

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"Added 'gizmo' to active_keywords"}, entries[0].Changes)
}

func TestApplyCorrections_RetriesRules(t *testing.T) {
	ctx := context.Background()
	store := rules.NewMemoryStore(rules.Default())
	store.FailSaves(errors.New("read-only file system"))
	log := changelog.NewMemoryLog()
	eng := engine.New(store, log)

	var out bytes.Buffer
	_, err := applyCorrections(ctx, eng, gizmoCorrection(), &out)
	require.Error(t, err)

	assert.ErrorIs(t, err, common.ErrIO)
	assert.NotErrorIs(t, err, common.ErrChangeLog)
	assert.Contains(t, out.String(), "Could not write the rules, retrying")
	assert.NotContains(t, out.String(), "not logged")
	assert.Contains(t, common.Describe(err), "rules were not saved")
	assert.True(t, eng.Pending())

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunLearn_ChangeLogUnwritable(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)
	require.NoError(t, os.Mkdir(settings.ChangelogPath, 0750))

	path := filepath.Join(t.TempDir(), "corrected.csv")
	require.NoError(t, os.WriteFile(path, []byte(correctedCSV), 0600))

	var out bytes.Buffer
	err := runLearn(context.Background(), settings, path, learnOptions{}, &out)
	require.Error(t, err)

	assert.ErrorIs(t, err, common.ErrChangeLog)
	assert.Contains(t, common.Describe(err), "rules were saved")
	assert.NotContains(t, common.Describe(err), "not saved")

	assert.Contains(t, out.String(), "Could not write the change log, retrying")
	assert.Contains(t, out.String(), "this change record was not logged")
	assert.Contains(t, out.String(), "Added 'gizmo' to active_keywords")
	assert.Contains(t, readRules(t, settings).ActiveKeywords, "gizmo")
}
