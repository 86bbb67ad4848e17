package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/config"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/rules"
	"github.com/Veraticus/bomsort/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T, backendName string) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	return &config.Settings{
		RulesPath:     filepath.Join(dir, "rules.yaml"),
		RulesBackend:  backendName,
		DatabasePath:  filepath.Join(dir, "rules.db"),
		ChangelogPath: filepath.Join(dir, "rule_change_log.txt"),
		SkipRows:      config.DefaultSkipRows,
	}
}

func openTestBackend(t *testing.T, settings *config.Settings) *backend {
	t.Helper()
	be, err := openBackend(context.Background(), settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = be.Close() })
	return be
}

func initRules(t *testing.T, settings *config.Settings) {
	t.Helper()
	be := openTestBackend(t, settings)
	require.NoError(t, runRulesInit(context.Background(), settings, be, false, &bytes.Buffer{}))
}

func writeBOM(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < config.DefaultSkipRows; i++ {
		fmt.Fprintf(&b, "Report header %d\n", i)
	}
	b.WriteString("Item,Type,Description,Model\n")
	b.WriteString("1,RF,Bi-directional amplifier,BDA-700\n")
	b.WriteString("2,Antenna,Omni ceiling antenna,ANT-1\n")
	b.WriteString("3,,Widget box,\n")
	b.WriteString("4,Misc,Spare fuse,\n")
	b.WriteString(",,,\n")

	path := filepath.Join(dir, "bom.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0600))
	return path
}

func readRules(t *testing.T, settings *config.Settings) *model.RuleSet {
	t.Helper()
	rs, err := rules.NewFileStore(settings.RulesPath).Load(context.Background())
	require.NoError(t, err)
	return rs
}

func TestRunClassify(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)

	dir := t.TempDir()
	output := filepath.Join(dir, "classified.csv")
	var out bytes.Buffer

	opts := classifyOptions{output: output, preview: 50, learn: true}
	err := runClassify(context.Background(), settings, writeBOM(t, dir), opts, strings.NewReader(""), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Classified 4 rows")
	assert.Contains(t, out.String(), "Widget box")
	assert.Contains(t, out.String(), "Saved classified table")

	table, err := tabular.ReadFile(output, tabular.Options{})
	require.NoError(t, err)
	rows, err := tabular.Classified(table)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, model.LabelActive, rows[0].Classification)
	assert.Equal(t, model.LabelPassive, rows[1].Classification)
	assert.Equal(t, model.LabelUnclassified, rows[2].Classification)
	assert.Equal(t, model.LabelIgnore, rows[3].Classification)
	assert.Equal(t, "1", rows[0].Row.Values()[0])

	_, err = os.Stat(settings.ChangelogPath)
	assert.True(t, os.IsNotExist(err), "nothing is learned without a review")
}

func TestRunClassify_ReviewLearns(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)

	dir := t.TempDir()
	opts := classifyOptions{output: filepath.Join(dir, "out.xlsx"), review: true, learn: true}
	var out bytes.Buffer

	err := runClassify(context.Background(), settings, writeBOM(t, dir), opts, strings.NewReader("p\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Added 'widget' to passive_keywords")
	assert.Contains(t, readRules(t, settings).PassiveKeywords, "widget")

	log, err := os.ReadFile(settings.ChangelogPath)
	require.NoError(t, err)
	assert.Contains(t, string(log), "Added 'widget' to passive_keywords")
}

func TestRunClassify_Errors(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	dir := t.TempDir()
	bom := writeBOM(t, dir)

	err := runClassify(context.Background(), settings, bom, classifyOptions{output: filepath.Join(dir, "o.csv")}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, common.ErrConfig, "missing rules file")

	err = runClassify(context.Background(), settings, bom, classifyOptions{review: true, useTUI: true}, nil, &bytes.Buffer{})
	assert.Error(t, err)

	err = runClassify(context.Background(), settings, filepath.Join(dir, "bom.pdf"), classifyOptions{}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, common.ErrInputFormat)
}

func TestRunClassify_EmptyBOM(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte(strings.Repeat("x\n", 10)+"Type,Description\n,\n"), 0600))
	output := filepath.Join(dir, "out.csv")

	var out bytes.Buffer
	err := runClassify(context.Background(), settings, empty, classifyOptions{output: output, review: true, learn: true}, strings.NewReader(""), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "No rows to classify")
	assert.Contains(t, out.String(), "Saved classified table to "+output)

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Type,Description,Classification,Correct Classification\n", string(written))

	_, err = os.Stat(settings.ChangelogPath)
	assert.True(t, os.IsNotExist(err))
}

const correctedCSV = `Type,Description,Model,Classification,Correct Classification
RF,Amplifier,A1,Active,Active
,Tapper 6dB,,Unclassified,Passive
,Gizmo hub,,Unclassified,Active
,Blank plate,,Unclassified,Ignore
`

func TestRunLearn(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)

	path := filepath.Join(t.TempDir(), "corrected.csv")
	require.NoError(t, os.WriteFile(path, []byte(correctedCSV), 0600))

	var out bytes.Buffer
	require.NoError(t, runLearn(context.Background(), settings, path, learnOptions{}, &out))

	assert.Contains(t, out.String(), "Learned 1 new keyword(s)")
	assert.Contains(t, out.String(), "Added 'gizmo' to active_keywords")
	assert.Contains(t, out.String(), "Rules updated from 3 corrected row(s)")
	assert.Contains(t, out.String(), "Ignore corrections are not learned")

	rs := readRules(t, settings)
	assert.Contains(t, rs.ActiveKeywords, "gizmo")
	assert.Equal(t, rules.Default().PassiveKeywords, rs.PassiveKeywords)

	out.Reset()
	require.NoError(t, runLearn(context.Background(), settings, path, learnOptions{}, &out))
	assert.Contains(t, out.String(), "No new keywords learned")
}

func TestRunLearn_DryRun(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)

	path := filepath.Join(t.TempDir(), "corrected.csv")
	require.NoError(t, os.WriteFile(path, []byte(correctedCSV), 0600))

	var out bytes.Buffer
	require.NoError(t, runLearn(context.Background(), settings, path, learnOptions{dryRun: true}, &out))

	assert.Contains(t, out.String(), "Added 'gizmo' to active_keywords")
	assert.NotContains(t, readRules(t, settings).ActiveKeywords, "gizmo")
}

func TestRunLearn_MissingColumns(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	path := filepath.Join(t.TempDir(), "plain.csv")
	require.NoError(t, os.WriteFile(path, []byte("Type,Description\nRF,Amp\n"), 0600))

	err := runLearn(context.Background(), settings, path, learnOptions{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, common.ErrInputFormat)
}

func TestRunRulesInit(t *testing.T) {
	for _, name := range []string{config.BackendYAML, config.BackendSQLite} {
		t.Run(name, func(t *testing.T) {
			settings := testSettings(t, name)
			be := openTestBackend(t, settings)
			ctx := context.Background()

			require.NoError(t, runRulesInit(ctx, settings, be, false, &bytes.Buffer{}))
			assert.Error(t, runRulesInit(ctx, settings, be, false, &bytes.Buffer{}))
			require.NoError(t, runRulesInit(ctx, settings, be, true, &bytes.Buffer{}))

			rs, err := be.store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, rules.Default(), rs)
		})
	}
}

func TestRunRulesAddAndHistory(t *testing.T) {
	for _, name := range []string{config.BackendYAML, config.BackendSQLite} {
		t.Run(name, func(t *testing.T) {
			settings := testSettings(t, name)
			initRules(t, settings)
			be := openTestBackend(t, settings)
			ctx := context.Background()
			at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

			var out bytes.Buffer
			err := runRulesAdd(ctx, be, model.CategoryIgnore, []string{"Test-Point", "spare", ""}, at, &out)
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Added 'test point' to ignore_if_contains")
			assert.Contains(t, out.String(), `Skipped "spare"`)

			rs, err := be.store.Load(ctx)
			require.NoError(t, err)
			assert.Contains(t, rs.IgnoreIfContains, "test point")

			out.Reset()
			require.NoError(t, runHistory(ctx, be, 0, &out))
			assert.Contains(t, out.String(), "2024-05-06 07:08:09")
			assert.Contains(t, out.String(), "Added 'test point' to ignore_if_contains")
		})
	}
}

func TestRunHistory_Limit(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)
	be := openTestBackend(t, settings)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	require.NoError(t, runRulesAdd(ctx, be, model.CategoryActive, []string{"alpha"}, first, &bytes.Buffer{}))
	require.NoError(t, runRulesAdd(ctx, be, model.CategoryActive, []string{"beta"}, first.Add(time.Hour), &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, runHistory(ctx, be, 1, &out))
	assert.Contains(t, out.String(), "beta")
	assert.NotContains(t, out.String(), "alpha")
}

func TestRunRulesImportExport(t *testing.T) {
	ctx := context.Background()
	yamlSettings := testSettings(t, config.BackendYAML)
	initRules(t, yamlSettings)

	sqliteSettings := testSettings(t, config.BackendSQLite)
	be := openTestBackend(t, sqliteSettings)

	var out bytes.Buffer
	require.NoError(t, runRulesImport(ctx, be, yamlSettings.RulesPath, &out))
	assert.Contains(t, out.String(), fmt.Sprintf("Imported %d keywords", rules.Default().Size()))

	out.Reset()
	require.NoError(t, runRulesExport(ctx, be, "", &out))
	parsed, err := rules.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rules.Default(), parsed)

	exported := filepath.Join(t.TempDir(), "exported.yaml")
	require.NoError(t, runRulesExport(ctx, be, exported, &bytes.Buffer{}))
	rs, err := rules.NewFileStore(exported).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rules.Default(), rs)
}

func TestRunRulesCheck(t *testing.T) {
	settings := testSettings(t, config.BackendYAML)
	initRules(t, settings)
	be := openTestBackend(t, settings)

	var out bytes.Buffer
	require.NoError(t, runRulesCheck(context.Background(), be, &out))
	assert.Contains(t, out.String(), "Rules are valid")
	assert.NotContains(t, out.String(), "warning")
}

func TestCheckRuleSet(t *testing.T) {
	rs := &model.RuleSet{
		IgnoreIfContains: []string{"", "DNU"},
		ActiveKeywords:   []string{"amp", "amp", "radio"},
		PassiveKeywords:  []string{"radio", "n-type"},
	}

	var messages []string
	for _, p := range checkRuleSet(rs) {
		messages = append(messages, fmt.Sprintf("%s/%s: %s", p.category, p.keyword, p.message))
	}

	assert.Contains(t, messages, "ignore_if_contains/: empty keyword matches every row")
	assert.Contains(t, messages, `ignore_if_contains/DNU: never matches normalized text; use "dnu"`)
	assert.Contains(t, messages, "active_keywords/amp: duplicate keyword")
	assert.Contains(t, messages, "passive_keywords/radio: also an active keyword; active wins")
	assert.Contains(t, messages, `passive_keywords/n-type: never matches normalized text; use "n type"`)
	assert.Len(t, messages, 5)
}

func TestExplain(t *testing.T) {
	out := explain("Omni Antenna (ceiling)", rules.Default())
	assert.Contains(t, out, "Passive")
	assert.Contains(t, out, `matched "antenna" in passive_keywords`)

	out = explain("Widget", rules.Default())
	assert.Contains(t, out, "Unclassified")
	assert.NotContains(t, out, "matched")
}

func TestOpenBackend_Unknown(t *testing.T) {
	settings := testSettings(t, "postgres")
	_, err := openBackend(context.Background(), settings)
	assert.Error(t, err)
}
