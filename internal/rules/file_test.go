package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileStore_Load(t *testing.T) {
	path := writeRules(t, `
ignore_if_contains:
  - do not use
active_keywords:
  - amplifier
  - bda
passive_keywords: []
`)

	rs, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"do not use"}, rs.IgnoreIfContains)
	assert.Equal(t, []string{"amplifier", "bda"}, rs.ActiveKeywords)
	assert.Empty(t, rs.PassiveKeywords)
	assert.NotNil(t, rs.PassiveKeywords)
}

func TestFileStore_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "empty file",
			content: "",
		},
		{
			name:    "not a mapping",
			content: "- amplifier\n- antenna\n",
		},
		{
			name:    "invalid yaml",
			content: "active_keywords: [amplifier\n",
		},
		{
			name: "missing passive key",
			content: `
ignore_if_contains: []
active_keywords: [amplifier]
`,
		},
		{
			name: "value is a string",
			content: `
ignore_if_contains: []
active_keywords: amplifier
passive_keywords: []
`,
		},
		{
			name: "value is null",
			content: `
ignore_if_contains:
active_keywords: []
passive_keywords: []
`,
		},
		{
			name: "entry is a number",
			content: `
ignore_if_contains: []
active_keywords: [700]
passive_keywords: []
`,
		},
		{
			name: "entry is a list",
			content: `
ignore_if_contains: []
active_keywords: [[amp]]
passive_keywords: []
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRules(t, tt.content)
			_, err := NewFileStore(path).Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrConfig)
		})
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfig)
}

func TestFileStore_QuotedNumbersAreStrings(t *testing.T) {
	path := writeRules(t, `
ignore_if_contains: []
active_keywords: ["700"]
passive_keywords: []
`)

	rs, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"700"}, rs.ActiveKeywords)
}

func TestFileStore_SaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "rules.yaml")
	store := NewFileStore(path)

	rs := &model.RuleSet{
		IgnoreIfContains: []string{"do not use"},
		ActiveKeywords:   []string{"amplifier", "splitter's"},
	}
	require.NoError(t, store.Save(ctx, rs))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rs.IgnoreIfContains, loaded.IgnoreIfContains)
	assert.Equal(t, rs.ActiveKeywords, loaded.ActiveKeywords)
	assert.Equal(t, []string{}, loaded.PassiveKeywords)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_SaveReplacesWholeFile(t *testing.T) {
	ctx := context.Background()
	path := writeRules(t, `
ignore_if_contains: [spare]
active_keywords: [amplifier, repeater]
passive_keywords: [antenna]
extra: kept?
`)
	store := NewFileStore(path)

	require.NoError(t, store.Save(ctx, &model.RuleSet{ActiveKeywords: []string{"bda"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "extra")
	assert.NotContains(t, string(data), "repeater")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bda"}, loaded.ActiveKeywords)
	assert.Empty(t, loaded.IgnoreIfContains)
}

func TestFileStore_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the rename fail.
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.Mkdir(path, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), nil, 0600))

	err := NewFileStore(path).Save(context.Background(), Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrIO)
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileStore(filepath.Join(t.TempDir(), "rules.yaml"))
	assert.ErrorIs(t, store.Save(ctx, Default()), context.Canceled)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false), "existing file is not overwritten")
	require.NoError(t, WriteDefault(path, true))

	rs, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Default(), rs)
}

func TestMarshal_KeyNames(t *testing.T) {
	data, err := Marshal(&model.RuleSet{})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "ignore_if_contains: []")
	assert.Contains(t, out, "active_keywords: []")
	assert.Contains(t, out, "passive_keywords: []")
}
