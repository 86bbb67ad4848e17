package rules

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/model"
	"gopkg.in/yaml.v3"
)

// FileStore keeps the ruleset in a YAML file with the keys
// ignore_if_contains, active_keywords and passive_keywords.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the YAML file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the rules file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the rules file.
func (s *FileStore) Load(ctx context.Context) (*model.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: rules file %s not found", common.ErrConfig, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rules file: %w", common.ErrConfig, err)
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	slog.Debug("Loaded rules",
		"path", s.path,
		"ignore", len(rs.IgnoreIfContains),
		"active", len(rs.ActiveKeywords),
		"passive", len(rs.PassiveKeywords))

	return rs, nil
}

// Save replaces the rules file. The new content is written to a
// temporary file in the same directory and renamed over the old one.
func (s *FileStore) Save(ctx context.Context, rs *model.RuleSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Marshal(rs)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}

	slog.Debug("Saved rules", "path", s.path, "keywords", rs.Size())
	return nil
}

// WriteDefault writes the starter ruleset to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("rules file %s already exists (use --force to overwrite)", path)
		}
	}

	data, err := Marshal(Default())
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return nil
}

// Parse decodes and validates a YAML ruleset. Each of the three keys
// must be present and hold a list of strings.
func Parse(data []byte) (*model.RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %w", common.ErrConfig, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: rules file is empty", common.ErrConfig)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: rules must be a mapping of category to keyword list", common.ErrConfig)
	}

	rs := &model.RuleSet{}
	for _, category := range model.Categories() {
		value := lookup(root, string(category))
		if value == nil {
			return nil, fmt.Errorf("%w: missing key %q", common.ErrConfig, category)
		}

		keywords, err := stringList(value)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", common.ErrConfig, category, err)
		}
		_ = rs.SetKeywords(category, keywords)
	}

	return rs, nil
}

// Marshal encodes rs in the rules file format.
func Marshal(rs *model.RuleSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	// Clone so nil lists are written as [] rather than null.
	if err := enc.Encode(rs.Clone()); err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	return buf.Bytes(), nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func stringList(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list, got %s", describe(node))
	}

	out := make([]string, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
			return nil, fmt.Errorf("entry %d: expected a string, got %s", i, describe(item))
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return "null"
		}
		return fmt.Sprintf("%s %q", node.ShortTag(), node.Value)
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary rules file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close rules file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set rules file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace rules file: %w", err)
	}
	return nil
}
