package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/bomsort/internal/cli"
	"github.com/Veraticus/bomsort/internal/common"
	"github.com/Veraticus/bomsort/internal/config"
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/normalize"
	"github.com/Veraticus/bomsort/internal/pattern"
	"github.com/Veraticus/bomsort/internal/rules"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the keyword rules",
		Long: `Create, inspect and edit the keyword rules used by classify.

Rules are stored in a YAML file (rules.path) or, with rules.backend set to
sqlite, in the database at database.path.`,
	}

	cmd.AddCommand(rulesInitCmd())
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesCheckCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesExplainCmd())
	cmd.AddCommand(rulesImportCmd())
	cmd.AddCommand(rulesExportCmd())

	return cmd
}

// withBackend resolves settings, opens the backend and runs fn.
func withBackend(cmd *cobra.Command, fn func(ctx context.Context, settings *config.Settings, be *backend) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	be, err := openBackend(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := be.Close(); closeErr != nil {
			slog.Warn("Failed to close rule storage", "error", closeErr)
		}
	}()

	return fn(ctx, settings, be)
}

func rulesInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the starter ruleset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, settings *config.Settings, be *backend) error {
				return runRulesInit(ctx, settings, be, force, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing rules")
	return cmd
}

func runRulesInit(ctx context.Context, settings *config.Settings, be *backend, force bool, out io.Writer) error {
	if settings.RulesBackend == config.BackendYAML {
		if err := rules.WriteDefault(settings.RulesPath, force); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Wrote starter rules to "+settings.RulesPath))
		return nil
	}

	if !force {
		if _, err := be.store.Load(ctx); err == nil {
			return fmt.Errorf("rules already exist in %s (use --force to overwrite)", settings.DatabasePath)
		} else if !errors.Is(err, common.ErrConfig) {
			return err
		}
	}
	if err := be.store.Save(ctx, rules.Default()); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess("Wrote starter rules to "+settings.DatabasePath))
	return nil
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every keyword",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, _ *config.Settings, be *backend) error {
				rs, err := be.store.Load(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRuleSet(rs))
				return nil
			})
		},
	}
}

func rulesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the rules and report suspicious keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, _ *config.Settings, be *backend) error {
				return runRulesCheck(ctx, be, cmd.OutOrStdout())
			})
		},
	}
}

// ruleProblem is a warning about a single keyword.
type ruleProblem struct {
	category model.Category
	keyword  string
	message  string
}

// checkRuleSet reports keywords that behave unexpectedly: duplicates,
// empty keywords that match every row, and keywords that can never
// match because normalized text contains no such characters.
func checkRuleSet(rs *model.RuleSet) []ruleProblem {
	var problems []ruleProblem

	for _, c := range model.Categories() {
		seen := make(map[string]bool)
		for _, kw := range rs.Keywords(c) {
			switch {
			case kw == "":
				problems = append(problems, ruleProblem{c, kw, "empty keyword matches every row"})
			case normalize.Text(kw) != kw:
				problems = append(problems, ruleProblem{c, kw, fmt.Sprintf("never matches normalized text; use %q", normalize.Text(kw))})
			}
			if seen[kw] {
				problems = append(problems, ruleProblem{c, kw, "duplicate keyword"})
			}
			seen[kw] = true
		}
	}

	for _, kw := range rs.Keywords(model.CategoryActive) {
		if kw != "" && rs.Has(model.CategoryPassive, kw) {
			problems = append(problems, ruleProblem{model.CategoryPassive, kw, "also an active keyword; active wins"})
		}
	}

	return problems
}

func runRulesCheck(ctx context.Context, be *backend, out io.Writer) error {
	rs, err := be.store.Load(ctx)
	if err != nil {
		return err
	}

	problems := checkRuleSet(rs)
	for _, p := range problems {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s %q: %s", p.category, p.keyword, p.message)))
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Rules are valid: %d ignore, %d active, %d passive keywords",
		len(rs.IgnoreIfContains), len(rs.ActiveKeywords), len(rs.PassiveKeywords))))
	if len(problems) > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d warning(s)", len(problems))))
	}
	return nil
}

func rulesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <category> <keyword>...",
		Short: "Add keywords to a category (ignore, active, passive)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := model.ParseCategory(args[0])
			if err != nil {
				return common.NewUserError("invalid category", err)
			}
			return withBackend(cmd, func(ctx context.Context, _ *config.Settings, be *backend) error {
				return runRulesAdd(ctx, be, category, args[1:], time.Now(), cmd.OutOrStdout())
			})
		},
	}
}

// runRulesAdd adds normalized keywords to category and records the
// change like a learned update.
func runRulesAdd(ctx context.Context, be *backend, category model.Category, keywords []string, at time.Time, out io.Writer) error {
	rs, err := be.store.Load(ctx)
	if err != nil {
		return err
	}

	updated := rs.Clone()
	record := model.ChangeRecord{Timestamp: at}
	for _, raw := range keywords {
		kw := normalize.Text(raw)
		if kw == "" || updated.Has(category, kw) {
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Skipped %q", raw)))
			continue
		}
		updated.Append(category, kw)
		record.Changes = append(record.Changes, model.AddedKeyword(kw, category))
	}

	if record.Empty() {
		return nil
	}
	if err := be.store.Save(ctx, updated); err != nil {
		return err
	}
	if err := be.log.Append(ctx, record); err != nil {
		return err
	}

	for _, change := range record.Changes {
		fmt.Fprintln(out, cli.FormatSuccess(change))
	}
	return nil
}

func rulesExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <text>",
		Short: "Show which rule classifies a piece of text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(ctx context.Context, _ *config.Settings, be *backend) error {
				rs, err := be.store.Load(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), explain(args[0], rs))
				return nil
			})
		},
	}
}

func explain(text string, rs *model.RuleSet) string {
	normalized := normalize.Text(text)
	match := pattern.ExplainText(normalized, rs)

	line := fmt.Sprintf("%s %s", cli.FormatLabel(match.Label), cli.SubtleStyle.Render(fmt.Sprintf("(normalized %q)", normalized)))
	if match.Keyword != "" || match.Category != "" {
		line += fmt.Sprintf("\n  matched %q in %s", match.Keyword, match.Category)
	}
	return line
}

func rulesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the rules with the contents of a YAML rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(ctx context.Context, _ *config.Settings, be *backend) error {
				return runRulesImport(ctx, be, args[0], cmd.OutOrStdout())
			})
		},
	}
}

func runRulesImport(ctx context.Context, be *backend, path string, out io.Writer) error {
	rs, err := rules.NewFileStore(path).Load(ctx)
	if err != nil {
		return err
	}
	if err := be.store.Save(ctx, rs); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d keywords from %s", rs.Size(), path)))
	return nil
}

func rulesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the rules as YAML to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(ctx context.Context, _ *config.Settings, be *backend) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				return runRulesExport(ctx, be, path, cmd.OutOrStdout())
			})
		},
	}
}

func runRulesExport(ctx context.Context, be *backend, path string, out io.Writer) error {
	rs, err := be.store.Load(ctx)
	if err != nil {
		return err
	}

	if path != "" {
		if err := rules.NewFileStore(path).Save(ctx, rs); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Exported rules to "+path))
		return nil
	}

	data, err := rules.Marshal(rs)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	return nil
}
