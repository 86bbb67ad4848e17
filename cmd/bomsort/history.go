package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/bomsort/internal/cli"
	"github.com/Veraticus/bomsort/internal/config"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the rule change log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, _ *config.Settings, be *backend) error {
				return runHistory(ctx, be, limit, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the most recent n updates")
	return cmd
}

func runHistory(ctx context.Context, be *backend, limit int, out io.Writer) error {
	records, err := be.log.Entries(ctx)
	if err != nil {
		return err
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	fmt.Fprintln(out, cli.RenderHistory(records))
	return nil
}
