package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/Veraticus/accusync/internal/cli"
	"github.com/Veraticus/accusync/internal/common"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/pattern"
	"github.com/Veraticus/accusync/internal/storage"
	"github.com/spf13/cobra"
)

var patternKinds = []model.PatternKind{model.KindProductType, model.KindDevice, model.KindSize}

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Inspect and prune learned patterns",
		Long: `List, summarize and delete the patterns learned from operator
corrections and automatic detections.`,
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsStatsCmd())
	cmd.AddCommand(patternsDeleteCmd())

	return cmd
}

// openPatternStores opens the local store without the optional sources.
func openPatternStores(ctx context.Context) (*storage.SQLiteStorage, map[model.PatternKind]*pattern.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, patternStores(store), nil
}

func parseKind(s string) (model.PatternKind, error) {
	kind := model.PatternKind(s)
	if !kind.Valid() {
		return "", common.NewUserError(
			fmt.Sprintf("unknown pattern kind %q (use product_type, device or size)", s), nil)
	}
	return kind, nil
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			kindFlag, _ := cmd.Flags().GetString("kind")
			target, _ := cmd.Flags().GetString("target")

			kinds := patternKinds
			if kindFlag != "" {
				kind, err := parseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = []model.PatternKind{kind}
			}

			store, stores, err := openPatternStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var patterns []model.LearnedPattern
			for _, kind := range kinds {
				var found []model.LearnedPattern
				if target != "" {
					found, err = stores[kind].ListByTarget(ctx, target)
				} else {
					found, err = stores[kind].List(ctx)
				}
				if err != nil {
					return fmt.Errorf("failed to list %s patterns: %w", kind, err)
				}
				patterns = append(patterns, found...)
			}

			if len(patterns) == 0 {
				slog.Info("No learned patterns found")
				return nil
			}
			return writePatternTable(cmd.OutOrStdout(), patterns)
		},
	}

	cmd.Flags().StringP("kind", "k", "", "Only list one kind (product_type, device, size)")
	cmd.Flags().StringP("target", "t", "", "Only list patterns for this value")
	return cmd
}

func writePatternTable(out io.Writer, patterns []model.LearnedPattern) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tPATTERN\tVALUE\tAUXILIARY\tSOURCE\tCONFIDENCE\tUSES")
	_, _ = fmt.Fprintln(w, "──\t────\t───────\t─────\t─────────\t──────\t──────────\t────")
	for _, p := range patterns {
		aux := p.Auxiliary
		if aux == "" {
			aux = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.0f%%\t%d\n",
			p.ID, p.Kind, truncate(p.Pattern, 30), p.TargetValue, aux, p.Source, p.Confidence*100, p.UsageCount)
	}
	return w.Flush()
}

func patternsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the learned pattern stores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, stores, err := openPatternStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "KIND\tTOTAL\tMANUAL\tAUTO\tUSES")
			for _, kind := range patternKinds {
				stats, err := stores[kind].Stats(ctx)
				if err != nil {
					return fmt.Errorf("failed to get %s stats: %w", kind, err)
				}
				_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", kind, stats.Total, stats.Manual, stats.Auto, stats.TotalUsage)
			}
			return w.Flush()
		},
	}
}

func patternsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a learned pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("invalid pattern ID: %s", args[1]), err)
			}
			skipConfirm, _ := cmd.Flags().GetBool("yes")

			if !skipConfirm {
				reader := cli.NewNonBlockingReader(os.Stdin)
				ok, err := reader.Confirm(ctx, cmd.OutOrStdout(), fmt.Sprintf("Delete %s pattern %d?", kind, id))
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Deletion cancelled"))
					return nil
				}
			}

			store, stores, err := openPatternStores(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			autoCheckpoint(ctx, store, "pattern-delete")
			if err := stores[kind].Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete pattern %d: %w", id, err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s pattern %d", kind, id)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
	return cmd
}
