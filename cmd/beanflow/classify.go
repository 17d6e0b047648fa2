package main

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beanflow/beanflow/internal/cli"
	"github.com/beanflow/beanflow/internal/resolver"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Resolve accounts for unclassified transactions",
		Long: `Resolve an account for every transaction that has no current
classification, using rules first and the LLM oracle where rules are silent.

Interrupting mid-batch is safe: finished classifications are already
persisted and the remainder is picked up on the next run.

Examples:
  beanflow classify
  beanflow classify --limit 50
  beanflow classify --workers 8`,
		RunE: runClassify,
	}

	cmd.Flags().IntP("limit", "n", 0, "maximum transactions to classify (0 = all)")
	cmd.Flags().IntP("workers", "w", 0, "concurrent classifications (0 = config default)")
	cmd.Flags().BoolP("verbose", "v", false, "print each classification as it lands")

	_ = viper.BindPFlag("classify.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("classify.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("classify.verbose", cmd.Flags().Lookup("verbose"))

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit := viper.GetInt("classify.limit")
	verbose := viper.GetBool("classify.verbose")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if workers := viper.GetInt("classify.workers"); workers > 0 {
		cfg.Workers = workers
	}

	db, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage(db)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pending, err := db.GetTransactionsToResolve(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	if len(pending) == 0 {
		fmt.Println(cli.FormatInfo("nothing to classify"))
		return nil
	}

	r, adapter, err := buildResolver(cfg, db)
	if err != nil {
		return err
	}
	defer adapter.Close()

	txnByID := make(map[string]int, len(pending))
	for i, txn := range pending {
		txnByID[txn.ID] = i
	}

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription("classifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	stats, err := r.ResolveBatch(ctx, pending, func(res resolver.BatchResult) {
		_ = bar.Add(1)
		if res.Err != nil {
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", res.TransactionID, res.Err)))
			return
		}
		if verbose {
			if i, ok := txnByID[res.TransactionID]; ok {
				fmt.Println(cli.RenderClassification(pending[i], res.Classification))
			}
		}
	})

	fmt.Println(cli.RenderStats(stats))

	if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
		fmt.Println(cli.FormatWarning("interrupted; run classify again to finish the rest"))
		return nil
	}
	return err
}
