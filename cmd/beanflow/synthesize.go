package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beanflow/beanflow/internal/cli"
	"github.com/beanflow/beanflow/internal/feedback"
)

func synthesizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Learn rules from accumulated feedback",
		Long: `Scan recorded corrections and synthesize learned rules for
counterparties with enough consistent corrections.

Examples:
  beanflow synthesize
  beanflow synthesize --since 2024-01-01`,
		RunE: runSynthesize,
	}

	cmd.Flags().String("since", "", "only consider feedback recorded on or after this date (YYYY-MM-DD)")
	_ = viper.BindPFlag("synthesize.since", cmd.Flags().Lookup("since"))

	return cmd
}

func runSynthesize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var since *time.Time
	if s := viper.GetString("synthesize.since"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
		}
		since = &parsed
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage(db)
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	synth := feedback.NewSynthesizer(db, feedback.SynthesizerConfig{
		SupportThreshold: cfg.Synthesis.SupportThreshold,
		ConfidenceCap:    cfg.Synthesis.ConfidenceCap,
	}, slog.Default())

	rules, err := synth.Synthesize(ctx, since)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}
	if len(rules) == 0 {
		fmt.Println(cli.FormatInfo("no new rules; not enough consistent feedback yet"))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Learned %d rules", len(rules))))
	fmt.Print(cli.RenderRulesTable(rules))
	return nil
}
