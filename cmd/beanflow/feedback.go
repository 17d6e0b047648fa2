package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beanflow/beanflow/internal/cli"
	"github.com/beanflow/beanflow/internal/feedback"
	"github.com/beanflow/beanflow/internal/model"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record and inspect classification feedback",
	}

	cmd.AddCommand(feedbackRecordCmd())
	cmd.AddCommand(feedbackListCmd())

	return cmd
}

func feedbackRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <transaction-id>",
		Short: "Record feedback on a classification",
		Long: `Record a verdict on the current classification of a transaction.

Accept confirms the assigned account. Reject flags it as wrong without
naming a replacement. Modify replaces the account and immediately becomes
the current classification; enough consistent modifications for one
counterparty later synthesize into a learned rule.

Examples:
  beanflow feedback record <id> --action accept
  beanflow feedback record <id> --action modify --account Expenses:Groceries`,
		Args: cobra.ExactArgs(1),
		RunE: runFeedbackRecord,
	}

	cmd.Flags().String("action", "accept", "verdict (accept, reject, modify)")
	cmd.Flags().String("account", "", "corrected account (required for modify)")
	_ = viper.BindPFlag("feedback.action", cmd.Flags().Lookup("action"))
	_ = viper.BindPFlag("feedback.account", cmd.Flags().Lookup("account"))

	return cmd
}

func runFeedbackRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	action := model.FeedbackAction(viper.GetString("feedback.action"))
	account := viper.GetString("feedback.account")

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

	recorder := feedback.NewRecorder(db, cfg.BuildChart(), slog.Default())
	if _, err := recorder.Record(ctx, args[0], "", account, action); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("recorded %s for %s", action, args[0])))
	return nil
}

func feedbackListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded feedback",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

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

			records, err := db.ListFeedback(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to list feedback: %w", err)
			}
			if len(records) == 0 {
				fmt.Println(cli.FormatInfo("no feedback recorded"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Feedback"))
			for _, fb := range records {
				line := fmt.Sprintf("%s  %-8s %s", fb.CreatedAt.Format("2006-01-02 15:04"), fb.Action, fb.TransactionID)
				if fb.Action == model.ActionModify {
					line += fmt.Sprintf("  %s -> %s", fb.OriginalAccount, fb.CorrectedAccount)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
