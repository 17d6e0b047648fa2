package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beanflow/beanflow/internal/cli"
	"github.com/beanflow/beanflow/internal/importer"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a payment-platform CSV export",
		Long: `Import transactions from a CSV bill export.

Duplicate transactions are detected by content hash and skipped, so
re-importing an overlapping export is safe.

Examples:
  beanflow import --provider alipay alipay_record.csv
  beanflow import --provider wechat wechat_bill.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("provider", "p", "alipay", "export format (alipay, wechat, generic)")
	_ = viper.BindPFlag("import.provider", cmd.Flags().Lookup("provider"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider := viper.GetString("import.provider")

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

	transactions, err := importer.ImportFile(ctx, args[0], provider, slog.Default())
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Println(cli.FormatWarning("no transactions found in export"))
		return nil
	}

	if err := db.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d transactions from %s", len(transactions), args[0])))
	return nil
}
