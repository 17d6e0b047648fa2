package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beanflow/beanflow/internal/cli"
	"github.com/beanflow/beanflow/internal/ledger"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate ledger output from classified transactions",
		Long: `Run double-entry-generator over classified transactions and print (or
write) the resulting ledger text. Only transactions with a current
classification are included.

Examples:
  beanflow generate
  beanflow generate --provider wechat -o ledger.beancount`,
		RunE: runGenerate,
	}

	cmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringP("provider", "p", "alipay", "transaction provider to generate for (alipay, wechat)")
	_ = viper.BindPFlag("generate.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("generate.provider", cmd.Flags().Lookup("provider"))

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	output := viper.GetString("generate.output")
	provider := viper.GetString("generate.provider")

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

	classifications, err := db.ListCurrentClassifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to list classifications: %w", err)
	}

	var entries []ledger.Entry
	for _, c := range classifications {
		txn, err := db.GetTransaction(ctx, c.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to load transaction %s: %w", c.TransactionID, err)
		}
		if txn.Provider != provider {
			continue
		}
		entries = append(entries, ledger.Entry{Transaction: *txn, Account: c.Account})
	}
	if len(entries) == 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("no classified %s transactions to generate", provider)))
		return nil
	}

	rules, err := db.ListActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}
	mapping := ledger.NewMapping(rules, provider,
		cfg.Chart.AssetAccount, cfg.Chart.DefaultAccount, cfg.Generator.Currency)

	gen := ledger.NewGenerator(cfg.Generator.BinPath, cfg.Generator.Timeout, slog.Default())
	if !gen.CheckInstalled(ctx) {
		return fmt.Errorf("double-entry-generator is not installed; see https://github.com/deb-sig/double-entry-generator")
	}

	text, err := gen.Generate(ctx, entries, provider, mapping)
	if err != nil {
		return err
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(text), 0o600); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("wrote %d entries to %s", len(entries), output)))
		return nil
	}

	fmt.Print(text)
	return nil
}
