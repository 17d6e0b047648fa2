package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/beanflow/beanflow/internal/cli"
	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/ledger"
	"github.com/beanflow/beanflow/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage classification rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeactivateCmd())
	cmd.AddCommand(rulesExportCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rules",
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

			rules, err := db.ListActiveRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			fmt.Println(cli.FormatTitle("Active rules"))
			fmt.Print(cli.RenderRulesTable(rules))
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user rule",
		Long: `Add a user rule matching on peer and/or item. User rules always win
over learned rules and the oracle.

Examples:
  beanflow rules add --name "coffee" --peer "Corner Coffee" --account Expenses:Dining
  beanflow rules add --name "salary" --item "monthly payroll" --account Income:Salary`,
		RunE: runRulesAdd,
	}

	cmd.Flags().String("name", "", "rule name (required)")
	cmd.Flags().String("account", "", "target account (required)")
	cmd.Flags().String("peer", "", "match transactions with this counterparty")
	cmd.Flags().String("item", "", "match transactions with this item description")

	_ = viper.BindPFlag("rules.name", cmd.Flags().Lookup("name"))
	_ = viper.BindPFlag("rules.account", cmd.Flags().Lookup("account"))
	_ = viper.BindPFlag("rules.peer", cmd.Flags().Lookup("peer"))
	_ = viper.BindPFlag("rules.item", cmd.Flags().Lookup("item"))

	return cmd
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	name := viper.GetString("rules.name")
	account := viper.GetString("rules.account")
	peer := viper.GetString("rules.peer")
	item := viper.GetString("rules.item")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if chart := cfg.BuildChart(); !chart.Contains(account) {
		return fmt.Errorf("%w: account %q is not in the chart of accounts",
			common.ErrInvalidRule, account)
	}

	var conditions []model.Condition
	if peer != "" {
		conditions = append(conditions, model.Condition{
			Field: model.FieldPeer, Operator: model.OpEquals, Value: peer,
		})
	}
	if item != "" {
		conditions = append(conditions, model.Condition{
			Field: model.FieldItem, Operator: model.OpEquals, Value: item,
		})
	}

	r := model.Rule{
		ID:         uuid.NewString(),
		Name:       name,
		Account:    account,
		Conditions: conditions,
		Confidence: 1.0,
		Source:     model.RuleSourceUser,
		IsActive:   true,
	}

	db, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage(db)
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.SaveRule(ctx, &r); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("added rule %q (%s)", r.Name, r.ID)))
	return nil
}

func rulesDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <rule-id>",
		Short: "Deactivate a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := db.DeactivateRule(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to deactivate rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("deactivated rule %s", args[0])))
			return nil
		},
	}
}

func rulesExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export active rules as a double-entry-generator config",
		RunE:  runRulesExport,
	}

	cmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringP("provider", "p", "alipay", "target provider section (alipay, wechat)")
	_ = viper.BindPFlag("rules.export_output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("rules.export_provider", cmd.Flags().Lookup("provider"))

	return cmd
}

func runRulesExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	output := viper.GetString("rules.export_output")
	provider := viper.GetString("rules.export_provider")

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

	rules, err := db.ListActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	mapping := ledger.NewMapping(rules, provider,
		cfg.Chart.AssetAccount, cfg.Chart.DefaultAccount, cfg.Generator.Currency)

	if output != "" {
		if err := mapping.WriteFile(output); err != nil {
			return err
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("wrote %s", output)))
		return nil
	}

	data, err := yaml.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
