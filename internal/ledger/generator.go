// Package ledger hands finalized classifications off to the external
// double-entry-generator CLI, which produces the actual ledger-format text.
// This package never parses ledger syntax itself.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/beanflow/beanflow/internal/model"
)

// Entry pairs a transaction with its finalized account.
type Entry struct {
	Transaction model.Transaction
	Account     string
}

// Generator invokes the double-entry-generator CLI.
type Generator struct {
	logger  *slog.Logger
	binPath string
	timeout time.Duration
}

// NewGenerator creates a generator. binPath defaults to
// "double-entry-generator" resolved from PATH.
func NewGenerator(binPath string, timeout time.Duration, logger *slog.Logger) *Generator {
	if binPath == "" {
		binPath = "double-entry-generator"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		binPath: binPath,
		timeout: timeout,
		logger:  logger,
	}
}

// CheckInstalled reports whether the CLI is available.
func (g *Generator) CheckInstalled(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, g.binPath, "--version").Run() == nil
}

// Generate writes the entries and mapping config to a temporary workspace,
// runs the CLI, and returns the generated ledger text. Tool failures are
// exit-code style: the error carries stderr but nothing is parsed.
func (g *Generator) Generate(ctx context.Context, entries []Entry, provider string, mapping Mapping) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no entries to generate")
	}
	if provider == "" {
		provider = "alipay"
	}

	tmpDir, err := os.MkdirTemp("", "beanflow-deg-*")
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	csvFile := filepath.Join(tmpDir, "transactions.csv")
	if err := writeCSV(csvFile, entries, provider); err != nil {
		return "", err
	}

	configFile := filepath.Join(tmpDir, "config.yaml")
	if err := mapping.WriteFile(configFile); err != nil {
		return "", err
	}

	outputFile := filepath.Join(tmpDir, "output.beancount")

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.binPath, "translate",
		"--config", configFile,
		"--provider", provider,
		"--output", outputFile,
		csvFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("double-entry-generator timed out after %s", g.timeout)
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("double-entry-generator not installed or not in PATH: %w", err)
		}
		return "", fmt.Errorf("double-entry-generator failed: %w: %s", err, string(output))
	}

	content, err := os.ReadFile(outputFile)
	if err != nil {
		return "", fmt.Errorf("output file not generated: %w", err)
	}

	g.logger.Info("generated ledger file",
		"entries", len(entries),
		"provider", provider,
		"bytes", len(content))

	return string(content), nil
}

// writeCSV writes entries in the column layout the provider parser expects.
func writeCSV(path string, entries []Entry, provider string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	var header []string
	switch provider {
	case "alipay":
		header = []string{"交易时间", "商品说明", "收/支", "金额", "交易对方", "交易状态"}
	case "wechat":
		header = []string{"交易时间", "商品", "收/支", "金额(元)", "交易类型", "交易对方", "当前状态"}
	default:
		header = []string{"time", "item", "type", "amount", "peer", "status"}
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, e := range entries {
		txn := e.Transaction
		timeStr := txn.Time.Format("2006-01-02 15:04:05")
		amountStr := fmt.Sprintf("%.2f", txn.Amount)
		typeStr := directionLabel(txn.Type, provider)
		status := txn.Raw["status"]
		if status == "" {
			status = successLabel(provider)
		}

		var row []string
		switch provider {
		case "alipay":
			row = []string{timeStr, txn.Item, typeStr, amountStr, txn.Peer, status}
		case "wechat":
			row = []string{timeStr, txn.Item, typeStr, amountStr, txn.Category, txn.Peer, status}
		default:
			row = []string{timeStr, txn.Item, string(txn.Type), amountStr, txn.Peer, status}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func directionLabel(t model.TransactionType, provider string) string {
	if provider != "alipay" && provider != "wechat" {
		return string(t)
	}
	switch t {
	case model.TypeIncome:
		return "收入"
	case model.TypeExpense:
		return "支出"
	default:
		return "/"
	}
}

func successLabel(provider string) string {
	if provider == "alipay" || provider == "wechat" {
		return "交易成功"
	}
	return "success"
}
