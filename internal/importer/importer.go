// Package importer parses payment-platform CSV exports into transactions.
// Each provider export carries a human-oriented preamble before the header
// row; parsers scan for the header and read records from there.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beanflow/beanflow/internal/model"
)

// Parser converts one provider's CSV stream into transactions.
type Parser interface {
	Provider() string
	Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error)
}

// NewParser returns the parser for a provider name.
func NewParser(provider string, logger *slog.Logger) (Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch provider {
	case "alipay":
		return &alipayParser{logger: logger}, nil
	case "wechat":
		return &wechatParser{logger: logger}, nil
	case "generic", "":
		return &genericParser{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported import provider: %s", provider)
	}
}

// ImportFile parses a CSV export file with the named provider's parser.
func ImportFile(ctx context.Context, path, provider string, logger *slog.Logger) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	p, err := NewParser(provider, logger)
	if err != nil {
		return nil, err
	}

	transactions, err := p.Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s export: %w", p.Provider(), err)
	}
	return transactions, nil
}

// parseTime accepts the timestamp layouts seen across provider exports.
func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006/01/02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// parseAmount strips currency symbols and separators before parsing.
func parseAmount(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimPrefix(cleaned, "¥")
	cleaned = strings.TrimPrefix(cleaned, "￥")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable amount %q", value)
	}
	return amount, nil
}

// parseDirection maps the provider's 收/支 column to a transaction type.
func parseDirection(value string) model.TransactionType {
	switch strings.TrimSpace(value) {
	case "收入", "income":
		return model.TypeIncome
	case "支出", "expense":
		return model.TypeExpense
	default:
		return model.TypeTransfer
	}
}

// finalize stamps identity fields and drops rows with no usable content.
func finalize(txn model.Transaction, provider string) (model.Transaction, bool) {
	if txn.Peer == "" && txn.Item == "" {
		return txn, false
	}
	txn.Provider = provider
	txn.ID = uuid.NewString()
	txn.Hash = txn.GenerateHash()
	return txn, true
}
