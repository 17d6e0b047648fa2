package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/beanflow/beanflow/internal/model"
)

var errMissingHeader = errors.New("no header row found in export")

// genericParser reads a plain CSV with english column names. The header must
// be the first row: time, peer, item, category, type, amount, currency.
// Unknown columns are preserved in the raw payload.
type genericParser struct {
	logger *slog.Logger
}

func (p *genericParser) Provider() string { return "generic" }

func (p *genericParser) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errMissingHeader
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	cols := indexColumns(header)
	if _, ok := cols["time"]; !ok {
		return nil, errMissingHeader
	}

	var out []model.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		t, err := parseTime(get("time"))
		if err != nil {
			p.logger.Warn("skipping row with bad timestamp", "value", get("time"))
			continue
		}
		amount, err := parseAmount(get("amount"))
		if err != nil {
			p.logger.Warn("skipping row with bad amount", "value", get("amount"))
			continue
		}

		raw := make(map[string]string, len(record))
		for name, i := range cols {
			if i < len(record) {
				raw[name] = strings.TrimSpace(record[i])
			}
		}

		currency := get("currency")
		if currency == "" {
			currency = "CNY"
		}

		txn := model.Transaction{
			Time:     t,
			Peer:     get("peer"),
			Item:     get("item"),
			Category: get("category"),
			Type:     parseDirection(get("type")),
			Amount:   amount,
			Currency: currency,
			Raw:      raw,
		}
		if done, ok := finalize(txn, "generic"); ok {
			out = append(out, done)
		}
	}

	p.logger.Info("parsed generic export", "transactions", len(out))
	return out, nil
}

// splitHeader splits a raw header line on commas. Provider headers contain
// no quoted fields, so a plain split is enough.
func splitHeader(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// indexColumns maps column names to their positions.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if name != "" {
			cols[name] = i
		}
	}
	return cols
}
