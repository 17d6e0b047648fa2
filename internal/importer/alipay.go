package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"

	"github.com/beanflow/beanflow/internal/model"
)

// alipayParser reads Alipay bill exports. The export is GBK in the wild but
// callers are expected to hand over UTF-8; transcoding is out of scope here.
type alipayParser struct {
	logger *slog.Logger
}

func (p *alipayParser) Provider() string { return "alipay" }

func (p *alipayParser) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header []string
	var lines []string
	inBody := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inBody {
			if strings.Contains(line, "交易时间") && strings.Contains(line, "金额") {
				header = splitHeader(line)
				inBody = true
			}
			continue
		}
		// The export closes with a summary block separated by dashes.
		if strings.HasPrefix(strings.TrimSpace(line), "---") {
			break
		}
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, errMissingHeader
	}

	cols := indexColumns(header)

	var out []model.Transaction
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
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

		txn, ok := p.parseRecord(record, cols)
		if !ok {
			continue
		}
		out = append(out, txn)
	}

	p.logger.Info("parsed alipay export", "transactions", len(out))
	return out, nil
}

func (p *alipayParser) parseRecord(record []string, cols map[string]int) (model.Transaction, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	status := get("交易状态")
	if status != "" && status != "交易成功" {
		return model.Transaction{}, false
	}

	t, err := parseTime(get("交易时间"))
	if err != nil {
		p.logger.Warn("skipping row with bad timestamp", "value", get("交易时间"))
		return model.Transaction{}, false
	}
	amount, err := parseAmount(get("金额"))
	if err != nil {
		p.logger.Warn("skipping row with bad amount", "value", get("金额"))
		return model.Transaction{}, false
	}

	raw := make(map[string]string, len(record))
	for name, i := range cols {
		if i < len(record) {
			raw[name] = strings.TrimSpace(record[i])
		}
	}

	txn := model.Transaction{
		Time:     t,
		Peer:     get("交易对方"),
		Item:     get("商品说明"),
		Category: get("交易分类"),
		Type:     parseDirection(get("收/支")),
		Amount:   amount,
		Currency: "CNY",
		Raw:      raw,
	}
	return finalize(txn, "alipay")
}
