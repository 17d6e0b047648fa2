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

// wechatParser reads WeChat Pay bill exports.
type wechatParser struct {
	logger *slog.Logger
}

func (p *wechatParser) Provider() string { return "wechat" }

func (p *wechatParser) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header []string
	var lines []string
	inBody := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inBody {
			if strings.Contains(line, "交易时间") && strings.Contains(line, "交易对方") {
				header = splitHeader(line)
				inBody = true
			}
			continue
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

	p.logger.Info("parsed wechat export", "transactions", len(out))
	return out, nil
}

func (p *wechatParser) parseRecord(record []string, cols map[string]int) (model.Transaction, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	// Refunded or reverted transactions are not real cash flow.
	status := get("当前状态")
	if strings.Contains(status, "退款") || strings.Contains(status, "已退还") {
		return model.Transaction{}, false
	}

	t, err := parseTime(get("交易时间"))
	if err != nil {
		p.logger.Warn("skipping row with bad timestamp", "value", get("交易时间"))
		return model.Transaction{}, false
	}
	amount, err := parseAmount(get("金额(元)"))
	if err != nil {
		p.logger.Warn("skipping row with bad amount", "value", get("金额(元)"))
		return model.Transaction{}, false
	}

	raw := make(map[string]string, len(record))
	for name, i := range cols {
		if i < len(record) {
			raw[name] = strings.TrimSpace(record[i])
		}
	}

	item := get("商品")
	if item == "/" {
		item = ""
	}

	txn := model.Transaction{
		Time:     t,
		Peer:     get("交易对方"),
		Item:     item,
		Category: get("交易类型"),
		Type:     parseDirection(get("收/支")),
		Amount:   amount,
		Currency: "CNY",
		Raw:      raw,
	}
	return finalize(txn, "wechat")
}
