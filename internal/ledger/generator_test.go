package ledger

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/model"
)

func ledgerEntries() []Entry {
	return []Entry{
		{
			Transaction: model.Transaction{
				ID:       "t1",
				Time:     time.Date(2024, 3, 15, 12, 30, 1, 0, time.UTC),
				Peer:     "Corner Coffee",
				Item:     "latte",
				Category: "餐饮美食",
				Type:     model.TypeExpense,
				Amount:   28.5,
				Currency: "CNY",
				Provider: "alipay",
			},
			Account: "Expenses:Dining",
		},
		{
			Transaction: model.Transaction{
				ID:       "t2",
				Time:     time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC),
				Peer:     "Employer",
				Item:     "payroll",
				Type:     model.TypeIncome,
				Amount:   12000,
				Currency: "CNY",
				Provider: "alipay",
			},
			Account: "Income:Salary",
		},
	}
}

func TestWriteCSVAlipayLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, writeCSV(path, ledgerEntries(), "alipay"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "交易时间", records[0][0])
	assert.Equal(t, "2024-03-15 12:30:01", records[1][0])
	assert.Equal(t, "支出", records[1][2])
	assert.Equal(t, "28.50", records[1][3])
	assert.Equal(t, "Corner Coffee", records[1][4])
	assert.Equal(t, "收入", records[2][2])
}

func TestGenerateRequiresEntries(t *testing.T) {
	g := NewGenerator("", 0, nil)

	_, err := g.Generate(context.Background(), nil, "alipay", Mapping{})
	assert.Error(t, err)
}

func TestCheckInstalledMissingBinary(t *testing.T) {
	g := NewGenerator("definitely-not-a-real-binary-9271", 0, nil)
	assert.False(t, g.CheckInstalled(context.Background()))
}
