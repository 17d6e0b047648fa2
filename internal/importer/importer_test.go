package importer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const alipaySample = `支付宝交易记录明细查询
账号:[test@example.com]
起始日期:[2024-03-01 00:00:00]
---------------------------------交易记录明细列表------------------------------------
交易时间,交易分类,交易对方,商品说明,收/支,金额,收/付款方式,交易状态
2024-03-15 12:30:01,餐饮美食,Corner Coffee,latte,支出,28.50,余额宝,交易成功
2024-03-16 09:10:00,日用百货,Super Market,apples,支出,102.00,余额宝,交易成功
2024-03-17 10:00:00,转账红包,Friend,transfer,不计收支,50.00,余额,交易关闭
---------------------------------------------------------------------------------
共3笔记录
`

const wechatSample = `微信支付账单明细
微信昵称:[test]
----------------------微信支付账单明细列表--------------------
交易时间,交易类型,交易对方,商品,收/支,金额(元),支付方式,当前状态,交易单号
2024-03-15 12:30:01,商户消费,Corner Coffee,latte,支出,¥28.50,零钱,支付成功,10001
2024-03-18 18:00:00,转账,Friend,/,支出,¥200.00,零钱,朋友已收钱,10002
`

func TestAlipayParse(t *testing.T) {
	p := &alipayParser{logger: testLogger()}

	txns, err := p.Parse(context.Background(), strings.NewReader(alipaySample))
	require.NoError(t, err)
	require.Len(t, txns, 2, "closed transactions are skipped")

	first := txns[0]
	assert.Equal(t, "Corner Coffee", first.Peer)
	assert.Equal(t, "latte", first.Item)
	assert.Equal(t, "餐饮美食", first.Category)
	assert.Equal(t, model.TypeExpense, first.Type)
	assert.InDelta(t, 28.50, first.Amount, 0.0001)
	assert.Equal(t, "CNY", first.Currency)
	assert.Equal(t, "alipay", first.Provider)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.Hash)
	assert.Equal(t, "交易成功", first.Raw["交易状态"])
}

func TestAlipayParseNoHeader(t *testing.T) {
	p := &alipayParser{logger: testLogger()}

	_, err := p.Parse(context.Background(), strings.NewReader("just,some,noise\n"))
	require.ErrorIs(t, err, errMissingHeader)
}

func TestWechatParse(t *testing.T) {
	p := &wechatParser{logger: testLogger()}

	txns, err := p.Parse(context.Background(), strings.NewReader(wechatSample))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	first := txns[0]
	assert.Equal(t, "Corner Coffee", first.Peer)
	assert.Equal(t, "latte", first.Item)
	assert.Equal(t, "商户消费", first.Category)
	assert.InDelta(t, 28.50, first.Amount, 0.0001, "currency symbol is stripped")
	assert.Equal(t, "wechat", first.Provider)

	second := txns[1]
	assert.Empty(t, second.Item, "the placeholder slash becomes an empty item")
	assert.Equal(t, "Friend", second.Peer)
}

func TestGenericParse(t *testing.T) {
	sample := `time,peer,item,category,type,amount,currency
2024-03-15 12:30:01,Corner Coffee,latte,dining,expense,28.50,CNY
2024-03-16 08:00:00,Employer,march payroll,salary,income,12000,CNY
`
	p := &genericParser{logger: testLogger()}

	txns, err := p.Parse(context.Background(), strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, model.TypeExpense, txns[0].Type)
	assert.Equal(t, model.TypeIncome, txns[1].Type)
	assert.Equal(t, "generic", txns[0].Provider)
}

func TestGenericParseSkipsBadRows(t *testing.T) {
	sample := `time,peer,amount
not-a-date,Shop,10
2024-03-15 12:30:01,Shop,not-a-number
2024-03-15 12:30:01,Shop,10
`
	p := &genericParser{logger: testLogger()}

	txns, err := p.Parse(context.Background(), strings.NewReader(sample))
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestNewParser(t *testing.T) {
	for _, provider := range []string{"alipay", "wechat", "generic"} {
		p, err := NewParser(provider, testLogger())
		require.NoError(t, err)
		assert.Equal(t, provider, p.Provider())
	}

	_, err := NewParser("paypal", testLogger())
	assert.Error(t, err)
}

func TestImportedHashesAreStable(t *testing.T) {
	p := &alipayParser{logger: testLogger()}

	first, err := p.Parse(context.Background(), strings.NewReader(alipaySample))
	require.NoError(t, err)
	second, err := p.Parse(context.Background(), strings.NewReader(alipaySample))
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.NotEqual(t, first[i].ID, second[i].ID, "every import mints fresh IDs")
		assert.Equal(t, first[i].Hash, second[i].Hash, "content hashes must be stable for dedup")
	}
}
