package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/beanflow/beanflow/internal/model"
)

func mappingRules() []model.Rule {
	min, max := 10.0, 100.0
	return []model.Rule{
		{
			ID: "r1", Name: "coffee", Account: "Expenses:Dining",
			Source: model.RuleSourceUser, IsActive: true,
			Conditions: []model.Condition{
				{Field: model.FieldPeer, Operator: model.OpEquals, Value: "Corner Coffee"},
			},
		},
		{
			ID: "r2", Name: "groceries", Account: "Expenses:Groceries",
			Source: model.RuleSourceLearned, IsActive: true,
			Conditions: []model.Condition{
				{Field: model.FieldItem, Operator: model.OpIn, Values: []string{"apples", "bread"}},
			},
		},
		{
			ID: "r3", Name: "amount-only", Account: "Expenses:Big",
			Source: model.RuleSourceUser, IsActive: true,
			Conditions: []model.Condition{
				{Field: model.FieldAmount, Operator: model.OpRange, Min: &min, Max: &max},
			},
		},
		{
			ID: "r4", Name: "inactive", Account: "Expenses:Old",
			Source: model.RuleSourceUser, IsActive: false,
			Conditions: []model.Condition{
				{Field: model.FieldPeer, Operator: model.OpEquals, Value: "Gone"},
			},
		},
	}
}

func TestNewMapping(t *testing.T) {
	m := NewMapping(mappingRules(), "alipay", "Assets:Alipay", "Expenses:Uncategorized", "CNY")

	assert.Equal(t, "Assets:Alipay", m.DefaultMinusAccount)
	assert.Equal(t, "Expenses:Uncategorized", m.DefaultPlusAccount)
	assert.Equal(t, "CNY", m.DefaultCurrency)
	require.NotNil(t, m.Alipay)
	assert.Nil(t, m.Wechat)

	// The range-only and inactive rules have no generator equivalent.
	require.Len(t, m.Alipay.Rules, 2)
	assert.Equal(t, "Corner Coffee", m.Alipay.Rules[0].Peer)
	assert.Equal(t, "Expenses:Dining", m.Alipay.Rules[0].TargetAccount)
	assert.Equal(t, "apples,bread", m.Alipay.Rules[1].Item)
}

func TestNewMappingWechatSection(t *testing.T) {
	m := NewMapping(mappingRules(), "wechat", "", "", "")

	require.NotNil(t, m.Wechat)
	assert.Nil(t, m.Alipay)
	assert.Equal(t, "CNY", m.DefaultCurrency)
	assert.NotEmpty(t, m.DefaultMinusAccount)
	assert.NotEmpty(t, m.DefaultPlusAccount)
}

func TestMappingWriteFile(t *testing.T) {
	m := NewMapping(mappingRules(), "alipay", "Assets:Alipay", "Expenses:Uncategorized", "CNY")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Mapping
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, m.DefaultMinusAccount, decoded.DefaultMinusAccount)
	require.NotNil(t, decoded.Alipay)
	assert.Len(t, decoded.Alipay.Rules, 2)
}
