package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/beanflow/beanflow/internal/model"
)

// Mapping is the double-entry-generator config document. Only the fields the
// translate subcommand reads are modeled.
type Mapping struct {
	DefaultMinusAccount string         `yaml:"defaultMinusAccount"`
	DefaultPlusAccount  string         `yaml:"defaultPlusAccount"`
	DefaultCurrency     string         `yaml:"defaultCurrency"`
	Title               string         `yaml:"title"`
	Alipay              *ProviderRules `yaml:"alipay,omitempty"`
	Wechat              *ProviderRules `yaml:"wechat,omitempty"`
}

// ProviderRules holds the per-provider matching rules.
type ProviderRules struct {
	Rules []MappingRule `yaml:"rules"`
}

// MappingRule is one text-match rule in the generator's own dialect. Match
// fields are comma-separated alternatives; sep declares that convention.
type MappingRule struct {
	Peer          string `yaml:"peer,omitempty"`
	Item          string `yaml:"item,omitempty"`
	Type          string `yaml:"type,omitempty"`
	Sep           string `yaml:"sep,omitempty"`
	TargetAccount string `yaml:"targetAccount,omitempty"`
	MethodAccount string `yaml:"methodAccount,omitempty"`
}

// NewMapping builds a generator config from the active rule set. Only
// equality and membership conditions on peer and item translate; range and
// time-of-day conditions have no generator equivalent and are skipped.
func NewMapping(rules []model.Rule, provider, assetAccount, defaultAccount, currency string) Mapping {
	if currency == "" {
		currency = "CNY"
	}
	if assetAccount == "" {
		assetAccount = "Assets:FIXME"
	}
	if defaultAccount == "" {
		defaultAccount = "Expenses:Uncategorized"
	}

	m := Mapping{
		DefaultMinusAccount: assetAccount,
		DefaultPlusAccount:  defaultAccount,
		DefaultCurrency:     currency,
		Title:               "beanflow",
	}

	var out []MappingRule
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		mr, ok := translateRule(r)
		if !ok {
			continue
		}
		out = append(out, mr)
	}

	pr := &ProviderRules{Rules: out}
	switch provider {
	case "wechat":
		m.Wechat = pr
	default:
		m.Alipay = pr
	}
	return m
}

// translateRule converts one rule, reporting false when nothing in it maps
// onto the generator's matching vocabulary.
func translateRule(r model.Rule) (MappingRule, bool) {
	mr := MappingRule{
		Sep:           ",",
		TargetAccount: r.Account,
	}

	usable := false
	for _, c := range r.Conditions {
		value := c.Value
		if c.Operator == model.OpIn {
			value = joinValues(c.Values)
		}
		if value == "" || (c.Operator != model.OpEquals && c.Operator != model.OpIn) {
			continue
		}

		switch c.Field {
		case model.FieldPeer:
			mr.Peer = value
			usable = true
		case model.FieldItem:
			mr.Item = value
			usable = true
		case model.FieldType:
			mr.Type = value
		}
	}

	return mr, usable
}

func joinValues(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}

// WriteFile marshals the mapping to a YAML config file.
func (m Mapping) WriteFile(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write mapping config: %w", err)
	}
	return nil
}
