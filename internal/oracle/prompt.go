package oracle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beanflow/beanflow/internal/model"
)

// defaultContextCap bounds how many historical rules are included in a
// prompt to keep the payload size predictable.
const defaultContextCap = 10

// SelectContextRules picks the historical rules most relevant to the
// transaction: rules conditioned on the same peer or the same category hint
// rank first, then higher-confidence rules. At most limit rules are returned.
func SelectContextRules(txn model.Transaction, rules []model.Rule, limit int) []model.Rule {
	if limit <= 0 {
		limit = defaultContextCap
	}

	type scored struct {
		rule  model.Rule
		score float64
	}

	scoredRules := make([]scored, 0, len(rules))
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		s := r.Confidence
		if mentionsValue(r, model.FieldPeer, txn.Peer) || mentionsValue(r, model.FieldCategory, txn.Category) {
			s += 1.0
		}
		scoredRules = append(scoredRules, scored{rule: r, score: s})
	}

	sort.SliceStable(scoredRules, func(i, j int) bool {
		return scoredRules[i].score > scoredRules[j].score
	})

	if len(scoredRules) > limit {
		scoredRules = scoredRules[:limit]
	}

	selected := make([]model.Rule, len(scoredRules))
	for i, s := range scoredRules {
		selected[i] = s.rule
	}
	return selected
}

// mentionsValue reports whether any rule condition on the given field could
// match the given value.
func mentionsValue(r model.Rule, field, value string) bool {
	if value == "" {
		return false
	}
	for _, cond := range r.Conditions {
		if cond.Field != field {
			continue
		}
		if strings.EqualFold(cond.Value, value) {
			return true
		}
		for _, v := range cond.Values {
			if strings.EqualFold(v, value) {
				return true
			}
		}
	}
	return false
}

// BuildPrompt creates the classification prompt: the full chart of accounts,
// the relevant historical rules, and the transaction fields.
func BuildPrompt(txn model.Transaction, chart model.Chart, contextRules []model.Rule) string {
	var b strings.Builder

	b.WriteString("Classify this financial transaction into exactly one account from the chart of accounts.\n\n")

	b.WriteString("Chart of accounts:\n")
	for _, account := range chart.Accounts {
		fmt.Fprintf(&b, "- %s\n", account)
	}

	b.WriteString("\nHistorical classification rules:\n")
	if len(contextRules) == 0 {
		b.WriteString("(none)\n")
	}
	for _, r := range contextRules {
		fmt.Fprintf(&b, "- %s: %s -> %s\n", r.Name, describeConditions(r.Conditions), r.Account)
	}

	b.WriteString("\nTransaction to classify:\n")
	fmt.Fprintf(&b, "- Peer: %s\n", txn.Peer)
	fmt.Fprintf(&b, "- Item: %s\n", txn.Item)
	fmt.Fprintf(&b, "- Category hint: %s\n", txn.Category)
	fmt.Fprintf(&b, "- Type: %s\n", txn.Type)
	fmt.Fprintf(&b, "- Time: %s\n", txn.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Amount: %.2f %s\n", txn.Amount, txn.Currency)

	b.WriteString(`
Select the most appropriate account from the chart of accounts and provide a
confidence score between 0 and 1.

Output format (JSON):
{"account": "Expenses:Food:Dining", "confidence": 0.95, "rationale": "why"}

Return only JSON, do not include any other content.`)

	return b.String()
}

func describeConditions(conditions []model.Condition) string {
	parts := make([]string, 0, len(conditions))
	for _, cond := range conditions {
		switch cond.Operator {
		case model.OpEquals:
			parts = append(parts, fmt.Sprintf("%s=%s", cond.Field, cond.Value))
		case model.OpIn:
			parts = append(parts, fmt.Sprintf("%s in [%s]", cond.Field, strings.Join(cond.Values, ", ")))
		case model.OpRange:
			lo, hi := "-inf", "+inf"
			if cond.Min != nil {
				lo = fmt.Sprintf("%.2f", *cond.Min)
			}
			if cond.Max != nil {
				hi = fmt.Sprintf("%.2f", *cond.Max)
			}
			parts = append(parts, fmt.Sprintf("%s in [%s, %s]", cond.Field, lo, hi))
		}
	}
	return strings.Join(parts, " and ")
}
