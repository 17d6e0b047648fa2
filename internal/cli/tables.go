package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
)

// RenderRulesTable renders the rule list as an aligned table.
func RenderRulesTable(rules []model.Rule) string {
	if len(rules) == 0 {
		return SubtleStyle.Render("no rules defined")
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-38s %-24s %-30s %-8s %-6s", "ID", "NAME", "ACCOUNT", "SOURCE", "CONF")))
	b.WriteString("\n")
	for _, r := range rules {
		row := fmt.Sprintf("%-38s %-24s %-30s %-8s %.2f",
			r.ID, truncate(r.Name, 24), truncate(r.Account, 30), r.Source, r.Confidence)
		if r.Source == model.RuleSourceUser {
			b.WriteString(BoldStyle.Render(row))
		} else {
			b.WriteString(TableCellStyle.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderClassification renders one classification result for a transaction.
func RenderClassification(txn model.Transaction, c *model.Classification) string {
	confStyle := SuccessStyle
	if c.Confidence < 0.5 {
		confStyle = WarningStyle
	}
	return fmt.Sprintf("%s  %s  %s %s",
		SubtleStyle.Render(txn.Time.Format("2006-01-02")),
		TableCellStyle.Render(fmt.Sprintf("%-24s %8.2f %s", truncate(txn.Peer, 24), txn.Amount, txn.Currency)),
		BoldStyle.Render(c.Account),
		confStyle.Render(fmt.Sprintf("(%.2f %s)", c.Confidence, c.Source)))
}

// RenderStats renders a batch completion summary.
func RenderStats(stats service.CompletionStats) string {
	var b strings.Builder
	b.WriteString(FormatTitle("Classification complete"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  total:      %d\n", stats.TotalTransactions))
	b.WriteString(fmt.Sprintf("  by rule:    %d\n", stats.ByRule))
	b.WriteString(fmt.Sprintf("  by oracle:  %d\n", stats.ByOracle))
	if stats.Fallback > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("  fallback:   %d", stats.Fallback)))
		b.WriteString("\n")
	}
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("  duration:   %s", stats.Duration.Round(time.Millisecond))))
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
