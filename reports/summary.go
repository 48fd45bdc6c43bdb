package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomyedwab/smartexpense/repository"
)

// SummaryModel is stored as the model of reports written without a language
// model.
const SummaryModel = "builtin-summary"

// topCategories limits the category breakdown in generated text.
const topCategories = 5

// SummaryGenerator writes a plain-text report from the numbers alone.
type SummaryGenerator struct{}

func (SummaryGenerator) Model() string {
	return SummaryModel
}

func (SummaryGenerator) Generate(_ context.Context, s *Summary) (string, error) {
	return formatSummary(s), nil
}

// formatSummary renders the figures of s. It is also the data section of
// the Gemini prompt.
func formatSummary(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Title)
	fmt.Fprintf(&b, "Period: %s to %s\n", s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "Transactions: %d\n", s.TransactionCount)
	fmt.Fprintf(&b, "Income: %s\n", repository.FormatAmount(s.Income))
	fmt.Fprintf(&b, "Expense: %s\n", repository.FormatAmount(s.Expense))
	fmt.Fprintf(&b, "Balance: %s\n", repository.FormatAmount(s.Balance))

	if len(s.Categories) == 0 {
		b.WriteString("No expenses recorded.\n")
		return b.String()
	}
	b.WriteString("Top expense categories:\n")
	for i, c := range s.Categories {
		if i == topCategories {
			fmt.Fprintf(&b, "  ... and %d more\n", len(s.Categories)-topCategories)
			break
		}
		share := 0.0
		if s.Expense > 0 {
			share = float64(c.Amount) * 100 / float64(s.Expense)
		}
		fmt.Fprintf(&b, "  %s: %s (%.1f%%)\n", c.Category.Name, repository.FormatAmount(c.Amount), share)
	}
	return b.String()
}
