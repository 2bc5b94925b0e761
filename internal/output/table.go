package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func gbp(d decimal.Decimal) string {
	return "£" + d.StringFixed(2)
}

// FormatEstimateTable renders a tax estimate for the terminal.
func FormatEstimateTable(e *domain.TaxEstimate) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("HOUSEHOLD TAX ESTIMATE") + "\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Income tax", e.IncomeTax},
		{"National insurance", e.NationalInsurance},
		{"VAT (estimated)", e.VATEstimate},
		{"Council tax", e.CouncilTaxEstimate},
		{"Savings tax", e.SavingsTax},
		{"Dividend tax", e.DividendTax},
		{"Student loan", e.StudentLoanRepayment},
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%-30s %15s\n", labelStyle.Render(row.label), gbp(row.value)))
	}
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	sb.WriteString(fmt.Sprintf("%-30s %15s\n", headerStyle.Render("Total estimated tax"), gbp(e.TotalEstimatedTax)))
	sb.WriteString(fmt.Sprintf("%-30s %14.2f%%\n", labelStyle.Render("Effective rate"),
		e.EffectiveTaxRate.Mul(decimal.NewFromInt(100)).InexactFloat64()))
	sb.WriteString(fmt.Sprintf("%-30s %15s\n", labelStyle.Render("Take-home"), gbp(e.TakeHome)))

	if e.UncertaintyRange != nil {
		sb.WriteString(fmt.Sprintf("%-30s %s - %s\n", labelStyle.Render("Uncertainty range"),
			gbp(e.UncertaintyRange.Low), gbp(e.UncertaintyRange.High)))
	}
	if c := e.HistoricalComparison; c != nil {
		sb.WriteString("\n" + headerStyle.Render(fmt.Sprintf("VS %s", c.CompareTaxYear)) + "\n")
		style := positiveStyle
		if c.DeltaVsSelected.GreaterThan(decimal.Zero) {
			style = negativeStyle
		}
		sb.WriteString(fmt.Sprintf("%-30s %15s\n", labelStyle.Render("Total that year"), gbp(c.TotalEstimatedTax)))
		sb.WriteString(fmt.Sprintf("%-30s %s\n", labelStyle.Render("Delta"),
			style.Render(fmt.Sprintf("%s (%s%%)", gbp(c.DeltaVsSelected), c.DeltaVsSelectedPercent.StringFixed(2)))))
	}
	return sb.String()
}

// FormatImpactTable renders ranked service contributions for the terminal.
func FormatImpactTable(impact *domain.ServicesImpact) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("WHERE YOUR TAXES GO") + "\n")
	sb.WriteString(strings.Repeat("=", 72) + "\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("Spending year %s, revenue year %s; your share of revenue %s",
		impact.SpendingYear, impact.RevenueYear, impact.UserShareOfRevenue.String())) + "\n\n")

	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-40s %15s %14s", "Service", "Your share", "% of tax")) + "\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for _, s := range impact.Services {
		sb.WriteString(fmt.Sprintf("%-40s %15s %13s%%\n",
			truncate(s.FunctionLabel, 40), gbp(s.UserContribution), s.ShareOfUserTaxPct.StringFixed(2)))
	}
	sb.WriteString(strings.Repeat("=", 72) + "\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("Page %d of items %d", impact.Page, impact.TotalItems)) + "\n")
	return sb.String()
}

// FormatFlowsTable renders regional balances and flows for the terminal.
func FormatFlowsTable(rf *domain.RegionalFlows) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("REGIONAL FISCAL FLOWS "+rf.Year) + "\n")
	sb.WriteString(strings.Repeat("=", 72) + "\n")

	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-28s %13s %13s %13s", "Region", "Revenue £m", "Spending £m", "Net £m")) + "\n")
	for _, b := range rf.Balances {
		style := positiveStyle
		if b.NetBalanceM.LessThan(decimal.Zero) {
			style = negativeStyle
		}
		sb.WriteString(fmt.Sprintf("%-28s %13s %13s %13s\n",
			truncate(b.GeographyName, 28), b.ContributionM.StringFixed(2), b.SpendingM.StringFixed(2),
			style.Render(b.NetBalanceM.StringFixed(2))))
	}

	sb.WriteString("\n" + headerStyle.Render(fmt.Sprintf("%-24s %-24s %13s", "From", "To", "£m")) + "\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for _, f := range rf.Flows {
		sb.WriteString(fmt.Sprintf("%-24s %-24s %13s\n",
			truncate(f.OriginRegion, 24), truncate(f.DestinationRegion, 24), f.ValueM.StringFixed(2)))
	}

	sb.WriteString(strings.Repeat("=", 72) + "\n")
	method := "implied from regional dataset gap"
	if rf.BorrowingMethod == domain.BorrowingOfficial && rf.OfficialBorrowingB != nil {
		method = fmt.Sprintf("official PSNB ex: £%sbn (%s)", rf.OfficialBorrowingB.StringFixed(1), rf.OfficialBorrowingRef)
	}
	sb.WriteString(labelStyle.Render("Borrowing: "+method) + "\n")
	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
