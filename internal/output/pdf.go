package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
)

const (
	pageMarginLeft   = 15.0
	pageMarginRight  = 15.0
	pageMarginTop    = 15.0
	pageMarginBottom = 20.0
	pdfContentWidth  = 210.0 - pageMarginLeft - pageMarginRight
)

// pdfText converts UTF-8 text to PDF-safe encoding. The £ sign in UTF-8 is
// 0xC2 0xA3, but the standard PDF fonts expect Latin-1 (just 0xA3).
func pdfText(s string) string {
	return strings.ReplaceAll(s, "£", "\xa3")
}

func pdfMoney(d decimal.Decimal) string {
	return pdfText("£" + d.StringFixed(2))
}

// journalistPDF builds the printable journalist report.
type journalistPDF struct {
	pdf    *fpdf.Fpdf
	export *domain.JournalistExport
}

// JournalistPDF renders a journalist export as a printable A4 report.
func JournalistPDF(export *domain.JournalistExport) ([]byte, error) {
	r := &journalistPDF{
		pdf:    fpdf.New("P", "mm", "A4", ""),
		export: export,
	}
	r.pdf.SetMargins(pageMarginLeft, pageMarginTop, pageMarginRight)
	r.pdf.SetAutoPageBreak(true, pageMarginBottom)

	r.addTitlePage()
	r.addEstimatePage()
	r.addServicesPage()
	r.addRegionalPage()

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *journalistPDF) addTitlePage() {
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 28)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.Ln(50)
	r.pdf.CellFormat(pdfContentWidth, 15, "Where Your Taxes Go", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "", 14)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.Ln(10)
	r.pdf.CellFormat(pdfContentWidth, 10, "Household tax estimate and fiscal attribution", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 11)
	r.pdf.Ln(15)
	r.pdf.CellFormat(pdfContentWidth, 8, fmt.Sprintf("Generated: %s", r.export.ExportedAtUTC), "", 1, "C", false, 0, "")

	if tax := r.export.Tax; tax != nil {
		r.pdf.Ln(20)
		r.pdf.SetFillColor(245, 247, 250)
		r.pdf.SetDrawColor(200, 200, 200)

		r.pdf.SetFont("Arial", "B", 12)
		r.pdf.SetTextColor(0, 51, 102)
		r.pdf.CellFormat(pdfContentWidth, 8, "Household", "1", 1, "C", true, 0, "")

		r.pdf.SetFont("Arial", "", 11)
		r.pdf.SetTextColor(50, 50, 50)
		income := tax.AnnualIncome
		if tax.HouseholdSummary != nil {
			income = tax.HouseholdSummary.HouseholdIncome
		}
		rows := []string{
			fmt.Sprintf("Tax year %s", tax.Assumptions.TaxYear),
			pdfText(fmt.Sprintf("Household income £%s", income.StringFixed(2))),
			pdfText(fmt.Sprintf("Total estimated tax £%s", tax.TotalEstimatedTax.StringFixed(2))),
		}
		for i, row := range rows {
			border := "LR"
			if i == len(rows)-1 {
				border = "LRB"
			}
			r.pdf.CellFormat(pdfContentWidth, 7, row, border, 1, "C", true, 0, "")
		}
	}

	r.pdf.Ln(15)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(pdfContentWidth, 4.5,
		"Figures are estimates built from published aggregate data and household "+
			"inputs. They are for illustration and journalism, not tax advice.", "", "C", false)
}

func (r *journalistPDF) addEstimatePage() {
	tax := r.export.Tax
	if tax == nil {
		return
	}
	r.pdf.AddPage()
	r.drawSectionHeader("Tax Estimate")

	r.drawTableHeader([]string{"Component", "Amount"}, []float64{100, 80})
	components := []struct {
		label string
		value decimal.Decimal
	}{
		{"Income Tax", tax.IncomeTax},
		{"National Insurance", tax.NationalInsurance},
		{"VAT (estimated)", tax.VATEstimate},
		{"Council Tax", tax.CouncilTaxEstimate},
		{"Savings Tax", tax.SavingsTax},
		{"Dividend Tax", tax.DividendTax},
		{"Student Loan", tax.StudentLoanRepayment},
	}
	for _, c := range components {
		r.drawTableRow([]string{c.label, pdfMoney(c.value)}, []float64{100, 80}, false)
	}
	r.drawTableRow([]string{"Total Estimated Tax", pdfMoney(tax.TotalEstimatedTax)}, []float64{100, 80}, true)

	r.pdf.Ln(8)
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.CellFormat(pdfContentWidth, 5, fmt.Sprintf("Effective tax rate: %s%%",
		tax.EffectiveTaxRate.Mul(decimal.NewFromInt(100)).StringFixed(2)), "", 1, "L", false, 0, "")
	r.pdf.CellFormat(pdfContentWidth, 5, pdfText(fmt.Sprintf("Take-home: £%s", tax.TakeHome.StringFixed(2))), "", 1, "L", false, 0, "")
	if u := tax.UncertaintyRange; u != nil {
		r.pdf.CellFormat(pdfContentWidth, 5, pdfText(fmt.Sprintf("Uncertainty range: £%s to £%s",
			u.Low.StringFixed(2), u.High.StringFixed(2))), "", 1, "L", false, 0, "")
	}
	if c := tax.HistoricalComparison; c != nil {
		r.pdf.Ln(3)
		r.pdf.SetFont("Arial", "B", 10)
		r.pdf.CellFormat(pdfContentWidth, 5, fmt.Sprintf("Compared with %s", c.CompareTaxYear), "", 1, "L", false, 0, "")
		r.pdf.SetFont("Arial", "", 10)
		r.pdf.CellFormat(pdfContentWidth, 5, pdfText(fmt.Sprintf("Total that year £%s, delta £%s (%s%%)",
			c.TotalEstimatedTax.StringFixed(2), c.DeltaVsSelected.StringFixed(2),
			c.DeltaVsSelectedPercent.StringFixed(2))), "", 1, "L", false, 0, "")
	}
}

func (r *journalistPDF) addServicesPage() {
	impact := r.export.ServicesImpact
	if impact == nil || len(impact.Services) == 0 {
		return
	}
	r.pdf.AddPage()
	r.drawSectionHeader("Where The Money Goes")

	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.CellFormat(pdfContentWidth, 5, pdfText(fmt.Sprintf(
		"Spending year %s against revenue year %s. Household share of total revenue: %s.",
		impact.SpendingYear, impact.RevenueYear, impact.UserShareOfRevenue.String())), "", 1, "L", false, 0, "")
	r.pdf.Ln(3)

	widths := []float64{90, 45, 45}
	r.drawTableHeader([]string{"Service", "Your Share", "% of Your Tax"}, widths)
	for _, s := range impact.Services {
		if r.pdf.GetY() > 260 {
			r.pdf.AddPage()
			r.drawTableHeader([]string{"Service", "Your Share", "% of Your Tax"}, widths)
		}
		r.drawTableRow([]string{
			truncate(s.FunctionLabel, 52),
			pdfMoney(s.UserContribution),
			s.ShareOfUserTaxPct.StringFixed(2) + "%",
		}, widths, false)
	}
}

func (r *journalistPDF) addRegionalPage() {
	rf := r.export.RegionalFlows
	if rf == nil {
		return
	}
	r.pdf.AddPage()
	r.drawSectionHeader("Regional Fiscal Flows " + rf.Year)

	widths := []float64{66, 38, 38, 38}
	r.drawTableHeader([]string{"Region", "Revenue (£m)", "Spending (£m)", "Net (£m)"}, widths)
	for _, b := range rf.Balances {
		r.drawTableRow([]string{
			truncate(b.GeographyName, 36),
			b.ContributionM.StringFixed(2),
			b.SpendingM.StringFixed(2),
			b.NetBalanceM.StringFixed(2),
		}, widths, false)
	}

	r.pdf.Ln(8)
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(pdfContentWidth, 7, "Largest Implied Transfers", "", 1, "L", false, 0, "")

	flowWidths := []float64{70, 70, 40}
	r.drawTableHeader([]string{"From", "To", "£m"}, flowWidths)
	for i, f := range rf.Flows {
		if i >= 15 {
			break
		}
		r.drawTableRow([]string{
			truncate(f.OriginRegion, 38),
			truncate(f.DestinationRegion, 38),
			f.ValueM.StringFixed(2),
		}, flowWidths, false)
	}

	r.pdf.Ln(5)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(100, 100, 100)
	if rf.BorrowingMethod == domain.BorrowingOfficial && rf.OfficialBorrowingB != nil {
		r.pdf.CellFormat(pdfContentWidth, 5, pdfText(fmt.Sprintf(
			"Official borrowing (PSNB ex): £%sbn for %s, released %s.",
			rf.OfficialBorrowingB.StringFixed(1), rf.OfficialBorrowingRef, rf.OfficialBorrowingRelease)),
			"", 1, "L", false, 0, "")
	} else {
		r.pdf.CellFormat(pdfContentWidth, 5,
			"Borrowing implied from the gap in the regional dataset; no official figure shipped.",
			"", 1, "L", false, 0, "")
	}
}

func (r *journalistPDF) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(pdfContentWidth, 10, pdfText(title), "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(pageMarginLeft, r.pdf.GetY(), pageMarginLeft+pdfContentWidth, r.pdf.GetY())
	r.pdf.Ln(5)
}

func (r *journalistPDF) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)
	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, pdfText(header), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *journalistPDF) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)
	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}
	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}
