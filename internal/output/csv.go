package output

import (
	"bytes"
	"encoding/csv"

	"github.com/taxatlas/taxgo/internal/domain"
)

// ServicesCSV renders service contributions as a delimited-text table for
// the journalist export.
func ServicesCSV(services []domain.ServiceContribution) (string, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"function_label", "spending_amount_m_gbp", "user_contribution_gbp", "share_of_user_tax_percent"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, s := range services {
		row := []string{
			s.FunctionLabel,
			s.SpendingAmountM.StringFixed(2),
			s.UserContribution.StringFixed(2),
			s.ShareOfUserTaxPct.StringFixed(4),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// RegionalBalancesCSV renders region balances as a delimited-text table for
// the journalist export.
func RegionalBalancesCSV(balances []domain.RegionBalance) (string, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"geography_code", "geography_name", "contribution_m_gbp", "spending_m_gbp", "net_balance_m_gbp"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, b := range balances {
		row := []string{
			b.GeographyCode,
			b.GeographyName,
			b.ContributionM.StringFixed(2),
			b.SpendingM.StringFixed(2),
			b.NetBalanceM.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}
