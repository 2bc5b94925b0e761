package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxatlas/taxgo/internal/attribution"
	"github.com/taxatlas/taxgo/internal/calculation"
	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/regional"
	"github.com/taxatlas/taxgo/internal/tables"
)

func fixtureStore(t *testing.T) *tables.Store {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		tables.RevenueFile: "year,geography_code,geography_name,metric,amount_m_gbp\n" +
			"2022 to 2023,K02000001,United Kingdom,total_current_receipts_excl_north_sea_oil_gas,1000000\n" +
			"2022 to 2023,E12000007,London,total_current_receipts_excl_north_sea_oil_gas,500\n" +
			"2022 to 2023,W92000004,Wales,total_current_receipts_excl_north_sea_oil_gas,150\n",
		tables.ExpenditureFile: "year,geography_code,geography_name,amount_m_gbp\n" +
			"2022 to 2023,E12000007,London,400\n" +
			"2022 to 2023,W92000004,Wales,210\n",
		tables.SpendingFile: "year,row_type,function_label,amount_m_gbp\n" +
			"2024-25,sub_function,Health,192000\n" +
			"2024-25,sub_function,Education,89000\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return tables.NewStore(dir)
}

func TestBuild(t *testing.T) {
	store := fixtureStore(t)
	exporter := NewExporter(
		calculation.NewHouseholdEngine(nil),
		attribution.NewEngine(store),
		regional.NewEngine(store),
	)

	bundle, err := exporter.Build(context.Background(), domain.TaxEstimateRequest{
		AnnualIncome: decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	require.NotNil(t, bundle.Tax)
	assert.True(t, bundle.Tax.TotalEstimatedTax.GreaterThan(decimal.Zero))

	require.NotNil(t, bundle.SpendingBreakdown)
	assert.Len(t, bundle.SpendingBreakdown.Services, 2)

	require.NotNil(t, bundle.ServicesImpact)
	assert.Equal(t, 1, bundle.ServicesImpact.Page)
	assert.Equal(t, 100, bundle.ServicesImpact.PageSize)

	require.NotNil(t, bundle.RegionalFlows)
	assert.Len(t, bundle.RegionalFlows.Balances, 2)
	assert.Len(t, bundle.RegionalFlows.Flows, 1)

	assert.Contains(t, bundle.ServicesCSV, "function_label")
	assert.Contains(t, bundle.ServicesCSV, "Health")
	assert.Contains(t, bundle.RegionalBalancesCSV, "London")

	exportedAt, err := time.Parse(time.RFC3339, bundle.ExportedAtUTC)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), exportedAt, time.Minute)
}

func TestBuildInvalidHousehold(t *testing.T) {
	store := fixtureStore(t)
	exporter := NewExporter(
		calculation.NewHouseholdEngine(nil),
		attribution.NewEngine(store),
		regional.NewEngine(store),
	)

	_, err := exporter.Build(context.Background(), domain.TaxEstimateRequest{})
	assert.Error(t, err)
}
