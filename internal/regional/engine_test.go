package regional

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/tables"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func fixtureStore(t *testing.T) *tables.Store {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, tables.RevenueFile,
		"year,geography_code,geography_name,metric,amount_m_gbp\n"+
			"2022 to 2023,K02000001,United Kingdom,total_current_receipts_excl_north_sea_oil_gas,1000\n"+
			"2022 to 2023,E12000007,London,total_current_receipts_excl_north_sea_oil_gas,500\n"+
			"2022 to 2023,E12000001,North East,total_current_receipts_excl_north_sea_oil_gas,100\n"+
			"2022 to 2023,W92000004,Wales,total_current_receipts_excl_north_sea_oil_gas,150\n")
	writeFixture(t, dir, tables.ExpenditureFile,
		"year,geography_code,geography_name,amount_m_gbp\n"+
			"2022 to 2023,E12000007,London,400\n"+
			"2022 to 2023,E12000001,North East,140\n"+
			"2022 to 2023,W92000004,Wales,210\n")
	return tables.NewStore(dir)
}

func TestComputeBalances(t *testing.T) {
	engine := NewEngine(fixtureStore(t))

	balances, err := engine.ComputeBalances("2022 to 2023")
	require.NoError(t, err)
	require.Len(t, balances, 3)

	// Sorted alphabetically by name; the UK aggregate row is excluded.
	assert.Equal(t, "London", balances[0].GeographyName)
	assert.Equal(t, "North East", balances[1].GeographyName)
	assert.Equal(t, "Wales", balances[2].GeographyName)

	assert.True(t, balances[0].NetBalanceM.Equal(d("100")), "London net: %s", balances[0].NetBalanceM)
	assert.True(t, balances[1].NetBalanceM.Equal(d("-40")), "North East net: %s", balances[1].NetBalanceM)
	assert.True(t, balances[2].NetBalanceM.Equal(d("-60")), "Wales net: %s", balances[2].NetBalanceM)
}

func TestComputeBalancesMissingExpenditureIsZero(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, tables.RevenueFile,
		"year,geography_code,geography_name,metric,amount_m_gbp\n"+
			"2022 to 2023,S92000003,Scotland,total_current_receipts_excl_north_sea_oil_gas,70\n")
	writeFixture(t, dir, tables.ExpenditureFile,
		"year,geography_code,geography_name,amount_m_gbp\n")
	engine := NewEngine(tables.NewStore(dir))

	balances, err := engine.ComputeBalances("2022 to 2023")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].SpendingM.IsZero())
	assert.True(t, balances[0].NetBalanceM.Equal(d("70")))
}

func TestComputeFlowsProportionalSplit(t *testing.T) {
	balances := []domain.RegionBalance{
		{GeographyName: "A", NetBalanceM: d("100")},
		{GeographyName: "B", NetBalanceM: d("-40")},
		{GeographyName: "C", NetBalanceM: d("-60")},
	}
	flows := ComputeFlows(balances)
	require.Len(t, flows, 2)

	// Single donor splits across recipients by deficit weight, largest first.
	assert.Equal(t, "A", flows[0].OriginRegion)
	assert.Equal(t, "C", flows[0].DestinationRegion)
	assert.True(t, flows[0].ValueM.Equal(d("60")), "A->C: %s", flows[0].ValueM)
	assert.Equal(t, "B", flows[1].DestinationRegion)
	assert.True(t, flows[1].ValueM.Equal(d("40")), "A->B: %s", flows[1].ValueM)
}

func TestComputeFlowsConservation(t *testing.T) {
	balances := []domain.RegionBalance{
		{GeographyName: "A", NetBalanceM: d("80")},
		{GeographyName: "B", NetBalanceM: d("20")},
		{GeographyName: "C", NetBalanceM: d("-30")},
		{GeographyName: "D", NetBalanceM: d("-50")},
	}
	flows := ComputeFlows(balances)

	total := decimal.Zero
	for _, f := range flows {
		total = total.Add(f.ValueM)
	}
	// Surplus 100 and deficit 80: the transfer total is the smaller side.
	assert.True(t, total.Equal(d("80")), "total transferred: %s", total)
}

func TestComputeFlowsNoiseFloor(t *testing.T) {
	balances := []domain.RegionBalance{
		{GeographyName: "A", NetBalanceM: d("10")},
		{GeographyName: "B", NetBalanceM: d("-9.995")},
		{GeographyName: "C", NetBalanceM: d("-0.005")},
	}
	flows := ComputeFlows(balances)

	// The A->C sliver lands under the £0.01m floor and is dropped.
	require.Len(t, flows, 1)
	assert.Equal(t, "B", flows[0].DestinationRegion)
}

func TestComputeFlowsNoDonorsOrRecipients(t *testing.T) {
	assert.Nil(t, ComputeFlows([]domain.RegionBalance{
		{GeographyName: "A", NetBalanceM: d("10")},
		{GeographyName: "B", NetBalanceM: d("5")},
	}))
	assert.Nil(t, ComputeFlows(nil))
}

func TestBalancesPrefersPrecomputedSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, tables.BalancesFile,
		"year,geography_code,geography_name,contribution_m_gbp,spending_m_gbp,net_balance_m_gbp\n"+
			"2022 to 2023,E12000007,London,500,400,100\n")
	engine := NewEngine(tables.NewStore(dir))

	balances, err := engine.Balances("2022 to 2023")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "London", balances[0].GeographyName)
	assert.True(t, balances[0].NetBalanceM.Equal(d("100")))
}

func TestRegionalFlowsAssemblesView(t *testing.T) {
	engine := NewEngine(fixtureStore(t))

	req := domain.RegionalFlowsRequest{Year: "2022 to 2023", Page: 1, PageSize: 50}
	view, err := engine.RegionalFlows(req)
	require.NoError(t, err)

	assert.Equal(t, "2022 to 2023", view.Year)
	assert.Len(t, view.Balances, 3)
	assert.Equal(t, 2, view.TotalItems)
	// No borrowing snapshot in the fixture: the figure is implied.
	assert.Equal(t, domain.BorrowingImplied, view.BorrowingMethod)
	assert.Nil(t, view.OfficialBorrowingB)
}

func TestRegionalFlowsOfficialBorrowing(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, tables.RevenueFile,
		"year,geography_code,geography_name,metric,amount_m_gbp\n"+
			"2022 to 2023,E12000007,London,total_current_receipts_excl_north_sea_oil_gas,500\n")
	writeFixture(t, dir, tables.ExpenditureFile,
		"year,geography_code,geography_name,amount_m_gbp\n"+
			"2022 to 2023,E12000007,London,400\n")
	writeFixture(t, dir, tables.BorrowingFile,
		"amount_b_gbp,release_period,reference_period,source_url\n"+
			"128.2,September 2024 release,2022 to 2023,https://example.org/psnb\n")
	engine := NewEngine(tables.NewStore(dir))

	view, err := engine.RegionalFlows(domain.RegionalFlowsRequest{Year: "2022 to 2023", Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowingOfficial, view.BorrowingMethod)
	require.NotNil(t, view.OfficialBorrowingB)
	assert.True(t, view.OfficialBorrowingB.Equal(d("128.2")))
	assert.Equal(t, "2022 to 2023", view.OfficialBorrowingRef)
}

func TestRegionalFlowsRejectsBadPagination(t *testing.T) {
	engine := NewEngine(fixtureStore(t))
	_, err := engine.RegionalFlows(domain.RegionalFlowsRequest{Year: "2022 to 2023", Page: 0, PageSize: 50})
	assert.Error(t, err)
	_, err = engine.RegionalFlows(domain.RegionalFlowsRequest{Year: "2022 to 2023", Page: 1, PageSize: 1000})
	assert.Error(t, err)
}
