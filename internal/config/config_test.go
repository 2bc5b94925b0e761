package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxatlas/taxgo/internal/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeTemp(t, "household.yaml", `
annual_income_gbp: 50000
partner_annual_income_gbp: 20000
uk_nation_for_income_tax: scotland
student_loan_plan: "2"
council_tax_band: D
vatable_spend_ratio: 0.5
`)

	parser := NewInputParser()
	req, err := parser.LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, req.AnnualIncome.Equal(decimal.NewFromInt(50000)))
	assert.True(t, req.PartnerAnnualIncome.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, domain.NationScotland, req.Nation)
	assert.Equal(t, domain.Plan2, req.StudentLoanPlan)
	assert.Equal(t, domain.BandD, req.CouncilTaxBand)
	assert.True(t, req.VatableSpendRatio.Equal(decimal.RequireFromString("0.5")))

	// Defaults were applied for unset fields.
	assert.Equal(t, domain.DefaultTaxYear, req.TaxYear)
	assert.Equal(t, "England", req.Region)
	assert.Equal(t, domain.EmploymentEmployed, req.EmploymentType)
}

func TestLoadFromFileInvalidHousehold(t *testing.T) {
	path := writeTemp(t, "household.yaml", `
annual_income_gbp: -100
`)
	parser := NewInputParser()
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileBadYAML(t *testing.T) {
	path := writeTemp(t, "household.yaml", "annual_income_gbp: [not a number\n")
	parser := NewInputParser()
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileMissing(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadAppConfig(t *testing.T) {
	path := writeTemp(t, "app.yaml", `
data_dir: /srv/taxgo/data
listen_addr: ":9090"
redis_addr: "localhost:6379"
postcode_lookup: true
`)

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/taxgo/data", cfg.DataDir)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.PostcodeLookup)
}

func TestLoadAppConfigFillsDefaults(t *testing.T) {
	path := writeTemp(t, "app.yaml", "redis_addr: \"localhost:6379\"\n")

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "data/processed", cfg.DataDir)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}
