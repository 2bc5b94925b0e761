// Package tables loads the processed tabular snapshots (ONS regional revenue
// and expenditure, HMT functional spending, official borrowing) and memoises
// them for the life of the process.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
)

// Snapshot file names under the store's data directory.
const (
	RevenueFile     = "ons_regional_revenue_fye2023.csv"
	ExpenditureFile = "ons_regional_expenditure_fye2023.csv"
	SpendingFile    = "functional_spending_2024_25.csv"
	BalancesFile    = "regional_balances_2022_2023.csv"
	FlowsFile       = "flows_2022_2023.csv"
	BorrowingFile   = "official_uk_borrowing.csv"
)

// MetricTotalReceipts is the revenue metric used both as the attribution
// denominator and as each region's revenue contribution.
const MetricTotalReceipts = "total_current_receipts_excl_north_sea_oil_gas"

// Row is one parsed CSV record keyed by header name.
type Row map[string]string

// Store is a fill-once, identity-keyed snapshot cache. Population is
// idempotent (same file, same rows), so concurrent fills of one key are
// wasted work rather than corruption; entries live until Invalidate.
type Store struct {
	dir string

	mu    sync.RWMutex
	files map[string][]Row
}

// NewStore creates a store rooted at a data directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir, files: make(map[string][]Row)}
}

// Invalidate drops the cached rows for one snapshot file.
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, s.keyFor(name))
}

// InvalidateAll drops every cached snapshot.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string][]Row)
}

func (s *Store) keyFor(name string) string {
	path := filepath.Join(s.dir, name)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Rows returns the parsed records of one snapshot file, reading it at most
// once per cache key.
func (s *Store) Rows(name string) ([]Row, error) {
	key := s.keyFor(name)

	s.mu.RLock()
	rows, ok := s.files[key]
	s.mu.RUnlock()
	if ok {
		return rows, nil
	}

	rows, err := readCSV(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.files[key] = rows
	s.mu.Unlock()
	return rows, nil
}

func readCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseAmount(row Row, col string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(row[col])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad amount %q in column %s: %w", row[col], col, err)
	}
	return d, nil
}

// TotalUKRevenueM returns the UK-aggregate total receipts for a revenue year
// in £m. A missing row is a hard ErrDataNotFound: the attribution ratio is
// undefined without its denominator.
func (s *Store) TotalUKRevenueM(revenueYear string) (decimal.Decimal, error) {
	rows, err := s.Rows(RevenueFile)
	if err != nil {
		return decimal.Decimal{}, err
	}
	for _, row := range rows {
		if row["year"] == revenueYear &&
			row["geography_code"] == domain.GeographyCodeUK &&
			row["metric"] == MetricTotalReceipts {
			return parseAmount(row, "amount_m_gbp")
		}
	}
	return decimal.Decimal{}, fmt.Errorf("no UK revenue row for year %q: %w", revenueYear, domain.ErrDataNotFound)
}

// SubFunctionSpending returns the national spending sub-function rows for a
// spending year, in source order. Aggregated rows are excluded so the
// attribution never double counts.
func (s *Store) SubFunctionSpending(spendingYear string) ([]domain.SpendingFunction, error) {
	rows, err := s.Rows(SpendingFile)
	if err != nil {
		return nil, err
	}
	var funcs []domain.SpendingFunction
	for _, row := range rows {
		if row["year"] != spendingYear || row["row_type"] != "sub_function" {
			continue
		}
		amount, err := parseAmount(row, "amount_m_gbp")
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, domain.SpendingFunction{
			FunctionLabel: row["function_label"],
			AmountM:       amount,
		})
	}
	return funcs, nil
}

// RegionAmount is a named amount for one geography.
type RegionAmount struct {
	Name    string
	AmountM decimal.Decimal
}

// RegionalRevenue returns each closed-set region's revenue contribution for a
// fiscal year, keyed by geography code.
func (s *Store) RegionalRevenue(year string) (map[string]RegionAmount, error) {
	rows, err := s.Rows(RevenueFile)
	if err != nil {
		return nil, err
	}
	out := make(map[string]RegionAmount)
	for _, row := range rows {
		if row["year"] != year || !domain.RegionCodes[row["geography_code"]] {
			continue
		}
		if row["metric"] != MetricTotalReceipts {
			continue
		}
		amount, err := parseAmount(row, "amount_m_gbp")
		if err != nil {
			return nil, err
		}
		out[row["geography_code"]] = RegionAmount{Name: row["geography_name"], AmountM: amount}
	}
	return out, nil
}

// RegionalExpenditure returns each closed-set region's expenditure for a
// fiscal year, keyed by geography code.
func (s *Store) RegionalExpenditure(year string) (map[string]RegionAmount, error) {
	rows, err := s.Rows(ExpenditureFile)
	if err != nil {
		return nil, err
	}
	out := make(map[string]RegionAmount)
	for _, row := range rows {
		if row["year"] != year || !domain.RegionCodes[row["geography_code"]] {
			continue
		}
		amount, err := parseAmount(row, "amount_m_gbp")
		if err != nil {
			return nil, err
		}
		out[row["geography_code"]] = RegionAmount{Name: row["geography_name"], AmountM: amount}
	}
	return out, nil
}

// PrecomputedBalances returns the balance snapshot rows for a year, or
// (nil, nil) when no snapshot file is present.
func (s *Store) PrecomputedBalances(year string) ([]domain.RegionBalance, error) {
	rows, err := s.Rows(BalancesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var balances []domain.RegionBalance
	for _, row := range rows {
		if row["year"] != year {
			continue
		}
		contribution, err := parseAmount(row, "contribution_m_gbp")
		if err != nil {
			return nil, err
		}
		spending, err := parseAmount(row, "spending_m_gbp")
		if err != nil {
			return nil, err
		}
		net, err := parseAmount(row, "net_balance_m_gbp")
		if err != nil {
			return nil, err
		}
		balances = append(balances, domain.RegionBalance{
			GeographyCode: row["geography_code"],
			GeographyName: row["geography_name"],
			ContributionM: contribution,
			SpendingM:     spending,
			NetBalanceM:   net,
		})
	}
	return balances, nil
}

// PrecomputedFlows returns the flow snapshot rows for a year, or (nil, nil)
// when no snapshot file is present.
func (s *Store) PrecomputedFlows(year string) ([]domain.RegionalFlow, error) {
	rows, err := s.Rows(FlowsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var flows []domain.RegionalFlow
	for _, row := range rows {
		if row["year"] != year {
			continue
		}
		value, err := parseAmount(row, "value_m_gbp")
		if err != nil {
			return nil, err
		}
		flows = append(flows, domain.RegionalFlow{
			OriginRegion:      row["origin_region"],
			DestinationRegion: row["destination_region"],
			ValueM:            value,
		})
	}
	return flows, nil
}

// OfficialBorrowing returns the externally published borrowing figure, or nil
// when the snapshot is absent or empty. Older snapshots carried year_label
// and only a source URL; both legacy columns are still understood.
func (s *Store) OfficialBorrowing() (*domain.BorrowingFigure, error) {
	rows, err := s.Rows(BorrowingFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]

	amount, err := parseAmount(row, "amount_b_gbp")
	if err != nil {
		return nil, err
	}
	reference := row["reference_period"]
	if reference == "" {
		reference = row["year_label"]
	}
	release := row["release_period"]
	if release == "" {
		if url := row["source_url"]; url != "" {
			release = filepath.Base(url)
		}
	}
	if release == "" {
		release = "Unknown release"
	}
	if reference == "" {
		reference = "Unknown reference period"
	}
	return &domain.BorrowingFigure{
		AmountB:         amount,
		ReleasePeriod:   release,
		ReferencePeriod: reference,
		SourceURL:       row["source_url"],
	}, nil
}
