package ledger

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/binaamarket/ledger_backend/models"
)

// ExportIncomeStatementXLSX renders an income statement as a spreadsheet.
// The caller owns the returned file (Write/SaveAs/Close).
func ExportIncomeStatementXLSX(stmt *models.IncomeStatement) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Income Statement"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", "Income Statement")
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Period: %s to %s", stmt.StartDate.Format("2006-01-02"), stmt.EndDate.Format("2006-01-02")))
	f.SetCellValue(sheet, "A3", "Currency: "+stmt.DisplayCurrency)

	row := 5
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Revenue")
	row++
	for _, category := range sortedKeys(stmt.RevenueByCategory) {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), category)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stmt.RevenueByCategory[category].InexactFloat64())
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total Revenue")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stmt.TotalRevenue.InexactFloat64())
	row += 2

	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Expenses")
	row++
	for _, category := range sortedKeys(stmt.ExpensesByCategory) {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), category)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stmt.ExpensesByCategory[category].InexactFloat64())
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total Expenses")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stmt.TotalExpenses.InexactFloat64())
	row += 2

	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Net Income")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stmt.NetIncome.InexactFloat64())
	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Gross Profit (estimate)")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stmt.GrossProfitEstimate.InexactFloat64())

	return f, nil
}

// ExportBalanceSheetXLSX renders a balance sheet as a spreadsheet.
func ExportBalanceSheetXLSX(bs *models.BalanceSheet) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Balance Sheet"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", "Balance Sheet")
	f.SetCellValue(sheet, "A2", "As of: "+bs.AsOf.Format("2006-01-02"))
	f.SetCellValue(sheet, "A3", "Currency: "+bs.DisplayCurrency)

	row := 5
	for _, section := range []struct {
		title string
		data  models.BalanceSheetSection
	}{
		{"Assets", bs.Assets},
		{"Liabilities", bs.Liabilities},
		{"Equity", bs.Equity},
	} {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), section.title)
		row++
		for _, line := range section.data.Lines {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.AccountCode)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.AccountName)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.Balance.InexactFloat64())
			row++
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total "+section.title)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), section.data.Total.InexactFloat64())
		row += 2
	}

	return f, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
