package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// reportMatrix monta uma matriz pequena com dois meses já totalizados.
func reportMatrix(t *testing.T) *entity.CostMatrix {
	t.Helper()
	matrix := entity.NewCostMatrix()

	jan := matrix.MonthCosts("2024-Jan")
	jan["dev"] = 500.00
	jan["prod"] = 1000.00
	jan[entity.TotalKey] = 1500.00

	feb := matrix.MonthCosts("2024-Feb")
	feb["dev"] = 450.25
	feb["prod"] = 1100.10
	feb[entity.TotalKey] = 1550.35

	return matrix
}

func parseCSVMatrix(t *testing.T, path string) *entity.CostMatrix {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	matrix := entity.NewCostMatrix()
	months := records[0][1:]
	for _, row := range records[1:] {
		require.Len(t, row, len(months)+1)
		for i, label := range months {
			value, err := strconv.ParseFloat(row[i+1], 64)
			require.NoError(t, err)
			matrix.MonthCosts(label)[row[0]] = value
		}
	}
	return matrix
}

func rawCellFloat(t *testing.T, f *excelize.File, sheet, cell string) float64 {
	t.Helper()
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	value, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err, "cell %s!%s = %q", sheet, cell, raw)
	return value
}

func TestExportToCSV_RoundTrip(t *testing.T) {
	repo := NewExportRepository()
	matrix := reportMatrix(t)

	path, err := repo.ExportToCSV(matrix, "cost-report-bu", t.TempDir())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^cost-report-bu_\d{8}_\d{6}\.csv$`), filepath.Base(path))

	parsed := parseCSVMatrix(t, path)
	assert.Equal(t, matrix.Months, parsed.Months)
	assert.Equal(t, matrix.Costs, parsed.Costs)
}

func TestExportToCSV_Layout(t *testing.T) {
	repo := NewExportRepository()

	path, err := repo.ExportToCSV(reportMatrix(t), "report", t.TempDir())
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"Month", "2024-Jan", "2024-Feb"}, records[0])
	assert.Equal(t, []string{"dev", "500.00", "450.25"}, records[1])
	assert.Equal(t, []string{"prod", "1000.00", "1100.10"}, records[2])
	assert.Equal(t, []string{"total", "1500.00", "1550.35"}, records[3])
}

func TestExportToJSON(t *testing.T) {
	repo := NewExportRepository()
	matrix := reportMatrix(t)

	path, err := repo.ExportToJSON(matrix, "cost-report-service", t.TempDir())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^cost-report-service_\d{8}_\d{6}\.json$`), filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded entity.CostMatrix
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, matrix.Months, decoded.Months)
	assert.Equal(t, matrix.Costs, decoded.Costs)
}

func TestExportToExcel_ReportSheet(t *testing.T) {
	repo := NewExportRepository()

	path, err := repo.ExportToExcel(reportMatrix(t), nil, "report", t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "Report")
	assert.Contains(t, f.GetSheetList(), "Summary")

	header, err := f.GetCellValue("Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Month", header)

	month, err := f.GetCellValue("Report", "C1")
	require.NoError(t, err)
	assert.Equal(t, "2024-Feb", month)

	name, err := f.GetCellValue("Report", "A4")
	require.NoError(t, err)
	assert.Equal(t, "total", name)

	assert.InDelta(t, 1100.10, rawCellFloat(t, f, "Report", "C3"), 1e-9)
	assert.InDelta(t, 1550.35, rawCellFloat(t, f, "Report", "C4"), 1e-9)
}

func TestExportToExcel_SummarySheet(t *testing.T) {
	repo := NewExportRepository()
	budgets := []entity.BudgetInfo{
		{Name: "monthly-cap", Limit: 2000, Actual: 1550.35, Forecast: 1800},
	}

	path, err := repo.ExportToExcel(reportMatrix(t), budgets, "report", t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	group, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "dev", group)

	// Mês mais recente com variação sobre o anterior.
	assert.InDelta(t, 450.25, rawCellFloat(t, f, "Summary", "B2"), 1e-9)
	assert.InDelta(t, 450.25/1550.35, rawCellFloat(t, f, "Summary", "C2"), 1e-9)
	assert.InDelta(t, 49.75, rawCellFloat(t, f, "Summary", "D2"), 1e-9)
	assert.InDelta(t, (450.25-500.00)/500.00, rawCellFloat(t, f, "Summary", "E2"), 1e-9)

	// Dados do gráfico em ordem decrescente de custo.
	slice, err := f.GetCellValue("Summary", "G2")
	require.NoError(t, err)
	assert.Equal(t, "prod", slice)
	assert.InDelta(t, 1100.10, rawCellFloat(t, f, "Summary", "H2"), 1e-9)

	// Bloco de budgets duas linhas abaixo da tabela de grupos.
	budgetHeader, err := f.GetCellValue("Summary", "A6")
	require.NoError(t, err)
	assert.Equal(t, "Budget", budgetHeader)

	budgetName, err := f.GetCellValue("Summary", "A7")
	require.NoError(t, err)
	assert.Equal(t, "monthly-cap", budgetName)
	assert.InDelta(t, 1550.35/2000, rawCellFloat(t, f, "Summary", "E7"), 1e-9)
}

func TestExportToPDF(t *testing.T) {
	repo := NewExportRepository()

	path, err := repo.ExportToPDF(reportMatrix(t), "cost-report-account", t.TempDir())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^cost-report-account_\d{8}_\d{6}\.pdf$`), filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 4)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestGenerateFilename_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "2024")

	path, err := generateFilename("report", dir, "csv")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^report_\d{8}_\d{6}\.csv$`), filepath.Base(path))
}
