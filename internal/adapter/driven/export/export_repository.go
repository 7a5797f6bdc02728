package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diillson/aws-cost-report-go/internal/application/aggregator"
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// pieSliceThreshold: fatias abaixo de 1% do total do mês viram "Other" no
// gráfico de pizza.
const pieSliceThreshold = 0.01

// Cores do realce mês a mês na planilha: vermelho quando o custo subiu,
// verde quando caiu.
const (
	increaseFillColor = "FFC7CE"
	increaseFontColor = "9C0006"
	decreaseFillColor = "C6EFCE"
	decreaseFontColor = "006100"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// rowOrder devolve os grupos em ordem alfabética com a linha de total por
// último, a mesma ordem em todos os formatos.
func rowOrder(matrix *entity.CostMatrix) []string {
	names := matrix.GroupNames()
	return append(names, entity.TotalKey)
}

// ExportToCSV grava a matriz como CSV: cabeçalho "Month" seguido dos meses,
// uma linha por grupo e a linha de total por último.
func (r *ExportRepositoryImpl) ExportToCSV(matrix *entity.CostMatrix, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"Month"}, matrix.Months...)
	writer.Write(header)

	for _, name := range rowOrder(matrix) {
		record := make([]string, 0, len(matrix.Months)+1)
		record = append(record, name)
		for _, label := range matrix.Months {
			record = append(record, fmt.Sprintf("%.2f", matrix.Costs[label][name]))
		}
		writer.Write(record)
	}

	return filepath.Abs(outputFilename)
}

// ExportToJSON grava a matriz como JSON indentado.
func (r *ExportRepositoryImpl) ExportToJSON(matrix *entity.CostMatrix, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(matrix); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ExportToExcel grava o workbook com a aba Report (matriz completa com
// realce mês a mês), a aba Summary (mês mais recente com as variações) e o
// gráfico de pizza da distribuição mais recente.
func (r *ExportRepositoryImpl) ExportToExcel(matrix *entity.CostMatrix, budgets []entity.BudgetInfo, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "xlsx")
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := r.writeReportSheet(f, matrix); err != nil {
		return "", err
	}
	if err := r.writeSummarySheet(f, matrix, budgets); err != nil {
		return "", err
	}

	if err := f.SaveAs(outputFilename); err != nil {
		return "", fmt.Errorf("error writing Excel file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) writeReportSheet(f *excelize.File, matrix *entity.CostMatrix) error {
	const sheet = "Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("error renaming report sheet: %w", err)
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Month")
	f.SetCellStyle(sheet, "A1", "A1", styles.header)
	for i, label := range matrix.Months {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		f.SetCellValue(sheet, cell, label)
		f.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for rowIdx, name := range rowOrder(matrix) {
		row := rowIdx + 2
		nameCell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(sheet, nameCell, name)
		if name == entity.TotalKey {
			f.SetCellStyle(sheet, nameCell, nameCell, styles.bold)
		}

		for i, label := range matrix.Months {
			cell, _ := excelize.CoordinatesToCellName(i+2, row)
			value := matrix.Costs[label][name]
			f.SetCellValue(sheet, cell, value)

			// Realce mês a mês calculado aqui mesmo: a primeira coluna não
			// tem mês anterior para comparar.
			style := styles.currency
			if i > 0 {
				previous := matrix.Costs[matrix.Months[i-1]][name]
				switch {
				case value > previous:
					style = styles.increase
				case value < previous:
					style = styles.decrease
				}
			}
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}

	f.SetColWidth(sheet, "A", "A", 32)
	if len(matrix.Months) > 0 {
		endCol, _ := excelize.ColumnNumberToName(len(matrix.Months) + 1)
		f.SetColWidth(sheet, "B", endCol, 14)
	}

	return nil
}

func (r *ExportRepositoryImpl) writeSummarySheet(f *excelize.File, matrix *entity.CostMatrix, budgets []entity.BudgetInfo) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("error creating summary sheet: %w", err)
	}

	latest := matrix.LatestMonth()
	if latest == "" {
		return nil
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	hasPrevious := len(matrix.Months) >= 2
	var previous string
	if hasPrevious {
		previous = matrix.Months[len(matrix.Months)-2]
	}

	for i, title := range []string{"Group", "Amount", "% of Spend", "MoM Change", "MoM %"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, styles.header)
	}

	latestCosts := matrix.Costs[latest]
	total := latestCosts[entity.TotalKey]

	row := 1
	for _, name := range rowOrder(matrix) {
		row++
		value := latestCosts[name]

		nameCell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(sheet, nameCell, name)
		if name == entity.TotalKey {
			f.SetCellStyle(sheet, nameCell, nameCell, styles.bold)
		}

		amountCell, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(sheet, amountCell, value)
		f.SetCellStyle(sheet, amountCell, amountCell, styles.currency)

		spendCell, _ := excelize.CoordinatesToCellName(3, row)
		if name == entity.TotalKey {
			f.SetCellValue(sheet, spendCell, 1.0)
		} else {
			f.SetCellValue(sheet, spendCell, aggregator.PercentageOfSpend(value, total))
		}
		f.SetCellStyle(sheet, spendCell, spendCell, styles.percent)

		if hasPrevious {
			previousValue := matrix.Costs[previous][name]

			diffCell, _ := excelize.CoordinatesToCellName(4, row)
			f.SetCellValue(sheet, diffCell, aggregator.AbsoluteDifference(previousValue, value))
			f.SetCellStyle(sheet, diffCell, diffCell, styles.currency)

			pctCell, _ := excelize.CoordinatesToCellName(5, row)
			f.SetCellValue(sheet, pctCell, aggregator.PercentageDifference(previousValue, value))
			f.SetCellStyle(sheet, pctCell, pctCell, styles.percent)
		}
	}

	if err := r.addPieChart(f, sheet, matrix, latest); err != nil {
		return err
	}

	if len(budgets) > 0 {
		r.writeBudgetBlock(f, sheet, budgets, row+2, styles)
	}

	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "B", "E", 14)
	f.SetColWidth(sheet, "G", "G", 28)

	return nil
}

// addPieChart escreve os dados do gráfico nas colunas G/H e ancora a pizza
// ao lado, com percentuais na legenda.
func (r *ExportRepositoryImpl) addPieChart(f *excelize.File, sheet string, matrix *entity.CostMatrix, latest string) error {
	labels, values := aggregator.PieBreakdown(matrix, pieSliceThreshold)
	if len(labels) == 0 {
		return nil
	}

	f.SetCellValue(sheet, "G1", "Slice")
	f.SetCellValue(sheet, "H1", "Amount")
	for i, label := range labels {
		labelCell, _ := excelize.CoordinatesToCellName(7, i+2)
		valueCell, _ := excelize.CoordinatesToCellName(8, i+2)
		f.SetCellValue(sheet, labelCell, label)
		f.SetCellValue(sheet, valueCell, values[i])
	}

	chart := &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$H$1", sheet),
				Categories: fmt.Sprintf("%s!$G$2:$G$%d", sheet, len(labels)+1),
				Values:     fmt.Sprintf("%s!$H$2:$H$%d", sheet, len(labels)+1),
			},
		},
		Title:     []excelize.RichTextRun{{Text: fmt.Sprintf("Cost distribution %s", latest)}},
		Legend:    excelize.ChartLegend{Position: "right"},
		PlotArea:  excelize.ChartPlotArea{ShowPercent: true},
		Dimension: excelize.ChartDimension{Width: 480, Height: 300},
	}
	if err := f.AddChart(sheet, "J2", chart); err != nil {
		return fmt.Errorf("error adding pie chart: %w", err)
	}

	return nil
}

func (r *ExportRepositoryImpl) writeBudgetBlock(f *excelize.File, sheet string, budgets []entity.BudgetInfo, startRow int, styles sheetStyles) {
	for i, title := range []string{"Budget", "Limit", "Actual", "Forecast", "% Used"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, startRow)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for i, budget := range budgets {
		row := startRow + i + 1
		nameCell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(sheet, nameCell, budget.Name)

		for col, value := range []float64{budget.Limit, budget.Actual, budget.Forecast} {
			cell, _ := excelize.CoordinatesToCellName(col+2, row)
			f.SetCellValue(sheet, cell, value)
			f.SetCellStyle(sheet, cell, cell, styles.currency)
		}

		usedCell, _ := excelize.CoordinatesToCellName(5, row)
		f.SetCellValue(sheet, usedCell, budget.PercentUsed())
		f.SetCellStyle(sheet, usedCell, usedCell, styles.percent)
	}
}

// sheetStyles agrupa os estilos reutilizados nas duas abas.
type sheetStyles struct {
	header   int
	bold     int
	currency int
	percent  int
	increase int
	decrease int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	currencyFmt := "#,##0.00"

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("error creating header style: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("error creating bold style: %w", err)
	}

	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("error creating currency style: %w", err)
	}

	// NumFmt 10 é o "0.00%" nativo do xlsx.
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("error creating percent style: %w", err)
	}

	increase, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Color: increaseFontColor},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{increaseFillColor}},
		CustomNumFmt: &currencyFmt,
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("error creating increase style: %w", err)
	}

	decrease, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Color: decreaseFontColor},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{decreaseFillColor}},
		CustomNumFmt: &currencyFmt,
	})
	if err != nil {
		return sheetStyles{}, fmt.Errorf("error creating decrease style: %w", err)
	}

	return sheetStyles{
		header:   header,
		bold:     bold,
		currency: currency,
		percent:  percent,
		increase: increase,
		decrease: decrease,
	}, nil
}

// ExportToPDF grava a matriz como uma tabela em A4 paisagem.
func (r *ExportRepositoryImpl) ExportToPDF(matrix *entity.CostMatrix, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Cost Report"), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	const tableWidth = 277.0
	nameColWidth := 60.0
	monthColWidth := tableWidth - nameColWidth
	if len(matrix.Months) > 0 {
		monthColWidth = (tableWidth - nameColWidth) / float64(len(matrix.Months))
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(nameColWidth, 8, "Month", "1", 0, "L", true, 0, "")
	for _, label := range matrix.Months {
		pdf.CellFormat(monthColWidth, 8, label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(50, 50, 50)
	for _, name := range rowOrder(matrix) {
		if name == entity.TotalKey {
			pdf.SetFont("Arial", "B", 9)
			pdf.SetFillColor(240, 240, 240)
		} else {
			pdf.SetFont("Arial", "", 9)
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.CellFormat(nameColWidth, 7, tr(name), "1", 0, "L", true, 0, "")
		for _, label := range matrix.Months {
			pdf.CellFormat(monthColWidth, 7, fmt.Sprintf("%.2f", matrix.Costs[label][name]), "1", 0, "R", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Cost Report | %s", time.Now().Format("2006-01-02"))), "", 0, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// --- Funções Auxiliares ---

// generateFilename cria um nome de arquivo único com timestamp e garante que
// o diretório exista.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}
