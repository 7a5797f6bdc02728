package repository

import (
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
)

type ExportRepository interface {
	ExportToCSV(matrix *entity.CostMatrix, filename string, outputDir string) (string, error)
	ExportToExcel(matrix *entity.CostMatrix, budgets []entity.BudgetInfo, filename string, outputDir string) (string, error)
	ExportToJSON(matrix *entity.CostMatrix, filename string, outputDir string) (string, error)
	ExportToPDF(matrix *entity.CostMatrix, filename string, outputDir string) (string, error)
}
