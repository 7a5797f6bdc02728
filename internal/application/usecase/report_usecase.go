package usecase

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/diillson/aws-cost-report-go/internal/application/aggregator"
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

// ReportUseCase handles the main cost report functionality.
type ReportUseCase struct {
	billingRepo repository.BillingRepository
	exportRepo  repository.ExportRepository
	configRepo  repository.ConfigRepository
	console     types.ConsoleInterface
}

// NewReportUseCase creates a new report use case.
func NewReportUseCase(
	billingRepo repository.BillingRepository,
	exportRepo repository.ExportRepository,
	configRepo repository.ConfigRepository,
	console types.ConsoleInterface,
) *ReportUseCase {
	return &ReportUseCase{
		billingRepo: billingRepo,
		exportRepo:  exportRepo,
		configRepo:  configRepo,
		console:     console,
	}
}

// RunReport executa o fluxo completo de um relatório: resolve a configuração,
// verifica as credenciais, busca os custos, agrega conforme o modo e exporta
// nos formatos pedidos.
func (uc *ReportUseCase) RunReport(ctx context.Context, args types.CLIArgs, request entity.ReportRequest) error {
	cfg, err := uc.configRepo.ResolveConfig(args)
	if err != nil {
		return err
	}
	if err := uc.configRepo.Validate(cfg, request.Mode); err != nil {
		return err
	}

	status := uc.console.Status("Checking AWS credentials...")

	accountID, err := uc.billingRepo.CheckCredentials(ctx, request.Profile)
	if err != nil {
		status.Stop()
		return err
	}

	status.Update(fmt.Sprintf("Fetching %s costs from %s to %s...",
		request.Mode,
		request.PeriodStart.Format("2006-01-02"),
		request.PeriodEnd.Format("2006-01-02")))

	periods, err := uc.fetchCostPeriods(ctx, request)
	if err != nil {
		status.Stop()
		return err
	}

	status.Update("Aggregating cost data...")
	monthly := aggregator.Normalize(periods, request.DailyAverage)
	matrix := uc.aggregate(ctx, monthly, request, cfg)
	status.Stop()

	uc.console.LogInfo("Cost report for account %s (%s mode, %d months)",
		accountID, request.Mode, len(matrix.Months))

	uc.displayMatrix(matrix)
	uc.displayTrend(matrix)

	budgets := uc.fetchBudgets(ctx, request)

	exported := uc.exportReports(matrix, budgets, request, cfg)

	if cfg.S3Bucket != "" && len(exported) > 0 {
		uc.publishReports(ctx, request.Profile, cfg.S3Bucket, exported)
	}

	return nil
}

// fetchCostPeriods busca os custos mensais brutos na dimensão do modo: por
// serviço no modo service, por conta nos demais.
func (uc *ReportUseCase) fetchCostPeriods(ctx context.Context, request entity.ReportRequest) ([]entity.CostPeriod, error) {
	if request.Mode == entity.ModeService {
		return uc.billingRepo.GetMonthlyCostsByService(ctx, request.Profile, request.PeriodStart, request.PeriodEnd)
	}
	return uc.billingRepo.GetMonthlyCostsByAccount(ctx, request.Profile, request.PeriodStart, request.PeriodEnd)
}

// aggregate aplica a agregação do modo pedido sobre a matriz normalizada.
func (uc *ReportUseCase) aggregate(ctx context.Context, monthly *entity.CostMatrix, request entity.ReportRequest, cfg *types.Config) *entity.CostMatrix {
	switch request.Mode {
	case entity.ModeBusinessUnit:
		return aggregator.AggregateByBusinessUnit(monthly, cfg.AccountGroups, cfg.SSAllocation, uc.console)
	case entity.ModeService:
		return aggregator.AggregateByService(monthly, cfg.ServiceAggregations, cfg.ServiceExclusions, cfg.TopCostsCount.Service)
	default:
		accounts, err := uc.billingRepo.ListOrganizationAccounts(ctx, request.Profile)
		if err != nil {
			uc.console.LogWarning("Could not list organization accounts, keeping raw account IDs: %s", err)
		}
		return aggregator.AggregateByAccount(monthly, accounts, cfg.TopCostsCount.Account)
	}
}

// fetchBudgets é tolerante a falha: budgets enriquecem a aba Summary do
// Excel, mas a falta deles não derruba o relatório.
func (uc *ReportUseCase) fetchBudgets(ctx context.Context, request entity.ReportRequest) []entity.BudgetInfo {
	if !containsFormat(request.Formats, "excel") {
		return nil
	}

	budgets, err := uc.billingRepo.GetBudgets(ctx, request.Profile)
	if err != nil {
		uc.console.LogWarning("Could not fetch budgets: %s", err)
		return nil
	}
	return budgets
}

// displayMatrix exibe a matriz de custos como tabela no terminal.
func (uc *ReportUseCase) displayMatrix(matrix *entity.CostMatrix) {
	table := uc.console.CreateTable()

	table.AddColumn("Group")
	for _, label := range matrix.Months {
		table.AddColumn(label)
	}

	rows := append(matrix.GroupNames(), entity.TotalKey)
	for _, name := range rows {
		cells := make([]interface{}, 0, len(matrix.Months)+1)

		if name == entity.TotalKey {
			cells = append(cells, pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(name))
		} else {
			cells = append(cells, pterm.FgCyan.Sprint(name))
		}

		for _, label := range matrix.Months {
			value := fmt.Sprintf("$%.2f", matrix.Costs[label][name])
			if name == entity.TotalKey {
				value = pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(value)
			}
			cells = append(cells, value)
		}
		table.AddRow(cells...)
	}

	uc.console.Print(table.Render())
}

// displayTrend mostra as barras de tendência do custo total mês a mês.
func (uc *ReportUseCase) displayTrend(matrix *entity.CostMatrix) {
	if len(matrix.Months) < 2 {
		return
	}

	monthlyCosts := make([]types.MonthlyCost, 0, len(matrix.Months))
	for _, label := range matrix.Months {
		monthlyCosts = append(monthlyCosts, types.MonthlyCost{
			Month: label,
			Cost:  matrix.Costs[label][entity.TotalKey],
		})
	}

	uc.console.Printf("\n%s\n", pterm.FgYellow.Sprint("Total cost trend:"))
	uc.console.DisplayTrendBars(monthlyCosts)
}

// exportReports exporta a matriz em cada formato pedido e devolve os caminhos
// gerados. Falha em um formato não impede os demais.
func (uc *ReportUseCase) exportReports(matrix *entity.CostMatrix, budgets []entity.BudgetInfo, request entity.ReportRequest, cfg *types.Config) []string {
	if len(request.Formats) == 0 {
		return nil
	}

	baseName := fmt.Sprintf("cost-report-%s", request.Mode)
	progress := uc.console.ProgressWithTotal(len(request.Formats))

	exported := []string{}
	for _, format := range request.Formats {
		var (
			path string
			err  error
		)

		switch format {
		case "csv":
			path, err = uc.exportRepo.ExportToCSV(matrix, baseName, cfg.OutputDir)
		case "excel":
			path, err = uc.exportRepo.ExportToExcel(matrix, budgets, baseName, cfg.OutputDir)
		case "json":
			path, err = uc.exportRepo.ExportToJSON(matrix, baseName, cfg.OutputDir)
		case "pdf":
			path, err = uc.exportRepo.ExportToPDF(matrix, baseName, cfg.OutputDir)
		default:
			uc.console.LogWarning("Unknown report format '%s', skipping", format)
			progress.Increment()
			continue
		}

		if err != nil {
			uc.console.LogError("Failed to export %s report: %s", format, err)
		} else {
			uc.console.LogSuccess("Successfully exported %s report: %s", format, path)
			exported = append(exported, path)
		}
		progress.Increment()
	}
	progress.Stop()

	return exported
}

// publishReports envia cada arquivo gerado para o bucket configurado.
func (uc *ReportUseCase) publishReports(ctx context.Context, profile, bucket string, paths []string) {
	status := uc.console.Status(fmt.Sprintf("Uploading reports to s3://%s...", bucket))
	defer status.Stop()

	for _, path := range paths {
		uri, err := uc.billingRepo.PublishReport(ctx, profile, bucket, path)
		if err != nil {
			uc.console.LogError("Failed to upload %s: %s", filepath.Base(path), err)
			continue
		}
		uc.console.LogSuccess("Uploaded report to %s", uri)
	}
}

func containsFormat(formats []string, format string) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}
