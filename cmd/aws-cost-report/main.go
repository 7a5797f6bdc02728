package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/diillson/aws-cost-report-go/internal/adapter/driven/aws"
	"github.com/diillson/aws-cost-report-go/internal/adapter/driven/config"
	"github.com/diillson/aws-cost-report-go/internal/adapter/driven/export"
	"github.com/diillson/aws-cost-report-go/internal/adapter/driving/cli"
	"github.com/diillson/aws-cost-report-go/internal/application/usecase"
	"github.com/diillson/aws-cost-report-go/pkg/console"
	"github.com/diillson/aws-cost-report-go/pkg/version"
)

func main() {
	// Carrega o .env em desenvolvimento local; em produção ele não existe.
	_ = godotenv.Load()

	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Os adapters que não dependem da região são criados uma única vez.
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	// O repositório de billing depende da flag --region, conhecida só após
	// o parse, então o caso de uso é montado por um factory.
	app.SetUseCaseFactory(func(region string) *usecase.ReportUseCase {
		return usecase.NewReportUseCase(
			aws.NewBillingRepository(region),
			exportRepo,
			configRepo,
			consoleImpl,
		)
	})

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
