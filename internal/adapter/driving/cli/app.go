package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diillson/aws-cost-report-go/internal/application/usecase"
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/diillson/aws-cost-report-go/pkg/version"
)

// UseCaseFactory constrói o caso de uso do relatório para a região pedida.
// A região só é conhecida depois do parse das flags, por isso o factory.
type UseCaseFactory func(region string) *usecase.ReportUseCase

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd *cobra.Command
	factory UseCaseFactory
	version string
	now     func() time.Time
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
		now:     time.Now,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:     "aws-cost-report",
		Short:   "AWS cost reporting CLI",
		Version: formattedVersion,
		RunE:    app.runCommand,
	}

	rootCmd.SetVersionTemplate(`{{printf "AWS Cost Report version: %s\n" .Version}}`)

	// Adiciona flags de linha de comando
	rootCmd.PersistentFlags().StringP("mode", "m", "bu", "Report mode: account, bu or service (append -daily for daily averages)")
	rootCmd.PersistentFlags().StringP("period", "p", "previous", "Time period: 'previous' for the last 12 complete months, or YYYY-MM-DD_YYYY-MM-DD")
	rootCmd.PersistentFlags().StringP("format", "f", "csv", "Report format: csv, excel, json, pdf, both (csv+excel) or all")
	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().String("profile", "", "AWS profile to use for the billing API calls")
	rootCmd.PersistentFlags().String("region", "", "AWS region for the SDK clients (billing APIs always use us-east-1)")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to save the report files (overrides the configured output-dir)")
	rootCmd.PersistentFlags().String("s3-bucket", "", "S3 bucket to upload the generated reports to")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// SetUseCaseFactory sets the report use case factory for the CLI app.
func (app *CLIApp) SetUseCaseFactory(factory UseCaseFactory) {
	app.factory = factory
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func (app *CLIApp) parseArgs() (types.CLIArgs, error) {
	configFile, _ := app.rootCmd.Flags().GetString("config-file")
	mode, _ := app.rootCmd.Flags().GetString("mode")
	period, _ := app.rootCmd.Flags().GetString("period")
	format, _ := app.rootCmd.Flags().GetString("format")
	profile, _ := app.rootCmd.Flags().GetString("profile")
	region, _ := app.rootCmd.Flags().GetString("region")
	dir, _ := app.rootCmd.Flags().GetString("dir")
	s3Bucket, _ := app.rootCmd.Flags().GetString("s3-bucket")

	// Dir vazio fica vazio: a cadeia de configuração decide o default. Só
	// normalizamos para caminho absoluto quando o usuário passou algo.
	if dir != "" {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return types.CLIArgs{}, err
		}
		dir = absDir
	}

	return types.CLIArgs{
		ConfigFile: configFile,
		Mode:       mode,
		Period:     period,
		Format:     format,
		Profile:    profile,
		Region:     region,
		Dir:        dir,
		S3Bucket:   s3Bucket,
	}, nil
}

// buildRequest traduz as flags já lidas em um ReportRequest validado.
func (app *CLIApp) buildRequest(args types.CLIArgs) (entity.ReportRequest, error) {
	mode, daily, err := parseMode(args.Mode)
	if err != nil {
		return entity.ReportRequest{}, err
	}

	start, end, err := parsePeriod(args.Period, app.now())
	if err != nil {
		return entity.ReportRequest{}, err
	}

	formats, err := expandFormat(args.Format)
	if err != nil {
		return entity.ReportRequest{}, err
	}

	return entity.ReportRequest{
		Mode:         mode,
		DailyAverage: daily,
		PeriodStart:  start,
		PeriodEnd:    end,
		Formats:      formats,
		Profile:      args.Profile,
	}, nil
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, args []string) error {
	// Exibe o banner de boas-vindas
	displayWelcomeBanner(app.version)

	// Verifica a versão mais recente disponível
	go version.CheckLatestVersion(app.version)

	// Analisa os argumentos da linha de comando
	cliArgs, err := app.parseArgs()
	if err != nil {
		return err
	}

	request, err := app.buildRequest(cliArgs)
	if err != nil {
		return err
	}

	// Executa o relatório
	ctx := context.Background()
	return app.factory(cliArgs.Region).RunReport(ctx, cliArgs, request)
}

// parseMode aceita account, bu e service, com o sufixo -daily opcional.
func parseMode(mode string) (entity.ReportMode, bool, error) {
	daily := strings.HasSuffix(mode, "-daily")
	base := strings.TrimSuffix(mode, "-daily")

	switch base {
	case string(entity.ModeAccount):
		return entity.ModeAccount, daily, nil
	case string(entity.ModeBusinessUnit):
		return entity.ModeBusinessUnit, daily, nil
	case string(entity.ModeService):
		return entity.ModeService, daily, nil
	}
	return "", false, fmt.Errorf("%w: %q", types.ErrInvalidMode, mode)
}

// parsePeriod resolve "previous" como os últimos 12 meses completos: do
// primeiro dia do mês 12 meses atrás até o primeiro dia do mês corrente
// (exclusivo). Períodos explícitos usam o formato YYYY-MM-DD_YYYY-MM-DD.
func parsePeriod(period string, now time.Time) (time.Time, time.Time, error) {
	if period == "" || period == "previous" {
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := end.AddDate(0, -12, 0)
		return start, end, nil
	}

	parts := strings.Split(period, "_")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q is not 'previous' or YYYY-MM-DD_YYYY-MM-DD", types.ErrInvalidPeriod, period)
	}

	start, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", types.ErrInvalidPeriod, err)
	}
	end, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", types.ErrInvalidPeriod, err)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s is not before end %s", types.ErrInvalidPeriod, parts[0], parts[1])
	}

	return start, end, nil
}

// expandFormat expande os atalhos both e all na lista final de formatos.
func expandFormat(format string) ([]string, error) {
	switch format {
	case "csv", "excel", "json", "pdf":
		return []string{format}, nil
	case "both":
		return []string{"csv", "excel"}, nil
	case "all":
		return []string{"csv", "excel", "json", "pdf"}, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
}
