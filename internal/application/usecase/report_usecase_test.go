package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

// --- Mocks dos ports ---

type billingRepoMock struct {
	checkCredentialsFunc func(ctx context.Context, profile string) (string, error)
	byAccountFunc        func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error)
	byServiceFunc        func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error)
	listAccountsFunc     func(ctx context.Context, profile string) ([]entity.OrganizationAccount, error)
	budgetsFunc          func(ctx context.Context, profile string) ([]entity.BudgetInfo, error)
	publishFunc          func(ctx context.Context, profile, bucket, filePath string) (string, error)
}

func (m *billingRepoMock) CheckCredentials(ctx context.Context, profile string) (string, error) {
	if m.checkCredentialsFunc != nil {
		return m.checkCredentialsFunc(ctx, profile)
	}
	return "123456789012", nil
}

func (m *billingRepoMock) GetMonthlyCostsByAccount(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
	if m.byAccountFunc != nil {
		return m.byAccountFunc(ctx, profile, start, end)
	}
	return nil, nil
}

func (m *billingRepoMock) GetMonthlyCostsByService(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
	if m.byServiceFunc != nil {
		return m.byServiceFunc(ctx, profile, start, end)
	}
	return nil, nil
}

func (m *billingRepoMock) ListOrganizationAccounts(ctx context.Context, profile string) ([]entity.OrganizationAccount, error) {
	if m.listAccountsFunc != nil {
		return m.listAccountsFunc(ctx, profile)
	}
	return nil, nil
}

func (m *billingRepoMock) GetBudgets(ctx context.Context, profile string) ([]entity.BudgetInfo, error) {
	if m.budgetsFunc != nil {
		return m.budgetsFunc(ctx, profile)
	}
	return nil, nil
}

func (m *billingRepoMock) PublishReport(ctx context.Context, profile, bucket, filePath string) (string, error) {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, profile, bucket, filePath)
	}
	return "s3://" + bucket + "/" + filePath, nil
}

type exportCall struct {
	format   string
	filename string
	dir      string
	matrix   *entity.CostMatrix
	budgets  []entity.BudgetInfo
}

type exportRepoMock struct {
	calls []exportCall
	fail  map[string]error
}

func (m *exportRepoMock) export(format, filename, dir string, matrix *entity.CostMatrix, budgets []entity.BudgetInfo) (string, error) {
	m.calls = append(m.calls, exportCall{format: format, filename: filename, dir: dir, matrix: matrix, budgets: budgets})
	if err, ok := m.fail[format]; ok {
		return "", err
	}
	return "/tmp/" + filename + "." + format, nil
}

func (m *exportRepoMock) ExportToCSV(matrix *entity.CostMatrix, filename, outputDir string) (string, error) {
	return m.export("csv", filename, outputDir, matrix, nil)
}

func (m *exportRepoMock) ExportToExcel(matrix *entity.CostMatrix, budgets []entity.BudgetInfo, filename, outputDir string) (string, error) {
	return m.export("excel", filename, outputDir, matrix, budgets)
}

func (m *exportRepoMock) ExportToJSON(matrix *entity.CostMatrix, filename, outputDir string) (string, error) {
	return m.export("json", filename, outputDir, matrix, nil)
}

func (m *exportRepoMock) ExportToPDF(matrix *entity.CostMatrix, filename, outputDir string) (string, error) {
	return m.export("pdf", filename, outputDir, matrix, nil)
}

type configRepoMock struct {
	cfg         *types.Config
	resolveErr  error
	validateErr error
}

func (m *configRepoMock) LoadConfigFile(filePath string) (*types.Config, error) {
	return m.cfg, nil
}

func (m *configRepoMock) ResolveConfig(args types.CLIArgs) (*types.Config, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.cfg, nil
}

func (m *configRepoMock) Validate(cfg *types.Config, mode entity.ReportMode) error {
	return m.validateErr
}

// --- Mock do console ---

type nopStatus struct{}

func (nopStatus) Update(string) {}
func (nopStatus) Stop()         {}

type nopProgress struct{}

func (nopProgress) Increment() {}
func (nopProgress) Stop()      {}

type nopTable struct{}

func (nopTable) AddColumn(string, ...interface{}) {}
func (nopTable) AddRow(...interface{})            {}
func (nopTable) Render() string                   { return "" }

type consoleMock struct {
	warnings  []string
	errors    []string
	successes []string
}

func (c *consoleMock) Print(a ...interface{})                  {}
func (c *consoleMock) Printf(format string, a ...interface{})  {}
func (c *consoleMock) Println(a ...interface{})                {}
func (c *consoleMock) LogInfo(format string, a ...interface{}) {}

func (c *consoleMock) LogWarning(format string, a ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
}

func (c *consoleMock) LogError(format string, a ...interface{}) {
	c.errors = append(c.errors, fmt.Sprintf(format, a...))
}

func (c *consoleMock) LogSuccess(format string, a ...interface{}) {
	c.successes = append(c.successes, fmt.Sprintf(format, a...))
}

func (c *consoleMock) Status(message string) types.StatusHandle          { return nopStatus{} }
func (c *consoleMock) Progress(items []string) types.ProgressHandle      { return nopProgress{} }
func (c *consoleMock) CreateTable() types.TableInterface                 { return nopTable{} }
func (c *consoleMock) DisplayTrendBars(monthlyCosts []types.MonthlyCost) {}
func (c *consoleMock) ProgressWithTotal(total int) types.ProgressHandle  { return nopProgress{} }

// --- Fixtures ---

func accountPeriods() []entity.CostPeriod {
	return []entity.CostPeriod{
		{
			Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			Groups: []entity.CostGroup{
				{Key: "111111111111", Amount: 1000},
				{Key: "222222222222", Amount: 500},
				{Key: "999999999999", Amount: 200},
			},
		},
	}
}

func buConfig() *types.Config {
	return &types.Config{
		AccountGroups: map[string]map[string]types.AccountMeta{
			"prod": {"111111111111": {}},
			"dev":  {"222222222222": {}},
			"ss":   {"999999999999": {}},
		},
		TopCostsCount: types.TopCostsCount{Account: 10, Service: 10},
		OutputDir:     "/tmp/reports",
	}
}

func buRequest(formats ...string) entity.ReportRequest {
	return entity.ReportRequest{
		Mode:        entity.ModeBusinessUnit,
		PeriodStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		Formats:     formats,
		Profile:     "billing",
	}
}

// --- Testes ---

func TestRunReport_BusinessUnitFlow(t *testing.T) {
	var fetchedProfile string
	billing := &billingRepoMock{
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			fetchedProfile = profile
			return accountPeriods(), nil
		},
	}
	exporter := &exportRepoMock{}
	console := &consoleMock{}
	uc := NewReportUseCase(billing, exporter, &configRepoMock{cfg: buConfig()}, console)

	err := uc.RunReport(context.Background(), types.CLIArgs{}, buRequest("csv", "excel"))
	require.NoError(t, err)

	assert.Equal(t, "billing", fetchedProfile)
	require.Len(t, exporter.calls, 2)
	assert.Equal(t, "csv", exporter.calls[0].format)
	assert.Equal(t, "excel", exporter.calls[1].format)
	assert.Equal(t, "cost-report-bu", exporter.calls[0].filename)
	assert.Equal(t, "/tmp/reports", exporter.calls[0].dir)

	// A matriz exportada deve estar agregada por unidade, com total fechado.
	matrix := exporter.calls[0].matrix
	require.NotNil(t, matrix)
	jan := matrix.Costs["2024-Jan"]
	assert.Equal(t, 1000.00, jan["prod"])
	assert.Equal(t, 500.00, jan["dev"])
	assert.Equal(t, 200.00, jan["ss"])
	assert.Equal(t, 1700.00, jan[entity.TotalKey])

	assert.Len(t, console.successes, 2)
	assert.Empty(t, console.errors)
}

func TestRunReport_ServiceModeUsesServiceDimension(t *testing.T) {
	var byServiceCalled, byAccountCalled bool
	billing := &billingRepoMock{
		byServiceFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			byServiceCalled = true
			return []entity.CostPeriod{
				{
					Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
					Groups: []entity.CostGroup{
						{Key: "Amazon Elastic Compute Cloud", Amount: 400},
						{Key: "Tax", Amount: 10},
					},
				},
			}, nil
		},
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			byAccountCalled = true
			return nil, nil
		},
	}
	exporter := &exportRepoMock{}
	cfg := &types.Config{
		ServiceAggregations: map[string][]string{"Compute": {"Amazon Elastic Compute Cloud"}},
		ServiceExclusions:   []string{"Tax"},
		TopCostsCount:       types.TopCostsCount{Account: 10, Service: 10},
		OutputDir:           ".",
	}
	uc := NewReportUseCase(billing, exporter, &configRepoMock{cfg: cfg}, &consoleMock{})

	request := buRequest("csv")
	request.Mode = entity.ModeService

	require.NoError(t, uc.RunReport(context.Background(), types.CLIArgs{}, request))

	assert.True(t, byServiceCalled)
	assert.False(t, byAccountCalled)

	require.Len(t, exporter.calls, 1)
	jan := exporter.calls[0].matrix.Costs["2024-Jan"]
	assert.Equal(t, 400.00, jan["Compute"])
	assert.NotContains(t, jan, "Tax")
	assert.Equal(t, "cost-report-service", exporter.calls[0].filename)
}

func TestRunReport_AccountModeResolvesNames(t *testing.T) {
	billing := &billingRepoMock{
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			return accountPeriods(), nil
		},
		listAccountsFunc: func(ctx context.Context, profile string) ([]entity.OrganizationAccount, error) {
			return []entity.OrganizationAccount{
				{ID: "111111111111", Name: "prod-main"},
			}, nil
		},
	}
	exporter := &exportRepoMock{}
	cfg := &types.Config{TopCostsCount: types.TopCostsCount{Account: 10, Service: 10}, OutputDir: "."}
	uc := NewReportUseCase(billing, exporter, &configRepoMock{cfg: cfg}, &consoleMock{})

	request := buRequest("csv")
	request.Mode = entity.ModeAccount

	require.NoError(t, uc.RunReport(context.Background(), types.CLIArgs{}, request))

	require.Len(t, exporter.calls, 1)
	jan := exporter.calls[0].matrix.Costs["2024-Jan"]
	assert.Contains(t, jan, "prod-main")
	assert.Contains(t, jan, "222222222222")
}

func TestRunReport_AccountModeFallsBackWhenOrgListingFails(t *testing.T) {
	billing := &billingRepoMock{
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			return accountPeriods(), nil
		},
		listAccountsFunc: func(ctx context.Context, profile string) ([]entity.OrganizationAccount, error) {
			return nil, errors.New("AccessDeniedException")
		},
	}
	exporter := &exportRepoMock{}
	console := &consoleMock{}
	cfg := &types.Config{TopCostsCount: types.TopCostsCount{Account: 10, Service: 10}, OutputDir: "."}
	uc := NewReportUseCase(billing, exporter, &configRepoMock{cfg: cfg}, console)

	request := buRequest("csv")
	request.Mode = entity.ModeAccount

	require.NoError(t, uc.RunReport(context.Background(), types.CLIArgs{}, request))

	require.Len(t, console.warnings, 1)
	assert.Contains(t, console.warnings[0], "organization accounts")

	// Sem os nomes, as contas aparecem pelo ID.
	jan := exporter.calls[0].matrix.Costs["2024-Jan"]
	assert.Contains(t, jan, "111111111111")
}

func TestRunReport_BudgetFailureIsNonFatal(t *testing.T) {
	billing := &billingRepoMock{
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			return accountPeriods(), nil
		},
		budgetsFunc: func(ctx context.Context, profile string) ([]entity.BudgetInfo, error) {
			return nil, errors.New("ThrottlingException")
		},
	}
	exporter := &exportRepoMock{}
	console := &consoleMock{}
	uc := NewReportUseCase(billing, exporter, &configRepoMock{cfg: buConfig()}, console)

	require.NoError(t, uc.RunReport(context.Background(), types.CLIArgs{}, buRequest("excel")))

	require.Len(t, exporter.calls, 1)
	assert.Nil(t, exporter.calls[0].budgets)
	require.Len(t, console.warnings, 1)
	assert.Contains(t, console.warnings[0], "budgets")
}

func TestRunReport_BudgetsOnlyFetchedForExcel(t *testing.T) {
	budgetsCalled := false
	billing := &billingRepoMock{
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			return accountPeriods(), nil
		},
		budgetsFunc: func(ctx context.Context, profile string) ([]entity.BudgetInfo, error) {
			budgetsCalled = true
			return nil, nil
		},
	}
	uc := NewReportUseCase(billing, &exportRepoMock{}, &configRepoMock{cfg: buConfig()}, &consoleMock{})

	require.NoError(t, uc.RunReport(context.Background(), types.CLIArgs{}, buRequest("csv", "json")))
	assert.False(t, budgetsCalled)
}

func TestRunReport_ExportFailureDoesNotStopOtherFormats(t *testing.T) {
	billing := &billingRepoMock{
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			return accountPeriods(), nil
		},
	}
	exporter := &exportRepoMock{fail: map[string]error{"csv": errors.New("disk full")}}
	console := &consoleMock{}
	uc := NewReportUseCase(billing, exporter, &configRepoMock{cfg: buConfig()}, console)

	require.NoError(t, uc.RunReport(context.Background(), types.CLIArgs{}, buRequest("csv", "json")))

	require.Len(t, exporter.calls, 2)
	require.Len(t, console.errors, 1)
	assert.Contains(t, console.errors[0], "csv")
	require.Len(t, console.successes, 1)
	assert.Contains(t, console.successes[0], "json")
}

func TestRunReport_PublishesToS3WhenConfigured(t *testing.T) {
	var published []string
	billing := &billingRepoMock{
		byAccountFunc: func(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
			return accountPeriods(), nil
		},
		publishFunc: func(ctx context.Context, profile, bucket, filePath string) (string, error) {
			published = append(published, bucket+":"+filePath)
			return "s3://" + bucket + "/" + filePath, nil
		},
	}
	cfg := buConfig()
	cfg.S3Bucket = "finops-reports"
	console := &consoleMock{}
	uc := NewReportUseCase(billing, &exportRepoMock{}, &configRepoMock{cfg: cfg}, console)

	require.NoError(t, uc.RunReport(context.Background(), types.CLIArgs{}, buRequest("csv", "json")))

	require.Len(t, published, 2)
	assert.Contains(t, published[0], "finops-reports:")
	assert.Len(t, console.successes, 4) // 2 exports + 2 uploads
}

func TestRunReport_CredentialFailureAborts(t *testing.T) {
	credErr := fmt.Errorf("%w: ExpiredToken", types.ErrCredentialCheck)
	billing := &billingRepoMock{
		checkCredentialsFunc: func(ctx context.Context, profile string) (string, error) {
			return "", credErr
		},
	}
	exporter := &exportRepoMock{}
	uc := NewReportUseCase(billing, exporter, &configRepoMock{cfg: buConfig()}, &consoleMock{})

	err := uc.RunReport(context.Background(), types.CLIArgs{}, buRequest("csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrCredentialCheck))
	assert.Empty(t, exporter.calls)
}

func TestRunReport_InvalidConfigAborts(t *testing.T) {
	billing := &billingRepoMock{}
	uc := NewReportUseCase(billing, &exportRepoMock{}, &configRepoMock{
		cfg:         buConfig(),
		validateErr: types.ErrMissingAccountGroups,
	}, &consoleMock{})

	err := uc.RunReport(context.Background(), types.CLIArgs{}, buRequest("csv"))
	assert.True(t, errors.Is(err, types.ErrMissingAccountGroups))
}
