package aws

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

// Interfaces estreitas sobre os clientes do SDK: as asserções de tipo abaixo
// usam estas interfaces em vez dos tipos concretos, o que permite injetar
// mocks no cache de clientes durante os testes.
type costExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type budgetsAPI interface {
	DescribeBudgets(ctx context.Context, params *budgets.DescribeBudgetsInput, optFns ...func(*budgets.Options)) (*budgets.DescribeBudgetsOutput, error)
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BillingRepositoryImpl implementa o BillingRepository com cache de clientes.
type BillingRepositoryImpl struct {
	cfgCache    map[string]aws.Config
	clientCache map[string]interface{}
	mu          sync.Mutex

	// region é a região default vinda da flag --region; vazia usa a cadeia
	// padrão de configuração do SDK.
	region string
}

// NewBillingRepository cria uma nova implementação do BillingRepository.
func NewBillingRepository(region string) repository.BillingRepository {
	return &BillingRepositoryImpl{
		cfgCache:    make(map[string]aws.Config),
		clientCache: make(map[string]interface{}),
		region:      region,
	}
}

func (r *BillingRepositoryImpl) getAWSConfig(ctx context.Context, profile string) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.cfgCache[profile]; ok {
		return cfg, nil
	}

	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if r.region != "" {
		opts = append(opts, config.WithRegion(r.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for profile %q: %w", profile, err)
	}

	r.cfgCache[profile] = cfg
	return cfg, nil
}

func (r *BillingRepositoryImpl) getServiceClient(ctx context.Context, profile, region, service string) (interface{}, error) {
	cacheKey := fmt.Sprintf("%s-%s-%s", profile, region, service)

	r.mu.Lock()
	if client, ok := r.clientCache[cacheKey]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	cfg, err := r.getAWSConfig(ctx, profile)
	if err != nil {
		return nil, err
	}

	regionalCfg := cfg.Copy()
	if region != "" {
		regionalCfg.Region = region
	}

	var client interface{}
	switch service {
	case "sts":
		client = sts.NewFromConfig(regionalCfg)
	case "costexplorer":
		// Cost Explorer só existe em us-east-1.
		regionalCfg.Region = "us-east-1"
		client = costexplorer.NewFromConfig(regionalCfg)
	case "organizations":
		regionalCfg.Region = "us-east-1"
		client = organizations.NewFromConfig(regionalCfg)
	case "budgets":
		regionalCfg.Region = "us-east-1"
		client = budgets.NewFromConfig(regionalCfg)
	case "s3":
		client = s3.NewFromConfig(regionalCfg)
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}

	r.mu.Lock()
	r.clientCache[cacheKey] = client
	r.mu.Unlock()

	return client, nil
}

// CheckCredentials valida as credenciais do perfil via STS e retorna o ID da
// conta. Falha aqui encerra o programa antes de qualquer chamada de billing.
func (r *BillingRepositoryImpl) CheckCredentials(ctx context.Context, profile string) (string, error) {
	client, err := r.getServiceClient(ctx, profile, "", "sts")
	if err != nil {
		return "", fmt.Errorf("%w: %s", types.ErrCredentialCheck, err)
	}
	stsClient := client.(stsAPI)

	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("%w: %s", types.ErrCredentialCheck, err)
	}
	return *result.Account, nil
}

// GetMonthlyCostsByAccount retorna os custos mensais agrupados por conta
// vinculada (LINKED_ACCOUNT), um CostPeriod por mês.
func (r *BillingRepositoryImpl) GetMonthlyCostsByAccount(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
	return r.getMonthlyCosts(ctx, profile, start, end, "LINKED_ACCOUNT")
}

// GetMonthlyCostsByService retorna os custos mensais agrupados por serviço.
func (r *BillingRepositoryImpl) GetMonthlyCostsByService(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error) {
	return r.getMonthlyCosts(ctx, profile, start, end, "SERVICE")
}

func (r *BillingRepositoryImpl) getMonthlyCosts(ctx context.Context, profile string, start, end time.Time, dimension string) ([]entity.CostPeriod, error) {
	client, err := r.getServiceClient(ctx, profile, "", "costexplorer")
	if err != nil {
		return nil, err
	}
	ceClient := client.(costExplorerAPI)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		Granularity: ceTypes.GranularityMonthly,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []ceTypes.GroupDefinition{
			{Type: ceTypes.GroupDefinitionTypeDimension, Key: aws.String(dimension)},
		},
	}

	// GetCostAndUsage não tem paginator no SDK; o token de continuação é
	// seguido manualmente até acabar.
	var results []ceTypes.ResultByTime
	for {
		output, err := ceClient.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get cost data grouped by %s: %w", dimension, err)
		}
		results = append(results, output.ResultsByTime...)
		if output.NextPageToken == nil {
			break
		}
		input.NextPageToken = output.NextPageToken
	}

	periods := make([]entity.CostPeriod, 0, len(results))
	for _, result := range results {
		periodStart, err := time.Parse("2006-01-02", aws.ToString(result.TimePeriod.Start))
		if err != nil {
			return nil, fmt.Errorf("unexpected period start %q in billing response: %w", aws.ToString(result.TimePeriod.Start), err)
		}

		groups := make([]entity.CostGroup, 0, len(result.Groups))
		for _, group := range result.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			metric, ok := group.Metrics["UnblendedCost"]
			if !ok || metric.Amount == nil {
				continue
			}
			amount, _ := strconv.ParseFloat(*metric.Amount, 64)
			groups = append(groups, entity.CostGroup{Key: group.Keys[0], Amount: amount})
		}

		periods = append(periods, entity.CostPeriod{Start: periodStart, Groups: groups})
	}

	return periods, nil
}

// ListOrganizationAccounts lista as contas-membro da Organization, seguindo a
// paginação até o fim.
func (r *BillingRepositoryImpl) ListOrganizationAccounts(ctx context.Context, profile string) ([]entity.OrganizationAccount, error) {
	client, err := r.getServiceClient(ctx, profile, "", "organizations")
	if err != nil {
		return nil, err
	}
	orgClient := client.(organizations.ListAccountsAPIClient)

	var accounts []entity.OrganizationAccount
	paginator := organizations.NewListAccountsPaginator(orgClient, &organizations.ListAccountsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list organization accounts: %w", err)
		}
		for _, account := range page.Accounts {
			accounts = append(accounts, entity.OrganizationAccount{
				ID:   aws.ToString(account.Id),
				Name: aws.ToString(account.Name),
			})
		}
	}

	return accounts, nil
}

// GetBudgets retorna os orçamentos da conta do chamador.
func (r *BillingRepositoryImpl) GetBudgets(ctx context.Context, profile string) ([]entity.BudgetInfo, error) {
	client, err := r.getServiceClient(ctx, profile, "", "budgets")
	if err != nil {
		return nil, err
	}
	budgetsClient := client.(budgetsAPI)

	accountID, err := r.CheckCredentials(ctx, profile)
	if err != nil {
		return nil, err
	}

	result, err := budgetsClient.DescribeBudgets(ctx, &budgets.DescribeBudgetsInput{
		AccountId: aws.String(accountID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe budgets: %w", err)
	}

	budgetsData := []entity.BudgetInfo{}
	for _, budget := range result.Budgets {
		b := entity.BudgetInfo{Name: aws.ToString(budget.BudgetName)}
		if budget.BudgetLimit != nil && budget.BudgetLimit.Amount != nil {
			b.Limit, _ = strconv.ParseFloat(*budget.BudgetLimit.Amount, 64)
		}
		if budget.CalculatedSpend != nil {
			if budget.CalculatedSpend.ActualSpend != nil && budget.CalculatedSpend.ActualSpend.Amount != nil {
				b.Actual, _ = strconv.ParseFloat(*budget.CalculatedSpend.ActualSpend.Amount, 64)
			}
			if budget.CalculatedSpend.ForecastedSpend != nil && budget.CalculatedSpend.ForecastedSpend.Amount != nil {
				b.Forecast, _ = strconv.ParseFloat(*budget.CalculatedSpend.ForecastedSpend.Amount, 64)
			}
		}
		budgetsData = append(budgetsData, b)
	}

	return budgetsData, nil
}

// PublishReport envia um arquivo de relatório para o bucket S3 informado e
// retorna a URI do objeto.
func (r *BillingRepositoryImpl) PublishReport(ctx context.Context, profile string, bucket string, filePath string) (string, error) {
	client, err := r.getServiceClient(ctx, profile, "", "s3")
	if err != nil {
		return "", err
	}
	s3Client := client.(s3API)

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open report file %s: %w", filePath, err)
	}
	defer file.Close()

	key := filepath.Base(filePath)
	_, err = s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to s3://%s/%s: %w", bucket, key, err)
	}

	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}
