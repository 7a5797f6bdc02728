package repository

import (
	"context"
	"time"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
)

// BillingRepository defines the interface for the AWS billing APIs.
type BillingRepository interface {
	// Credential Operations
	CheckCredentials(ctx context.Context, profile string) (string, error)

	// Cost Operations. End date is exclusive, as in the Cost Explorer API.
	GetMonthlyCostsByAccount(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error)
	GetMonthlyCostsByService(ctx context.Context, profile string, start, end time.Time) ([]entity.CostPeriod, error)

	// Organization Operations
	ListOrganizationAccounts(ctx context.Context, profile string) ([]entity.OrganizationAccount, error)

	// Budget Operations
	GetBudgets(ctx context.Context, profile string) ([]entity.BudgetInfo, error)

	// Report Publishing
	PublishReport(ctx context.Context, profile string, bucket string, filePath string) (string, error)
}
