package repository

import (
	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

// ConfigRepository defines the interface for loading, merging and validating
// configuration.
type ConfigRepository interface {
	// LoadConfigFile carrega um único arquivo (TOML, YAML ou JSON).
	LoadConfigFile(filePath string) (*types.Config, error)

	// ResolveConfig aplica a cadeia de prioridade: skeleton -> rc file ->
	// arquivo --config -> flags da CLI.
	ResolveConfig(args types.CLIArgs) (*types.Config, error)

	// Validate falha rápido antes de qualquer chamada de API. Os checks de
	// account-groups e alocação só se aplicam ao relatório por unidade de
	// negócio.
	Validate(cfg *types.Config, mode entity.ReportMode) error
}
