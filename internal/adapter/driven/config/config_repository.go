package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/domain/repository"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// rcFileName é o arquivo rc opcional no home do usuário, sempre lido como
// YAML (que também aceita JSON).
const rcFileName = ".awscostreportrc"

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct {
	rcPath string
}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	repo := &ConfigRepositoryImpl{}
	if homeDir, err := os.UserHomeDir(); err == nil {
		repo.rcPath = filepath.Join(homeDir, rcFileName)
	}
	return repo
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if len(strings.TrimSpace(string(fileData))) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrEmptyConfig, filePath)
	}

	var config types.Config

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	return &config, nil
}

// ResolveConfig reduz a cadeia de prioridade da esquerda para a direita:
// skeleton -> rc file -> arquivo --config -> flags da CLI. Cada camada só
// sobrescreve as chaves que define, segundo as regras em mergeRules.
func (r *ConfigRepositoryImpl) ResolveConfig(args types.CLIArgs) (*types.Config, error) {
	config := skeletonConfig()

	var layers []*types.Config

	rc, err := r.loadRCFile()
	if err != nil {
		return nil, err
	}
	if rc != nil {
		layers = append(layers, rc)
	}

	if args.ConfigFile != "" {
		fileConfig, err := r.LoadConfigFile(args.ConfigFile)
		if err != nil {
			return nil, err
		}
		layers = append(layers, fileConfig)
	}

	layers = append(layers, configFromArgs(args))

	for _, layer := range layers {
		mergeConfig(config, layer)
	}

	return config, nil
}

// Validate falha rápido antes de qualquer chamada de API. Os checks de
// account-groups e alocação só se aplicam ao relatório por unidade de
// negócio; os demais modos não dependem deles.
func (r *ConfigRepositoryImpl) Validate(cfg *types.Config, mode entity.ReportMode) error {
	if cfg == nil {
		return types.ErrEmptyConfig
	}
	if cfg.TopCostsCount.Account <= 0 || cfg.TopCostsCount.Service <= 0 {
		return fmt.Errorf("%w: got account=%d service=%d", types.ErrInvalidTopCount,
			cfg.TopCostsCount.Account, cfg.TopCostsCount.Service)
	}
	if mode != entity.ModeBusinessUnit {
		return nil
	}

	if len(cfg.AccountGroups) == 0 {
		return types.ErrMissingAccountGroups
	}
	if _, ok := cfg.AccountGroups[entity.SharedServicesKey]; !ok {
		return types.ErrMissingSSGroup
	}
	for unit, pct := range cfg.SSAllocation {
		if unit == entity.SharedServicesKey {
			return fmt.Errorf("%w: the %q pool cannot receive its own allocation", types.ErrInvalidAllocation, unit)
		}
		if pct <= 0 || pct > 100 {
			return fmt.Errorf("%w: %q has %.2f", types.ErrInvalidAllocation, unit, pct)
		}
		if _, ok := cfg.AccountGroups[unit]; !ok {
			return fmt.Errorf("%w: %q is not defined in account-groups", types.ErrInvalidAllocation, unit)
		}
	}
	return nil
}

func (r *ConfigRepositoryImpl) loadRCFile() (*types.Config, error) {
	if r.rcPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(r.rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading %s: %w", r.rcPath, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var config types.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", r.rcPath, err)
	}
	return &config, nil
}

// skeletonConfig são os defaults de fábrica. Deliberadamente sem
// account-groups: a validação exige que o usuário os defina.
func skeletonConfig() *types.Config {
	return &types.Config{
		TopCostsCount: types.TopCostsCount{Account: 10, Service: 10},
		OutputDir:     ".",
	}
}

// configFromArgs traduz as flags da CLI na camada de maior prioridade.
func configFromArgs(args types.CLIArgs) *types.Config {
	return &types.Config{
		OutputDir: args.Dir,
		S3Bucket:  args.S3Bucket,
	}
}

// mergeRule aplica um campo de src (camada de maior prioridade) em dst.
type mergeRule func(dst, src *types.Config)

// mergeRules é a tabela de merge por chave: top-costs-count faz merge por
// subchave, todas as outras chaves substituem inteiras quando presentes.
var mergeRules = map[string]mergeRule{
	"account-groups": func(dst, src *types.Config) {
		if src.AccountGroups != nil {
			dst.AccountGroups = src.AccountGroups
		}
	},
	"service-aggregations": func(dst, src *types.Config) {
		if src.ServiceAggregations != nil {
			dst.ServiceAggregations = src.ServiceAggregations
		}
	},
	"service-exclusions": func(dst, src *types.Config) {
		if src.ServiceExclusions != nil {
			dst.ServiceExclusions = src.ServiceExclusions
		}
	},
	"top-costs-count": func(dst, src *types.Config) {
		if src.TopCostsCount.Account > 0 {
			dst.TopCostsCount.Account = src.TopCostsCount.Account
		}
		if src.TopCostsCount.Service > 0 {
			dst.TopCostsCount.Service = src.TopCostsCount.Service
		}
	},
	"ss-allocation": func(dst, src *types.Config) {
		if src.SSAllocation != nil {
			dst.SSAllocation = src.SSAllocation
		}
	},
	"output-dir": func(dst, src *types.Config) {
		if src.OutputDir != "" {
			dst.OutputDir = src.OutputDir
		}
	},
	"s3-bucket": func(dst, src *types.Config) {
		if src.S3Bucket != "" {
			dst.S3Bucket = src.S3Bucket
		}
	},
}

func mergeConfig(dst, src *types.Config) {
	for _, rule := range mergeRules {
		rule(dst, src)
	}
}
