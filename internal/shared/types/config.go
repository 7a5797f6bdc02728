package types

// AccountMeta é o metadado livre anexado a uma conta dentro de uma unidade
// de negócio (nome, dono, centro de custo...). O agregador só usa as chaves
// de conta; o metadado existe para documentar o arquivo de configuração.
type AccountMeta map[string]string

// TopCostsCount define quantas entradas os relatórios top-N retêm,
// por dimensão.
type TopCostsCount struct {
	Account int `json:"account" yaml:"account" toml:"account"`
	Service int `json:"service" yaml:"service" toml:"service"`
}

// Config represents the application configuration that can be loaded from a
// file (TOML, YAML or JSON). Keys follow the file naming, not Go naming.
type Config struct {
	AccountGroups       map[string]map[string]AccountMeta `json:"account-groups" yaml:"account-groups" toml:"account-groups"`
	ServiceAggregations map[string][]string               `json:"service-aggregations" yaml:"service-aggregations" toml:"service-aggregations"`
	ServiceExclusions   []string                          `json:"service-exclusions" yaml:"service-exclusions" toml:"service-exclusions"`
	TopCostsCount       TopCostsCount                     `json:"top-costs-count" yaml:"top-costs-count" toml:"top-costs-count"`
	SSAllocation        map[string]float64                `json:"ss-allocation" yaml:"ss-allocation" toml:"ss-allocation"`
	OutputDir           string                            `json:"output-dir" yaml:"output-dir" toml:"output-dir"`
	S3Bucket            string                            `json:"s3-bucket" yaml:"s3-bucket" toml:"s3-bucket"`
}
