package entity

import "time"

// ReportMode seleciona a dimensão de agregação do relatório.
type ReportMode string

const (
	// ModeAccount agrega por conta individual (top-N).
	ModeAccount ReportMode = "account"

	// ModeBusinessUnit agrega contas em unidades de negócio.
	ModeBusinessUnit ReportMode = "bu"

	// ModeService agrega por serviço, com regras de categorização.
	ModeService ReportMode = "service"
)

// ReportRequest carries the fully parsed parameters of one report run.
// Diretório de saída e bucket S3 vêm da configuração mesclada, não daqui.
type ReportRequest struct {
	Mode         ReportMode `json:"mode"`
	DailyAverage bool       `json:"daily_average"`
	PeriodStart  time.Time  `json:"period_start"`
	PeriodEnd    time.Time  `json:"period_end"` // exclusivo, como na API de billing
	Formats      []string   `json:"formats"`
	Profile      string     `json:"profile,omitempty"`
}
