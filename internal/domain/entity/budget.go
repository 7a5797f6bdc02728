package entity

// BudgetInfo represents a budget with actual and forecasted spend, as
// returned by the Budgets API for the caller account.
type BudgetInfo struct {
	Name     string  `json:"name"`
	Limit    float64 `json:"limit"`
	Actual   float64 `json:"actual"`
	Forecast float64 `json:"forecast,omitempty"`
}

// PercentUsed retorna a fração do limite já consumida, 0 quando o orçamento
// não define limite.
func (b BudgetInfo) PercentUsed() float64 {
	if b.Limit <= 0 {
		return 0
	}
	return b.Actual / b.Limit
}
