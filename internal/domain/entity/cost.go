package entity

import (
	"sort"
	"time"
)

// Chaves reservadas nas matrizes de custo. Nunca identificam uma conta,
// unidade de negócio ou serviço real.
const (
	// TotalKey guarda a soma mensal de todas as outras entradas do mês.
	TotalKey = "total"

	// SharedServicesKey é o pool de serviços compartilhados definido em
	// account-groups na configuração.
	SharedServicesKey = "ss"

	// UnallocatedKey agrupa contas presentes no billing mas ausentes de
	// qualquer unidade de negócio configurada.
	UnallocatedKey = "unallocated"

	// OtherKey agrega as fatias menores que 1% no gráfico de pizza.
	OtherKey = "Other"
)

// MonthLabelLayout é o formato dos rótulos de mês da matriz (ex: "2024-Jan").
const MonthLabelLayout = "2006-Jan"

// CostGroup is a single keyed amount returned by the billing API for one
// period. The key is a linked account ID or a service name, depending on the
// grouping dimension of the query.
type CostGroup struct {
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
}

// CostPeriod is one time period of a billing API response.
type CostPeriod struct {
	Start  time.Time   `json:"start"`
	Groups []CostGroup `json:"groups"`
}

// CostMatrix é o resultado de qualquer agregação: meses em ordem cronológica
// e, por mês, o custo arredondado de cada grupo mais a entrada TotalKey.
type CostMatrix struct {
	Months []string                      `json:"months"`
	Costs  map[string]map[string]float64 `json:"costs"`
}

// NewCostMatrix returns an empty matrix ready for accumulation.
func NewCostMatrix() *CostMatrix {
	return &CostMatrix{Costs: make(map[string]map[string]float64)}
}

// MonthCosts returns the cost map for label, creating it (and recording the
// month order) on first access.
func (m *CostMatrix) MonthCosts(label string) map[string]float64 {
	if costs, ok := m.Costs[label]; ok {
		return costs
	}
	costs := make(map[string]float64)
	m.Costs[label] = costs
	m.Months = append(m.Months, label)
	return costs
}

// LatestMonth returns the label of the most recent month, or "" when the
// matrix is empty.
func (m *CostMatrix) LatestMonth() string {
	if len(m.Months) == 0 {
		return ""
	}
	return m.Months[len(m.Months)-1]
}

// GroupNames returns the sorted union of all group keys across every month,
// TotalKey excluded.
func (m *CostMatrix) GroupNames() []string {
	seen := make(map[string]bool)
	for _, costs := range m.Costs {
		for name := range costs {
			if name != TotalKey {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
