// Package aggregator contém as transformações puras de custo: normalização
// das respostas da API de billing, agregação por conta, unidade de negócio e
// serviço, seleção top-N e os cálculos de apresentação. Nenhuma função aqui
// faz I/O; warnings saem pela ConsoleInterface injetada.
package aggregator

import (
	"sort"
	"strings"

	"github.com/diillson/aws-cost-report-go/internal/domain/entity"
	"github.com/diillson/aws-cost-report-go/internal/shared/types"
)

// Normalize converte os períodos crus da API de billing em uma matriz
// mês -> {chave: valor}, sem arredondamento e sem a entrada de total.
// Quando dailyAverage é true, cada valor é dividido pelo número de dias do
// mês do próprio período (fevereiro bissexto divide por 29).
func Normalize(periods []entity.CostPeriod, dailyAverage bool) *entity.CostMatrix {
	matrix := entity.NewCostMatrix()
	for _, period := range periods {
		costs := matrix.MonthCosts(period.Start.Format(entity.MonthLabelLayout))
		divisor := 1.0
		if dailyAverage {
			divisor = float64(DaysInMonth(period.Start))
		}
		for _, group := range period.Groups {
			costs[group.Key] += group.Amount / divisor
		}
	}
	return matrix
}

// AggregateByBusinessUnit soma os custos por conta nas unidades de negócio
// definidas em accountGroups. Contas fora de qualquer unidade viram a linha
// UnallocatedKey, com warning. Quando allocation está presente, o total do
// pool "ss" de cada mês é rateado nas unidades nomeadas e a linha "ss" zera;
// sem allocation o pool permanece como linha própria.
func AggregateByBusinessUnit(monthly *entity.CostMatrix, accountGroups map[string]map[string]types.AccountMeta, allocation map[string]float64, console types.ConsoleInterface) *entity.CostMatrix {
	unitByAccount := make(map[string]string)
	for unit, accounts := range accountGroups {
		for accountID := range accounts {
			unitByAccount[accountID] = unit
		}
	}

	unallocated := make(map[string]bool)
	result := entity.NewCostMatrix()

	for _, label := range monthly.Months {
		costs := result.MonthCosts(label)
		for accountID, amount := range monthly.Costs[label] {
			unit, ok := unitByAccount[accountID]
			if !ok {
				unallocated[accountID] = true
				costs[entity.UnallocatedKey] += amount
				continue
			}
			costs[unit] += amount
		}

		roundEntries(costs)

		if len(allocation) > 0 {
			shared := costs[entity.SharedServicesKey]
			for unit, pct := range allocation {
				costs[unit] = Round2(costs[unit] + Round2(shared*pct/100))
			}
			costs[entity.SharedServicesKey] = 0
		}

		setTotal(costs)
	}

	if console != nil && len(unallocated) > 0 {
		accounts := make([]string, 0, len(unallocated))
		for accountID := range unallocated {
			accounts = append(accounts, accountID)
		}
		sort.Strings(accounts)
		console.LogWarning("Accounts not assigned to any business unit, reported as %q: %s",
			entity.UnallocatedKey, strings.Join(accounts, ", "))
	}

	if console != nil && len(allocation) > 0 {
		var sum float64
		for _, pct := range allocation {
			sum += pct
		}
		if Round2(sum) != 100 {
			console.LogWarning("ss-allocation percentages sum to %.2f%%, not 100%%; applying as configured", sum)
		}
	}

	return result
}

// AggregateByService aplica a lista de exclusões e as regras de categorização
// aos custos por serviço e mantém as topN maiores entradas do mês mais
// recente. Serviços sem regra passam com o próprio nome.
func AggregateByService(monthly *entity.CostMatrix, aggregations map[string][]string, exclusions []string, topN int) *entity.CostMatrix {
	categoryByService := make(map[string]string)
	for category, services := range aggregations {
		for _, service := range services {
			categoryByService[service] = category
		}
	}

	excluded := make(map[string]bool, len(exclusions))
	for _, service := range exclusions {
		excluded[service] = true
	}

	result := entity.NewCostMatrix()
	for _, label := range monthly.Months {
		costs := result.MonthCosts(label)
		for service, amount := range monthly.Costs[label] {
			if excluded[service] {
				continue
			}
			if category, ok := categoryByService[service]; ok {
				costs[category] += amount
			} else {
				costs[service] += amount
			}
		}
		roundEntries(costs)
		setTotal(costs)
	}

	return SelectTopN(result, topN)
}

// AggregateByAccount agrega por conta individual, trocando IDs por nomes
// quando a lista da Organization os resolve, e mantém as topN contas.
func AggregateByAccount(monthly *entity.CostMatrix, accounts []entity.OrganizationAccount, topN int) *entity.CostMatrix {
	nameByID := make(map[string]string, len(accounts))
	for _, account := range accounts {
		if account.Name != "" {
			nameByID[account.ID] = account.Name
		}
	}

	result := entity.NewCostMatrix()
	for _, label := range monthly.Months {
		costs := result.MonthCosts(label)
		for accountID, amount := range monthly.Costs[label] {
			name, ok := nameByID[accountID]
			if !ok {
				name = accountID
			}
			costs[name] += amount
		}
		roundEntries(costs)
		setTotal(costs)
	}

	return SelectTopN(result, topN)
}

// SelectTopN mantém apenas as n entradas de maior custo no mês mais recente,
// reconstruindo a matriz inteira com essas entradas (meses sem dado valem 0)
// e recalculando os totais. n <= 0, matriz vazia ou menos de n entradas
// mantêm a matriz como está.
func SelectTopN(matrix *entity.CostMatrix, n int) *entity.CostMatrix {
	latest := matrix.LatestMonth()
	if latest == "" || n <= 0 {
		return matrix
	}

	latestCosts := matrix.Costs[latest]
	names := make([]string, 0, len(latestCosts))
	for name := range latestCosts {
		if name != entity.TotalKey {
			names = append(names, name)
		}
	}
	if len(names) <= n {
		return matrix
	}

	// Ordena por nome antes do custo para que empates fiquem determinísticos.
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool {
		return latestCosts[names[i]] > latestCosts[names[j]]
	})
	names = names[:n]

	result := entity.NewCostMatrix()
	for _, label := range matrix.Months {
		costs := result.MonthCosts(label)
		total := 0.0
		for _, name := range names {
			value := matrix.Costs[label][name]
			costs[name] = value
			total += value
		}
		costs[entity.TotalKey] = Round2(total)
	}
	return result
}

// PieBreakdown devolve os rótulos e valores do mês mais recente para o
// gráfico de pizza, somando em OtherKey as fatias menores que threshold
// (fração do total do mês). Fatias em ordem decrescente, OtherKey por último.
func PieBreakdown(matrix *entity.CostMatrix, threshold float64) ([]string, []float64) {
	latest := matrix.LatestMonth()
	if latest == "" {
		return nil, nil
	}
	costs := matrix.Costs[latest]
	total := costs[entity.TotalKey]

	names := make([]string, 0, len(costs))
	for name := range costs {
		if name != entity.TotalKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool {
		return costs[names[i]] > costs[names[j]]
	})

	labels := make([]string, 0, len(names))
	values := make([]float64, 0, len(names))
	other := 0.0
	for _, name := range names {
		value := costs[name]
		if total > 0 && value/total < threshold {
			other += value
			continue
		}
		labels = append(labels, name)
		values = append(values, value)
	}
	if other > 0 {
		labels = append(labels, entity.OtherKey)
		values = append(values, Round2(other))
	}
	return labels, values
}

// roundEntries arredonda todas as entradas do mês para 2 casas decimais.
func roundEntries(costs map[string]float64) {
	for name, value := range costs {
		costs[name] = Round2(value)
	}
}

// setTotal grava em TotalKey a soma arredondada das demais entradas.
func setTotal(costs map[string]float64) {
	total := 0.0
	for name, value := range costs {
		if name != entity.TotalKey {
			total += value
		}
	}
	costs[entity.TotalKey] = Round2(total)
}
