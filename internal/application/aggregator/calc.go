package aggregator

import (
	"math"
	"time"
)

// Round2 arredonda para 2 casas decimais. É a única primitiva de
// arredondamento usada nas matrizes de custo.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// DaysInMonth retorna o número de dias do mês de date, usando o ano da
// própria data (fevereiro de ano bissexto retorna 29).
func DaysInMonth(date time.Time) int {
	firstOfMonth := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// PercentageDifference returns the relative change from v1 to v2 as a
// fraction (0.25 == +25%). A zero baseline with a non-zero v2 reports a full
// swing in the direction of v2; two zeros report no change.
func PercentageDifference(v1, v2 float64) float64 {
	if v1 == 0 {
		switch {
		case v2 > 0:
			return 1.0
		case v2 < 0:
			return -1.0
		default:
			return 0.0
		}
	}
	return (v2 - v1) / math.Abs(v1)
}

// PercentageOfSpend returns value as a fraction of total, 0 when total is
// not positive.
func PercentageOfSpend(value, total float64) float64 {
	if total > 0 {
		return value / total
	}
	return 0.0
}

// AbsoluteDifference retorna |v2 - v1|.
func AbsoluteDifference(v1, v2 float64) float64 {
	return math.Abs(v2 - v1)
}
