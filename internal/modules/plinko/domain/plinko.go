// Package domain holds the plinko payout tables. A drop through N rows lands
// in one of N+1 buckets; the payout per bucket depends on the chosen risk.
package domain

// Risk selects a payout table
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Valid reports whether the risk level is known
func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// SupportedRows reports whether a row count has payout tables
func SupportedRows(rows int) bool {
	switch rows {
	case 8, 12, 16:
		return true
	}
	return false
}

// multipliers[risk][rows] is the payout per bucket, edge to edge.
var multipliers = map[Risk]map[int][]float64{
	RiskLow: {
		8:  {5.6, 2.1, 1.1, 1, 0.5, 1, 1.1, 2.1, 5.6},
		12: {10, 3, 1.6, 1.4, 1.1, 1, 0.5, 1, 1.1, 1.4, 1.6, 3, 10},
		16: {16, 9, 2, 1.4, 1.4, 1.2, 1.1, 1, 0.5, 1, 1.1, 1.2, 1.4, 1.4, 2, 9, 16},
	},
	RiskMedium: {
		8:  {13, 3, 1.3, 0.7, 0.4, 0.7, 1.3, 3, 13},
		12: {33, 11, 4, 2, 1.1, 0.6, 0.3, 0.6, 1.1, 2, 4, 11, 33},
		16: {110, 41, 10, 5, 3, 1.5, 1, 0.5, 0.3, 0.5, 1, 1.5, 3, 5, 10, 41, 110},
	},
	RiskHigh: {
		8:  {29, 4, 1.5, 0.3, 0.2, 0.3, 1.5, 4, 29},
		12: {170, 24, 8.1, 2, 0.7, 0.2, 0.2, 0.2, 0.7, 2, 8.1, 24, 170},
		16: {1000, 130, 26, 9, 4, 2, 0.2, 0.2, 0.2, 0.2, 0.2, 2, 4, 9, 26, 130, 1000},
	},
}

// Multipliers returns the payout table for the given risk and rows. The
// second return is false for unsupported combinations.
func Multipliers(risk Risk, rows int) ([]float64, bool) {
	table, ok := multipliers[risk][rows]
	return table, ok
}
