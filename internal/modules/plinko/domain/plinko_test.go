package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplierTablesShape(t *testing.T) {
	for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
		for _, rows := range []int{8, 12, 16} {
			table, ok := Multipliers(risk, rows)
			require.True(t, ok, "%s/%d", risk, rows)
			assert.Len(t, table, rows+1, "%s/%d", risk, rows)

			// Tables are symmetric around the center bucket.
			for i := 0; i < len(table)/2; i++ {
				assert.Equal(t, table[i], table[len(table)-1-i], "%s/%d bucket %d", risk, rows, i)
			}
		}
	}

	_, ok := Multipliers(RiskLow, 10)
	assert.False(t, ok)
}

func TestEdgeBucketsPayMost(t *testing.T) {
	for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
		for _, rows := range []int{8, 12, 16} {
			table, _ := Multipliers(risk, rows)
			center := table[len(table)/2]
			assert.Greater(t, table[0], center, "%s/%d", risk, rows)
		}
	}
}
