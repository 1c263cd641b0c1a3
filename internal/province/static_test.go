package province

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_HasSixteenUniqueEntries(t *testing.T) {
	entries := Table()
	require.Len(t, entries, 16)

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true

		id, ok := IDForName(e.Name)
		require.True(t, ok, "name %q must map back to an id", e.Name)
		assert.Equal(t, e.ID, id)

		assert.GreaterOrEqual(t, e.Coordinates.X, 0.0)
		assert.LessOrEqual(t, e.Coordinates.X, 100.0)
		assert.GreaterOrEqual(t, e.Coordinates.Y, 0.0)
		assert.LessOrEqual(t, e.Coordinates.Y, 100.0)
	}
}

func TestIDForName_IsExact(t *testing.T) {
	_, ok := IDForName("Pinar del Rio")
	assert.False(t, ok, "accents are part of the name")

	_, ok = IDForName("la habana")
	assert.False(t, ok)

	id, ok := IDForName("Camagüey")
	require.True(t, ok)
	assert.Equal(t, "camaguey", id)
}

func TestStaticEstimate_Matanzas(t *testing.T) {
	data := NewStaticEstimator().Estimate(testContext(t), 120)

	require.Len(t, data.Provinces, 16)
	assert.Equal(t, 120.0, data.NationalRate)

	var found bool
	for _, p := range data.Provinces {
		if p.ID == "matanzas" {
			found = true
			assert.Equal(t, 134.0, p.USDRate)
			assert.Equal(t, 12.0, p.Variance)
			assert.Equal(t, "Matanzas", p.Name)
		}
	}
	assert.True(t, found)
}

func TestStaticEstimate_Deterministic(t *testing.T) {
	est := NewStaticEstimator()
	est.now = func() time.Time { return time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC) }
	a := est.Estimate(testContext(t), 415)

	est.now = func() time.Time { return time.Date(2025, 10, 17, 10, 0, 0, 0, time.UTC) }
	b := est.Estimate(testContext(t), 415)

	assert.Equal(t, a.Provinces, b.Provinces)
	assert.NotEqual(t, a.LastUpdated, b.LastUpdated)
}

func TestApplyVariance(t *testing.T) {
	tests := []struct {
		national, variance, want float64
	}{
		{120, 12.0, 134},
		{120, -3.5, 116},
		{400, 0.5, 402},
		{100, -8.0, 92},
		{410, -6.5, 383},
		// 334.5: halves round away from zero.
		{300, 11.5, 335},
		{0, 12.0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyVariance(tt.national, tt.variance), "%v @ %v%%", tt.national, tt.variance)
	}
}

func TestVarianceOf(t *testing.T) {
	assert.Equal(t, -4.2, VarianceOf(115, 120))
	assert.Equal(t, 12.0, VarianceOf(134.4, 120))
	assert.Equal(t, 0.0, VarianceOf(120, 120))
	assert.Equal(t, 0.0, VarianceOf(120, 0))
}
