package soil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTexture(t *testing.T) {
	cases := []struct {
		name string
		tex  Texture
		want string
	}{
		{"dune sand", Texture{Sand: 92, Silt: 5, Clay: 3}, "sand"},
		{"loamy sand", Texture{Sand: 82, Silt: 10, Clay: 8}, "loamy sand"},
		{"sandy loam", Texture{Sand: 65, Silt: 25, Clay: 10}, "sandy loam"},
		{"loam", Texture{Sand: 40, Silt: 40, Clay: 20}, "loam"},
		{"silt", Texture{Sand: 5, Silt: 88, Clay: 7}, "silt"},
		{"silt loam", Texture{Sand: 20, Silt: 65, Clay: 15}, "silt loam"},
		{"sandy clay loam", Texture{Sand: 60, Silt: 15, Clay: 25}, "sandy clay loam"},
		{"clay loam", Texture{Sand: 35, Silt: 35, Clay: 30}, "clay loam"},
		{"silty clay loam", Texture{Sand: 10, Silt: 58, Clay: 32}, "silty clay loam"},
		{"sandy clay", Texture{Sand: 50, Silt: 10, Clay: 40}, "sandy clay"},
		{"silty clay", Texture{Sand: 5, Silt: 50, Clay: 45}, "silty clay"},
		{"clay", Texture{Sand: 20, Silt: 20, Clay: 60}, "clay"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyTexture(tc.tex))
		})
	}
}

func TestEveryClassHasParameters(t *testing.T) {
	// Sweep the triangle on a coarse grid; every composition must land
	// in a class with a parameter row.
	for sand := 0.0; sand <= 100; sand += 5 {
		for clay := 0.0; clay <= 100-sand; clay += 5 {
			tex := Texture{Sand: sand, Silt: 100 - sand - clay, Clay: clay}
			name := classifyTexture(tex)
			_, ok := classAverages[name]
			require.True(t, ok, "no parameters for %q (sand %.0f clay %.0f)", name, sand, clay)
		}
	}
}

func TestRetentionCurveShape(t *testing.T) {
	vg := classAverages["loam"]

	// Moisture content decreases monotonically with suction.
	prev := waterRetention(0.1, vg)
	assert.InDelta(t, vg.ThetaS, prev, 0.01, "near saturation")
	for pf := 0.0; pf <= 6.0; pf += 0.5 {
		theta := waterRetention(pow10(pf), vg)
		assert.LessOrEqual(t, theta, prev, "pF %.1f", pf)
		prev = theta
	}
	// Dry end approaches the residual content.
	assert.InDelta(t, vg.ThetaR, waterRetention(pow10(6), vg), 0.01)
}

func pow10(pf float64) float64 { return math.Pow(10, pf) }

func TestConductivityBounds(t *testing.T) {
	vg := classAverages["sandy loam"]

	assert.InDelta(t, vg.K0, waterConductivity(1e-9, vg), 1.0, "saturated end")
	prev := waterConductivity(0.1, vg)
	for pf := 0.0; pf <= 6.0; pf += 0.5 {
		k := waterConductivity(pow10(pf), vg)
		assert.LessOrEqual(t, k, prev, "pF %.1f", pf)
		assert.GreaterOrEqual(t, k, 0.0)
		prev = k
	}
}

func TestPFAxis(t *testing.T) {
	axis := pfAxis()
	require.Len(t, axis, 62)
	assert.Equal(t, -1.0, axis[0])
	assert.Equal(t, 0.0, axis[1])
	assert.Equal(t, 6.0, axis[61])
}
