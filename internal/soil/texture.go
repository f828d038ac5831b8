package soil

import (
	"fmt"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// vanGenuchten is the parameter set of a van Genuchten retention curve.
// Alpha is in 1/cm, K0 in cm/day.
type vanGenuchten struct {
	ThetaR float64
	ThetaS float64
	Alpha  float64
	N      float64
	K0     float64
}

// classAverages holds the Carsel & Parrish (1988) class-average van
// Genuchten parameters per USDA texture class.
var classAverages = map[string]vanGenuchten{
	"sand":            {0.045, 0.43, 0.145, 2.68, 712.8},
	"loamy sand":      {0.057, 0.41, 0.124, 2.28, 350.2},
	"sandy loam":      {0.065, 0.41, 0.075, 1.89, 106.1},
	"loam":            {0.078, 0.43, 0.036, 1.56, 24.96},
	"silt":            {0.034, 0.46, 0.016, 1.37, 6.00},
	"silt loam":       {0.067, 0.45, 0.020, 1.41, 10.80},
	"sandy clay loam": {0.100, 0.39, 0.059, 1.48, 31.44},
	"clay loam":       {0.095, 0.41, 0.019, 1.31, 6.24},
	"silty clay loam": {0.089, 0.43, 0.010, 1.23, 1.68},
	"sandy clay":      {0.100, 0.38, 0.027, 1.23, 2.88},
	"silty clay":      {0.070, 0.36, 0.005, 1.09, 0.48},
	"clay":            {0.068, 0.38, 0.008, 1.09, 4.80},
}

// classifyTexture places a sand/silt/clay composition in the USDA texture
// triangle. Fractions are percent by weight and assumed to sum to ~100.
func classifyTexture(t Texture) string {
	sand, silt, clay := t.Sand, t.Silt, t.Clay
	switch {
	case silt+1.5*clay < 15:
		return "sand"
	case silt+2*clay < 30:
		return "loamy sand"
	case clay >= 40 && silt >= 40:
		return "silty clay"
	case clay >= 35 && sand > 45:
		return "sandy clay"
	case clay >= 40:
		return "clay"
	case clay >= 27 && sand <= 20:
		return "silty clay loam"
	case clay >= 27 && sand <= 45:
		return "clay loam"
	case clay >= 20 && sand > 45 && silt < 28:
		return "sandy clay loam"
	case silt >= 80 && clay < 12:
		return "silt"
	case silt >= 50:
		return "silt loam"
	case clay >= 7 && silt >= 28 && sand <= 52:
		return "loam"
	default:
		return "sandy loam"
	}
}

// lookupClass maps a texture to its class-average hydraulic parameters.
func lookupClass(t Texture) (string, vanGenuchten, error) {
	name := classifyTexture(t)
	vg, ok := classAverages[name]
	if !ok {
		return "", vanGenuchten{}, fmt.Errorf("%w: no hydraulic parameters for texture class %q",
			domain.ErrIncompleteSoilData, name)
	}
	return name, vg, nil
}
