package soil

import (
	"math"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// Characteristic matric potentials on the pF scale. Wilting point sits at
// 15 bar of suction, field capacity at 150 cm of water column.
var (
	wiltingPF       = math.Log10(1.5e4)
	fieldCapacityPF = math.Log10(150)
)

// Fixed WOFOST soil constants that the texture databases do not carry.
const (
	defaultCRAIRC = 0.060
	defaultSOPE   = 1.47
	defaultKSUB   = 1.47
	defaultRDMSOL = 80.0
	defaultSPADS  = 0.100
	defaultSPODS  = 0.030
	defaultSPASS  = 0.200
	defaultSPOSS  = 0.050
	defaultDEFLIM = -0.300
)

// pfAxis is the matric potential grid the retention and conductivity
// tables are evaluated on: saturation at pF -1, then 0 to 6 in steps
// of 0.1.
func pfAxis() []float64 {
	axis := make([]float64, 0, 62)
	axis = append(axis, -1.0)
	for i := 0; i <= 60; i++ {
		axis = append(axis, float64(i)/10)
	}
	return axis
}

// waterRetention evaluates the van Genuchten retention curve at matric
// head h (cm), returning volumetric moisture content.
func waterRetention(h float64, vg vanGenuchten) float64 {
	m := 1 - 1/vg.N
	return vg.ThetaR + (vg.ThetaS-vg.ThetaR)/math.Pow(1+math.Pow(vg.Alpha*math.Abs(h), vg.N), m)
}

// waterConductivity evaluates the Mualem-van Genuchten conductivity at
// matric head h (cm), returning cm/day.
func waterConductivity(h float64, vg vanGenuchten) float64 {
	m := 1 - 1/vg.N
	se := (waterRetention(h, vg) - vg.ThetaR) / (vg.ThetaS - vg.ThetaR)
	return vg.K0 * math.Sqrt(se) * math.Pow(1-math.Pow(1-math.Pow(se, 1/m), m), 2)
}

// deriveParameters turns a texture composition into the full soil
// parameter set: class-average hydraulic constants, retention and
// conductivity tables over the pF axis, the three characteristic moisture
// contents, and the fixed constants.
func deriveParameters(loc domain.Location, texture Texture) (domain.SoilParameters, error) {
	name, vg, err := lookupClass(texture)
	if err != nil {
		return domain.SoilParameters{}, err
	}

	axis := pfAxis()
	smtab := make([]float64, 0, 2*len(axis))
	contab := make([]float64, 0, 2*len(axis))
	var smw, smfcf, sm0 float64
	for _, pf := range axis {
		h := math.Pow(10, pf)
		theta := waterRetention(h, vg)
		cond := waterConductivity(h, vg)
		smtab = append(smtab, pf, theta)
		contab = append(contab, pf, cond)

		switch {
		case pf == axis[0]:
			sm0 = theta
		case nearest(pf, wiltingPF):
			smw = theta
		case nearest(pf, fieldCapacityPF):
			smfcf = theta
		}
	}

	return domain.SoilParameters{
		GridRef:  loc.GridRef,
		Lon:      loc.Lon,
		Lat:      loc.Lat,
		SoilName: name,

		ThetaR: vg.ThetaR,
		ThetaS: vg.ThetaS,
		Alpha:  vg.Alpha,
		N:      vg.N,
		K0:     vg.K0,

		SMW:   smw,
		SMFCF: smfcf,
		SM0:   sm0,

		SMTAB:  smtab,
		CONTAB: contab,

		CRAIRC: defaultCRAIRC,
		SOPE:   defaultSOPE,
		KSUB:   defaultKSUB,
		RDMSOL: defaultRDMSOL,
		SPADS:  defaultSPADS,
		SPODS:  defaultSPODS,
		SPASS:  defaultSPASS,
		SPOSS:  defaultSPOSS,
		DEFLIM: defaultDEFLIM,
	}, nil
}

// nearest reports whether pf is the grid point closest to target on the
// 0.1-spaced axis.
func nearest(pf, target float64) bool {
	return math.Abs(pf-target) < 0.05
}
