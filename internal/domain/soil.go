package domain

import (
	"fmt"
	"math"
)

// SoilParameters is the soil input set WOFOST consumes, keyed to a grid
// reference. Hydraulic behaviour is the van Genuchten retention curve with
// Mualem conductivity; SMTAB and CONTAB tabulate both over pF. Immutable
// once resolved; a missing field is a hard ErrIncompleteSoilData, soil data
// is never gap-filled.
type SoilParameters struct {
	GridRef string  `json:"grid_ref"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`

	// SoilName is the textural class, e.g. "silty loam".
	SoilName string `json:"soil_name"`

	// Van Genuchten parameters: residual and saturated water content
	// (cm³/cm³), alpha (1/cm), shape n, saturated conductivity K0 (cm/day).
	ThetaR float64 `json:"theta_r"`
	ThetaS float64 `json:"theta_s"`
	Alpha  float64 `json:"alpha"`
	N      float64 `json:"n"`
	K0     float64 `json:"k0"`

	// Derived moisture contents: wilting point, field capacity, saturation.
	SMW   float64 `json:"smw"`
	SMFCF float64 `json:"smfcf"`
	SM0   float64 `json:"sm0"`

	// SMTAB and CONTAB interleave pF values with water content (cm³/cm³)
	// and conductivity (cm/day) respectively.
	SMTAB  []float64 `json:"smtab"`
	CONTAB []float64 `json:"contab"`

	// Fixed site-soil constants.
	CRAIRC float64 `json:"crairc"`
	SOPE   float64 `json:"sope"`
	KSUB   float64 `json:"ksub"`
	RDMSOL float64 `json:"rdmsol"`
	SPADS  float64 `json:"spads"`
	SPODS  float64 `json:"spods"`
	SPASS  float64 `json:"spass"`
	SPOSS  float64 `json:"sposs"`
	DEFLIM float64 `json:"deflim"`
}

// Validate checks that every field the simulation engine requires is
// present and physically plausible.
func (p SoilParameters) Validate() error {
	if p.GridRef == "" {
		return fmt.Errorf("%w: no grid reference", ErrIncompleteSoilData)
	}
	if p.SoilName == "" {
		return fmt.Errorf("%w: no soil class for %s", ErrIncompleteSoilData, p.GridRef)
	}

	scalars := map[string]float64{
		"theta_r": p.ThetaR,
		"theta_s": p.ThetaS,
		"alpha":   p.Alpha,
		"n":       p.N,
		"k0":      p.K0,
		"smw":     p.SMW,
		"smfcf":   p.SMFCF,
		"sm0":     p.SM0,
	}
	for name, v := range scalars {
		if v <= 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s missing for %s", ErrIncompleteSoilData, name, p.GridRef)
		}
	}

	if !(p.SMW < p.SMFCF && p.SMFCF < p.SM0) {
		return fmt.Errorf("%w: moisture ordering SMW < SMFCF < SM0 violated for %s (%.3f, %.3f, %.3f)",
			ErrIncompleteSoilData, p.GridRef, p.SMW, p.SMFCF, p.SM0)
	}
	if len(p.SMTAB) == 0 || len(p.SMTAB)%2 != 0 {
		return fmt.Errorf("%w: SMTAB missing or odd-length for %s", ErrIncompleteSoilData, p.GridRef)
	}
	if len(p.CONTAB) == 0 || len(p.CONTAB)%2 != 0 {
		return fmt.Errorf("%w: CONTAB missing or odd-length for %s", ErrIncompleteSoilData, p.GridRef)
	}
	return nil
}
