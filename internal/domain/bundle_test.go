package domain_test

import (
	"testing"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSoil(gridRef string) domain.SoilParameters {
	return domain.SoilParameters{
		GridRef:  gridRef,
		SoilName: "loam",
		ThetaR:   0.078, ThetaS: 0.43, Alpha: 0.036, N: 1.56, K0: 24.96,
		SMW: 0.10, SMFCF: 0.24, SM0: 0.43,
		SMTAB:  []float64{-1, 0.43, 2.0, 0.30},
		CONTAB: []float64{-1, 1.4, 2.0, -0.5},
		CRAIRC: 0.060, SOPE: 1.47, KSUB: 1.47, RDMSOL: 80,
		SPADS: 0.100, SPODS: 0.030, SPASS: 0.200, SPOSS: 0.050, DEFLIM: -0.300,
	}
}

func makeBundle(t *testing.T) domain.InputBundle {
	t.Helper()
	return domain.InputBundle{
		Location: domain.Location{GridRef: "SX92289293", Lon: -3.5275, Lat: 50.7260, Elevation: 28},
		Weather:  makeSeries(t, day(2020, time.March, 1), 366),
		Soil:     makeSoil("SX92289293"),
		Site:     domain.DefaultSite(),
		Period:   domain.Period{Start: day(2020, time.April, 1), End: day(2020, time.September, 30)},
	}
}

func TestInputBundle_Validate(t *testing.T) {
	require.NoError(t, makeBundle(t).Validate())
}

func TestInputBundle_Validate_SoilLocationMismatch(t *testing.T) {
	b := makeBundle(t)
	b.Soil.GridRef = "SW65902670"

	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soil resolved for")
}

func TestInputBundle_Validate_PeriodOutsideCoverage(t *testing.T) {
	b := makeBundle(t)
	b.Period.End = b.Weather.Last.AddDate(0, 0, 1)

	err := b.Validate()
	assert.ErrorIs(t, err, domain.ErrIncompleteInputs)
}

func TestInputBundle_Validate_IncompleteSoil(t *testing.T) {
	b := makeBundle(t)
	b.Soil.K0 = 0

	err := b.Validate()
	assert.ErrorIs(t, err, domain.ErrIncompleteSoilData)
}

func TestSoilParameters_Validate_MoistureOrdering(t *testing.T) {
	p := makeSoil("SX92289293")
	p.SMW, p.SMFCF = p.SMFCF, p.SMW

	err := p.Validate()
	require.ErrorIs(t, err, domain.ErrIncompleteSoilData)
	assert.Contains(t, err.Error(), "SMW < SMFCF < SM0")
}

func TestPeriod_Validate(t *testing.T) {
	assert.Error(t, domain.Period{}.Validate())
	assert.Error(t, domain.Period{Start: day(2020, time.May, 2), End: day(2020, time.May, 1)}.Validate())
	assert.NoError(t, domain.Period{Start: day(2020, time.May, 1), End: day(2020, time.May, 1)}.Validate())
}

func TestPeriod_Days(t *testing.T) {
	p := domain.Period{Start: day(2020, time.May, 1), End: day(2020, time.May, 10)}
	assert.Equal(t, 10, p.Days())
}
