package domain

import (
	"fmt"
	"math"
	"strings"
)

// Ellipsoid and projection constants for the OS National Grid.
// Airy 1830 underlies OSGB36; GRS80/WGS84 underlies GPS coordinates.
const (
	airyA = 6377563.396
	airyB = 6356256.909
	wgsA  = 6378137.000
	wgsB  = 6356752.3141

	// National Grid transverse Mercator parameters: central-meridian scale,
	// true origin at 49°N 2°W, false origin offsets.
	gridScaleF0 = 0.9996012717
	gridLat0    = 49.0 * math.Pi / 180.0
	gridLon0    = -2.0 * math.Pi / 180.0
	gridE0      = 400000.0
	gridN0      = -100000.0
)

// Helmert 7-parameter transformation WGS84 -> OSGB36 (OS standard values).
// Translations in metres, scale in ppm, rotations in arc-seconds.
const (
	helmertTX = -446.448
	helmertTY = 125.157
	helmertTZ = -542.060
	helmertS  = 20.4894e-6
	helmertRX = -0.1502 / 3600.0 * math.Pi / 180.0
	helmertRY = -0.2470 / 3600.0 * math.Pi / 180.0
	helmertRZ = -0.8421 / 3600.0 * math.Pi / 180.0
)

// gridSquares maps 100 km squares to their letter pairs, rows north to south.
// Row r covers northings [(12-r)*100km, (13-r)*100km); column c covers
// eastings [c*100km, (c+1)*100km).
var gridSquares = [13][7]string{
	{"HL", "HM", "HN", "HO", "HP", "JL", "JM"},
	{"HQ", "HR", "HS", "HT", "HU", "JQ", "JR"},
	{"HV", "HW", "HX", "HY", "HZ", "JV", "JW"},
	{"NA", "NB", "NC", "ND", "NE", "OA", "OB"},
	{"NF", "NG", "NH", "NJ", "NK", "OF", "OG"},
	{"NL", "NM", "NN", "NO", "NP", "OL", "OM"},
	{"NQ", "NR", "NS", "NT", "NU", "OQ", "OR"},
	{"NV", "NW", "NX", "NY", "NZ", "OV", "OW"},
	{"SA", "SB", "SC", "SD", "SE", "TA", "TB"},
	{"SF", "SG", "SH", "SJ", "SK", "TF", "TG"},
	{"SL", "SM", "SN", "SO", "SP", "TL", "TM"},
	{"SQ", "SR", "SS", "ST", "SU", "TQ", "TR"},
	{"SV", "SW", "SX", "SY", "SZ", "TV", "TW"},
}

// gridFigResolution maps supported reference lengths to cell size in metres.
var gridFigResolution = map[int]float64{4: 1000, 6: 100, 8: 10, 10: 1}

// FormatGridReference converts National Grid easting/northing to a letter-pair
// reference at the requested precision (4, 6, 8 or 10 figures). Coordinates
// outside the grid envelope fail with ErrOutOfBounds.
func FormatGridReference(easting, northing float64, figs int) (string, error) {
	res, ok := gridFigResolution[figs]
	if !ok {
		return "", fmt.Errorf("grid reference figures must be 4, 6, 8 or 10, got %d", figs)
	}

	col := int(math.Floor(easting / 100000))
	band := int(math.Floor(northing / 100000))
	if col < 0 || col >= 7 || band < 0 || band >= 13 {
		return "", fmt.Errorf("%w: easting %.0f, northing %.0f", ErrOutOfBounds, easting, northing)
	}

	letters := gridSquares[12-band][col]
	width := figs / 2
	e := int(math.Floor(math.Mod(easting, 100000) / res))
	n := int(math.Floor(math.Mod(northing, 100000) / res))
	return fmt.Sprintf("%s%0*d%0*d", letters, width, e, width, n), nil
}

// ParseGridReference converts a letter-pair reference to the easting/northing
// of its south-west corner, plus the cell resolution in metres. Malformed
// input fails with ErrInvalidGridReference.
func ParseGridReference(code string) (easting, northing, resolution float64, err error) {
	ref := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
	if len(ref) < 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q is too short", ErrInvalidGridReference, code)
	}

	letters := ref[:2]
	offE, offN, ok := squareOffsets(letters)
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: unknown letter pair %q", ErrInvalidGridReference, letters)
	}

	digits := ref[2:]
	res, ok := gridFigResolution[len(digits)]
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q has %d digits, want 4, 6, 8 or 10", ErrInvalidGridReference, code, len(digits))
	}

	half := len(digits) / 2
	var e, n int
	for i, r := range digits {
		if r < '0' || r > '9' {
			return 0, 0, 0, fmt.Errorf("%w: %q contains non-digit %q", ErrInvalidGridReference, code, r)
		}
		if i < half {
			e = e*10 + int(r-'0')
		} else {
			n = n*10 + int(r-'0')
		}
	}

	return offE + float64(e)*res, offN + float64(n)*res, res, nil
}

// GridReferenceFromLonLat converts a WGS84 coordinate to a National Grid
// reference at the requested precision.
func GridReferenceFromLonLat(lon, lat float64, figs int) (string, error) {
	e, n := projectLonLat(lon, lat)
	return FormatGridReference(e, n, figs)
}

// LonLatFromGridReference converts a grid reference to the WGS84 coordinate
// of its cell's south-west corner.
func LonLatFromGridReference(code string) (lon, lat float64, err error) {
	e, n, _, err := ParseGridReference(code)
	if err != nil {
		return 0, 0, err
	}
	lon, lat = unprojectEastingNorthing(e, n)
	return lon, lat, nil
}

// EastingNorthing projects a WGS84 coordinate onto the National Grid without
// formatting a reference. Used by adapters that index gridded UK datasets by
// easting/northing directly.
func EastingNorthing(lon, lat float64) (easting, northing float64) {
	return projectLonLat(lon, lat)
}

// squareOffsets returns the easting/northing of a 100 km square's SW corner.
func squareOffsets(letters string) (float64, float64, bool) {
	for r := range gridSquares {
		for c := range gridSquares[r] {
			if gridSquares[r][c] == letters {
				return float64(c) * 100000, float64(12-r) * 100000, true
			}
		}
	}
	return 0, 0, false
}

// projectLonLat converts WGS84 degrees to OSGB36 easting/northing: geodetic to
// cartesian on GRS80, Helmert shift to OSGB36, back to geodetic on Airy 1830,
// then the National Grid transverse Mercator projection.
func projectLonLat(lon, lat float64) (easting, northing float64) {
	x, y, z := geodeticToCartesian(lat*math.Pi/180, lon*math.Pi/180, wgsA, wgsB)
	x, y, z = helmert(x, y, z, 1)
	phi, lam := cartesianToGeodetic(x, y, z, airyA, airyB)
	return transverseMercator(phi, lam)
}

// unprojectEastingNorthing is the inverse of projectLonLat, returning WGS84 degrees.
func unprojectEastingNorthing(easting, northing float64) (lon, lat float64) {
	phi, lam := inverseTransverseMercator(easting, northing)
	x, y, z := geodeticToCartesian(phi, lam, airyA, airyB)
	x, y, z = helmert(x, y, z, -1)
	phi, lam = cartesianToGeodetic(x, y, z, wgsA, wgsB)
	return lam * 180 / math.Pi, phi * 180 / math.Pi
}

func geodeticToCartesian(phi, lam, a, b float64) (x, y, z float64) {
	e2 := (a*a - b*b) / (a * a)
	sp, cp := math.Sin(phi), math.Cos(phi)
	nu := a / math.Sqrt(1-e2*sp*sp)
	x = nu * cp * math.Cos(lam)
	y = nu * cp * math.Sin(lam)
	z = nu * (1 - e2) * sp
	return x, y, z
}

func cartesianToGeodetic(x, y, z, a, b float64) (phi, lam float64) {
	e2 := (a*a - b*b) / (a * a)
	p := math.Hypot(x, y)
	phi = math.Atan2(z, p*(1-e2))
	// Converges to sub-millimetre well within ten rounds.
	for i := 0; i < 10; i++ {
		sp := math.Sin(phi)
		nu := a / math.Sqrt(1-e2*sp*sp)
		phi = math.Atan2(z+e2*nu*sp, p)
	}
	return phi, math.Atan2(y, x)
}

// helmert applies the WGS84->OSGB36 datum shift for dir=1; dir=-1 applies the
// standard approximate inverse (negated parameters).
func helmert(x, y, z, dir float64) (float64, float64, float64) {
	tx, ty, tz := dir*helmertTX, dir*helmertTY, dir*helmertTZ
	rx, ry, rz := dir*helmertRX, dir*helmertRY, dir*helmertRZ
	s := dir * helmertS
	x2 := tx + (1+s)*x - rz*y + ry*z
	y2 := ty + rz*x + (1+s)*y - rx*z
	z2 := tz - ry*x + rx*y + (1+s)*z
	return x2, y2, z2
}

// meridionalArc computes the developed arc from the true origin latitude,
// per the OS projection guide series expansion.
func meridionalArc(phi float64) float64 {
	n := (airyA - airyB) / (airyA + airyB)
	n2, n3 := n*n, n*n*n
	dphi, sphi := phi-gridLat0, phi+gridLat0
	return airyB * gridScaleF0 * ((1+n+1.25*n2+1.25*n3)*dphi -
		(3*n+3*n2+21.0/8.0*n3)*math.Sin(dphi)*math.Cos(sphi) +
		(15.0/8.0*(n2+n3))*math.Sin(2*dphi)*math.Cos(2*sphi) -
		35.0/24.0*n3*math.Sin(3*dphi)*math.Cos(3*sphi))
}

func transverseMercator(phi, lam float64) (easting, northing float64) {
	e2 := (airyA*airyA - airyB*airyB) / (airyA * airyA)
	sp, cp, tp := math.Sin(phi), math.Cos(phi), math.Tan(phi)
	nu := airyA * gridScaleF0 / math.Sqrt(1-e2*sp*sp)
	rho := airyA * gridScaleF0 * (1 - e2) * math.Pow(1-e2*sp*sp, -1.5)
	eta2 := nu/rho - 1

	i := meridionalArc(phi) + gridN0
	ii := nu / 2 * sp * cp
	iii := nu / 24 * sp * math.Pow(cp, 3) * (5 - tp*tp + 9*eta2)
	iiia := nu / 720 * sp * math.Pow(cp, 5) * (61 - 58*tp*tp + math.Pow(tp, 4))
	iv := nu * cp
	v := nu / 6 * math.Pow(cp, 3) * (nu/rho - tp*tp)
	vi := nu / 120 * math.Pow(cp, 5) * (5 - 18*tp*tp + math.Pow(tp, 4) + 14*eta2 - 58*tp*tp*eta2)

	dl := lam - gridLon0
	northing = i + ii*dl*dl + iii*math.Pow(dl, 4) + iiia*math.Pow(dl, 6)
	easting = gridE0 + iv*dl + v*math.Pow(dl, 3) + vi*math.Pow(dl, 5)
	return easting, northing
}

func inverseTransverseMercator(easting, northing float64) (phi, lam float64) {
	e2 := (airyA*airyA - airyB*airyB) / (airyA * airyA)

	phi = gridLat0 + (northing-gridN0)/(airyA*gridScaleF0)
	m := meridionalArc(phi)
	for math.Abs(northing-gridN0-m) >= 0.00001 {
		phi += (northing - gridN0 - m) / (airyA * gridScaleF0)
		m = meridionalArc(phi)
	}

	sp, tp := math.Sin(phi), math.Tan(phi)
	nu := airyA * gridScaleF0 / math.Sqrt(1-e2*sp*sp)
	rho := airyA * gridScaleF0 * (1 - e2) * math.Pow(1-e2*sp*sp, -1.5)
	eta2 := nu/rho - 1

	vii := tp / (2 * rho * nu)
	viii := tp / (24 * rho * math.Pow(nu, 3)) * (5 + 3*tp*tp + eta2 - 9*tp*tp*eta2)
	ix := tp / (720 * rho * math.Pow(nu, 5)) * (61 + 90*tp*tp + 45*math.Pow(tp, 4))
	x := 1 / (math.Cos(phi) * nu)
	xi := 1 / (math.Cos(phi) * 6 * math.Pow(nu, 3)) * (nu/rho + 2*tp*tp)
	xii := 1 / (math.Cos(phi) * 120 * math.Pow(nu, 5)) * (5 + 28*tp*tp + 24*math.Pow(tp, 4))
	xiia := 1 / (math.Cos(phi) * 5040 * math.Pow(nu, 7)) * (61 + 662*tp*tp + 1320*math.Pow(tp, 4) + 720*math.Pow(tp, 6))

	de := easting - gridE0
	phi = phi - vii*de*de + viii*math.Pow(de, 4) - ix*math.Pow(de, 6)
	lam = gridLon0 + x*de - xi*math.Pow(de, 3) + xii*math.Pow(de, 5) - xiia*math.Pow(de, 7)
	return phi, lam
}
