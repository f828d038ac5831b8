// Package domain models the inputs for a WOFOST crop-growth simulation over
// a UK land parcel: locations on the Ordnance Survey National Grid, daily
// weather series, and soil hydraulic parameter sets.
//
// # Locations
//
// A location can be identified three ways: a parcel ID from the CEH Land
// Cover Map catalogue, a WGS84 longitude/latitude pair, or an OS National
// Grid reference. Whichever form is supplied, resolution derives the other
// two deterministically, so a resolved Location always carries a canonical
// grid reference and a coordinate pair.
//
// Grid references use the standard letter-pair scheme:
//
//	SX 9228 9293  →  "SX92289293" (8 figures, 10 m cells)
//
// Supported precisions are 4, 6, 8 and 10 figures (1 km, 100 m, 10 m and
// 1 m cells). Conversion between WGS84 and OSGB36 applies the OS-published
// Helmert datum shift and the National Grid transverse Mercator projection,
// accurate to well under a metre across the grid.
//
// # Weather
//
// A WeatherRecord is one civil day in canonical units, regardless of which
// source produced it:
//
//	temperature    °C        (mean, min, max at 2 m)
//	radiation      W/m²      (shortwave and longwave downward)
//	humidity       %         (relative, at 2 m)
//	precipitation  mm/day
//	wind speed     m/s       (at 10 m)
//
// Source-specific units (POWER's MJ/m²/day radiation, CHESS-Scape's Kelvin
// temperatures and kg/m²/s precipitation flux) are converted by the provider
// that reads them; nothing downstream sees raw source rows.
//
// # Soil
//
// SoilParameters hold the van Genuchten retention and Mualem conductivity
// description of a soil profile plus the fixed site constants WOFOST
// expects, derived from sand/silt/clay fractions at the location.
package domain
