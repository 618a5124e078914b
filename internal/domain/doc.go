// Package domain models the inputs and settings of a wind-farm siting map.
//
// # Data Sources
//
// Bird sightings come from the eBird historic observations API, filtered to a
// single species (Ferruginous Hawk, "ferhaw") and processed into one JSON
// object per line:
//
//	{"speciesCode":"ferhaw","comName":"Ferruginous Hawk","sciName":"Buteo regalis",
//	 "obsDt":"2019-09-18 10:05","howMany":2,"noCount":0,"lat":50.1,"lon":-112.4}
//
// Sightings reported without a count carry howMany=1 and noCount=1. Raw eBird
// exports name the longitude "lng"; the processed format renames it to "lon".
//
// Wind speeds come from the Global Wind Atlas GeoTIFF (100 m hub height),
// cropped to the region, resampled to a 0.01° lattice (about 1 km) with
// missing raster values set to 0, and emitted as:
//
//	{"lat":50.005,"lon":-112.415,"windSpeed":7.31}
//
// # Scoring
//
// Each grid cell carries three values in [0, 1]:
//
//	birdRisk   cumulative sighting count of every bird footprint touching the cell, min-max normalized
//	windSpeed  mean wind speed of the samples inside the cell, min-max normalized
//	value      windSpeed*windSpeedWeight - birdRisk*birdRiskWeight, min-max normalized
//
// Weights come from a [CoefficientSet] with an advertised range of 1–100.
package domain
