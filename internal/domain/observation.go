package domain

// Kind identifies the source of an observation.
type Kind string

const (
	KindBird Kind = "bird"
	KindWind Kind = "wind"
)

// Observation is a geo-located magnitude: a sighting count for birds, a
// speed in m/s for wind. Observations are read-only once loaded.
type Observation struct {
	Lat       float64
	Lon       float64
	Magnitude float64
}

// BirdSighting is one processed eBird record. Every field is required on
// input; only the position and count feed the map.
type BirdSighting struct {
	SpeciesCode string  `json:"speciesCode"`
	ComName     string  `json:"comName"`
	SciName     string  `json:"sciName"`
	ObsDt       string  `json:"obsDt"`
	HowMany     int     `json:"howMany"`
	NoCount     int     `json:"noCount"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Observation returns the sighting as a bird observation weighted by count.
func (b BirdSighting) Observation() Observation {
	return Observation{Lat: b.Lat, Lon: b.Lon, Magnitude: float64(b.HowMany)}
}

// WindRecord is one resampled wind-speed raster value.
type WindRecord struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	WindSpeed float64 `json:"windSpeed"`
}

// Observation returns the record as a wind observation.
func (w WindRecord) Observation() Observation {
	return Observation{Lat: w.Lat, Lon: w.Lon, Magnitude: w.WindSpeed}
}

// FilterToRegion returns the observations inside r and the number dropped.
// The input slice is not modified.
func FilterToRegion(obs []Observation, r Region) ([]Observation, int) {
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if r.Contains(o.Lat, o.Lon) {
			kept = append(kept, o)
		}
	}
	return kept, len(obs) - len(kept)
}
