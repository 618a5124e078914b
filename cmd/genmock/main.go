// Command genmock writes synthetic observation fixtures for a region: bird
// sightings scattered around a few nesting sites and a wind speed lattice
// at 0.01° spacing, both in the processed JSONL format windwatch reads.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -region 49.0,50.0,-112.0,-111.0 \
//	  -birds-out data/mock/birds.jsonl \
//	  -wind-out data/mock/wind.jsonl
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MackenzieBowal/windwatch/internal/domain"
)

// latticeStep matches the resolution of the resampled wind raster.
const latticeStep = 0.01

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	regionFlag := flag.String("region", "49.0,52.833333,-114.0,-110.0", "latMin,latMax,lonMin,lonMax")
	birdsOut := flag.String("birds-out", "", "output path for bird JSONL")
	windOut := flag.String("wind-out", "", "output path for wind JSONL")
	nBirds := flag.Int("birds", 200, "number of bird sightings")
	nSites := flag.Int("sites", 6, "number of nesting sites the sightings cluster around")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *birdsOut == "" || *windOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -birds-out, -wind-out")
	}
	region, err := domain.ParseRegion(*regionFlag)
	if err != nil {
		return err
	}

	// Fixed clock so repeated runs produce identical observation dates.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2020, time.July, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	birds := genBirds(rng, region, *nBirds, max(*nSites, 1))
	if err := writeJSONL(*birdsOut, birds); err != nil {
		return fmt.Errorf("write birds: %w", err)
	}
	log.Printf("birds: %d records -> %s", len(birds), *birdsOut)

	wind := genWind(region)
	if err := writeJSONL(*windOut, wind); err != nil {
		return fmt.Errorf("write wind: %w", err)
	}
	log.Printf("wind: %d records -> %s", len(wind), *windOut)
	return nil
}

func genBirds(rng *rand.Rand, r domain.Region, n, sites int) []domain.BirdSighting {
	centers := make([][2]float64, sites)
	for i := range centers {
		centers[i] = [2]float64{
			r.LatMin + rng.Float64()*(r.LatMax-r.LatMin),
			r.LonMin + rng.Float64()*(r.LonMax-r.LonMin),
		}
	}

	start := domain.Clock().Now()
	out := make([]domain.BirdSighting, 0, n)
	for len(out) < n {
		c := centers[rng.IntN(sites)]
		lat := c[0] + rng.NormFloat64()*0.05
		lon := c[1] + rng.NormFloat64()*0.08
		if !r.Contains(lat, lon) {
			continue
		}
		b := domain.BirdSighting{
			SpeciesCode: "ferhaw",
			ComName:     "Ferruginous Hawk",
			SciName:     "Buteo regalis",
			ObsDt:       start.Add(-time.Duration(rng.IntN(5*365*24)) * time.Hour).Format("2006-01-02 15:04"),
			HowMany:     1 + rng.IntN(4),
			Lat:         round(lat, 6),
			Lon:         round(lon, 6),
		}
		// Roughly one report in ten has no count and is recorded as one bird.
		if rng.IntN(10) == 0 {
			b.HowMany, b.NoCount = 1, 1
		}
		out = append(out, b)
	}
	return out
}

// genWind emits one sample at the center of every lattice square, with a
// smooth field that rises toward the south-west.
func genWind(r domain.Region) []domain.WindRecord {
	rows := int(math.Round((r.LatMax - r.LatMin) / latticeStep))
	cols := int(math.Round((r.LonMax - r.LonMin) / latticeStep))
	out := make([]domain.WindRecord, 0, rows*cols)
	for i := 0; i < rows; i++ {
		lat := r.LatMin + (float64(i)+0.5)*latticeStep
		for j := 0; j < cols; j++ {
			lon := r.LonMin + (float64(j)+0.5)*latticeStep
			u := (lat - r.LatMin) / (r.LatMax - r.LatMin)
			v := (lon - r.LonMin) / (r.LonMax - r.LonMin)
			speed := 9 - 3*u - 2*v + 0.6*math.Sin(7*u)*math.Cos(5*v)
			out = append(out, domain.WindRecord{Lat: round(lat, 4), Lon: round(lon, 4), WindSpeed: round(speed, 3)})
		}
	}
	return out
}

func writeJSONL[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
