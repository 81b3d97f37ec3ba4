// Package places loads the reference population centers used by the
// accessibility analysis.
package places

import (
	"fmt"
	"log"
	"os"

	"github.com/goccy/go-yaml"
)

// Place kinds recognised by the accessibility scoring.
const (
	KindCity = "city"
	KindTown = "town"
)

// Place is one reference population center.
type Place struct {
	Name string  `yaml:"name" json:"name"`
	Lat  float64 `yaml:"lat" json:"lat"`
	Lon  float64 `yaml:"lon" json:"lon"`
	Kind string  `yaml:"kind" json:"kind"`
}

type placesFile struct {
	Places []Place `yaml:"places"`
}

// Load reads reference centers from the YAML file at path. An empty path
// returns the built-in defaults.
func Load(path string) ([]Place, error) {
	if path == "" {
		return Defaults(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read places file: %w", err)
	}
	var f placesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse places file: %w", err)
	}
	if len(f.Places) == 0 {
		return nil, fmt.Errorf("places file %s lists no places", path)
	}

	log.Printf("[places] loaded %d reference centers from %s", len(f.Places), path)
	return f.Places, nil
}

// Defaults returns the built-in Zimbabwean reference centers.
func Defaults() []Place {
	return []Place{
		{Name: "Harare", Lat: -17.8292, Lon: 31.0522, Kind: KindCity},
		{Name: "Bulawayo", Lat: -20.1325, Lon: 28.6265, Kind: KindCity},
		{Name: "Mutare", Lat: -18.9707, Lon: 32.6709, Kind: KindCity},
		{Name: "Gweru", Lat: -19.4500, Lon: 29.8167, Kind: KindCity},
		{Name: "Masvingo", Lat: -20.0744, Lon: 30.8328, Kind: KindTown},
		{Name: "Chinhoyi", Lat: -17.3667, Lon: 30.2000, Kind: KindTown},
		{Name: "Marondera", Lat: -18.1853, Lon: 31.5519, Kind: KindTown},
		{Name: "Kadoma", Lat: -18.3400, Lon: 29.9000, Kind: KindTown},
	}
}
