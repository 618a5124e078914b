package domain

import "fmt"

// Layer names a per-cell column that a renderer can draw.
type Layer string

const (
	LayerBirdRisk  Layer = "birdRisk"
	LayerWindSpeed Layer = "windSpeed"
	LayerValue     Layer = "value"
)

// Layers lists every selectable layer.
var Layers = []Layer{LayerBirdRisk, LayerWindSpeed, LayerValue}

// ParseLayer resolves a layer name; names are case-sensitive.
func ParseLayer(name string) (Layer, error) {
	for _, l := range Layers {
		if string(l) == name {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayer, name)
}
