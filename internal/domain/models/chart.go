package models

// RadarSeries is one artist's polygon on the radial chart.
type RadarSeries struct {
	Name   string `json:"name"`
	Values [3]int `json:"values"`
}

// RadarChart is the data behind the comparison chart: fixed axes, one series per artist.
type RadarChart struct {
	Axes   []string      `json:"axes"`
	Series []RadarSeries `json:"series"`
}

// EventType names a registry change.
type EventType string

const (
	EventUpsert EventType = "upsert"
	EventRemove EventType = "remove"
)

// RegistryEvent is emitted after the registry changes.
type RegistryEvent struct {
	Type   EventType `json:"type"`
	Name   string    `json:"name"`
	Artist *Artist   `json:"artist,omitempty"`
}
