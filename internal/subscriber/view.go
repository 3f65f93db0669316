// Package subscriber maintains the client-side render view: connected
// users' markers and route overlays, rebuilt from snapshot messages.
package subscriber

// Marker is one connected user placed on the map.
type Marker struct {
	UserID    string
	Name      string
	Latitude  float64
	Longitude float64
	Icon      []byte
}

// Point is one vertex of a route overlay.
type Point struct {
	Latitude  float64
	Longitude float64
}

// View is an immutable render-ready snapshot of the merged state.
// Paths holds only renderable overlays; a path needs at least two
// points to draw a line.
type View struct {
	Markers []Marker
	Paths   map[string][]Point
}

const minRenderablePoints = 2
