package scene

import "image/color"

// Polygon is a closed shape in body coordinates. X points along the nose,
// Y along the right wing, both in body units.
type Polygon struct {
	Name  string
	Color color.RGBA
	X     []float64
	Y     []float64
}

// Len returns the number of vertices
func (p Polygon) Len() int {
	return len(p.X)
}

// AircraftSilhouette is the top-down aircraft outline
var AircraftSilhouette = Polygon{
	Name:  "aircraft",
	Color: color.RGBA{R: 128, G: 128, B: 128, A: 255},
	X: []float64{
		4.00, 2.00, 0.60, -0.40, -1.00, -1.00, -1.60, -2.00, -2.50, -2.50, -2.40, -2.80,
		-2.80, -2.40, -2.50, -2.50, -2.00, -1.60, -1.00, -1.00, -0.40, 0.60, 2.00,
	},
	Y: []float64{
		0.00, 0.40, 0.80, 2.30, 2.30, 0.60, 0.60, 1.40, 1.40, 0.50, 0.30, 0.30,
		-0.30, -0.30, -0.50, -1.40, -1.40, -0.60, -0.60, -2.30, -2.30, -0.80, -0.40,
	},
}

// WaypointMarker is the diamond drawn under a waypoint icon
var WaypointMarker = Polygon{
	Name:  "waypoint_marker",
	Color: color.RGBA{R: 255, A: 255},
	X:     []float64{1.00, 0.00, -1.00, 0.00},
	Y:     []float64{0.00, 1.00, 0.00, -1.00},
}
