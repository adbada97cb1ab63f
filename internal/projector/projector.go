package projector

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"aircraftdisplay/internal/scene"
)

// BodyMagnification scales body-unit polygons up to world size
const BodyMagnification = 800.0

// Layout of the text panels
const (
	panelTop        = 40
	panelLineHeight = 20
	simDataX        = 20
	statusInset     = 240
)

// ControlsDisabledBanner is shown in the status panel while the autopilot flies
const ControlsDisabledBanner = "-------Controls disabled-------"

// Scene colors
var (
	GroundColor = color.RGBA{R: 210, G: 180, B: 140, A: 255}
	InkColor    = color.RGBA{A: 255}
)

// Options tweaks what Project emits
type Options struct {
	// WaypointMarkers draws a diamond under every waypoint icon
	WaypointMarkers bool
}

// Origin returns the screen position of the world origin
func Origin(width, height int) (int, int) {
	return width / 2, height / 2
}

// ProjectPoint maps a body-frame vertex, rotated by heading and placed at
// (north, west), onto the screen
func ProjectPoint(px, py, heading, north, west, scale float64, originX, originY int) (int, int) {
	sin, cos := math.Sincos(heading)
	x := float64(originX) - scale*(sin*BodyMagnification*px+cos*BodyMagnification*py+west)
	y := float64(originY) - scale*(cos*BodyMagnification*px-sin*BodyMagnification*py+north)
	return int(x), int(y)
}

// ProjectPolygon maps every vertex of p onto the screen
func ProjectPolygon(p scene.Polygon, heading, north, west, scale float64, originX, originY int) ([]int, []int) {
	xs := make([]int, p.Len())
	ys := make([]int, p.Len())
	for i := range p.X {
		xs[i], ys[i] = ProjectPoint(p.X[i], p.Y[i], heading, north, west, scale, originX, originY)
	}
	return xs, ys
}

// WaypointPosition returns the top-left screen corner for a waypoint icon so
// that the icon is centered on the waypoint
func WaypointPosition(wp scene.Waypoint, scale float64, originX, originY int) (int, int) {
	b := wp.Icon.Bounds()
	x := float64(originX) - scale*wp.West - float64(b.Dx()/2)
	y := float64(originY) - scale*wp.North - float64(b.Dy()/2)
	return int(x), int(y)
}

// Project builds the draw commands for one frame. It has no side effects.
func Project(f scene.Frame, width, height int, opts Options) []DrawCommand {
	ox, oy := Origin(width, height)
	scale := f.View.Scale

	cmds := make([]DrawCommand, 0, 8+2*len(f.Waypoints)+9)

	cmds = append(cmds,
		DrawCommand{Kind: FillRect, Name: "ground", Color: GroundColor, W: width, H: height},
		DrawCommand{Kind: DrawLine, Name: "axis_west", Color: InkColor, X: 0, Y: oy, X2: width, Y2: oy},
		DrawCommand{Kind: DrawLine, Name: "axis_north", Color: InkColor, X: ox, Y: 0, X2: ox, Y2: height},
	)

	for _, wp := range f.Waypoints {
		if opts.WaypointMarkers {
			xs, ys := ProjectPolygon(scene.WaypointMarker, 0, wp.North, wp.West, scale, ox, oy)
			cmds = append(cmds, DrawCommand{
				Kind:  FillPolygon,
				Name:  scene.WaypointMarker.Name,
				Color: scene.WaypointMarker.Color,
				Xs:    xs,
				Ys:    ys,
			})
		}
		x, y := WaypointPosition(wp, scale, ox, oy)
		cmds = append(cmds, DrawCommand{Kind: DrawImage, Name: "waypoint", X: x, Y: y, Image: wp.Icon})
	}

	a := f.Aircraft
	xs, ys := ProjectPolygon(scene.AircraftSilhouette, a.Heading, a.PosNorth, a.PosWest, scale, ox, oy)
	cmds = append(cmds, DrawCommand{
		Kind:  FillPolygon,
		Name:  scene.AircraftSilhouette.Name,
		Color: scene.AircraftSilhouette.Color,
		Xs:    xs,
		Ys:    ys,
	})

	if f.View.ShowSimData {
		cmds = append(cmds, simDataPanel(f)...)
	}
	if f.View.ShowAircraftStatus {
		cmds = append(cmds, statusPanel(f, width)...)
	}
	return cmds
}

func text(name, s string, x, row int) DrawCommand {
	return DrawCommand{
		Kind:  DrawText,
		Name:  name,
		Color: InkColor,
		X:     x,
		Y:     panelTop + row*panelLineHeight,
		Text:  s,
	}
}

func simDataPanel(f scene.Frame) []DrawCommand {
	a := f.Aircraft
	return []DrawCommand{
		text("sim_position", fmt.Sprintf("Aircraft Pos: [%.2f, %.2f]", a.PosNorth, a.PosWest), simDataX, 0),
		text("sim_velocity", fmt.Sprintf("Aircraft Vel: [%.2f, %.2f]", a.VelNorth, a.VelWest), simDataX, 1),
		text("sim_scale", fmt.Sprintf("SCALE: %f pixels/meter", f.View.Scale), simDataX, 2),
		text("sim_autopilot", fmt.Sprintf("Autopilot Mode: [%s]", strings.ToUpper(fmt.Sprint(f.Controls.Autopilot))), simDataX, 3),
	}
}

func statusPanel(f scene.Frame, width int) []DrawCommand {
	x := width - statusInset
	a, c := f.Aircraft, f.Controls

	actualHeading := fmt.Sprintf("Aircraft Actual Heading:  [%.2f]", a.Heading)
	actualSpeed := fmt.Sprintf("Aircraft Actual Speed: [%.2f m/s]", a.Speed)
	desiredHeading := fmt.Sprintf("Aircraft Desired Heading:  [%.2f]", c.DesiredHeadingRad)
	desiredSpeed := fmt.Sprintf("Aircraft Desired Speed: [%.2f m/s]", c.DesiredSpeed)

	if c.Autopilot {
		return []DrawCommand{
			text("actual_heading", actualHeading, x, 0),
			text("actual_speed", actualSpeed, x, 1),
			text("controls_disabled", ControlsDisabledBanner, x, 2),
			text("desired_heading", desiredHeading, x, 3),
			text("desired_speed", desiredSpeed, x, 4),
		}
	}

	// Manual mode stacks setpoints and actuals bottom-up
	return []DrawCommand{
		text("actual_heading", actualHeading, x, 3),
		text("desired_heading", desiredHeading, x, 2),
		text("actual_speed", actualSpeed, x, 1),
		text("desired_speed", desiredSpeed, x, 0),
	}
}
