package scene

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"aircraftdisplay/internal/sample"
)

// Scale limits in pixels per meter
const (
	MinScale     = 0.00005
	UsableScale  = 0.01
	DefaultScale = 0.01
)

// ErrIconLoad is returned when a waypoint icon cannot be read or decoded
var ErrIconLoad = errors.New("waypoint icon load failed")

// AircraftState is the remote-reported kinematic state of the aircraft
type AircraftState struct {
	PosNorth float64
	PosWest  float64
	VelNorth float64
	VelWest  float64

	Heading float64 // radians, atan2(VelWest, VelNorth)
	Speed   float64 // m/s
}

// ControlState holds the operator's setpoints
type ControlState struct {
	DesiredSpeed      float64
	DesiredHeadingRad float64
	Autopilot         bool
}

// ReportedSetpoints are the setpoints echoed by the simulation. Display only.
type ReportedSetpoints struct {
	DesiredSpeed      float64
	DesiredHeadingDeg float64
}

// ViewState holds presentation settings
type ViewState struct {
	Scale              float64 // pixels per meter
	ShowSimData        bool
	ShowAircraftStatus bool
}

// Waypoint is a fixed map location with an icon
type Waypoint struct {
	North float64
	West  float64
	Icon  image.Image
}

// Frame is an immutable snapshot of the model for one render pass
type Frame struct {
	Aircraft  AircraftState
	Controls  ControlState
	Reported  ReportedSetpoints
	View      ViewState
	Waypoints []Waypoint
	Samples   uint64
	Ended     bool
}

// Model is the single source of truth shared by the inbound and render loops.
// Every method holds the lock for its whole body and no longer.
type Model struct {
	mu sync.RWMutex

	aircraft  AircraftState
	controls  ControlState
	reported  ReportedSetpoints
	view      ViewState
	waypoints []Waypoint
	samples   uint64
	ended     bool
}

// NewModel creates a model with the given initial scale, both status panels on
// and the autopilot off
func NewModel(scale float64) *Model {
	m := &Model{
		view: ViewState{
			ShowSimData:        true,
			ShowAircraftStatus: true,
		},
	}
	m.view.Scale = clampScale(scale)
	return m
}

// ApplySample updates aircraft kinematics from one telemetry record.
// The operator's setpoints are never touched.
func (m *Model) ApplySample(s sample.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aircraft = AircraftState{
		PosNorth: s.PosNorth,
		PosWest:  s.PosWest,
		VelNorth: s.VelNorth,
		VelWest:  s.VelWest,
		Heading:  math.Atan2(s.VelWest, s.VelNorth),
		Speed:    math.Sqrt(s.VelNorth*s.VelNorth + s.VelWest*s.VelWest),
	}
	m.reported = ReportedSetpoints{
		DesiredSpeed:      s.DesiredSpeed,
		DesiredHeadingDeg: s.DesiredHeadingDeg,
	}
	m.samples++
}

// AddWaypoint loads the icon at iconPath and appends a waypoint.
// On failure the waypoint is not added.
func (m *Model) AddWaypoint(north, west float64, iconPath string) error {
	icon, err := LoadIcon(iconPath)
	if err != nil {
		return err
	}
	return m.AddWaypointImage(north, west, icon)
}

// AddWaypointImage appends a waypoint with an already decoded icon
func (m *Model) AddWaypointImage(north, west float64, icon image.Image) error {
	if icon == nil {
		return fmt.Errorf("%w: waypoint (%.1f,%.1f) has no icon", ErrIconLoad, north, west)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.waypoints = append(m.waypoints, Waypoint{North: north, West: west, Icon: icon})
	return nil
}

// WaypointCount returns the number of loaded waypoints
func (m *Model) WaypointCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.waypoints)
}

// clampScale applies the two-tier floor: anything under MinScale goes to
// MinScale, anything else under UsableScale snaps up to UsableScale.
// Non-finite requests fall back to DefaultScale.
func clampScale(requested float64) float64 {
	switch {
	case math.IsNaN(requested) || math.IsInf(requested, 0):
		return DefaultScale
	case requested < MinScale:
		return MinScale
	case requested < UsableScale:
		return UsableScale
	default:
		return requested
	}
}

// SetScale sets the map scale in pixels per meter, clamped
func (m *Model) SetScale(requested float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.Scale = clampScale(requested)
}

// Zoom multiplies the current scale by factor, clamped
func (m *Model) Zoom(factor float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.Scale = clampScale(m.view.Scale * factor)
}

// Scale returns the map scale in pixels per meter
func (m *Model) Scale() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view.Scale
}

// SetDesiredSpeed sets the speed setpoint in m/s
func (m *Model) SetDesiredSpeed(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls.DesiredSpeed = v
}

// SetDesiredHeadingDegrees sets the heading setpoint from operator degrees
func (m *Model) SetDesiredHeadingDegrees(deg float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls.DesiredHeadingRad = deg * math.Pi / 180
}

// SetAutopilot turns the autopilot on or off
func (m *Model) SetAutopilot(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls.Autopilot = on
}

// SetShowSimData toggles the simulation data panel
func (m *Model) SetShowSimData(show bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.ShowSimData = show
}

// SetShowAircraftStatus toggles the aircraft status panel
func (m *Model) SetShowAircraftStatus(show bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.ShowAircraftStatus = show
}

// DesiredSpeedRounded returns the speed setpoint rounded to the nearest integer.
// The stored setpoint keeps full precision.
func (m *Model) DesiredSpeedRounded() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(math.Round(m.controls.DesiredSpeed))
}

// Controls returns the current setpoints
func (m *Model) Controls() ControlState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controls
}

// Aircraft returns the current aircraft state
func (m *Model) Aircraft() AircraftState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aircraft
}

// EndSession marks the telemetry session as finished
func (m *Model) EndSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = true
}

// Ended reports whether the telemetry session has finished
func (m *Model) Ended() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ended
}

// Snapshot copies the whole model for rendering
func (m *Model) Snapshot() Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wps := make([]Waypoint, len(m.waypoints))
	copy(wps, m.waypoints)

	return Frame{
		Aircraft:  m.aircraft,
		Controls:  m.controls,
		Reported:  m.reported,
		View:      m.view,
		Waypoints: wps,
		Samples:   m.samples,
		Ended:     m.ended,
	}
}
