package controls

import "fmt"

// Kind identifies an input event
type Kind int

// Input event kinds
const (
	KindZoom Kind = iota + 1
	KindDesiredSpeed
	KindDesiredHeading
	KindAutopilot
	KindShowSimData
	KindShowAircraftStatus
)

func (k Kind) String() string {
	switch k {
	case KindZoom:
		return "zoom"
	case KindDesiredSpeed:
		return "desired_speed"
	case KindDesiredHeading:
		return "desired_heading"
	case KindAutopilot:
		return "autopilot"
	case KindShowSimData:
		return "show_sim_data"
	case KindShowAircraftStatus:
		return "show_aircraft_status"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one operator input. Value carries the numeric payload of
// Zoom/DesiredSpeed/DesiredHeading, On the payload of the toggles.
type Event struct {
	Kind  Kind
	Value float64
	On    bool
}

func (e Event) String() string {
	switch e.Kind {
	case KindAutopilot, KindShowSimData, KindShowAircraftStatus:
		return fmt.Sprintf("%s(%t)", e.Kind, e.On)
	default:
		return fmt.Sprintf("%s(%g)", e.Kind, e.Value)
	}
}

// Zoom multiplies the map scale by factor
func Zoom(factor float64) Event { return Event{Kind: KindZoom, Value: factor} }

// ZoomIn doubles the map scale
func ZoomIn() Event { return Zoom(2) }

// ZoomOut halves the map scale
func ZoomOut() Event { return Zoom(0.5) }

// DesiredSpeed sets the speed setpoint in m/s
func DesiredSpeed(v float64) Event { return Event{Kind: KindDesiredSpeed, Value: v} }

// DesiredHeading sets the heading setpoint in degrees
func DesiredHeading(deg float64) Event { return Event{Kind: KindDesiredHeading, Value: deg} }

// Autopilot turns the autopilot on or off
func Autopilot(on bool) Event { return Event{Kind: KindAutopilot, On: on} }

// ShowSimData toggles the simulation data panel
func ShowSimData(on bool) Event { return Event{Kind: KindShowSimData, On: on} }

// ShowAircraftStatus toggles the aircraft status panel
func ShowAircraftStatus(on bool) Event { return Event{Kind: KindShowAircraftStatus, On: on} }
