package termview

import (
	"github.com/gdamore/tcell/v2"

	"aircraftdisplay/internal/controls"
)

// Default setpoint increments per key press
const (
	DefaultSpeedStep   = 5.0
	DefaultHeadingStep = 5.0
)

// Keymap turns key presses into input events. It keeps its own copy of the
// setpoints, the way a slider remembers its position.
type Keymap struct {
	SpeedStep   float64
	HeadingStep float64

	speed      float64
	heading    float64
	autopilot  bool
	showSim    bool
	showStatus bool
}

// NewKeymap starts with zero setpoints, autopilot off and both panels shown
func NewKeymap() *Keymap {
	return &Keymap{
		SpeedStep:   DefaultSpeedStep,
		HeadingStep: DefaultHeadingStep,
		showSim:     true,
		showStatus:  true,
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// Translate maps one key to input events. quit is true for the exit keys.
func (k *Keymap) Translate(key tcell.Key, r rune) (events []controls.Event, quit bool) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return nil, true
	case tcell.KeyUp:
		return k.stepSpeed(k.SpeedStep), false
	case tcell.KeyDown:
		return k.stepSpeed(-k.SpeedStep), false
	case tcell.KeyRight:
		return k.stepHeading(k.HeadingStep), false
	case tcell.KeyLeft:
		return k.stepHeading(-k.HeadingStep), false
	case tcell.KeyRune:
	default:
		return nil, false
	}

	switch r {
	case 'q', 'Q':
		return nil, true
	case '+', '=':
		return []controls.Event{controls.ZoomIn()}, false
	case '-', '_':
		return []controls.Event{controls.ZoomOut()}, false
	case 'k':
		return k.stepSpeed(k.SpeedStep), false
	case 'j':
		return k.stepSpeed(-k.SpeedStep), false
	case 'l':
		return k.stepHeading(k.HeadingStep), false
	case 'h':
		return k.stepHeading(-k.HeadingStep), false
	case 'a', 'A':
		k.autopilot = !k.autopilot
		return []controls.Event{controls.Autopilot(k.autopilot)}, false
	case 'd', 'D':
		k.showSim = !k.showSim
		return []controls.Event{controls.ShowSimData(k.showSim)}, false
	case 's', 'S':
		k.showStatus = !k.showStatus
		return []controls.Event{controls.ShowAircraftStatus(k.showStatus)}, false
	}
	return nil, false
}

func (k *Keymap) stepSpeed(delta float64) []controls.Event {
	k.speed = clamp(k.speed+delta, controls.MinDesiredSpeed, controls.MaxDesiredSpeed)
	return []controls.Event{controls.DesiredSpeed(k.speed)}
}

func (k *Keymap) stepHeading(delta float64) []controls.Event {
	k.heading = clamp(k.heading+delta, controls.MinDesiredHeading, controls.MaxDesiredHeading)
	return []controls.Event{controls.DesiredHeading(k.heading)}
}

// HelpText describes the key bindings
const HelpText = "+/- zoom  ↑/↓ speed  ←/→ heading  a autopilot  d sim data  s status  q quit"
