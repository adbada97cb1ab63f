package controls

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"aircraftdisplay/internal/scene"
	"aircraftdisplay/internal/varserver"
)

// Setpoint limits, matching the operator controls
const (
	MinDesiredSpeed   = 0.0
	MaxDesiredSpeed   = 250.0
	MinDesiredHeading = -180.0
	MaxDesiredHeading = 180.0
)

// Simulation variables written every cycle
const (
	VarDesiredSpeed   = "desired_speed"
	VarDesiredHeading = "desired_heading"
	VarAutopilot      = "autoPilot"
)

// CommandSender transmits one command line
type CommandSender interface {
	SendCommand(text string) error
}

// Bridge turns operator events into model changes and model setpoints into
// outbound commands
type Bridge struct {
	model   *scene.Model
	varPath string
	logger  *logrus.Logger
}

// NewBridge creates a bridge writing variables under varPath
func NewBridge(model *scene.Model, varPath string, logger *logrus.Logger) *Bridge {
	if varPath == "" {
		varPath = varserver.DefaultVarPath
	}
	return &Bridge{model: model, varPath: varPath, logger: logger}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Handle applies one event to the model
func (b *Bridge) Handle(ev Event) {
	switch ev.Kind {
	case KindZoom:
		if ev.Value <= 0 || math.IsNaN(ev.Value) || math.IsInf(ev.Value, 0) {
			b.logger.WithField("factor", ev.Value).Warn("Ignoring invalid zoom factor")
			return
		}
		b.model.Zoom(ev.Value)
		b.logger.WithField("scale", b.model.Scale()).Debug("Zoomed")
	case KindDesiredSpeed:
		if math.IsNaN(ev.Value) {
			b.logger.Warn("Ignoring NaN desired speed")
			return
		}
		b.model.SetDesiredSpeed(clamp(ev.Value, MinDesiredSpeed, MaxDesiredSpeed))
	case KindDesiredHeading:
		if math.IsNaN(ev.Value) {
			b.logger.Warn("Ignoring NaN desired heading")
			return
		}
		b.model.SetDesiredHeadingDegrees(clamp(ev.Value, MinDesiredHeading, MaxDesiredHeading))
	case KindAutopilot:
		b.model.SetAutopilot(ev.On)
		b.logger.WithField("autopilot", ev.On).Info("Autopilot toggled")
	case KindShowSimData:
		b.model.SetShowSimData(ev.On)
	case KindShowAircraftStatus:
		b.model.SetShowAircraftStatus(ev.On)
	default:
		b.logger.WithField("event", ev.String()).Warn("Unknown input event")
	}
}

// Commands returns the setpoint assignments for one cycle. The speed goes out
// rounded to whole m/s, the heading in radians.
func (b *Bridge) Commands() []string {
	c := b.model.Controls()

	return []string{
		varserver.AssignFloat(b.varPath, VarDesiredSpeed, math.Round(c.DesiredSpeed)),
		varserver.AssignFloat(b.varPath, VarDesiredHeading, c.DesiredHeadingRad),
		varserver.AssignBool(b.varPath, VarAutopilot, c.Autopilot),
	}
}

// SendCycle sends the current setpoints
func (b *Bridge) SendCycle(s CommandSender) error {
	for _, cmd := range b.Commands() {
		if err := s.SendCommand(cmd); err != nil {
			return fmt.Errorf("failed to send setpoint: %w", err)
		}
	}
	return nil
}

// Run handles events until the channel closes or ctx is done
func (b *Bridge) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				b.logger.Debug("Input event channel closed")
				return nil
			}
			b.logger.WithField("event", ev.String()).Debug("Input event")
			b.Handle(ev)
		}
	}
}
