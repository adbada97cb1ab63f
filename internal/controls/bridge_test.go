package controls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircraftdisplay/internal/sample"
	"aircraftdisplay/internal/scene"
)

type recordingSender struct {
	sent    []string
	failAt  int
	failErr error
}

func (r *recordingSender) SendCommand(text string) error {
	if r.failErr != nil && len(r.sent) == r.failAt {
		return r.failErr
	}
	r.sent = append(r.sent, text)
	return nil
}

func newTestBridge() (*Bridge, *scene.Model) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := scene.NewModel(scene.DefaultScale)
	return NewBridge(m, "", logger), m
}

// TestBridge_Handle tests event to model mapping
func TestBridge_Handle(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		check  func(t *testing.T, m *scene.Model)
	}{
		{
			name:   "Zoom in",
			events: []Event{ZoomIn()},
			check: func(t *testing.T, m *scene.Model) {
				assert.InDelta(t, 0.02, m.Scale(), 1e-12)
			},
		},
		{
			name:   "Zoom out clamps",
			events: []Event{ZoomOut(), ZoomOut()},
			check: func(t *testing.T, m *scene.Model) {
				assert.Equal(t, scene.UsableScale, m.Scale())
			},
		},
		{
			name:   "Invalid zoom ignored",
			events: []Event{Zoom(0), Zoom(-2), Zoom(math.NaN()), Zoom(math.Inf(1))},
			check: func(t *testing.T, m *scene.Model) {
				assert.Equal(t, scene.DefaultScale, m.Scale())
			},
		},
		{
			name:   "Desired speed",
			events: []Event{DesiredSpeed(123.4)},
			check: func(t *testing.T, m *scene.Model) {
				assert.Equal(t, 123.4, m.Controls().DesiredSpeed)
			},
		},
		{
			name:   "Desired speed clamped",
			events: []Event{DesiredSpeed(900)},
			check: func(t *testing.T, m *scene.Model) {
				assert.Equal(t, MaxDesiredSpeed, m.Controls().DesiredSpeed)
			},
		},
		{
			name:   "Desired heading stored in radians",
			events: []Event{DesiredHeading(90)},
			check: func(t *testing.T, m *scene.Model) {
				assert.InDelta(t, math.Pi/2, m.Controls().DesiredHeadingRad, 1e-12)
			},
		},
		{
			name:   "Desired heading clamped",
			events: []Event{DesiredHeading(-720)},
			check: func(t *testing.T, m *scene.Model) {
				assert.InDelta(t, -math.Pi, m.Controls().DesiredHeadingRad, 1e-12)
			},
		},
		{
			name:   "Autopilot toggles",
			events: []Event{Autopilot(true), Autopilot(false), Autopilot(true)},
			check: func(t *testing.T, m *scene.Model) {
				assert.True(t, m.Controls().Autopilot)
			},
		},
		{
			name:   "View toggles",
			events: []Event{ShowSimData(false), ShowAircraftStatus(false)},
			check: func(t *testing.T, m *scene.Model) {
				v := m.Snapshot().View
				assert.False(t, v.ShowSimData)
				assert.False(t, v.ShowAircraftStatus)
			},
		},
		{
			name:   "Unknown event ignored",
			events: []Event{{Kind: Kind(42), Value: 1}},
			check: func(t *testing.T, m *scene.Model) {
				assert.Equal(t, scene.ControlState{}, m.Controls())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, m := newTestBridge()
			for _, ev := range tt.events {
				b.Handle(ev)
			}
			tt.check(t, m)
		})
	}
}

// TestBridge_Commands tests outbound formatting
func TestBridge_Commands(t *testing.T) {
	b, _ := newTestBridge()

	assert.Equal(t, []string{
		"dyn.aircraft.desired_speed = 0.00 ;",
		"dyn.aircraft.desired_heading = 0.00 ;",
		"dyn.aircraft.autoPilot = False ;",
	}, b.Commands())

	b.Handle(DesiredSpeed(99.6))
	b.Handle(DesiredHeading(-90))
	b.Handle(Autopilot(true))

	assert.Equal(t, []string{
		"dyn.aircraft.desired_speed = 100.00 ;",
		"dyn.aircraft.desired_heading = -1.57 ;",
		"dyn.aircraft.autoPilot = True ;",
	}, b.Commands())
}

// TestBridge_Commands_ConcurrentEvents tests that every cycle is built from
// one consistent setpoint snapshot while events keep arriving
func TestBridge_Commands_ConcurrentEvents(t *testing.T) {
	b, m := newTestBridge()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			if i%2 == 0 {
				b.Handle(DesiredSpeed(10.4))
			} else {
				b.Handle(DesiredSpeed(19.6))
			}
		}
	}()

	allowed := map[string]bool{
		"dyn.aircraft.desired_speed = 0.00 ;":  true,
		"dyn.aircraft.desired_speed = 10.00 ;": true,
		"dyn.aircraft.desired_speed = 20.00 ;": true,
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		cmds := b.Commands()
		require.Len(t, cmds, 3)
		assert.True(t, allowed[cmds[0]], "unexpected speed command %q", cmds[0])
	}

	assert.Equal(t, fmt.Sprintf("dyn.aircraft.desired_speed = %d.00 ;", m.DesiredSpeedRounded()), b.Commands()[0])
}

// TestBridge_Commands_IgnoreRemoteSetpoints tests that received setpoints are
// never echoed back as the local setpoint
func TestBridge_Commands_IgnoreRemoteSetpoints(t *testing.T) {
	b, m := newTestBridge()

	s, err := sample.Parse("1\t10.0\t0.0\t5.0\t0.0\t120\t30")
	require.NoError(t, err)
	m.ApplySample(s)

	a := m.Aircraft()
	assert.Equal(t, 0.0, a.Heading)
	assert.Equal(t, 5.0, a.Speed)

	assert.Equal(t, []string{
		"dyn.aircraft.desired_speed = 0.00 ;",
		"dyn.aircraft.desired_heading = 0.00 ;",
		"dyn.aircraft.autoPilot = False ;",
	}, b.Commands())
}

// TestBridge_CustomVarPath tests a non-default variable prefix
func TestBridge_CustomVarPath(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	b := NewBridge(scene.NewModel(scene.DefaultScale), "sim.plane", logger)

	assert.Equal(t, "sim.plane.autoPilot = False ;", b.Commands()[2])
}

// TestBridge_SendCycle tests sending and error propagation
func TestBridge_SendCycle(t *testing.T) {
	b, _ := newTestBridge()

	s := &recordingSender{}
	require.NoError(t, b.SendCycle(s))
	assert.Equal(t, b.Commands(), s.sent)

	boom := errors.New("boom")
	s = &recordingSender{failAt: 1, failErr: boom}
	err := b.SendCycle(s)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.sent, 1)
}

// TestBridge_Run tests event channel consumption
func TestBridge_Run(t *testing.T) {
	b, m := newTestBridge()
	events := make(chan Event, 4)
	events <- DesiredSpeed(50)
	events <- Autopilot(true)
	close(events)

	require.NoError(t, b.Run(context.Background(), events))
	assert.Equal(t, 50.0, m.Controls().DesiredSpeed)
	assert.True(t, m.Controls().Autopilot)
}

// TestBridge_Run_Cancel tests that Run returns when the context ends
func TestBridge_Run_Cancel(t *testing.T) {
	b, _ := newTestBridge()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, make(chan Event)) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// TestEvent_String tests event descriptions used in logs
func TestEvent_String(t *testing.T) {
	assert.Equal(t, "zoom(2)", ZoomIn().String())
	assert.Equal(t, "desired_heading(-45)", DesiredHeading(-45).String())
	assert.Equal(t, "autopilot(true)", Autopilot(true).String())
	assert.Equal(t, "kind(42)(0)", Event{Kind: 42}.String())
}
