package termview

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircraftdisplay/internal/controls"
)

func newTestScreen(t *testing.T) (*Screen, tcell.SimulationScreen) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sim := tcell.NewSimulationScreen("UTF-8")
	s, err := newScreen(sim, logger)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, sim
}

func TestScreenPresent(t *testing.T) {
	s, sim := newTestScreen(t)
	s.Begin()

	cols, rows := sim.Size()
	w, h := s.Size()
	assert.Equal(t, cols*CellWidth, w)
	assert.Equal(t, (rows-1)*CellHeight, h)

	s.DrawText("hello", 0, 16, red)
	s.Present()

	cells, width, _ := sim.GetContents()
	line := func(row int) string {
		var b strings.Builder
		for col := 0; col < width; col++ {
			rs := cells[row*width+col].Runes
			if len(rs) > 0 {
				b.WriteRune(rs[0])
			}
		}
		return b.String()
	}
	assert.True(t, strings.HasPrefix(line(0), "hello"))
	assert.True(t, strings.HasPrefix(line(rows-1), "+/- zoom"))
}

func TestScreenPollInput(t *testing.T) {
	s, sim := newTestScreen(t)
	events := make(chan controls.Event, 4)

	sim.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	sim.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	assert.True(t, s.PollInput(context.Background(), events))
	require.Len(t, events, 2)
	assert.Equal(t, controls.Autopilot(true), <-events)
	assert.Equal(t, controls.DesiredSpeed(DefaultSpeedStep), <-events)
}

func TestScreenPollInputStopsOnCancel(t *testing.T) {
	s, _ := newTestScreen(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool)
	go func() { done <- s.PollInput(ctx, make(chan controls.Event)) }()
	cancel()

	select {
	case quit := <-done:
		assert.False(t, quit)
	case <-time.After(5 * time.Second):
		t.Fatal("PollInput did not return after cancel")
	}
}
