package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"aircraftdisplay/internal/controls"
	"aircraftdisplay/internal/logging"
	"aircraftdisplay/internal/projector"
	"aircraftdisplay/internal/sample"
	"aircraftdisplay/internal/scene"
	"aircraftdisplay/internal/varserver"
)

// Display is a drawing surface that also produces operator input
type Display interface {
	projector.Surface

	// Begin starts a new frame
	Begin()
	// Present shows the frame drawn since Begin
	Present()
	// PollInput sends input events until ctx is done or the operator quits.
	// It returns true on quit.
	PollInput(ctx context.Context, events chan<- controls.Event) bool
	// SetFooter replaces the status line shown below the scene
	SetFooter(text string)
}

// EndedFooter is shown once the telemetry stream has ended
const EndedFooter = "Session ended, press q to quit"

// Application runs one display session against a variable server
type Application struct {
	config   Config
	logger   *logrus.Logger
	model    *scene.Model
	bridge   *controls.Bridge
	display  Display
	recorder *logging.Recorder
	events   chan controls.Event

	frames    atomic.Uint64
	malformed atomic.Uint64
}

// NewApplication creates a new application instance
func NewApplication(config Config, logger *logrus.Logger) *Application {
	config.applyDefaults()
	model := scene.NewModel(config.Scale)

	return &Application{
		config: config,
		logger: logger,
		model:  model,
		bridge: controls.NewBridge(model, config.VarPath, logger),
		events: make(chan controls.Event, 64),
	}
}

// SetDisplay attaches a display. Without one the session runs headless.
func (app *Application) SetDisplay(d Display) {
	app.display = d
}

// Model returns the scene shared by all session loops
func (app *Application) Model() *scene.Model {
	return app.model
}

// Events returns the channel the controls loop reads input events from
func (app *Application) Events() chan<- controls.Event {
	return app.events
}

// Run connects, performs the handshake and runs the session until the
// server ends the stream, the operator quits or ctx is done.
func (app *Application) Run(ctx context.Context) error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting aircraft display")

	n, err := scene.LoadWaypoints(app.model, app.config.WaypointFile, app.logger)
	if err != nil {
		return fmt.Errorf("failed to load waypoints: %w", err)
	}
	app.logger.WithField("count", n).Info("Waypoints loaded")

	link, err := varserver.Dial(ctx, app.config.Host, app.config.Port, varserver.Options{
		ClientTag:   app.config.ClientTag,
		VarPath:     app.config.VarPath,
		DialTimeout: app.config.DialTimeout,
		ReadTimeout: app.config.ReadTimeout,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer link.Close()

	if err := link.SendHandshake(); err != nil {
		return fmt.Errorf("failed to initialize variable server session: %w", err)
	}

	if app.config.RecordDir != "" {
		if err := app.startRecorder(); err != nil {
			return err
		}
		defer func() {
			if err := app.recorder.Close(); err != nil {
				app.logger.WithError(err).Warn("Failed to close telemetry recorder")
			}
		}()
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	// Closing the link is the only way to unblock a pending read
	g.Go(func() error {
		<-gctx.Done()
		_ = link.Close()
		return nil
	})

	g.Go(func() error {
		return app.receive(gctx, link)
	})

	// After a stream end the display keeps the last frame up until the
	// operator quits. Headless sessions stop right away.
	g.Go(func() error {
		if app.render(gctx) && app.display != nil {
			app.logger.Info("Waiting for the operator to quit")
			return nil
		}
		stop()
		return nil
	})

	g.Go(func() error {
		return app.bridge.Run(gctx, app.events)
	})

	g.Go(func() error {
		app.reportStatistics(gctx, link)
		return nil
	})

	if app.display != nil {
		g.Go(func() error {
			if app.display.PollInput(gctx, app.events) {
				stop()
			}
			return nil
		})
	}

	app.logger.Info("All session loops started")
	err = g.Wait()
	app.logStatistics(link)
	return err
}

func (app *Application) startRecorder() error {
	rec, err := logging.NewRecorder(app.config.RecordDir, app.config.RecordUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry recorder: %w", err)
	}
	app.recorder = rec

	if app.config.RecordKeepDays > 0 {
		if _, err := rec.CleanupOld(app.config.RecordKeepDays); err != nil {
			app.logger.WithError(err).Warn("Failed to clean up old recordings")
		}
	}
	return nil
}

// receive reads telemetry until the stream ends. Every parsed record is
// answered with the current setpoints.
func (app *Application) receive(ctx context.Context, link *varserver.Link) error {
	defer app.model.EndSession()

	for {
		line, err := link.NextLine()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, varserver.ErrEndOfStream) {
				app.logger.WithError(err).Info("Telemetry stream ended")
				return nil
			}
			return fmt.Errorf("telemetry stream failed: %w", err)
		}

		if err := app.handleLine(line, link); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (app *Application) handleLine(line string, sender controls.CommandSender) error {
	if app.recorder != nil {
		if err := app.recorder.Record(line); err != nil {
			app.logger.WithError(err).Warn("Failed to record telemetry line")
		}
	}

	s, err := sample.Parse(line)
	if err != nil {
		app.malformed.Add(1)
		app.logger.WithError(err).WithField("line", line).Warn("Skipping malformed telemetry record")
		return nil
	}

	app.model.ApplySample(s)
	return app.bridge.SendCycle(sender)
}

// render draws frames at the configured rate. Once the session has ended it
// draws one last frame and returns true.
func (app *Application) render(ctx context.Context) bool {
	ticker := time.NewTicker(time.Second / time.Duration(app.config.FPS))
	defer ticker.Stop()

	opts := projector.Options{WaypointMarkers: app.config.WaypointMarkers}

	for {
		select {
		case <-ctx.Done():
			if app.model.Ended() {
				app.finish(opts)
			}
			return false
		case <-ticker.C:
			if app.model.Ended() {
				app.finish(opts)
				return true
			}
			app.drawFrame(app.model.Snapshot(), opts)
		}
	}
}

func (app *Application) finish(opts projector.Options) {
	if app.display != nil {
		app.display.SetFooter(EndedFooter)
	}
	f := app.model.Snapshot()
	app.drawFrame(f, opts)

	a := f.Aircraft
	app.logger.WithFields(logrus.Fields{
		"north":   a.PosNorth,
		"west":    a.PosWest,
		"heading": a.Heading,
		"speed":   a.Speed,
	}).Info("Session ended")
}

func (app *Application) drawFrame(f scene.Frame, opts projector.Options) {
	app.frames.Add(1)
	if app.display == nil {
		return
	}

	app.display.Begin()
	w, h := app.display.Size()
	projector.Issue(projector.Project(f, w, h, opts), app.display)
	app.display.Present()
}

// reportStatistics reports session statistics periodically
func (app *Application) reportStatistics(ctx context.Context, link *varserver.Link) {
	ticker := time.NewTicker(app.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.logStatistics(link)
		}
	}
}

func (app *Application) logStatistics(link *varserver.Link) {
	stats := link.Stats()
	a := app.model.Aircraft()
	c := app.model.Controls()

	fields := logrus.Fields{
		"lines_read":      stats.LinesRead,
		"commands_sent":   stats.CommandsSent,
		"malformed":       app.malformed.Load(),
		"frames":          app.frames.Load(),
		"north":           fmt.Sprintf("%.2f", a.PosNorth),
		"west":            fmt.Sprintf("%.2f", a.PosWest),
		"speed":           fmt.Sprintf("%.2f", a.Speed),
		"desired_speed":   app.model.DesiredSpeedRounded(),
		"desired_heading": fmt.Sprintf("%.2f", c.DesiredHeadingRad),
		"autopilot":       c.Autopilot,
	}
	if app.recorder != nil {
		fields["recorded"] = app.recorder.Lines()
	}
	app.logger.WithFields(fields).Info("Session statistics")
}
