package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"aircraftdisplay/internal/app"
	"aircraftdisplay/internal/logging"
	"aircraftdisplay/internal/termview"
)

// runSession is replaced in tests
var runSession = run

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flagCfg := app.DefaultConfig()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "aircraft-display [flags] <port>",
		Short: "Aircraft display for a Trick variable server",
		Long: `Aircraft display client for a Trick flight-dynamics simulation.

Connects to the simulation's variable server, subscribes to the aircraft
position, velocity and setpoints, draws a top-down view of the aircraft and
its waypoints, and sends the operator's setpoints back every cycle.

Keys: +/- zoom, arrows change desired speed and heading, a toggles the
autopilot, d and s toggle the data panels, q quits.

Example usage:
  aircraft-display --host sim01 -w waypoints.csv 39427`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagCfg.ShowVersion {
				app.ShowVersion(cmd.OutOrStdout())
				return nil
			}

			config, err := resolveConfig(cmd.Flags(), configFile, flagCfg, args)
			if err == nil {
				err = config.Validate()
			}
			if err != nil {
				_ = cmd.Usage()
				return err
			}
			return runSession(cmd.Context(), config)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "YAML configuration file")
	flags.StringVar(&flagCfg.Host, "host", app.DefaultHost, "Variable server host")
	flags.StringVarP(&flagCfg.WaypointFile, "waypoints", "w", "", "Waypoint list (north,west,icon per line)")
	flags.StringVar(&flagCfg.VarPath, "var-path", flagCfg.VarPath, "Simulation variable prefix")
	flags.StringVar(&flagCfg.ClientTag, "client-tag", flagCfg.ClientTag, "Client tag reported to the variable server")
	flags.Float64Var(&flagCfg.Scale, "scale", flagCfg.Scale, "Initial scale (pixels per meter)")
	flags.IntVar(&flagCfg.FPS, "fps", app.DefaultFPS, "Frames drawn per second")
	flags.DurationVar(&flagCfg.DialTimeout, "dial-timeout", app.DefaultDialTimeout, "Connect timeout")
	flags.DurationVar(&flagCfg.ReadTimeout, "read-timeout", 0, "End the session when no telemetry arrives for this long (0 waits forever)")
	flags.BoolVar(&flagCfg.Headless, "headless", false, "Run without a display and log state instead")
	flags.BoolVar(&flagCfg.WaypointMarkers, "waypoint-markers", false, "Draw a marker under each waypoint icon")
	flags.StringVar(&flagCfg.RecordDir, "record-dir", "", "Record raw telemetry to daily files in this directory")
	flags.BoolVar(&flagCfg.RecordUTC, "record-utc", false, "Use UTC for recording rotation")
	flags.IntVar(&flagCfg.RecordKeepDays, "record-keep-days", 0, "Delete recordings older than this many days (0 keeps all)")
	flags.DurationVar(&flagCfg.StatsInterval, "stats-interval", app.DefaultStatsInterval, "Interval between statistics log lines")
	flags.StringVar(&flagCfg.LogFile, "log-file", "", "Write logs to this file")
	flags.BoolVarP(&flagCfg.Verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVar(&flagCfg.ShowVersion, "version", false, "Show version information")

	return rootCmd
}

// resolveConfig layers explicitly set flags over the config file, or over
// the defaults when there is no file
func resolveConfig(flags *pflag.FlagSet, configFile string, flagCfg app.Config, args []string) (app.Config, error) {
	config := flagCfg
	if configFile != "" {
		var err error
		if config, err = app.LoadFile(configFile); err != nil {
			return app.Config{}, err
		}
		mergeFlags(flags, &config, flagCfg)
	}

	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return app.Config{}, fmt.Errorf("%w: invalid port %q", app.ErrConfig, args[0])
		}
		config.Port = port
	}
	return config, nil
}

func mergeFlags(flags *pflag.FlagSet, dst *app.Config, src app.Config) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "host":
			dst.Host = src.Host
		case "waypoints":
			dst.WaypointFile = src.WaypointFile
		case "var-path":
			dst.VarPath = src.VarPath
		case "client-tag":
			dst.ClientTag = src.ClientTag
		case "scale":
			dst.Scale = src.Scale
		case "fps":
			dst.FPS = src.FPS
		case "dial-timeout":
			dst.DialTimeout = src.DialTimeout
		case "read-timeout":
			dst.ReadTimeout = src.ReadTimeout
		case "headless":
			dst.Headless = src.Headless
		case "waypoint-markers":
			dst.WaypointMarkers = src.WaypointMarkers
		case "record-dir":
			dst.RecordDir = src.RecordDir
		case "record-utc":
			dst.RecordUTC = src.RecordUTC
		case "record-keep-days":
			dst.RecordKeepDays = src.RecordKeepDays
		case "stats-interval":
			dst.StatsInterval = src.StatsInterval
		case "log-file":
			dst.LogFile = src.LogFile
		case "verbose":
			dst.Verbose = src.Verbose
		}
	})
}

func run(ctx context.Context, config app.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The terminal belongs to the display unless running headless
	var console io.Writer
	if !config.Headless {
		console = io.Discard
	}
	logger, logCloser := logging.NewLogger(logging.Options{
		Verbose: config.Verbose,
		File:    config.LogFile,
		Console: console,
	})
	defer logCloser.Close()

	application := app.NewApplication(config, logger)
	if !config.Headless {
		screen, err := termview.NewScreen(logger)
		if err != nil {
			return err
		}
		defer screen.Close()
		application.SetDisplay(screen)
	}

	return application.Run(ctx)
}
