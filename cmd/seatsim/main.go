// Command seatsim flies a vehicle around a vertical loop with a seated
// passenger and a few observers, sending every packet through the
// configured sinks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/OCAP2/seatsync/internal/config"
	"github.com/OCAP2/seatsync/internal/influx"
	"github.com/OCAP2/seatsync/internal/logging"
	intOtel "github.com/OCAP2/seatsync/internal/otel"
	"github.com/OCAP2/seatsync/internal/seat"
	"github.com/OCAP2/seatsync/internal/sim"
	"github.com/OCAP2/seatsync/internal/transport"
	"github.com/OCAP2/seatsync/internal/tree"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const (
	passengerID core.EntityID = 1
	// firstObserver is the identity of the first non-passenger observer.
	firstObserver core.EntityID = 100
)

type options struct {
	configDir   string
	ticks       int
	period      int
	radius      float64
	player      bool
	displayMode string
	observers   int
	export      bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seatsim:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	flagSet := pflag.NewFlagSet("seatsim", pflag.ContinueOnError)
	flagSet.StringVarP(&o.configDir, "config", "c", ".", "directory containing "+config.FileName)
	flagSet.IntVar(&o.ticks, "ticks", 144, "number of ticks to simulate")
	flagSet.IntVar(&o.period, "period", 72, "ticks per full loop")
	flagSet.Float64Var(&o.radius, "radius", 8, "loop radius in blocks")
	flagSet.BoolVar(&o.player, "player", true, "seat a player (false seats a mob)")
	flagSet.StringVar(&o.displayMode, "display-mode", "", "override every seat's display mode (default, elytra, elytra_sit)")
	flagSet.IntVar(&o.observers, "observers", 2, "number of observers besides the passenger")
	flagSet.BoolVar(&o.export, "export", false, "export the memory sink capture when done")

	if err := flagSet.Parse(args); err != nil {
		return o, err
	}
	if o.ticks < 0 || o.observers < 0 {
		return o, errors.New("--ticks and --observers must not be negative")
	}
	return o, nil
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	start := time.Now()
	logManager := logging.NewSlogManager()
	logManager.Setup(nil, "info", nil)
	logger := logManager.Logger()

	if err := config.Load(opts.configDir); err != nil {
		logger.Warn("Using default configuration", "error", err)
		config.LoadDefaults()
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, "seatsim", start)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:       otelCfg.Enabled,
		ServiceName:   otelCfg.ServiceName,
		BatchTimeout:  otelCfg.BatchTimeout,
		LogWriter:     logFile,
		Endpoint:      otelCfg.Endpoint,
		Insecure:      otelCfg.Insecure,
		TraceEndpoint: otelCfg.TraceEndpoint,
	})
	if err != nil {
		logger.Error("Failed to initialize OTel provider", "error", err)
		provider, _ = intOtel.New(intOtel.Config{})
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("OTel shutdown failed", "error", err)
		}
	}()

	var currentTick atomic.Uint64
	var otelLogProvider *sdklog.LoggerProvider
	if provider.Enabled() {
		otelLogProvider = provider.LoggerProvider()
	}
	level := viper.GetString("logLevel")
	logManager.Setup(logFile, level, otelLogProvider, logging.WithContext(func() []slog.Attr {
		return []slog.Attr{slog.Uint64("tick", currentTick.Load())}
	}))
	logger = logManager.Logger()
	logger.Info("Logging to file", "path", logPath)

	zl := logging.NewZerolog(logFile, level)

	sinks, err := transport.New(config.GetTransportConfig(), transport.Deps{
		Logger:   logger,
		DBLogger: zl,
		DB:       config.GetDBConfig(),
		Session:  fmt.Sprintf("seatsim-%d", start.Unix()),
	})
	if err != nil {
		return fmt.Errorf("build sinks: %w", err)
	}

	telemetry := influx.NewManager(config.GetInfluxConfig(), zl)
	if err := telemetry.Connect(context.Background()); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			logger.Error("InfluxDB unavailable", "error", err)
		}
		telemetry = nil
	}

	var modeChanges atomic.Int64
	simulation, err := sim.New(vehicleNode(viper.Sub("vehicle")), seatDefs(config.GetSeatNodes(), opts.displayMode), sim.Options{
		Sink:            sinks.Sink,
		Logger:          logger,
		DispatchLogger:  logging.NewDispatcherLogger(zl),
		Tracer:          provider.Tracer("github.com/OCAP2/seatsync/cmd/seatsim"),
		AngleStep:       config.GetAngleStep(),
		ThirdPersonView: viper.GetBool("enableThirdPersonView"),
		OnModeChange: func(c seat.ModeChange) {
			modeChanges.Add(1)
			if telemetry == nil {
				return
			}
			if err := telemetry.RecordModeChange(c, time.Now()); err != nil {
				logger.Warn("Failed to record mode change", "seat", c.Seat, "error", err)
			}
		},
	})
	if err != nil {
		return err
	}

	if err := simulate(simulation, opts, &currentTick); err != nil {
		logger.Error("Simulation reported errors", "error", err)
	}
	simulation.Close()

	if telemetry != nil {
		if err := telemetry.Close(); err != nil {
			logger.Error("Failed to close InfluxDB manager", "error", err)
		}
	}
	if err := sinks.Close(); err != nil {
		logger.Error("Failed to close sinks", "error", err)
	}

	fmt.Printf("ticks: %d\nseats: %d\nmode changes: %d\n", simulation.Ticks(), len(simulation.Seats()), modeChanges.Load())
	if sinks.Recorder != nil {
		fmt.Printf("packets: %d\n", sinks.Recorder.Len())
		if opts.export {
			mem := config.GetTransportConfig().Memory
			path, err := sinks.Recorder.Export(mem.OutputDir, "seatsim", mem.CompressOutput)
			if err != nil {
				return fmt.Errorf("export capture: %w", err)
			}
			fmt.Printf("capture: %s\n", path)
		}
	}
	if sinks.Relay != nil {
		fmt.Printf("relay dropped: %d\n", sinks.Relay.Dropped())
	}
	if sinks.Journal != nil {
		fmt.Printf("journal dropped: %d\n", sinks.Journal.Dropped())
	}

	logger.Info("Simulation complete", "duration", time.Since(start))
	return logManager.Flush(context.Background())
}

// simulate seats the passenger in the first seat, shows every seat to the
// observers and runs the loop.
func simulate(s *sim.Simulation, opts options, tick *atomic.Uint64) error {
	if err := s.AttachAll(); err != nil {
		return err
	}

	var passenger *tree.Passenger
	if opts.player {
		passenger = tree.NewPlayer(passengerID)
	} else {
		passenger = tree.NewMob(passengerID)
	}
	if err := s.SetEntity(s.Seats()[0], passenger); err != nil {
		return err
	}

	if opts.player {
		if err := s.ShowAll(passengerID); err != nil {
			return err
		}
	}
	for i := range opts.observers {
		if err := s.ShowAll(firstObserver + core.EntityID(i)); err != nil {
			return err
		}
	}

	ctx := context.Background()
	var errs []error
	center := mgl64.Vec3{0, 64 + opts.radius, 0}
	for step := 1; step <= opts.ticks; step++ {
		tick.Store(uint64(step))
		if err := s.Step(ctx, sim.VerticalLoop(center, opts.radius, 0, step, opts.period)); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := s.Eject(s.Seats()[0], passenger); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, s.DetachAll())
	return errors.Join(errs...)
}
