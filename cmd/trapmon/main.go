package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dmorgan-nz/trapmon/internal/config"
	"github.com/dmorgan-nz/trapmon/internal/listener"
	"github.com/dmorgan-nz/trapmon/internal/observability"
	"github.com/dmorgan-nz/trapmon/internal/serialport"
	"github.com/dmorgan-nz/trapmon/internal/sink"
	"github.com/dmorgan-nz/trapmon/internal/trigger"
)

func main() {
	configPath := flag.String("config", "/etc/trapmon.toml", "path to the config file")
	device := flag.String("device", "", "serial device (overrides config)")
	baud := flag.Int("baud", 0, "baud rate (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	flag.Parse()

	if err := run(*configPath, *device, *baud, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "trapmon: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, device string, baud int, logLevel string) error {
	cfg, haveFile, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if device != "" {
		cfg.Serial.Device = device
	}
	if baud > 0 {
		cfg.Serial.Baud = baud
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := observability.InitLogger("trapmon", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if haveFile {
		go watchConfig(ctx, configPath, cfg, logger)
	}

	sinks := sink.Multi{sink.NewConsole(os.Stdout), sink.NewLogger(logger)}
	var eval *trigger.Evaluator
	if len(cfg.Trigger.Trap) > 0 {
		eval = trigger.NewEvaluator(cfg.Trigger, logger)
		sinks = append(sinks, eval)
		logger.Info().
			Str("trap", cfg.Trigger.Trap.String()).
			Str("protect", cfg.Trigger.Protect.String()).
			Msg("trigger rules loaded")
	}

	l := listener.New(
		listener.Config{
			Device:    cfg.Serial.Device,
			Limits:    cfg.Limits,
			Reconnect: cfg.Reconnect,
		},
		func() (io.ReadCloser, error) { return serialport.Open(cfg.Serial) },
		sinks,
		logger,
	)

	if cfg.Debug.Addr != "" {
		dbg := observability.NewDebugServer(cfg.Debug.Addr, cfg.Debug.CorsOrigins, logger, func() gin.H {
			body := gin.H{"listener": string(l.State())}
			if eval != nil {
				body["trap_active"] = eval.Active(time.Now())
			}
			return body
		})
		go func() {
			if err := dbg.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("debug server stopped")
			}
		}()
	}

	logger.Info().
		Str("device", cfg.Serial.Device).
		Int("baud", cfg.Serial.Baud).
		Msg("listening for serial messages")

	err = l.Run(ctx)
	if ctx.Err() != nil {
		logger.Info().Msg("interrupted, exiting")
		return nil
	}
	return err
}

// loadConfig tolerates a missing file: the daemon then runs entirely on
// defaults plus flag overrides.
func loadConfig(path string) (config.Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), false, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, false, err
	}
	return cfg, true, nil
}

// watchConfig exits the process when the file changes semantically so
// the service manager restarts it with the new config.
func watchConfig(ctx context.Context, path string, current config.Config, logger zerolog.Logger) {
	changed, err := config.Watch(ctx, path, current, logger)
	if err != nil {
		logger.Error().Err(err).Msg("config watch failed")
		return
	}
	if changed {
		logger.Info().Msg("config changed, exiting to allow service restart")
		os.Exit(0)
	}
}
