package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/softball/internal/config"
	"github.com/Versifine/softball/internal/debug"
	"github.com/Versifine/softball/internal/event"
	"github.com/Versifine/softball/internal/logger"
	"github.com/Versifine/softball/internal/report"
	"github.com/Versifine/softball/internal/scene"
)

func main() {
	configPath := flag.String("config", "configs/softball.yaml", "path to the YAML or TOML config")
	envPath := flag.String("env", ".env", "optional env file with SOFTBALL_* overrides")
	interactive := flag.Bool("console", false, "drive the scene from an interactive terminal console")
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		slog.Error("Failed to load env file", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()
	collector := report.NewCollector()
	collector.Attach(bus)

	scn, err := scene.Build(cfg, bus)
	if err != nil {
		slog.Error("Failed to build scene", "error", err)
		os.Exit(1)
	}

	sim := cfg.Simulation
	slog.Info("Simulation starting",
		"balls", len(cfg.Balls),
		"duration", sim.Duration,
		"fixed_step", sim.FixedStep,
		"frame_step", sim.FrameStep,
		"realtime", sim.Realtime,
		"console", *interactive,
	)
	if *interactive {
		err = debug.NewConsole(scn, sim.FrameStep).Start(ctx)
	} else {
		err = scn.Run(ctx, scene.RunOptions{
			Duration:  sim.Duration,
			FrameStep: sim.FrameStep,
			Realtime:  sim.Realtime,
		})
	}
	if err != nil {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Simulation finished", "elapsed", scn.Elapsed(), "fixed_steps", scn.FixedSteps(), "frames", scn.Frames())

	if err := collector.Write(os.Stdout); err != nil {
		slog.Error("Failed to write report", "error", err)
	}
}
