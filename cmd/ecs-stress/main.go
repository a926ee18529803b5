// Command ecs-stress churns entities through a fission world and reports how
// the store and the system manager hold up. With -verify every system cache
// is checked against a full join after each tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/plus3/fission/internal/config"
	"github.com/plus3/fission/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML or YAML config file.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 0, "The initial number of entities to create.")
	churn := flag.Int("churn", 0, "Entities created per tick.")
	verify := flag.Bool("verify", false, "Check every system cache against the store after each tick.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile to the working directory.")
	seed := flag.Uint64("seed", 0, "Seed for the entity generator.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// flags given on the command line win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Stress.Duration = *duration
		case "entities":
			cfg.Stress.Entities = *entityCount
		case "churn":
			cfg.Stress.Churn = *churn
		case "verify":
			cfg.Stress.Verify = *verify
		case "profile":
			cfg.Stress.Profile = *profileMode
		case "seed":
			cfg.Stress.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch cfg.Stress.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Stress.Duration)
	defer cancel()

	report, err := run(ctx, cfg.Stress, logger)
	if err != nil {
		logger.Error("stress test failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("failed to generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")

	logger.Info("stress test complete")
}

// run populates a world and ticks it until ctx is done.
func run(ctx context.Context, cfg config.StressConfig, logger *zap.Logger) (*Report, error) {
	logger.Info("starting ECS stress test",
		zap.Int("entities", cfg.Entities),
		zap.Int("churn", cfg.Churn),
		zap.Bool("verify", cfg.Verify))

	w, err := newWorld(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup world: %w", err)
	}

	logger.Info("populating storage", zap.Int("entities", cfg.Entities))
	if err := w.spawn(cfg.Entities); err != nil {
		return nil, fmt.Errorf("populate: %w", err)
	}
	if cfg.Verify {
		if err := w.verify(); err != nil {
			return nil, fmt.Errorf("after populate: %w", err)
		}
	}

	report := &Report{
		Config: cfg,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	var ticker *time.Ticker
	if cfg.Tick > 0 {
		ticker = time.NewTicker(cfg.Tick)
		defer ticker.Stop()
	}

	logger.Info("running simulation", zap.Duration("duration", cfg.Duration))
	startTime := time.Now()
	lastFrameTime := startTime

Loop:
	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				break Loop
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				break Loop
			default:
			}
		}

		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		if err := w.manager.Update(deltaTime.Seconds()); err != nil {
			return nil, fmt.Errorf("tick %d: %w", report.TotalUpdates, err)
		}
		if err := w.spawn(cfg.Churn); err != nil {
			return nil, fmt.Errorf("tick %d: spawn: %w", report.TotalUpdates, err)
		}
		if err := w.mutate(cfg.Churn / 4); err != nil {
			return nil, fmt.Errorf("tick %d: mutate: %w", report.TotalUpdates, err)
		}
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		report.TotalUpdates++

		if cfg.Verify {
			if err := w.verify(); err != nil {
				return nil, fmt.Errorf("tick %d: %w", report.TotalUpdates, err)
			}
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.Created = w.created
	report.Expired = w.aging.Expired
	report.Mutated = w.mutated
	report.PeakEntities = w.census.Peak
	report.ClockTicks = w.clock.clock.Get().Ticks
	report.Systems = w.manager.Stats()
	report.Storage = w.storage.CollectStats()

	logger.Info("simulation finished",
		zap.Int64("updates", report.TotalUpdates),
		zap.Int64("expired", report.Expired))
	return report, nil
}
