// ecsplan builds an ECS system schedule from a YAML manifest and Lua scripts,
// prints the execution order, and optionally runs the schedule for a few ticks.
//
// Usage:
//
//	go run ./cmd/ecsplan [-config path] [-ticks n]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/ecscore/internal/config"
	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/event"
	coresys "github.com/l1jgo/ecscore/internal/core/system"
	"github.com/l1jgo/ecscore/internal/manifest"
	"github.com/l1jgo/ecscore/internal/scripting"
	"github.com/l1jgo/ecscore/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Display helpers ────────────────────────────────────────────────

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printFail(msg string) {
	fmt.Printf("  \033[31m✗\033[0m %s\n", msg)
}

// ── Main logic ────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/ecsplan.toml"
	if p := os.Getenv("ECSPLAN_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the TOML config")
	ticks := flag.Int("ticks", 0, "number of ticks to run after planning")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. World and event bus
	bus := event.NewBus()
	pool := ecs.NewHandleManager(cfg.Entities.InitialCapacity, cfg.Entities.Policy())
	world := ecs.NewWorld(pool, event.LifecycleEmitter{Bus: bus}, log)

	runner := coresys.NewRunner(log, cfg.Schedule.StrictReferences)
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewCleanupSystem(world, log))

	// 4. Declarations
	printSection("systems")
	if cfg.Schedule.Manifest != "" {
		m, err := manifest.Load(cfg.Schedule.Manifest)
		if err != nil {
			return err
		}
		for _, s := range m.Systems() {
			runner.Register(s)
		}
		printStat("manifest", m.Count())
	}

	if cfg.Schedule.ScriptsDir != "" {
		engine, err := scripting.NewEngine(cfg.Schedule.ScriptsDir, world, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		scripted := engine.Systems()
		for _, s := range scripted {
			runner.Register(s)
		}
		printStat("lua", len(scripted))
	}
	fmt.Println()

	// 5. Plan
	printSection("schedule")
	if err := runner.Build(); err != nil {
		var cycle *coresys.CycleError
		if errors.As(err, &cycle) {
			printFail("dependency cycle")
			for _, n := range cycle.InvolvedNodes {
				fmt.Printf("      %s\n", n)
			}
		}
		return err
	}
	for i, name := range runner.Order() {
		fmt.Printf("  %3d  %s\n", i+1, name)
	}
	printOK(fmt.Sprintf("%d systems, %d graph nodes", len(runner.Order()), runner.Graph().Size()))
	fmt.Println()

	if *ticks <= 0 {
		return nil
	}

	// 6. Run
	printSection("run")
	ticker := time.NewTicker(cfg.Schedule.TickRate)
	defer ticker.Stop()
	for i := 0; i < *ticks; i++ {
		<-ticker.C
		if err := runner.Tick(cfg.Schedule.TickRate); err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}
	}
	printStat("ticks", *ticks)
	printStat("alive entities", pool.AliveCount())
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
