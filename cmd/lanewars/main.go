package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	stdnet "net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lanewars/server/internal/api"
	"github.com/lanewars/server/internal/config"
	"github.com/lanewars/server/internal/core/event"
	"github.com/lanewars/server/internal/data"
	"github.com/lanewars/server/internal/handler"
	gonet "github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/scripting"
	"github.com/lanewars/server/internal/system"
	"github.com/lanewars/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName, matchID string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             lanewars  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       authoritative arena server          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(match %s)\033[0m\n\n", serverName, matchID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Environment and config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	matchID := uuid.NewString()
	log = log.With(zap.String("match", matchID))
	printBanner(cfg.Server.Name, matchID)

	// 3. Static data
	printSection("data")
	layout, err := data.LoadLayout(cfg.Game.DataFile)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	printStat("structures", len(layout.Structures))
	printStat("map width", int(layout.Map.Width))
	printStat("map height", int(layout.Map.Height))

	lua, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer lua.Close()
	if lua.HasDamageHook() {
		printOK("Lua damage hook loaded")
	} else {
		printOK("no Lua damage hook, using base damage")
	}

	// 4. World and simulation
	ws, err := world.NewState(layout)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	bus := event.NewBus()
	system.SubscribeGameLog(bus, log)

	broadcaster := handler.NewBroadcaster(log)
	deps := &handler.Deps{
		World:     ws,
		Bus:       bus,
		Broadcast: broadcaster,
		MatchID:   matchID,
		Log:       log,
	}
	manager := handler.NewManager(deps)

	engine := system.NewEngine(ws, bus, broadcaster, system.Options{
		TickRate: cfg.Network.TickRate,
		MaxStep:  cfg.Network.MaxStep,
		Lua:      lua,
		Log:      log,
	})

	// 5. Listeners; a bind failure is fatal
	sessCfg := gonet.SessionConfig{
		OutQueueSize:      cfg.Network.OutQueueSize,
		WriteTimeout:      cfg.Network.WriteTimeout,
		CommandsPerSecond: cfg.Network.CommandsPerSecond,
		CommandBurst:      cfg.Network.CommandBurst,
	}
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, sessCfg, cfg.Network.MaxFrameSize, manager.Serve, log)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Network.BindAddress, err)
	}
	go netServer.AcceptLoop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	var httpServer *http.Server
	if cfg.HTTP.BindAddress != "" {
		ln, err := stdnet.Listen("tcp", cfg.HTTP.BindAddress)
		if err != nil {
			netServer.Shutdown()
			return fmt.Errorf("listen %s: %w", cfg.HTTP.BindAddress, err)
		}
		httpServer = &http.Server{
			Handler: api.NewRouter(api.RouterConfig{
				Snapshots:     engine,
				Sessions:      manager,
				SessionConfig: sessCfg,
				MaxFrameSize:  cfg.Network.MaxFrameSize,
				WSPath:        cfg.HTTP.WSPath,
				CORSOrigins:   cfg.HTTP.AllowedOrigins,
				MatchID:       matchID,
				Log:           log,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	// 6. Game loop
	g.Go(func() error { return engine.Run(gctx) })

	printSection("ready")
	printReady(fmt.Sprintf("game listening on %s", netServer.Addr().String()))
	if httpServer != nil {
		printReady(fmt.Sprintf("admin listening on %s (ws %s)", cfg.HTTP.BindAddress, cfg.HTTP.WSPath))
	}
	printReady(fmt.Sprintf("simulation running (tick: %s, max step: %s)", cfg.Network.TickRate, cfg.Network.MaxStep))
	fmt.Println()

	<-gctx.Done()
	log.Info("shutting down")

	// 7. Shutdown: stop accepting, stop the loop, then drop every session
	netServer.Shutdown()
	if httpServer != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(shutCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
		cancel()
	}
	err = g.Wait()
	manager.CloseAll()
	netServer.Wait()
	manager.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// loadConfig reads LANEWARS_CONFIG or config/server.toml. The default path
// may be absent, in which case built-in defaults apply.
func loadConfig() (*config.Config, error) {
	path := "config/server.toml"
	explicit := false
	if p := os.Getenv("LANEWARS_CONFIG"); p != "" {
		path, explicit = p, true
	}
	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
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
