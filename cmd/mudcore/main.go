package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/command/commands"
	"github.com/udisondev/mudcore/internal/config"
	"github.com/udisondev/mudcore/internal/cooldown"
	"github.com/udisondev/mudcore/internal/db"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/game/skill"
	"github.com/udisondev/mudcore/internal/model"
	"github.com/udisondev/mudcore/internal/parser"
	"github.com/udisondev/mudcore/internal/script"
)

const ConfigPath = "config/mudcore.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfgPath := ConfigPath
	if p := os.Getenv("MUDCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("mudcore starting", "log_level", cfg.LogLevel, "catalog", cfg.Catalog.Source)

	// Catalog
	src, closeSrc, err := catalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	cat := catalog.New(src)
	if err := cat.Initialize(ctx); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	// Cooldowns
	store, closeStore, err := cooldownStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeStore()

	// Lua triggers and guard conditions
	w := newWorld()
	engine := script.NewEngine(func(actorID, text string) {
		if a, ok := w.actor(actorID); ok {
			a.Send(text)
		}
	})
	if err := loadScripts(engine, cfg.Scripts.Dir); err != nil {
		return err
	}

	// Rules core
	policy, _ := skill.ParseFailurePolicy(cfg.Dispatcher.FailurePolicy)
	effects := skill.NewEffectManagers()
	executor := skill.NewExecutor(cat, effects,
		skill.WithConditionEvaluator(engine),
		skill.WithFailurePolicy(policy))
	abilities := skill.NewAbilityExecutor(cat, executor, effects, store, nil, formula.NewPool())

	p := parser.New(parserConfig(cfg.Parser))
	registry := command.NewRegistry(p)
	dispatcher := command.NewDispatcher(registry, command.Options{
		Parser:      p,
		Abilities:   abilities,
		Triggers:    engine,
		Cooldowns:   store,
		HistorySize: cfg.Dispatcher.HistorySize,
		QueueSize:   cfg.Dispatcher.QueueSize,
		IdleTimeout: cfg.Dispatcher.IdleTimeout,
	})
	defer dispatcher.Close()

	casts := skill.NewCastManager(abilities, dispatcher.Run, func(caster model.Actor, res *skill.AbilityResult, err error) {
		if err != nil {
			slog.Debug("cast failed", "caster", caster.ID(), "err", err)
			caster.Send(errs.Message(err))
		}
	})
	executor.SetInterrupter(casts)

	player := w.populate(cat)
	if err := commands.RegisterAll(registry, commands.Deps{World: w, Casts: casts, Catalog: cat}); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	slog.Info("commands registered", "count", registry.Len())

	ticks := skill.NewTickScheduler(effects, executor, cfg.TickInterval, dispatcher.Do)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting tick scheduler", "interval", cfg.TickInterval)
		ticks.Start()
		<-gctx.Done()
		ticks.Stop()
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return runConsole(gctx, os.Stdin, os.Stdout, dispatcher, player)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("mudcore stopped")
	return nil
}

func catalogSource(ctx context.Context, cfg config.Server) (catalog.Source, func(), error) {
	if strings.ToLower(cfg.Catalog.Source) != "postgres" {
		return catalog.YAMLSource{Path: cfg.Catalog.Path}, func() {}, nil
	}

	dsn := cfg.Database.DSN()
	database, err := db.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, dsn); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")
	return db.NewCatalogRepository(database.Pool()), database.Close, nil
}

func cooldownStore(ctx context.Context, cfg config.RedisConfig) (cooldown.Store, func(), error) {
	if !cfg.Enabled {
		return cooldown.NewMemoryStore(cooldown.RealClock{}), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis %s: %w", cfg.Addr, err)
	}
	slog.Info("redis cooldown store connected", "addr", cfg.Addr)
	return cooldown.NewRedisStore(client, cfg.KeyPrefix), func() { _ = client.Close() }, nil
}

// loadScripts loads every *.lua file in dir as a trigger named after the file.
func loadScripts(engine *script.Engine, dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no script directory", "dir", dir)
			return nil
		}
		return fmt.Errorf("reading scripts %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading script %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ".lua")
		if err := engine.Load(name, string(src)); err != nil {
			return fmt.Errorf("loading script %s: %w", e.Name(), err)
		}
		slog.Info("trigger script loaded", "trigger", name)
	}
	return nil
}

func parserConfig(c config.ParserConfig) parser.Config {
	pc := parser.DefaultConfig()
	pc.Quotes = []rune(c.Quotes)
	if esc := []rune(c.Escape); len(esc) == 1 {
		pc.Escape = esc[0]
	} else {
		pc.Escape = 0
	}
	pc.CommentPrefixes = c.CommentPrefixes
	pc.MinAbbrev = c.MinAbbrev
	pc.MaxEditDistance = c.MaxEditDistance
	return pc
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
