package zecs

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// AppExit asks the engine to stop after the tick in which it was sent.
type AppExit struct {
	Reason string
}

// Engine drives a scheduler at a fixed tick rate for the lifetime of one scene.
type Engine struct {
	cfg       EngineConfig
	logger    zerolog.Logger
	world     *World
	scheduler *Scheduler
}

type EngineOption func(*Engine)

// WithEngineLogger overrides the logger built from the config.
func WithEngineLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid engine config")
	}
	e := &Engine{
		cfg:    cfg,
		logger: cfg.Log.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.world = NewWorld(
		WithLogger(e.logger),
		WithQueryCacheCapacity(cfg.QueryCacheCapacity),
	)
	schedLogger := e.logger.With().Str("world", e.world.ID().String()).Logger()
	e.scheduler = NewScheduler(e.world, SchedulerOptions{
		Workers: cfg.Workers,
		Logger:  &schedLogger,
	})
	return e, nil
}

func (e *Engine) World() *World {
	return e.world
}

func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// Run enters scene, ticks until ctx is done, MaxTicks is reached, an AppExit event is sent
// or a system fails, then leaves the scene. Scene hooks never overlap a tick.
func (e *Engine) Run(ctx context.Context, scene Scene) error {
	if starter, ok := scene.(SceneStarter); ok {
		if err := starter.OnStart(e.world); err != nil {
			return eris.Wrap(err, "scene failed to start")
		}
	}
	e.logger.Info().Msg("scene started")

	runErr := e.loop(ctx)

	var stopErr error
	if stopper, ok := scene.(SceneStopper); ok {
		if err := stopper.OnStop(e.world); err != nil {
			stopErr = eris.Wrap(err, "scene failed to stop")
		}
	}
	e.logger.Info().Uint64("ticks", e.world.Tick()).Msg("scene stopped")
	return errors.Join(runErr, stopErr)
}

func (e *Engine) loop(ctx context.Context) error {
	var ticker *time.Ticker
	if e.cfg.TickRate > 0 {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / e.cfg.TickRate))
		defer ticker.Stop()
	}

	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := e.scheduler.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return eris.Wrap(err, "engine tick failed")
		}

		if exit, ok := LastEvent[AppExit](e.world); ok {
			e.logger.Info().Str("reason", exit.Reason).Msg("exit requested")
			return nil
		}
		if e.cfg.MaxTicks > 0 && e.world.Tick() >= e.cfg.MaxTicks {
			return nil
		}
	}
}
