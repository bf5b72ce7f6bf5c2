package zecs

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// System is a function over a state struct whose exported fields are system parameters:
// Query, Res, ResMut, EventReader, EventWriter, Commands, Local and an embedded BaseSystem.
type System[S any] func(state *S) error

// Stage groups systems that run together. Stages run in order and the commands of a stage
// are applied before the next one starts.
type Stage uint8

const (
	// StageStartup runs once, during the first tick.
	StageStartup Stage = iota
	StagePreUpdate
	StageUpdate
	StagePostUpdate

	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageStartup:
		return "startup"
	case StagePreUpdate:
		return "pre-update"
	case StageUpdate:
		return "update"
	case StagePostUpdate:
		return "post-update"
	default:
		return "unknown"
	}
}

// systemMeta contains the metadata for a system.
type systemMeta struct {
	name     string
	stage    Stage
	access   access
	fn       func() error
	commands opQueue
	logger   zerolog.Logger
}

type systemConfig struct {
	stage Stage
}

// SystemOption configures a system at registration.
type SystemOption func(*systemConfig)

// InStage places the system in the given stage. Systems default to StageUpdate.
func InStage(stage Stage) SystemOption {
	return func(cfg *systemConfig) {
		cfg.stage = stage
	}
}

// RegisterSystem initialises the state of fn and adds it to the scheduler. Malformed state
// and aliased access are reported here, never during a tick.
func RegisterSystem[S any](s *Scheduler, name string, fn System[S], opts ...SystemOption) error {
	cfg := systemConfig{stage: StageUpdate}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.stage >= stageCount {
		return eris.Errorf("system %s: invalid stage %d", name, cfg.stage)
	}
	if fn == nil {
		return eris.Errorf("system %s: nil function", name)
	}

	meta := &systemMeta{
		name:     name,
		stage:    cfg.stage,
		commands: newOpQueue(),
		logger:   s.logger.With().Str("system", name).Logger(),
	}
	state := new(S)
	acc, err := initSystemState(s.world, state, meta)
	if err != nil {
		return eris.Wrapf(err, "failed to register system %s", name)
	}
	meta.access = acc
	meta.fn = func() error {
		return fn(state)
	}
	return s.add(meta)
}
