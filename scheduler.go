package zecs

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// stageSchedule orders the systems of one stage. Conflicting systems are linked in
// declaration order; the others are free to run in parallel.
type stageSchedule struct {
	systems  []*systemMeta
	graph    map[int][]int
	indegree []int32
	tier0    []int
	dirty    bool
}

func (st *stageSchedule) build() {
	st.graph, st.indegree = buildDependencyGraph(st.systems)
	st.tier0 = st.tier0[:0]
	for id, deg := range st.indegree {
		if deg == 0 {
			st.tier0 = append(st.tier0, id)
		}
	}
	st.dirty = false
}

// buildDependencyGraph creates a DAG of the systems whose declared access conflicts, with
// edges always pointing from the earlier declared system to the later one.
func buildDependencyGraph(systems []*systemMeta) (map[int][]int, []int32) {
	graph := make(map[int][]int, len(systems))
	indegree := make([]int32, len(systems))

	for a := 0; a < len(systems)-1; a++ {
		for b := a + 1; b < len(systems); b++ {
			if systems[a].access.conflicts(&systems[b].access) {
				graph[a] = append(graph[a], b)
				indegree[b]++
			}
		}
	}
	return graph, indegree
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	// Workers bounds how many systems run at once. 1 runs every system on the calling
	// goroutine; 0 uses GOMAXPROCS.
	Workers int
	// Logger receives failures and tick summaries. Nil disables logging.
	Logger *zerolog.Logger
}

// Scheduler runs registered systems against a world once per Tick.
type Scheduler struct {
	world       *World
	logger      zerolog.Logger
	workers     int
	stages      [stageCount]stageSchedule
	startupDone bool
	running     atomic.Bool
	registered  atomic.Int32
	mu          sync.Mutex
}

func NewScheduler(w *World, opts SchedulerOptions) *Scheduler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Scheduler{
		world:   w,
		logger:  logger,
		workers: workers,
	}
}

func (s *Scheduler) World() *World {
	return s.world
}

func (s *Scheduler) add(meta *systemMeta) error {
	if s.running.Load() {
		return eris.Errorf("cannot register system %s while a tick is running", meta.name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for st := range s.stages {
		for _, existing := range s.stages[st].systems {
			if existing.name == meta.name {
				return eris.Errorf("system %s is already registered", meta.name)
			}
		}
	}
	stage := &s.stages[meta.stage]
	stage.systems = append(stage.systems, meta)
	stage.dirty = true
	s.registered.Add(1)
	return nil
}

// SystemCount returns the number of registered systems. It is safe to call from a running
// system.
func (s *Scheduler) SystemCount() int {
	return int(s.registered.Load())
}

// Tick runs every stage to completion, applying deferred commands between stages, then
// swaps the event buffers. A tick is never interrupted; a done ctx only prevents it from
// starting. If a system fails, the remaining stages are skipped and the error is returned.
func (s *Scheduler) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "tick not started")
	}
	if !s.running.CompareAndSwap(false, true) {
		return eris.New("tick already running")
	}
	defer s.running.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	tick := s.world.Tick()
	s.world.Lock()

	var tickErr error
	for i := range s.stages {
		stage := Stage(i)
		if stage == StageStartup && s.startupDone {
			continue
		}
		if err := s.runStage(stage); err != nil {
			tickErr = eris.Wrapf(err, "stage %s failed", stage)
			break
		}
	}
	s.startupDone = true

	s.world.events.swap()
	s.world.tick.Add(1)
	s.world.Unlock()

	s.logger.Debug().
		Uint64("tick", tick).
		Dur("duration", time.Since(start)).
		Int("entities", s.world.EntityCount()).
		Msg("tick completed")
	return tickErr
}

// runStage executes one stage and applies the commands of every system that succeeded.
// Operations queued directly on the world with Enqueue* are not tied to a system and are
// applied even when a system fails; Commands is the failure-safe path.
func (s *Scheduler) runStage(stage Stage) error {
	st := &s.stages[stage]
	if len(st.systems) == 0 {
		return nil
	}
	if st.dirty {
		st.build()
	}

	var errs []error
	if s.workers == 1 {
		errs = s.runSequential(st)
	} else {
		errs = s.runParallel(st)
	}

	var stageErr error
	for id, sys := range st.systems {
		if errs[id] != nil {
			sys.commands.discard(s.world)
			s.logger.Error().Err(errs[id]).
				Str("system", sys.name).
				Str("stage", stage.String()).
				Uint64("tick", s.world.Tick()).
				Msg("system failed")
			if stageErr == nil {
				stageErr = errs[id]
			}
			continue
		}
		if err := sys.commands.apply(s.world); err != nil {
			s.logger.Warn().Err(err).Str("system", sys.name).Msg("failed to apply commands")
		}
	}
	if err := s.world.flushQueue(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to apply queued operations")
	}
	return stageErr
}

// runSequential runs every system in declaration order, which is always a valid
// topological order of the stage graph.
func (s *Scheduler) runSequential(st *stageSchedule) []error {
	errs := make([]error, len(st.systems))
	for id, sys := range st.systems {
		errs[id] = invoke(sys)
	}
	return errs
}

// runParallel runs systems as soon as every system they depend on has finished, with at
// most s.workers running at once.
func (s *Scheduler) runParallel(st *stageSchedule) []error {
	errs := make([]error, len(st.systems))
	indegree := make([]atomic.Int32, len(st.systems))
	for id, deg := range st.indegree {
		indegree[id].Store(deg)
	}

	executionQueue := make(chan int, len(st.systems))
	for _, id := range st.tier0 {
		executionQueue <- id
	}

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for range st.systems {
		id := <-executionQueue
		g.Go(func() error {
			// Errors are collected rather than returned so dependents still get scheduled.
			errs[id] = invoke(st.systems[id])
			for _, dependent := range st.graph[id] {
				if indegree[dependent].Add(-1) == 0 {
					executionQueue <- dependent
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// invoke runs a system, turning a panic into an error.
func invoke(sys *systemMeta) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("system %s panicked: %v", sys.name, r)
		}
	}()
	if err := sys.fn(); err != nil {
		return eris.Wrapf(err, "system %s failed", sys.name)
	}
	return nil
}
