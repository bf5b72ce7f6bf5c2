package main

import (
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/TheBitDrifter/zecs"
)

type Pos struct {
	X, Y float64
}

type Vel struct {
	X, Y float64
}

// Lifetime counts down one per tick; the particle is despawned at zero.
type Lifetime struct {
	Ticks int
}

type Bounds struct {
	Width, Height float64
}

type Stats struct {
	Spawned   int
	Expired   int
	BoundHits int
}

type BoundsHit struct {
	Entity zecs.Entity
}

type particleScene struct {
	count  int
	logger *zerolog.Logger
}

func (s *particleScene) OnStart(w *zecs.World) error {
	if err := zecs.InsertResource(w, Bounds{Width: 100, Height: 100}); err != nil {
		return err
	}
	if err := zecs.InsertResource(w, Stats{}); err != nil {
		return err
	}
	return zecs.InsertResource(w, spawnRequest{Count: s.count})
}

func (s *particleScene) OnStop(w *zecs.World) error {
	stats, _ := zecs.GetResource[Stats](w)
	s.logger.Info().
		Int("spawned", stats.Spawned).
		Int("expired", stats.Expired).
		Int("bound_hits", stats.BoundHits).
		Int("alive", w.EntityCount()).
		Msg("particle scene finished")
	return nil
}

type spawnRequest struct {
	Count int
}

type spawnState struct {
	Request  zecs.Res[spawnRequest]
	Bounds   zecs.Res[Bounds]
	Stats    zecs.ResMut[Stats]
	Commands zecs.Commands
}

func spawnParticles(st *spawnState) error {
	req, _ := st.Request.Get()
	bounds, _ := st.Bounds.Get()
	stats, ok := st.Stats.Get()
	if !ok {
		return nil
	}
	rng := rand.New(rand.NewPCG(1, uint64(req.Count)))
	for range req.Count {
		st.Commands.Spawn(
			zecs.NewValue(Pos{X: rng.Float64() * bounds.Width, Y: rng.Float64() * bounds.Height}),
			zecs.NewValue(Vel{X: rng.NormFloat64(), Y: rng.NormFloat64()}),
			zecs.NewValue(Lifetime{Ticks: 30 + rng.IntN(90)}),
		)
	}
	stats.Spawned += req.Count
	return nil
}

type moveState struct {
	Particles zecs.Query[struct {
		Pos zecs.Write[Pos]
		Vel zecs.Read[Vel]
	}]
}

func moveParticles(st *moveState) error {
	for _, p := range st.Particles.Iter() {
		pos, vel := p.Pos.Get(), p.Vel.Get()
		pos.X += vel.X
		pos.Y += vel.Y
	}
	return nil
}

type bounceState struct {
	Particles zecs.Query[struct {
		Pos zecs.Write[Pos]
		Vel zecs.Write[Vel]
	}]
	Bounds zecs.Res[Bounds]
	Hits   zecs.EventWriter[BoundsHit]
}

func bounceParticles(st *bounceState) error {
	bounds, ok := st.Bounds.Get()
	if !ok {
		return nil
	}
	for e, p := range st.Particles.Iter() {
		pos, vel := p.Pos.Get(), p.Vel.Get()
		hit := false
		if pos.X < 0 || pos.X > bounds.Width {
			vel.X = -vel.X
			pos.X = min(max(pos.X, 0), bounds.Width)
			hit = true
		}
		if pos.Y < 0 || pos.Y > bounds.Height {
			vel.Y = -vel.Y
			pos.Y = min(max(pos.Y, 0), bounds.Height)
			hit = true
		}
		if hit {
			st.Hits.Send(BoundsHit{Entity: e})
		}
	}
	return nil
}

type ageState struct {
	Particles zecs.Query[struct{ Life zecs.Write[Lifetime] }]
	Stats     zecs.ResMut[Stats]
	Commands  zecs.Commands
}

func ageParticles(st *ageState) error {
	stats, ok := st.Stats.Get()
	if !ok {
		return nil
	}
	for e, p := range st.Particles.Iter() {
		life := p.Life.Get()
		life.Ticks--
		if life.Ticks <= 0 {
			st.Commands.Despawn(e)
			stats.Expired++
		}
	}
	return nil
}

type tallyState struct {
	zecs.BaseSystem
	Hits  zecs.EventReader[BoundsHit]
	Stats zecs.ResMut[Stats]
}

func tallyBoundHits(st *tallyState) error {
	stats, ok := st.Stats.Get()
	if !ok {
		return nil
	}
	n := st.Hits.Len()
	for range st.Hits.Read() {
		stats.BoundHits++
	}
	if n > 0 {
		st.Logger().Debug().Int("hits", n).Uint64("tick", st.Tick()).Msg("particles hit the bounds")
	}
	return nil
}

type exitState struct {
	Particles zecs.Query[struct{ Life zecs.Read[Lifetime] }]
	Exit      zecs.EventWriter[zecs.AppExit]
}

func exitWhenEmpty(st *exitState) error {
	// The startup commands are applied before this runs on the first tick.
	if st.Particles.Count() == 0 {
		st.Exit.Send(zecs.AppExit{Reason: "all particles expired"})
	}
	return nil
}

func registerParticleSystems(s *zecs.Scheduler) error {
	registrations := []error{
		zecs.RegisterSystem(s, "spawn", spawnParticles, zecs.InStage(zecs.StageStartup)),
		zecs.RegisterSystem(s, "move", moveParticles),
		zecs.RegisterSystem(s, "bounce", bounceParticles),
		zecs.RegisterSystem(s, "age", ageParticles, zecs.InStage(zecs.StagePostUpdate)),
		zecs.RegisterSystem(s, "tally", tallyBoundHits, zecs.InStage(zecs.StagePostUpdate)),
		zecs.RegisterSystem(s, "exit", exitWhenEmpty, zecs.InStage(zecs.StagePreUpdate)),
	}
	for _, err := range registrations {
		if err != nil {
			return err
		}
	}
	return nil
}
