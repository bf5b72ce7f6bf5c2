/*
Package zecs provides an archetype-based Entity-Component-System runtime for games and simulations.

Entities sharing the same set of component types are stored together in column-oriented
archetype tables, so iterating a combination of components walks contiguous memory. Systems
declare what they read and write through their state struct, and the scheduler uses those
declarations to run non-conflicting systems in parallel.

Core Concepts:

  - Entity: A generation-checked handle. Despawned handles never become valid again.
  - Component: Plain data attached to an entity, at most one value per type.
  - Archetype: The table of all entities sharing one exact component set.
  - Query: Iterates the entities whose archetype matches a set of terms.
  - Resource: A single value per type owned by the world.
  - Event: A value sent during one tick and delivered during the next.
  - System: A function over a state struct of parameters, run once per tick.

Basic Usage:

	world := zecs.NewWorld()

	e, _ := world.SpawnWith(zecs.NewValue(Position{}), zecs.NewValue(Velocity{X: 1}))

	movers, _ := zecs.NewQuery[struct {
		Pos zecs.Write[Position]
		Vel zecs.Read[Velocity]
	}](world)

	for _, m := range movers.Iter() {
		m.Pos.Get().X += m.Vel.Get().X
	}

	pos, _ := zecs.Get[Position](world, e)

Systems:

	type MoveState struct {
		zecs.BaseSystem
		Movers zecs.Query[struct {
			Pos zecs.Write[Position]
			Vel zecs.Read[Velocity]
		}]
	}

	scheduler := zecs.NewScheduler(world, zecs.SchedulerOptions{Workers: 4})
	_ = zecs.RegisterSystem(scheduler, "move", func(s *MoveState) error {
		for _, m := range s.Movers.Iter() {
			m.Pos.Get().X += m.Vel.Get().X
		}
		return nil
	})
	_ = scheduler.Tick(ctx)

The order in which queries visit entities is unspecified and may change as entities move
between archetypes.
*/
package zecs
