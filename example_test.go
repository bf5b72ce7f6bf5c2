package zecs_test

import (
	"context"
	"fmt"

	"github.com/TheBitDrifter/zecs"
)

// Body is a simple component for 2D coordinates
type Body struct {
	X float64
	Y float64
}

// Motion is a simple component for 2D movement
type Motion struct {
	X float64
	Y float64
}

// Label is a simple component for entity identification
type Label struct {
	Value string
}

// Example shows basic usage with entity creation and queries
func Example_basic() {
	world := zecs.NewWorld()

	// Define components
	body := zecs.FactoryNewComponent[Body]()
	motion := zecs.FactoryNewComponent[Motion]()

	// Create entities
	world.NewEntities(5, body)
	world.NewEntities(3, body, motion)

	// Create one labelled entity
	player, _ := world.SpawnWith(
		body.Value(Body{X: 10, Y: 20}),
		motion.Value(Motion{X: 1, Y: 2}),
		zecs.NewValue(Label{Value: "Player"}),
	)

	// Query for entities with both body and motion
	query := zecs.Factory.NewQuery()
	queryNode := query.And(body, motion)
	cursor := zecs.Factory.NewCursor(queryNode, world)

	matches := 0
	for cursor.Next() {
		pos := body.GetFromCursor(cursor)
		vel := motion.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
		matches++
	}

	pos, _ := zecs.Get[Body](world, player)
	label, _ := zecs.Get[Label](world, player)
	fmt.Printf("Found %d entities with body and motion\n", matches)
	fmt.Printf("%s moved to (%.1f, %.1f)\n", label.Value, pos.X, pos.Y)

	// Output:
	// Found 4 entities with body and motion
	// Player moved to (11.0, 22.0)
}

// Example_typedQuery shows a typed query with optional and excluded terms
func Example_typedQuery() {
	world := zecs.NewWorld()

	world.SpawnWith(zecs.NewValue(Body{X: 1}))
	world.SpawnWith(zecs.NewValue(Body{X: 2}), zecs.NewValue(Motion{X: 10}))
	world.SpawnWith(zecs.NewValue(Body{X: 3}), zecs.NewValue(Label{Value: "static"}))

	query, err := zecs.NewQuery[struct {
		Pos    zecs.Write[Body]
		Vel    zecs.Optional[Motion]
		Static zecs.Without[Label]
	}](world)
	if err != nil {
		fmt.Println(err)
		return
	}

	total := 0.0
	for _, item := range query.Iter() {
		if vel, ok := item.Vel.Get(); ok {
			item.Pos.Get().X += vel.X
		}
		total += item.Pos.Get().X
	}
	fmt.Printf("Matched %d entities, total X %.1f\n", query.Count(), total)

	// Output:
	// Matched 2 entities, total X 13.0
}

type tickCount struct {
	Ticks int
}

type countState struct {
	zecs.BaseSystem
	Count zecs.ResMut[tickCount]
}

type moveState struct {
	Movers zecs.Query[struct {
		Pos zecs.Write[Body]
		Vel zecs.Read[Motion]
	}]
}

// Example_scheduler shows systems running on a scheduler
func Example_scheduler() {
	world := zecs.NewWorld()
	zecs.InsertResource(world, tickCount{})
	e, _ := world.SpawnWith(zecs.NewValue(Body{}), zecs.NewValue(Motion{X: 0.5}))

	scheduler := zecs.NewScheduler(world, zecs.SchedulerOptions{Workers: 2})
	zecs.RegisterSystem(scheduler, "count", func(s *countState) error {
		if c, ok := s.Count.Get(); ok {
			c.Ticks++
		}
		return nil
	})
	zecs.RegisterSystem(scheduler, "move", func(s *moveState) error {
		for _, m := range s.Movers.Iter() {
			m.Pos.Get().X += m.Vel.Get().X
		}
		return nil
	})

	for range 4 {
		if err := scheduler.Tick(context.Background()); err != nil {
			fmt.Println(err)
			return
		}
	}

	count, _ := zecs.GetResource[tickCount](world)
	pos, _ := zecs.Get[Body](world, e)
	fmt.Printf("Ticks: %d, X: %.1f\n", count.Ticks, pos.X)

	// Output:
	// Ticks: 4, X: 2.0
}

// Example_search shows introspecting entities by component name
func Example_search() {
	world := zecs.NewWorld()
	world.SpawnWith(zecs.NewValue(Label{Value: "a"}))
	world.SpawnWith(zecs.NewValue(Label{Value: "b"}))

	results, err := world.Search(zecs.SearchParam{
		Find:  []string{"Label"},
		Match: zecs.MatchExact,
		Where: `Label.Value == "b"`,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(len(results), results[0]["Label"])

	// Output:
	// 1 {b}
}
