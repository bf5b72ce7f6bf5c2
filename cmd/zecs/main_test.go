package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBitDrifter/zecs"
)

func testConfig() zecs.EngineConfig {
	cfg := zecs.DefaultEngineConfig()
	cfg.TickRate = 0
	cfg.Log.Level = "error"
	return cfg
}

func TestParticleSceneRunsToCompletion(t *testing.T) {
	engine, err := zecs.NewEngine(testConfig())
	require.NoError(t, err)
	require.NoError(t, registerParticleSystems(engine.Scheduler()))

	scene := &particleScene{count: 64, logger: engine.World().Logger()}
	require.NoError(t, engine.Run(context.Background(), scene))

	stats, ok := zecs.GetResource[Stats](engine.World())
	require.True(t, ok)
	assert.Equal(t, 64, stats.Spawned)
	assert.Equal(t, 64, stats.Expired)
	assert.Equal(t, 0, engine.World().EntityCount())
	// Lifetimes are at most 119 ticks, plus the tick in which the exit is seen.
	assert.LessOrEqual(t, engine.World().Tick(), uint64(121))
}

func TestParticlesStayInBounds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTicks = 20
	engine, err := zecs.NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, registerParticleSystems(engine.Scheduler()))

	scene := &particleScene{count: 32, logger: engine.World().Logger()}
	require.NoError(t, engine.Run(context.Background(), scene))

	results, err := engine.World().Search(zecs.SearchParam{
		Find:  []string{"Pos"},
		Match: zecs.MatchContains,
		Where: "Pos.X < 0 || Pos.X > 100 || Pos.Y < 0 || Pos.Y > 100",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, uint64(20), engine.World().Tick())
}

func TestRunCommandRejectsUnknownProfile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--profile", "gpu", "--ticks", "1"})
	assert.Error(t, cmd.Execute())
}

func TestDumpWritesJSON(t *testing.T) {
	world := zecs.NewWorld()
	_, err := world.SpawnWith(zecs.NewValue(Pos{X: 1, Y: 2}))
	require.NoError(t, err)
	assert.NoError(t, dump(world, "Pos.X == 1"))
	assert.Error(t, dump(world, "Pos.X =="))
}
