// Command zecs runs a small particle simulation on the zecs runtime. It is a smoke test for
// the scheduler and a place to profile it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/TheBitDrifter/zecs"
)

type runFlags struct {
	configPath string
	ticks      uint64
	workers    int
	particles  int
	profile    string
	profileDir string
	dump       bool
	where      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "zecs",
		Short:        "Archetype ECS runtime demo",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the particle scene until every particle expires",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := zecs.LoadEngineConfig(flags.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ticks") {
				cfg.MaxTicks = flags.ticks
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = flags.workers
			}

			switch flags.profile {
			case "":
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(flags.profileDir), profile.NoShutdownHook).Stop()
			case "mem":
				defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(flags.profileDir), profile.NoShutdownHook).Stop()
			default:
				return eris.Errorf("unknown profile mode %q: must be 'cpu' or 'mem'", flags.profile)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to a TOML engine config")
	cmd.Flags().Uint64Var(&flags.ticks, "ticks", 0, "stop after this many ticks (0 runs until the scene exits)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "maximum systems running at once (0 uses GOMAXPROCS)")
	cmd.Flags().IntVar(&flags.particles, "particles", 1000, "number of particles to spawn")
	cmd.Flags().StringVar(&flags.profile, "profile", "", "profile the run: cpu or mem")
	cmd.Flags().StringVar(&flags.profileDir, "profile-dir", ".", "directory profiles are written to")
	cmd.Flags().BoolVar(&flags.dump, "dump", false, "print the surviving particles as JSON when the scene stops")
	cmd.Flags().StringVar(&flags.where, "where", "", "filter expression applied to --dump, e.g. 'Pos.X > 10'")
	return cmd
}

func run(ctx context.Context, cfg zecs.EngineConfig, flags runFlags) error {
	engine, err := zecs.NewEngine(cfg)
	if err != nil {
		return err
	}
	if err := registerParticleSystems(engine.Scheduler()); err != nil {
		return err
	}

	scene := &particleScene{count: flags.particles, logger: engine.World().Logger()}
	if err := engine.Run(ctx, scene); err != nil {
		return err
	}

	if flags.dump {
		return dump(engine.World(), flags.where)
	}
	return nil
}

func dump(world *zecs.World, where string) error {
	results, err := world.Search(zecs.SearchParam{
		Find:  []string{"Pos"},
		Match: zecs.MatchContains,
		Where: where,
	})
	if err != nil {
		return eris.Wrap(err, "failed to search world")
	}
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return eris.Wrap(err, "failed to encode search results")
	}
	fmt.Println(string(out))
	return nil
}
