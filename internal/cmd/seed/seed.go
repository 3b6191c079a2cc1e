// Package seed parses seed CLI flags and runs fixture generation.
package seed

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/skein/internal/platform/cmd"
	"github.com/louisbranch/skein/internal/seed/generator"
)

// Config holds seed command configuration.
type Config struct {
	DBPath  string `env:"SKEIN_SOCIAL_DB_PATH" envDefault:"data/social.db"`
	Preset  string `env:"SKEIN_SEED_PRESET" envDefault:"demo"`
	Seed    int64
	Users   int
	Verbose bool
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database to seed")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "generation preset (demo, network-heavy, stress-test)")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed for reproducibility (0 = random)")
	fs.IntVar(&cfg.Users, "users", 0, "number of users to generate (0 = use preset default)")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := validatePreset(generator.Preset(cfg.Preset)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(context.Context) error {
		gen, err := generator.New(generator.Config{
			DBPath:  cfg.DBPath,
			Preset:  generator.Preset(cfg.Preset),
			Seed:    cfg.Seed,
			Users:   cfg.Users,
			Verbose: cfg.Verbose,
		})
		if err != nil {
			return err
		}
		defer gen.Close()
		return gen.Run(ctx)
	})
}

func validatePreset(preset generator.Preset) error {
	switch preset {
	case generator.PresetDemo, generator.PresetNetworkHeavy, generator.PresetStressTest:
		return nil
	}
	return fmt.Errorf("unknown preset %q (valid presets: demo, network-heavy, stress-test)", preset)
}
