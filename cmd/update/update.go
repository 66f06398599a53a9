package update

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/yemen-sarraf/sarraf/cmd/env"
	"github.com/yemen-sarraf/sarraf/config"
)

// updateCfg wraps the update configuration
type updateCfg struct {
	config *config.Config

	configPath string
}

// NewUpdateCmd creates the update subcommand
func NewUpdateCmd() *ffcli.Command {
	cfg := &updateCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("update", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "update",
		ShortUsage: "update <subcommand> [flags]",
		LongHelp:   "Runs one batch rate update against the chosen datastore",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newUpdateFirebaseCmd(cfg),
		newUpdateSQLCmd(cfg),
		newUpdateRedisCmd(cfg),
		newUpdateMemoryCmd(cfg),
	}

	return cmd
}

func (c *updateCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the service TOML configuration, if any",
	)
}

// loadConfig reads the TOML configuration, if a path was given
func (c *updateCfg) loadConfig() error {
	if c.configPath == "" {
		return nil
	}

	cfg, err := config.Read(c.configPath)
	if err != nil {
		return err
	}

	c.config = cfg

	return nil
}
