package update

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/yemen-sarraf/sarraf/cmd/backend"
	"github.com/yemen-sarraf/sarraf/cmd/env"
	"github.com/yemen-sarraf/sarraf/engine"
	"github.com/yemen-sarraf/sarraf/notify"
)

type updateRedisCfg struct {
	rootCfg *updateCfg
}

// newUpdateRedisCmd creates the update redis command
func newUpdateRedisCmd(rootCfg *updateCfg) *ffcli.Command {
	cfg := &updateRedisCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("redis", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "redis",
		ShortUsage: "update redis [flags]",
		LongHelp:   "Runs one batch rate update against a Redis datastore",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *updateRedisCfg) exec(ctx context.Context, _ []string) error {
	if err := c.rootCfg.loadConfig(); err != nil {
		return fmt.Errorf("unable to read service config, %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	store, err := backend.RedisStore()
	if err != nil {
		return fmt.Errorf("unable to create redis store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(
				"unable to gracefully close redis connection",
				"err", err,
			)
		}
	}()

	e, err := engine.New(
		store,
		engine.WithLogger(logger),
		engine.WithConfig(c.rootCfg.config),
		engine.WithNotifier(notify.NewLogNotifier(logger)),
	)
	if err != nil {
		return fmt.Errorf("unable to create engine, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	return e.Update(runCtx)
}
