package update

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/yemen-sarraf/sarraf/cmd/env"
	"github.com/yemen-sarraf/sarraf/engine"
	"github.com/yemen-sarraf/sarraf/notify"
	"github.com/yemen-sarraf/sarraf/storage/memory"
)

type updateMemoryCfg struct {
	rootCfg *updateCfg
}

// newUpdateMemoryCmd creates the update memory command.
// Nothing is persisted and no notification leaves the process,
// making this the dry-run mode for auditing extraction
func newUpdateMemoryCmd(rootCfg *updateCfg) *ffcli.Command {
	cfg := &updateMemoryCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("memory", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "memory",
		ShortUsage: "update memory [flags]",
		LongHelp:   "Runs one batch rate update against an in-memory datastore (dry run)",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *updateMemoryCfg) exec(ctx context.Context, _ []string) error {
	if err := c.rootCfg.loadConfig(); err != nil {
		return fmt.Errorf("unable to read service config, %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	e, err := engine.New(
		memory.NewStorage(),
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
