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
)

type updateFirebaseCfg struct {
	rootCfg *updateCfg
}

// newUpdateFirebaseCmd creates the update firebase command
func newUpdateFirebaseCmd(rootCfg *updateCfg) *ffcli.Command {
	cfg := &updateFirebaseCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("firebase", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "firebase",
		ShortUsage: "update firebase [flags]",
		LongHelp:   "Runs one batch rate update against the Firebase Realtime Database, with FCM notifications",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *updateFirebaseCfg) exec(ctx context.Context, _ []string) error {
	if err := c.rootCfg.loadConfig(); err != nil {
		return fmt.Errorf("unable to read service config, %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	store, err := backend.FirebaseStore(ctx)
	if err != nil {
		return fmt.Errorf("unable to create firebase store: %w", err)
	}

	notifier, err := backend.FCMNotifier(ctx)
	if err != nil {
		return fmt.Errorf("unable to create FCM notifier: %w", err)
	}

	e, err := engine.New(
		store,
		engine.WithLogger(logger),
		engine.WithConfig(c.rootCfg.config),
		engine.WithNotifier(notifier),
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
