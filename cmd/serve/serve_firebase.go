package serve

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
	"golang.org/x/sync/errgroup"

	"github.com/yemen-sarraf/sarraf/cmd/backend"
	"github.com/yemen-sarraf/sarraf/cmd/env"
	"github.com/yemen-sarraf/sarraf/server"
)

type serveFirebaseCfg struct {
	rootCfg *serveCfg
}

// newServeFirebaseCmd creates the serve firebase command
func newServeFirebaseCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveFirebaseCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("firebase", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "firebase",
		ShortUsage: "serve firebase [flags]",
		LongHelp:   "Serves the read API over the Firebase Realtime Database",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveFirebaseCfg) exec(ctx context.Context, _ []string) error {
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

	s, err := server.New(
		store,
		server.WithLogger(logger),
		server.WithConfig(c.rootCfg.config),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return s.Serve(gCtx)
	})

	return group.Wait()
}
