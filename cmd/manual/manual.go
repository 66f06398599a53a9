// Package manual implements the operator override entry point
package manual

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/yemen-sarraf/sarraf/cmd/backend"
	"github.com/yemen-sarraf/sarraf/cmd/env"
	"github.com/yemen-sarraf/sarraf/config"
	"github.com/yemen-sarraf/sarraf/engine"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

var errUsage = errors.New(
	"usage: manual <region> <usd_buy> <usd_sell> <sar_buy> <sar_sell> <notify>",
)

// manualCfg wraps the manual override configuration
type manualCfg struct {
	config *config.Config

	configPath string
}

// NewManualCmd creates the manual subcommand
func NewManualCmd() *ffcli.Command {
	cfg := &manualCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("manual", flag.ExitOnError)

	fs.StringVar(
		&cfg.configPath,
		"config",
		"",
		"the path to the service TOML configuration, if any",
	)

	return &ffcli.Command{
		Name:       "manual",
		ShortUsage: "manual [flags] <region> <usd_buy> <usd_sell> <sar_buy> <sar_sell> <notify>",
		LongHelp:   "Manually overrides the published rates for one region, e.g. manual sanaa 535 538 142 143 true",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *manualCfg) exec(ctx context.Context, args []string) error {
	input, err := parseArgs(args)
	if err != nil {
		return err
	}

	if c.configPath != "" {
		cfg, err := config.Read(c.configPath)
		if err != nil {
			return fmt.Errorf("unable to read service config, %w", err)
		}

		c.config = cfg
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
		engine.WithConfig(c.config),
		engine.WithNotifier(notifier),
	)
	if err != nil {
		return fmt.Errorf("unable to create engine, %w", err)
	}

	return e.Manual(ctx, input)
}

// parseArgs parses the positional override arguments
func parseArgs(args []string) (engine.ManualInput, error) {
	if len(args) < 6 {
		return engine.ManualInput{}, errUsage
	}

	prices := make([]int, 4)

	for i, raw := range args[1:5] {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return engine.ManualInput{}, fmt.Errorf("invalid price %q: %w", raw, err)
		}

		prices[i] = value
	}

	return engine.ManualInput{
		Region:  types.Region(strings.ToLower(args[0])),
		USDBuy:  prices[0],
		USDSell: prices[1],
		SARBuy:  prices[2],
		SARSell: prices[3],
		Notify:  strings.EqualFold(args[5], "true"),
	}, nil
}
