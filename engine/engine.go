// Package engine orchestrates one batch rate update: concurrent
// page fetches, candidate extraction, aggregation, gold derivation,
// reconciliation against the previous snapshot, and the single
// store write that commits the run.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/yemen-sarraf/sarraf/config"
	"github.com/yemen-sarraf/sarraf/engine/aggregate"
	"github.com/yemen-sarraf/sarraf/engine/extract"
	"github.com/yemen-sarraf/sarraf/engine/fetch"
	"github.com/yemen-sarraf/sarraf/engine/gold"
	"github.com/yemen-sarraf/sarraf/engine/reconcile"
	"github.com/yemen-sarraf/sarraf/notify"
	"github.com/yemen-sarraf/sarraf/storage"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Engine is the rate aggregation engine
type Engine struct {
	store    storage.Store
	notifier notify.Notifier
	ounce    gold.OunceProvider
	cfg      *config.Config
	logger   *slog.Logger
}

type Option func(e *Engine)

// WithLogger specifies the logger for the engine
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConfig specifies the config for the engine
func WithConfig(c *config.Config) Option {
	return func(e *Engine) {
		e.cfg = c
	}
}

// WithNotifier specifies the notification channel
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithOunceProvider specifies the gold market-data provider
func WithOunceProvider(p gold.OunceProvider) Option {
	return func(e *Engine) {
		e.ounce = p
	}
}

// New creates a new engine instance
func New(store storage.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:  store,
		cfg:    config.DefaultConfig(),
		logger: noopLogger,
	}

	// Apply the options
	for _, opt := range opts {
		opt(e)
	}

	// Validate the configuration
	if err := config.ValidateConfig(e.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	if e.notifier == nil {
		e.notifier = notify.NewLogNotifier(e.logger)
	}

	if e.ounce == nil {
		e.ounce = gold.NewYahooProvider(e.fetchTimeout())
	}

	return e, nil
}

// Update executes one full scheduled run. The store write is the
// commit point: its failure fails the run; a notification failure
// after it is logged and swallowed
func (e *Engine) Update(ctx context.Context) error {
	var (
		logger = e.logger.With("run", xid.New().String())
		now    = time.Now().UTC()
	)

	// Gather candidates from every source
	pool := e.buildPool(ctx, logger)

	// Reduce each series independently
	aggregated := e.aggregatePool(pool, logger)

	// Read the previous snapshot once, at run start
	prev, err := e.previousSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("unable to read previous snapshot: %w", err)
	}

	// Compose the payload; gold is best-effort
	payload := reconcile.Build(
		aggregated,
		prev,
		e.deriveGold(ctx, aggregated, logger),
		now,
		e.cfg.Rates,
		e.cfg.Notify,
	)

	// Commit point
	if err := e.store.Update(ctx, payload.Updates()); err != nil {
		return fmt.Errorf("unable to write snapshot: %w", err)
	}

	logger.Info(
		"snapshot published",
		"sanaa_usd_buy", payload.Rates[types.RegionSanaa].USDBuy,
		"aden_usd_buy", payload.Rates[types.RegionAden].USDBuy,
		"timestamp", payload.Timestamp,
	)

	e.sendNotification(ctx, payload.Notification, logger)

	return nil
}

// buildPool fetches all sources concurrently, then folds the
// extracted observations into the candidate pool single-threaded
func (e *Engine) buildPool(ctx context.Context, logger *slog.Logger) *types.CandidatePool {
	fetcher := fetch.New(
		e.fetchTimeout(),
		fetch.WithLogger(logger),
	)

	pages := fetcher.Pages(ctx, e.cfg.Sources)

	pool := types.NewCandidatePool()

	for _, page := range pages {
		if page.Body == "" {
			continue
		}

		extracted := extract.Page(page.Body, e.cfg.Extract)

		if len(extracted.Found) > 0 {
			logger.Info(
				"source candidates",
				"url", page.URL,
				"found", extracted.Found,
			)
		}

		for _, obs := range extracted.Observations {
			pool.Add(obs)
		}
	}

	return pool
}

// aggregatePool reduces all 8 (region, currency, side) series
func (e *Engine) aggregatePool(
	pool *types.CandidatePool,
	logger *slog.Logger,
) map[types.Region]reconcile.RegionRates {
	reduce := func(region types.Region, currency types.Currency, side types.Side) reconcile.Series {
		values := pool.Values(region, currency, side)

		result, ok := aggregate.Reduce(values, e.cfg.MedianBand)
		if !ok {
			logger.Warn(
				"no candidates for series",
				"region", region,
				"currency", currency,
				"side", side,
			)

			return reconcile.Series{}
		}

		logger.Info(
			"series aggregated",
			"region", region,
			"currency", currency,
			"side", side,
			"candidates", values,
			"result", result,
		)

		return reconcile.Series{
			Value: result,
			OK:    true,
		}
	}

	out := make(map[types.Region]reconcile.RegionRates, 2)

	for _, region := range types.Regions() {
		out[region] = reconcile.RegionRates{
			USDBuy:  reduce(region, types.CurrencyUSD, types.SideBuy),
			USDSell: reduce(region, types.CurrencyUSD, types.SideSell),
			SARBuy:  reduce(region, types.CurrencySAR, types.SideBuy),
			SARSell: reduce(region, types.CurrencySAR, types.SideSell),
		}
	}

	return out
}

// previousSnapshot reads the prior published values, substituting
// configured defaults when the store holds nothing yet
func (e *Engine) previousSnapshot(ctx context.Context) (reconcile.Previous, error) {
	prev := reconcile.Previous{
		USDBuy: map[types.Region]int{
			types.RegionSanaa: e.cfg.Rates.SanaaUSDDefault,
			types.RegionAden:  e.cfg.Rates.AdenUSDDefault,
		},
		OunceUSD: e.cfg.Gold.PreviousOunceUSD,
	}

	for _, region := range types.Regions() {
		value := prev.USDBuy[region]

		path := "rates/" + region.String() + "/usd_buy"
		if err := e.store.Get(ctx, path, &value); err != nil {
			return reconcile.Previous{}, err
		}

		prev.USDBuy[region] = value
	}

	if err := e.store.Get(ctx, "gold/global_ounce_usd", &prev.OunceUSD); err != nil {
		return reconcile.Previous{}, err
	}

	return prev, nil
}

// deriveGold fetches the live ounce price and derives the gram
// prices from the final USD buy rates. Market-data unavailability
// degrades to the configured fallback; with no usable price at all
// the gold computation is skipped for this run
func (e *Engine) deriveGold(
	ctx context.Context,
	aggregated map[types.Region]reconcile.RegionRates,
	logger *slog.Logger,
) *gold.Derived {
	ounce, err := e.ounce.OuncePrice(ctx)
	if err != nil {
		logger.Warn(
			"live ounce price unavailable, using fallback",
			"fallback", e.cfg.Gold.FallbackOunceUSD,
			"err", err,
		)

		ounce = e.cfg.Gold.FallbackOunceUSD
	}

	usdRates := make(map[types.Region]int, 2)

	for _, region := range types.Regions() {
		usdBuy := aggregated[region].USDBuy

		if usdBuy.OK {
			usdRates[region] = usdBuy.Value
		} else {
			usdRates[region] = e.cfg.Rates.USDDefault(region)
		}
	}

	derived, err := gold.Derive(ounce, usdRates)
	if err != nil {
		logger.Warn(
			"gold computation skipped",
			"ounce", ounce,
			"err", err,
		)

		return nil
	}

	return derived
}

// sendNotification is fire and forget past the commit point
func (e *Engine) sendNotification(
	ctx context.Context,
	n reconcile.Notification,
	logger *slog.Logger,
) {
	if !n.Send {
		return
	}

	if err := e.notifier.Publish(ctx, n.Topic, n.Title, n.Body); err != nil {
		logger.Error(
			"unable to publish notification",
			"topic", n.Topic,
			"err", err,
		)

		return
	}

	logger.Info(
		"notification published",
		"topic", n.Topic,
		"title", n.Title,
	)
}

func (e *Engine) fetchTimeout() time.Duration {
	return time.Duration(e.cfg.FetchTimeoutSeconds) * time.Second
}
