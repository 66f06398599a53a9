package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/yemen-sarraf/sarraf/engine/gold"
	"github.com/yemen-sarraf/sarraf/engine/reconcile"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

var (
	ErrInvalidRegion   = errors.New("region must be sanaa or aden")
	ErrNonPositiveRate = errors.New("all prices must be greater than zero")
	ErrInvertedSpread  = errors.New("sell price must be greater than buy price")
)

// ManualInput is an operator-supplied rate override for one region
type ManualInput struct {
	Region  types.Region
	USDBuy  int
	USDSell int
	SARBuy  int
	SARSell int
	Notify  bool
}

// Validate checks the override before anything is written
func (in ManualInput) Validate() error {
	if in.Region != types.RegionSanaa && in.Region != types.RegionAden {
		return ErrInvalidRegion
	}

	if in.USDBuy <= 0 || in.USDSell <= 0 || in.SARBuy <= 0 || in.SARSell <= 0 {
		return ErrNonPositiveRate
	}

	if in.USDSell <= in.USDBuy || in.SARSell <= in.SARBuy {
		return ErrInvertedSpread
	}

	return nil
}

// Manual performs a manual override for a single region, bypassing
// the fetch, extraction and aggregation stages entirely. The trend,
// gold and persistence steps are the same as a scheduled run's, but
// scoped to the one region, and no history point is written
func (e *Engine) Manual(ctx context.Context, in ManualInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	var (
		logger = e.logger.With("run", xid.New().String(), "manual", true)
		now    = time.Now().UTC()
	)

	// The trend baseline defaults to the new value itself, so a
	// first-ever write publishes a flat trend
	prevUSDBuy := in.USDBuy

	path := "rates/" + in.Region.String() + "/usd_buy"
	if err := e.store.Get(ctx, path, &prevUSDBuy); err != nil {
		return fmt.Errorf("unable to read previous snapshot: %w", err)
	}

	payload := reconcile.BuildManual(
		in.Region,
		reconcile.ManualRates{
			USDBuy:  in.USDBuy,
			USDSell: in.USDSell,
			SARBuy:  in.SARBuy,
			SARSell: in.SARSell,
		},
		prevUSDBuy,
		e.deriveManualGold(ctx, in, logger),
		now,
		e.cfg.Notify.Topic,
	)

	payload.Notification.Send = in.Notify

	// Commit point
	if err := e.store.Update(ctx, payload.Updates()); err != nil {
		return fmt.Errorf("unable to write snapshot: %w", err)
	}

	logger.Info(
		"manual snapshot published",
		"region", in.Region,
		"usd_buy", in.USDBuy,
		"trend", payload.Snapshot.Trend,
	)

	e.sendNotification(ctx, payload.Notification, logger)

	return nil
}

// deriveManualGold recomputes gold for the overridden region only
func (e *Engine) deriveManualGold(
	ctx context.Context,
	in ManualInput,
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

	derived, err := gold.Derive(ounce, map[types.Region]int{
		in.Region: in.USDBuy,
	})
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
