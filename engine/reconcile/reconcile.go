// Package reconcile turns aggregated rate values into the publish
// payload: defaults and spreads applied, trends derived against the
// previous snapshot, history points keyed by local calendar date,
// and the notification decision made.
//
// The package never performs I/O; the previous snapshot is an
// explicit input and the payload is handed to the store collaborator
// by the caller.
package reconcile

import (
	"fmt"
	"time"

	"github.com/yemen-sarraf/sarraf/config"
	"github.com/yemen-sarraf/sarraf/engine/gold"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

const (
	// TimestampLayout is the published last_update format
	TimestampLayout = "2006-01-02 03:04 PM"

	// DateLayout keys daily history points
	DateLayout = "2006-01-02"
)

// localZone is the audience timezone (UTC+3, no DST)
var localZone = time.FixedZone("AST", 3*60*60)

// LocalTime converts the given instant to the audience timezone
func LocalTime(t time.Time) time.Time {
	return t.In(localZone)
}

// Series is one aggregated value with its presence flag;
// OK is false when the candidate pool was empty
type Series struct {
	Value int
	OK    bool
}

// RegionRates are the aggregated series for one region
type RegionRates struct {
	USDBuy  Series
	USDSell Series
	SARBuy  Series
	SARSell Series
}

// Previous is the relevant slice of the prior published snapshot
type Previous struct {
	USDBuy   map[types.Region]int
	OunceUSD float64
}

// Notification is the push decision and its rendered content
type Notification struct {
	Send  bool
	Topic string
	Title string
	Body  string
}

// Payload is everything a run publishes
type Payload struct {
	Rates        map[types.Region]*types.RateSnapshot
	Gold         *types.GoldSnapshot
	History      map[string]int
	Notification Notification
	Timestamp    string
}

// Build composes the publish payload for a full scheduled run.
// A nil derived gold means the gold computation was skipped for this
// run: rate values still publish, gold fields stay unchanged
func Build(
	in map[types.Region]RegionRates,
	prev Previous,
	derived *gold.Derived,
	now time.Time,
	rates config.Rates,
	notify config.Notify,
) *Payload {
	var (
		local     = LocalTime(now)
		timestamp = local.Format(TimestampLayout)
		date      = local.Format(DateLayout)
	)

	p := &Payload{
		Rates:     make(map[types.Region]*types.RateSnapshot, len(in)),
		History:   make(map[string]int),
		Timestamp: timestamp,
	}

	for _, region := range types.Regions() {
		snapshot := resolveRegion(region, in[region], rates)

		snapshot.Trend = sign(snapshot.USDBuy - prev.USDBuy[region])
		snapshot.LastUpdate = timestamp

		p.Rates[region] = snapshot

		p.History[historyPath(region, types.HistoryUSD, date)] = snapshot.USDBuy
		p.History[historyPath(region, types.HistorySAR, date)] = snapshot.SARBuy
	}

	if derived != nil {
		goldTrend := signFloat(derived.OunceUSD - prev.OunceUSD)

		p.Gold = &types.GoldSnapshot{
			GlobalOunceUSD: derived.OunceUSD,
			Sanaa:          goldPrices(derived.ByRegion[types.RegionSanaa], goldTrend, timestamp),
			Aden:           goldPrices(derived.ByRegion[types.RegionAden], goldTrend, timestamp),
		}

		p.History[historyPath(types.RegionSanaa, types.HistoryGold21, date)] = p.Gold.Sanaa.Gram21
		p.History[historyPath(types.RegionAden, types.HistoryGold21, date)] = p.Gold.Aden.Gram21
	}

	p.Notification = buildNotification(p.Rates, prev, notify)

	return p
}

// resolveRegion substitutes defaults for missing aggregator output
// and enforces the spread invariant as the final, authoritative step.
// A published sell is never allowed at or below its buy
func resolveRegion(
	region types.Region,
	in RegionRates,
	rates config.Rates,
) *types.RateSnapshot {
	var (
		usdSpread = rates.Spread(region, types.CurrencyUSD)
		sarSpread = rates.Spread(region, types.CurrencySAR)
	)

	usdBuy := in.USDBuy.Value
	if !in.USDBuy.OK {
		usdBuy = rates.USDDefault(region)
	}

	usdSell := in.USDSell.Value
	if !in.USDSell.OK {
		usdSell = usdBuy + usdSpread
	}

	sarBuy := in.SARBuy.Value
	if !in.SARBuy.OK {
		sarBuy = int(float64(usdBuy) / rates.SARRatio(region))
	}

	sarSell := in.SARSell.Value
	if !in.SARSell.OK {
		sarSell = sarBuy + sarSpread
	}

	// Final correction, regardless of where the sell came from
	if usdSell <= usdBuy {
		usdSell = usdBuy + usdSpread
	}

	if sarSell <= sarBuy {
		sarSell = sarBuy + sarSpread
	}

	return &types.RateSnapshot{
		USDBuy:  usdBuy,
		USDSell: usdSell,
		SARBuy:  sarBuy,
		SARSell: sarSell,
	}
}

// buildNotification applies the asymmetric per-region thresholds.
// The direction arrow derives from the Aden comparison only
func buildNotification(
	snapshots map[types.Region]*types.RateSnapshot,
	prev Previous,
	notify config.Notify,
) Notification {
	var (
		newSanaa = snapshots[types.RegionSanaa].USDBuy
		newAden  = snapshots[types.RegionAden].USDBuy

		oldSanaa = prev.USDBuy[types.RegionSanaa]
		oldAden  = prev.USDBuy[types.RegionAden]
	)

	send := abs(newAden-oldAden) > notify.AdenDelta ||
		abs(newSanaa-oldSanaa) > notify.SanaaDelta

	arrow := "🔻"
	if newAden > oldAden {
		arrow = "🔺"
	}

	return Notification{
		Send:  send,
		Topic: notify.Topic,
		Title: fmt.Sprintf("%s تحديث أسعار الصرف", arrow),
		Body:  fmt.Sprintf("صنعاء: %d | عدن: %d", newSanaa, newAden),
	}
}

// Updates flattens the payload into the store's path -> value map.
// The single store write built from it is the run's commit point
func (p *Payload) Updates() map[string]any {
	updates := make(map[string]any)

	updates["rates/last_update"] = p.Timestamp

	for region, snapshot := range p.Rates {
		prefix := "rates/" + region.String()

		updates[prefix+"/usd_buy"] = snapshot.USDBuy
		updates[prefix+"/usd_sell"] = snapshot.USDSell
		updates[prefix+"/sar_buy"] = snapshot.SARBuy
		updates[prefix+"/sar_sell"] = snapshot.SARSell
		updates[prefix+"/trend"] = snapshot.Trend
		updates[prefix+"/last_update"] = snapshot.LastUpdate
	}

	if p.Gold != nil {
		updates["gold/global_ounce_usd"] = p.Gold.GlobalOunceUSD

		for region, prices := range map[types.Region]types.GoldPrices{
			types.RegionSanaa: p.Gold.Sanaa,
			types.RegionAden:  p.Gold.Aden,
		} {
			prefix := "gold/" + region.String()

			updates[prefix+"/gram_24"] = prices.Gram24
			updates[prefix+"/gram_21"] = prices.Gram21
			updates[prefix+"/gunaih"] = prices.Gunaih
			updates[prefix+"/trend"] = prices.Trend
			updates[prefix+"/last_update"] = prices.LastUpdate
		}
	}

	for path, value := range p.History {
		updates[path] = value
	}

	return updates
}

func goldPrices(grams gold.Grams, trend int, timestamp string) types.GoldPrices {
	return types.GoldPrices{
		Gram24:     grams.Gram24,
		Gram21:     grams.Gram21,
		Gunaih:     grams.Gunaih,
		Trend:      trend,
		LastUpdate: timestamp,
	}
}

func historyPath(region types.Region, series types.HistorySeries, date string) string {
	return "history/" + region.String() + "/" + series.String() + "/" + date
}

// sign reports the direction of change: -1, 0 or 1
func sign(delta int) int {
	switch {
	case delta > 0:
		return 1
	case delta < 0:
		return -1
	default:
		return 0
	}
}

func signFloat(delta float64) int {
	switch {
	case delta > 0:
		return 1
	case delta < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
