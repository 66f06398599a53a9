package reconcile

import (
	"fmt"
	"time"

	"github.com/yemen-sarraf/sarraf/engine/gold"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

// ManualRates are operator-supplied prices for one region
type ManualRates struct {
	USDBuy  int
	USDSell int
	SARBuy  int
	SARSell int
}

// ManualGold is the gold update attached to a manual override;
// only the overridden region's grams are touched
type ManualGold struct {
	OunceUSD float64
	Grams    gold.Grams
}

// ManualPayload is the publish payload of a manual override run.
// It covers a single region, never writes a history point, and
// leaves the other region's state untouched
type ManualPayload struct {
	Region       types.Region
	Snapshot     *types.RateSnapshot
	Gold         *ManualGold
	Notification Notification
	Timestamp    string
}

// BuildManual composes the payload for a manual override of one
// region. The trend derives from the previous USD buy of the same
// region; whether the notification is sent is the operator's call,
// so Notification.Send is left false here
func BuildManual(
	region types.Region,
	rates ManualRates,
	prevUSDBuy int,
	derived *gold.Derived,
	now time.Time,
	topic string,
) *ManualPayload {
	timestamp := LocalTime(now).Format(TimestampLayout)

	trend := sign(rates.USDBuy - prevUSDBuy)

	p := &ManualPayload{
		Region: region,
		Snapshot: &types.RateSnapshot{
			USDBuy:     rates.USDBuy,
			USDSell:    rates.USDSell,
			SARBuy:     rates.SARBuy,
			SARSell:    rates.SARSell,
			Trend:      trend,
			LastUpdate: timestamp,
		},
		Timestamp: timestamp,
	}

	if derived != nil {
		p.Gold = &ManualGold{
			OunceUSD: derived.OunceUSD,
			Grams:    derived.ByRegion[region],
		}
	}

	arrow := "➖"

	switch trend {
	case 1:
		arrow = "🔺"
	case -1:
		arrow = "🔻"
	}

	regionName := "عدن"
	if region == types.RegionSanaa {
		regionName = "صنعاء"
	}

	p.Notification = Notification{
		Topic: topic,
		Title: fmt.Sprintf("%s تحديث أسعار %s", arrow, regionName),
		Body: fmt.Sprintf(
			"🇺🇸 دولار: %d - %d\n🇸🇦 سعودي: %d - %d",
			rates.USDBuy, rates.USDSell,
			rates.SARBuy, rates.SARSell,
		),
	}

	return p
}

// Updates flattens the manual payload into the store's path map
func (p *ManualPayload) Updates() map[string]any {
	prefix := "rates/" + p.Region.String()

	updates := map[string]any{
		"rates/last_update":     p.Timestamp,
		prefix + "/usd_buy":     p.Snapshot.USDBuy,
		prefix + "/usd_sell":    p.Snapshot.USDSell,
		prefix + "/sar_buy":     p.Snapshot.SARBuy,
		prefix + "/sar_sell":    p.Snapshot.SARSell,
		prefix + "/trend":       p.Snapshot.Trend,
		prefix + "/last_update": p.Snapshot.LastUpdate,
	}

	if p.Gold != nil {
		goldPrefix := "gold/" + p.Region.String()

		updates["gold/global_ounce_usd"] = p.Gold.OunceUSD
		updates[goldPrefix+"/gram_24"] = p.Gold.Grams.Gram24
		updates[goldPrefix+"/gram_21"] = p.Gold.Grams.Gram21
		updates[goldPrefix+"/gunaih"] = p.Gold.Grams.Gunaih
		updates[goldPrefix+"/last_update"] = p.Timestamp
	}

	return updates
}
