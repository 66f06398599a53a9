package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yemen-sarraf/sarraf/config"
	"github.com/yemen-sarraf/sarraf/engine/gold"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

// testNow is 21:30 UTC, which is half past midnight the next day in
// the audience timezone; it pins the date rollover behaviour
var testNow = time.Date(2026, time.March, 14, 21, 30, 0, 0, time.UTC)

func fullInput() map[types.Region]RegionRates {
	return map[types.Region]RegionRates{
		types.RegionSanaa: {
			USDBuy:  Series{Value: 535, OK: true},
			USDSell: Series{Value: 538, OK: true},
			SARBuy:  Series{Value: 141, OK: true},
			SARSell: Series{Value: 142, OK: true},
		},
		types.RegionAden: {
			USDBuy:  Series{Value: 1630, OK: true},
			USDSell: Series{Value: 1642, OK: true},
			SARBuy:  Series{Value: 426, OK: true},
			SARSell: Series{Value: 430, OK: true},
		},
	}
}

func testPrevious() Previous {
	return Previous{
		USDBuy: map[types.Region]int{
			types.RegionSanaa: 535,
			types.RegionAden:  1630,
		},
		OunceUSD: 4189.60,
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	derived, err := gold.Derive(4200.00, map[types.Region]int{
		types.RegionSanaa: 535,
		types.RegionAden:  1630,
	})
	require.NoError(t, err)

	p := Build(fullInput(), testPrevious(), derived, testNow, cfg.Rates, cfg.Notify)

	assert.Equal(t, "2026-03-15 12:30 AM", p.Timestamp)

	sanaa := p.Rates[types.RegionSanaa]
	require.NotNil(t, sanaa)

	assert.Equal(t, 535, sanaa.USDBuy)
	assert.Equal(t, 538, sanaa.USDSell)
	assert.Equal(t, 141, sanaa.SARBuy)
	assert.Equal(t, 142, sanaa.SARSell)
	assert.Zero(t, sanaa.Trend)
	assert.Equal(t, p.Timestamp, sanaa.LastUpdate)

	aden := p.Rates[types.RegionAden]
	require.NotNil(t, aden)
	assert.Equal(t, 1630, aden.USDBuy)

	require.NotNil(t, p.Gold)
	assert.Equal(t, 4200.00, p.Gold.GlobalOunceUSD)
	assert.Equal(t, 1, p.Gold.Sanaa.Trend)
	assert.Equal(t, 1, p.Gold.Aden.Trend)

	// History points are keyed by the rolled-over local date
	assert.Equal(t, 535, p.History["history/sanaa/usd/2026-03-15"])
	assert.Equal(t, 141, p.History["history/sanaa/sar/2026-03-15"])
	assert.Equal(t, 1630, p.History["history/aden/usd/2026-03-15"])
	assert.Equal(t, 426, p.History["history/aden/sar/2026-03-15"])
	assert.Equal(t, p.Gold.Sanaa.Gram21, p.History["history/sanaa/gold21/2026-03-15"])
	assert.Equal(t, p.Gold.Aden.Gram21, p.History["history/aden/gold21/2026-03-15"])
}

func TestBuild_DefaultsForEmptySeries(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	p := Build(
		map[types.Region]RegionRates{},
		testPrevious(),
		nil,
		testNow,
		cfg.Rates,
		cfg.Notify,
	)

	sanaa := p.Rates[types.RegionSanaa]
	require.NotNil(t, sanaa)

	assert.Equal(t, 535, sanaa.USDBuy)
	assert.Equal(t, 538, sanaa.USDSell)
	assert.Equal(t, 141, sanaa.SARBuy) // 535 / 3.78, truncated
	assert.Equal(t, 142, sanaa.SARSell)

	aden := p.Rates[types.RegionAden]
	require.NotNil(t, aden)

	assert.Equal(t, 1630, aden.USDBuy)
	assert.Equal(t, 1642, aden.USDSell)
	assert.Equal(t, 426, aden.SARBuy) // 1630 / 3.82, truncated
	assert.Equal(t, 430, aden.SARSell)
}

func TestBuild_SellCorrection(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	in := fullInput()

	sanaa := in[types.RegionSanaa]
	sanaa.USDSell = Series{Value: 535, OK: true} // equal to buy
	sanaa.SARSell = Series{Value: 139, OK: true} // below buy
	in[types.RegionSanaa] = sanaa

	p := Build(in, testPrevious(), nil, testNow, cfg.Rates, cfg.Notify)

	got := p.Rates[types.RegionSanaa]

	assert.Equal(t, 538, got.USDSell)
	assert.Equal(t, 142, got.SARSell)
}

func TestBuild_Trend(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		buy  int
		want int
	}{
		{name: "rising", buy: 540, want: 1},
		{name: "falling", buy: 530, want: -1},
		{name: "flat", buy: 535, want: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			in := fullInput()

			sanaa := in[types.RegionSanaa]
			sanaa.USDBuy = Series{Value: test.buy, OK: true}
			in[types.RegionSanaa] = sanaa

			p := Build(in, testPrevious(), nil, testNow, cfg.Rates, cfg.Notify)

			assert.Equal(t, test.want, p.Rates[types.RegionSanaa].Trend)
		})
	}
}

func TestBuild_Notification(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	tests := []struct {
		name     string
		sanaaBuy int
		adenBuy  int
		send     bool
		arrow    string
	}{
		{name: "both unchanged", sanaaBuy: 535, adenBuy: 1630, send: false, arrow: "🔻"},
		{name: "aden at threshold", sanaaBuy: 535, adenBuy: 1632, send: false, arrow: "🔺"},
		{name: "aden above threshold", sanaaBuy: 535, adenBuy: 1633, send: true, arrow: "🔺"},
		{name: "aden drops", sanaaBuy: 535, adenBuy: 1627, send: true, arrow: "🔻"},
		{name: "sanaa at threshold", sanaaBuy: 536, adenBuy: 1630, send: false, arrow: "🔻"},
		{name: "sanaa above threshold", sanaaBuy: 537, adenBuy: 1630, send: true, arrow: "🔻"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			in := fullInput()

			sanaa := in[types.RegionSanaa]
			sanaa.USDBuy = Series{Value: test.sanaaBuy, OK: true}
			in[types.RegionSanaa] = sanaa

			aden := in[types.RegionAden]
			aden.USDBuy = Series{Value: test.adenBuy, OK: true}
			in[types.RegionAden] = aden

			p := Build(in, testPrevious(), nil, testNow, cfg.Rates, cfg.Notify)

			assert.Equal(t, test.send, p.Notification.Send)
			assert.Equal(t, cfg.Notify.Topic, p.Notification.Topic)
			assert.Contains(t, p.Notification.Title, test.arrow)
		})
	}
}

func TestPayloadUpdates(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	derived, err := gold.Derive(4189.60, map[types.Region]int{
		types.RegionSanaa: 535,
		types.RegionAden:  1630,
	})
	require.NoError(t, err)

	p := Build(fullInput(), testPrevious(), derived, testNow, cfg.Rates, cfg.Notify)

	updates := p.Updates()

	assert.Equal(t, p.Timestamp, updates["rates/last_update"])

	assert.Equal(t, 535, updates["rates/sanaa/usd_buy"])
	assert.Equal(t, 538, updates["rates/sanaa/usd_sell"])
	assert.Equal(t, 1630, updates["rates/aden/usd_buy"])
	assert.Equal(t, 0, updates["rates/sanaa/trend"])

	assert.Equal(t, 4189.60, updates["gold/global_ounce_usd"])
	assert.Equal(t, 63000, updates["gold/sanaa/gram_21"])

	assert.Equal(t, 535, updates["history/sanaa/usd/2026-03-15"])
}

func TestPayloadUpdates_NoGold(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	p := Build(fullInput(), testPrevious(), nil, testNow, cfg.Rates, cfg.Notify)

	updates := p.Updates()

	assert.NotContains(t, updates, "gold/global_ounce_usd")
	assert.NotContains(t, updates, "gold/sanaa/gram_21")
	assert.NotContains(t, updates, "history/sanaa/gold21/2026-03-15")

	// Rate values still publish when the gold computation is skipped
	assert.Contains(t, updates, "rates/sanaa/usd_buy")
}

func TestBuildManual(t *testing.T) {
	t.Parallel()

	derived, err := gold.Derive(4189.60, map[types.Region]int{
		types.RegionAden: 1650,
	})
	require.NoError(t, err)

	p := BuildManual(
		types.RegionAden,
		ManualRates{USDBuy: 1650, USDSell: 1662, SARBuy: 430, SARSell: 434},
		1630,
		derived,
		testNow,
		"rates",
	)

	assert.Equal(t, types.RegionAden, p.Region)
	assert.Equal(t, 1, p.Snapshot.Trend)
	assert.Equal(t, "2026-03-15 12:30 AM", p.Timestamp)

	// Sending is the operator's decision, never made here
	assert.False(t, p.Notification.Send)
	assert.Contains(t, p.Notification.Title, "🔺")
	assert.Contains(t, p.Notification.Title, "عدن")
	assert.Contains(t, p.Notification.Body, "1650 - 1662")
	assert.Contains(t, p.Notification.Body, "430 - 434")

	require.NotNil(t, p.Gold)
	assert.Equal(t, derived.ByRegion[types.RegionAden], p.Gold.Grams)
}

func TestBuildManual_Arrows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		usdBuy  int
		prevBuy int
		arrow   string
	}{
		{name: "rising", usdBuy: 540, prevBuy: 535, arrow: "🔺"},
		{name: "falling", usdBuy: 530, prevBuy: 535, arrow: "🔻"},
		{name: "flat", usdBuy: 535, prevBuy: 535, arrow: "➖"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			p := BuildManual(
				types.RegionSanaa,
				ManualRates{USDBuy: test.usdBuy, USDSell: test.usdBuy + 3, SARBuy: 141, SARSell: 142},
				test.prevBuy,
				nil,
				testNow,
				"rates",
			)

			assert.Contains(t, p.Notification.Title, test.arrow)
			assert.Contains(t, p.Notification.Title, "صنعاء")
		})
	}
}

func TestManualPayloadUpdates(t *testing.T) {
	t.Parallel()

	derived, err := gold.Derive(4189.60, map[types.Region]int{
		types.RegionSanaa: 535,
	})
	require.NoError(t, err)

	p := BuildManual(
		types.RegionSanaa,
		ManualRates{USDBuy: 535, USDSell: 538, SARBuy: 141, SARSell: 142},
		535,
		derived,
		testNow,
		"rates",
	)

	updates := p.Updates()

	assert.Equal(t, 535, updates["rates/sanaa/usd_buy"])
	assert.Equal(t, p.Timestamp, updates["rates/last_update"])

	// Only the overridden region is touched
	for path := range updates {
		assert.NotContains(t, path, "aden")
	}

	// Manual runs never append history and never publish a gold trend
	for path := range updates {
		assert.NotContains(t, path, "history/")
	}

	assert.Contains(t, updates, "gold/sanaa/gram_24")
	assert.NotContains(t, updates, "gold/sanaa/trend")
}
