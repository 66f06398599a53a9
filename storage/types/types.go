package types

// Region is a price zone with its own rate bands and spreads
type Region string

const (
	RegionSanaa Region = "sanaa"
	RegionAden  Region = "aden"
)

func (r Region) String() string {
	return string(r)
}

// Regions lists all known price zones, in publish order
func Regions() []Region {
	return []Region{RegionSanaa, RegionAden}
}

// Currency is a quoted currency against the Yemeni rial
type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencySAR Currency = "sar"
)

func (c Currency) String() string {
	return string(c)
}

// Currencies lists all tracked currencies
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencySAR}
}

// Side is the quotation side of a currency pair
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) String() string {
	return string(s)
}

// Observation is one raw (buy, sell) reading extracted
// from a single source block. Sell is 0 when unknown
type Observation struct {
	Region   Region
	Currency Currency
	Buy      int
	Sell     int
}

// Series identifies one pooled value stream for aggregation
type Series struct {
	Region   Region
	Currency Currency
	Side     Side
}

// CandidatePool holds the raw values gathered across all sources
// for a single run. It is built once, consumed once, never persisted
type CandidatePool struct {
	values map[Series][]int
}

// NewCandidatePool creates an empty candidate pool
func NewCandidatePool() *CandidatePool {
	return &CandidatePool{
		values: make(map[Series][]int),
	}
}

// Add pools the observation's buy value, and its sell value only
// when the sell is strictly greater than the observation's own buy.
// Swapped or bogus sell quotes must never corrupt the sell pool
func (p *CandidatePool) Add(o Observation) {
	buySeries := Series{
		Region:   o.Region,
		Currency: o.Currency,
		Side:     SideBuy,
	}

	p.values[buySeries] = append(p.values[buySeries], o.Buy)

	if o.Sell <= o.Buy {
		return
	}

	sellSeries := Series{
		Region:   o.Region,
		Currency: o.Currency,
		Side:     SideSell,
	}

	p.values[sellSeries] = append(p.values[sellSeries], o.Sell)
}

// Values returns the pooled values for the given series
func (p *CandidatePool) Values(region Region, currency Currency, side Side) []int {
	return p.values[Series{
		Region:   region,
		Currency: currency,
		Side:     side,
	}]
}

// RateSnapshot is the durable published rate state for one region
type RateSnapshot struct {
	USDBuy     int    `json:"usd_buy"`
	USDSell    int    `json:"usd_sell"`
	SARBuy     int    `json:"sar_buy"`
	SARSell    int    `json:"sar_sell"`
	Trend      int    `json:"trend"`
	LastUpdate string `json:"last_update"`
}

// GoldPrices is the derived per-region gold state.
// Gram figures are derived from the ounce price, never sourced
type GoldPrices struct {
	Gram24     int    `json:"gram_24"`
	Gram21     int    `json:"gram_21"`
	Gunaih     int    `json:"gunaih"`
	Trend      int    `json:"trend"`
	LastUpdate string `json:"last_update"`
}

// GoldSnapshot is the durable published gold state
type GoldSnapshot struct {
	GlobalOunceUSD float64    `json:"global_ounce_usd"`
	Sanaa          GoldPrices `json:"sanaa"`
	Aden           GoldPrices `json:"aden"`
}

// HistorySeries is one tracked daily history stream
type HistorySeries string

const (
	HistoryUSD    HistorySeries = "usd"
	HistorySAR    HistorySeries = "sar"
	HistoryGold21 HistorySeries = "gold21"
)

func (h HistorySeries) String() string {
	return string(h)
}

// HistorySeriesList lists all tracked history streams
func HistorySeriesList() []HistorySeries {
	return []HistorySeries{HistoryUSD, HistorySAR, HistoryGold21}
}
