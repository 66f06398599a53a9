package config

import (
	"errors"
	"os"
	"regexp"

	"github.com/pelletier/go-toml"

	"github.com/yemen-sarraf/sarraf/storage/types"
)

const DefaultListenAddress = "0.0.0.0:8545"

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrNoSources            = errors.New("no page sources configured")
	ErrInvalidTimeout       = errors.New("invalid fetch timeout")
	ErrInvalidBand          = errors.New("invalid rate band")
	ErrOverlappingBands     = errors.New("rate bands overlap")
	ErrInvalidSpread        = errors.New("invalid spread")
	ErrInvalidRatio         = errors.New("invalid SAR ratio")
	ErrInvalidMedianBand    = errors.New("invalid median band percentage")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Band is an inclusive plausibility range for a buy value.
// Bands discriminate regions, so the two bands of one currency
// must stay disjoint if the thresholds are ever retuned
type Band struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// Contains reports whether the value falls inside the band
func (b Band) Contains(v int) bool {
	return v >= b.Min && v <= b.Max
}

// Extract configures the rate extraction heuristics
type Extract struct {
	// Keyword sets for currency classification, first match wins
	USDKeywords []string `toml:"usd_keywords"`
	SARKeywords []string `toml:"sar_keywords"`

	// Calendar years in this range are a recurring false-positive
	// near rate tables and are always dropped
	YearMin int `toml:"year_min"`
	YearMax int `toml:"year_max"`

	USDSanaa Band `toml:"usd_sanaa"`
	USDAden  Band `toml:"usd_aden"`
	SARSanaa Band `toml:"sar_sanaa"`
	SARAden  Band `toml:"sar_aden"`
}

// Band returns the plausibility band for the given series
func (e Extract) Band(currency types.Currency, region types.Region) Band {
	switch {
	case currency == types.CurrencyUSD && region == types.RegionSanaa:
		return e.USDSanaa
	case currency == types.CurrencyUSD && region == types.RegionAden:
		return e.USDAden
	case currency == types.CurrencySAR && region == types.RegionSanaa:
		return e.SARSanaa
	default:
		return e.SARAden
	}
}

// Rates configures the per-region fallbacks applied when
// aggregation produces no value
type Rates struct {
	SanaaUSDDefault int `toml:"sanaa_usd_default"`
	AdenUSDDefault  int `toml:"aden_usd_default"`

	SanaaUSDSpread int `toml:"sanaa_usd_spread"`
	SanaaSARSpread int `toml:"sanaa_sar_spread"`
	AdenUSDSpread  int `toml:"aden_usd_spread"`
	AdenSARSpread  int `toml:"aden_sar_spread"`

	// USD/SAR cross rate used to derive a SAR buy fallback
	// from the region's USD buy
	SanaaSARRatio float64 `toml:"sanaa_sar_ratio"`
	AdenSARRatio  float64 `toml:"aden_sar_ratio"`
}

// Spread returns the minimum enforced sell-buy gap for the series
func (r Rates) Spread(region types.Region, currency types.Currency) int {
	switch {
	case region == types.RegionSanaa && currency == types.CurrencyUSD:
		return r.SanaaUSDSpread
	case region == types.RegionSanaa && currency == types.CurrencySAR:
		return r.SanaaSARSpread
	case region == types.RegionAden && currency == types.CurrencyUSD:
		return r.AdenUSDSpread
	default:
		return r.AdenSARSpread
	}
}

// USDDefault returns the USD buy fallback for the region
func (r Rates) USDDefault(region types.Region) int {
	if region == types.RegionSanaa {
		return r.SanaaUSDDefault
	}

	return r.AdenUSDDefault
}

// SARRatio returns the USD/SAR cross rate for the region
func (r Rates) SARRatio(region types.Region) float64 {
	if region == types.RegionSanaa {
		return r.SanaaSARRatio
	}

	return r.AdenSARRatio
}

// Gold configures the ounce price fallbacks
type Gold struct {
	// Last known-good ounce price, used when the market-data
	// provider is unreachable. Zero disables the gold computation
	// on fetch failure
	FallbackOunceUSD float64 `toml:"fallback_ounce_usd"`

	// Previous ounce value assumed when the store holds none
	PreviousOunceUSD float64 `toml:"previous_ounce_usd"`
}

// Notify configures the notification decision thresholds
type Notify struct {
	Topic string `toml:"topic"`

	// Asymmetric per-region USD buy deltas that trigger a push.
	// Aden moves in larger steps than Sanaa
	AdenDelta  int `toml:"aden_delta"`
	SanaaDelta int `toml:"sanaa_delta"`
}

// Config defines the base-level service configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The address at which the read API will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The ordered list of page sources to scrape
	Sources []string `toml:"sources"`

	// Shared per-request fetch timeout, in seconds
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`

	// Median band half-width for outlier rejection, as a fraction
	MedianBand float64 `toml:"median_band"`

	Extract Extract `toml:"extract"`
	Rates   Rates   `toml:"rates"`
	Gold    Gold    `toml:"gold"`
	Notify  Notify  `toml:"notify"`
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Sources: []string{
			"https://boqash.com/price-currency/",
			"https://economiyemen.net/",
			"https://ydn.news",
			"https://yemen-exchange.com/",
			"https://www.2dec.net/rate.html",
			"https://khobaraa.net/section/20",
			"https://www.aden-tm.net/news/351778",
			"http://yemenief.org/Currency.aspx",
			"https://yemen-press.net",
		},
		FetchTimeoutSeconds: 15,
		MedianBand:          0.15,
		Extract: Extract{
			USDKeywords: []string{"دولار", "USD", "أمريكي"},
			SARKeywords: []string{"سعودي", "SAR"},
			YearMin:     2010,
			YearMax:     2030,
			USDSanaa:    Band{Min: 520, Max: 600},
			USDAden:     Band{Min: 1600, Max: 2200},
			SARSanaa:    Band{Min: 138, Max: 160},
			SARAden:     Band{Min: 400, Max: 580},
		},
		Rates: Rates{
			SanaaUSDDefault: 535,
			AdenUSDDefault:  1630,
			SanaaUSDSpread:  3,
			SanaaSARSpread:  1,
			AdenUSDSpread:   12,
			AdenSARSpread:   4,
			SanaaSARRatio:   3.78,
			AdenSARRatio:    3.82,
		},
		Gold: Gold{
			FallbackOunceUSD: 4189.60,
			PreviousOunceUSD: 4189,
		},
		Notify: Notify{
			Topic:      "rates",
			AdenDelta:  2,
			SanaaDelta: 1,
		},
	}
}

// ValidateConfig validates the service configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if len(config.Sources) == 0 {
		return ErrNoSources
	}

	if config.FetchTimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}

	if config.MedianBand <= 0 || config.MedianBand >= 1 {
		return ErrInvalidMedianBand
	}

	bands := []Band{
		config.Extract.USDSanaa,
		config.Extract.USDAden,
		config.Extract.SARSanaa,
		config.Extract.SARAden,
	}

	for _, b := range bands {
		if b.Min <= 0 || b.Max < b.Min {
			return ErrInvalidBand
		}
	}

	// The two bands of a currency must not overlap,
	// otherwise region classification is ambiguous
	if config.Extract.USDSanaa.Max >= config.Extract.USDAden.Min {
		return ErrOverlappingBands
	}

	if config.Extract.SARSanaa.Max >= config.Extract.SARAden.Min {
		return ErrOverlappingBands
	}

	spreads := []int{
		config.Rates.SanaaUSDSpread,
		config.Rates.SanaaSARSpread,
		config.Rates.AdenUSDSpread,
		config.Rates.AdenSARSpread,
	}

	for _, s := range spreads {
		if s <= 0 {
			return ErrInvalidSpread
		}
	}

	if config.Rates.SanaaSARRatio <= 0 || config.Rates.AdenSARRatio <= 0 {
		return ErrInvalidRatio
	}

	return nil
}

// Read reads the configuration from the given path
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
