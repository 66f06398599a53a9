// Package gold derives local gram-denomination gold prices from the
// global ounce price and the final USD rates.
package gold

import (
	"errors"
	"math"

	"github.com/yemen-sarraf/sarraf/storage/types"
)

// gramsPerOunce is the troy ounce, in grams
const gramsPerOunce = 31.1035

// gram21Purity is the 21-karat fraction of pure gold
const gram21Purity = 0.875

// gunaihGrams is the weight of the gunaih (guinea) unit, in grams
const gunaihGrams = 8

var ErrInvalidOunce = errors.New("invalid ounce price")

// Grams are the derived local prices for one region.
// Gram21 and Gunaih are always floored to a multiple of 100
type Grams struct {
	Gram24 int
	Gram21 int
	Gunaih int
}

// Derived is the full gold derivation output
type Derived struct {
	// OunceUSD is the global ounce price, rounded to 2 decimals
	OunceUSD float64

	ByRegion map[types.Region]Grams
}

// Derive computes the per-region gram prices. It is a pure function:
// identical inputs always yield identical outputs.
//
// Gram21 is computed from the pre-floor gram 24 value, not the
// published one; the order matters for reproducibility
func Derive(ounceUSD float64, usdRates map[types.Region]int) (*Derived, error) {
	if ounceUSD <= 0 {
		return nil, ErrInvalidOunce
	}

	gram24USD := ounceUSD / gramsPerOunce

	out := &Derived{
		OunceUSD: math.Round(ounceUSD*100) / 100,
		ByRegion: make(map[types.Region]Grams, len(usdRates)),
	}

	for region, usdRate := range usdRates {
		gram24 := int(gram24USD * float64(usdRate))

		gram21 := int(float64(gram24)*gram21Purity/100) * 100
		gunaih := gram21 * gunaihGrams / 100 * 100

		out.ByRegion[region] = Grams{
			Gram24: gram24 / 100 * 100,
			Gram21: gram21,
			Gunaih: gunaih,
		}
	}

	return out, nil
}
