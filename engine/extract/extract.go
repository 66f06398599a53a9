// Package extract pulls rate candidates out of unstructured page
// markup.
//
// The sources share no markup structure, so classification is purely
// heuristic: currency by keyword, region by numeric plausibility band.
// The bands are disjoint per currency by construction, which is what
// makes region discrimination unambiguous.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yemen-sarraf/sarraf/config"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

// blockSelector is the granularity of candidate text blocks:
// table rows, list items, and short paragraph-like elements
const blockSelector = "tr, li, div, p, span"

var numberRegex = regexp.MustCompile(`[0-9]{3,4}`)

// PageResult holds everything extracted from a single source page
type PageResult struct {
	// Observations are the classified rate candidates
	Observations []types.Observation

	// Found is a deduplicated human-readable log of what was
	// classified, for run auditing only
	Found []string
}

// Page extracts rate candidates from the raw page markup.
// An empty or unparsable page yields an empty result, never an error;
// a bad block never aborts the rest of the page
func Page(html string, rules config.Extract) PageResult {
	var result PageResult

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result
	}

	seen := make(map[string]struct{})

	doc.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		obs, ok := classifyBlock(strings.TrimSpace(block.Text()), rules)
		if !ok {
			return
		}

		result.Observations = append(result.Observations, obs)

		line := foundLine(obs)
		if _, dup := seen[line]; dup {
			return
		}

		seen[line] = struct{}{}
		result.Found = append(result.Found, line)
	})

	return result
}

// classifyBlock turns one text block into a candidate observation.
// Blocks with no usable number, no currency keyword, or a buy value
// outside every region band are discarded
func classifyBlock(text string, rules config.Extract) (types.Observation, bool) {
	nums := extractNumbers(text, rules)
	if len(nums) < 1 {
		return types.Observation{}, false
	}

	currency, ok := classifyCurrency(text, rules)
	if !ok {
		return types.Observation{}, false
	}

	sort.Ints(nums)

	buy := nums[0]

	sell := 0
	if len(nums) >= 2 {
		sell = nums[1]
	}

	region, ok := classifyRegion(buy, currency, rules)
	if !ok {
		return types.Observation{}, false
	}

	return types.Observation{
		Region:   region,
		Currency: currency,
		Buy:      buy,
		Sell:     sell,
	}, true
}

// extractNumbers pulls all 3-4 digit integers from the block,
// dropping calendar years (dates sit right next to rate tables and
// are the main false-positive source)
func extractNumbers(text string, rules config.Extract) []int {
	matches := numberRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	nums := make([]int, 0, len(matches))

	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}

		if n >= rules.YearMin && n <= rules.YearMax {
			continue
		}

		nums = append(nums, n)
	}

	return nums
}

// classifyCurrency matches currency keywords, first match wins
func classifyCurrency(text string, rules config.Extract) (types.Currency, bool) {
	if containsAny(text, rules.USDKeywords) {
		return types.CurrencyUSD, true
	}

	if containsAny(text, rules.SARKeywords) {
		return types.CurrencySAR, true
	}

	return "", false
}

// classifyRegion places the buy value into a region's plausibility
// band. A value outside both bands is ambiguous or irrelevant
func classifyRegion(buy int, currency types.Currency, rules config.Extract) (types.Region, bool) {
	for _, region := range types.Regions() {
		if rules.Band(currency, region).Contains(buy) {
			return region, true
		}
	}

	return "", false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}

	return false
}

func foundLine(obs types.Observation) string {
	return strings.ToUpper(obs.Region.String()) + " " +
		strings.ToUpper(obs.Currency.String()) + ": " +
		strconv.Itoa(obs.Buy) + "/" + strconv.Itoa(obs.Sell)
}
