package server

import "github.com/yemen-sarraf/sarraf/storage/types"

type RatesResponse struct {
	Sanaa      types.RateSnapshot `json:"sanaa"`
	Aden       types.RateSnapshot `json:"aden"`
	LastUpdate string             `json:"last_update"`
}

type HistoryResponse struct {
	Region types.Region        `json:"region"`
	Series types.HistorySeries `json:"series"`
	Points map[string]int      `json:"points"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
