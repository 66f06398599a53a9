package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yemen-sarraf/sarraf/storage/types"
)

var (
	errUnableToFetchRates   = errors.New("unable to fetch rates")
	errUnableToFetchGold    = errors.New("unable to fetch gold")
	errUnableToFetchHistory = errors.New("unable to fetch history")

	errInvalidRegion = errors.New("invalid region")
	errInvalidSeries = errors.New("invalid series")
)

func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	var resp RatesResponse

	if err := s.store.Get(r.Context(), "rates", &resp); err != nil {
		s.logger.Debug(
			"unable to fetch rates",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchRates)

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Gold(w http.ResponseWriter, r *http.Request) {
	var resp types.GoldSnapshot

	if err := s.store.Get(r.Context(), "gold", &resp); err != nil {
		s.logger.Debug(
			"unable to fetch gold",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchGold)

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	region, err := parseRegion(chi.URLParam(r, "region"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	series, err := parseSeries(chi.URLParam(r, "series"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	points := make(map[string]int)

	path := "history/" + region.String() + "/" + series.String()
	if err := s.store.Get(r.Context(), path, &points); err != nil {
		s.logger.Debug(
			"unable to fetch history",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, errUnableToFetchHistory)

		return
	}

	writeJSON(w, http.StatusOK, &HistoryResponse{
		Region: region,
		Series: series,
		Points: points,
	})
}

func parseRegion(v string) (types.Region, error) {
	region := types.Region(v)

	switch region {
	case types.RegionSanaa, types.RegionAden:
		return region, nil
	default:
		return "", errInvalidRegion
	}
}

func parseSeries(v string) (types.HistorySeries, error) {
	series := types.HistorySeries(v)

	switch series {
	case types.HistoryUSD, types.HistorySAR, types.HistoryGold21:
		return series, nil
	default:
		return "", errInvalidSeries
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
