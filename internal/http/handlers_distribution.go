package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tippool/internal/core"
	"tippool/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type distributionRequest struct {
	TotalAmount core.Money          `json:"total_amount"`
	Partners    []core.PartnerHours `json:"partners"`
	Profile     string              `json:"profile"`
}

type distributionResponse struct {
	ID             uuid.UUID            `json:"id"`
	Profile        string               `json:"profile"`
	HourlyRate     core.Money           `json:"hourly_rate"`
	TotalAmount    core.Money           `json:"total_amount"`
	TotalHours     decimal.Decimal      `json:"total_hours"`
	PartnerPayouts []core.PartnerPayout `json:"partner_payouts"`
	CreatedAt      time.Time            `json:"created_at"`
}

func toDistributionResponse(d *storage.Distribution) distributionResponse {
	return distributionResponse{
		ID:             d.ID,
		Profile:        d.Profile,
		HourlyRate:     d.HourlyRate,
		TotalAmount:    d.TotalAmount,
		TotalHours:     d.TotalHours,
		PartnerPayouts: d.Payouts,
		CreatedAt:      d.CreatedAt,
	}
}

func decodeDistributionRequest(w http.ResponseWriter, r *http.Request) (distributionRequest, bool) {
	var req distributionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body: "+err.Error())
		return req, false
	}
	return req, true
}

func (s *Server) handleCreateDistribution(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeDistributionRequest(w, r)
	if !ok {
		return
	}

	input := core.DistributionInput{TotalAmount: req.TotalAmount, Partners: req.Partners}
	dist, err := s.distributions.Create(r.Context(), input, req.Profile)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.metrics.Distributions.Inc()
	s.distCache.Set(dist.ID.String(), dist)
	respondJSON(w, http.StatusCreated, toDistributionResponse(dist))
}

func (s *Server) handlePreviewDistribution(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeDistributionRequest(w, r)
	if !ok {
		return
	}

	input := core.DistributionInput{TotalAmount: req.TotalAmount, Partners: req.Partners}
	data, profile, err := s.distributions.Preview(r.Context(), input, req.Profile)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Profile string `json:"profile"`
		core.DistributionData
	}{Profile: profile, DistributionData: data})
}

func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid distribution id")
		return
	}

	if dist, found := s.distCache.Get(id.String()); found {
		s.metrics.CacheHits.Inc()
		respondJSON(w, http.StatusOK, toDistributionResponse(dist))
		return
	}
	s.metrics.CacheMisses.Inc()

	dist, err := s.distributions.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.distCache.Set(id.String(), dist)
	respondJSON(w, http.StatusOK, toDistributionResponse(dist))
}

func (s *Server) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	dists, err := s.distributions.List(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]distributionResponse, 0, len(dists))
	for _, d := range dists {
		out = append(out, toDistributionResponse(d))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDistributionSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid distribution id")
		return
	}

	bills, err := s.distributions.Summary(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		ID    uuid.UUID                 `json:"id"`
		Bills []core.BillBreakdownEntry `json:"bills"`
	}{ID: id, Bills: bills})
}
