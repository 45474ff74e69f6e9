package http

import (
	"net/http"

	"tippool/internal/core"
)

type profileResponse struct {
	Name          string               `json:"name"`
	Denominations core.DenominationSet `json:"denominations"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	out := make([]profileResponse, 0, len(names))
	for _, name := range names {
		set, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		out = append(out, profileResponse{Name: name, Denominations: set})
	}
	respondJSON(w, http.StatusOK, out)
}
