package api

import (
	"net/http"
)

// handleGetStats handles GET /api/user/stats?address - transfer totals and
// the loyalty tier derived from lifetime sent volume.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}

	stats, err := s.accounts.GetStats(r.Context(), addr)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
