package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
)

// handleGetRewards handles GET /api/rewards/data?address - cashback and
// referral summary.
func (s *Server) handleGetRewards(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}

	rewards, err := s.accounts.GetRewards(r.Context(), addr)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rewards)
}

// handleWithdrawRewards handles POST /api/rewards/withdraw - plan and submit
// a withdrawRewards call through the regular submission path.
func (s *Server) handleWithdrawRewards(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !common.IsHexAddress(req.Address) {
		respondError(w, http.StatusBadRequest, "INVALID_ADDRESS", "A valid address is required",
			map[string]interface{}{"field": "address", "value": req.Address})
		return
	}

	units, err := token.ToBaseUnits(req.Amount, s.config.RewardsDecimals)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error(),
			map[string]interface{}{"amount": req.Amount})
		return
	}
	if units.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Withdrawal amount must be positive",
			map[string]interface{}{"amount": req.Amount})
		return
	}

	plan, err := s.planner.PlanWithdrawal(r.Context(), common.HexToAddress(req.Address), units)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := s.submitter.Submit(r.Context(), plan)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"txHash": result.TxHashes[len(result.TxHashes)-1].Hex(),
		"amount": req.Amount,
	})
}
