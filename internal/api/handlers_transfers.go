package api

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/submit"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/token"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// transferResponse is the success envelope for transfer-flow endpoints.
type transferResponse struct {
	TxHashes       []string `json:"txHashes"`
	CallsCompleted int      `json:"callsCompleted"`
	Batched        bool     `json:"batched"`
	Fee            string   `json:"fee,omitempty"`
}

func toTransferResponse(result *submit.Result, quote *types.Quote) transferResponse {
	resp := transferResponse{
		TxHashes:       make([]string, len(result.TxHashes)),
		CallsCompleted: result.CallsCompleted,
		Batched:        result.Batched,
	}
	for i, h := range result.TxHashes {
		resp.TxHashes[i] = h.Hex()
	}
	if quote != nil && quote.FeeUnits != nil {
		resp.Fee = token.FromBaseUnits(quote.FeeUnits, quote.Token.Decimals)
	}
	return resp
}

// handleSendTransfer handles POST /api/transfers - run the single-transfer
// flow end to end: validate, plan, submit.
func (s *Server) handleSendTransfer(w http.ResponseWriter, r *http.Request) {
	var req types.TransferRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	quote, vfail, err := s.validator.ValidateTransfer(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if vfail != nil {
		respondError(w, vfail.StatusCode, vfail.Code, vfail.Message, vfail.Details)
		return
	}

	plan, err := s.planner.PlanTransfer(r.Context(), &req, quote)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := s.submitter.Submit(r.Context(), plan)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTransferResponse(result, quote))
}

// handleGroupPayment handles POST /api/transfers/group - fan one token out
// to several recipients in one bundle.
func (s *Server) handleGroupPayment(w http.ResponseWriter, r *http.Request) {
	var req types.GroupPaymentRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	quote, vfail, err := s.validator.ValidateGroupPayment(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if vfail != nil {
		respondError(w, vfail.StatusCode, vfail.Code, vfail.Message, vfail.Details)
		return
	}

	plan, err := s.planner.PlanGroupPayment(r.Context(), &req, quote)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := s.submitter.Submit(r.Context(), plan)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTransferResponse(result, quote))
}

// handleGetHistory handles GET /api/transfers/history?address&start&count.
// Out-of-range start/count values are clamped downstream, never rejected.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}

	start, _ := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	count, _ := strconv.ParseInt(r.URL.Query().Get("count"), 10, 64)

	records, err := s.history.GetHistory(r.Context(), addr, start, count)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": records,
		"pagination": map[string]interface{}{
			"start":    start,
			"count":    count,
			"returned": len(records),
		},
	})
}

// parseAddressParam reads and validates a hex address query parameter,
// writing the error response itself on failure.
func parseAddressParam(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	value := r.URL.Query().Get(name)
	if !common.IsHexAddress(value) {
		respondError(w, http.StatusBadRequest, "INVALID_ADDRESS",
			"A valid "+name+" query parameter is required",
			map[string]interface{}{"field": name, "value": value})
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}
