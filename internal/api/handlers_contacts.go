package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// Contacts are client-local frontend state. Ownership is asserted by the
// owner query parameter; the frontend holds the keys, this service just
// persists the address book.

// handleListContacts handles GET /api/contacts?owner
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddressParam(w, r, "owner")
	if !ok {
		return
	}

	contacts, err := s.contacts.ListByOwner(r.Context(), owner.Hex())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"contacts": contacts})
}

// handleCreateContact handles POST /api/contacts
func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner   string `json:"owner"`
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !common.IsHexAddress(req.Owner) {
		respondError(w, http.StatusBadRequest, "INVALID_ADDRESS", "A valid owner address is required",
			map[string]interface{}{"field": "owner", "value": req.Owner})
		return
	}
	if !common.IsHexAddress(req.Address) {
		respondError(w, http.StatusBadRequest, "INVALID_ADDRESS", "A valid contact address is required",
			map[string]interface{}{"field": "address", "value": req.Address})
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Contact name is required", nil)
		return
	}

	contact := &types.Contact{
		Owner:   req.Owner,
		Name:    req.Name,
		Address: req.Address,
	}
	if err := s.contacts.Create(r.Context(), contact); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, contact)
}

// handleUpdateContact handles PUT /api/contacts/{id}?owner
func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddressParam(w, r, "owner")
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	existing, err := s.contacts.GetByID(r.Context(), owner.Hex(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Address != "" {
		if !common.IsHexAddress(req.Address) {
			respondError(w, http.StatusBadRequest, "INVALID_ADDRESS", "A valid contact address is required",
				map[string]interface{}{"field": "address", "value": req.Address})
			return
		}
		existing.Address = req.Address
	}

	if err := s.contacts.Update(r.Context(), existing); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, existing)
}

// handleDeleteContact handles DELETE /api/contacts/{id}?owner
func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddressParam(w, r, "owner")
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	if err := s.contacts.Delete(r.Context(), owner.Hex(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
