package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/service"
)

type DisperseHandler struct {
	disperser *service.DisperseService
}

func NewDisperseHandler(disperser *service.DisperseService) *DisperseHandler {
	return &DisperseHandler{disperser: disperser}
}

// Disperse sends a fixed amount from a funding wallet to each target
// address, outside of any project plan.
func (h *DisperseHandler) Disperse(w http.ResponseWriter, r *http.Request) {
	if _, err := requestActor(r); err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req struct {
		FundingWalletID uuid.UUID `json:"funding_wallet_id"`
		Targets         []string  `json:"targets"`
		AmountPerTarget int64     `json:"amount_per_target_lamports"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if len(req.Targets) == 0 {
		RespondError(w, r, http.StatusBadRequest, "disperse/missing-targets", "targets is required")
		return
	}

	results, err := h.disperser.Disperse(r.Context(), req.FundingWalletID, req.Targets, req.AmountPerTarget)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			RespondJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   err.Error(),
				"results": results,
			})
			return
		}
		RespondError(w, r, http.StatusBadRequest, "disperse/failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"results": results})
}
