package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
	funding  *service.FundingService
}

func NewProjectHandler(projects *service.ProjectService, funding *service.FundingService) *ProjectHandler {
	return &ProjectHandler{projects: projects, funding: funding}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req struct {
		Name        string `json:"name"`
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	project, err := h.projects.Create(r.Context(), actorID, req.Name, req.Symbol, req.Description)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "project/create-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(w, r)
	if err != nil {
		return
	}
	RespondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	projects, err := h.projects.List(r.Context(), actorID)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "project/list-failed", "Failed to list projects")
		return
	}
	RespondJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(w, r)
	if err != nil {
		return
	}
	assignments, err := h.projects.Assignments(r.Context(), project.ID)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "project/assignments-failed", "Failed to list assignments")
		return
	}
	RespondJSON(w, http.StatusOK, assignments)
}

// ConfigureFunding sets the project's bundling plan: which wallets buy and
// how much. Moves the project from DRAFT to FUNDING.
func (h *ProjectHandler) ConfigureFunding(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(w, r)
	if err != nil {
		return
	}

	var req struct {
		WalletIDs         []uuid.UUID `json:"wallet_ids"`
		BuyAmountLamports int64       `json:"buy_amount_lamports"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	if err := h.funding.ConfigurePlan(r.Context(), project.ID, req.WalletIDs, req.BuyAmountLamports); err != nil {
		RespondError(w, r, http.StatusBadRequest, "funding/configure-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Fund disperses SOL from a funding wallet into the project's assigned
// wallets.
func (h *ProjectHandler) Fund(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(w, r)
	if err != nil {
		return
	}

	var req struct {
		FundingWalletID uuid.UUID `json:"funding_wallet_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	results, err := h.funding.Fund(r.Context(), project.ID, req.FundingWalletID)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			RespondJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   err.Error(),
				"results": results,
			})
			return
		}
		RespondError(w, r, http.StatusBadRequest, "funding/fund-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// VerifyFunding re-checks wallet balances and reports funding progress.
func (h *ProjectHandler) VerifyFunding(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(w, r)
	if err != nil {
		return
	}

	status, err := h.funding.Verify(r.Context(), project.ID)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "funding/verify-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

func (h *ProjectHandler) ownedProject(w http.ResponseWriter, r *http.Request) (*models.Project, error) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return nil, err
	}
	projectID, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "Invalid project id")
		return nil, err
	}
	project, err := h.projects.Get(r.Context(), projectID)
	if err != nil || project.UserID != actorID {
		RespondError(w, r, http.StatusNotFound, "project/not-found", "Project not found")
		return nil, models.ErrProjectNotFound
	}
	return project, nil
}
