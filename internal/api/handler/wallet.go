package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tobenna/launchpad/internal/custody"
	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/repository"
	"github.com/tobenna/launchpad/internal/service"
)

// WalletHandler manages the caller's custody wallets. Private keys never
// leave the custodian; responses carry addresses only.
type WalletHandler struct {
	custodian *custody.Custodian
	repo      *repository.Repository
	ledger    service.LedgerClient
}

func NewWalletHandler(custodian *custody.Custodian, repo *repository.Repository, ledger service.LedgerClient) *WalletHandler {
	return &WalletHandler{custodian: custodian, repo: repo, ledger: ledger}
}

func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	wallet, err := h.custodian.CreateWallet(r.Context(), actorID, req.Label)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "wallet/create-failed", "Failed to create wallet")
		return
	}
	RespondJSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) Import(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	var req struct {
		PrivateKey string `json:"private_key"`
		Mnemonic   string `json:"mnemonic"`
		Label      string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	var wallet *models.Wallet
	switch {
	case req.PrivateKey != "":
		wallet, err = h.custodian.ImportWallet(r.Context(), actorID, req.PrivateKey, req.Label)
	case req.Mnemonic != "":
		wallet, err = h.custodian.ImportMnemonic(r.Context(), actorID, req.Mnemonic, req.Label)
	default:
		RespondError(w, r, http.StatusBadRequest, "wallet/missing-key", "private_key or mnemonic is required")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, custody.ErrInvalidKey), errors.Is(err, custody.ErrInvalidMnemonic):
			RespondError(w, r, http.StatusBadRequest, "wallet/invalid-key", err.Error())
		case errors.Is(err, custody.ErrWalletExists):
			RespondError(w, r, http.StatusConflict, "wallet/exists", "wallet already imported")
		default:
			RespondError(w, r, http.StatusInternalServerError, "wallet/import-failed", "Failed to import wallet")
		}
		return
	}
	RespondJSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) GenerateMnemonic(w http.ResponseWriter, r *http.Request) {
	mnemonic, err := h.custodian.GenerateMnemonic()
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "wallet/mnemonic-failed", "Failed to generate mnemonic")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"mnemonic": mnemonic})
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}

	wallets, err := h.repo.ListWalletsByUser(r.Context(), actorID)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "wallet/list-failed", "Failed to list wallets")
		return
	}
	RespondJSON(w, http.StatusOK, walletBalances(r.Context(), h.ledger, wallets))
}

type walletView struct {
	models.Wallet
	BalanceLamports int64 `json:"balance_lamports"`
}

// walletBalances enriches listed wallets with their live on-chain balances.
// Lookups are best effort; a failed lookup reports zero rather than failing
// the whole list.
func walletBalances(ctx context.Context, ledger service.LedgerClient, wallets []models.Wallet) []walletView {
	views := make([]walletView, 0, len(wallets))
	for _, wlt := range wallets {
		balance, err := ledger.GetBalance(ctx, wlt.Address)
		if err != nil {
			balance = 0
		}
		views = append(views, walletView{Wallet: wlt, BalanceLamports: balance})
	}
	return views
}

func (h *WalletHandler) SetCreator(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}
	walletID, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "Invalid wallet id")
		return
	}

	wallet, err := h.repo.GetWallet(r.Context(), walletID)
	if err != nil || wallet.UserID != actorID {
		RespondError(w, r, http.StatusNotFound, "wallet/not-found", "Wallet not found")
		return
	}
	if err := h.repo.SetCreatorWallet(r.Context(), actorID, walletID); err != nil {
		RespondError(w, r, http.StatusInternalServerError, "wallet/set-creator-failed", "Failed to set creator wallet")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return
	}
	walletID, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "Invalid wallet id")
		return
	}

	wallet, err := h.repo.GetWallet(r.Context(), walletID)
	if err != nil || wallet.UserID != actorID {
		RespondError(w, r, http.StatusNotFound, "wallet/not-found", "Wallet not found")
		return
	}
	if _, err := h.repo.DeleteWallet(r.Context(), walletID); err != nil {
		if status, problemType, message, ok := mapDBError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "wallet/delete-failed", "Failed to delete wallet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
