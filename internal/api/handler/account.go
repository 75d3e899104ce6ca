package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/skypro/simplebanking/internal/observability"
	"github.com/skypro/simplebanking/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// GetAccount returns one of the caller's accounts. Accounts belonging to other
// users are reported as not found.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	accountID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return
	}

	account, err := h.svc.GetAccount(r.Context(), actorID, accountID)
	if err != nil {
		if status, pType, msg, ok := mapDomainError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("get account failed", zap.Error(err), zap.Int64("account_id", accountID))
		RespondError(w, r, http.StatusInternalServerError, "account/read-failed", "Failed to get account")
		return
	}

	RespondJSON(w, http.StatusOK, newAccountView(*account))
}

// ListAccounts returns all of the caller's accounts.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	accounts, err := h.svc.GetAccounts(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list accounts failed", zap.Error(err), zap.Int64("user_id", actorID))
		RespondError(w, r, http.StatusInternalServerError, "account/list-failed", "Failed to list accounts")
		return
	}

	RespondJSON(w, http.StatusOK, newAccountViews(accounts))
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.changeBalance(w, r, "deposit")
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.changeBalance(w, r, "withdraw")
}

func (h *AccountHandler) changeBalance(w http.ResponseWriter, r *http.Request, operation string) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	accountID, err := pathID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	op := h.svc.Deposit
	if operation == "withdraw" {
		op = h.svc.Withdraw
	}
	updated, err := op(r.Context(), actorID, accountID, req.Amount)
	if err != nil {
		observability.IncrementBalanceOperation(operation, "error")
		if status, pType, msg, ok := mapDomainError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error(operation+" failed", zap.Error(err), zap.Int64("account_id", accountID))
		RespondError(w, r, http.StatusInternalServerError, "account/"+operation+"-failed", "Failed to "+operation)
		return
	}

	observability.IncrementBalanceOperation(operation, "ok")
	RespondJSON(w, http.StatusOK, newAccountView(*updated))
}

// Transfer moves funds between two same-currency accounts. The caller must own
// the source; any account may receive.
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	srcID, err := pathID(r, "srcId")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid source account ID")
		return
	}
	dstID, err := pathID(r, "dstId")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid destination account ID")
		return
	}
	amount, err := pathID(r, "amount")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", "Invalid amount")
		return
	}

	if err := h.svc.Transfer(r.Context(), actorID, srcID, dstID, amount); err != nil {
		observability.IncrementTransfer("error")
		if status, pType, msg, ok := mapDomainError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("transfer failed", zap.Error(err),
			zap.Int64("src_account_id", srcID), zap.Int64("dst_account_id", dstID))
		RespondError(w, r, http.StatusInternalServerError, "account/transfer-failed", "Transfer failed")
		return
	}

	observability.IncrementTransfer("ok")
	w.WriteHeader(http.StatusNoContent)
}
