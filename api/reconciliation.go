package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/models"
)

// requireServiceKey only lets through callers presenting the backend service key
func (a *Api) requireServiceKey(h http.HandlerFunc) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		token := bearerToken(req)
		if token == "" || a.backend.ServiceRoleKey == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(a.backend.ServiceRoleKey)) != 1 {
			a.sendError(req.Context(), res, http.StatusUnauthorized, STATUS_UNAUTHORIZED)
			return
		}
		h(res, req)
	}
}

// GetReconciliations lists reconciliation records, pending ones unless ?status= says otherwise
//
// status: 200 []models.Reconciliation
// status: 400 for an unknown status
func (a *Api) GetReconciliations(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	defer a.recoverWith(ctx, func(reason string) {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_UNEXPECTED, reason)
	})

	var statuses []models.ReconciliationStatus
	switch status := req.URL.Query().Get("status"); status {
	case "":
		statuses = []models.ReconciliationStatus{models.ReconciliationPending}
	case "all":
	case string(models.ReconciliationPending), string(models.ReconciliationResolved):
		statuses = []models.ReconciliationStatus{models.ReconciliationStatus(status)}
	default:
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_INVALID_RECONCILIATION_STATUS, zap.String("status", status))
		return
	}

	results, err := a.Store.FindReconciliations(ctx, statuses...)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_FINDING_RECONCILIATION, err)
		return
	}
	a.sendModelAsResWithStatus(ctx, res, results, http.StatusOK)
}

// ResolveReconciliation marks one record as handled
//
// status: 200 models.Reconciliation
// status: 404 when the id is unknown
func (a *Api) ResolveReconciliation(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	defer a.recoverWith(ctx, func(reason string) {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_UNEXPECTED, reason)
	})
	id := mux.Vars(req)["id"]

	reconciliation, err := a.Store.FindReconciliation(ctx, id)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_FINDING_RECONCILIATION, err)
		return
	}
	if reconciliation == nil {
		a.sendError(ctx, res, http.StatusNotFound, STATUS_RECONCILIATION_NOT_FOUND, zap.String("id", id))
		return
	}

	if reconciliation.Status != models.ReconciliationResolved {
		reconciliation.Resolve()
		if err := a.Store.UpsertReconciliation(ctx, reconciliation); err != nil {
			a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_RECONCILIATION, err)
			return
		}
		a.logger(ctx).Infow("reconciliation resolved", "id", id, "stage", reconciliation.Stage, "userId", reconciliation.UserID)
	}
	a.sendModelAsResWithStatus(ctx, res, reconciliation, http.StatusOK)
}
