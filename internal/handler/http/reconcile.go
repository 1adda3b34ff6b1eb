package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/boutikplace/shop-backend-go/internal/domain/payment"
	"github.com/boutikplace/shop-backend-go/internal/handler/http/response"
)

// ReconcileHandler exposes the manual resync trigger for support staff
type ReconcileHandler interface {
	Trigger(w http.ResponseWriter, r *http.Request)
}

type reconcileHandlerImpl struct {
	reconciler payment.Reconciler
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(reconciler payment.Reconciler) ReconcileHandler {
	return &reconcileHandlerImpl{reconciler: reconciler}
}

// Trigger runs a resync batch over stuck payments
// POST /api/v1/admin/payments/resync - Admin only
func (h *reconcileHandlerImpl) Trigger(w http.ResponseWriter, r *http.Request) {
	var req payment.ResyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	filter := payment.ResyncFilter{
		MinAge: time.Duration(req.MinAgeMinutes) * time.Minute,
		Limit:  req.Limit,
	}
	if req.Method != nil {
		method, _ := payment.ParseMethod(*req.Method)
		filter.Method = &method
	}

	summary, err := h.reconciler.RunBatch(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}
