package handlers

import (
	"net/http"

	"delivery-dispatch/internal/logx"
)

// DeliveryHandler serves HTTP endpoints for assignment dispatch and the
// live tracking feed.
type DeliveryHandler struct {
	dispatch dispatchUsecase
	tracking trackingUsecase
	logger   logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, d dispatchUsecase, t trackingUsecase) *DeliveryHandler {
	return &DeliveryHandler{dispatch: d, tracking: t, logger: logger}
}

// Broadcast handles POST /api/delivery/broadcast. With an empty
// deliveryBoyIds list, candidates are auto-selected by proximity.
func (h *DeliveryHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.dispatch.Broadcast(r.Context(), req.OrderID, req.ShopID, req.DeliveryBoyIDs)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, broadcastResultToResponse(res))
}

// MyAssignments handles GET /api/delivery/my-assignments for the calling
// delivery partner.
func (h *DeliveryHandler) MyAssignments(w http.ResponseWriter, r *http.Request) {
	partner := actorID(r)
	if partner == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing actor id")
		return
	}

	list, err := h.dispatch.MyAssignments(r.Context(), partner)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentsToDTO(list))
}

// Accept handles POST /api/delivery/accept. Exactly one partner wins; the
// rest get 409 and the entry disappears from their list.
func (h *DeliveryHandler) Accept(w http.ResponseWriter, r *http.Request) {
	partner := actorID(r)
	if partner == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing actor id")
		return
	}

	var req acceptRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	a, err := h.dispatch.Accept(r.Context(), req.AssignmentID, partner)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToDTO(a))
}

// Complete handles POST /api/delivery/complete. Only succeeds once the
// shop order was delivered through OTP verification.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	a, err := h.dispatch.Complete(r.Context(), req.AssignmentID)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToDTO(a))
}

// LiveLocation handles GET /api/delivery/live-location?assignmentId=...
func (h *DeliveryHandler) LiveLocation(w http.ResponseWriter, r *http.Request) {
	assignmentID := r.URL.Query().Get("assignmentId")
	if assignmentID == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing assignmentId")
		return
	}

	pos, err := h.tracking.LiveLocation(r.Context(), assignmentID)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, livePositionToResponse(pos))
}

// UpdateLocation handles POST /api/user/update-location. Fire and forget:
// the freshest sample wins, the response is a bare ack.
func (h *DeliveryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing actor id")
		return
	}

	var req updateLocationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	if err := h.tracking.ReportLocation(r.Context(), actor, req.Lat, req.Lon); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
}
