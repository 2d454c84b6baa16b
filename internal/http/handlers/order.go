package handlers

import (
	"net/http"
	"strconv"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/logx"
)

// OrderHandler serves HTTP endpoints for order status and the OTP gate.
type OrderHandler struct {
	usecase orderUsecase
	logger  logx.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(logger logx.Logger, uc orderUsecase) *OrderHandler {
	return &OrderHandler{usecase: uc, logger: logger}
}

// UpdateStatus handles PUT /api/order/update-status (owner view: addressed
// by orderId + shopId).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.usecase.SetStatusByShop(r.Context(), req.OrderID, req.ShopID, domain.ShopOrderStatus(req.Status))
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, statusResultToResponse(res))
}

// DeliveryUpdateStatus handles PUT /api/order/delivery/update-status
// (addressed by orderId + shopOrderId; issues the OTP on the
// OUT_FOR_DELIVERY edge).
func (h *OrderHandler) DeliveryUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req deliveryUpdateStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.usecase.SetStatus(r.Context(), req.OrderID, req.ShopOrderID, domain.ShopOrderStatus(req.Status))
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, statusResultToResponse(res))
}

// VerifyOtp handles POST /api/order/delivery/verify-otp.
func (h *OrderHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.usecase.VerifyOtp(r.Context(), req.OrderID, req.ShopOrderID, req.Otp)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, verifyResultToResponse(res))
}

// MyOrders handles GET /api/order/my-orders for the calling customer.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	customer := actorID(r)
	if customer == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing actor id")
		return
	}

	limitPtr, ok := limitParam(h.logger, w, r)
	if !ok {
		return
	}

	list, err := h.usecase.ListByCustomer(r.Context(), customer, limitPtr)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToDTO(list))
}

// ShopOrders handles GET /api/order/shop-orders?shopId=... for the owner
// dashboard.
func (h *OrderHandler) ShopOrders(w http.ResponseWriter, r *http.Request) {
	shopID := r.URL.Query().Get("shopId")
	if shopID == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing shopId")
		return
	}

	limitPtr, ok := limitParam(h.logger, w, r)
	if !ok {
		return
	}

	list, err := h.usecase.ListByShop(r.Context(), shopID, limitPtr)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToDTO(list))
}

func limitParam(logger logx.Logger, w http.ResponseWriter, r *http.Request) (*int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return nil, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		writeError(logger, w, r, http.StatusBadRequest, "invalid limit")
		return nil, false
	}
	return &v, true
}
