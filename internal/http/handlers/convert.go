package handlers

import (
	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/service/dispatch"
	"delivery-dispatch/internal/service/orders"
	"delivery-dispatch/internal/service/tracking"
)

func shopOrderToDTO(so domain.ShopOrder) shopOrderDTO {
	items := make([]orderItemDTO, 0, len(so.Items))
	for _, it := range so.Items {
		items = append(items, orderItemDTO{
			ItemID:    it.ItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return shopOrderDTO{
		ID:           so.ID,
		ShopID:       so.ShopID,
		Status:       string(so.Status),
		Subtotal:     so.Subtotal,
		AssignmentID: so.AssignmentID,
		Items:        items,
	}
}

func orderToDTO(o domain.Order) orderDTO {
	shopOrders := make([]shopOrderDTO, 0, len(o.ShopOrders))
	for _, so := range o.ShopOrders {
		shopOrders = append(shopOrders, shopOrderToDTO(so))
	}
	return orderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		PaymentMethod: string(o.PaymentMethod),
		AddressText:   o.Address.Text,
		Latitude:      o.Address.Latitude,
		Longitude:     o.Address.Longitude,
		DeliveryFee:   o.DeliveryFee,
		Tip:           o.Tip,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
		ShopOrders:    shopOrders,
	}
}

func ordersToDTO(list []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, orderToDTO(o))
	}
	return out
}

func assignmentToDTO(a domain.Assignment) assignmentDTO {
	return assignmentDTO{
		ID:          a.ID,
		OrderID:     a.OrderID,
		ShopID:      a.ShopID,
		ShopOrderID: a.ShopOrderID,
		Status:      string(a.Status),
		AssignedTo:  a.AssignedTo,
		DistanceKm:  a.DistanceKm,
		CreatedAt:   a.CreatedAt,
		AcceptedAt:  a.AcceptedAt,
		CompletedAt: a.CompletedAt,
	}
}

func assignmentsToDTO(list []domain.Assignment) []assignmentDTO {
	out := make([]assignmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentToDTO(a))
	}
	return out
}

func statusResultToResponse(res orders.StatusResult) statusUpdateResponse {
	resp := statusUpdateResponse{
		ShopOrder: shopOrderToDTO(res.ShopOrder),
		Otp:       res.Otp,
	}
	if res.Assignment != nil {
		dto := assignmentToDTO(*res.Assignment)
		resp.Assignment = &dto
	}
	return resp
}

func verifyResultToResponse(res orders.VerifyResult) verifyOtpResponse {
	resp := verifyOtpResponse{
		ShopOrder: shopOrderToDTO(res.ShopOrder),
	}
	if res.Assignment != nil {
		dto := assignmentToDTO(*res.Assignment)
		resp.Assignment = &dto
	}
	return resp
}

func broadcastResultToResponse(res dispatch.BroadcastResult) broadcastResponse {
	return broadcastResponse{
		Assignment:   assignmentToDTO(res.Assignment),
		DeliveryBoys: res.CandidateIDs,
	}
}

func livePositionToResponse(p tracking.LivePosition) liveLocationResponse {
	return liveLocationResponse{
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Name:       p.Name,
		Mobile:     p.Mobile,
		LastUpdate: p.LastUpdate,
		DistanceKm: p.DistanceKm,
		EtaMinutes: p.EtaMinutes,
	}
}
