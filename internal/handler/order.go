package handler

import (
	"net/http"

	"github.com/ordway/salesdesk/internal/domain/auth"
	"github.com/ordway/salesdesk/internal/domain/order"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CustomerID <= 0 {
		writeErrorBody(w, http.StatusBadRequest, "VALIDATION", "customerId is required", nil)
		return
	}

	status := order.StatusPending
	if req.Status != "" {
		parsed, err := order.ParseStatus(req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status = parsed
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	createdBy, _ := auth.UserID(r.Context())
	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		CustomerID:      req.CustomerID,
		Items:           items,
		Status:          status,
		Shipping:        optDecimal(req.Shipping),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CreatedBy:       createdBy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, order.ErrNotFound)
		return
	}
	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	sortBy, asc := sortParams(r, "createdAt")
	orders, total, err := h.orders.List(r.Context(), order.ListParams{
		Page:      page,
		Size:      size,
		SortBy:    sortBy,
		Ascending: asc,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(orderDTOs(orders), page, size, total))
}

func (h *Handler) searchOrders(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	orders, total, err := h.orders.Search(r.Context(), r.URL.Query().Get("query"), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(orderDTOs(orders), page, size, total))
}

func (h *Handler) ordersByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(r, "customerId")
	if !ok {
		writeError(w, r, order.ErrNotFound)
		return
	}
	page, size := pageParams(r)
	orders, total, err := h.orders.ListByCustomer(r.Context(), customerID, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(orderDTOs(orders), page, size, total))
}

func (h *Handler) ordersByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := order.ParseStatus(r.PathValue("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, size := pageParams(r)
	orders, total, err := h.orders.ListByStatus(r.Context(), status, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(orderDTOs(orders), page, size, total))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, order.ErrNotFound)
		return
	}
	var req updateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var status order.Status
	if req.Status != "" {
		parsed, err := order.ParseStatus(req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status = parsed
	}

	o, err := h.orders.Update(r.Context(), id, order.UpdateRequest{
		Status:          status,
		Shipping:        optDecimal(req.Shipping),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, order.ErrNotFound)
		return
	}
	if err := h.orders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func orderDTOs(orders []order.Order) []orderDTO {
	out := make([]orderDTO, len(orders))
	for i := range orders {
		out[i] = toOrderDTO(&orders[i])
	}
	return out
}
