package handler

import (
	"net/http"

	"github.com/ordway/salesdesk/internal/domain/customer"
)

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.customers.Create(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(c))
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, customer.ErrNotFound)
		return
	}
	c, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	sortBy, asc := sortParams(r, "createdAt")
	customers, total, err := h.customers.List(r.Context(), customer.ListParams{
		Page:      page,
		Size:      size,
		SortBy:    sortBy,
		Ascending: asc,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(customerDTOs(customers), page, size, total))
}

func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	customers, total, err := h.customers.Search(r.Context(), r.URL.Query().Get("query"), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(customerDTOs(customers), page, size, total))
}

func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)
	if limit < 1 || limit > 100 {
		limit = 5
	}
	customers, err := h.customers.Top(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerDTOs(customers))
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, customer.ErrNotFound)
		return
	}
	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.customers.Update(r.Context(), id, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, customer.ErrNotFound)
		return
	}
	if err := h.customers.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func customerDTOs(customers []customer.Customer) []customerDTO {
	out := make([]customerDTO, len(customers))
	for i := range customers {
		out[i] = toCustomerDTO(&customers[i])
	}
	return out
}
