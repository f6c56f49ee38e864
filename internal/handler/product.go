package handler

import (
	"net/http"

	"github.com/ordway/salesdesk/internal/domain/product"
)

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.products.Create(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, product.ErrNotFound)
		return
	}
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	sortBy, asc := sortParams(r, "createdAt")
	products, total, err := h.products.List(r.Context(), product.ListParams{
		Page:      page,
		Size:      size,
		SortBy:    sortBy,
		Ascending: asc,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(productDTOs(products), page, size, total))
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	products, total, err := h.products.Search(r.Context(), r.URL.Query().Get("query"), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(productDTOs(products), page, size, total))
}

func (h *Handler) productsByCategory(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	products, total, err := h.products.ByCategory(r.Context(), r.PathValue("category"), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(productDTOs(products), page, size, total))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, product.ErrNotFound)
		return
	}
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.products.Update(r.Context(), id, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, r, product.ErrNotFound)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productDTOs(products []product.Product) []productDTO {
	out := make([]productDTO, len(products))
	for i := range products {
		out[i] = toProductDTO(&products[i])
	}
	return out
}
