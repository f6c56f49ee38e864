package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ordway/salesdesk/internal/domain/analytics"
	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/order"
	"github.com/ordway/salesdesk/internal/domain/product"
	"github.com/ordway/salesdesk/internal/domain/user"
)

// errorBody is the JSON envelope for every error response.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// pageBody is the pagination envelope for listing responses.
type pageBody[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int64 `json:"totalPages"`
}

func newPage[T any](content []T, page, size int, total int64) pageBody[T] {
	pages := int64(0)
	if size > 0 {
		pages = (total + int64(size) - 1) / int64(size)
	}
	if content == nil {
		content = []T{}
	}
	return pageBody[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorBody{Code: code, Message: message, Details: details})
}

// writeError maps a domain error to its HTTP status and JSON body. Unknown
// errors become 500 STORAGE_ERROR and are logged with the request context.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return

	case errors.Is(err, customer.ErrEmailTaken):
		writeErrorBody(w, http.StatusConflict, "CONFLICT_UNIQUE", err.Error(),
			map[string]any{"field": "email"})
		return
	case errors.Is(err, product.ErrSKUTaken):
		writeErrorBody(w, http.StatusConflict, "CONFLICT_UNIQUE", err.Error(),
			map[string]any{"field": "sku"})
		return
	case errors.Is(err, order.ErrNumberCollision):
		writeErrorBody(w, http.StatusConflict, "ID_COLLISION", err.Error(), nil)
		return

	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrNegativeShipping),
		errors.Is(err, customer.ErrNameRequired),
		errors.Is(err, customer.ErrInvalidEmail),
		errors.Is(err, customer.ErrReferenced),
		errors.Is(err, product.ErrNameRequired),
		errors.Is(err, product.ErrSKURequired),
		errors.Is(err, product.ErrNegativePrice),
		errors.Is(err, product.ErrReferenced),
		errors.Is(err, analytics.ErrInvalidRange):
		writeErrorBody(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	var stockErr *order.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeErrorBody(w, http.StatusBadRequest, "INSUFFICIENT_STOCK", stockErr.Error(),
			map[string]any{
				"productId": stockErr.ProductID,
				"requested": stockErr.Requested,
				"available": stockErr.Available,
			})
		return
	}

	var transitionErr *order.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		writeErrorBody(w, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", transitionErr.Error(),
			map[string]any{
				"from": string(transitionErr.From),
				"to":   string(transitionErr.To),
			})
		return
	}

	var productErr *order.ProductNotFoundError
	if errors.As(err, &productErr) {
		writeErrorBody(w, http.StatusNotFound, "NOT_FOUND", productErr.Error(),
			map[string]any{"productId": productErr.ProductID})
		return
	}

	var quantityErr *order.InvalidQuantityError
	if errors.As(err, &quantityErr) {
		writeErrorBody(w, http.StatusBadRequest, "VALIDATION", quantityErr.Error(),
			map[string]any{"productId": quantityErr.ProductID})
		return
	}

	var statusErr *order.UnknownStatusError
	if errors.As(err, &statusErr) {
		writeErrorBody(w, http.StatusBadRequest, "VALIDATION", statusErr.Error(), nil)
		return
	}

	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeErrorBody(w, http.StatusInternalServerError, "STORAGE_ERROR", "internal error", nil)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// pageParams extracts page/size query parameters with the API defaults.
func pageParams(r *http.Request) (page, size int) {
	page = queryInt(r, "page", 0)
	size = queryInt(r, "size", 10)
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 200 {
		size = 10
	}
	return page, size
}

// sortParams extracts sortBy/direction with the given default field.
// Direction defaults to descending, matching the dashboards.
func sortParams(r *http.Request, defaultSort string) (sortBy string, ascending bool) {
	sortBy = r.URL.Query().Get("sortBy")
	if sortBy == "" {
		sortBy = defaultSort
	}
	return sortBy, r.URL.Query().Get("direction") == "asc"
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "VALIDATION", "malformed JSON body", nil)
		return false
	}
	return true
}
