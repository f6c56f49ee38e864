package handler

import (
	"net/http"

	"github.com/ordway/salesdesk/internal/domain/analytics"
	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/order"
	"github.com/ordway/salesdesk/internal/domain/product"
	"github.com/ordway/salesdesk/internal/domain/user"
)

// Handler serves the HTTP API, delegating business logic to the domain
// services. Routing uses method-qualified ServeMux patterns; serialization
// stays at this boundary so the domain packages never see JSON.
type Handler struct {
	orders    *order.Service
	analytics *analytics.Service
	customers *customer.Service
	products  *product.Service
	users     user.Repository
}

// New constructs a Handler with the required domain services.
func New(
	orders *order.Service,
	analyticsSvc *analytics.Service,
	customers *customer.Service,
	products *product.Service,
	users user.Repository,
) *Handler {
	return &Handler{
		orders:    orders,
		analytics: analyticsSvc,
		customers: customers,
		products:  products,
		users:     users,
	}
}

// Routes registers every API route on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/search", h.searchOrders)
	mux.HandleFunc("GET /api/orders/customer/{customerId}", h.ordersByCustomer)
	mux.HandleFunc("GET /api/orders/status/{status}", h.ordersByStatus)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}", h.updateOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)

	mux.HandleFunc("GET /api/analytics", h.getAnalytics)
	mux.HandleFunc("GET /api/analytics/metrics", h.getSalesMetrics)

	mux.HandleFunc("GET /api/me", h.me)

	mux.HandleFunc("POST /api/customers", h.createCustomer)
	mux.HandleFunc("GET /api/customers", h.listCustomers)
	mux.HandleFunc("GET /api/customers/search", h.searchCustomers)
	mux.HandleFunc("GET /api/customers/top", h.topCustomers)
	mux.HandleFunc("GET /api/customers/{id}", h.getCustomer)
	mux.HandleFunc("PUT /api/customers/{id}", h.updateCustomer)
	mux.HandleFunc("DELETE /api/customers/{id}", h.deleteCustomer)

	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/search", h.searchProducts)
	mux.HandleFunc("GET /api/products/categories", h.listCategories)
	mux.HandleFunc("GET /api/products/category/{category}", h.productsByCategory)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deleteProduct)
}
