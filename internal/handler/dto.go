package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordway/salesdesk/internal/domain/analytics"
	"github.com/ordway/salesdesk/internal/domain/customer"
	"github.com/ordway/salesdesk/internal/domain/order"
	"github.com/ordway/salesdesk/internal/domain/product"
)

// Monetary amounts cross the wire as JSON numbers; precision is preserved in
// the database and domain layer, where all arithmetic happens.

type orderDTO struct {
	ID              int64          `json:"id"`
	OrderNumber     string         `json:"orderNumber"`
	Customer        orderCustomer  `json:"customer"`
	Items           []orderItemDTO `json:"items"`
	Status          string         `json:"status"`
	Subtotal        float64        `json:"subtotal"`
	Tax             float64        `json:"tax"`
	Shipping        *float64       `json:"shipping"`
	Total           float64        `json:"total"`
	ShippingAddress string         `json:"shippingAddress,omitempty"`
	BillingAddress  string         `json:"billingAddress,omitempty"`
	PaymentMethod   string         `json:"paymentMethod,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	CreatedBy       int64          `json:"createdBy,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type orderCustomer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type orderItemDTO struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	ProductSKU  string  `json:"productSku"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

func toOrderDTO(o *order.Order) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			Price:       item.Price.InexactFloat64(),
			Total:       item.Total.InexactFloat64(),
		}
	}
	return orderDTO{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Customer: orderCustomer{
			ID:    o.CustomerID,
			Name:  o.CustomerName,
			Email: o.CustomerEmail,
		},
		Items:           items,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal.InexactFloat64(),
		Tax:             o.Tax.InexactFloat64(),
		Shipping:        optFloat(o.Shipping),
		Total:           o.Total.InexactFloat64(),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		CreatedBy:       o.CreatedBy,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type createOrderRequest struct {
	CustomerID      int64              `json:"customerId"`
	Items           []orderItemRequest `json:"items"`
	Status          string             `json:"status,omitempty"`
	Shipping        *float64           `json:"shipping,omitempty"`
	ShippingAddress string             `json:"shippingAddress,omitempty"`
	BillingAddress  string             `json:"billingAddress,omitempty"`
	PaymentMethod   string             `json:"paymentMethod,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

type orderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateOrderRequest struct {
	Status          string   `json:"status,omitempty"`
	Shipping        *float64 `json:"shipping,omitempty"`
	ShippingAddress string   `json:"shippingAddress,omitempty"`
	BillingAddress  string   `json:"billingAddress,omitempty"`
	PaymentMethod   string   `json:"paymentMethod,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

type customerDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	ZipCode     string    `json:"zipCode,omitempty"`
	Country     string    `json:"country,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	TotalSpent  float64   `json:"totalSpent"`
	TotalOrders int       `json:"totalOrders"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCustomerDTO(c *customer.Customer) customerDTO {
	return customerDTO{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Company:     c.Company,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		ZipCode:     c.ZipCode,
		Country:     c.Country,
		Notes:       c.Notes,
		Status:      string(c.Status),
		TotalSpent:  c.TotalSpent.InexactFloat64(),
		TotalOrders: c.TotalOrders,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (req customerRequest) toDomain() customer.CreateRequest {
	return customer.CreateRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
		Country: req.Country,
		Notes:   req.Notes,
		Status:  customer.Status(req.Status),
	}
}

type productDTO struct {
	ID            int64     `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	StockQuantity *int      `json:"stockQuantity"`
	Category      string    `json:"category,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Weight        *float64  `json:"weight,omitempty"`
	Dimensions    string    `json:"dimensions,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toProductDTO(p *product.Product) productDTO {
	return productDTO{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Weight:        optFloat(p.Weight),
		Dimensions:    p.Dimensions,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type productRequest struct {
	SKU           string   `json:"sku"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	StockQuantity *int     `json:"stockQuantity"`
	Category      string   `json:"category,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	Dimensions    string   `json:"dimensions,omitempty"`
}

func (req productRequest) toDomain() product.CreateRequest {
	return product.CreateRequest{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Price:         decimal.NewFromFloat(req.Price).Round(2),
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		Weight:        optDecimal(req.Weight),
		Dimensions:    req.Dimensions,
	}
}

type analyticsResponse struct {
	TotalSales        float64            `json:"totalSales"`
	TotalOrders       int64              `json:"totalOrders"`
	AverageOrderValue float64            `json:"averageOrderValue"`
	SalesByDate       []dateSalesDTO     `json:"salesByDate"`
	OrdersByStatus    []statusCountDTO   `json:"ordersByStatus"`
	TopProducts       []productSalesDTO  `json:"topProducts"`
	TopCustomers      []customerRankDTO  `json:"topCustomers"`
}

type dateSalesDTO struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type statusCountDTO struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type productSalesDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type customerRankDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TotalSpent  float64 `json:"totalSpent"`
	TotalOrders int     `json:"totalOrders"`
}

func toAnalyticsResponse(rep *analytics.Report) analyticsResponse {
	resp := analyticsResponse{
		TotalSales:        rep.TotalSales.InexactFloat64(),
		TotalOrders:       rep.TotalOrders,
		AverageOrderValue: rep.AverageOrderValue.InexactFloat64(),
		SalesByDate:       make([]dateSalesDTO, len(rep.SalesByDate)),
		OrdersByStatus:    make([]statusCountDTO, len(rep.OrdersByStatus)),
		TopProducts:       make([]productSalesDTO, len(rep.TopProducts)),
		TopCustomers:      make([]customerRankDTO, len(rep.TopCustomers)),
	}
	for i, d := range rep.SalesByDate {
		resp.SalesByDate[i] = dateSalesDTO{Date: d.Date, Amount: d.Amount.InexactFloat64()}
	}
	for i, sc := range rep.OrdersByStatus {
		resp.OrdersByStatus[i] = statusCountDTO{Status: string(sc.Status), Count: sc.Count}
	}
	for i, p := range rep.TopProducts {
		resp.TopProducts[i] = productSalesDTO{
			ID:       p.ID,
			Name:     p.Name,
			SKU:      p.SKU,
			Quantity: p.Quantity,
			Revenue:  p.Revenue.InexactFloat64(),
		}
	}
	for i, c := range rep.TopCustomers {
		resp.TopCustomers[i] = customerRankDTO{
			ID:          c.ID,
			Name:        c.Name,
			TotalSpent:  c.TotalSpent.InexactFloat64(),
			TotalOrders: c.TotalOrders,
		}
	}
	return resp
}

type salesMetricsResponse struct {
	TodaySales float64 `json:"todaySales"`
	WeekSales  float64 `json:"weekSales"`
	MonthSales float64 `json:"monthSales"`
	YearSales  float64 `json:"yearSales"`
}

func optFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func optDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f).Round(2)
	return &d
}
