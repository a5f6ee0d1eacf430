package dto

import (
	"time"

	"github.com/cTHE0/restaurant/internal/entity"
	"github.com/cTHE0/restaurant/internal/service/dashboard"
	ordersvc "github.com/cTHE0/restaurant/internal/service/order"
)

// OrderLineResponse is one expanded order line.
type OrderLineResponse struct {
	MenuItemID int64   `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
}

// OrderResponse is an order with its lines.
type OrderResponse struct {
	ID          int64               `json:"id"`
	TableNumber string              `json:"table_number"`
	Status      string              `json:"status"`
	Total       float64             `json:"total"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []OrderLineResponse `json:"items"`
}

// OrderStatusResponse reports the outcome of a status change.
type OrderStatusResponse struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmittedOrderResponse acknowledges a diner's order.
type SubmittedOrderResponse struct {
	OrderID int64   `json:"order_id"`
	Total   float64 `json:"total"`
	Status  string  `json:"status"`
}

// StatsResponse is the admin dashboard summary.
type StatsResponse struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	Today        int            `json:"today"`
	Pending      int            `json:"pending"`
	TotalRevenue float64        `json:"total_revenue"`
}

// Order maps an expanded order.
func Order(d *ordersvc.Detail) OrderResponse {
	resp := OrderResponse{
		ID:          d.Order.ID,
		TableNumber: d.Order.TableNumber,
		Status:      string(d.Order.Status),
		Total:       Money(d.Order.Total),
		CreatedAt:   d.Order.CreatedAt,
		UpdatedAt:   d.Order.UpdatedAt,
		Items:       make([]OrderLineResponse, 0, len(d.Lines)),
	}
	for _, line := range d.Lines {
		resp.Items = append(resp.Items, OrderLineResponse{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  Money(line.UnitPrice),
			LineTotal:  Money(line.LineTotal),
		})
	}
	return resp
}

// Orders maps a list of expanded orders.
func Orders(in []*ordersvc.Detail) []OrderResponse {
	out := make([]OrderResponse, 0, len(in))
	for _, d := range in {
		out = append(out, Order(d))
	}
	return out
}

// OrderStatus maps the order returned by a status change.
func OrderStatus(o *entity.Order) OrderStatusResponse {
	return OrderStatusResponse{
		ID:        o.ID,
		Status:    string(o.Status),
		Total:     Money(o.Total),
		UpdatedAt: o.UpdatedAt,
	}
}

// SubmittedOrder maps a freshly submitted order.
func SubmittedOrder(o *entity.Order) SubmittedOrderResponse {
	return SubmittedOrderResponse{
		OrderID: o.ID,
		Total:   Money(o.Total),
		Status:  string(o.Status),
	}
}

// Stats maps dashboard statistics.
func Stats(s dashboard.Stats) StatsResponse {
	byStatus := make(map[string]int, len(s.ByStatus))
	for status, n := range s.ByStatus {
		byStatus[string(status)] = n
	}
	return StatsResponse{
		Total:        s.Total,
		ByStatus:     byStatus,
		Today:        s.Today,
		Pending:      s.Pending,
		TotalRevenue: Money(s.TotalRevenue),
	}
}
