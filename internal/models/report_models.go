package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// DashboardSummary is the landing page of the statistics area.
type DashboardSummary struct {
	Today                   PeriodStats   `json:"today"`
	ThisMonth               MonthStats    `json:"this_month"`
	OrderStatusDistribution []StatusCount `json:"order_status_distribution"`
	TopProducts             []TopProduct  `json:"top_products"`
}

type PeriodStats struct {
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type MonthStats struct {
	Orders        int             `json:"orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	OrderGrowth   decimal.Decimal `json:"order_growth"`   // percent vs previous month
	RevenueGrowth decimal.Decimal `json:"revenue_growth"` // percent vs previous month
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type TopProduct struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SalesReportParams selects the reported range. DateTo is inclusive.
type SalesReportParams struct {
	DateFrom time.Time
	DateTo   time.Time
	GroupBy  string
}

type SalesReport struct {
	DateFrom     time.Time      `json:"date_from"`
	DateTo       time.Time      `json:"date_to"`
	GroupBy      string         `json:"group_by"`
	Summary      SalesSummary   `json:"summary"`
	SalesData    []SalesBucket  `json:"sales_data"`
	ProductSales []ProductSales `json:"product_sales"`
}

type SalesSummary struct {
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TotalItemsSold    int             `json:"total_items_sold"`
}

type SalesBucket struct {
	Period            string          `json:"period"`
	Orders            int             `json:"orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type ProductSales struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// PaginatedResponse wraps list endpoints.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalCount int         `json:"total_count"`
}
