package models

import (
	"bytes"
	"encoding/json"
)

// FlexString decodes from a JSON string or number. Order and customer ids
// are numeric in some product histories and strings in others.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Purchase is one document of the products history index: a product line of a
// customer's order together with the product embedding.
type Purchase struct {
	ProductCode       string     `json:"productCode"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Price             float64    `json:"price"`
	Category          string     `json:"category"`
	QuantityOfProduct int        `json:"quantity_of_product"`
	PurchaseDate      string     `json:"purchase_date,omitempty"`
	OrderID           FlexString `json:"order_id,omitempty"`
	CustomerID        FlexString `json:"id_customer,omitempty"`
	CombinationVector []float64  `json:"combination_vector,omitempty"`
}

type ProductSummary struct {
	ProductCode string  `json:"productCode"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

type Product struct {
	ProductCode string     `json:"productCode"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	Quantity    int        `json:"quantity_of_product,omitempty"`
	PurchaseAt  string     `json:"purchase_date,omitempty"`
	OrderID     FlexString `json:"order_id,omitempty"`
	Score       *float64   `json:"score,omitempty"`
}

type OrderItem struct {
	ProductCode string  `json:"productCode"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Order struct {
	OrderID      string      `json:"orderId"`
	PurchaseDate string      `json:"purchaseDate"`
	Items        []OrderItem `json:"items"`
}

type FrequentItem struct {
	ProductCode string  `json:"productCode"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Frequency   int64   `json:"frequency"`
}

type LastPurchase struct {
	ProductCode  string  `json:"productCode"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	PurchaseDate string  `json:"purchaseDate"`
}

type CustomerStatistics struct {
	TotalOrders int    `json:"totalOrders"`
	TotalItems  int    `json:"totalItems"`
	TotalSpent  string `json:"totalSpent"`
}

type RelatedProduct struct {
	ProductCode     string   `json:"productCode"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Price           float64  `json:"price"`
	Category        string   `json:"category"`
	SimilarityScore *float64 `json:"similarity_score"`
}

// CustomerPurchase is one line of a customer listing.
type CustomerPurchase struct {
	OrderID      string  `json:"orderId"`
	ProductCode  string  `json:"productCode"`
	ProductName  string  `json:"productName"`
	Category     string  `json:"category"`
	PurchaseDate string  `json:"purchaseDate"`
	Description  string  `json:"description,omitempty"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

type CustomerSummary struct {
	CustomerID string             `json:"customerId"`
	History    []CustomerPurchase `json:"history"`
}
