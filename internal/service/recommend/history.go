package recommend

import (
	"fmt"

	"github.com/Skotchmaster/recommend_shop/internal/models"
)

// averageVector is the element-wise mean of the purchase embeddings. Shorter
// vectors contribute zeros to the missing positions.
func averageVector(purchases []models.Purchase) []float64 {
	if len(purchases) == 0 {
		return nil
	}
	var avg []float64
	n := float64(len(purchases))
	for _, p := range purchases {
		for i, v := range p.CombinationVector {
			if i >= len(avg) {
				avg = append(avg, make([]float64, i-len(avg)+1)...)
			}
			avg[i] += v / n
		}
	}
	return avg
}

// groupOrders folds purchase lines into orders, keeping the order in which
// each order id first appears.
func groupOrders(purchases []models.Purchase) []models.Order {
	index := map[models.FlexString]int{}
	orders := []models.Order{}
	for _, p := range purchases {
		i, ok := index[p.OrderID]
		if !ok {
			i = len(orders)
			index[p.OrderID] = i
			orders = append(orders, models.Order{
				OrderID:      string(p.OrderID),
				PurchaseDate: p.PurchaseDate,
				Items:        []models.OrderItem{},
			})
		}
		orders[i].Items = append(orders[i].Items, models.OrderItem{
			ProductCode: p.ProductCode,
			Name:        p.Name,
			Category:    p.Category,
			Description: p.Description,
			Quantity:    p.QuantityOfProduct,
			Price:       p.Price,
		})
	}
	return orders
}

func statistics(orders []models.Order, purchases []models.Purchase) models.CustomerStatistics {
	var spent float64
	for _, p := range purchases {
		spent += p.Price * float64(p.QuantityOfProduct)
	}
	return models.CustomerStatistics{
		TotalOrders: len(orders),
		TotalItems:  len(purchases),
		TotalSpent:  fmt.Sprintf("%.2f", spent),
	}
}
