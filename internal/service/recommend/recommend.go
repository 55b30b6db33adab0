package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Skotchmaster/recommend_shop/internal/es"
	"github.com/Skotchmaster/recommend_shop/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrNoHistory        = errors.New("no purchase history found for this customer")
	ErrNoOrdersWithItem = errors.New("no orders found with this product")
)

// Service answers recommendation queries. All ranking happens in the search
// engine; this layer only builds query bodies and reshapes hits.
type Service struct {
	ES              *elasticsearch.Client
	ProductsIndex   string
	OrderItemsIndex string
}

func (s *Service) search(ctx context.Context, index string, body M, out any) error {
	buf, err := es.Body(body)
	if err != nil {
		return err
	}
	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(index),
		s.ES.Search.WithBody(buf),
	)
	if err := es.Decode(res, err, out); err != nil {
		return fmt.Errorf("search %s: %w", index, err)
	}
	return nil
}

func (s *Service) purchases(ctx context.Context, body M) (*es.SearchResponse[models.Purchase], error) {
	var resp es.SearchResponse[models.Purchase]
	if err := s.search(ctx, s.ProductsIndex, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func toProduct(p models.Purchase) models.Product {
	return models.Product{
		ProductCode: p.ProductCode,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Quantity:    p.QuantityOfProduct,
		PurchaseAt:  p.PurchaseDate,
		OrderID:     p.OrderID,
	}
}

func scored(h es.Hit[models.Purchase]) models.Product {
	return models.Product{
		ProductCode: h.Source.ProductCode,
		Name:        h.Source.Name,
		Description: h.Source.Description,
		Price:       h.Source.Price,
		Category:    h.Source.Category,
		Score:       h.Score,
	}
}

type SimilarResult struct {
	Source          models.ProductSummary
	Recommendations []models.Product
}

func (s *Service) Similar(ctx context.Context, productCode string) (*SimilarResult, error) {
	src, err := s.purchases(ctx, productByCodeQuery(productCode))
	if err != nil {
		return nil, err
	}
	if len(src.Hits.Hits) == 0 {
		return nil, ErrProductNotFound
	}
	product := src.Hits.Hits[0].Source

	resp, err := s.purchases(ctx, similarQuery(product.CombinationVector))
	if err != nil {
		return nil, err
	}

	recs := make([]models.Product, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		if h.Source.ProductCode == productCode {
			continue
		}
		recs = append(recs, toProduct(h.Source))
	}

	return &SimilarResult{
		Source: models.ProductSummary{
			ProductCode: product.ProductCode,
			Name:        product.Name,
			Category:    product.Category,
			Description: product.Description,
			Price:       product.Price,
		},
		Recommendations: recs,
	}, nil
}

type RelatedResult struct {
	Source  models.ProductSummary
	Related []models.RelatedProduct
}

// Related returns the nearest neighbours of productCode by embedding,
// without the product itself.
func (s *Service) Related(ctx context.Context, productCode string) (*RelatedResult, error) {
	src, err := s.purchases(ctx, productByCodeQuery(productCode))
	if err != nil {
		return nil, err
	}
	if len(src.Hits.Hits) == 0 {
		return nil, ErrProductNotFound
	}
	product := src.Hits.Hits[0].Source

	resp, err := s.purchases(ctx, relatedQuery(product.CombinationVector))
	if err != nil {
		return nil, err
	}

	related := make([]models.RelatedProduct, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		if h.Source.ProductCode == productCode {
			continue
		}
		related = append(related, models.RelatedProduct{
			ProductCode:     h.Source.ProductCode,
			Name:            h.Source.Name,
			Description:     h.Source.Description,
			Price:           h.Source.Price,
			Category:        h.Source.Category,
			SimilarityScore: h.Score,
		})
	}

	return &RelatedResult{
		Source: models.ProductSummary{
			ProductCode: product.ProductCode,
			Name:        product.Name,
			Category:    product.Category,
		},
		Related: related,
	}, nil
}

type CustomerResult struct {
	History         []models.Order
	Recommendations []models.Product
}

func (s *Service) ForCustomer(ctx context.Context, customerID string) (*CustomerResult, error) {
	hist, err := s.purchases(ctx, customerHistoryQuery(customerID, historyLimit))
	if err != nil {
		return nil, err
	}
	history := hist.Sources()
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	resp, err := s.purchases(ctx, customerRecommendationQuery(averageVector(history), history))
	if err != nil {
		return nil, err
	}

	recs := make([]models.Product, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		p := scored(h)
		p.Description = ""
		recs = append(recs, p)
	}
	return &CustomerResult{History: groupOrders(history), Recommendations: recs}, nil
}

type frequentAggs struct {
	ProductCounts struct {
		Buckets []struct {
			Key            models.FlexString `json:"key"`
			DocCount       int64             `json:"doc_count"`
			ProductDetails struct {
				Hits struct {
					Hits []es.Hit[models.Purchase] `json:"hits"`
				} `json:"hits"`
			} `json:"product_details"`
		} `json:"buckets"`
	} `json:"product_counts"`
}

// FrequentlyBought returns up to five products that share orders with
// productCode, most frequent first.
func (s *Service) FrequentlyBought(ctx context.Context, productCode string) ([]models.FrequentItem, error) {
	var orders es.SearchResponse[models.Purchase]
	if err := s.search(ctx, s.OrderItemsIndex, ordersWithProductQuery(productCode), &orders); err != nil {
		return nil, err
	}
	if len(orders.Hits.Hits) == 0 {
		return nil, ErrNoOrdersWithItem
	}

	orderIDs := make([]string, 0, len(orders.Hits.Hits))
	for _, h := range orders.Hits.Hits {
		orderIDs = append(orderIDs, string(h.Source.OrderID))
	}

	var resp es.SearchResponse[models.Purchase]
	if err := s.search(ctx, s.OrderItemsIndex, coPurchaseQuery(productCode, uniq(orderIDs)), &resp); err != nil {
		return nil, err
	}

	var aggs frequentAggs
	if len(resp.Aggregations) > 0 {
		if err := json.Unmarshal(resp.Aggregations, &aggs); err != nil {
			return nil, fmt.Errorf("decode aggregations: %w", err)
		}
	}

	items := make([]models.FrequentItem, 0, len(aggs.ProductCounts.Buckets))
	for _, b := range aggs.ProductCounts.Buckets {
		item := models.FrequentItem{ProductCode: string(b.Key), Frequency: b.DocCount}
		if hits := b.ProductDetails.Hits.Hits; len(hits) > 0 {
			item.Name = hits[0].Source.Name
			item.Category = hits[0].Source.Category
			item.Price = hits[0].Source.Price
		}
		items = append(items, item)
	}
	return items, nil
}

type YouMayLikeResult struct {
	LastPurchase    models.LastPurchase
	Recommendations []models.Product
}

// YouMayLike recommends products of the same category as the customer's
// most recent purchase, excluding that product.
func (s *Service) YouMayLike(ctx context.Context, customerID string) (*YouMayLikeResult, error) {
	hist, err := s.purchases(ctx, customerHistoryQuery(customerID, 1))
	if err != nil {
		return nil, err
	}
	if len(hist.Hits.Hits) == 0 {
		return nil, ErrNoHistory
	}
	last := hist.Hits.Hits[0].Source

	resp, err := s.purchases(ctx, youMayLikeQuery(last))
	if err != nil {
		return nil, err
	}

	recs := make([]models.Product, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		recs = append(recs, scored(h))
	}

	return &YouMayLikeResult{
		LastPurchase: models.LastPurchase{
			ProductCode:  last.ProductCode,
			Name:         last.Name,
			Category:     last.Category,
			Price:        last.Price,
			PurchaseDate: last.PurchaseDate,
		},
		Recommendations: recs,
	}, nil
}

func (s *Service) Search(ctx context.Context, p SearchParams) (int64, []models.Product, error) {
	resp, err := s.purchases(ctx, searchQuery(p))
	if err != nil {
		return 0, nil, err
	}

	prods := make([]models.Product, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		prods = append(prods, models.Product{
			ProductCode: h.Source.ProductCode,
			Name:        h.Source.Name,
			Description: h.Source.Description,
			Price:       h.Source.Price,
			Category:    h.Source.Category,
		})
	}
	return resp.Hits.Total.Value, prods, nil
}

type CustomerProfile struct {
	ID         string
	Statistics models.CustomerStatistics
	Orders     []models.Order
}

func (s *Service) Customer(ctx context.Context, customerID string) (*CustomerProfile, error) {
	hist, err := s.purchases(ctx, customerProfileQuery(customerID))
	if err != nil {
		return nil, err
	}
	purchases := hist.Sources()
	if len(purchases) == 0 {
		return nil, ErrNoHistory
	}

	orders := groupOrders(purchases)
	return &CustomerProfile{
		ID:         customerID,
		Statistics: statistics(orders, purchases),
		Orders:     orders,
	}, nil
}

// Customers lists customers found in a sample of the history index, each with
// the purchase lines of that sample in index order. Lines missing an order id
// or a product code are skipped.
func (s *Service) Customers(ctx context.Context) ([]models.CustomerSummary, error) {
	resp, err := s.purchases(ctx, customersQuery())
	if err != nil {
		return nil, err
	}

	out := []models.CustomerSummary{}
	pos := make(map[string]int)
	for _, p := range resp.Sources() {
		if p.OrderID == "" || p.ProductCode == "" {
			continue
		}
		line := models.CustomerPurchase{
			OrderID:      string(p.OrderID),
			ProductCode:  p.ProductCode,
			ProductName:  p.Name,
			Category:     p.Category,
			PurchaseDate: p.PurchaseDate,
			Description:  p.Description,
			Quantity:     p.QuantityOfProduct,
			Price:        p.Price,
		}
		id := string(p.CustomerID)
		i, ok := pos[id]
		if !ok {
			i = len(out)
			pos[id] = i
			out = append(out, models.CustomerSummary{CustomerID: id})
		}
		out[i].History = append(out[i].History, line)
	}
	return out, nil
}
