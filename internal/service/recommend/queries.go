package recommend

import (
	"strings"

	"github.com/Skotchmaster/recommend_shop/internal/models"
)

const (
	vectorField = "combination_vector"

	similarK        = 100
	relatedK        = 5
	relatedSize     = 10
	customerK       = 30
	youMayLikeK     = 10
	frequentBuckets = 5
	historyLimit    = 100
	ordersLimit     = 100
	customersLimit  = 100
)

type M = map[string]any

// knn builds a query-level kNN clause. The candidate pool is ten times k
// with a floor of 100.
func knn(vector []float64, k int) M {
	candidates := k * 10
	if candidates < 100 {
		candidates = 100
	}
	return M{
		"knn": M{
			"field":          vectorField,
			"query_vector":   vector,
			"k":              k,
			"num_candidates": candidates,
		},
	}
}

func term(field string, value any) M {
	return M{"term": M{field: value}}
}

func terms(field string, values any) M {
	return M{"terms": M{field: values}}
}

func byPurchaseDateDesc() []M {
	return []M{{"purchase_date": M{"order": "desc"}}}
}

func productByCodeQuery(productCode string) M {
	return M{
		"query": term("productCode", productCode),
		"size":  1,
	}
}

func similarQuery(vector []float64) M {
	return M{
		"size":  similarK,
		"query": knn(vector, similarK),
	}
}

func relatedQuery(vector []float64) M {
	return M{
		"size":  relatedSize,
		"query": knn(vector, relatedK),
	}
}

func customersQuery() M {
	return M{
		"query": M{"match_all": M{}},
		"_source": []string{
			"id_customer", "order_id", "productCode", "name", "category",
			"purchase_date", "description", "quantity_of_product", "price",
		},
		"size": customersLimit,
	}
}

func customerHistoryQuery(customerID string, size int) M {
	return M{
		"query": term("id_customer", customerID),
		"sort":  byPurchaseDateDesc(),
		"size":  size,
	}
}

func customerProfileQuery(customerID string) M {
	return M{
		"query": M{"match": M{"id_customer": customerID}},
		"sort":  byPurchaseDateDesc(),
		"size":  historyLimit,
	}
}

func customerRecommendationQuery(avg []float64, history []models.Purchase) M {
	categories := make([]string, 0, len(history))
	codes := make([]string, 0, len(history))
	for _, p := range history {
		categories = append(categories, p.Category)
		codes = append(codes, p.ProductCode)
	}
	return M{
		"size": historyLimit,
		"query": M{
			"bool": M{
				"must":     []M{knn(avg, customerK)},
				"should":   []M{terms("category", uniq(categories))},
				"must_not": []M{terms("productCode", uniq(codes))},
			},
		},
	}
}

func ordersWithProductQuery(productCode string) M {
	return M{
		"query":   term("productCode", productCode),
		"_source": []string{"order_id"},
		"size":    ordersLimit,
	}
}

func coPurchaseQuery(productCode string, orderIDs []string) M {
	return M{
		"size": 0,
		"query": M{
			"bool": M{
				"must": []M{
					terms("order_id", orderIDs),
					{"bool": M{"must_not": term("productCode", productCode)}},
				},
			},
		},
		"aggs": M{
			"product_counts": M{
				"terms": M{"field": "productCode", "size": frequentBuckets},
				"aggs": M{
					"product_details": M{
						"top_hits": M{
							"size":    1,
							"_source": []string{"name", "category", "price"},
						},
					},
				},
			},
		},
	}
}

func youMayLikeQuery(last models.Purchase) M {
	return M{
		"size": youMayLikeK,
		"query": M{
			"bool": M{
				"must": []M{knn(last.CombinationVector, youMayLikeK)},
				"must_not": []M{
					term("productCode", last.ProductCode),
					{"bool": M{"must_not": term("category", last.Category)}},
				},
			},
		},
	}
}

type SearchParams struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
	From     int
	Size     int
}

func searchQuery(p SearchParams) M {
	must := []M{}
	if p.Name != "" {
		must = append(must, M{
			"multi_match": M{
				"query":  p.Name,
				"fields": []string{"name^3", "description"},
			},
		})
	}
	if p.Category != "" {
		must = append(must, term("category", strings.ToLower(p.Category)))
	}
	if p.MinPrice != nil || p.MaxPrice != nil {
		rng := M{}
		if p.MinPrice != nil {
			rng["gte"] = *p.MinPrice
		}
		if p.MaxPrice != nil {
			rng["lte"] = *p.MaxPrice
		}
		must = append(must, M{"range": M{"price": rng}})
	}

	return M{
		"query": M{"bool": M{"must": must}},
		"sort":  []any{M{"_score": "desc"}, M{"price": "asc"}},
		"from":  p.From,
		"size":  p.Size,
	}
}

func uniq(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
