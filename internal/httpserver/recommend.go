package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/service/recommend"
	"github.com/Skotchmaster/recommend_shop/internal/util"
)

type RecommendHTTP struct {
	Svc *recommend.Service
}

func failure(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"success": false, "error": msg})
}

// recommendError answers 404 for the "nothing to recommend from" sentinels
// and 500 with fallback for everything else.
func recommendError(c echo.Context, event, fallback string, err error) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, recommend.ErrProductNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", "product not found")
		return failure(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, recommend.ErrNoHistory):
		l.Warn(event, "status", http.StatusNotFound, "reason", "no purchase history")
		return failure(c, http.StatusNotFound, "No purchase history found for this customer")
	case errors.Is(err, recommend.ErrNoOrdersWithItem):
		l.Warn(event, "status", http.StatusNotFound, "reason", "no orders with product")
		return failure(c, http.StatusNotFound, "No orders found with this product")
	}
	l.Error(event, "status", http.StatusInternalServerError, "error", err)
	return failure(c, http.StatusInternalServerError, fallback)
}

func (h *RecommendHTTP) Similar(c echo.Context) error {
	res, err := h.Svc.Similar(c.Request().Context(), c.Param("productCode"))
	if err != nil {
		return recommendError(c, "similar_failed", "Error getting recommendations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"sourceProduct":   res.Source,
		"recommendations": res.Recommendations,
	})
}

func (h *RecommendHTTP) Related(c echo.Context) error {
	res, err := h.Svc.Related(c.Request().Context(), c.Param("productCode"))
	if err != nil {
		return recommendError(c, "related_failed", "Failed to get related products", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"sourceProduct":   res.Source,
		"relatedProducts": res.Related,
	})
}

func (h *RecommendHTTP) ForCustomer(c echo.Context) error {
	res, err := h.Svc.ForCustomer(c.Request().Context(), c.Param("customerId"))
	if err != nil {
		return recommendError(c, "customer_recommendations_failed", "Error getting customer recommendations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"customerHistory": res.History,
		"recommendations": res.Recommendations,
	})
}

func (h *RecommendHTTP) FrequentlyBought(c echo.Context) error {
	items, err := h.Svc.FrequentlyBought(c.Request().Context(), c.Param("productCode"))
	if err != nil {
		return recommendError(c, "frequently_bought_failed", "Error finding frequently bought together products", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": items})
}

func (h *RecommendHTTP) YouMayLike(c echo.Context) error {
	res, err := h.Svc.YouMayLike(c.Request().Context(), c.Param("customerId"))
	if err != nil {
		return recommendError(c, "you_may_like_failed", "Error getting recommendations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"lastPurchase":    res.LastPurchase,
		"recommendations": res.Recommendations,
	})
}

func (h *RecommendHTTP) Search(c echo.Context) error {
	from, size := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	params := recommend.SearchParams{
		Name:     strings.TrimSpace(c.QueryParam("name")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		MinPrice: util.ParseFloat(c.QueryParam("minPrice")),
		MaxPrice: util.ParseFloat(c.QueryParam("maxPrice")),
		From:     from,
		Size:     size,
	}

	total, products, err := h.Svc.Search(c.Request().Context(), params)
	if err != nil {
		return recommendError(c, "search_failed", "Error searching products", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"total":    total,
		"products": products,
	})
}

func (h *RecommendHTTP) Customer(c echo.Context) error {
	id := c.Param("customerId")
	profile, err := h.Svc.Customer(c.Request().Context(), id)
	if err != nil {
		return recommendError(c, "customer_history_failed", "Error searching for customer history", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"customerInfo": echo.Map{
				"id":         profile.ID,
				"statistics": profile.Statistics,
			},
			"orders": profile.Orders,
		},
	})
}

func (h *RecommendHTTP) Customers(c echo.Context) error {
	customers, err := h.Svc.Customers(c.Request().Context())
	if err != nil {
		return recommendError(c, "customers_failed", "Failed to get customers", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": customers})
}
