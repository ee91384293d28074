// Package http 配送预估 HTTP 处理器
package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/flowerdelivery/internal/cart/application"
	carthttp "github.com/wyfcoding/flowerdelivery/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/flowerdelivery/internal/catalog/application"
	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	"github.com/wyfcoding/flowerdelivery/internal/delivery/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/response"
)

// EstimateHandler HTTP 处理器
type EstimateHandler struct {
	estimator *domain.Estimator
	catalog   *catalogapp.CatalogService
	cart      *cartapp.CartService
}

// NewEstimateHandler 创建 HTTP 处理器实例
func NewEstimateHandler(estimator *domain.Estimator, catalogSvc *catalogapp.CatalogService, cart *cartapp.CartService) *EstimateHandler {
	return &EstimateHandler{estimator: estimator, catalog: catalogSvc, cart: cart}
}

// RegisterRoutes 注册路由
func (h *EstimateHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1")
	{
		api.GET("/shops/:id/estimate", h.ShopEstimate) // 单店铺预估
		api.GET("/cart/estimate", h.CartEstimate)      // 整车预估
	}
}

// ShopEstimate 单店铺配送预估
func (h *EstimateHandler) ShopEstimate(c *gin.Context) {
	ctx := c.Request.Context()
	shop, err := h.catalog.GetShop(ctx, c.Param("id"))
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	est := h.estimator.Estimate(shop, customerCoords(c), nil, time.Now(), orderVolume(c))
	response.Success(c, est)
}

// CartEstimate 整车配送预估，多店铺时取最慢店铺并追加协调时间
func (h *EstimateHandler) CartEstimate(c *gin.Context) {
	ctx := c.Request.Context()
	items := h.cart.SnapshotItems(ctx, carthttp.CustomerID(c))
	if len(items) == 0 {
		response.BadRequest(c, "cart is empty")
		return
	}

	byShop := map[string][]domain.Item{}
	for _, it := range items {
		byShop[it.ShopID] = append(byShop[it.ShopID], domain.Item{
			Category: it.Product.Category,
			Quantity: it.Quantity,
		})
	}

	var groups []domain.ShopItems
	for shopID, shopItems := range byShop {
		shop, err := h.catalog.GetShop(ctx, shopID)
		if err != nil {
			response.Error(c, err.Error())
			return
		}
		groups = append(groups, domain.ShopItems{Shop: shop, Items: shopItems})
	}

	est := h.estimator.EstimateCart(groups, customerCoords(c), time.Now(), orderVolume(c))
	response.Success(c, est)
}

// customerCoords 解析客户坐标；缺省时返回 nil，预估退回店铺兜底距离
func customerCoords(c *gin.Context) *catalog.Coordinates {
	latS, lngS := c.Query("lat"), c.Query("lng")
	if latS == "" || lngS == "" {
		return nil
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lng, err2 := strconv.ParseFloat(lngS, 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &catalog.Coordinates{Lat: lat, Lng: lng}
}

func orderVolume(c *gin.Context) int {
	v, err := strconv.Atoi(c.Query("order_volume"))
	if err != nil {
		return 0
	}
	return v
}
