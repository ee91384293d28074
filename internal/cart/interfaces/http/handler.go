// Package http 购物车 HTTP 处理器
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/flowerdelivery/internal/cart/application"
	catalogapp "github.com/wyfcoding/flowerdelivery/internal/catalog/application"
	"github.com/wyfcoding/flowerdelivery/pkg/metrics"
	"github.com/wyfcoding/flowerdelivery/pkg/response"
)

// CustomerID 从请求头解析客户标识，未登录时退回访客
func CustomerID(c *gin.Context) string {
	if id := c.GetHeader("X-Customer-ID"); id != "" {
		return id
	}
	return "guest"
}

// CartHandler HTTP 处理器
// 负责处理与购物车相关的 HTTP 请求
type CartHandler struct {
	cart    *cartapp.CartService
	catalog *catalogapp.CatalogService
	metrics *metrics.Metrics
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(cart *cartapp.CartService, catalog *catalogapp.CatalogService, m *metrics.Metrics) *CartHandler {
	return &CartHandler{cart: cart, catalog: catalog, metrics: m}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/cart")
	{
		api.GET("", h.GetCart)                            // 获取购物车
		api.POST("/items", h.AddItem)                     // 加购
		api.PATCH("/items/:productId", h.UpdateQuantity)  // 改数量
		api.DELETE("/items/:productId", h.RemoveItem)     // 移除
		api.DELETE("", h.ClearCart)                       // 清空
		api.POST("/validate", h.Validate)                 // 对照最新库存重校验
		api.GET("/ready", h.Ready)                        // 是否可结算
	}
}

// GetCart 获取购物车状态
func (h *CartHandler) GetCart(c *gin.Context) {
	state := h.cart.State(c.Request.Context(), CustomerID(c))
	response.Success(c, state)
}

// AddItemRequest 加购请求
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// AddItem 加购商品
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx := c.Request.Context()
	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	if errs := h.cart.AddItem(ctx, CustomerID(c), product, req.Quantity); len(errs) > 0 {
		h.count("add_rejected")
		if h.metrics != nil {
			h.metrics.CartValidationFailures.WithLabelValues(string(errs[0].Type)).Inc()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	h.count("add")
	response.Success(c, h.cart.State(ctx, CustomerID(c)))
}

// UpdateQuantityRequest 数量变更请求
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity 修改商品数量，0 等价于移除
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	h.cart.UpdateQuantity(ctx, CustomerID(c), c.Param("productId"), req.Quantity)
	h.count("update_quantity")
	response.Success(c, h.cart.State(ctx, CustomerID(c)))
}

// RemoveItem 移除商品
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()
	h.cart.RemoveItem(ctx, CustomerID(c), c.Param("productId"))
	h.count("remove")
	response.Success(c, h.cart.State(ctx, CustomerID(c)))
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	ctx := c.Request.Context()
	h.cart.Clear(ctx, CustomerID(c))
	h.count("clear")
	response.Success(c, h.cart.State(ctx, CustomerID(c)))
}

// Validate 对照最新目录数据重校验整车
func (h *CartHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()
	fresh, err := h.catalog.ListProducts(ctx, "", "")
	if err != nil {
		response.Error(c, err.Error())
		return
	}
	result := h.cart.Validate(ctx, CustomerID(c), fresh)
	response.Success(c, result)
}

// Ready 判断购物车是否可进入结算
func (h *CartHandler) Ready(c *gin.Context) {
	ready, errs := h.cart.ReadyForCheckout(c.Request.Context(), CustomerID(c))
	response.Success(c, gin.H{"ready": ready, "errors": errs})
}

func (h *CartHandler) count(action string) {
	if h.metrics != nil {
		h.metrics.CartMutationsTotal.WithLabelValues(action).Inc()
	}
}
