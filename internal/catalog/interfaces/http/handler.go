// Package http 目录 HTTP 处理器
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/flowerdelivery/internal/catalog/application"
	"github.com/wyfcoding/flowerdelivery/pkg/response"
)

// CatalogHandler HTTP 处理器
type CatalogHandler struct {
	catalog *application.CatalogService
}

// NewCatalogHandler 创建 HTTP 处理器实例
func NewCatalogHandler(catalog *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1")
	{
		api.GET("/shops", h.ListShops)          // 店铺列表
		api.GET("/shops/:id", h.GetShop)        // 店铺详情
		api.GET("/products", h.ListProducts)    // 商品列表
		api.GET("/products/:id", h.GetProduct)  // 商品详情
	}
}

// ListShops 店铺列表
func (h *CatalogHandler) ListShops(c *gin.Context) {
	shops, err := h.catalog.ListShops(c.Request.Context())
	if err != nil {
		response.Error(c, err.Error())
		return
	}
	response.Success(c, shops)
}

// GetShop 店铺详情
func (h *CatalogHandler) GetShop(c *gin.Context) {
	shop, err := h.catalog.GetShop(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}
	response.Success(c, shop)
}

// ListProducts 商品列表，支持 shop_id/category 过滤
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), c.Query("shop_id"), c.Query("category"))
	if err != nil {
		response.Error(c, err.Error())
		return
	}
	response.Success(c, products)
}

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}
	response.Success(c, product)
}
