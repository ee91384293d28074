// Package http 订单 HTTP 处理器
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	carthttp "github.com/wyfcoding/flowerdelivery/internal/cart/interfaces/http"
	notifyapp "github.com/wyfcoding/flowerdelivery/internal/notification/application"
	"github.com/wyfcoding/flowerdelivery/internal/order/application"
	"github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/metrics"
	"github.com/wyfcoding/flowerdelivery/pkg/response"
)

// OrderHandler HTTP 处理器
type OrderHandler struct {
	orders        *application.OrderService
	tracking      *application.TrackingService
	notifications *notifyapp.Manager
	metrics       *metrics.Metrics
}

// NewOrderHandler 创建 HTTP 处理器实例
func NewOrderHandler(orders *application.OrderService, tracking *application.TrackingService, notifications *notifyapp.Manager, m *metrics.Metrics) *OrderHandler {
	return &OrderHandler{orders: orders, tracking: tracking, notifications: notifications, metrics: m}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1")
	{
		api.GET("/orders", h.List)                      // 客户订单列表
		api.GET("/orders/:id", h.Get)                   // 订单详情
		api.PATCH("/orders/:id/status", h.UpdateStatus) // 推进订单状态
		api.POST("/orders/:id/track", h.Track)          // 推进一次配送模拟
		api.GET("/notifications", h.Notifications)      // 最近通知
	}
}

// List 按客户查询订单，最新在前
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), carthttp.CustomerID(c))
	if err != nil {
		response.Error(c, err.Error())
		return
	}
	response.Success(c, orders)
}

// Get 订单详情
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err.Error())
		return
	}
	if order == nil {
		response.NotFound(c, "order not found")
		return
	}
	response.Success(c, order)
}

// UpdateStatusRequest 状态推进请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 推进订单状态，非法跳转返回错误
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.Status(req.Status))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if h.metrics != nil && order != nil && order.Status.IsTerminal() {
		h.metrics.OrdersActive.Dec()
	}
	response.Success(c, gin.H{"id": c.Param("id"), "status": req.Status})
}

// Track 推进一次骑手位置模拟并返回最新订单
func (h *OrderHandler) Track(c *gin.Context) {
	order, err := h.tracking.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, order)
}

// Notifications 最近通知，limit 缺省为 20
func (h *OrderHandler) Notifications(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	response.Success(c, h.notifications.Recent(limit))
}
