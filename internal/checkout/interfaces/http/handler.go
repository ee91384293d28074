// Package http 结算 HTTP 处理器
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	carthttp "github.com/wyfcoding/flowerdelivery/internal/cart/interfaces/http"
	"github.com/wyfcoding/flowerdelivery/internal/checkout/application"
	"github.com/wyfcoding/flowerdelivery/internal/checkout/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/metrics"
	"github.com/wyfcoding/flowerdelivery/pkg/response"
)

// CheckoutHandler HTTP 处理器
type CheckoutHandler struct {
	checkout *application.CheckoutService
	metrics  *metrics.Metrics
}

// NewCheckoutHandler 创建 HTTP 处理器实例
func NewCheckoutHandler(checkout *application.CheckoutService, m *metrics.Metrics) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, metrics: m}
}

// RegisterRoutes 注册路由
func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/checkout")
	{
		api.POST("/contact", h.SubmitContact) // 提交联系信息
		api.POST("/payment", h.SubmitPayment) // 提交支付信息
		api.POST("/submit", h.Submit)         // 提交订单
		api.GET("/profile", h.Profile)        // 预填档案
	}
}

// SubmitContact 校验并暂存联系信息，成功后写入客户档案
func (h *CheckoutHandler) SubmitContact(c *gin.Context) {
	var form domain.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if errs := h.checkout.SubmitContact(c.Request.Context(), carthttp.CustomerID(c), form); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": http.StatusUnprocessableEntity, "errors": errs})
		return
	}
	response.Success(c, gin.H{"staged": "contact"})
}

// SubmitPayment 校验并暂存支付信息
func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	var form domain.PaymentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if errs := h.checkout.SubmitPayment(c.Request.Context(), carthttp.CustomerID(c), form); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": http.StatusUnprocessableEntity, "errors": errs})
		return
	}
	response.Success(c, gin.H{"staged": "payment"})
}

// Submit 执行结算流水线，成功返回订单，失败返回带定位键的错误
func (h *CheckoutHandler) Submit(c *gin.Context) {
	customerID := carthttp.CustomerID(c)
	start := time.Now()
	order, submitErr := h.checkout.Submit(c.Request.Context(), customerID)
	if h.metrics != nil {
		h.metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	}
	if submitErr != nil {
		if h.metrics != nil && submitErr.Key == "payment" {
			// 支付失败时暂存的支付方式仍在会话中
			method := string(h.checkout.StagedPaymentMethod(customerID))
			if method == "" {
				method = "unknown"
			}
			h.metrics.PaymentFailures.WithLabelValues(method).Inc()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"code":  http.StatusUnprocessableEntity,
			"error": submitErr,
		})
		return
	}

	if h.metrics != nil {
		h.metrics.CheckoutsTotal.Inc()
		h.metrics.OrdersTotal.Inc()
		h.metrics.OrdersActive.Inc()
	}
	response.Success(c, order)
}

// Profile 返回客户上次结算留存的档案，用于表单预填
func (h *CheckoutHandler) Profile(c *gin.Context) {
	profile, ok := h.checkout.Profile(c.Request.Context(), carthttp.CustomerID(c))
	if !ok {
		response.NotFound(c, "profile not found")
		return
	}
	response.Success(c, profile)
}
