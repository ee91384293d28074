// Package metrics 提供 Prometheus helper，包含店面业务指标模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/flowerdelivery/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 购物车变更计数
	CartMutationsTotal *prometheus.CounterVec
	// 购物车校验失败计数
	CartValidationFailures *prometheus.CounterVec

	// 结算请求计数
	CheckoutsTotal prometheus.Counter
	// 结算耗时
	CheckoutDuration prometheus.Histogram
	// 支付失败计数
	PaymentFailures *prometheus.CounterVec

	// 订单计数
	OrdersTotal prometheus.Counter
	// 活跃订单数
	OrdersActive prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CartMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "cart_mutations_total",
			Help:      "Total cart mutations by action",
		}, []string{"action"}),
		CartValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "cart_validation_failures_total",
			Help:      "Total cart validation failures by type",
		}, []string{"type"}),
		CheckoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "checkouts_total",
			Help:      "Total checkout submissions",
		}),
		CheckoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "checkout_duration_seconds",
			Help:      "Checkout processing duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30},
		}),
		PaymentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "payment_failures_total",
			Help:      "Total payment gateway failures by method",
		}, []string{"method"}),
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "orders_total",
			Help:      "Total orders placed",
		}),
		OrdersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "orders_active",
			Help:      "Orders not yet delivered or cancelled",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CartMutationsTotal,
		m.CartValidationFailures,
		m.CheckoutsTotal,
		m.CheckoutDuration,
		m.PaymentFailures,
		m.OrdersTotal,
		m.OrdersActive,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// Serve 启动指标 HTTP 服务
func Serve(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error(context.Background(), "metrics server failed", "addr", addr, "error", err)
		}
	}()
}
