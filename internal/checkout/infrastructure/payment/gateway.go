// Package payment 模拟的外部支付网关
//
// 按支付方式模拟处理延迟与随机失败，银行卡走确定性的测试卡拒付，
// 随机源可注入，测试中可强制任意分支。
package payment

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/flowerdelivery/internal/checkout/domain"
	order "github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/logger"
)

// 确定性拒付的测试卡号
var declinedCards = map[string]string{
	"4000000000000002": "Your card was declined",
	"4000000000000069": "Your card has expired",
}

// 大额订单触发额外验证的阈值
var verificationThreshold = decimal.NewFromInt(10000)

// RandSource 可注入的随机源
type RandSource interface {
	Float64() float64
}

// Config 网关模拟参数
type Config struct {
	// 各支付方式的基础处理延迟
	CardDelay   time.Duration
	WalletDelay time.Duration
	CashDelay   time.Duration
	// 延迟抖动上限
	JitterMax time.Duration
	// 各支付方式的随机失败率
	CardFailureRate   float64
	WalletFailureRate float64
	// 大额订单需要额外验证的概率
	VerificationRate float64
	// 服务不可用的概率
	UnavailableRate float64
}

// DefaultConfig 默认模拟参数
func DefaultConfig() Config {
	return Config{
		CardDelay:         2500 * time.Millisecond,
		WalletDelay:       1500 * time.Millisecond,
		CashDelay:         500 * time.Millisecond,
		JitterMax:         time.Second,
		CardFailureRate:   0.05,
		WalletFailureRate: 0.02,
		VerificationRate:  0.10,
		UnavailableRate:   0.01,
	}
}

// SimulatedGateway 模拟支付网关
type SimulatedGateway struct {
	cfg Config
	rng RandSource
	now func() time.Time
}

// NewSimulatedGateway 创建模拟网关；rng 为 nil 时使用时间种子
func NewSimulatedGateway(cfg Config, rng RandSource, now func() time.Time) *SimulatedGateway {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &SimulatedGateway{cfg: cfg, rng: rng, now: now}
}

// Process 处理一笔支付
// 延迟期间尊重 ctx 取消/超时；取消时返回 ctx 错误，结果不再应用。
func (g *SimulatedGateway) Process(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	start := g.now()

	delay := g.delayFor(req.PaymentMethod)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	resp := g.evaluate(req)
	resp.ProcessingTimeMs = g.now().Sub(start).Milliseconds()

	if !resp.Success {
		logger.Info(ctx, "payment declined",
			"method", string(req.PaymentMethod),
			"error", resp.Error,
		)
	}
	return resp, nil
}

func (g *SimulatedGateway) delayFor(method order.PaymentMethod) time.Duration {
	var base time.Duration
	switch method {
	case order.PaymentCard:
		base = g.cfg.CardDelay
	case order.PaymentApplePay, order.PaymentGooglePay:
		base = g.cfg.WalletDelay
	default:
		base = g.cfg.CashDelay
	}
	jitter := time.Duration(g.rng.Float64() * float64(g.cfg.JitterMax))
	return base + jitter
}

func (g *SimulatedGateway) evaluate(req domain.PaymentRequest) *domain.PaymentResponse {
	// 罕见的整体服务不可用
	if g.rng.Float64() < g.cfg.UnavailableRate {
		return &domain.PaymentResponse{Error: "Payment service temporarily unavailable"}
	}

	if req.PaymentMethod == order.PaymentCard {
		if req.Card == nil {
			return &domain.PaymentResponse{Error: "Card details are missing"}
		}
		number := domain.StripCardNumber(req.Card.CardNumber)
		if msg, declined := declinedCards[number]; declined {
			return &domain.PaymentResponse{Error: msg}
		}
		if req.Card.Expired(g.now()) {
			return &domain.PaymentResponse{Error: "Card has expired"}
		}
		if errs := req.Card.Validate(g.now()); len(errs) > 0 {
			return &domain.PaymentResponse{Error: "Invalid card details"}
		}
	}

	if req.Amount.GreaterThan(verificationThreshold) && g.rng.Float64() < g.cfg.VerificationRate {
		return &domain.PaymentResponse{Error: "Payment requires additional verification"}
	}

	if g.rng.Float64() < g.failureRateFor(req.PaymentMethod) {
		return &domain.PaymentResponse{Error: "Payment could not be processed, please try again"}
	}

	return &domain.PaymentResponse{
		Success:       true,
		TransactionID: "txn_" + uuid.New().String(),
	}
}

func (g *SimulatedGateway) failureRateFor(method order.PaymentMethod) float64 {
	switch method {
	case order.PaymentCard:
		return g.cfg.CardFailureRate
	case order.PaymentApplePay, order.PaymentGooglePay:
		return g.cfg.WalletFailureRate
	default:
		return 0
	}
}
