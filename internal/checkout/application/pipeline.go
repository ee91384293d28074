// Package application 结算流水线
//
// 两阶段采集（联系人/地址 → 支付方式），各自独立校验后暂存；
// 提交时按 金额校验 → 支付网关 → 订单写入+清车（saga）→ 事件 顺序执行。
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	cartdomain "github.com/wyfcoding/flowerdelivery/internal/cart/domain"
	"github.com/wyfcoding/flowerdelivery/internal/checkout/domain"
	orderdomain "github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/logger"
	"github.com/wyfcoding/flowerdelivery/pkg/storage"
	"github.com/wyfcoding/flowerdelivery/pkg/utils"
)

const profileKeyPrefix = "profile:"

// CartPort 结算对购物车的依赖
type CartPort interface {
	ReadyForCheckout(ctx context.Context, customerID string) (bool, []cartdomain.ValidationError)
	State(ctx context.Context, customerID string) cartdomain.State
	Clear(ctx context.Context, customerID string)
	Restore(ctx context.Context, customerID string, items []cartdomain.Item)
}

// OrderWriter 结算对订单存储的依赖
type OrderWriter interface {
	Add(ctx context.Context, order *orderdomain.Order) error
	Update(ctx context.Context, order *orderdomain.Order) error
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Notifier 下单完成信号的进程内消费方
type Notifier interface {
	OrderPlaced(ctx context.Context, event orderdomain.OrderPlacedEvent)
}

// SubmitError 提交失败原因
// Key 为 "payment" 时可重试，购物车与已录入数据保持不变。
type SubmitError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

func (e *SubmitError) Error() string { return e.Message }

// Config 结算配置
type Config struct {
	// 订单金额下限（₴）
	MinOrderAmount decimal.Decimal
	// 订单金额上限（₴）
	MaxOrderAmount decimal.Decimal
	// 支付网关硬超时
	GatewayTimeout time.Duration
}

// session 每个客户暂存的结算数据
type session struct {
	contact *domain.ContactForm
	payment *domain.PaymentForm
}

// CheckoutService 结算流水线
type CheckoutService struct {
	mu       sync.Mutex
	sessions map[string]*session

	cart      CartPort
	orders    OrderWriter
	gateway   domain.PaymentGateway
	store     storage.Store
	publisher EventPublisher
	notifier  Notifier
	ids       *utils.SnowflakeID
	cfg       Config
	now       func() time.Time
}

// NewCheckoutService 创建结算流水线实例
func NewCheckoutService(
	cart CartPort,
	orders OrderWriter,
	gateway domain.PaymentGateway,
	store storage.Store,
	publisher EventPublisher,
	notifier Notifier,
	ids *utils.SnowflakeID,
	cfg Config,
	now func() time.Time,
) *CheckoutService {
	if now == nil {
		now = time.Now
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 30 * time.Second
	}
	return &CheckoutService{
		sessions:  make(map[string]*session),
		cart:      cart,
		orders:    orders,
		gateway:   gateway,
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		ids:       ids,
		cfg:       cfg,
		now:       now,
	}
}

func (s *CheckoutService) session(customerID string) *session {
	if sess, ok := s.sessions[customerID]; ok {
		return sess
	}
	sess := &session{}
	s.sessions[customerID] = sess
	return sess
}

// SubmitContact 第一阶段：联系人与地址
// 校验通过后暂存，并把资料写入存储供后续结算预填。
func (s *CheckoutService) SubmitContact(ctx context.Context, customerID string, form domain.ContactForm) map[string]string {
	if errs := form.Validate(); len(errs) > 0 {
		return errs
	}

	s.mu.Lock()
	s.session(customerID).contact = &form
	s.mu.Unlock()

	profile := domain.CustomerProfile{
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Address: form.Address(),
	}
	if err := s.store.SetJSON(ctx, profileKeyPrefix+customerID, profile); err != nil {
		logger.Warn(ctx, "failed to cache customer profile", "customer_id", customerID, "error", err)
	}
	return nil
}

// Profile 返回缓存的客户资料，用于结算预填
func (s *CheckoutService) Profile(ctx context.Context, customerID string) (*domain.CustomerProfile, bool) {
	var p domain.CustomerProfile
	if !s.store.GetJSON(ctx, profileKeyPrefix+customerID, &p) {
		return nil, false
	}
	return &p, true
}

// SubmitPayment 第二阶段：支付方式
func (s *CheckoutService) SubmitPayment(ctx context.Context, customerID string, form domain.PaymentForm) map[string]string {
	if errs := form.Validate(s.now()); len(errs) > 0 {
		return errs
	}

	s.mu.Lock()
	s.session(customerID).payment = &form
	s.mu.Unlock()
	return nil
}

// StagedPaymentMethod 返回已暂存的支付方式，未暂存时为空
func (s *CheckoutService) StagedPaymentMethod(customerID string) orderdomain.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[customerID]; ok && sess.payment != nil {
		return sess.payment.Method
	}
	return ""
}

// Submit 提交结算
// 金额越界在调用网关之前拒绝；网关失败返回可重试的 payment 错误，
// 购物车与已录入数据保持原样；成功后订单写入与清车在同一个 saga 中完成。
func (s *CheckoutService) Submit(ctx context.Context, customerID string) (*orderdomain.Order, *SubmitError) {
	s.mu.Lock()
	sess := s.session(customerID)
	contact, paymentForm := sess.contact, sess.payment
	s.mu.Unlock()

	if contact == nil {
		return nil, &SubmitError{Key: "general", Message: "Delivery details are required before payment"}
	}
	if paymentForm == nil {
		return nil, &SubmitError{Key: "general", Message: "A payment method is required"}
	}

	if ready, errs := s.cart.ReadyForCheckout(ctx, customerID); !ready {
		return nil, &SubmitError{Key: "general", Message: errs[0].Message}
	}

	// 条目快照与金额取自同一次读取，支付期间的购物车变更不会进入订单
	state := s.cart.State(ctx, customerID)
	frozen := state.SnapshotItems()
	if serr := s.checkAmount(state.TotalAmount); serr != nil {
		return nil, serr
	}

	resp, serr := s.processPayment(ctx, customerID, state.TotalAmount, contact, paymentForm)
	if serr != nil {
		return nil, serr
	}

	now := s.now()
	order := &orderdomain.Order{
		ID:                    fmt.Sprintf("ord_%d", s.ids.Generate()),
		CustomerID:            customerID,
		Items:                 frozen,
		TotalAmount:           state.TotalAmount,
		Status:                orderdomain.StatusConfirmed,
		DeliveryAddress:       contact.Address(),
		EstimatedDeliveryTime: now.Add(time.Duration(state.EstimatedDeliveryTime) * time.Minute),
		CreatedAt:             now,
		UpdatedAt:             now,
		PaymentMethod:         paymentForm.Method,
		DeliveryInstructions:  contact.DeliveryInstructions,
	}

	steps := []Step{
		&createOrderStep{orders: s.orders, order: order, now: s.now},
		&clearCartStep{cart: s.cart, customerID: customerID, snapshot: order.Items},
	}
	if err := runSaga(ctx, steps); err != nil {
		logger.Error(ctx, "failed to finalize order", "order_id", order.ID, "error", err)
		return nil, &SubmitError{Key: "general", Message: "Failed to finalize your order, please try again"}
	}

	s.mu.Lock()
	sess.payment = nil
	s.mu.Unlock()

	event := orderdomain.OrderPlacedEvent{
		OrderID:           order.ID,
		CustomerID:        customerID,
		EstimatedDelivery: order.EstimatedDeliveryTime,
		Timestamp:         now,
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "order.placed", customerID, event); err != nil {
			logger.Warn(ctx, "failed to publish order placed event", "order_id", order.ID, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, event)
	}

	logger.Info(ctx, "order placed",
		"order_id", order.ID,
		"customer_id", customerID,
		"total", order.TotalAmount.String(),
		"transaction_id", resp.TransactionID,
	)
	return order, nil
}

func (s *CheckoutService) checkAmount(amount decimal.Decimal) *SubmitError {
	switch {
	case amount.LessThanOrEqual(decimal.Zero):
		return &SubmitError{Key: "general", Message: "Order total must be greater than zero"}
	case amount.LessThan(s.cfg.MinOrderAmount):
		return &SubmitError{Key: "general", Message: fmt.Sprintf("Minimum order amount is ₴%s", s.cfg.MinOrderAmount.String())}
	case amount.GreaterThan(s.cfg.MaxOrderAmount):
		return &SubmitError{Key: "general", Message: fmt.Sprintf("Maximum order amount is ₴%s", s.cfg.MaxOrderAmount.String())}
	}
	return nil
}

// processPayment 调用支付网关，带硬超时；超时与取消都折算为可重试的 payment 错误
func (s *CheckoutService) processPayment(ctx context.Context, customerID string, amount decimal.Decimal, contact *domain.ContactForm, form *domain.PaymentForm) (*domain.PaymentResponse, *SubmitError) {
	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	req := domain.PaymentRequest{
		Amount:        amount,
		PaymentMethod: form.Method,
		Card:          form.Card,
		CustomerInfo: domain.CustomerInfo{
			Name:  contact.Name,
			Email: contact.Email,
			Phone: contact.Phone,
		},
	}

	resp, err := s.gateway.Process(gwCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &SubmitError{Key: "payment", Message: "Checkout was cancelled"}
		}
		if gwCtx.Err() != nil {
			return nil, &SubmitError{Key: "payment", Message: "Payment timed out, please try again"}
		}
		return nil, &SubmitError{Key: "payment", Message: err.Error()}
	}

	// 调用方在等待期间被取消时不再应用结果
	if ctx.Err() != nil {
		return nil, &SubmitError{Key: "payment", Message: "Checkout was cancelled"}
	}

	if !resp.Success {
		logger.Info(ctx, "payment failed",
			"customer_id", customerID,
			"method", string(form.Method),
			"error", resp.Error,
		)
		return nil, &SubmitError{Key: "payment", Message: resp.Error}
	}
	return resp, nil
}
