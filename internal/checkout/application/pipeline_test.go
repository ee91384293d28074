package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/wyfcoding/flowerdelivery/internal/cart/application"
	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	"github.com/wyfcoding/flowerdelivery/internal/checkout/domain"
	notifyapp "github.com/wyfcoding/flowerdelivery/internal/notification/application"
	orderdomain "github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/internal/order/infrastructure/persistence/redisstore"
	"github.com/wyfcoding/flowerdelivery/pkg/storage"
	"github.com/wyfcoding/flowerdelivery/pkg/utils"
)

var checkoutNow = func() time.Time { return time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC) }

// fakeGateway 可编程的网关替身，记录收到的请求
type fakeGateway struct {
	resp      *domain.PaymentResponse
	err       error
	delay     time.Duration
	calls     int
	lastReq   domain.PaymentRequest
	onProcess func()
}

func (g *fakeGateway) Process(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	g.calls++
	g.lastReq = req
	if g.onProcess != nil {
		g.onProcess()
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

func approvingGateway() *fakeGateway {
	return &fakeGateway{resp: &domain.PaymentResponse{Success: true, TransactionID: "txn_test"}}
}

// failingOrderWriter 订单写入失败的替身，触发 saga 补偿
type failingOrderWriter struct {
	updates []*orderdomain.Order
}

func (w *failingOrderWriter) Add(ctx context.Context, o *orderdomain.Order) error {
	return errors.New("write failed")
}

func (w *failingOrderWriter) Update(ctx context.Context, o *orderdomain.Order) error {
	w.updates = append(w.updates, o)
	return nil
}

type checkoutFixture struct {
	svc     *CheckoutService
	cart    *cartapp.CartService
	orders  *redisstore.Repository
	gateway *fakeGateway
	notify  *notifyapp.Manager
	store   *storage.MemoryStore
}

func newFixture(gateway *fakeGateway) *checkoutFixture {
	store := storage.NewMemory()
	cart := cartapp.NewCartService(store, nil, nil)
	orders := redisstore.NewRepository(store)
	notify := notifyapp.NewManager(10, checkoutNow)

	svc := NewCheckoutService(cart, orders, gateway, store, nil, notify, utils.NewSnowflakeID(1), Config{
		MinOrderAmount: decimal.NewFromInt(50),
		MaxOrderAmount: decimal.NewFromInt(50000),
		GatewayTimeout: 2 * time.Second,
	}, checkoutNow)

	return &checkoutFixture{svc: svc, cart: cart, orders: orders, gateway: gateway, notify: notify, store: store}
}

func checkoutProduct(id string, price int64) *catalog.Product {
	return &catalog.Product{
		ID:                    id,
		ShopID:                "shop-001",
		Name:                  "Product " + id,
		Price:                 decimal.NewFromInt(price),
		Stock:                 20,
		IsAvailable:           true,
		EstimatedDeliveryTime: 45,
		Category:              "bouquets",
	}
}

func contactForm() domain.ContactForm {
	return domain.ContactForm{
		Name:       "Олена Коваленко",
		Email:      "olena@example.com",
		Phone:      "+380671234567",
		Street:     "вул. Хрещатик, 22",
		City:       "Київ",
		PostalCode: "01001",
		Lat:        50.4501,
		Lng:        30.5234,
	}
}

func cashPayment() domain.PaymentForm {
	return domain.PaymentForm{Method: orderdomain.PaymentCash}
}

// stage 录入联系信息与支付方式并加购一件商品
func (f *checkoutFixture) stage(t *testing.T, customerID string, price int64) {
	t.Helper()
	ctx := context.Background()
	require.Empty(t, f.cart.AddItem(ctx, customerID, checkoutProduct("p1", price), 1))
	require.Empty(t, f.svc.SubmitContact(ctx, customerID, contactForm()))
	require.Empty(t, f.svc.SubmitPayment(ctx, customerID, cashPayment()))
}

func TestSubmitRequiresStagedData(t *testing.T) {
	f := newFixture(approvingGateway())
	ctx := context.Background()

	_, serr := f.svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "general", serr.Key)
	assert.Equal(t, "Delivery details are required before payment", serr.Message)

	require.Empty(t, f.svc.SubmitContact(ctx, "alice", contactForm()))
	_, serr = f.svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "A payment method is required", serr.Message)
}

func TestSubmitContactValidationErrors(t *testing.T) {
	f := newFixture(approvingGateway())

	form := contactForm()
	form.PostalCode = "123"
	errs := f.svc.SubmitContact(context.Background(), "alice", form)
	assert.Contains(t, errs, "postal_code")
}

func TestSubmitContactCachesProfile(t *testing.T) {
	f := newFixture(approvingGateway())
	ctx := context.Background()

	_, ok := f.svc.Profile(ctx, "alice")
	assert.False(t, ok)

	require.Empty(t, f.svc.SubmitContact(ctx, "alice", contactForm()))

	profile, ok := f.svc.Profile(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, "Олена Коваленко", profile.Name)
	assert.Equal(t, "Київ", profile.Address.City)
}

func TestSubmitEmptyCart(t *testing.T) {
	f := newFixture(approvingGateway())
	ctx := context.Background()

	require.Empty(t, f.svc.SubmitContact(ctx, "alice", contactForm()))
	require.Empty(t, f.svc.SubmitPayment(ctx, "alice", cashPayment()))

	_, serr := f.svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "Your cart is empty", serr.Message)
	assert.Zero(t, f.gateway.calls)
}

func TestSubmitAmountBoundsCheckedBeforeGateway(t *testing.T) {
	t.Run("below minimum", func(t *testing.T) {
		f := newFixture(approvingGateway())
		f.stage(t, "alice", 20)

		_, serr := f.svc.Submit(context.Background(), "alice")
		require.NotNil(t, serr)
		assert.Equal(t, "Minimum order amount is ₴50", serr.Message)
		assert.Zero(t, f.gateway.calls)
	})

	t.Run("above maximum", func(t *testing.T) {
		f := newFixture(approvingGateway())
		f.stage(t, "alice", 60000)

		_, serr := f.svc.Submit(context.Background(), "alice")
		require.NotNil(t, serr)
		assert.Equal(t, "Maximum order amount is ₴50000", serr.Message)
		assert.Zero(t, f.gateway.calls)
	})
}

func TestSubmitPaymentDeclinedKeepsEverything(t *testing.T) {
	gw := &fakeGateway{resp: &domain.PaymentResponse{Error: "Your card was declined"}}
	f := newFixture(gw)
	f.stage(t, "alice", 850)
	ctx := context.Background()

	_, serr := f.svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "payment", serr.Key)
	assert.Equal(t, "Your card was declined", serr.Message)

	// 购物车与已录入数据原样保留，修正后可直接重试
	assert.Equal(t, 1, f.cart.State(ctx, "alice").TotalItems)

	gw.resp = &domain.PaymentResponse{Success: true, TransactionID: "txn_retry"}
	order, serr := f.svc.Submit(ctx, "alice")
	require.Nil(t, serr)
	require.NotNil(t, order)
}

func TestSubmitSuccess(t *testing.T) {
	f := newFixture(approvingGateway())
	f.stage(t, "alice", 850)
	ctx := context.Background()

	order, serr := f.svc.Submit(ctx, "alice")
	require.Nil(t, serr)
	require.NotNil(t, order)

	assert.Contains(t, order.ID, "ord_")
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)
	assert.Equal(t, "alice", order.CustomerID)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, orderdomain.PaymentCash, order.PaymentMethod)
	assert.Equal(t, checkoutNow().Add(45*time.Minute), order.EstimatedDeliveryTime)
	require.Len(t, order.Items, 1)

	// 购物车清空
	assert.Equal(t, 0, f.cart.State(ctx, "alice").TotalItems)

	// 订单已写入仓储
	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	// 通知已产生
	recent := f.notify.Recent(1)
	require.Len(t, recent, 1)
	assert.Contains(t, recent[0].Message, order.ID)

	// 支付信息已清除，联系信息保留
	_, serr = f.svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "A payment method is required", serr.Message)
}

func TestSubmitOrdersNewestFirst(t *testing.T) {
	f := newFixture(approvingGateway())
	ctx := context.Background()

	f.stage(t, "alice", 850)
	first, serr := f.svc.Submit(ctx, "alice")
	require.Nil(t, serr)

	f.stage(t, "alice", 1200)
	second, serr := f.svc.Submit(ctx, "alice")
	require.Nil(t, serr)

	orders, err := f.orders.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestSubmitOrderItemsAreFrozen(t *testing.T) {
	f := newFixture(approvingGateway())
	f.stage(t, "alice", 850)
	ctx := context.Background()

	order, serr := f.svc.Submit(ctx, "alice")
	require.Nil(t, serr)

	// 下单后的购物车操作不影响订单快照
	require.Empty(t, f.cart.AddItem(ctx, "alice", checkoutProduct("p9", 100), 3))

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "p1", stored.Items[0].Product.ID)
	assert.Equal(t, 1, stored.Items[0].Quantity)
}

func TestSubmitCartMutationDuringPaymentNotBilled(t *testing.T) {
	gw := approvingGateway()
	f := newFixture(gw)
	f.stage(t, "alice", 850)
	ctx := context.Background()

	// 支付等待期间往购物车塞入高价商品
	gw.onProcess = func() {
		require.Empty(t, f.cart.AddItem(ctx, "alice", checkoutProduct("p2", 9999), 1))
	}

	order, serr := f.svc.Submit(ctx, "alice")
	require.Nil(t, serr)

	// 订单只含扣款时的条目，金额与条目合计一致
	require.Len(t, order.Items, 1)
	assert.Equal(t, "p1", order.Items[0].Product.ID)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(850)))
	assert.True(t, f.gateway.lastReq.Amount.Equal(order.TotalAmount))

	itemsSum := decimal.Zero
	for _, it := range order.Items {
		itemsSum = itemsSum.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, order.TotalAmount.Equal(itemsSum))

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "p1", stored.Items[0].Product.ID)
}

func TestSubmitOrderWriteFailureCompensates(t *testing.T) {
	store := storage.NewMemory()
	cart := cartapp.NewCartService(store, nil, nil)
	writer := &failingOrderWriter{}
	svc := NewCheckoutService(cart, writer, approvingGateway(), store, nil, nil, utils.NewSnowflakeID(1), Config{
		MinOrderAmount: decimal.NewFromInt(50),
		MaxOrderAmount: decimal.NewFromInt(50000),
	}, checkoutNow)
	ctx := context.Background()

	require.Empty(t, cart.AddItem(ctx, "alice", checkoutProduct("p1", 850), 1))
	require.Empty(t, svc.SubmitContact(ctx, "alice", contactForm()))
	require.Empty(t, svc.SubmitPayment(ctx, "alice", cashPayment()))

	_, serr := svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "general", serr.Key)
	assert.Equal(t, "Failed to finalize your order, please try again", serr.Message)

	// 购物车未被清空
	assert.Equal(t, 1, cart.State(ctx, "alice").TotalItems)
}

func TestSubmitGatewayTimeout(t *testing.T) {
	gw := &fakeGateway{delay: 500 * time.Millisecond, resp: &domain.PaymentResponse{Success: true}}
	f := newFixture(gw)
	f.svc.cfg.GatewayTimeout = 30 * time.Millisecond
	f.stage(t, "alice", 850)
	ctx := context.Background()

	_, serr := f.svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "payment", serr.Key)
	assert.Equal(t, "Payment timed out, please try again", serr.Message)

	// 超时后数据保留，可重试
	assert.Equal(t, 1, f.cart.State(ctx, "alice").TotalItems)
}

func TestSubmitCancelledContext(t *testing.T) {
	gw := &fakeGateway{delay: 200 * time.Millisecond, resp: &domain.PaymentResponse{Success: true}}
	f := newFixture(gw)
	f.stage(t, "alice", 850)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, serr := f.svc.Submit(ctx, "alice")
	require.NotNil(t, serr)
	assert.Equal(t, "payment", serr.Key)
	assert.Equal(t, "Checkout was cancelled", serr.Message)
}

func TestSubmitPassesAmountAndCustomerToGateway(t *testing.T) {
	f := newFixture(approvingGateway())
	f.stage(t, "alice", 850)

	_, serr := f.svc.Submit(context.Background(), "alice")
	require.Nil(t, serr)

	assert.True(t, f.gateway.lastReq.Amount.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, "Олена Коваленко", f.gateway.lastReq.CustomerInfo.Name)
	assert.Equal(t, orderdomain.PaymentCash, f.gateway.lastReq.PaymentMethod)
}
