package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/wyfcoding/flowerdelivery/internal/cart/application"
	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	"github.com/wyfcoding/flowerdelivery/internal/checkout/application"
	"github.com/wyfcoding/flowerdelivery/internal/checkout/domain"
	orderdomain "github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/internal/order/infrastructure/persistence/redisstore"
	"github.com/wyfcoding/flowerdelivery/pkg/metrics"
	"github.com/wyfcoding/flowerdelivery/pkg/storage"
	"github.com/wyfcoding/flowerdelivery/pkg/utils"
)

var handlerNow = func() time.Time { return time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC) }

// stubGateway 返回固定响应的网关替身
type stubGateway struct {
	resp *domain.PaymentResponse
}

func (g *stubGateway) Process(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	return g.resp, nil
}

type handlerFixture struct {
	router  *gin.Engine
	metrics *metrics.Metrics
	svc     *application.CheckoutService
	cart    *cartapp.CartService
}

func newHandlerFixture(gw domain.PaymentGateway) *handlerFixture {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemory()
	cart := cartapp.NewCartService(store, nil, nil)
	orders := redisstore.NewRepository(store)
	m := metrics.New("test")

	svc := application.NewCheckoutService(cart, orders, gw, store, nil, nil, utils.NewSnowflakeID(1), application.Config{
		MinOrderAmount: decimal.NewFromInt(50),
		MaxOrderAmount: decimal.NewFromInt(50000),
	}, handlerNow)

	r := gin.New()
	NewCheckoutHandler(svc, m).RegisterRoutes(r.Group(""))
	return &handlerFixture{router: r, metrics: m, svc: svc, cart: cart}
}

// stage 加购一件商品并录入联系信息与支付方式
func (f *handlerFixture) stage(t *testing.T, form domain.PaymentForm) {
	t.Helper()
	ctx := context.Background()
	product := &catalog.Product{
		ID:                    "p1",
		ShopID:                "shop-001",
		Name:                  "Букет троянд",
		Price:                 decimal.NewFromInt(850),
		Stock:                 20,
		IsAvailable:           true,
		EstimatedDeliveryTime: 45,
		Category:              "bouquets",
	}
	require.Empty(t, f.cart.AddItem(ctx, "alice", product, 1))
	require.Empty(t, f.svc.SubmitContact(ctx, "alice", domain.ContactForm{
		Name:       "Олена Коваленко",
		Email:      "olena@example.com",
		Phone:      "+380671234567",
		Street:     "вул. Хрещатик, 22",
		City:       "Київ",
		PostalCode: "01001",
	}))
	require.Empty(t, f.svc.SubmitPayment(ctx, "alice", form))
}

func (f *handlerFixture) submit(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/submit", nil)
	req.Header.Set("X-Customer-ID", "alice")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSubmitRecordsCheckoutMetrics(t *testing.T) {
	f := newHandlerFixture(&stubGateway{resp: &domain.PaymentResponse{Success: true, TransactionID: "txn_test"}})
	f.stage(t, domain.PaymentForm{Method: orderdomain.PaymentCash})

	w := f.submit(t)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckoutsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersActive))

	var pb dto.Metric
	require.NoError(t, f.metrics.CheckoutDuration.Write(&pb))
	assert.EqualValues(t, 1, pb.GetHistogram().GetSampleCount())
}

func TestSubmitFailureLabelsPaymentMethod(t *testing.T) {
	t.Run("card", func(t *testing.T) {
		f := newHandlerFixture(&stubGateway{resp: &domain.PaymentResponse{Error: "Your card was declined"}})
		f.stage(t, domain.PaymentForm{
			Method: orderdomain.PaymentCard,
			Card: &domain.CardData{
				CardNumber:     "4111111111111111",
				ExpiryDate:     "12/27",
				CVV:            "123",
				CardholderName: "Olena Kovalenko",
			},
		})

		w := f.submit(t)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentFailures.WithLabelValues("card")))
		assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.OrdersActive))
	})

	t.Run("cash", func(t *testing.T) {
		f := newHandlerFixture(&stubGateway{resp: &domain.PaymentResponse{Error: "Payment could not be processed, please try again"}})
		f.stage(t, domain.PaymentForm{Method: orderdomain.PaymentCash})

		w := f.submit(t)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentFailures.WithLabelValues("cash")))
		assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.PaymentFailures.WithLabelValues("card")))
	})
}
