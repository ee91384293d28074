package payment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/flowerdelivery/internal/checkout/domain"
	order "github.com/wyfcoding/flowerdelivery/internal/order/domain"
)

type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

var gatewayNow = func() time.Time { return time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC) }

func validCard() *domain.CardData {
	return &domain.CardData{
		CardNumber:     "4111 1111 1111 1111",
		ExpiryDate:     "12/27",
		CVV:            "123",
		CardholderName: "OLENA KOVALENKO",
	}
}

// instantGateway 零延迟零随机失败的网关，rng 固定在 0.5
func instantGateway(cfg Config) *SimulatedGateway {
	return NewSimulatedGateway(cfg, fixedRand{0.5}, gatewayNow)
}

func cardRequest(number string, amount int64) domain.PaymentRequest {
	card := validCard()
	card.CardNumber = number
	return domain.PaymentRequest{
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: order.PaymentCard,
		Card:          card,
	}
}

func TestProcessSuccess(t *testing.T) {
	g := instantGateway(Config{})

	resp, err := g.Process(context.Background(), cardRequest("4111 1111 1111 1111", 850))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.TransactionID, "txn_")
}

func TestProcessDeclinedTestCards(t *testing.T) {
	g := instantGateway(Config{})

	tests := []struct {
		number  string
		message string
	}{
		{"4000000000000002", "Your card was declined"},
		{"4000000000000069", "Your card has expired"},
	}
	for _, tt := range tests {
		resp, err := g.Process(context.Background(), cardRequest(tt.number, 850))
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, tt.message, resp.Error)
	}
}

func TestProcessExpiredCard(t *testing.T) {
	g := instantGateway(Config{})

	req := cardRequest("4111 1111 1111 1111", 850)
	req.Card.ExpiryDate = "01/24"

	resp, err := g.Process(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Card has expired", resp.Error)
}

func TestProcessMissingCard(t *testing.T) {
	g := instantGateway(Config{})

	resp, err := g.Process(context.Background(), domain.PaymentRequest{
		Amount:        decimal.NewFromInt(850),
		PaymentMethod: order.PaymentCard,
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Card details are missing", resp.Error)
}

func TestProcessServiceUnavailable(t *testing.T) {
	g := instantGateway(Config{UnavailableRate: 1.0})

	resp, err := g.Process(context.Background(), cardRequest("4111 1111 1111 1111", 850))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Payment service temporarily unavailable", resp.Error)
}

func TestProcessLargeOrderVerification(t *testing.T) {
	g := instantGateway(Config{VerificationRate: 1.0})

	resp, err := g.Process(context.Background(), domain.PaymentRequest{
		Amount:        decimal.NewFromInt(15000),
		PaymentMethod: order.PaymentCash,
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Payment requires additional verification", resp.Error)

	// 阈值以下不触发验证
	resp, err = g.Process(context.Background(), domain.PaymentRequest{
		Amount:        decimal.NewFromInt(9999),
		PaymentMethod: order.PaymentCash,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestProcessRandomFailure(t *testing.T) {
	g := instantGateway(Config{CardFailureRate: 1.0})

	resp, err := g.Process(context.Background(), cardRequest("4111 1111 1111 1111", 850))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Payment could not be processed, please try again", resp.Error)
}

func TestProcessCashNeverRandomlyFails(t *testing.T) {
	g := instantGateway(Config{CardFailureRate: 1.0, WalletFailureRate: 1.0})

	resp, err := g.Process(context.Background(), domain.PaymentRequest{
		Amount:        decimal.NewFromInt(850),
		PaymentMethod: order.PaymentCash,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestProcessRespectsContextCancellation(t *testing.T) {
	g := NewSimulatedGateway(Config{CardDelay: time.Second}, fixedRand{0.5}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp, err := g.Process(ctx, cardRequest("4111 1111 1111 1111", 850))
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
