package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/wyfcoding/flowerdelivery/internal/cart/domain"
	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	"github.com/wyfcoding/flowerdelivery/internal/catalog/infrastructure/mock"
	"github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/internal/order/infrastructure/persistence/redisstore"
	"github.com/wyfcoding/flowerdelivery/pkg/storage"
)

var orderNow = func() time.Time { return time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC) }

// recordingPublisher 记录发布过的事件
type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	p.topics = append(p.topics, topic)
	return nil
}

func newOrderService() (*OrderService, domain.Repository, *recordingPublisher) {
	repo := redisstore.NewRepository(storage.NewMemory())
	pub := &recordingPublisher{}
	return NewOrderService(repo, pub, orderNow), repo, pub
}

func confirmedOrder(id string) *domain.Order {
	return &domain.Order{
		ID:          id,
		CustomerID:  "alice",
		TotalAmount: decimal.NewFromInt(850),
		Status:      domain.StatusConfirmed,
		CreatedAt:   orderNow(),
	}
}

func TestUpdateStatusAdvances(t *testing.T) {
	svc, _, pub := newOrderService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, confirmedOrder("ord_1")))
	updated, err := svc.UpdateStatus(ctx, "ord_1", domain.StatusPreparing)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusPreparing, updated.Status)

	got, err := svc.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, got.Status)
	assert.Contains(t, pub.topics, "order.status.changed")
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	svc, _, _ := newOrderService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, confirmedOrder("ord_1")))
	_, err := svc.UpdateStatus(ctx, "ord_1", domain.StatusDelivered)
	require.Error(t, err)

	got, _ := svc.Get(ctx, "ord_1")
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}

func TestUpdateStatusUnknownOrderIsNoop(t *testing.T) {
	svc, _, pub := newOrderService()

	updated, err := svc.UpdateStatus(context.Background(), "ord_ghost", domain.StatusPreparing)
	assert.NoError(t, err)
	assert.Nil(t, updated)
	assert.Empty(t, pub.topics)
}

func TestUpdateStatusDeliveredSetsActualTime(t *testing.T) {
	svc, _, _ := newOrderService()
	ctx := context.Background()

	o := confirmedOrder("ord_1")
	o.Status = domain.StatusOutForDelivery
	require.NoError(t, svc.Add(ctx, o))
	_, err := svc.UpdateStatus(ctx, "ord_1", domain.StatusDelivered)
	require.NoError(t, err)

	got, _ := svc.Get(ctx, "ord_1")
	require.NotNil(t, got.ActualDeliveryTime)
	assert.Equal(t, orderNow(), *got.ActualDeliveryTime)
}

func newTrackingFixture(t *testing.T) (*TrackingService, domain.Repository) {
	t.Helper()
	repo := redisstore.NewRepository(storage.NewMemory())
	catalogRepo := mock.NewRepository(0)
	return NewTrackingService(repo, catalogRepo, orderNow), repo
}

func outForDeliveryOrder(id string) *domain.Order {
	return &domain.Order{
		ID:         id,
		CustomerID: "alice",
		Status:     domain.StatusOutForDelivery,
		Items: []cartdomain.Item{{
			Product:  catalog.Product{ID: "prod-001", ShopID: "shop-001"},
			Quantity: 1,
			ShopID:   "shop-001",
		}},
		DeliveryAddress: domain.Address{
			Coordinates: catalog.Coordinates{Lat: 50.4400, Lng: 30.5300},
		},
	}
}

func TestAdvanceStartsAtShop(t *testing.T) {
	svc, repo := newTrackingFixture(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, outForDeliveryOrder("ord_1")))

	got, err := svc.Advance(ctx, "ord_1")
	require.NoError(t, err)
	require.NotNil(t, got.CourierLocation)

	// 首次推进从店铺坐标出发
	assert.InDelta(t, 50.4501, got.CourierLocation.Lat, 0.0001)
	assert.InDelta(t, 30.5234, got.CourierLocation.Lng, 0.0001)
}

func TestAdvanceMovesTowardDestination(t *testing.T) {
	svc, repo := newTrackingFixture(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, outForDeliveryOrder("ord_1")))

	first, err := svc.Advance(ctx, "ord_1")
	require.NoError(t, err)
	startLat := first.CourierLocation.Lat

	second, err := svc.Advance(ctx, "ord_1")
	require.NoError(t, err)

	dest := second.DeliveryAddress.Coordinates
	assert.Less(t,
		absF(dest.Lat-second.CourierLocation.Lat),
		absF(dest.Lat-startLat),
		"courier should move toward the destination")
}

func TestAdvanceEventuallyNearby(t *testing.T) {
	svc, repo := newTrackingFixture(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, outForDeliveryOrder("ord_1")))

	var got *domain.Order
	var err error
	for i := 0; i < 30; i++ {
		got, err = svc.Advance(ctx, "ord_1")
		require.NoError(t, err)
		if got.CourierNearby {
			break
		}
	}
	assert.True(t, got.CourierNearby)
}

func TestAdvanceIgnoresOtherStatuses(t *testing.T) {
	svc, repo := newTrackingFixture(t)
	ctx := context.Background()

	o := outForDeliveryOrder("ord_1")
	o.Status = domain.StatusPreparing
	require.NoError(t, repo.Add(ctx, o))

	got, err := svc.Advance(ctx, "ord_1")
	require.NoError(t, err)
	assert.Nil(t, got.CourierLocation)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
