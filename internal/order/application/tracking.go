package application

import (
	"context"
	"time"

	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	delivery "github.com/wyfcoding/flowerdelivery/internal/delivery/domain"
	"github.com/wyfcoding/flowerdelivery/internal/order/domain"
)

// 配送员接近目的地的判定阈值（公里）
const proximityThresholdKm = 0.3

// 每次推进走完剩余路程的比例
const advanceFraction = 0.3

// TrackingService 订单跟踪服务
// 模拟配送员向目的地移动：仅 out_for_delivery 状态的订单有位置，
// 每次 Advance 推进剩余路程的一部分，进入阈值后标记接近。
type TrackingService struct {
	repo    domain.Repository
	catalog catalog.Repository
	now     func() time.Time
}

// NewTrackingService 创建订单跟踪服务实例
func NewTrackingService(repo domain.Repository, catalogRepo catalog.Repository, now func() time.Time) *TrackingService {
	if now == nil {
		now = time.Now
	}
	return &TrackingService{repo: repo, catalog: catalogRepo, now: now}
}

// Advance 推进一次配送员位置模拟
// 非 out_for_delivery 状态下为 no-op；首次推进时从条目所属店铺出发。
func (s *TrackingService) Advance(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil || order == nil {
		return order, err
	}
	if order.Status != domain.StatusOutForDelivery {
		return order, nil
	}

	dest := order.DeliveryAddress.Coordinates

	if order.CourierLocation == nil {
		start := s.courierStart(ctx, order)
		order.CourierLocation = &start
	} else {
		loc := *order.CourierLocation
		loc.Lat += (dest.Lat - loc.Lat) * advanceFraction
		loc.Lng += (dest.Lng - loc.Lng) * advanceFraction
		order.CourierLocation = &loc
	}

	order.CourierNearby = delivery.Haversine(*order.CourierLocation, dest) <= proximityThresholdKm
	order.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// courierStart 配送起点：第一条目所属店铺的坐标，查不到时退回目的地
func (s *TrackingService) courierStart(ctx context.Context, order *domain.Order) catalog.Coordinates {
	if len(order.Items) > 0 && s.catalog != nil {
		if shop, err := s.catalog.GetShop(ctx, order.Items[0].ShopID); err == nil && shop != nil {
			return shop.Coordinates
		}
	}
	return order.DeliveryAddress.Coordinates
}
