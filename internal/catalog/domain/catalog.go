// Package domain 包含商品目录的领域模型
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Coordinates 经纬度坐标
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Shop 花店
type Shop struct {
	ID string `json:"id"`
	// 店铺名称
	Name string `json:"name"`
	// 评分（0-5）
	Rating float64 `json:"rating"`
	// 店铺坐标
	Coordinates Coordinates `json:"coordinates"`
	// 与默认配送区域的预计算距离（公里），无客户地址时的兜底
	DistanceKm float64 `json:"distance_km"`
	// 店铺自报的配送时间（分钟）
	DeliveryTime int `json:"delivery_time"`
}

// Product 商品
// 购物车持有的是商品快照，目录侧的后续修改不影响已加购/已下单数据。
type Product struct {
	ID     string `json:"id"`
	ShopID string `json:"shop_id"`
	Name   string `json:"name"`
	// 价格（整数货币单位 ₴）
	Price decimal.Decimal `json:"price"`
	// 库存
	Stock int `json:"stock"`
	// 是否可售
	IsAvailable bool `json:"is_available"`
	// 预计配送时间（分钟）
	EstimatedDeliveryTime int `json:"estimated_delivery_time"`
	// 类目：bouquets, arrangements, gifts, plants...
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Repository 目录仓储接口，核心侧只读
type Repository interface {
	ListShops(ctx context.Context) ([]*Shop, error)
	GetShop(ctx context.Context, id string) (*Shop, error)
	ListProducts(ctx context.Context, shopID, category string) ([]*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}
