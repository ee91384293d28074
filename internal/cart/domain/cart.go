// Package domain 包含购物车的领域模型与校验规则
package domain

import (
	"github.com/shopspring/decimal"

	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

const (
	// MaxPerProduct 单个商品的购买上限
	MaxPerProduct = 10
	// MaxCartUnits 整车商品件数上限
	MaxCartUnits = 50
)

// Item 购物车条目
// 持有商品快照：加购后目录侧的价格/库存变化不影响快照，
// 需要对照最新数据时通过 ValidateItems 传入 fresh 列表。
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	ShopID   string          `json:"shop_id"`
}

// State 购物车状态
// 派生字段只由 Recompute 从 Items 重算，不单独维护。
type State struct {
	Items       []Item          `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	// 预计配送时间（分钟），取条目中最慢的店铺预估
	EstimatedDeliveryTime int              `json:"estimated_delivery_time"`
	IsLoading             bool             `json:"is_loading"`
	Validation            ValidationResult `json:"validation"`
	LastError             string           `json:"last_error,omitempty"`
}

// NewState 创建空购物车状态
func NewState() *State {
	s := &State{IsLoading: true}
	s.Recompute()
	return s
}

// Recompute 从 Items 重算全部派生字段
// 每次变更后都必须调用，保证派生状态与条目一致。
func (s *State) Recompute() {
	total := 0
	amount := decimal.Zero
	slowest := 0
	for _, it := range s.Items {
		total += it.Quantity
		amount = amount.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		if it.Product.EstimatedDeliveryTime > slowest {
			slowest = it.Product.EstimatedDeliveryTime
		}
	}
	s.TotalItems = total
	s.TotalAmount = amount
	s.EstimatedDeliveryTime = slowest
	s.Validation = ValidateItems(s.Items, nil)
}

// ItemQuantity 返回指定商品在购物车中的数量
func (s *State) ItemQuantity(productID string) int {
	for _, it := range s.Items {
		if it.Product.ID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Contains 判断商品是否已在购物车中
func (s *State) Contains(productID string) bool {
	return s.ItemQuantity(productID) > 0
}

// Add 合并或追加条目，调用方必须先通过 ValidateAddToCart
func (s *State) Add(product catalog.Product, qty int) {
	for i := range s.Items {
		if s.Items[i].Product.ID == product.ID {
			s.Items[i].Quantity += qty
			return
		}
	}
	s.Items = append(s.Items, Item{Product: product, Quantity: qty, ShopID: product.ShopID})
}

// Remove 删除指定商品的条目
func (s *State) Remove(productID string) {
	for i := range s.Items {
		if s.Items[i].Product.ID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

// SetQuantity 直接设置条目数量，qty ≤ 0 等价于删除
func (s *State) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		s.Remove(productID)
		return
	}
	for i := range s.Items {
		if s.Items[i].Product.ID == productID {
			s.Items[i].Quantity = qty
			return
		}
	}
}

// Clear 清空购物车
func (s *State) Clear() {
	s.Items = nil
	s.LastError = ""
}

// SnapshotItems 返回条目的独立拷贝，订单持有的快照与购物车解耦
func (s *State) SnapshotItems() []Item {
	out := make([]Item, len(s.Items))
	copy(out, s.Items)
	for i := range out {
		tags := make([]string, len(out[i].Product.Tags))
		copy(tags, out[i].Product.Tags)
		out[i].Product.Tags = tags
	}
	return out
}
