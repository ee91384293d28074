package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

func testProduct(id string, price int64, stock int) catalog.Product {
	return catalog.Product{
		ID:                    id,
		ShopID:                "shop-001",
		Name:                  "Product " + id,
		Price:                 decimal.NewFromInt(price),
		Stock:                 stock,
		IsAvailable:           true,
		EstimatedDeliveryTime: 40,
		Category:              "bouquets",
	}
}

func TestValidateAddToCart(t *testing.T) {
	tests := []struct {
		name     string
		product  catalog.Product
		qty      int
		items    []Item
		wantType ValidationType
		wantOK   bool
	}{
		{
			name:    "valid add",
			product: testProduct("p1", 850, 12),
			qty:     2,
			wantOK:  true,
		},
		{
			name: "unavailable product",
			product: func() catalog.Product {
				p := testProduct("p1", 850, 12)
				p.IsAvailable = false
				return p
			}(),
			qty:      1,
			wantType: ValidationAvailability,
		},
		{
			name:     "insufficient stock",
			product:  testProduct("p1", 850, 2),
			qty:      3,
			wantType: ValidationStock,
		},
		{
			name:     "zero quantity",
			product:  testProduct("p1", 850, 12),
			qty:      0,
			wantType: ValidationQuantity,
		},
		{
			name:    "per product limit exceeded",
			product: testProduct("p1", 850, 50),
			qty:     5,
			items: []Item{
				{Product: testProduct("p1", 850, 50), Quantity: 8},
			},
			wantType: ValidationQuantity,
		},
		{
			name:    "cart unit limit exceeded",
			product: testProduct("p2", 120, 100),
			qty:     6,
			items: []Item{
				{Product: testProduct("p1", 850, 100), Quantity: 10},
				{Product: testProduct("p3", 850, 100), Quantity: 10},
				{Product: testProduct("p4", 850, 100), Quantity: 10},
				{Product: testProduct("p5", 850, 100), Quantity: 10},
				{Product: testProduct("p6", 850, 100), Quantity: 5},
			},
			wantType: ValidationQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateAddToCart(&tt.product, tt.qty, tt.items)
			if tt.wantOK {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantType, errs[0].Type)
		})
	}
}

func TestValidateAddToCartUnavailableShortCircuits(t *testing.T) {
	// 不可售商品即使同时超库存，也只收到一条 availability 错误
	p := testProduct("p1", 850, 0)
	p.IsAvailable = false

	errs := ValidateAddToCart(&p, 99, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, ValidationAvailability, errs[0].Type)
	assert.Contains(t, errs[0].Message, "currently unavailable")
}

func TestValidateAddToCartStockCountsExistingQuantity(t *testing.T) {
	p := testProduct("p1", 850, 5)
	items := []Item{{Product: p, Quantity: 4}}

	errs := ValidateAddToCart(&p, 2, items)
	require.Len(t, errs, 1)
	assert.Equal(t, ValidationStock, errs[0].Type)
	assert.Contains(t, errs[0].Message, "Only 1 more item(s)")
}

func TestValidateItems(t *testing.T) {
	t.Run("fresh data overrides snapshot", func(t *testing.T) {
		snapshot := testProduct("p1", 850, 12)
		items := []Item{{Product: snapshot, Quantity: 3}}

		fresh := testProduct("p1", 850, 12)
		fresh.IsAvailable = false

		result := ValidateItems(items, []*catalog.Product{&fresh})
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, ValidationAvailability, result.Errors[0].Type)
	})

	t.Run("low stock is a warning not an error", func(t *testing.T) {
		p := testProduct("p1", 850, 3)
		result := ValidateItems([]Item{{Product: p, Quantity: 2}}, nil)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].Message, "Low stock")
	})

	t.Run("over stock is an error", func(t *testing.T) {
		p := testProduct("p1", 850, 2)
		result := ValidateItems([]Item{{Product: p, Quantity: 5}}, nil)
		assert.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, ValidationStock, result.Errors[0].Type)
	})

	t.Run("duplicate entries flagged", func(t *testing.T) {
		p := testProduct("p1", 850, 12)
		result := ValidateItems([]Item{
			{Product: p, Quantity: 1},
			{Product: p, Quantity: 2},
		}, nil)
		assert.False(t, result.IsValid)
		found := false
		for _, e := range result.Errors {
			if e.Type == ValidationGeneral {
				found = true
			}
		}
		assert.True(t, found, "expected a general duplicate error")
	})

	t.Run("cart unit limit", func(t *testing.T) {
		var items []Item
		for i := 0; i < 6; i++ {
			p := testProduct(string(rune('a'+i)), 100, 100)
			items = append(items, Item{Product: p, Quantity: 10})
		}
		result := ValidateItems(items, nil)
		assert.False(t, result.IsValid)
	})
}

func TestReadyForCheckout(t *testing.T) {
	t.Run("empty cart blocks checkout", func(t *testing.T) {
		ok, errs := ReadyForCheckout(nil)
		assert.False(t, ok)
		require.Len(t, errs, 1)
		assert.Equal(t, "Your cart is empty", errs[0].Message)
	})

	t.Run("warnings do not block checkout", func(t *testing.T) {
		p := testProduct("p1", 850, 3)
		ok, errs := ReadyForCheckout([]Item{{Product: p, Quantity: 2}})
		assert.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("errors block checkout", func(t *testing.T) {
		p := testProduct("p1", 850, 1)
		ok, errs := ReadyForCheckout([]Item{{Product: p, Quantity: 5}})
		assert.False(t, ok)
		assert.NotEmpty(t, errs)
	})
}
