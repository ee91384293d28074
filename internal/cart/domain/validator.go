package domain

import (
	"fmt"

	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

// ValidationType 校验问题分类
type ValidationType string

const (
	ValidationAvailability ValidationType = "availability"
	ValidationStock        ValidationType = "stock"
	ValidationQuantity     ValidationType = "quantity"
	ValidationGeneral      ValidationType = "general"
)

// ValidationError 一条校验问题；错误阻断操作，警告仅提示
type ValidationError struct {
	Type      ValidationType `json:"type"`
	Message   string         `json:"message"`
	ProductID string         `json:"product_id,omitempty"`
}

// ValidationResult 整车校验结果
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// ValidateAddToCart 校验加购请求
// 商品不可售时立即返回单条 availability 错误，不再做后续检查。
func ValidateAddToCart(product *catalog.Product, qty int, items []Item) []ValidationError {
	if !product.IsAvailable {
		return []ValidationError{{
			Type:      ValidationAvailability,
			Message:   fmt.Sprintf("%s is currently unavailable", product.Name),
			ProductID: product.ID,
		}}
	}

	var errs []ValidationError

	current := 0
	totalUnits := 0
	for _, it := range items {
		totalUnits += it.Quantity
		if it.Product.ID == product.ID {
			current = it.Quantity
		}
	}

	if current+qty > product.Stock {
		remaining := product.Stock - current
		if remaining < 0 {
			remaining = 0
		}
		errs = append(errs, ValidationError{
			Type:      ValidationStock,
			Message:   fmt.Sprintf("Only %d more item(s) of %s can be added", remaining, product.Name),
			ProductID: product.ID,
		})
	}

	if qty < 1 {
		errs = append(errs, ValidationError{
			Type:      ValidationQuantity,
			Message:   "Quantity must be at least 1",
			ProductID: product.ID,
		})
	}

	if current+qty > MaxPerProduct {
		allowance := MaxPerProduct - current
		if allowance < 0 {
			allowance = 0
		}
		errs = append(errs, ValidationError{
			Type:      ValidationQuantity,
			Message:   fmt.Sprintf("You can add at most %d more of %s (limit %d per product)", allowance, product.Name, MaxPerProduct),
			ProductID: product.ID,
		})
	}

	if totalUnits+qty > MaxCartUnits {
		slots := MaxCartUnits - totalUnits
		if slots < 0 {
			slots = 0
		}
		errs = append(errs, ValidationError{
			Type:      ValidationQuantity,
			Message:   fmt.Sprintf("Only %d more item(s) fit in the cart (limit %d)", slots, MaxCartUnits),
			ProductID: product.ID,
		})
	}

	return errs
}

// ValidateItems 重校验整车条目
// fresh 不为空时条目对照其中的最新商品数据（模拟复查实时库存），
// 否则使用条目内嵌的快照。
func ValidateItems(items []Item, fresh []*catalog.Product) ValidationResult {
	result := ValidationResult{IsValid: true}

	freshByID := map[string]*catalog.Product{}
	for _, p := range fresh {
		freshByID[p.ID] = p
	}

	seen := map[string]bool{}
	totalUnits := 0

	for _, it := range items {
		product := it.Product
		if p, ok := freshByID[product.ID]; ok {
			product = *p
		}

		if seen[product.ID] {
			result.Errors = append(result.Errors, ValidationError{
				Type:      ValidationGeneral,
				Message:   fmt.Sprintf("Duplicate cart entry for %s", product.Name),
				ProductID: product.ID,
			})
		}
		seen[product.ID] = true
		totalUnits += it.Quantity

		if !product.IsAvailable {
			result.Errors = append(result.Errors, ValidationError{
				Type:      ValidationAvailability,
				Message:   fmt.Sprintf("%s is no longer available", product.Name),
				ProductID: product.ID,
			})
			continue
		}

		if it.Quantity > product.Stock {
			result.Errors = append(result.Errors, ValidationError{
				Type:      ValidationStock,
				Message:   fmt.Sprintf("Only %d item(s) of %s left in stock", product.Stock, product.Name),
				ProductID: product.ID,
			})
		} else if product.Stock <= 5 && product.Stock >= it.Quantity {
			result.Warnings = append(result.Warnings, ValidationError{
				Type:      ValidationStock,
				Message:   fmt.Sprintf("Low stock: only %d item(s) of %s left", product.Stock, product.Name),
				ProductID: product.ID,
			})
		}

		if it.Quantity > MaxPerProduct {
			result.Errors = append(result.Errors, ValidationError{
				Type:      ValidationQuantity,
				Message:   fmt.Sprintf("At most %d of %s per order", MaxPerProduct, product.Name),
				ProductID: product.ID,
			})
		}
	}

	if totalUnits > MaxCartUnits {
		result.Errors = append(result.Errors, ValidationError{
			Type:    ValidationGeneral,
			Message: fmt.Sprintf("Cart exceeds the limit of %d items", MaxCartUnits),
		})
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// ReadyForCheckout 判断购物车是否可进入结算
// 空车不可结算；仅有警告（如低库存）不阻断。
func ReadyForCheckout(items []Item) (bool, []ValidationError) {
	if len(items) == 0 {
		return false, []ValidationError{{
			Type:    ValidationGeneral,
			Message: "Your cart is empty",
		}}
	}
	result := ValidateItems(items, nil)
	return result.IsValid, result.Errors
}
