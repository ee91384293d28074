package domain

import (
	"context"

	"github.com/shopspring/decimal"

	order "github.com/wyfcoding/flowerdelivery/internal/order/domain"
)

// PaymentRequest 支付网关请求
type PaymentRequest struct {
	Amount        decimal.Decimal     `json:"amount"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Card          *CardData           `json:"card_data,omitempty"`
	CustomerInfo  CustomerInfo        `json:"customer_info"`
}

// CustomerInfo 支付请求附带的客户信息
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PaymentResponse 支付网关响应
type PaymentResponse struct {
	Success          bool   `json:"success"`
	TransactionID    string `json:"transaction_id,omitempty"`
	Error            string `json:"error,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time"`
}

// PaymentGateway 支付网关接口；实现为外部协作方（此处为模拟）
type PaymentGateway interface {
	Process(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
}
