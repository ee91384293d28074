// Package domain 包含结算流程的表单模型与分阶段校验
package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	order "github.com/wyfcoding/flowerdelivery/internal/order/domain"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
	postalRe = regexp.MustCompile(`^\d{5}$`)
	cvvRe    = regexp.MustCompile(`^\d{3,4}$`)
	expiryRe = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

// ContactForm 结算第一阶段：联系人与配送地址
type ContactForm struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Street     string  `json:"street"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	// 配送备注，可选
	DeliveryInstructions string `json:"delivery_instructions"`
}

// CardData 银行卡数据，仅 card 支付方式需要
type CardData struct {
	CardNumber     string `json:"card_number"`
	ExpiryDate     string `json:"expiry_date"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

// PaymentForm 结算第二阶段：支付方式
type PaymentForm struct {
	Method order.PaymentMethod `json:"method"`
	Card   *CardData           `json:"card,omitempty"`
}

// CustomerProfile 缓存的客户资料，用于后续结算预填
type CustomerProfile struct {
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Address order.Address `json:"address"`
}

// Validate 校验第一阶段表单，返回字段级错误
func (f *ContactForm) Validate() map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "Name is required"
	}
	if !emailRe.MatchString(f.Email) {
		errs["email"] = "A valid email address is required"
	}
	if stripped := stripPhone(f.Phone); !digitsRe.MatchString(stripped) || len(stripped) < 10 {
		errs["phone"] = "Phone number must contain at least 10 digits"
	}
	if strings.TrimSpace(f.Street) == "" {
		errs["street"] = "Street address is required"
	}
	if strings.TrimSpace(f.City) == "" {
		errs["city"] = "City is required"
	}
	if !postalRe.MatchString(f.PostalCode) {
		errs["postal_code"] = "Postal code must be exactly 5 digits"
	}

	return errs
}

// Validate 校验第二阶段表单；非 card 方式跳过银行卡检查
func (f *PaymentForm) Validate(now time.Time) map[string]string {
	errs := map[string]string{}

	switch f.Method {
	case order.PaymentCard:
		if f.Card == nil {
			errs["card"] = "Card details are required"
			return errs
		}
		for k, v := range f.Card.Validate(now) {
			errs[k] = v
		}
	case order.PaymentApplePay, order.PaymentGooglePay, order.PaymentCash:
		// 无需额外字段
	default:
		errs["method"] = fmt.Sprintf("Unsupported payment method %q", f.Method)
	}

	return errs
}

// Validate 校验银行卡字段
func (c *CardData) Validate(now time.Time) map[string]string {
	errs := map[string]string{}

	number := StripCardNumber(c.CardNumber)
	if len(number) != 16 || !digitsRe.MatchString(number) {
		errs["card_number"] = "Card number must be 16 digits"
	}

	if ok, expired := parseExpiry(c.ExpiryDate, now); !ok {
		errs["expiry_date"] = "Expiry date must be in MM/YY format"
	} else if expired {
		errs["expiry_date"] = "Card has expired"
	}

	if !cvvRe.MatchString(c.CVV) {
		errs["cvv"] = "CVV must be 3 or 4 digits"
	}

	if len(strings.TrimSpace(c.CardholderName)) < 2 {
		errs["cardholder_name"] = "Cardholder name is required"
	}

	return errs
}

// Expired 判断卡片有效期是否已过；格式非法视为过期
func (c *CardData) Expired(now time.Time) bool {
	ok, expired := parseExpiry(c.ExpiryDate, now)
	return !ok || expired
}

// StripCardNumber 去掉卡号中的空格
func StripCardNumber(number string) string {
	return strings.ReplaceAll(number, " ", "")
}

// FormatCardNumber 按 4 位分组展示卡号
func FormatCardNumber(number string) string {
	stripped := StripCardNumber(number)
	var groups []string
	for i := 0; i < len(stripped); i += 4 {
		end := i + 4
		if end > len(stripped) {
			end = len(stripped)
		}
		groups = append(groups, stripped[i:end])
	}
	return strings.Join(groups, " ")
}

// Address 将表单转换为订单配送地址
func (f *ContactForm) Address() order.Address {
	return order.Address{
		Street:      strings.TrimSpace(f.Street),
		City:        strings.TrimSpace(f.City),
		PostalCode:  f.PostalCode,
		Coordinates: catalog.Coordinates{Lat: f.Lat, Lng: f.Lng},
	}
}

func stripPhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "", ".", "")
	return r.Replace(phone)
}

// parseExpiry 解析 MM/YY，返回 (格式合法, 是否已过期)
func parseExpiry(expiry string, now time.Time) (bool, bool) {
	m := expiryRe.FindStringSubmatch(expiry)
	if m == nil {
		return false, false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return false, false
	}

	// 月末之前都有效
	expiresAt := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return true, !now.Before(expiresAt)
}
