// Package domain 实现配送时间预估的领域服务
//
// 预估由备货时间与路程时间两部分组成，叠加评分、订单量、
// 高峰时段、周末与天气等因子，并给出置信度与可读的影响因素列表。
package domain

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

// Confidence 预估置信度
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Breakdown 预估耗时拆解（分钟）
type Breakdown struct {
	Preparation   int `json:"preparation_time"`
	Travel        int `json:"travel_time"`
	VolumeDelay   int `json:"volume_delay"`
	PeakHourDelay int `json:"peak_hour_delay"`
	WeatherDelay  int `json:"weather_delay"`
}

// Estimate 一次配送预估结果，临时值，不落库
type Estimate struct {
	EstimatedMinutes      int        `json:"estimated_minutes"`
	EstimatedDeliveryTime time.Time  `json:"estimated_delivery_time"`
	Breakdown             Breakdown  `json:"breakdown"`
	Confidence            Confidence `json:"confidence"`
	Factors               []string   `json:"factors"`
}

// Item 参与预估的购物车条目投影
type Item struct {
	Category string
	Quantity int
}

// ShopItems 按店铺分组的预估输入
type ShopItems struct {
	Shop  *catalog.Shop
	Items []Item
}

// PeakWindow 高峰时段 [Start, End) 整点区间
type PeakWindow struct {
	Start int
	End   int
}

// RandSource 可注入的随机源，测试中可固定天气分支
type RandSource interface {
	Float64() float64
}

const (
	basePreparation    = 25
	minPreparation     = 15
	maxPreparation     = 90
	minTotal           = 20
	maxTotal           = 180
	travelMinPerKm     = 3.0
	minTravel          = 5
	coordinationExtra  = 10
	maxItemExtra       = 20
	specialExtra       = 10
	peakPrepMultiplier = 1.5
	peakTravelFactor   = 1.4
)

// Estimator 配送预估领域服务
type Estimator struct {
	peakWindows []PeakWindow
	rng         RandSource
}

// NewEstimator 创建预估服务；rng 为 nil 时使用时间种子
func NewEstimator(peakWindows []PeakWindow, rng RandSource) *Estimator {
	if len(peakWindows) == 0 {
		peakWindows = []PeakWindow{{8, 10}, {12, 14}, {17, 19}}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Estimator{peakWindows: peakWindows, rng: rng}
}

// IsPeakHour 判断时刻是否落在任一高峰时段
func (e *Estimator) IsPeakHour(t time.Time) bool {
	h := t.Hour()
	for _, w := range e.peakWindows {
		if h >= w.Start && h < w.End {
			return true
		}
	}
	return false
}

// Estimate 计算单店铺的配送预估
// customer 为 nil 时使用店铺预计算的兜底距离；orderVolume 为店铺当前在途订单数。
func (e *Estimator) Estimate(shop *catalog.Shop, customer *catalog.Coordinates, items []Item, orderTime time.Time, orderVolume int) *Estimate {
	factors := []string{}

	distance := shop.DistanceKm
	if customer != nil {
		distance = Haversine(shop.Coordinates, *customer)
	}

	peak := e.IsPeakHour(orderTime)
	weekend := isWeekend(orderTime)

	// 备货：基准值按店铺评分放大，低分店铺备货更慢
	ratingMult := math.Max(0.8, 2-shop.Rating/5)
	prep := clampF(basePreparation*ratingMult, minPreparation, 45)

	itemCount := 0
	hasSpecial := false
	for _, it := range items {
		itemCount += it.Quantity
		if it.Category == "arrangements" || it.Category == "gifts" {
			hasSpecial = true
		}
	}
	prep += math.Min(float64(itemCount)*2, maxItemExtra)
	if itemCount > 5 {
		factors = append(factors, "large order size")
	}
	if hasSpecial {
		prep += specialExtra
		factors = append(factors, "custom arrangement preparation")
	}

	if weekend {
		prep *= 1.2
	}

	var peakDelay float64
	if peak {
		peakDelay = prep * (peakPrepMultiplier - 1)
	}

	volumeMult := 1.0
	switch {
	case orderVolume > 15:
		volumeMult = 1.5
		factors = append(factors, "very high order volume")
	case orderVolume > 5:
		volumeMult = 1.2
	}
	volumeDelay := (prep + peakDelay) * (volumeMult - 1)

	prepTotal := clampF(prep+peakDelay+volumeDelay, minPreparation, maxPreparation)

	// 路程：每公里 3 分钟，高峰与周末调整，天气随机抽样
	travel := distance * travelMinPerKm
	if peak {
		travel *= peakTravelFactor
		factors = append(factors, "peak hour traffic")
	}
	if weekend {
		travel *= 0.9
	}

	weatherMult := e.sampleWeather(&factors)
	weatherDelay := travel * (weatherMult - 1)
	travelTotal := math.Max(minTravel, travel+weatherDelay)

	total := clampF(prepTotal+travelTotal, minTotal, maxTotal)

	confidence := scoreConfidence(distance, shop.Rating, peak, weekend, weatherMult, len(factors))

	return &Estimate{
		EstimatedMinutes:      int(math.Round(total)),
		EstimatedDeliveryTime: orderTime.Add(time.Duration(math.Round(total)) * time.Minute),
		Breakdown: Breakdown{
			Preparation:   int(math.Round(prep)),
			Travel:        int(math.Round(travelTotal - weatherDelay)),
			VolumeDelay:   int(math.Round(volumeDelay)),
			PeakHourDelay: int(math.Round(peakDelay)),
			WeatherDelay:  int(math.Round(weatherDelay)),
		},
		Confidence: confidence,
		Factors:    factors,
	}
}

// EstimateCart 计算多店铺购物车的合并预估
// 取最慢店铺的预估为基准，多店铺时追加固定的协调时间并下调一档置信度。
func (e *Estimator) EstimateCart(groups []ShopItems, customer *catalog.Coordinates, orderTime time.Time, orderVolume int) *Estimate {
	if len(groups) == 0 {
		return nil
	}

	var slowest *Estimate
	factorSet := map[string]struct{}{}
	var factors []string

	for _, g := range groups {
		est := e.Estimate(g.Shop, customer, g.Items, orderTime, orderVolume)
		for _, f := range est.Factors {
			if _, seen := factorSet[f]; !seen {
				factorSet[f] = struct{}{}
				factors = append(factors, f)
			}
		}
		if slowest == nil || est.EstimatedMinutes > slowest.EstimatedMinutes {
			slowest = est
		}
	}

	combined := *slowest
	combined.Factors = factors

	if len(groups) > 1 {
		combined.EstimatedMinutes += coordinationExtra
		combined.EstimatedDeliveryTime = orderTime.Add(time.Duration(combined.EstimatedMinutes) * time.Minute)
		combined.Factors = append(combined.Factors,
			fmt.Sprintf("coordinating delivery from %d shops", len(groups)))
		combined.Confidence = downgrade(combined.Confidence)
	}

	return &combined
}

// sampleWeather 抽样天气系数：70% 晴 ×1.0，20% 雨 ×1.3，10% 雪 ×1.6
func (e *Estimator) sampleWeather(factors *[]string) float64 {
	r := e.rng.Float64()
	switch {
	case r < 0.7:
		return 1.0
	case r < 0.9:
		*factors = append(*factors, "rainy weather conditions")
		return 1.3
	default:
		*factors = append(*factors, "snowy weather conditions")
		return 1.6
	}
}

// scoreConfidence 从 100 分逐项扣减后分档
func scoreConfidence(distance, rating float64, peak, weekend bool, weatherMult float64, factorCount int) Confidence {
	score := 100

	switch {
	case distance > 10:
		score -= 20
	case distance > 5:
		score -= 10
	}
	switch {
	case rating < 3.5:
		score -= 20
	case rating < 4.0:
		score -= 10
	}
	if peak {
		score -= 15
	}
	if weekend {
		score -= 5
	}
	switch {
	case weatherMult > 1.3:
		score -= 20
	case weatherMult > 1.0:
		score -= 10
	}
	score -= factorCount * 3

	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func downgrade(c Confidence) Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func clampF(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Haversine 计算两坐标间的大圆距离（公里）
func Haversine(a, b catalog.Coordinates) float64 {
	const earthRadiusKm = 6371.0

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
