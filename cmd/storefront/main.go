package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	cartapp "github.com/wyfcoding/flowerdelivery/internal/cart/application"
	cartdomain "github.com/wyfcoding/flowerdelivery/internal/cart/domain"
	carthttp "github.com/wyfcoding/flowerdelivery/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/flowerdelivery/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	"github.com/wyfcoding/flowerdelivery/internal/catalog/infrastructure/mock"
	catalogmysql "github.com/wyfcoding/flowerdelivery/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/flowerdelivery/internal/catalog/interfaces/http"
	checkoutapp "github.com/wyfcoding/flowerdelivery/internal/checkout/application"
	"github.com/wyfcoding/flowerdelivery/internal/checkout/infrastructure/payment"
	checkouthttp "github.com/wyfcoding/flowerdelivery/internal/checkout/interfaces/http"
	deliverydomain "github.com/wyfcoding/flowerdelivery/internal/delivery/domain"
	deliveryhttp "github.com/wyfcoding/flowerdelivery/internal/delivery/interfaces/http"
	notifyapp "github.com/wyfcoding/flowerdelivery/internal/notification/application"
	orderapp "github.com/wyfcoding/flowerdelivery/internal/order/application"
	orderdomain "github.com/wyfcoding/flowerdelivery/internal/order/domain"
	ordermysql "github.com/wyfcoding/flowerdelivery/internal/order/infrastructure/persistence/mysql"
	"github.com/wyfcoding/flowerdelivery/internal/order/infrastructure/persistence/redisstore"
	orderhttp "github.com/wyfcoding/flowerdelivery/internal/order/interfaces/http"
	"github.com/wyfcoding/flowerdelivery/pkg/config"
	"github.com/wyfcoding/flowerdelivery/pkg/db"
	"github.com/wyfcoding/flowerdelivery/pkg/errorlog"
	"github.com/wyfcoding/flowerdelivery/pkg/logger"
	"github.com/wyfcoding/flowerdelivery/pkg/metrics"
	"github.com/wyfcoding/flowerdelivery/pkg/middleware"
	"github.com/wyfcoding/flowerdelivery/pkg/mq"
	"github.com/wyfcoding/flowerdelivery/pkg/storage"
	"github.com/wyfcoding/flowerdelivery/pkg/utils"
)

var configPath = flag.String("config", "configs/storefront/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	ctx := context.Background()
	logger.Info(ctx, "storefront starting", "service", cfg.ServiceName, "environment", cfg.Environment)

	// 3. 初始化指标
	m := metrics.New("storefront")
	if err := m.Register(); err != nil {
		logger.Error(ctx, "failed to register metrics", "error", err)
		os.Exit(1)
	}
	if cfg.Metrics.Enabled {
		metrics.Serve(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. 初始化存储
	// Redis 不可达时降级为进程内存储，购物车与订单仅在本进程内存活
	var store storage.Store
	redisStore, err := storage.NewRedis(storage.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Warn(ctx, "redis unavailable, falling back to in-memory store", "error", err)
		store = storage.NewMemory()
	} else {
		store = redisStore
	}

	// 5. 初始化事件发布
	var publisher cartdomain.EventPublisher = cartdomain.NopPublisher{}
	var producer *mq.KafkaProducer
	if cfg.Kafka.Enabled {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Error(ctx, "failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		publisher = producer
	}

	// 6. 初始化仓储
	var catalogRepo catalogdomain.Repository
	var orderRepo orderdomain.Repository
	if cfg.Database.Enabled {
		gormDB, err := db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		if err != nil {
			logger.Error(ctx, "failed to connect database", "error", err)
			os.Exit(1)
		}
		if cfg.Environment == "dev" {
			if err := gormDB.AutoMigrate(&catalogmysql.ShopModel{}, &catalogmysql.ProductModel{}, &ordermysql.OrderModel{}); err != nil {
				logger.Error(ctx, "failed to migrate database", "error", err)
			}
		}
		catalogRepo = catalogmysql.NewRepository(gormDB)
		orderRepo = ordermysql.NewRepository(gormDB)
	} else {
		catalogRepo = mock.NewRepository(time.Duration(cfg.Catalog.LoadDelayMs) * time.Millisecond)
		orderRepo = redisstore.NewRepository(store)
	}

	// 7. 初始化应用服务
	errorRecorder := errorlog.NewRingBuffer(100)
	notifications := notifyapp.NewManager(50, nil)

	catalogSvc := catalogapp.NewCatalogService(catalogRepo)
	cartSvc := cartapp.NewCartService(store, publisher, errorRecorder)
	orderSvc := orderapp.NewOrderService(orderRepo, publisher, nil)
	trackingSvc := orderapp.NewTrackingService(orderRepo, catalogRepo, nil)
	estimator := deliverydomain.NewEstimator(parsePeakWindows(cfg.Delivery.PeakWindows), nil)
	gateway := payment.NewSimulatedGateway(payment.DefaultConfig(), nil, nil)
	checkoutSvc := checkoutapp.NewCheckoutService(
		cartSvc,
		orderRepo,
		gateway,
		store,
		publisher,
		notifications,
		utils.NewSnowflakeID(1),
		checkoutapp.Config{
			MinOrderAmount: decimal.NewFromInt(cfg.Checkout.MinOrderAmount),
			MaxOrderAmount: decimal.NewFromInt(cfg.Checkout.MaxOrderAmount),
			GatewayTimeout: time.Duration(cfg.Checkout.GatewayTimeout) * time.Second,
		},
		nil,
	)

	// 8. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinMetrics(m))

	root := r.Group("")
	cataloghttp.NewCatalogHandler(catalogSvc).RegisterRoutes(root)
	carthttp.NewCartHandler(cartSvc, catalogSvc, m).RegisterRoutes(root)
	deliveryhttp.NewEstimateHandler(estimator, catalogSvc, cartSvc).RegisterRoutes(root)
	checkouthttp.NewCheckoutHandler(checkoutSvc, m).RegisterRoutes(root)
	orderhttp.NewOrderHandler(orderSvc, trackingSvc, notifications, m).RegisterRoutes(root)

	// 9. 启动服务
	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		logger.Info(ctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 10. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(ctx, "shutting down server...")
		case <-gctx.Done():
			logger.Info(ctx, "context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "server shutdown failed", "error", err)
		}
		if producer != nil {
			if err := producer.Close(); err != nil {
				logger.Error(ctx, "kafka producer close failed", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
		os.Exit(1)
	}
}

// parsePeakWindows 解析形如 "08-10" 的高峰时段配置，非法条目忽略
func parsePeakWindows(raw []string) []deliverydomain.PeakWindow {
	var windows []deliverydomain.PeakWindow
	for _, s := range raw {
		parts := strings.SplitN(s, "-", 2)
		if len(parts) != 2 {
			continue
		}
		start, err1 := strconv.Atoi(parts[0])
		end, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || start < 0 || end > 24 || start >= end {
			continue
		}
		windows = append(windows, deliverydomain.PeakWindow{Start: start, End: end})
	}
	return windows
}
