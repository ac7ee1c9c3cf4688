package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/auth"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/cache"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/db"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/discounts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/pushtokens"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/wishlist"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/notifications"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/ratelimiter"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "1.0.0"

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	// Default values
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	return zap.New(core).Sugar(), nil
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	maxConnsStr := os.Getenv("DB_MAX_CONNS")
	maxConns, err := strconv.Atoi(maxConnsStr)
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_CONNS: %v", err)
	}

	redisDB := 0
	if val := os.Getenv("REDIS_DB"); val != "" {
		if redisDB, err = strconv.Atoi(val); err != nil {
			log.Fatalf("Invalid value for REDIS_DB: %v", err)
		}
	}
	redisEnabled := false
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		if redisEnabled, err = strconv.ParseBool(val); err != nil {
			log.Fatalf("Invalid value for REDIS_ENABLED: %v", err)
		}
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(maxConns),
			maxIdleTime: os.Getenv("DB_MAX_IDLE_TIME"),
		},
		redis: redisConfig{
			addr:     os.Getenv("REDIS_ADDR"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       redisDB,
			enabled:  redisEnabled,
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				iss:    "SoleMate",
				aud:    "SoleMate",
			},
		},
		rateLimiter: LoadRateLimiterConfig(),
	}

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	// Cache. Redis in production, in-process when running without one.
	var productCache catalog.Cache
	if cfg.redis.enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redis.addr,
			Password: cfg.redis.password,
			DB:       cfg.redis.db,
		})
		rc := cache.NewRedis(rdb, "solemate")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rc.Ping(ctx); err != nil {
			cancel()
			logger.Fatal(fmt.Errorf("redis ping: %w", err))
		}
		cancel()
		defer rc.Close()
		productCache = rc
		logger.Info("redis cache connected")
	} else {
		productCache = cache.NewMemory()
		logger.Info("using in-process cache")
	}

	// Domain wiring
	catalogRepo := catalog.NewRepository(pool, productCache, logger)
	tokensRepo := pushtokens.NewRepository(pool)
	notifier := notifications.NewCartNotifier(notifications.NewExpoAdapter(), tokensRepo, logger)
	cartSvc := carts.NewService(pool, catalogRepo, notifier, logger)
	wishlistSvc := wishlist.NewService(pool, catalogRepo, cartSvc, logger)

	codeGen, err := discounts.NewCodeGenerator(os.Getenv("DISCOUNT_CODE_SALT"), "SOLE")
	if err != nil {
		logger.Fatal(err)
	}
	discountRepo := discounts.NewRepository(pool, codeGen)

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
	)

	app := &application{
		config:        cfg,
		db:            pool,
		logger:        logger,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		catalog:       catalogRepo,
		carts:         cartSvc,
		wishlist:      wishlistSvc,
		discounts:     discountRepo,
		pushTokens:    tokensRepo,
	}

	// Metrics collected at /v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"acquired_conns": s.AcquiredConns(),
			"idle_conns":     s.IdleConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
