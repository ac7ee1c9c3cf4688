package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/auth"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/discounts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/pushtokens"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/wishlist"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type application struct {
	config        config
	db            *pgxpool.Pool
	logger        *zap.SugaredLogger
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	catalog       *catalog.Repository
	carts         *carts.Service
	wishlist      *wishlist.Service
	discounts     *discounts.Repository
	pushTokens    *pushtokens.Repository
}

type config struct {
	addr        string
	db          dbConfig
	redis       redisConfig
	env         string
	apiURL      string
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	iss    string
	aud    string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type redisConfig struct {
	addr     string
	password string
	db       int
	enabled  bool
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, codeNotFound, "resource not found")
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/search", app.searchProductsHandler)
			r.Get("/featured", app.featuredProductsHandler)
			r.Get("/{productID}", app.getProductHandler)

			// internal ops endpoint, not exposed to the storefront
			r.With(app.BasicAuthMiddleware()).Put("/{productID}/stock", app.updateStockHandler)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.getCartHandler)
			r.Post("/items", app.addCartItemHandler)
			r.Put("/items/{itemID}", app.updateCartItemHandler)
			r.Delete("/items/{itemID}", app.removeCartItemHandler)
			r.Delete("/", app.clearCartHandler)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.getWishlistHandler)
			r.Post("/items", app.addWishlistItemHandler)
			r.Delete("/items/{itemID}", app.removeWishlistItemHandler)
			r.Delete("/", app.clearWishlistHandler)
			r.Post("/items/{itemID}/move-to-cart", app.moveToCartHandler)
		})

		r.Route("/discounts", func(r chi.Router) {
			r.With(app.BasicAuthMiddleware()).Post("/", app.createDiscountHandler)
			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/validate", app.validateDiscountHandler)
				r.Post("/redeem", app.redeemDiscountHandler)
			})
		})

		r.Route("/devices", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/push-tokens", app.savePushTokenHandler)
				r.Delete("/push-tokens", app.removePushTokenHandler)
			})
			r.With(app.BasicAuthMiddleware()).Post("/push-tokens/prune", app.prunePushTokensHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
