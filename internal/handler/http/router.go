package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atikur-web-dev/shopeasy/internal/auth"
	"github.com/atikur-web-dev/shopeasy/internal/domain"
	"github.com/atikur-web-dev/shopeasy/internal/repository"
	"github.com/atikur-web-dev/shopeasy/internal/service"
	"github.com/atikur-web-dev/shopeasy/pkg/health"
	"github.com/atikur-web-dev/shopeasy/pkg/middleware"
)

// RouterDeps holds everything the router needs to register routes.
type RouterDeps struct {
	UserService    *service.UserService
	ProductService *service.ProductService
	CartService    *service.CartService
	OrderService   *service.OrderService
	WishlistRepo   repository.WishlistRepository
	JWTManager     *auth.JWTManager
	HealthHandler  *health.Handler
	Logger         *slog.Logger
	CORSConfig     middleware.CORSConfig

	// Per-IP rate limiting; zero RPS disables the limiter.
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront API routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(deps.CORSConfig))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.PrometheusMetrics("shopeasy-api"))
	if deps.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst, deps.Logger))
	}

	// Health check endpoints
	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := deps.JWTManager.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	authHandler := NewAuthHandler(deps.UserService, deps.Logger)
	userHandler := NewUserHandler(deps.UserService, deps.Logger)
	productHandler := NewProductHandler(deps.ProductService, deps.Logger)
	cartHandler := NewCartHandler(deps.CartService, deps.Logger)
	orderHandler := NewOrderHandler(deps.OrderService, deps.Logger)
	wishlistHandler := NewWishlistHandler(deps.WishlistRepo, deps.Logger)

	// Auth endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Catalog endpoints (public)
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Get("/{id}", productHandler.Get)
	})

	// Profile and wishlist endpoints (auth required)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Get("/me", userHandler.GetProfile)
			r.Put("/me", userHandler.UpdateProfile)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.List)
			r.Post("/{productID}", wishlistHandler.Add)
			r.Get("/{productID}", wishlistHandler.Exists)
			r.Delete("/{productID}", wishlistHandler.Remove)
		})
	})

	// Cart endpoints (auth required)
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", cartHandler.Get)
		r.Delete("/", cartHandler.Clear)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{productID}", cartHandler.UpdateItem)
		r.Delete("/items/{productID}", cartHandler.RemoveItem)
	})

	// Order endpoints (auth required)
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Post("/", orderHandler.Create)
		r.Get("/", orderHandler.ListMine)
		r.Get("/{id}", orderHandler.Get)
		r.Post("/{id}/pay", orderHandler.Pay)
	})

	// Admin endpoints
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(domain.RoleAdmin))

		r.Get("/users", userHandler.ListUsers)
		r.Delete("/users/{id}", userHandler.DeleteUser)

		r.Post("/products", productHandler.Create)
		r.Put("/products/{id}", productHandler.Update)
		r.Delete("/products/{id}", productHandler.Delete)

		r.Get("/orders", orderHandler.ListAll)
		r.Put("/orders/{id}/status", orderHandler.UpdateStatus)
		r.Delete("/orders/{id}", orderHandler.Delete)
	})

	return r
}
