package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youssefhamdan/tijara-backend/api/controllers"
	"github.com/youssefhamdan/tijara-backend/api/middleware"
	"github.com/youssefhamdan/tijara-backend/internal/cart"
	"github.com/youssefhamdan/tijara-backend/internal/catalog"
	checkoutsvc "github.com/youssefhamdan/tijara-backend/internal/checkout"
	"github.com/youssefhamdan/tijara-backend/internal/customers"
	"github.com/youssefhamdan/tijara-backend/internal/orders"
	"github.com/youssefhamdan/tijara-backend/internal/settings"
	"github.com/youssefhamdan/tijara-backend/internal/shipping"
	"github.com/youssefhamdan/tijara-backend/internal/support"
	"github.com/youssefhamdan/tijara-backend/internal/users"
	"github.com/youssefhamdan/tijara-backend/internal/wallet"
	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/db"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
	"github.com/youssefhamdan/tijara-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Customers customers.Service
	Users     users.Service
	Catalog   catalog.Service
	Cart      cart.Service
	Checkout  checkoutsvc.Service
	Orders    orders.Service
	Couriers  controllers.CourierDirectory
	Wallet    wallet.Service
	Shipping  shipping.Service
	Settings  settings.Service
	Support   support.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.StoreBaseURL),
	)

	authLimit := middleware.RateLimit("auth", cfg.RateLimit, d.Redis, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Storefront surface. Checkout is reachable by guests; a valid session
	// cookie just attaches the order to the account.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/store", controllers.StoreInfo(d.Settings, logg))
		r.Get("/products", controllers.ListProducts(d.Catalog, logg))
		r.Get("/products/{productId}", controllers.GetProduct(d.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(d.Catalog, logg))
		r.Get("/cities", controllers.ListCities(d.Shipping, logg))
		r.Get("/shipping/quote", controllers.ShippingQuote(d.Shipping, logg))
		r.Get("/orders/track", controllers.TrackOrder(d.Orders, logg))
		r.Post("/support", controllers.SupportSubmit(d.Support, logg))
		r.Get("/payments/callback", controllers.GatewayCallback(d.Orders, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", controllers.CustomerRegister(d.Customers, cfg.JWT, logg))
			r.With(authLimit).Post("/login", controllers.CustomerLogin(d.Customers, cfg.JWT, logg))
			r.Post("/logout", controllers.CustomerLogout(cfg.JWT))
		})

		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Post("/checkout", controllers.Checkout(d.Checkout, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.RoleCustomer))

			r.Get("/me", controllers.CustomerProfile(d.Customers, logg))
			r.Put("/me", controllers.CustomerUpdateProfile(d.Customers, logg))
			r.Get("/me/orders", controllers.MyOrders(d.Orders, logg))
			r.Get("/me/orders/{orderId}", controllers.MyOrderDetail(d.Orders, logg))
			r.Get("/me/wallet", controllers.WalletHistory(d.Wallet, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Post("/items", controllers.CartAddItem(d.Cart, logg))
				r.Put("/items", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(d.Cart, logg))
			})
		})
	})

	// Back office.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(authLimit).Post("/auth/login", controllers.UserLogin(d.Users, cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin, enums.RoleUser))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(d.Catalog, logg))
				r.Post("/", controllers.AdminCreateProduct(d.Catalog, logg))
				r.Put("/{productId}", controllers.AdminUpdateProduct(d.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(d.Catalog, logg))
			})
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCategory(d.Catalog, logg))
				r.Put("/{categoryId}", controllers.AdminUpdateCategory(d.Catalog, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(d.Catalog, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(d.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(d.Orders, logg))
				r.Post("/{orderId}/status", controllers.AdminTransitionOrder(d.Orders, logg))
			})
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", controllers.AdminListCustomers(d.Customers, logg))
				r.Get("/{customerId}", controllers.AdminCustomerDetail(d.Customers, logg))
				r.Get("/{customerId}/wallet", controllers.AdminCustomerWallet(d.Wallet, logg))
				r.Post("/{customerId}/wallet/credit", controllers.AdminCreditWallet(d.Wallet, logg))
				r.Post("/{customerId}/wallet/debit", controllers.AdminDebitWallet(d.Wallet, logg))
			})
			r.Route("/cities", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCity(d.Shipping, logg))
				r.Put("/{cityId}", controllers.AdminUpdateCity(d.Shipping, logg))
				r.Delete("/{cityId}", controllers.AdminDeleteCity(d.Shipping, logg))
				r.Post("/{cityId}/regions", controllers.AdminCreateRegion(d.Shipping, logg))
			})
			r.Get("/couriers/{provider}/cities", controllers.AdminCourierCities(d.Couriers, logg))
			r.Route("/regions", func(r chi.Router) {
				r.Put("/{regionId}", controllers.AdminUpdateRegion(d.Shipping, logg))
				r.Delete("/{regionId}", controllers.AdminDeleteRegion(d.Shipping, logg))
			})
			r.Route("/support", func(r chi.Router) {
				r.Get("/", controllers.AdminListSupport(d.Support, logg))
				r.Post("/{messageId}/handle", controllers.AdminMarkSupportHandled(d.Support, logg))
			})

			// Settings and operator management stay admin only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/settings", controllers.AdminGetSettings(d.Settings, logg))
				r.Put("/settings", controllers.AdminUpdateSettings(d.Settings, logg))
				r.Route("/users", func(r chi.Router) {
					r.Get("/", controllers.AdminListUsers(d.Users, logg))
					r.Post("/", controllers.AdminCreateUser(d.Users, logg))
					r.Post("/{userId}/active", controllers.AdminSetUserActive(d.Users, logg))
				})
			})
		})
	})

	return r
}
