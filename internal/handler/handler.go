// Package handler exposes the storefront HTTP API.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/uncoverstore/api/internal/auth"
	"github.com/uncoverstore/api/internal/domain/address"
	"github.com/uncoverstore/api/internal/domain/checkout"
	"github.com/uncoverstore/api/internal/domain/order"
	"github.com/uncoverstore/api/internal/domain/product"
	"github.com/uncoverstore/api/internal/domain/user"
)

// Server wires the storefront routes to the domain services. Authentication
// state lives in the injected Sessions provider, constructed once in the
// wiring layer; handlers never reach for process-wide auth state.
type Server struct {
	engine *gin.Engine

	products  product.Repository
	orders    order.Repository
	users     user.Repository
	addresses address.Repository
	checkout  *checkout.Service
	sessions  *auth.Sessions
	hasher    *auth.Hasher

	secureCookies bool
}

// Config holds non-dependency configuration for the Server.
type Config struct {
	// SecureCookies marks session cookies as Secure; enable everywhere TLS
	// terminates in front of the service.
	SecureCookies bool
}

// NewServer constructs the HTTP server and registers all routes.
func NewServer(
	cfg Config,
	products product.Repository,
	orders order.Repository,
	users user.Repository,
	addresses address.Repository,
	checkoutSvc *checkout.Service,
	sessions *auth.Sessions,
	hasher *auth.Hasher,
) *Server {
	engine := gin.New()
	engine.ContextWithFallback = true

	s := &Server{
		engine:        engine,
		products:      products,
		orders:        orders,
		users:         users,
		addresses:     addresses,
		checkout:      checkoutSvc,
		sessions:      sessions,
		hasher:        hasher,
		secureCookies: cfg.SecureCookies,
	}
	s.registerRoutes()
	return s
}

// Engine returns the underlying gin engine for mounting; recovery, CORS,
// rate limiting, and request logging are applied by the outer middleware
// chain in the app wiring.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.POST("/products", s.createProduct)

	api.POST("/register", s.register)
	api.POST("/auth/signin", s.signIn)
	api.GET("/auth/session", s.session)
	api.POST("/logout", s.logout)

	authed := api.Group("", s.requireSession)
	authed.GET("/addresses", s.listAddresses)
	authed.POST("/addresses", s.createAddress)

	api.POST("/payment/intent", s.createPaymentIntent)
	api.POST("/payment/verify", s.verifyPayment)
	api.POST("/checkout", s.checkoutCOD)

	api.GET("/orders", s.listOrders)
	api.PATCH("/orders", s.updateOrder)
}
