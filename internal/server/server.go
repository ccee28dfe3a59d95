package server

import (
	"context"
	"net/http"
	"time"

	"kestiv/internal/auth"
	"kestiv/internal/config"
	"kestiv/internal/email"
	"kestiv/internal/membership"
	"kestiv/internal/plan"
	"kestiv/internal/product"
	"kestiv/internal/staff"
	"kestiv/internal/transaction"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Staff        *staff.Handler
	Plans        *plan.Handler
	Members      *membership.Handler
	Products     *product.Handler
	Transactions *transaction.Handler
	Mailer       Mailer
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New wires repositories, services and handlers on top of db.
func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	planRepo := plan.NewRepository(db)

	h := Handlers{
		Staff:        staff.NewHandler(staff.NewService(staff.NewRepository(db), cfg.JWTSecret)),
		Plans:        plan.NewHandler(plan.NewService(planRepo)),
		Members:      membership.NewHandler(membership.NewService(membership.NewRepository(db), planRepo, emailService)),
		Products:     product.NewHandler(product.NewService(product.NewRepository(db))),
		Transactions: transaction.NewHandler(transaction.NewService(transaction.NewRepository(db))),
		Mailer:       emailService,
	}

	router := NewRouter(h, cfg)
	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter mounts h behind the middleware stack.
func NewRouter(h Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(),
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	{
		public.POST("/register", h.Staff.Register)
		public.POST("/login", h.Staff.Login)
		public.POST("/refresh", h.Staff.RefreshToken)
	}

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/me", h.Staff.Me)

		protected.GET("/plans", h.Plans.List)
		protected.GET("/plans/:id", h.Plans.Get)

		protected.POST("/members", h.Members.Create)
		protected.GET("/members", h.Members.List)
		protected.GET("/members/:id", h.Members.Get)
		protected.PUT("/members/:id", h.Members.Update)
		protected.GET("/members/:id/history", h.Members.History)
		protected.POST("/members/:id/plan", h.Members.ChangePlan)
		protected.POST("/members/:id/renew", h.Members.Renew)
		protected.POST("/members/:id/sessions/use", h.Members.UseSession)
		protected.POST("/members/:id/sessions", h.Members.AddSessions)
		protected.POST("/members/:id/freeze", h.Members.Freeze)
		protected.POST("/members/:id/unfreeze", h.Members.Unfreeze)
		protected.POST("/members/:id/cancel", h.Members.Cancel)
		protected.POST("/members/:id/services", h.Members.AddService)
		protected.POST("/members/:id/debt/repay", h.Members.RepayDebt)

		protected.GET("/products", h.Products.List)
		protected.GET("/products/:id", h.Products.Get)

		protected.GET("/transactions", h.Transactions.List)
		protected.GET("/transactions/summary", h.Transactions.Summary)
		protected.POST("/sales", h.Transactions.CreateSale)
	}

	owner := router.Group("/")
	owner.Use(auth.AuthMiddleware(cfg.JWTSecret), auth.RequireRole(staff.RoleOwner))
	{
		owner.POST("/plans", h.Plans.Create)
		owner.PUT("/plans/:id", h.Plans.Update)
		owner.POST("/plans/:id/deactivate", h.Plans.Deactivate)

		owner.POST("/products", h.Products.Create)
		owner.PUT("/products/:id", h.Products.Update)
		owner.POST("/products/:id/stock", h.Products.AdjustStock)

		owner.GET("/transactions/analytics", h.Transactions.Analytics)

		owner.GET("/staff", h.Staff.List)
		owner.POST("/staff", h.Staff.Create)

		if h.Mailer != nil {
			owner.POST("/system/test-email", TestEmail(h.Mailer))
		}
	}

	return router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
