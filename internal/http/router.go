package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wenwu/saas-platform/panel-service/internal/config"
)

// RateLimiter 简单的内存速率限制器
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int           // 最大请求数
	window   time.Duration // 时间窗口
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	// 清理过期请求
	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	// 检查是否超过限制
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	// 记录新请求
	rl.requests[key] = append(valid, now)
	return true
}

// RateLimitMiddleware 速率限制中间件
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 使用用户 ID 或 IP 作为限制 key
		key := c.GetString("userID")
		if key == "" {
			key = c.ClientIP()
		}

		if !rl.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

type Server struct {
	router  *gin.Engine
	handler *Handler
	cfg     *config.Config
}

// 全局速率限制器: 每用户每分钟最多 60 次请求
var userRateLimiter = NewRateLimiter(60, time.Minute)

// 服务器创建速率限制器: 每用户每小时最多 10 次创建请求
// 说明: 创建是计费操作，限制重复提交造成的误扣费
var createRateLimiter = NewRateLimiter(10, time.Hour)

func NewServer(cfg *config.Config, handler *Handler) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		handler: handler,
		cfg:     cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "panel-service",
		})
	})

	// Payment provider webhook - internal secret, no JWT
	webhook := s.router.Group("/api/webhook")
	webhook.Use(InternalAuthMiddleware(s.cfg.InternalSecret))
	{
		webhook.POST("/payment", s.handler.PaymentWebhook)
	}

	// User API - requires JWT authentication
	user := s.router.Group("/api/v1")
	user.Use(JWTAuthMiddleware(s.cfg.JWT.SecretKey))
	user.Use(RateLimitMiddleware(userRateLimiter)) // 用户 API 速率限制
	{
		// Account
		user.GET("/me/credits", s.handler.MyCredits)
		user.GET("/me/transactions", s.handler.MyTransactions)
		user.GET("/me/activity", s.handler.MyActivity)
		user.GET("/me/dashboard", s.handler.MyDashboard)

		// Catalog
		user.GET("/nodes", s.handler.ListNodes)
		user.GET("/packages", s.handler.ListPackages)

		// Servers - 创建使用更严格的速率限制
		user.POST("/servers", RateLimitMiddleware(createRateLimiter), s.handler.CreateServer)
		user.GET("/servers", s.handler.ListServers)
		user.GET("/servers/:id", s.handler.GetServer)
		user.POST("/servers/:id/status", s.handler.ServerAction)
		user.DELETE("/servers/:id", s.handler.DeleteServer)

		// Payments
		user.GET("/payments/packages", s.handler.ListCreditPackages)
		user.POST("/payments/checkout", s.handler.Checkout)
		user.GET("/payments", s.handler.ListPayments)

		// Tickets
		user.POST("/tickets", s.handler.CreateTicket)
		user.GET("/tickets", s.handler.ListTickets)
		user.GET("/tickets/:id", s.handler.GetTicket)
		user.POST("/tickets/:id/reply", s.handler.ReplyTicket)
		user.POST("/tickets/:id/status", s.handler.UpdateTicketStatus)
	}

	// Admin API - requires JWT + admin role
	admin := s.router.Group("/api/v1/admin")
	admin.Use(JWTAuthMiddleware(s.cfg.JWT.SecretKey))
	admin.Use(AdminRequired())
	{
		// Users
		admin.GET("/users", s.handler.AdminListUsers)
		admin.POST("/users/:id/credits", s.handler.AdminAdjustCredits)
		admin.POST("/users/:id/role", s.handler.AdminSetRole)

		// Nodes
		admin.POST("/nodes", s.handler.AdminCreateNode)
		admin.GET("/nodes/:id", s.handler.AdminGetNode)
		admin.PUT("/nodes/:id", s.handler.AdminUpdateNode)
		admin.DELETE("/nodes/:id", s.handler.AdminDeleteNode)

		// Packages
		admin.POST("/packages", s.handler.AdminCreatePackage)
		admin.PUT("/packages/:id", s.handler.AdminUpdatePackage)
		admin.DELETE("/packages/:id", s.handler.AdminDeletePackage)

		// Observability
		admin.GET("/activity", s.handler.AdminListActivity)
		admin.GET("/stats", s.handler.AdminStats)
	}
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the underlying engine. Test hook.
func (s *Server) Router() *gin.Engine {
	return s.router
}
