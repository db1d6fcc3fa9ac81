package router

import (
	"github.com/cleyfe/chaincare/internal/cache"
	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/handler"
	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/cleyfe/chaincare/internal/middleware"
	"github.com/cleyfe/chaincare/internal/vault"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由依赖；Vault 与 Chain 为 nil 表示未启用链
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Store  cache.Store
	APY    vault.APYProvider
	Vault  handler.VaultService
	Chain  handler.ChainStatus
}

func Setup(deps Deps) *gin.Engine {
	cfg := deps.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(metrics.Middleware())
	r.Use(corsMiddleware())

	db := deps.DB
	userLogic := logic.NewUserLogic(db, deps.Store, cfg.Auth)
	requireAuth := middleware.Auth(userLogic)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// 健康检查
	r.GET("/health", handler.NewHealthHandler(db, deps.Chain).Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		statsHandler := handler.NewStatsHandler(db, deps.APY)
		api.GET("/stats", statsHandler.GetStats)

		depositHandler := handler.NewDepositHandler(db)
		api.GET("/deposits", depositHandler.GetDeposits)
		api.POST("/deposits", limiter.Handler(), depositHandler.CreateDeposit)

		projectHandler := handler.NewProjectHandler(db)
		api.GET("/projects", projectHandler.GetProjects)
		api.GET("/projects/:id", projectHandler.GetProject)

		ledgerHandler := handler.NewLedgerHandler(db)
		api.GET("/distributions", ledgerHandler.GetDistributions)
		api.GET("/audit", ledgerHandler.GetAuditTrail)

		rewardsHandler := handler.NewRewardsHandler(db)
		api.GET("/rewards/:accountId", rewardsHandler.GetRewards)
		api.POST("/achievements/check", limiter.Handler(), rewardsHandler.CheckAchievements)
		api.GET("/achievements/:accountId", rewardsHandler.GetAchievements)

		// 认证相关路由
		authHandler := handler.NewAuthHandler(userLogic, cfg.Server.Mode == gin.ReleaseMode)
		api.POST("/register", limiter.Handler(), authHandler.Register)
		api.POST("/login", limiter.Handler(), authHandler.Login)
		api.POST("/logout", requireAuth, authHandler.Logout)
		api.GET("/user", requireAuth, authHandler.GetUser)
		api.POST("/auth/nonce", limiter.Handler(), authHandler.Nonce)
		api.POST("/auth/wallet", limiter.Handler(), authHandler.WalletLogin)

		dashboardHandler := handler.NewDashboardHandler(db)
		api.GET("/dashboard", requireAuth, dashboardHandler.GetDashboard)

		// 金库相关路由
		vaultHandler := handler.NewVaultHandler(deps.Vault, deps.APY)
		v := api.Group("/vault")
		{
			v.GET("/apy", vaultHandler.GetAPY)
			v.GET("/impact", vaultHandler.GetImpact)
			v.GET("/total-assets", vaultHandler.GetTotalAssets)
			v.GET("/price-per-share", vaultHandler.GetPricePerShare)
			v.GET("/balance/:address", vaultHandler.GetBalance)
			v.GET("/max-deposit/:address", vaultHandler.GetMaxDeposit)
			v.GET("/allowance/:address", vaultHandler.GetAllowance)
			v.GET("/estimate", vaultHandler.GetGasEstimate)

			// 服务端签名操作仅限运维账户
			ops := v.Group("", requireAuth, middleware.RequireOperator(cfg.Auth.OperatorUsers, cfg.Auth.OperatorWallets), limiter.Handler())
			ops.POST("/deposit", vaultHandler.Deposit)
			ops.POST("/withdraw", vaultHandler.Withdraw)
			ops.POST("/permit", vaultHandler.Permit)
			ops.POST("/approve", vaultHandler.Approve)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
