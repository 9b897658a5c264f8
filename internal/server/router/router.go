package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/server/handlers"
	"github.com/mamadbah2/pettycash/internal/server/middleware"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the routes need.
type Deps struct {
	JWTSecret string
	Sessions  middleware.SessionTracker
	Health    []Pinger

	Auth      *handlers.AuthHandler
	Stores    *handlers.StoreHandler
	Ledger    *handlers.LedgerHandler
	Audits    *handlers.AuditHandler
	Transfers *handlers.TransferHandler
	Exports   *handlers.ExportHandler
	Scans     *handlers.ScanHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(d Deps, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(middleware.Prometheus())

	r.GET("/healthz", healthz(d.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/scanner/params", d.Scans.Params)
	r.POST("/api/auth/login", d.Auth.Login)

	authed := middleware.Authenticate(d.JWTSecret, d.Sessions, logger)

	r.GET("/ws/scans", authed, d.Scans.Live)

	api := r.Group("/api", authed)
	api.POST("/auth/logout", d.Auth.Logout)
	api.GET("/auth/me", d.Auth.Me)
	api.GET("/stores", d.Stores.List)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.PUT("/stores/:id", d.Stores.Upsert)

	store := api.Group("/stores/:store", middleware.RequireStore())
	{
		store.GET("/entries", d.Ledger.ListEntries)
		store.POST("/entries", d.Ledger.CreateEntry)
		store.PATCH("/entries/:id", d.Ledger.PatchEntry)
		store.DELETE("/entries/:id", d.Ledger.DeleteEntry)

		store.GET("/cashins", d.Ledger.ListCashIns)
		store.POST("/cashins", d.Ledger.CreateCashIn)
		store.DELETE("/cashins/:id", d.Ledger.DeleteCashIn)

		store.GET("/deposits", d.Ledger.ListDeposits)
		store.POST("/deposits", d.Ledger.CreateDeposit)
		store.DELETE("/deposits/:id", d.Ledger.DeleteDeposit)

		store.GET("/overrides/:month", d.Ledger.GetOverride)
		store.PUT("/overrides/:month", middleware.RequireRole(models.RoleAdmin), d.Ledger.SetOverride)
		store.DELETE("/overrides/:month", middleware.RequireRole(models.RoleAdmin), d.Ledger.ClearOverride)

		store.GET("/summary", d.Ledger.Summary)

		store.GET("/audits/counts", d.Audits.ListCounts)
		store.POST("/audits/counts", d.Audits.RecordCount)
		store.GET("/audits/closings", d.Audits.ListClosings)
		store.POST("/audits/closings", d.Audits.RecordClosing)

		store.GET("/transfers", d.Transfers.List)
		store.POST("/transfers", d.Transfers.Create)
		store.GET("/transfers/:id", d.Transfers.Get)
		store.DELETE("/transfers/:id", d.Transfers.Delete)
		store.PUT("/transfers/:id/flag", middleware.RequireRole(models.RoleAdmin), d.Transfers.SetFlag)

		store.GET("/export", d.Exports.Download)

		store.POST("/scans", d.Scans.Open)
		store.POST("/scans/poll", d.Scans.Poll)
		store.GET("/scans/draft", d.Scans.Draft)
		store.DELETE("/scans/draft", d.Scans.ClearDraft)
		store.POST("/scans/entries/:entry/pages", d.Scans.UploadPages)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func healthz(deps []Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for _, p := range deps {
			if err := p.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
