// Package server exposes the entitlement service over HTTP.
package server

import (
	"context"
	"net"
	"net/http"

	auditdomain "github.com/foundify/foundify/internal/audit/domain"
	billingdomain "github.com/foundify/foundify/internal/billing/domain"
	checkoutdomain "github.com/foundify/foundify/internal/checkout/domain"
	"github.com/foundify/foundify/internal/config"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	generationdomain "github.com/foundify/foundify/internal/generation/domain"
	"github.com/foundify/foundify/internal/observability/logger"
	"github.com/foundify/foundify/internal/observability/metrics"
	quotadomain "github.com/foundify/foundify/internal/quota/domain"
	referraldomain "github.com/foundify/foundify/internal/referral/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	cfg            config.Config
	log            *zap.Logger
	db             *gorm.DB
	entitlementSvc entitlementdomain.Service
	quotaSvc       quotadomain.Service
	generationSvc  generationdomain.Service
	billingSvc     billingdomain.Service
	checkoutSvc    checkoutdomain.Service
	referralSvc    referraldomain.Service
	auditSvc       auditdomain.Service
	authorizeLimit *rateLimiter
}

type Params struct {
	fx.In

	Cfg            config.Config
	Log            *zap.Logger
	DB             *gorm.DB
	EntitlementSvc entitlementdomain.Service
	QuotaSvc       quotadomain.Service
	GenerationSvc  generationdomain.Service
	BillingSvc     billingdomain.Service
	CheckoutSvc    checkoutdomain.Service
	ReferralSvc    referraldomain.Service
	AuditSvc       auditdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:            p.Cfg,
		log:            p.Log.Named("server"),
		db:             p.DB,
		entitlementSvc: p.EntitlementSvc,
		quotaSvc:       p.QuotaSvc,
		generationSvc:  p.GenerationSvc,
		billingSvc:     p.BillingSvc,
		checkoutSvc:    p.CheckoutSvc,
		referralSvc:    p.ReferralSvc,
		auditSvc:       p.AuditSvc,
		authorizeLimit: newRateLimiter(p.Cfg.Quota.AuthorizeRateLimit, p.Cfg.Quota.AuthorizeRateWindow),
	}
}

type EngineParams struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	Server      *Server
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	if p.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	if p.HTTPMetrics != nil {
		engine.Use(p.HTTPMetrics.GinMiddleware())
	}
	p.Server.RegisterRoutes(engine)
	return engine
}

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.GET("/entitlement/:accountId", s.GetEntitlement)

	engine.POST("/generation/authorize", s.AuthorizeGeneration)
	engine.POST("/generation/record", s.RecordGeneration)

	engine.POST("/billing/webhook", s.BillingWebhook)
	engine.POST("/billing/checkout", s.StartCheckout)
	engine.POST("/billing/checkout/verify", s.VerifyCheckout)

	engine.POST("/referrals/track", s.TrackReferral)

	internal := engine.Group("/internal", s.ServiceTokenRequired())
	internal.GET("/analytics", s.Analytics)
	internal.POST("/accounts", s.ProvisionAccount)
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP binds the engine to the application lifecycle.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			listener, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(
		NewServer,
		NewEngine,
	),
	fx.Invoke(RunHTTP),
)
