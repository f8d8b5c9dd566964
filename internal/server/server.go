package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/auth"
	"github.com/skipscan/skipscan/internal/config"
	creditpackagedomain "github.com/skipscan/skipscan/internal/creditpackage/domain"
	enrichmentdomain "github.com/skipscan/skipscan/internal/enrichment/domain"
	"github.com/skipscan/skipscan/internal/observability"
	obsmiddleware "github.com/skipscan/skipscan/internal/observability/logger"
	obsmetrics "github.com/skipscan/skipscan/internal/observability/metrics"
	obstracing "github.com/skipscan/skipscan/internal/observability/tracing"
	paymentdomain "github.com/skipscan/skipscan/internal/payment/domain"
	purchasedomain "github.com/skipscan/skipscan/internal/purchase/domain"
	queryresultdomain "github.com/skipscan/skipscan/internal/queryresult/domain"
	"github.com/skipscan/skipscan/internal/ratelimit"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	tokens *auth.Manager

	accountSvc    accountdomain.Service
	packageSvc    creditpackagedomain.Service
	enrichmentSvc enrichmentdomain.Service
	resultSvc     queryresultdomain.Service
	purchaseSvc   purchasedomain.Service
	paymentSvc    paymentdomain.Service

	enrichLimiter *ratelimit.EnrichmentLimiter
}

type ServerParams struct {
	fx.In

	Gin    *gin.Engine
	Cfg    config.Config
	DB     *gorm.DB
	Tokens *auth.Manager

	AccountSvc    accountdomain.Service
	PackageSvc    creditpackagedomain.Service
	EnrichmentSvc enrichmentdomain.Service
	ResultSvc     queryresultdomain.Service
	PurchaseSvc   purchasedomain.Service
	PaymentSvc    paymentdomain.Service

	EnrichLimiter *ratelimit.EnrichmentLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		tokens:        p.Tokens,
		accountSvc:    p.AccountSvc,
		packageSvc:    p.PackageSvc,
		enrichmentSvc: p.EnrichmentSvc,
		resultSvc:     p.ResultSvc,
		purchaseSvc:   p.PurchaseSvc,
		paymentSvc:    p.PaymentSvc,
		enrichLimiter: p.EnrichLimiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func RegisterRoutes(s *Server) {
	s.RegisterAPIRoutes()
	s.RegisterWebhookRoutes()
}

func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/auth/signup", s.Signup)

	account := v1.Group("/account", s.AuthRequired())
	{
		account.GET("", s.GetAccount)
		account.GET("/balance", s.GetBalance)
	}

	v1.GET("/packages", s.AuthRequired(), s.ListPackages)

	enrich := v1.Group("/enrich", s.AuthRequired())
	{
		enrich.POST("/batch", s.EnrichRateLimit(enrichmentdomain.KindBatchUpload), s.EnrichBatch)
		enrich.POST("/:kind", s.EnrichRateLimit(""), s.Enrich)
	}

	results := v1.Group("/results", s.AuthRequired())
	{
		results.GET("", s.ListResults)
		results.GET("/:id", s.GetResultByID)
	}

	checkout := v1.Group("/checkout", s.AuthRequired())
	{
		checkout.POST("", s.CreateCheckout)
		checkout.POST("/verify", s.VerifyCheckout)
		checkout.POST("/sandbox", s.SandboxGrant)
	}
}

func (s *Server) RegisterWebhookRoutes() {
	// Webhooks authenticate by signature, not bearer token.
	s.engine.POST("/webhooks/stripe", s.HandleStripeWebhook)
}
