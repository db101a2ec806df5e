package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vendaria/trustcore/internal/audit"
	auditdomain "github.com/vendaria/trustcore/internal/audit/domain"
	"github.com/vendaria/trustcore/internal/auth"
	authdomain "github.com/vendaria/trustcore/internal/auth/domain"
	"github.com/vendaria/trustcore/internal/authorization"
	"github.com/vendaria/trustcore/internal/backup"
	backupdomain "github.com/vendaria/trustcore/internal/backup/domain"
	"github.com/vendaria/trustcore/internal/clock"
	"github.com/vendaria/trustcore/internal/config"
	"github.com/vendaria/trustcore/internal/identity"
	identitydomain "github.com/vendaria/trustcore/internal/identity/domain"
	"github.com/vendaria/trustcore/internal/observability"
	obsmetrics "github.com/vendaria/trustcore/internal/observability/metrics"
	obstracing "github.com/vendaria/trustcore/internal/observability/tracing"
	"github.com/vendaria/trustcore/internal/payment"
	paymentdomain "github.com/vendaria/trustcore/internal/payment/domain"
	"github.com/vendaria/trustcore/internal/usage"
	usagedomain "github.com/vendaria/trustcore/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	clock.Module,
	observability.Module,
	fx.Provide(NewEngine),
	authorization.Module,
	audit.Module,
	auth.Module,
	identity.Module,
	payment.Module,
	backup.Module,
	usage.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
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
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	authSvc     authdomain.Service
	identitySvc identitydomain.Service
	paymentSvc  paymentdomain.Service
	backupSvc   backupdomain.Service
	usageSvc    usagedomain.Service
	auditSvc    auditdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	AuthSvc     authdomain.Service
	IdentitySvc identitydomain.Service
	PaymentSvc  paymentdomain.Service
	BackupSvc   backupdomain.Service
	UsageSvc    usagedomain.Service
	AuditSvc    auditdomain.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		authSvc:     p.AuthSvc,
		identitySvc: p.IdentitySvc,
		paymentSvc:  p.PaymentSvc,
		backupSvc:   p.BackupSvc,
		usageSvc:    p.UsageSvc,
		auditSvc:    p.AuditSvc,
		obsMetrics:  p.ObsMetrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.POST("/webhooks/payments/mercadopago", s.HandlePaymentWebhook)

	rpc := s.engine.Group("/rpc")
	rpc.Use(s.AuthRequired())
	{
		rpc.POST("/requestTenantBackup", s.HandleRequestTenantBackup)
		rpc.POST("/requestTenantRestore", s.HandleRequestTenantRestore)
		rpc.POST("/approveTenantRestoreRequest", s.HandleApproveTenantRestoreRequest)
		rpc.GET("/usageMetrics", s.HandleUsageMetrics)
		rpc.GET("/auditLogs", s.HandleListAuditLogs)
	}
}
