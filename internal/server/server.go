package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	accountsdomain "github.com/ledgerwell/praxis/internal/accounts/domain"
	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
	"github.com/ledgerwell/praxis/internal/config"
	"github.com/ledgerwell/praxis/internal/observability"
	obslogger "github.com/ledgerwell/praxis/internal/observability/logger"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
	obstracing "github.com/ledgerwell/praxis/internal/observability/tracing"
	"github.com/ledgerwell/praxis/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

// NewEngine builds the gin engine with the shared middleware chain.
// Routes attach in NewServer.
func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
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

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	clientSvc   clientdomain.Service
	accountsSvc accountsdomain.Service
	auditSvc    auditdomain.Service
	limiter     *ratelimit.OutputLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	ClientSvc   clientdomain.Service
	AccountsSvc accountsdomain.Service
	AuditSvc    auditdomain.Service
	Limiter     *ratelimit.OutputLimiter
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		clientSvc:   p.ClientSvc,
		accountsSvc: p.AccountsSvc,
		auditSvc:    p.AuditSvc,
		limiter:     p.Limiter,
	}

	svc.registerAPIRoutes()
	svc.registerFileRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Clients --------
	v1.POST("/clients", s.CreateClient)
	v1.GET("/clients", s.ListClients)
	v1.GET("/clients/:id", s.GetClientByID)
	v1.PATCH("/clients/:id", s.UpdateClient)

	// -------- Accounts documents --------
	v1.POST("/documents", s.CreateDocument)
	v1.GET("/documents", s.ListDocuments)
	v1.GET("/documents/:id", s.GetDocumentByID)
	v1.DELETE("/documents/:id", s.DeleteDocument)
	v1.PUT("/documents/:id/sections/:key", s.UpdateDocumentSection)
	v1.POST("/documents/:id/lock", s.LockDocument)
	v1.POST("/documents/:id/unlock", s.UnlockDocument)
	v1.POST("/documents/:id/outputs", s.OutputRateLimit(), s.GenerateDocumentOutputs)
	v1.GET("/documents/:id/history", s.GetDocumentHistory)

	// -------- Audit --------
	v1.GET("/audit-logs", s.ListAuditLogs)
}

// registerFileRoutes serves the generated outputs directory. gin's static
// handler refuses directory listings and paths that traverse out of the
// root. A files base URL that is not a local path means something else
// serves the files, so nothing is mounted.
func (s *Server) registerFileRoutes() {
	base := strings.TrimSpace(s.cfg.FilesBaseURL)
	if !strings.HasPrefix(base, "/") {
		return
	}
	s.engine.Static(base, s.cfg.FilesDir)
}

func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
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
