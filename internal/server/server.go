// Package server exposes the moderation core over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wardenhq/warden/internal/budget"
	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
	"github.com/wardenhq/warden/internal/clock"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/pipeline"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/health", health)
	r.GET("/healthz", health)

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	cfg       config.Config
	usagesvc  usagedomain.Service
	gate      *budget.Gate
	casesvc   casesdomain.Service
	actionsvc schedactiondomain.Service
	pipeline  *pipeline.Pipeline
	clock     clock.Clock
}

type ServerParams struct {
	fx.In

	Cfg       config.Config
	Usagesvc  usagedomain.Service
	Gate      *budget.Gate
	Casesvc   casesdomain.Service
	Actionsvc schedactiondomain.Service
	Pipeline  *pipeline.Pipeline
	Clock     clock.Clock
}

func NewServer(p ServerParams) *Server {
	return &Server{
		cfg:       p.Cfg,
		usagesvc:  p.Usagesvc,
		gate:      p.Gate,
		casesvc:   p.Casesvc,
		actionsvc: p.Actionsvc,
		pipeline:  p.Pipeline,
		clock:     p.Clock,
	}
}

func RegisterRoutes(r *gin.Engine, s *Server) {
	v1 := r.Group("/v1")
	{
		v1.POST("/usage", s.RecordUsage)
		v1.GET("/communities/:communityId/budget", s.CheckBudget)
		v1.POST("/communities/:communityId/evaluate", s.Evaluate)
		v1.POST("/communities/:communityId/cases", s.CreateCase)
		v1.GET("/communities/:communityId/cases", s.ListCases)
		v1.GET("/communities/:communityId/cases/:caseNumber", s.GetCase)
		v1.POST("/cases/:caseId/log-message", s.AttachLogMessage)
	}
}
