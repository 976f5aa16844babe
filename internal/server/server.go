package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/teamdesk/internal/audit/domain"
	"github.com/smallbiznis/teamdesk/internal/config"
	invoicedomain "github.com/smallbiznis/teamdesk/internal/invoice/domain"
	organizationdomain "github.com/smallbiznis/teamdesk/internal/organization/domain"
	projectdomain "github.com/smallbiznis/teamdesk/internal/project/domain"
	taskdomain "github.com/smallbiznis/teamdesk/internal/task/domain"
	userdomain "github.com/smallbiznis/teamdesk/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.registerRoutes() }),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
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
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	userSvc         userdomain.Service
	organizationSvc organizationdomain.Service
	projectSvc      projectdomain.Service
	taskSvc         taskdomain.Service
	invoiceSvc      invoicedomain.Service
	auditSvc        auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	UserSvc         userdomain.Service
	OrganizationSvc organizationdomain.Service
	ProjectSvc      projectdomain.Service
	TaskSvc         taskdomain.Service
	InvoiceSvc      invoicedomain.Service
	AuditSvc        auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		genID:           p.GenID,
		userSvc:         p.UserSvc,
		organizationSvc: p.OrganizationSvc,
		projectSvc:      p.ProjectSvc,
		taskSvc:         p.TaskSvc,
		invoiceSvc:      p.InvoiceSvc,
		auditSvc:        p.AuditSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1", s.CurrentUser())

	api.POST("/signup", s.Signup)

	api.POST("/organizations", s.CreateOrganization)
	api.GET("/organizations", s.ListOrganizations)

	// Everything below runs against one resolved tenant.
	org := api.Group("", s.OrgContext())

	member := org.Group("", s.RequireMember())
	{
		member.GET("/projects", s.ListProjects)
		member.POST("/projects", s.CreateProject)
		member.GET("/projects/:id", s.GetProject)
		member.PATCH("/projects/:id", s.UpdateProject)
		member.DELETE("/projects/:id", s.DeleteProject)

		member.GET("/projects/:id/tasks", s.ListTasks)
		member.POST("/tasks", s.CreateTask)
		member.GET("/tasks/:id", s.GetTask)
		member.PATCH("/tasks/:id", s.UpdateTask)
		member.DELETE("/tasks/:id", s.DeleteTask)

		member.GET("/tasks/:id/comments", s.ListTaskComments)
		member.POST("/tasks/:id/comments", s.CreateTaskComment)
		member.DELETE("/comments/:id", s.DeleteTaskComment)

		member.GET("/invoices", s.ListInvoices)
		member.POST("/invoices", s.CreateInvoice)
		member.GET("/invoices/:id", s.GetInvoice)
		member.PATCH("/invoices/:id", s.UpdateInvoice)
		member.DELETE("/invoices/:id", s.DeleteInvoice)

		member.GET("/invoices/:id/items", s.ListInvoiceItems)
		member.POST("/invoices/:id/items", s.AddInvoiceItem)
		member.PATCH("/invoice-items/:id", s.UpdateInvoiceItem)
		member.DELETE("/invoice-items/:id", s.RemoveInvoiceItem)
	}

	org.GET("/audit-logs", s.RequireOwnerOrAdmin(), s.ListAuditLogs)
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param(name))
	if err != nil {
		return 0, newValidationError(name, "invalid_"+name, "invalid identifier")
	}
	return id, nil
}
