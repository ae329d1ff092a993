package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	"github.com/railzwaylabs/clubsettle/internal/authorization"
	bankdomain "github.com/railzwaylabs/clubsettle/internal/bankstatement/domain"
	carryforwarddomain "github.com/railzwaylabs/clubsettle/internal/carryforward/domain"
	"github.com/railzwaylabs/clubsettle/internal/config"
	importdomain "github.com/railzwaylabs/clubsettle/internal/importer/domain"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	ratedomain "github.com/railzwaylabs/clubsettle/internal/rate/domain"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewServer),
	fx.Invoke(Start),
)

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Authz    authorization.Authorizer

	SettlementSvc   settlementdomain.Service
	CarryForwardSvc carryforwarddomain.Service
	LedgerSvc       ledgerdomain.Service
	BankSvc         bankdomain.Service
	ImportSvc       importdomain.Service
	RateSvc         ratedomain.Service
	AuditExportSvc  auditdomain.ExportService
}

type Server struct {
	cfg      config.Config
	log      *zap.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	authz    authorization.Authorizer

	settlementSvc   settlementdomain.Service
	carryForwardSvc carryforwarddomain.Service
	ledgerSvc       ledgerdomain.Service
	bankSvc         bankdomain.Service
	importSvc       importdomain.Service
	rateSvc         ratedomain.Service
	auditExportSvc  auditdomain.ExportService
}

func NewServer(p Params) *Server {
	registerValidatorTagNames()
	return &Server{
		cfg:             p.Config,
		log:             p.Log.Named("http"),
		db:              p.DB,
		registry:        p.Registry,
		authz:           p.Authz,
		settlementSvc:   p.SettlementSvc,
		carryForwardSvc: p.CarryForwardSvc,
		ledgerSvc:       p.LedgerSvc,
		bankSvc:         p.BankSvc,
		importSvc:       p.ImportSvc,
		rateSvc:         p.RateSvc,
		auditExportSvc:  p.AuditExportSvc,
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginzap.Ginzap(s.log, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(s.log, true))
	router.Use(RequestID())

	router.GET("/healthz", s.Health)
	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1", s.TenantRequired())
	s.registerRoutes(v1)
	return router
}

func (s *Server) registerRoutes(v1 *gin.RouterGroup) {
	perm := s.RequirePermission

	cf := v1.Group("/carry-forward")
	cf.GET("", perm(authorization.ObjectCarryForward, authorization.ActionRead), s.GetCarryForward)
	cf.POST("/close-week", perm(authorization.ObjectCarryForward, authorization.ActionWrite), s.CloseWeek)
	cf.GET("/status", perm(authorization.ObjectCarryForward, authorization.ActionRead), s.CarryForwardStatus)

	ledger := v1.Group("/ledger")
	ledger.GET("", perm(authorization.ObjectLedger, authorization.ActionRead), s.ListLedgerEntries)
	ledger.POST("", perm(authorization.ObjectLedger, authorization.ActionWrite), s.CreateLedgerEntry)
	ledger.DELETE("/:id", perm(authorization.ObjectLedger, authorization.ActionDelete), s.DeleteLedgerEntry)
	ledger.PATCH("/:id/reconcile", perm(authorization.ObjectLedger, authorization.ActionWrite), s.ReconcileLedgerEntry)

	ofx := v1.Group("/ofx")
	ofx.POST("/upload", perm(authorization.ObjectBankStatement, authorization.ActionWrite), s.UploadOFX)
	ofx.GET("", perm(authorization.ObjectBankStatement, authorization.ActionRead), s.ListBankTransactions)
	ofx.PATCH("/:id/link", perm(authorization.ObjectBankStatement, authorization.ActionWrite), s.LinkBankTransaction)
	ofx.PATCH("/:id/unlink", perm(authorization.ObjectBankStatement, authorization.ActionWrite), s.UnlinkBankTransaction)
	ofx.PATCH("/:id/ignore", perm(authorization.ObjectBankStatement, authorization.ActionWrite), s.IgnoreBankTransaction)
	ofx.POST("/auto-match", perm(authorization.ObjectBankStatement, authorization.ActionRead), s.AutoMatch)
	ofx.POST("/apply", perm(authorization.ObjectBankStatement, authorization.ActionWrite), s.ApplyLinked)

	st := v1.Group("/settlements")
	st.GET("", perm(authorization.ObjectSettlement, authorization.ActionRead), s.ListSettlements)
	st.GET("/:id", perm(authorization.ObjectSettlement, authorization.ActionRead), s.GetSettlement)
	st.GET("/:id/full", perm(authorization.ObjectSettlement, authorization.ActionRead), s.GetFullSettlement)
	st.POST("/:id/finalize", perm(authorization.ObjectSettlement, authorization.ActionFinalize), s.FinalizeSettlement)
	st.POST("/:id/void", perm(authorization.ObjectSettlement, authorization.ActionVoid), s.VoidSettlement)

	imports := v1.Group("/imports")
	imports.POST("", perm(authorization.ObjectImport, authorization.ActionWrite), s.ConfirmImport)
	imports.DELETE("/:id", perm(authorization.ObjectImport, authorization.ActionDelete), s.DeleteImport)

	rates := v1.Group("/rates")
	rates.PUT("/:entity_type/:entity_id", perm(authorization.ObjectRate, authorization.ActionWrite), s.SetRate)
	rates.GET("/:entity_type/:entity_id", perm(authorization.ObjectRate, authorization.ActionRead), s.GetRate)

	v1.GET("/audit/export", perm(authorization.ObjectAudit, authorization.ActionRead), s.ExportAuditLogs)
}

func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start serves HTTP for the lifetime of the fx app.
func Start(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
