package router

import (
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/handler"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/metrics"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/middleware"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps are the process-wide dependencies built by main.
type Deps struct {
	Store   storage.Storage
	Backend string        // selected storage kind, reported by /health
	Redis   *redis.Client // optional
	Metrics *metrics.Metrics
	Now     service.Clock // nil means time.Now
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Storage ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	loc := cfg.Location()

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(d.Metrics.Middleware())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(d.Store, cfg)
	userSvc := service.NewUserService(d.Store, cfg)
	obraSvc := service.NewObraService(d.Store, d.Redis, d.Metrics)
	pontoSvc := service.NewPontoService(d.Store, loc, d.Now, d.Metrics)
	equipaSvc := service.NewEquipaService(d.Store)
	parteSvc := service.NewParteDiariaService(d.Store, loc, d.Now)
	statsSvc := service.NewStatsService(d.Store, loc, d.Now)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc, userSvc)
	usersH := handler.NewUsersHandler(userSvc)
	obrasH := handler.NewObrasHandler(obraSvc, parteSvc)
	pontoH := handler.NewPontoHandler(pontoSvc)
	equipasH := handler.NewEquipasHandler(equipaSvc)
	partesH := handler.NewPartesHandler(parteSvc)
	statsH := handler.NewStatsHandler(statsSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.Store, d.Backend, d.Redis))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	public := r.Group("/api")
	{
		public.POST("/login", middleware.LoginRateLimiter(middleware.LoginAttemptsPerMinute), authH.Login)
		public.POST("/refresh", authH.Refresh)
	}

	diretor := middleware.RequireRole(model.RoleDiretor)
	gestao := middleware.RequireRole(model.RoleDiretor, model.RoleEncarregado)

	api := r.Group("/api", middleware.JWTAuth(cfg.JWTSecret, d.Store))
	{
		api.GET("/user", authH.Me)
		api.POST("/user/change-role", authH.ChangeRole)

		obras := api.Group("/obras")
		{
			obras.GET("", obrasH.List)
			obras.GET("/qr/:token", obrasH.GetByQRCode)
			obras.GET("/:id", obrasH.Get)
			obras.POST("", diretor, obrasH.Create)
			obras.PATCH("/:id", diretor, obrasH.Update)
			obras.GET("/:id/partes-diarias", gestao, obrasH.PartesDiarias)
		}

		ponto := api.Group("/registo-ponto")
		{
			ponto.GET("", pontoH.List)
			ponto.GET("/today", pontoH.Today)
			ponto.POST("/clock-in", pontoH.ClockIn)
			ponto.POST("/clock-out", pontoH.ClockOut)
		}

		equipas := api.Group("/equipas")
		{
			equipas.GET("", equipasH.List)
			equipas.POST("", gestao, equipasH.Create)
			equipas.POST("/:id/members", gestao, equipasH.AddMembro)
			equipas.DELETE("/:id/members/:userId", gestao, equipasH.RemoveMembro)
		}

		api.GET("/partes-diarias", partesH.List)
		api.POST("/partes-diarias", partesH.Create)

		api.GET("/stats", statsH.Get)

		users := api.Group("/users")
		{
			users.GET("", gestao, usersH.List)
			users.POST("", diretor, usersH.Create)
			users.GET("/:id/credentials", diretor, usersH.Credentials)
			users.POST("/:id/reset-password", diretor, usersH.ResetPassword)
			users.PUT("/:id/role", diretor, usersH.SetRole)
		}
	}

	return r
}
