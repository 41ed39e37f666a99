package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telehealth-core/internal/handler/api"
	"telehealth-core/internal/handler/middleware"
	"telehealth-core/internal/pkg/config"
	"telehealth-core/internal/pkg/jwt"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	registry *prometheus.Registry,
	holdHandler *api.HoldHandler,
	appointmentHandler *api.AppointmentHandler,
	matchHandler *api.MatchHandler,
	specialistHandler *api.SpecialistHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, registry, holdHandler, appointmentHandler, matchHandler, specialistHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	registry *prometheus.Registry,
	holdHandler *api.HoldHandler,
	appointmentHandler *api.AppointmentHandler,
	matchHandler *api.MatchHandler,
	specialistHandler *api.SpecialistHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	apiGroup := engine.Group("/api")
	apiGroup.Use(authMiddleware.RequireAuth())
	{
		holds := apiGroup.Group("/holds")
		{
			addRoutes(holds, []route{
				{Method: http.MethodPost, Path: "", Handler: holdHandler.ReserveHold},
				{Method: http.MethodGet, Path: "/:id", Handler: holdHandler.GetHold},
				{Method: http.MethodPost, Path: "/:id/release", Handler: holdHandler.ReleaseHold},
				{Method: http.MethodPost, Path: "/:id/renew", Handler: holdHandler.RenewHold},
				{Method: http.MethodPost, Path: "/:id/commit", Handler: appointmentHandler.CommitHold},
			})
		}

		appointments := apiGroup.Group("/appointments")
		{
			addRoutes(appointments, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: appointmentHandler.GetAppointment},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: appointmentHandler.CancelAppointment},
				{Method: http.MethodPost, Path: "/:id/complete", Handler: appointmentHandler.CompleteAppointment},
			})
		}

		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/matches", Handler: matchHandler.FindMatch},
		})

		specialists := apiGroup.Group("/specialists")
		{
			addRoutes(specialists, []route{
				{Method: http.MethodGet, Path: "/:id/availability", Handler: specialistHandler.GetAvailability},
				{
					Method:  http.MethodPost,
					Path:    "/presence/heartbeat",
					Handler: specialistHandler.Heartbeat,
					Mw:      []gin.HandlerFunc{authMiddleware.RequireRole(jwt.RoleSpecialist)},
				},
				{
					Method:  http.MethodPost,
					Path:    "/presence/offline",
					Handler: specialistHandler.MarkOffline,
					Mw:      []gin.HandlerFunc{authMiddleware.RequireRole(jwt.RoleSpecialist)},
				},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
