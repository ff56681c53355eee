package router

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"schools24/internal/auth"
	"schools24/internal/authz"
	"schools24/internal/config"
	"schools24/internal/handler"
	"schools24/internal/service"
	"schools24/internal/validation"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	jwtService *auth.JWTService,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	adminHandler *handler.AdminHandler,
	feeHandler *handler.FeeHandler,
	developerHandler *handler.DeveloperHandler,
	seedHandler *handler.SeedHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	e.Validator = validation.New()
	e.HTTPErrorHandler = errorHandler(e, log)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	if !cfg.IsProduction() {
		api.POST("/seed", seedHandler.Seed)
	}

	// Secured routes (require a valid, unrevoked token of an active user)
	secured := api.Group("",
		echojwt.WithConfig(handler.JWTConfig(jwtService)),
		handler.ResolveActor(authService),
	)

	secured.GET("/auth/me", authHandler.Me)
	secured.POST("/auth/logout", authHandler.Logout)

	// Admin routes
	admin := secured.Group("/admin")
	admin.GET("/dashboard", adminHandler.Dashboard, authz.RequireCapability(authz.OpViewDashboard))

	manageUsers := authz.RequireCapability(authz.OpManageUsers)
	admin.GET("/teachers", adminHandler.ListTeachers, manageUsers)
	admin.POST("/users", adminHandler.CreateUser, manageUsers)

	assignTeachers := authz.RequireCapability(authz.OpAssignTeachers)
	admin.GET("/teachers/:id/assignments", adminHandler.TeacherAssignments, assignTeachers)
	admin.PUT("/classes/:id/assign-teacher", adminHandler.AssignTeacher, assignTeachers)
	admin.DELETE("/classes/:id/remove-teacher", adminHandler.RemoveTeacher, assignTeachers)

	classes := admin.Group("/classes", authz.RequireCapability(authz.OpManageClasses))
	classes.GET("", adminHandler.ListClasses)
	classes.POST("", adminHandler.CreateClass)
	classes.GET("/:id", adminHandler.GetClass)
	classes.DELETE("/:id", adminHandler.DeleteClass)
	classes.POST("/:id/students", adminHandler.EnrollStudent)

	subjects := admin.Group("/subjects", authz.RequireCapability(authz.OpManageSubjects))
	subjects.GET("", adminHandler.ListSubjects)
	subjects.POST("", adminHandler.CreateSubject)

	fees := admin.Group("/fees", authz.RequireCapability(authz.OpManageFees))
	fees.GET("/heads", feeHandler.ListHeads)
	fees.POST("/heads", feeHandler.CreateHead)
	fees.POST("/invoices", feeHandler.CreateInvoice)
	fees.POST("/payments", feeHandler.RecordPayment)
	fees.GET("/collections", feeHandler.Collections)

	// Developer routes
	developer := secured.Group("/developer")
	developer.GET("/overview", developerHandler.Overview, authz.RequireCapability(authz.OpViewOverview))

	schools := developer.Group("/schools", authz.RequireCapability(authz.OpManageSchools))
	schools.GET("", developerHandler.ListSchools)
	schools.POST("", developerHandler.CreateSchool)
	schools.GET("/export", developerHandler.ExportSchools)
	schools.POST("/:id/provision-admin", developerHandler.ProvisionAdmin)
	schools.GET("/:id/users", developerHandler.ListSchoolUsers)
	schools.POST("/:id/users", developerHandler.CreateSchoolUser)
	schools.GET("/:id/locks", developerHandler.GetLocks)
	schools.PUT("/:id/locks", developerHandler.UpdateLocks)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// errorHandler logs server errors with the request id, then lets echo write
// the response. The internal error never reaches the client.
func errorHandler(e *echo.Echo, log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		status, cause := http.StatusInternalServerError, err
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if he.Internal != nil {
				cause = he.Internal
			}
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.Error(cause),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
