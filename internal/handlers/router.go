package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/session"
	"github.com/skilltrack/learning-service/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	userHandler       *UserHandler
	teamHandler       *TeamHandler
	courseHandler     *CourseHandler
	enrollmentHandler *EnrollmentHandler
	metricsHandler    *MetricsHandler
	kpiHandler        *KpiHandler

	sessions *session.Store
	logger   utils.Logger
}

type HandlerServices struct {
	Auth       services.AuthService
	User       services.UserService
	Team       services.TeamService
	Course     services.CourseService
	Enrollment services.EnrollmentService
	Metrics    services.MetricsService
	Export     services.ReportExportService
	Kpi        services.KpiService
}

func NewHandlerManager(
	svcs HandlerServices,
	sessions *session.Store,
	sessionTTL time.Duration,
	secureCookies bool,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:       NewAuthHandler(svcs.Auth, svcs.Enrollment, sessions, sessionTTL, secureCookies, logger),
		userHandler:       NewUserHandler(svcs.User, logger),
		teamHandler:       NewTeamHandler(svcs.Team, logger),
		courseHandler:     NewCourseHandler(svcs.Course, logger),
		enrollmentHandler: NewEnrollmentHandler(svcs.Enrollment, logger),
		metricsHandler:    NewMetricsHandler(svcs.Metrics, svcs.Export, logger),
		kpiHandler:        NewKpiHandler(svcs.Kpi, logger),
		sessions:          sessions,
		logger:            logger,
	}
}

// SetupRoutes wires all API routes. Everything under /api except login
// requires a session; the CSRF guard covers every mutating method.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "learning-service",
		})
	})

	api := router.Group("/api")
	api.POST("/auth/login", hm.authHandler.Login)

	authed := api.Group("")
	authed.Use(RequireAuth(hm.sessions, hm.logger), RequireCSRF())
	{
		authed.GET("/csrf", hm.authHandler.Csrf)
		authed.POST("/auth/logout", hm.authHandler.Logout)

		authed.GET("/me", hm.authHandler.Me)
		authed.PATCH("/me", hm.authHandler.UpdateMe)
		authed.POST("/me/password", hm.authHandler.ChangePassword)

		authed.GET("/teams", hm.teamHandler.ListTeams)

		courses := authed.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.POST("", hm.courseHandler.CreateCourse)
			courses.PATCH("/:id", hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.courseHandler.DeleteCourse)
			courses.POST("/bulk-delete", hm.courseHandler.BulkDeleteCourses)
		}

		enrollments := authed.Group("/enrollments")
		{
			enrollments.POST("/assign", hm.enrollmentHandler.Assign)
			enrollments.POST("/self", hm.enrollmentHandler.EnrollSelf)
			enrollments.GET("/by-user/:id", hm.enrollmentHandler.ListByUser)
			enrollments.POST("/check-status", hm.enrollmentHandler.CheckStatus)
			enrollments.PATCH("/progress", hm.enrollmentHandler.SetProgress)
			enrollments.PATCH("/mark-completed", hm.enrollmentHandler.MarkCompleted)
		}

		admin := authed.Group("/admin")
		{
			admin.GET("/users", hm.userHandler.ListUsers)
			admin.GET("/users/:id", hm.userHandler.GetUser)
			admin.POST("/users", hm.userHandler.CreateUser)
			admin.PATCH("/users/:id", hm.userHandler.UpdateUser)
			admin.DELETE("/users/:id", hm.userHandler.DeleteUser)

			admin.POST("/teams", hm.teamHandler.CreateTeam)
			admin.DELETE("/teams/:id", hm.teamHandler.DeleteTeam)

			metrics := admin.Group("/metrics")
			{
				metrics.GET("/overview", hm.metricsHandler.Overview)
				metrics.GET("/enrollments-by-course", hm.metricsHandler.EnrollmentsByCourse)
				metrics.GET("/completion-rate-by-course", hm.metricsHandler.CompletionRateByCourse)
				metrics.GET("/team-performance", hm.metricsHandler.TeamPerformance)
				metrics.GET("/overdue-by-course", hm.metricsHandler.OverdueByCourse)
				metrics.GET("/export", hm.metricsHandler.Export)
			}
		}

		teamMetrics := authed.Group("/metrics/team/:teamId")
		{
			teamMetrics.GET("/overview", hm.metricsHandler.TeamOverview)
			teamMetrics.GET("/enrollments-by-course", hm.metricsHandler.TeamEnrollmentsByCourse)
			teamMetrics.GET("/completion-rate-by-course", hm.metricsHandler.TeamCompletionRateByCourse)
			teamMetrics.GET("/overdue-by-course", hm.metricsHandler.TeamOverdueByCourse)
			teamMetrics.GET("/performance", hm.metricsHandler.TeamUserPerformance)
		}

		kpis := authed.Group("/kpis")
		{
			kpis.GET("/org", hm.kpiHandler.OrgHistory)
			kpis.GET("/team/:teamId", hm.kpiHandler.TeamHistory)
		}
	}
}
