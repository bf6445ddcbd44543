package app

import (
	"mentorhub_backend/docs"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/middleware"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerCommonRoutes(authGroup, c)
		a.registerStudentRoutes(authGroup, c)
		a.registerMentorRoutes(authGroup, c)
	}

	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// Schedule browsing works without a login so visitors can see mentor
	// availability before signing up.
	browse := router.Group("/api")
	browse.Use(middleware.TryAuthMiddleware(a.Config))
	{
		browse.GET("/schedules", c.schedule.List)
		browse.GET("/schedules/:id", c.schedule.Get)
	}
}

func (a *App) registerCommonRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.GET("/notifications", c.notification.ListMine)
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	student := rg.Group("/student")
	student.Use(middleware.RoleMiddleware(model.Student))
	{
		student.POST("/bookings", c.booking.Book)
		student.GET("/bookings", c.booking.List)
		student.GET("/bookings/:ref", c.booking.Get)
		student.DELETE("/bookings/:ref", c.booking.Cancel)

		student.GET("/subscriptions", c.subscription.ListMine)
		student.GET("/subscriptions/active", c.subscription.GetActive)

		student.GET("/eligibility", c.eligibility.CheckLevel)
		student.GET("/verifications", c.eligibility.ListMine)
		student.POST("/verifications", c.eligibility.RequestVerification)
		student.POST("/verifications/evidence", c.eligibility.UploadEvidence)
		student.POST("/verifications/:id/submissions", c.eligibility.SubmitRequirement)

		student.GET("/slot-requests", c.slotRequest.ListMine)
		student.POST("/slot-requests", c.slotRequest.Submit)
		student.DELETE("/slot-requests/:id", c.slotRequest.Cancel)
	}
}

func (a *App) registerMentorRoutes(rg *gin.RouterGroup, c *controllers) {
	mentor := rg.Group("/mentor")
	mentor.Use(middleware.RoleMiddleware(model.Mentor))
	{
		mentor.POST("/schedules", c.schedule.Publish)
		mentor.PUT("/schedules/:id/slots/:slotIndex/toggle", c.schedule.ToggleSlot)
		mentor.DELETE("/schedules/:id/slots/:slotIndex", c.schedule.RemoveSlot)

		mentor.GET("/slot-requests", c.slotRequest.Inbox)
		mentor.PUT("/slot-requests/:id/decision", c.slotRequest.Decide)

		mentor.POST("/eligibility/group", c.eligibility.CheckGroup)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		// Mentors share the reviewer queue with admins.
		admin.GET("/verifications", middleware.RoleMiddleware(model.Admin, model.Mentor), c.eligibility.ListPending)
		admin.PUT("/verifications/:id/decision", middleware.RoleMiddleware(model.Admin, model.Mentor), c.eligibility.Decide)

		adminOnly := admin.Group("/")
		adminOnly.Use(middleware.RoleMiddleware(model.Admin))
		{
			adminOnly.POST("/subscriptions", c.subscription.Grant)
		}
	}
}
